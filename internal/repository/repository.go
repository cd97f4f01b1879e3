package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/geo"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// SetSelfOwned stamps createdBy with the user's own id after signup.
	SetSelfOwned(ctx context.Context, id primitive.ObjectID) error
	SetDeviceID(ctx context.Context, id primitive.ObjectID, deviceID string) error

	// Points escrow. All three are atomic single-document updates;
	// StashPoints and SpendPendingPoints fail with
	// domain.ErrInsufficientPoints when the guarded balance is short.
	StashPoints(ctx context.Context, id primitive.ObjectID, n int) error
	SpendPendingPoints(ctx context.Context, id primitive.ObjectID, n int) error
	AwardPoints(ctx context.Context, id primitive.ObjectID, n int) error

	// SetRating is a conditional write keyed on the previous rating
	// count; a concurrent fold loses and returns domain.ErrNotFound so
	// the caller can reload and retry.
	SetRating(ctx context.Context, id primitive.ObjectID, rating float64, count, prevCount int) error
	IncrementDeliveryCounters(ctx context.Context, requesterID, delivererID primitive.ObjectID) error
}

type AddressRepository interface {
	Create(ctx context.Context, address *domain.Address) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Address, error)
	// UpdateText corrects the descriptive text only; coordinates are
	// immutable by construction.
	UpdateText(ctx context.Context, id primitive.ObjectID, text string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListPermanentByOwner(ctx context.Context, owner primitive.ObjectID) ([]domain.Address, error)
	// FindNearestPermanent returns the owner's closest non-temporary
	// address to the point, or domain.ErrNotFound.
	FindNearestPermanent(ctx context.Context, owner primitive.ObjectID, near geo.Point) (*domain.Address, error)
	// ExistsNear reports whether the owner already has a permanent
	// address in the same 3-decimal grid cell.
	ExistsNear(ctx context.Context, owner primitive.ObjectID, location geo.Point) (bool, error)
}

type LocationRepository interface {
	Create(ctx context.Context, loc *domain.Location) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Location, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// ClearCurrent flips current=false on all of the owner's locations.
	ClearCurrent(ctx context.Context, owner primitive.ObjectID) error
	SetCurrent(ctx context.Context, id primitive.ObjectID) error
	// FindStationary returns the owner's stationary location
	// (timesReported > 1) in the given time bucket and coordinate
	// cell, or domain.ErrNotFound.
	FindStationary(ctx context.Context, owner primitive.ObjectID, hour, dayOfWeek int, location geo.Point) (*domain.Location, error)
	// ListRecent returns the owner's latest locations, newest first.
	ListRecent(ctx context.Context, owner primitive.ObjectID, limit int) ([]domain.Location, error)
	SetTimesReported(ctx context.Context, id primitive.ObjectID, n int) error
	SetRegion(ctx context.Context, id primitive.ObjectID, region geo.Geometry) error
	// ListFrequentInWindow returns the owner's locations whose bucket
	// falls in the given hour/day windows, by descending report count.
	ListFrequentInWindow(ctx context.Context, owner primitive.ObjectID, hours, days []int, limit int) ([]domain.Location, error)
	// FindIntersectingRoute returns current locations for the given
	// day whose travel region intersects the route. Ordered by
	// proximity to near when non-nil.
	FindIntersectingRoute(ctx context.Context, route geo.LineString, near *geo.Point, dayOfWeek int) ([]domain.Location, error)
}

type RequestRepository interface {
	Create(ctx context.Context, req *domain.Request) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Request, error)
	PushCandidates(ctx context.Context, id primitive.ObjectID, userIDs []primitive.ObjectID) error
	// PopCandidate atomically removes and returns the head of the
	// candidate queue; domain.ErrNotFound when empty.
	PopCandidate(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, error)
	PullCandidate(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error
	ClearCandidates(ctx context.Context, id primitive.ObjectID) error
	AddInvite(ctx context.Context, id, inviteID primitive.ObjectID) error
	RemoveInvite(ctx context.Context, id, inviteID primitive.ObjectID) error

	// Attach is the single-writer transition: a conditional update
	// that succeeds only while attachedInviteId is unset and the
	// request is non-terminal. The loser of a concurrent attach gets
	// domain.ErrAlreadyAttached.
	Attach(ctx context.Context, id, inviteID primitive.ObjectID) error
	// SetComplete succeeds only once per request.
	SetComplete(ctx context.Context, id primitive.ObjectID) error
	SetCancel(ctx context.Context, id primitive.ObjectID) error
	// SetMutuallyCancelled succeeds only once per request.
	SetMutuallyCancelled(ctx context.Context, id primitive.ObjectID) error
	SetFeedback(ctx context.Context, id primitive.ObjectID, rating int, comment string) error
	SetStaleWarned(ctx context.Context, id primitive.ObjectID) error

	// SetPublicInviteIfUnset binds a public invite only when none is
	// bound yet; returns false when another one won the race.
	SetPublicInviteIfUnset(ctx context.Context, id, publicInviteID primitive.ObjectID) (bool, error)
	ClearPublicInvite(ctx context.Context, id primitive.ObjectID) error

	// ListPastDue returns non-terminal requests whose requestedTime
	// has passed.
	ListPastDue(ctx context.Context, now time.Time) ([]domain.Request, error)
}

type InviteRepository interface {
	Create(ctx context.Context, inv *domain.Invite) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Invite, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListByRequest(ctx context.Context, requestID primitive.ObjectID) ([]domain.Invite, error)
	// ExistsForUser reports whether the user already holds a live
	// invite for the request.
	ExistsForUser(ctx context.Context, requestID, userID primitive.ObjectID) (bool, error)
	// SetAccepted is conditional on accepted=false; acceptance is
	// monotonic.
	SetAccepted(ctx context.Context, id primitive.ObjectID) error
	SetAttached(ctx context.Context, id primitive.ObjectID) error
	SetComplete(ctx context.Context, id primitive.ObjectID) error
	SetCancel(ctx context.Context, id primitive.ObjectID) error
	SetFeedback(ctx context.Context, id primitive.ObjectID, rating int, comment string) error
	// ListExpired returns unaccepted, unattached invites past expiry.
	ListExpired(ctx context.Context, now time.Time) ([]domain.Invite, error)
}

type PublicInviteRepository interface {
	Create(ctx context.Context, pub *domain.PublicInvite) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PublicInvite, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByRequest(ctx context.Context, requestID primitive.ObjectID) error
	// ClaimAcceptedBy sets acceptedBy only while unset; the loser of a
	// concurrent claim gets domain.ErrDuplicateCandidate.
	ClaimAcceptedBy(ctx context.Context, id, userID primitive.ObjectID) error
	ClearAcceptedBy(ctx context.Context, id primitive.ObjectID) error
	// ListNear returns open public invites sorted by proximity to the
	// viewer.
	ListNear(ctx context.Context, near geo.Point, limit int) ([]domain.PublicInvite, error)
}

type FeedbackRepository interface {
	Create(ctx context.Context, fb *domain.Feedback) (primitive.ObjectID, error)
	// GetByInviteFor returns the feedback written for the given user
	// on the given invite, or domain.ErrNotFound.
	GetByInviteFor(ctx context.Context, inviteID, forUser primitive.ObjectID) (*domain.Feedback, error)
	UpdateComment(ctx context.Context, id primitive.ObjectID, comment string) error
}

type CommentRepository interface {
	Create(ctx context.Context, c *domain.Comment) (primitive.ObjectID, error)
	ListByTarget(ctx context.Context, target string, targetID primitive.ObjectID) ([]domain.Comment, error)
}

type VoucherRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.Voucher, error)
	// Redeem marks the voucher used, conditional on it being unused;
	// the loser gets domain.ErrInvalidVoucher.
	Redeem(ctx context.Context, id, userID primitive.ObjectID) error
}

type APIKeyRepository interface {
	Create(ctx context.Context, key *domain.APIKey) (primitive.ObjectID, error)
	GetByKey(ctx context.Context, key string) (*domain.APIKey, error)
	// DeleteByDevice removes older keys for the device, keeping the
	// deviceId-to-key pairing 1:1.
	DeleteByDevice(ctx context.Context, deviceID string) error
}
