package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/geo"
)

type AuthService interface {
	Signup(ctx context.Context, username, password, phone string) (*domain.User, error)
	Login(ctx context.Context, username, password, deviceID string) (string, error) // session token
	// ProvisionDevice issues an API key for a device and pushes it to
	// the device; the key is only persisted if the push succeeded.
	ProvisionDevice(ctx context.Context, userID primitive.ObjectID, deviceID string) error
	RedeemVoucher(ctx context.Context, userID primitive.ObjectID, code string) (int, error)
}

type LocationService interface {
	// ReportLocation ingests one location ping: dedupes stationary
	// repeats, collapses contiguous runs, rebuilds the travel region
	// and may promote a regular spot to a permanent address.
	ReportLocation(ctx context.Context, userID primitive.ObjectID, point geo.Point, at time.Time, hour, dayOfWeek int) (*domain.Location, error)
}

type AddressService interface {
	CreateAddress(ctx context.Context, userID primitive.ObjectID, location geo.Point, text string, temporary bool) (*domain.Address, error)
	// UpdateAddress corrects the text; coordinates are immutable and
	// the new text must geocode near the stored point.
	UpdateAddress(ctx context.Context, userID, addressID primitive.ObjectID, text string) error
	DeleteAddress(ctx context.Context, userID, addressID primitive.ObjectID) error
}

type RequestService interface {
	CreateRequest(ctx context.Context, userID primitive.ObjectID, req *domain.Request) (*domain.Request, error)
	// GetRequest returns the request after lazily pruning expired
	// invites and replenishing from the candidate queue.
	GetRequest(ctx context.Context, userID, requestID primitive.ObjectID) (*domain.Request, error)
	AttachInvite(ctx context.Context, userID, requestID, inviteID primitive.ObjectID) error
	CompleteRequest(ctx context.Context, userID, requestID primitive.ObjectID) error
	RequestCancellation(ctx context.Context, userID, requestID primitive.ObjectID) error
	SubmitRequestFeedback(ctx context.Context, userID, requestID primitive.ObjectID, rating int, comment string) error
}

type InviteService interface {
	AcceptInvite(ctx context.Context, userID, inviteID primitive.ObjectID) error
	DeclineInvite(ctx context.Context, userID, inviteID primitive.ObjectID) error
	SubmitInviteFeedback(ctx context.Context, userID, inviteID primitive.ObjectID, rating int, comment string) error
	ListPublicInvites(ctx context.Context, near geo.Point, limit int) ([]domain.PublicInvite, error)
	// ClaimPublicInvite converts an open listing into a pre-accepted
	// private invite for the claimant.
	ClaimPublicInvite(ctx context.Context, userID, publicInviteID primitive.ObjectID) error
}

type CommentService interface {
	AddComment(ctx context.Context, userID primitive.ObjectID, target string, targetID primitive.ObjectID, text string) (*domain.Comment, error)
	ListComments(ctx context.Context, target string, targetID primitive.ObjectID) ([]domain.Comment, error)
}
