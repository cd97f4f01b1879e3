package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/geo"
	"frrand-backend/internal/notifier"
)

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) SetSelfOwned(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockUserRepo) SetDeviceID(ctx context.Context, id primitive.ObjectID, deviceID string) error {
	args := m.Called(ctx, id, deviceID)
	return args.Error(0)
}
func (m *MockUserRepo) StashPoints(ctx context.Context, id primitive.ObjectID, n int) error {
	args := m.Called(ctx, id, n)
	return args.Error(0)
}
func (m *MockUserRepo) SpendPendingPoints(ctx context.Context, id primitive.ObjectID, n int) error {
	args := m.Called(ctx, id, n)
	return args.Error(0)
}
func (m *MockUserRepo) AwardPoints(ctx context.Context, id primitive.ObjectID, n int) error {
	args := m.Called(ctx, id, n)
	return args.Error(0)
}
func (m *MockUserRepo) SetRating(ctx context.Context, id primitive.ObjectID, rating float64, count, prevCount int) error {
	args := m.Called(ctx, id, rating, count, prevCount)
	return args.Error(0)
}
func (m *MockUserRepo) IncrementDeliveryCounters(ctx context.Context, requesterID, delivererID primitive.ObjectID) error {
	args := m.Called(ctx, requesterID, delivererID)
	return args.Error(0)
}

// MockAddressRepo
type MockAddressRepo struct {
	mock.Mock
}

func (m *MockAddressRepo) Create(ctx context.Context, address *domain.Address) (primitive.ObjectID, error) {
	args := m.Called(ctx, address)
	id := args.Get(0).(primitive.ObjectID)
	address.ID = id
	return id, args.Error(1)
}
func (m *MockAddressRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Address, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}
func (m *MockAddressRepo) UpdateText(ctx context.Context, id primitive.ObjectID, text string) error {
	args := m.Called(ctx, id, text)
	return args.Error(0)
}
func (m *MockAddressRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockAddressRepo) ListPermanentByOwner(ctx context.Context, owner primitive.ObjectID) ([]domain.Address, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).([]domain.Address), args.Error(1)
}
func (m *MockAddressRepo) FindNearestPermanent(ctx context.Context, owner primitive.ObjectID, near geo.Point) (*domain.Address, error) {
	args := m.Called(ctx, owner, near)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}
func (m *MockAddressRepo) ExistsNear(ctx context.Context, owner primitive.ObjectID, location geo.Point) (bool, error) {
	args := m.Called(ctx, owner, location)
	return args.Bool(0), args.Error(1)
}

// MockLocationRepo
type MockLocationRepo struct {
	mock.Mock
}

func (m *MockLocationRepo) Create(ctx context.Context, loc *domain.Location) (primitive.ObjectID, error) {
	args := m.Called(ctx, loc)
	id := args.Get(0).(primitive.ObjectID)
	loc.ID = id
	return id, args.Error(1)
}
func (m *MockLocationRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Location), args.Error(1)
}
func (m *MockLocationRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockLocationRepo) ClearCurrent(ctx context.Context, owner primitive.ObjectID) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}
func (m *MockLocationRepo) SetCurrent(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockLocationRepo) FindStationary(ctx context.Context, owner primitive.ObjectID, hour, dayOfWeek int, location geo.Point) (*domain.Location, error) {
	args := m.Called(ctx, owner, hour, dayOfWeek, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Location), args.Error(1)
}
func (m *MockLocationRepo) ListRecent(ctx context.Context, owner primitive.ObjectID, limit int) ([]domain.Location, error) {
	args := m.Called(ctx, owner, limit)
	return args.Get(0).([]domain.Location), args.Error(1)
}
func (m *MockLocationRepo) SetTimesReported(ctx context.Context, id primitive.ObjectID, n int) error {
	args := m.Called(ctx, id, n)
	return args.Error(0)
}
func (m *MockLocationRepo) SetRegion(ctx context.Context, id primitive.ObjectID, region geo.Geometry) error {
	args := m.Called(ctx, id, region)
	return args.Error(0)
}
func (m *MockLocationRepo) ListFrequentInWindow(ctx context.Context, owner primitive.ObjectID, hours, days []int, limit int) ([]domain.Location, error) {
	args := m.Called(ctx, owner, hours, days, limit)
	return args.Get(0).([]domain.Location), args.Error(1)
}
func (m *MockLocationRepo) FindIntersectingRoute(ctx context.Context, route geo.LineString, near *geo.Point, dayOfWeek int) ([]domain.Location, error) {
	args := m.Called(ctx, route, near, dayOfWeek)
	return args.Get(0).([]domain.Location), args.Error(1)
}

// MockRequestRepo
type MockRequestRepo struct {
	mock.Mock
}

func (m *MockRequestRepo) Create(ctx context.Context, req *domain.Request) (primitive.ObjectID, error) {
	args := m.Called(ctx, req)
	id := args.Get(0).(primitive.ObjectID)
	req.ID = id
	return id, args.Error(1)
}
func (m *MockRequestRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Request), args.Error(1)
}
func (m *MockRequestRepo) PushCandidates(ctx context.Context, id primitive.ObjectID, userIDs []primitive.ObjectID) error {
	args := m.Called(ctx, id, userIDs)
	return args.Error(0)
}
func (m *MockRequestRepo) PopCandidate(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}
func (m *MockRequestRepo) PullCandidate(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}
func (m *MockRequestRepo) ClearCandidates(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockRequestRepo) AddInvite(ctx context.Context, id, inviteID primitive.ObjectID) error {
	args := m.Called(ctx, id, inviteID)
	return args.Error(0)
}
func (m *MockRequestRepo) RemoveInvite(ctx context.Context, id, inviteID primitive.ObjectID) error {
	args := m.Called(ctx, id, inviteID)
	return args.Error(0)
}
func (m *MockRequestRepo) Attach(ctx context.Context, id, inviteID primitive.ObjectID) error {
	args := m.Called(ctx, id, inviteID)
	return args.Error(0)
}
func (m *MockRequestRepo) SetComplete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockRequestRepo) SetCancel(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockRequestRepo) SetMutuallyCancelled(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockRequestRepo) SetFeedback(ctx context.Context, id primitive.ObjectID, rating int, comment string) error {
	args := m.Called(ctx, id, rating, comment)
	return args.Error(0)
}
func (m *MockRequestRepo) SetStaleWarned(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockRequestRepo) SetPublicInviteIfUnset(ctx context.Context, id, publicInviteID primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, id, publicInviteID)
	return args.Bool(0), args.Error(1)
}
func (m *MockRequestRepo) ClearPublicInvite(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockRequestRepo) ListPastDue(ctx context.Context, now time.Time) ([]domain.Request, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.Request), args.Error(1)
}

// MockInviteRepo
type MockInviteRepo struct {
	mock.Mock
}

func (m *MockInviteRepo) Create(ctx context.Context, inv *domain.Invite) (primitive.ObjectID, error) {
	args := m.Called(ctx, inv)
	id := args.Get(0).(primitive.ObjectID)
	inv.ID = id
	return id, args.Error(1)
}
func (m *MockInviteRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Invite, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invite), args.Error(1)
}
func (m *MockInviteRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockInviteRepo) ListByRequest(ctx context.Context, requestID primitive.ObjectID) ([]domain.Invite, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).([]domain.Invite), args.Error(1)
}
func (m *MockInviteRepo) ExistsForUser(ctx context.Context, requestID, userID primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, requestID, userID)
	return args.Bool(0), args.Error(1)
}
func (m *MockInviteRepo) SetAccepted(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockInviteRepo) SetAttached(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockInviteRepo) SetComplete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockInviteRepo) SetCancel(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockInviteRepo) SetFeedback(ctx context.Context, id primitive.ObjectID, rating int, comment string) error {
	args := m.Called(ctx, id, rating, comment)
	return args.Error(0)
}
func (m *MockInviteRepo) ListExpired(ctx context.Context, now time.Time) ([]domain.Invite, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.Invite), args.Error(1)
}

// MockPublicInviteRepo
type MockPublicInviteRepo struct {
	mock.Mock
}

func (m *MockPublicInviteRepo) Create(ctx context.Context, pub *domain.PublicInvite) (primitive.ObjectID, error) {
	args := m.Called(ctx, pub)
	id := args.Get(0).(primitive.ObjectID)
	pub.ID = id
	return id, args.Error(1)
}
func (m *MockPublicInviteRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PublicInvite, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PublicInvite), args.Error(1)
}
func (m *MockPublicInviteRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockPublicInviteRepo) DeleteByRequest(ctx context.Context, requestID primitive.ObjectID) error {
	args := m.Called(ctx, requestID)
	return args.Error(0)
}
func (m *MockPublicInviteRepo) ClaimAcceptedBy(ctx context.Context, id, userID primitive.ObjectID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}
func (m *MockPublicInviteRepo) ClearAcceptedBy(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockPublicInviteRepo) ListNear(ctx context.Context, near geo.Point, limit int) ([]domain.PublicInvite, error) {
	args := m.Called(ctx, near, limit)
	return args.Get(0).([]domain.PublicInvite), args.Error(1)
}

// MockFeedbackRepo
type MockFeedbackRepo struct {
	mock.Mock
}

func (m *MockFeedbackRepo) Create(ctx context.Context, fb *domain.Feedback) (primitive.ObjectID, error) {
	args := m.Called(ctx, fb)
	id := args.Get(0).(primitive.ObjectID)
	fb.ID = id
	return id, args.Error(1)
}
func (m *MockFeedbackRepo) GetByInviteFor(ctx context.Context, inviteID, forUser primitive.ObjectID) (*domain.Feedback, error) {
	args := m.Called(ctx, inviteID, forUser)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Feedback), args.Error(1)
}
func (m *MockFeedbackRepo) UpdateComment(ctx context.Context, id primitive.ObjectID, comment string) error {
	args := m.Called(ctx, id, comment)
	return args.Error(0)
}

// MockCommentRepo
type MockCommentRepo struct {
	mock.Mock
}

func (m *MockCommentRepo) Create(ctx context.Context, c *domain.Comment) (primitive.ObjectID, error) {
	args := m.Called(ctx, c)
	id := args.Get(0).(primitive.ObjectID)
	c.ID = id
	return id, args.Error(1)
}
func (m *MockCommentRepo) ListByTarget(ctx context.Context, target string, targetID primitive.ObjectID) ([]domain.Comment, error) {
	args := m.Called(ctx, target, targetID)
	return args.Get(0).([]domain.Comment), args.Error(1)
}

// MockVoucherRepo
type MockVoucherRepo struct {
	mock.Mock
}

func (m *MockVoucherRepo) GetByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Voucher), args.Error(1)
}
func (m *MockVoucherRepo) Redeem(ctx context.Context, id, userID primitive.ObjectID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// MockAPIKeyRepo
type MockAPIKeyRepo struct {
	mock.Mock
}

func (m *MockAPIKeyRepo) Create(ctx context.Context, key *domain.APIKey) (primitive.ObjectID, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}
func (m *MockAPIKeyRepo) GetByKey(ctx context.Context, key string) (*domain.APIKey, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}
func (m *MockAPIKeyRepo) DeleteByDevice(ctx context.Context, deviceID string) error {
	args := m.Called(ctx, deviceID)
	return args.Error(0)
}

// stubNotifier records every payload and answers with a fixed result.
type stubNotifier struct {
	ok   bool
	sent []notifier.Payload
}

func (s *stubNotifier) Send(_ context.Context, _ string, payload notifier.Payload) bool {
	s.sent = append(s.sent, payload)
	return s.ok
}

// silentSender builds an EventSender whose recipient lookups always
// resolve to a user without a device, so no pushes go anywhere.
func silentSender() *notifier.EventSender {
	users := new(MockUserRepo)
	users.On("GetByID", mock.Anything, mock.Anything).Return(&domain.User{}, nil)
	return notifier.NewEventSender(users, &stubNotifier{ok: true})
}
