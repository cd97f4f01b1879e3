package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/logger"
	"frrand-backend/internal/notifier"
	"frrand-backend/internal/repository"
	"frrand-backend/internal/security"
)

// signupGrant is the point balance a fresh account starts with, enough
// to post one minimal request.
const signupGrant = 1

type authService struct {
	users    repository.UserRepository
	apiKeys  repository.APIKeyRepository
	vouchers repository.VoucherRepository
	notify   notifier.Notifier
	tokens   security.TokenManager
	log      *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	apiKeys repository.APIKeyRepository,
	vouchers repository.VoucherRepository,
	notify notifier.Notifier,
	tokens security.TokenManager,
) AuthService {
	return &authService{
		users:    users,
		apiKeys:  apiKeys,
		vouchers: vouchers,
		notify:   notify,
		tokens:   tokens,
		log:      logger.WithService("auth"),
	}
}

func (s *authService) Signup(ctx context.Context, username, password, phone string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Active:       true,
		Points:       signupGrant,
		Phone:        phone,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.users.SetSelfOwned(ctx, user.ID); err != nil {
		return nil, err
	}
	user.CreatedBy = user.ID
	s.log.Info("user signed up", "user", user.ID.Hex())
	return user, nil
}

func (s *authService) Login(ctx context.Context, username, password, deviceID string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrUnauthorized
		}
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.ErrUnauthorized
	}
	if deviceID != "" && deviceID != user.DeviceID {
		if err := s.users.SetDeviceID(ctx, user.ID, deviceID); err != nil {
			return "", err
		}
	}
	return s.tokens.GenerateSessionToken(user.ID, deviceID)
}

// ProvisionDevice mints an API key for the device and pushes it out.
// The key is only persisted after the push succeeded; a key the device
// never received would lock its holder out.
func (s *authService) ProvisionDevice(ctx context.Context, userID primitive.ObjectID, deviceID string) error {
	key := uuid.NewString()
	payload := notifier.Payload{
		"type":             domain.EventAPIKey,
		domain.EventAPIKey: key,
	}
	if !s.notify.Send(ctx, deviceID, payload) {
		return domain.ErrNotifierFailure
	}

	if err := s.apiKeys.DeleteByDevice(ctx, deviceID); err != nil {
		return err
	}
	apiKey := &domain.APIKey{
		Key:       key,
		DeviceID:  deviceID,
		CreatedBy: userID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.apiKeys.Create(ctx, apiKey); err != nil {
		return err
	}
	if err := s.users.SetDeviceID(ctx, userID, deviceID); err != nil {
		return err
	}
	s.log.Info("device provisioned", "user", userID.Hex())
	return nil
}

func (s *authService) RedeemVoucher(ctx context.Context, userID primitive.ObjectID, code string) (int, error) {
	voucher, err := s.vouchers.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrInvalidVoucher
		}
		return 0, err
	}
	if !voucher.Redeemable(time.Now().UTC()) {
		return 0, domain.ErrInvalidVoucher
	}
	if err := s.vouchers.Redeem(ctx, voucher.ID, userID); err != nil {
		return 0, err
	}
	if err := s.users.AwardPoints(ctx, userID, voucher.Points); err != nil {
		return 0, err
	}
	s.log.Info("voucher redeemed", "user", userID.Hex(), "points", voucher.Points)
	return voucher.Points, nil
}
