package service

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/geo"
	"frrand-backend/internal/geocode"
	"frrand-backend/internal/logger"
	"frrand-backend/internal/notifier"
	"frrand-backend/internal/repository"
)

type addressService struct {
	addresses repository.AddressRepository
	geocoder  geocode.Geocoder
	sender    *notifier.EventSender
	log       *slog.Logger
}

func NewAddressService(
	addresses repository.AddressRepository,
	geocoder geocode.Geocoder,
	sender *notifier.EventSender,
) AddressService {
	return &addressService{
		addresses: addresses,
		geocoder:  geocoder,
		sender:    sender,
		log:       logger.WithService("address"),
	}
}

// CreateAddress stores a new address for the user. Permanent addresses
// are unique per ~111m grid cell; empty text is filled in by reverse
// geocoding with a placeholder fallback the user can correct later.
func (s *addressService) CreateAddress(ctx context.Context, userID primitive.ObjectID, location geo.Point, text string, temporary bool) (*domain.Address, error) {
	if !temporary {
		exists, err := s.addresses.ExistsNear(ctx, userID, location)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.ErrDuplicateAddress
		}
	}

	if text == "" {
		resolved, err := s.geocoder.Reverse(ctx, location)
		if err != nil {
			s.log.Warn("reverse geocode failed", "error", err)
			resolved = geocode.UnknownAddress
		}
		text = resolved
	}

	address := &domain.Address{
		CreatedBy: userID,
		Location:  location,
		Text:      text,
		Temporary: temporary,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.addresses.Create(ctx, address); err != nil {
		return nil, err
	}
	s.sender.Dispatch(ctx, []domain.Event{
		domain.NewEvent(domain.EventAddressCreated, userID, address.ID),
	})
	return address, nil
}

// UpdateAddress corrects the descriptive text. The new text must
// forward-geocode within ~111m of the stored coordinates, which are
// themselves immutable. Geocoders without forward resolution skip the
// check.
func (s *addressService) UpdateAddress(ctx context.Context, userID, addressID primitive.ObjectID, text string) error {
	address, err := s.addresses.GetByID(ctx, addressID)
	if err != nil {
		return err
	}
	if address.CreatedBy != userID {
		return domain.ErrUnauthorized
	}

	if fwd, ok := s.geocoder.(geocode.ForwardGeocoder); ok {
		point, err := fwd.Forward(ctx, text)
		if err != nil {
			s.log.Warn("forward geocode failed, accepting text unverified", "error", err)
		} else if !geo.WithinDegrees(address.Location.Coordinates, point.Coordinates, domain.AddressEpsilonDegrees) {
			return domain.ErrAddressMismatch
		}
	}
	return s.addresses.UpdateText(ctx, addressID, text)
}

func (s *addressService) DeleteAddress(ctx context.Context, userID, addressID primitive.ObjectID) error {
	address, err := s.addresses.GetByID(ctx, addressID)
	if err != nil {
		return err
	}
	if address.CreatedBy != userID {
		return domain.ErrUnauthorized
	}
	return s.addresses.Delete(ctx, addressID)
}
