package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"frrand-backend/internal/config"
	"frrand-backend/internal/domain"
	"frrand-backend/internal/geo"
	"frrand-backend/internal/geocode"
	"frrand-backend/internal/locker"
	"frrand-backend/internal/logger"
	"frrand-backend/internal/notifier"
	"frrand-backend/internal/repository"
)

const ingestLockTTL = 30 * time.Second

type locationService struct {
	locations repository.LocationRepository
	addresses repository.AddressRepository
	locks     locker.Locker
	geocoder  geocode.Geocoder
	sender    *notifier.EventSender
	cfg       config.MatchingConfig
	log       *slog.Logger
}

func NewLocationService(
	locations repository.LocationRepository,
	addresses repository.AddressRepository,
	locks locker.Locker,
	geocoder geocode.Geocoder,
	sender *notifier.EventSender,
	cfg config.MatchingConfig,
) LocationService {
	return &locationService{
		locations: locations,
		addresses: addresses,
		locks:     locks,
		geocoder:  geocoder,
		sender:    sender,
		cfg:       cfg,
		log:       logger.WithService("location"),
	}
}

// ReportLocation ingests one ping. A dayOfWeek below 1 or an hour
// below 0 is filled in from the report time. Ingestion is serialized
// per user so concurrent pings cannot double-insert into the same
// bucket; a ping arriving while the lock is held is dropped, the next
// one carries the same signal.
func (s *locationService) ReportLocation(ctx context.Context, userID primitive.ObjectID, point geo.Point, at time.Time, hour, dayOfWeek int) (*domain.Location, error) {
	release, ok, err := s.locks.Acquire(ctx, "location:"+userID.Hex(), ingestLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.log.Debug("ingest lock busy, ping dropped", "user", userID.Hex())
		return nil, nil
	}
	defer release()

	loc := &domain.Location{
		CreatedBy:     userID,
		Location:      geo.NewPoint(0, 0),
		DayOfWeek:     dayOfWeek,
		Hour:          hour,
		TimesReported: 1,
		Current:       true,
		ReportedAt:    at,
	}
	loc.Location.Coordinates = geo.Approximate(point.Coordinates, domain.TrackingPrecision)
	loc.SupplementTime(at)

	if err := s.locations.ClearCurrent(ctx, userID); err != nil {
		return nil, err
	}

	current, err := s.mergePrevious(ctx, loc)
	if err != nil {
		return nil, err
	}

	// Region rebuild and address promotion are best effort; a failed
	// rebuild just leaves the previous region in place.
	if err := s.buildTravelRegion(ctx, current); err != nil {
		s.log.Warn("travel region rebuild failed", "user", userID.Hex(), "error", err)
	}
	if current.TimesReported >= s.cfg.AddressThreshold {
		if err := s.convertToAddress(ctx, current); err != nil {
			s.log.Warn("address promotion failed", "user", userID.Hex(), "error", err)
		}
	}
	return current, nil
}

// mergePrevious folds the ping into the owner's history. A ping landing
// on an already-stationary location bumps its counter; a ping that
// completes a contiguous run of identical fresh pings collapses the run
// into its oldest member; anything else inserts a new document. The
// surviving document is marked current.
func (s *locationService) mergePrevious(ctx context.Context, loc *domain.Location) (*domain.Location, error) {
	stationary, err := s.locations.FindStationary(ctx, loc.CreatedBy, loc.Hour, loc.DayOfWeek, loc.Location)
	if err == nil {
		n := stationary.TimesReported + 1
		if err := s.locations.SetTimesReported(ctx, stationary.ID, n); err != nil {
			return nil, err
		}
		if err := s.locations.SetCurrent(ctx, stationary.ID); err != nil {
			return nil, err
		}
		stationary.TimesReported = n
		stationary.Current = true
		return stationary, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	recent, err := s.locations.ListRecent(ctx, loc.CreatedBy, s.cfg.StationaryThreshold)
	if err != nil {
		return nil, err
	}
	var run []domain.Location
	for _, prev := range recent {
		p := prev
		if !loc.SameBucket(&p) || p.Stationary() {
			break
		}
		run = append(run, p)
	}

	if len(run)+1 >= s.cfg.StationaryThreshold {
		// oldest member of the run survives and absorbs the rest
		survivor := run[len(run)-1]
		for _, doomed := range run[:len(run)-1] {
			if err := s.locations.Delete(ctx, doomed.ID); err != nil {
				return nil, err
			}
		}
		n := len(run) + 1
		if err := s.locations.SetTimesReported(ctx, survivor.ID, n); err != nil {
			return nil, err
		}
		if err := s.locations.SetCurrent(ctx, survivor.ID); err != nil {
			return nil, err
		}
		survivor.TimesReported = n
		survivor.Current = true
		s.log.Debug("collapsed stationary run", "user", loc.CreatedBy.Hex(), "timesReported", n)
		return &survivor, nil
	}

	if _, err := s.locations.Create(ctx, loc); err != nil {
		return nil, err
	}
	return loc, nil
}

// buildTravelRegion recomputes the convex hull of where the user is
// now, their permanent addresses and the places they frequent around
// this hour, and stores it on the current location document.
func (s *locationService) buildTravelRegion(ctx context.Context, current *domain.Location) error {
	points := [][]float64{current.Location.Coordinates}

	addresses, err := s.addresses.ListPermanentByOwner(ctx, current.CreatedBy)
	if err != nil {
		return err
	}
	for _, a := range addresses {
		points = append(points, a.Location.Coordinates)
	}

	hours := []int{current.Hour, (current.Hour + 1) % 24}
	days := []int{current.DayOfWeek}
	if current.Hour == 23 {
		// the h+1 window spills into the next day
		days = append(days, current.DayOfWeek%7+1)
	}
	frequent, err := s.locations.ListFrequentInWindow(ctx, current.CreatedBy, hours, days, s.cfg.RegionPointLimit)
	if err != nil {
		return err
	}
	for _, f := range frequent {
		points = append(points, f.Location.Coordinates)
	}

	region, err := geo.ConvexHull(points, s.cfg.RegionPointLimit)
	if err != nil {
		return err
	}
	if err := s.locations.SetRegion(ctx, current.ID, region); err != nil {
		return err
	}
	current.Region = &region
	return nil
}

// convertToAddress promotes a heavily-reported spot to a permanent
// address, unless one already exists in the same grid cell. Geocoding
// failures still create the address with placeholder text the user can
// correct.
func (s *locationService) convertToAddress(ctx context.Context, current *domain.Location) error {
	exists, err := s.addresses.ExistsNear(ctx, current.CreatedBy, current.Location)
	if err != nil || exists {
		return err
	}

	text, err := s.geocoder.Reverse(ctx, current.Location)
	if err != nil {
		s.log.Warn("reverse geocode failed", "error", err)
		text = geocode.UnknownAddress
	}

	address := &domain.Address{
		CreatedBy: current.CreatedBy,
		Location:  current.Location,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.addresses.Create(ctx, address); err != nil {
		return err
	}
	s.log.Info("promoted location to address", "user", current.CreatedBy.Hex(), "address", address.ID.Hex())
	s.sender.Dispatch(ctx, []domain.Event{
		domain.NewEvent(domain.EventAddressCreated, current.CreatedBy, address.ID),
	})
	return nil
}
