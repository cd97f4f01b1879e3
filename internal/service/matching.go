package service

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/geo"
	"frrand-backend/internal/logger"
	"frrand-backend/internal/repository"
)

// Matcher finds delivery candidates for a request by intersecting the
// request's pickup-to-destination routes with the travel regions users
// project from their location history.
type Matcher struct {
	locations repository.LocationRepository
	log       *slog.Logger
}

func NewMatcher(locations repository.LocationRepository) *Matcher {
	return &Matcher{
		locations: locations,
		log:       logger.WithService("matcher"),
	}
}

// MatchCandidates returns user ids whose current travel region crosses
// every route of the request, ordered by proximity to the first pickup
// place. The request owner is never a candidate of their own request.
func (m *Matcher) MatchCandidates(ctx context.Context, req *domain.Request, dest geo.Point) ([]primitive.ObjectID, error) {
	if len(req.Places) == 0 {
		return nil, nil
	}
	day := isoWeekday(req.RequestedTime)

	// The first route drives the ordering; later routes only filter.
	first := geo.NewRoute(req.Places[0].Location, dest)
	primary, err := m.locations.FindIntersectingRoute(ctx, first, &req.Places[0].Location, day)
	if err != nil {
		return nil, err
	}

	keep := make(map[primitive.ObjectID]bool, len(primary))
	for _, loc := range primary {
		keep[loc.CreatedBy] = true
	}

	for _, place := range req.Places[1:] {
		route := geo.NewRoute(place.Location, dest)
		matched, err := m.locations.FindIntersectingRoute(ctx, route, nil, day)
		if err != nil {
			return nil, err
		}
		onRoute := make(map[primitive.ObjectID]bool, len(matched))
		for _, loc := range matched {
			onRoute[loc.CreatedBy] = true
		}
		for id := range keep {
			if !onRoute[id] {
				delete(keep, id)
			}
		}
	}

	var candidates []primitive.ObjectID
	seen := make(map[primitive.ObjectID]bool, len(keep))
	for _, loc := range primary {
		id := loc.CreatedBy
		if id == req.CreatedBy || seen[id] || !keep[id] {
			continue
		}
		seen[id] = true
		candidates = append(candidates, id)
	}

	m.log.Debug("matched candidates", "request", req.ID.Hex(), "count", len(candidates))
	return candidates, nil
}

// isoWeekday returns the ISO weekday, Monday = 1 through Sunday = 7.
func isoWeekday(t time.Time) int {
	day := int(t.UTC().Weekday())
	if day == 0 {
		day = 7
	}
	return day
}
