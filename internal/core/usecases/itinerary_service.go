package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aldatxeta/tourkit/internal/core/domain"
	"github.com/aldatxeta/tourkit/internal/core/ports"
	"github.com/aldatxeta/tourkit/internal/pkg/geospatial"
	"github.com/aldatxeta/tourkit/internal/pkg/metrics"
)

// ItineraryService orders candidate destinations into a visiting
// sequence anchored at a moving reference point. The greedy selection
// minimizes immediate adjusted distance at each step; it makes no
// global optimality claim.
type ItineraryService struct {
	publisher ports.EventPublisher
}

// NewItineraryService creates a new ItineraryService.
func NewItineraryService(publisher ports.EventPublisher) *ItineraryService {
	return &ItineraryService{publisher: publisher}
}

// Sequence builds an itinerary of up to nPoints stops. At each step it
// selects the remaining candidate with minimum
// Haversine(reference, candidate) / indicator, appends it, and moves
// the reference to the selected point. Ties on adjusted distance are
// broken by ascending candidate ID, which keeps the output fully
// deterministic.
//
// An empty candidate pool or nPoints <= 0 yields an empty itinerary
// and no error. The caller's candidate slice is never modified.
func (s *ItineraryService) Sequence(ctx context.Context, candidates []domain.RoutePoint, start domain.GeoPoint, nPoints int) ([]domain.ItineraryStop, error) {
	if !start.Valid() {
		return nil, fmt.Errorf("start point (%v, %v): %w", start.Lat, start.Lon, domain.ErrInvalidCoordinate)
	}
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}

	stops := []domain.ItineraryStop{}
	if nPoints <= 0 || len(candidates) == 0 {
		return stops, nil
	}

	// Private working copy; the pool shrinks as stops are chosen.
	pool := make([]domain.RoutePoint, len(candidates))
	copy(pool, candidates)

	reference := start
	for len(stops) < nPoints && len(pool) > 0 {
		best := 0
		bestAdjusted := adjustedDistance(reference, pool[0])
		for i := 1; i < len(pool); i++ {
			adj := adjustedDistance(reference, pool[i])
			if adj < bestAdjusted || (adj == bestAdjusted && pool[i].ID < pool[best].ID) {
				best = i
				bestAdjusted = adj
			}
		}

		chosen := pool[best]
		stops = append(stops, domain.ItineraryStop{
			RoutePoint: chosen,
			VisitOrder: len(stops) + 1,
		})
		reference = chosen.Location
		pool = append(pool[:best], pool[best+1:]...)
	}

	metrics.ItinerariesBuilt.Inc()

	if s.publisher != nil {
		if err := s.publisher.PublishItinerary(ctx, stops); err != nil {
			slog.Warn("publish itinerary failed", "error", err)
		}
	}

	return stops, nil
}

// adjustedDistance is the greedy selection key: great-circle distance
// in kilometers divided by the candidate's desirability indicator.
func adjustedDistance(ref domain.GeoPoint, c domain.RoutePoint) float64 {
	return geospatial.Haversine(ref.Lat, ref.Lon, c.Location.Lat, c.Location.Lon) / c.Indicator
}
