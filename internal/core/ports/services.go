package ports

import (
	"context"

	"github.com/aldatxeta/tourkit/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishCoveragePlan(ctx context.Context, plan *domain.CoveragePlan) error
	PublishItinerary(ctx context.Context, stops []domain.ItineraryStop) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// SemanticSearcher scores places against a free-text query using a
// precomputed embedding corpus. The model and vectors live in an
// external service; this port treats similarity as an opaque number.
type SemanticSearcher interface {
	// Similarities returns a cosine-similarity score per place ID for
	// the given query within one city's corpus. Missing IDs score 0.
	Similarities(ctx context.Context, query, citySlug string, placeIDs []string) (map[string]float64, error)
}
