package ports

import (
	"context"

	"github.com/aldatxeta/tourkit/internal/core/domain"
)

// CityRepository persists cities.
type CityRepository interface {
	Upsert(ctx context.Context, city *domain.City) error
	GetBySlug(ctx context.Context, slug string) (*domain.City, error)
	List(ctx context.Context) ([]domain.City, error)
}

// PlaceRepository persists places.
type PlaceRepository interface {
	Upsert(ctx context.Context, place *domain.Place) error
	UpsertBatch(ctx context.Context, places []domain.Place) error
	GetByID(ctx context.Context, id string) (*domain.Place, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Place, error)
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Place, error)
	Search(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.Place, error)
	ListByCity(ctx context.Context, citySlug string, minScore float64) ([]domain.Place, error)
}

// CoveragePlanRepository persists coverage runs and their circle
// centers.
type CoveragePlanRepository interface {
	Insert(ctx context.Context, plan *domain.CoveragePlan) error
	GetByID(ctx context.Context, id string) (*domain.CoveragePlan, error)
	List(ctx context.Context, limit int) ([]domain.CoveragePlan, error)
	Delete(ctx context.Context, id string) error
}
