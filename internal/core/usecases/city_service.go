package usecases

import (
	"context"

	"github.com/aldatxeta/tourkit/internal/core/domain"
	"github.com/aldatxeta/tourkit/internal/core/ports"
)

// CityService handles city-related business logic.
type CityService struct {
	cities ports.CityRepository
}

// NewCityService creates a new CityService.
func NewCityService(cities ports.CityRepository) *CityService {
	return &CityService{cities: cities}
}

// GetBySlug returns a city by its slug.
func (s *CityService) GetBySlug(ctx context.Context, slug string) (*domain.City, error) {
	return s.cities.GetBySlug(ctx, slug)
}

// List returns all cities.
func (s *CityService) List(ctx context.Context) ([]domain.City, error) {
	return s.cities.List(ctx)
}
