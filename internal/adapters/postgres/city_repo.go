package postgres

import (
	"context"

	"github.com/aldatxeta/tourkit/internal/core/domain"
)

// CityRepo implements ports.CityRepository.
type CityRepo struct {
	db *DB
}

func NewCityRepo(db *DB) *CityRepo {
	return &CityRepo{db: db}
}

// Upsert inserts or updates a city by slug and writes the assigned ID
// back to the struct.
func (r *CityRepo) Upsert(ctx context.Context, city *domain.City) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO cities (slug, name, country, median_location)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography)
		ON CONFLICT (slug) DO UPDATE
		SET name = EXCLUDED.name, country = EXCLUDED.country,
		    median_location = EXCLUDED.median_location
		RETURNING id
	`, city.Slug, city.Name, city.Country, city.Median.Lon, city.Median.Lat).Scan(&city.ID)
}

func (r *CityRepo) GetBySlug(ctx context.Context, slug string) (*domain.City, error) {
	c := &domain.City{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, slug, name, COALESCE(country, ''),
		       ST_Y(median_location::geometry) as lat,
		       ST_X(median_location::geometry) as lon,
		       created_at
		FROM cities WHERE slug = $1
	`, slug).Scan(&c.ID, &c.Slug, &c.Name, &c.Country, &c.Median.Lat, &c.Median.Lon, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CityRepo) List(ctx context.Context) ([]domain.City, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, slug, name, COALESCE(country, ''),
		       ST_Y(median_location::geometry) as lat,
		       ST_X(median_location::geometry) as lon,
		       created_at
		FROM cities ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cities []domain.City
	for rows.Next() {
		var c domain.City
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.Country, &c.Median.Lat, &c.Median.Lon, &c.CreatedAt); err != nil {
			return nil, err
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}
