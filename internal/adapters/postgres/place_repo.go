package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aldatxeta/tourkit/internal/core/domain"
)

// PlaceRepo implements ports.PlaceRepository with pgx.
type PlaceRepo struct {
	db *DB
}

// NewPlaceRepo creates a new PlaceRepo.
func NewPlaceRepo(db *DB) *PlaceRepo {
	return &PlaceRepo{db: db}
}

// Upsert inserts or updates a single place.
func (r *PlaceRepo) Upsert(ctx context.Context, p *domain.Place) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO places (maps_id, city_id, name, location, rating, reviews,
		                    primary_type, types, business_status, editorial_summary,
		                    good_for_groups, good_for_children, score, metadata)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography,
		        $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (city_id, maps_id) DO UPDATE
		SET name = EXCLUDED.name, location = EXCLUDED.location,
		    rating = EXCLUDED.rating, reviews = EXCLUDED.reviews,
		    primary_type = EXCLUDED.primary_type, types = EXCLUDED.types,
		    business_status = EXCLUDED.business_status,
		    editorial_summary = EXCLUDED.editorial_summary,
		    good_for_groups = EXCLUDED.good_for_groups,
		    good_for_children = EXCLUDED.good_for_children,
		    score = EXCLUDED.score, metadata = EXCLUDED.metadata
	`, p.MapsID, p.CityID, p.Name, p.Location.Lon, p.Location.Lat,
		p.Rating, p.Reviews, p.PrimaryType, p.Types, p.BusinessStatus,
		p.EditorialSummary, p.GoodForGroups, p.GoodForChildren, p.Score, p.Metadata)
	return err
}

// UpsertBatch inserts many places using pgx.Batch.
func (r *PlaceRepo) UpsertBatch(ctx context.Context, places []domain.Place) error {
	batch := &pgx.Batch{}
	for _, p := range places {
		batch.Queue(`
			INSERT INTO places (maps_id, city_id, name, location, rating, reviews,
			                    primary_type, types, business_status, editorial_summary,
			                    good_for_groups, good_for_children, score, metadata)
			VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography,
			        $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (city_id, maps_id) DO UPDATE
			SET name = EXCLUDED.name, location = EXCLUDED.location,
			    rating = EXCLUDED.rating, reviews = EXCLUDED.reviews,
			    score = EXCLUDED.score, metadata = EXCLUDED.metadata
		`, p.MapsID, p.CityID, p.Name, p.Location.Lon, p.Location.Lat,
			p.Rating, p.Reviews, p.PrimaryType, p.Types, p.BusinessStatus,
			p.EditorialSummary, p.GoodForGroups, p.GoodForChildren, p.Score, p.Metadata)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range places {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByID returns a place by UUID.
func (r *PlaceRepo) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	var p domain.Place
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, maps_id, city_id, name,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       rating, reviews, COALESCE(primary_type, ''), types,
		       COALESCE(business_status, ''), COALESCE(editorial_summary, ''),
		       good_for_groups, good_for_children, score, COALESCE(metadata, '{}'), created_at
		FROM places WHERE id = $1
	`, id).Scan(
		&p.ID, &p.MapsID, &p.CityID, &p.Name,
		&p.Location.Lat, &p.Location.Lon,
		&p.Rating, &p.Reviews, &p.PrimaryType, &p.Types,
		&p.BusinessStatus, &p.EditorialSummary,
		&p.GoodForGroups, &p.GoodForChildren, &p.Score, &p.Metadata, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIDs returns multiple places by UUID, in arbitrary order.
func (r *PlaceRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Place, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, maps_id, city_id, name,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       rating, reviews, COALESCE(primary_type, ''), types,
		       COALESCE(business_status, ''), COALESCE(editorial_summary, ''),
		       good_for_groups, good_for_children, score, COALESCE(metadata, '{}'), created_at
		FROM places WHERE id = ANY($1)
		ORDER BY name
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPlaces(rows, false)
}

// FindNearby returns places within radiusMeters using PostGIS ST_DWithin.
func (r *PlaceRepo) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Place, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, maps_id, city_id, name,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       rating, reviews, COALESCE(primary_type, ''), types,
		       COALESCE(business_status, ''), COALESCE(editorial_summary, ''),
		       good_for_groups, good_for_children, score, COALESCE(metadata, '{}'), created_at,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) as distance
		FROM places
		WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance
		LIMIT $4
	`, lon, lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPlaces(rows, true)
}

// Search performs fuzzy + full-text search on place names.
func (r *PlaceRepo) Search(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.Place, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, maps_id, city_id, name,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       rating, reviews, COALESCE(primary_type, ''), types,
		       COALESCE(business_status, ''), COALESCE(editorial_summary, ''),
		       good_for_groups, good_for_children, score, COALESCE(metadata, '{}'), created_at,
		       similarity(name, $1) as sim
		FROM places
		WHERE name_vector @@ plainto_tsquery('spanish', $1)
		   OR name %> $1
		ORDER BY sim DESC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var places []domain.Place
	for rows.Next() {
		var p domain.Place
		var sim float64
		if err := rows.Scan(
			&p.ID, &p.MapsID, &p.CityID, &p.Name,
			&p.Location.Lat, &p.Location.Lon,
			&p.Rating, &p.Reviews, &p.PrimaryType, &p.Types,
			&p.BusinessStatus, &p.EditorialSummary,
			&p.GoodForGroups, &p.GoodForChildren, &p.Score, &p.Metadata, &p.CreatedAt,
			&sim,
		); err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

// ListByCity returns the scored corpus for one city, best first.
func (r *PlaceRepo) ListByCity(ctx context.Context, citySlug string, minScore float64) ([]domain.Place, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT p.id, p.maps_id, p.city_id, p.name,
		       ST_Y(p.location::geometry) as lat,
		       ST_X(p.location::geometry) as lon,
		       p.rating, p.reviews, COALESCE(p.primary_type, ''), p.types,
		       COALESCE(p.business_status, ''), COALESCE(p.editorial_summary, ''),
		       p.good_for_groups, p.good_for_children, p.score, COALESCE(p.metadata, '{}'), p.created_at
		FROM places p
		JOIN cities c ON c.id = p.city_id
		WHERE c.slug = $1 AND p.score >= $2
		ORDER BY p.score DESC, p.id
	`, citySlug, minScore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPlaces(rows, false)
}

func scanPlaces(rows pgx.Rows, withDistance bool) ([]domain.Place, error) {
	var places []domain.Place
	for rows.Next() {
		var p domain.Place
		dest := []any{
			&p.ID, &p.MapsID, &p.CityID, &p.Name,
			&p.Location.Lat, &p.Location.Lon,
			&p.Rating, &p.Reviews, &p.PrimaryType, &p.Types,
			&p.BusinessStatus, &p.EditorialSummary,
			&p.GoodForGroups, &p.GoodForChildren, &p.Score, &p.Metadata, &p.CreatedAt,
		}
		var dist float64
		if withDistance {
			dest = append(dest, &dist)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if withDistance {
			d := dist
			p.Distance = &d
		}
		places = append(places, p)
	}
	return places, rows.Err()
}
