package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aldatxeta/tourkit/internal/core/domain"
)

// CoveragePlanRepo implements ports.CoveragePlanRepository. Plans and
// their centers live in separate tables; Insert writes both in one
// transaction.
type CoveragePlanRepo struct {
	db *DB
}

func NewCoveragePlanRepo(db *DB) *CoveragePlanRepo {
	return &CoveragePlanRepo{db: db}
}

// Insert stores a plan and all its centers. The plan ID is generated
// by the database and written back.
func (r *CoveragePlanRepo) Insert(ctx context.Context, plan *domain.CoveragePlan) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO coverage_plans (radius_meters, spacing_factor, area_count, center_count)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, plan.RadiusMeters, plan.SpacingFactor, plan.AreaCount, len(plan.Centers)).Scan(&plan.ID)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}

	batch := &pgx.Batch{}
	for i, c := range plan.Centers {
		batch.Queue(`
			INSERT INTO coverage_centers (plan_id, seq, location, radius_meters, area_id)
			VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, $6)
		`, plan.ID, i, c.Location.Lon, c.Location.Lat, c.RadiusMeters, c.AreaID)
	}
	br := tx.SendBatch(ctx, batch)
	for range plan.Centers {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert center: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByID loads a plan with its centers in sweep order.
func (r *CoveragePlanRepo) GetByID(ctx context.Context, id string) (*domain.CoveragePlan, error) {
	var plan domain.CoveragePlan
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, radius_meters, spacing_factor, area_count
		FROM coverage_plans WHERE id = $1
	`, id).Scan(&plan.ID, &plan.RadiusMeters, &plan.SpacingFactor, &plan.AreaCount)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       radius_meters, area_id
		FROM coverage_centers
		WHERE plan_id = $1
		ORDER BY seq
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.CircleCenter
		if err := rows.Scan(&c.Location.Lat, &c.Location.Lon, &c.RadiusMeters, &c.AreaID); err != nil {
			return nil, err
		}
		plan.Centers = append(plan.Centers, c)
	}
	return &plan, rows.Err()
}

// Delete removes a plan and its centers. Used as the rollback step
// when a persisted plan cannot be announced to consumers.
func (r *CoveragePlanRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM coverage_centers WHERE plan_id = $1`, id); err != nil {
		return fmt.Errorf("delete centers: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM coverage_plans WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return tx.Commit(ctx)
}

// List returns recent plans without their centers.
func (r *CoveragePlanRepo) List(ctx context.Context, limit int) ([]domain.CoveragePlan, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, radius_meters, spacing_factor, area_count
		FROM coverage_plans
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []domain.CoveragePlan
	for rows.Next() {
		var p domain.CoveragePlan
		if err := rows.Scan(&p.ID, &p.RadiusMeters, &p.SpacingFactor, &p.AreaCount); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}
