package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/aldatxeta/tourkit/internal/core/domain"
	"github.com/aldatxeta/tourkit/internal/core/ports"
	"github.com/aldatxeta/tourkit/internal/core/usecases"
)

// CoverageActivities holds the activity implementations for the
// coverage plan workflow.
type CoverageActivities struct {
	Coverage  *usecases.CoverageService
	Plans     ports.CoveragePlanRepository
	Publisher ports.EventPublisher
}

func buildRequest(input CoveragePlanInput) (domain.CoverageRequest, error) {
	polygons := make([]domain.Polygon, 0, len(input.Areas))
	for i, area := range input.Areas {
		pg, err := domain.NewPolygon(area)
		if err != nil {
			return domain.CoverageRequest{}, fmt.Errorf("area %d: %w", i+1, err)
		}
		polygons = append(polygons, pg)
	}
	return domain.CoverageRequest{
		Polygons:      polygons,
		RadiusMeters:  input.RadiusMeters,
		SpacingFactor: input.SpacingFactor,
	}, nil
}

// GenerateCenters computes circle centers for the input areas.
func (a *CoverageActivities) GenerateCenters(ctx context.Context, input CoveragePlanInput) ([]domain.CircleCenter, error) {
	req, err := buildRequest(input)
	if err != nil {
		return nil, err
	}
	centers, err := a.Coverage.Generate(ctx, req)
	if err != nil && !errors.Is(err, domain.ErrNoAreasProvided) {
		return nil, fmt.Errorf("generate centers: %w", err)
	}
	return centers, nil
}

// PersistPlan stores the plan and returns its ID.
func (a *CoverageActivities) PersistPlan(ctx context.Context, input CoveragePlanInput, centers []domain.CircleCenter) (string, error) {
	plan := &domain.CoveragePlan{
		RadiusMeters:  input.RadiusMeters,
		SpacingFactor: input.SpacingFactor,
		AreaCount:     len(input.Areas),
		Centers:       centers,
	}
	if err := a.Plans.Insert(ctx, plan); err != nil {
		return "", fmt.Errorf("persist plan: %w", err)
	}
	return plan.ID, nil
}

// PublishPlan announces a stored plan to downstream consumers.
func (a *CoverageActivities) PublishPlan(ctx context.Context, planID string) error {
	plan, err := a.Plans.GetByID(ctx, planID)
	if err != nil {
		return fmt.Errorf("load plan %s: %w", planID, err)
	}
	if err := a.Publisher.PublishCoveragePlan(ctx, plan); err != nil {
		return fmt.Errorf("publish plan %s: %w", planID, err)
	}
	return nil
}

// DeletePlan removes a stored plan (saga compensation / rollback).
func (a *CoverageActivities) DeletePlan(ctx context.Context, planID string) error {
	if err := a.Plans.Delete(ctx, planID); err != nil {
		return fmt.Errorf("delete plan %s: %w", planID, err)
	}
	return nil
}
