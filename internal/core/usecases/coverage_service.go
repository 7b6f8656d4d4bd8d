package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/aldatxeta/tourkit/internal/core/domain"
	"github.com/aldatxeta/tourkit/internal/core/ports"
	"github.com/aldatxeta/tourkit/internal/pkg/geospatial"
	"github.com/aldatxeta/tourkit/internal/pkg/metrics"
)

// CoverageService tiles request areas with sampling circles. The grid
// sweep itself is a pure computation; the repository, cache, and
// publisher collaborators are all optional and nil-safe.
type CoverageService struct {
	plans     ports.CoveragePlanRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
}

// NewCoverageService creates a new CoverageService.
func NewCoverageService(plans ports.CoveragePlanRepository, cache ports.CacheService, publisher ports.EventPublisher) *CoverageService {
	return &CoverageService{plans: plans, cache: cache, publisher: publisher}
}

// Generate sweeps a lat/lon grid over the union bounding box of the
// request polygons and returns the centers falling inside any polygon,
// in grid order (south to north, west to east). A center is attributed
// to the first polygon, by request order, that contains it; overlap
// regions are not deduplicated.
//
// An empty polygon set returns an empty slice together with
// domain.ErrNoAreasProvided, which callers treat as "nothing to do"
// rather than a failure.
func (s *CoverageService) Generate(ctx context.Context, req domain.CoverageRequest) ([]domain.CircleCenter, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("coverage request: %w", err)
	}
	if len(req.Polygons) == 0 {
		return []domain.CircleCenter{}, domain.ErrNoAreasProvided
	}

	cacheKey := coverageCacheKey(req)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var centers []domain.CircleCenter
			if err := json.Unmarshal(data, &centers); err == nil {
				metrics.CacheHits.WithLabelValues("coverage").Inc()
				return centers, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("coverage").Inc()
	}

	centers := sweepGrid(req)
	metrics.CoverageCentersGenerated.Add(float64(len(centers)))

	if s.cache != nil {
		if data, err := json.Marshal(centers); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 3600)
		}
	}

	return centers, nil
}

// Plan generates coverage, persists it as a plan, and publishes a
// plan-generated event. Intended for batch jobs and the inline API
// path on small areas.
func (s *CoverageService) Plan(ctx context.Context, req domain.CoverageRequest) (*domain.CoveragePlan, error) {
	centers, err := s.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrNoAreasProvided) {
			return &domain.CoveragePlan{Centers: centers}, err
		}
		return nil, err
	}

	plan := &domain.CoveragePlan{
		RadiusMeters:  req.RadiusMeters,
		SpacingFactor: req.SpacingFactor,
		AreaCount:     len(req.Polygons),
		Centers:       centers,
	}

	if s.plans != nil {
		if err := s.plans.Insert(ctx, plan); err != nil {
			return nil, fmt.Errorf("persist coverage plan: %w", err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishCoveragePlan(ctx, plan); err != nil {
			slog.Warn("publish coverage plan failed", "error", err)
		}
	}

	return plan, nil
}

// GetPlan returns a persisted coverage plan. Plans are immutable once
// written, so cached copies never go stale.
func (s *CoverageService) GetPlan(ctx context.Context, id string) (*domain.CoveragePlan, error) {
	if s.plans == nil {
		return nil, errors.New("coverage plan storage not configured")
	}

	cacheKey := "coverage:planid:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var plan domain.CoveragePlan
			if err := json.Unmarshal(data, &plan); err == nil {
				metrics.CacheHits.WithLabelValues("coverage_plan").Inc()
				return &plan, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("coverage_plan").Inc()
	}

	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(plan); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 3600)
		}
	}

	return plan, nil
}

// ListPlans returns recent coverage plans.
func (s *CoverageService) ListPlans(ctx context.Context, limit int) ([]domain.CoveragePlan, error) {
	if s.plans == nil {
		return nil, errors.New("coverage plan storage not configured")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.plans.List(ctx, limit)
}

// sweepGrid performs the index-driven grid sweep over a validated,
// non-empty request.
func sweepGrid(req domain.CoverageRequest) []domain.CircleCenter {
	box := req.Polygons[0].Bounds()
	for _, pg := range req.Polygons[1:] {
		pb := pg.Bounds()
		box.Extend(domain.GeoPoint{Lat: pb.MinLat, Lon: pb.MinLon})
		box.Extend(domain.GeoPoint{Lat: pb.MaxLat, Lon: pb.MaxLon})
	}

	// spacing 0 puts centers one radius apart, spacing 1 two radii.
	scale := 1 + req.SpacingFactor
	latStep := geospatial.MetersToLatDegrees(req.RadiusMeters) * scale
	lonStep := geospatial.MetersToLonDegrees(req.RadiusMeters, box.ReferenceLat()) * scale

	// Index-driven stepping: value = min + i*step. Repeated float
	// addition accumulates drift and can drop or duplicate the
	// boundary rows of the box.
	rows := int(math.Ceil((box.MaxLat-box.MinLat)/latStep)) + 1
	cols := int(math.Ceil((box.MaxLon-box.MinLon)/lonStep)) + 1

	// Tolerance keeps the inclusive max row/column when min+i*step
	// lands a few ulps past the bound.
	const eps = 1e-12

	centers := []domain.CircleCenter{}
	for i := 0; i < rows; i++ {
		lat := box.MinLat + float64(i)*latStep
		if lat > box.MaxLat+eps {
			break
		}
		for j := 0; j < cols; j++ {
			lon := box.MinLon + float64(j)*lonStep
			if lon > box.MaxLon+eps {
				break
			}
			p := domain.GeoPoint{Lat: lat, Lon: lon}
			for areaIdx, pg := range req.Polygons {
				if pg.Contains(p) {
					centers = append(centers, domain.CircleCenter{
						Location:     p,
						RadiusMeters: req.RadiusMeters,
						AreaID:       areaIdx + 1,
					})
					break
				}
			}
		}
	}
	return centers
}

// coverageCacheKey derives a stable key from the request parameters.
func coverageCacheKey(req domain.CoverageRequest) string {
	h := sha256.New()
	fmt.Fprintf(h, "r=%.6f;s=%.6f", req.RadiusMeters, req.SpacingFactor)
	for _, pg := range req.Polygons {
		for _, v := range pg.Vertices() {
			fmt.Fprintf(h, ";%.8f,%.8f", v.Lat, v.Lon)
		}
		fmt.Fprint(h, "|")
	}
	return "coverage:plan:" + hex.EncodeToString(h.Sum(nil)[:16])
}
