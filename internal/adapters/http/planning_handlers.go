package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/aldatxeta/tourkit/internal/core/domain"
	"github.com/aldatxeta/tourkit/internal/core/usecases"
	"github.com/aldatxeta/tourkit/internal/pkg/metrics"
)

// pointDTO is a [lat, lon] pair or an object, accepted in request bodies.
type pointDTO struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (p pointDTO) toDomain() domain.GeoPoint {
	return domain.GeoPoint{Lat: p.Lat, Lon: p.Lon}
}

// coveragePlanRequest is the POST /v1/coverage/plan body.
type coveragePlanRequest struct {
	Areas         [][]pointDTO `json:"areas"`
	RadiusMeters  float64      `json:"radius_meters"`
	SpacingFactor float64      `json:"spacing_factor"`
	// Persist stores the plan and publishes an event; when false the
	// centers are computed inline and returned without a plan ID.
	Persist bool `json:"persist"`
}

func (r coveragePlanRequest) toDomain() (domain.CoverageRequest, error) {
	polygons := make([]domain.Polygon, 0, len(r.Areas))
	for _, area := range r.Areas {
		vertices := make([]domain.GeoPoint, len(area))
		for i, p := range area {
			vertices[i] = p.toDomain()
		}
		pg, err := domain.NewPolygon(vertices)
		if err != nil {
			return domain.CoverageRequest{}, err
		}
		polygons = append(polygons, pg)
	}
	return domain.CoverageRequest{
		Polygons:      polygons,
		RadiusMeters:  r.RadiusMeters,
		SpacingFactor: r.SpacingFactor,
	}, nil
}

// CoveragePlanHandler computes (and optionally persists) a coverage
// plan for the posted areas.
func CoveragePlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body coveragePlanRequest
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		req, err := body.toDomain()
		if err != nil {
			return errFromDomain(c, err)
		}

		if body.Persist {
			plan, err := deps.Coverage.Plan(c.Context(), req)
			if err != nil && !errors.Is(err, domain.ErrNoAreasProvided) {
				return errFromDomain(c, err)
			}
			LoggerFromCtx(c.UserContext()).Info("coverage plan persisted",
				"plan_id", plan.ID, "centers", len(plan.Centers))
			return c.Status(fiber.StatusCreated).JSON(plan)
		}

		centers, err := deps.Coverage.Generate(c.Context(), req)
		if err != nil && !errors.Is(err, domain.ErrNoAreasProvided) {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{
			"radius_meters":  req.RadiusMeters,
			"spacing_factor": req.SpacingFactor,
			"area_count":     len(req.Polygons),
			"centers":        centers,
		})
	}
}

// GetCoveragePlanHandler returns a persisted plan with its centers.
func GetCoveragePlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "plan id is required")
		}
		plan, err := deps.Coverage.GetPlan(c.Context(), id)
		if err != nil {
			return errNotFound(c, "coverage plan not found")
		}
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(plan)
	}
}

// ListCoveragePlansHandler returns recent plans without centers.
func ListCoveragePlansHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 20)
		plans, err := deps.Coverage.ListPlans(c.Context(), limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(plans)
	}
}

// sequenceRequest is the POST /v1/itineraries/sequence body.
type sequenceRequest struct {
	Start pointDTO `json:"start"`
	// NPoints absent means every candidate; an explicit 0 yields an
	// empty itinerary.
	NPoints    *int           `json:"n_points"`
	Candidates []candidateDTO `json:"candidates"`
}

type candidateDTO struct {
	ID        string   `json:"id"`
	Location  pointDTO `json:"location"`
	Indicator float64  `json:"indicator"`
}

// SequenceItineraryHandler orders candidates into a visiting sequence.
func SequenceItineraryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body sequenceRequest
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		candidates := make([]domain.RoutePoint, len(body.Candidates))
		for i, cand := range body.Candidates {
			candidates[i] = domain.RoutePoint{
				ID:        cand.ID,
				Location:  cand.Location.toDomain(),
				Indicator: cand.Indicator,
			}
		}

		nPoints := len(candidates)
		if body.NPoints != nil {
			nPoints = *body.NPoints
		}

		stops, err := deps.Itineraries.Sequence(c.Context(), candidates, body.Start.toDomain(), nPoints)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{
			"stops": stops,
			"count": len(stops),
		})
	}
}

// recommendBody is the POST /v1/recommend body.
type recommendBody struct {
	Query        string    `json:"query"`
	City         string    `json:"city"`
	UserLocation *pointDTO `json:"user_location"`
	TopN         int       `json:"top_n"`
	// Itinerary additionally sequences the recommendations into a
	// visiting order.
	Itinerary bool `json:"itinerary"`
}

// RecommendHandler blends semantic, quality, and proximity signals and
// returns scored places, optionally as a sequenced itinerary.
func RecommendHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body recommendBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if body.Query == "" {
			return errBadRequest(c, "query is required")
		}
		if body.City == "" {
			return errBadRequest(c, "city is required")
		}

		req := usecases.RecommendRequest{
			Query:    body.Query,
			CitySlug: body.City,
			TopN:     body.TopN,
		}
		if body.UserLocation != nil {
			loc := body.UserLocation.toDomain()
			if !loc.Valid() {
				return errBadRequest(c, "user_location out of range")
			}
			req.UserLocation = &loc
		}

		if body.Itinerary {
			stops, err := deps.Recommend.BuildItinerary(c.Context(), req)
			if err != nil {
				return errFromDomain(c, err)
			}
			metrics.RecommendationsServed.WithLabelValues(body.City).Inc()
			return c.JSON(fiber.Map{"stops": stops, "count": len(stops)})
		}

		scored, err := deps.Recommend.Recommend(c.Context(), req)
		if err != nil {
			return errFromDomain(c, err)
		}
		metrics.RecommendationsServed.WithLabelValues(body.City).Inc()
		return c.JSON(fiber.Map{"places": scored, "count": len(scored)})
	}
}
