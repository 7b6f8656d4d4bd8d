package usecases

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/aldatxeta/tourkit/internal/core/domain"
	"github.com/aldatxeta/tourkit/internal/core/ports"
	"github.com/aldatxeta/tourkit/internal/pkg/geospatial"
)

// BlendCoefficients weight the signals blended into a final
// recommendation score.
type BlendCoefficients struct {
	Similarity float64 `json:"similarity_coef"`
	Rating     float64 `json:"rating_coef"`
	Reviews    float64 `json:"review_coef"`
	Proximity  float64 `json:"proximity_coef"`
}

// DefaultBlendCoefficients match the production recommendation tuning.
var DefaultBlendCoefficients = BlendCoefficients{
	Similarity: 10.0,
	Rating:     2.0,
	Reviews:    4.0,
	Proximity:  1.5,
}

// RecommendRequest asks for places in a city matching a free-text
// query, optionally sequenced into an itinerary from the user's
// location.
type RecommendRequest struct {
	Query        string
	CitySlug     string
	UserLocation *domain.GeoPoint
	TopN         int
	Coefficients BlendCoefficients
}

// RecommendService blends semantic similarity with rating, review
// volume, and proximity signals, and can hand the result to the
// itinerary sequencer.
type RecommendService struct {
	places      ports.PlaceRepository
	cities      ports.CityRepository
	semantic    ports.SemanticSearcher
	itineraries *ItineraryService
}

// NewRecommendService creates a new RecommendService.
func NewRecommendService(
	places ports.PlaceRepository,
	cities ports.CityRepository,
	semantic ports.SemanticSearcher,
	itineraries *ItineraryService,
) *RecommendService {
	return &RecommendService{places: places, cities: cities, semantic: semantic, itineraries: itineraries}
}

// Recommend returns the city's top places for the query, scored by
// simCoef*similarity + ratingCoef*normRating + reviewCoef*normReviews
// + proxCoef*exp(-km/5). Rating and log1p(reviews) are min-max
// normalized over the candidate set. When the caller supplies no
// location the proximity term is dropped and the city's median
// coordinate stands in as reference for downstream sequencing.
func (s *RecommendService) Recommend(ctx context.Context, req RecommendRequest) ([]domain.ScoredPlace, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if req.CitySlug == "" {
		return nil, fmt.Errorf("city is required")
	}
	if req.TopN <= 0 || req.TopN > 50 {
		req.TopN = 5
	}
	if req.Coefficients == (BlendCoefficients{}) {
		req.Coefficients = DefaultBlendCoefficients
	}

	city, err := s.cities.GetBySlug(ctx, req.CitySlug)
	if err != nil {
		return nil, fmt.Errorf("city %q: %w", req.CitySlug, err)
	}

	candidates, err := s.places.ListByCity(ctx, req.CitySlug, 0)
	if err != nil {
		return nil, fmt.Errorf("list places for %q: %w", req.CitySlug, err)
	}
	if len(candidates) == 0 {
		return []domain.ScoredPlace{}, nil
	}

	ids := make([]string, len(candidates))
	for i, p := range candidates {
		ids[i] = p.ID
	}
	sims, err := s.semantic.Similarities(ctx, req.Query, req.CitySlug, ids)
	if err != nil {
		return nil, fmt.Errorf("semantic similarities: %w", err)
	}

	reference := city.Median
	proximityCoef := 0.0
	if req.UserLocation != nil {
		reference = *req.UserLocation
		proximityCoef = req.Coefficients.Proximity
	}

	scored := blendScores(candidates, sims, reference, proximityCoef, req.Coefficients)

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].FinalScore != scored[j].FinalScore {
			return scored[i].FinalScore > scored[j].FinalScore
		}
		return scored[i].ID < scored[j].ID
	})
	if len(scored) > req.TopN {
		scored = scored[:req.TopN]
	}
	return scored, nil
}

// BuildItinerary recommends places and sequences them into a visiting
// order anchored at the user's location (or the city median when none
// is given). Final scores become the sequencing indicators.
func (s *RecommendService) BuildItinerary(ctx context.Context, req RecommendRequest) ([]domain.ItineraryStop, error) {
	scored, err := s.Recommend(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(scored) == 0 {
		return []domain.ItineraryStop{}, nil
	}

	start := scored[0].Location
	if req.UserLocation != nil {
		start = *req.UserLocation
	} else if city, err := s.cities.GetBySlug(ctx, req.CitySlug); err == nil {
		start = city.Median
	}

	candidates := make([]domain.RoutePoint, 0, len(scored))
	for _, p := range scored {
		if p.FinalScore <= 0 {
			// Non-positive blends cannot serve as indicators; skip
			// rather than fail the whole itinerary.
			continue
		}
		candidates = append(candidates, domain.RoutePoint{
			ID:        p.ID,
			Location:  p.Location,
			Indicator: p.FinalScore,
		})
	}

	return s.itineraries.Sequence(ctx, candidates, start, len(candidates))
}

// blendScores computes the final score per candidate.
func blendScores(
	candidates []domain.Place,
	sims map[string]float64,
	reference domain.GeoPoint,
	proximityCoef float64,
	coefs BlendCoefficients,
) []domain.ScoredPlace {
	minRating, maxRating := math.Inf(1), math.Inf(-1)
	minRev, maxRev := math.Inf(1), math.Inf(-1)
	for _, p := range candidates {
		logRev := math.Log1p(float64(p.Reviews))
		if p.Rating < minRating {
			minRating = p.Rating
		}
		if p.Rating > maxRating {
			maxRating = p.Rating
		}
		if logRev < minRev {
			minRev = logRev
		}
		if logRev > maxRev {
			maxRev = logRev
		}
	}

	norm := func(v, lo, hi float64) float64 {
		if hi <= lo {
			return 0
		}
		return (v - lo) / (hi - lo)
	}

	scored := make([]domain.ScoredPlace, 0, len(candidates))
	for _, p := range candidates {
		sim := sims[p.ID]
		km := geospatial.Haversine(reference.Lat, reference.Lon, p.Location.Lat, p.Location.Lon)
		prox := math.Exp(-km / 5)

		final := coefs.Similarity*sim +
			coefs.Rating*norm(p.Rating, minRating, maxRating) +
			coefs.Reviews*norm(math.Log1p(float64(p.Reviews)), minRev, maxRev) +
			proximityCoef*prox

		scored = append(scored, domain.ScoredPlace{
			Place:          p,
			Similarity:     sim,
			ProximityScore: prox,
			FinalScore:     final,
		})
	}
	return scored
}
