package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/aldatxeta/tourkit/internal/core/domain"
	"github.com/aldatxeta/tourkit/internal/core/ports"
)

// ScoringWeights control the place quality score.
type ScoringWeights struct {
	Rating    float64
	Reviews   float64
	Editorial float64
}

// DefaultScoringWeights mirror the production export pipeline.
var DefaultScoringWeights = ScoringWeights{Rating: 0.2, Reviews: 0.6, Editorial: 1.0}

// CleaningRules gate which ingested places survive into the corpus.
type CleaningRules struct {
	MinReviews int
	MinScore   float64
}

// DefaultCleaningRules drop noise listings: too few reviews to trust
// the rating, or an overall score below the quality floor.
var DefaultCleaningRules = CleaningRules{MinReviews: 30, MinScore: 3}

// PlaceService handles place lookup and the ingest-side cleaning,
// scoring, and balanced-selection pipeline.
type PlaceService struct {
	places  ports.PlaceRepository
	cache   ports.CacheService
	weights ScoringWeights
	rules   CleaningRules
}

// NewPlaceService creates a new PlaceService with default scoring
// weights and cleaning rules.
func NewPlaceService(places ports.PlaceRepository, cache ports.CacheService) *PlaceService {
	return &PlaceService{
		places:  places,
		cache:   cache,
		weights: DefaultScoringWeights,
		rules:   DefaultCleaningRules,
	}
}

// WithWeights overrides the scoring weights.
func (s *PlaceService) WithWeights(w ScoringWeights) *PlaceService {
	s.weights = w
	return s
}

// Score computes the quality score for a place:
// rating weight * rating + review weight * log1p(reviews) + editorial
// weight when an editorial summary exists. Negative review counts are
// treated as zero.
func (s *PlaceService) Score(p domain.Place) float64 {
	reviews := float64(p.Reviews)
	if reviews < 0 {
		reviews = 0
	}
	score := s.weights.Rating*p.Rating + s.weights.Reviews*math.Log1p(reviews)
	if p.EditorialSummary != "" {
		score += s.weights.Editorial
	}
	return score
}

// Clean scores and filters a batch of ingested places: closed
// listings, places without usable coordinates, low-review and
// low-score entries are all dropped. The input slice is not modified.
func (s *PlaceService) Clean(places []domain.Place) []domain.Place {
	kept := make([]domain.Place, 0, len(places))
	for _, p := range places {
		if p.BusinessStatus == "CLOSED" || p.BusinessStatus == "CLOSED_TEMPORARILY" {
			continue
		}
		if !p.Location.Valid() || (p.Location.Lat == 0 && p.Location.Lon == 0) {
			continue
		}
		if p.Reviews < s.rules.MinReviews {
			continue
		}
		p.Score = s.Score(p)
		if p.Score < s.rules.MinScore {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// SelectBalanced picks up to topN places, distributing the picks
// across primary types in proportion to how common each type is.
// Types with 4 or fewer occurrences are excluded from the proportional
// split; any remaining budget is filled with the best-scoring leftover
// places. Output is deterministic: within a type, places sort by score
// descending then ID ascending.
func (s *PlaceService) SelectBalanced(places []domain.Place, topN int) []domain.Place {
	if len(places) == 0 || topN <= 0 {
		return []domain.Place{}
	}

	counts := map[string]int{}
	for _, p := range places {
		counts[p.PrimaryType]++
	}

	validTotal := 0
	validTypes := []string{}
	for t, n := range counts {
		if n > 4 {
			validTypes = append(validTypes, t)
			validTotal += n
		}
	}
	sort.Strings(validTypes)

	byScore := func(a, b domain.Place) bool {
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.ID < b.ID
	}

	if validTotal == 0 {
		out := make([]domain.Place, len(places))
		copy(out, places)
		sort.Slice(out, func(i, j int) bool { return byScore(out[i], out[j]) })
		if len(out) > topN {
			out = out[:topN]
		}
		return out
	}

	selected := []domain.Place{}
	picked := map[string]bool{}
	for _, t := range validTypes {
		quota := int(float64(counts[t]) / float64(validTotal) * float64(topN))
		if quota > counts[t] {
			quota = counts[t]
		}

		var group []domain.Place
		for _, p := range places {
			if p.PrimaryType == t {
				group = append(group, p)
			}
		}
		sort.Slice(group, func(i, j int) bool { return byScore(group[i], group[j]) })
		if quota > len(group) {
			quota = len(group)
		}
		for _, p := range group[:quota] {
			selected = append(selected, p)
			picked[p.ID] = true
		}
	}

	if len(selected) < topN {
		var rest []domain.Place
		for _, p := range places {
			if !picked[p.ID] {
				rest = append(rest, p)
			}
		}
		sort.Slice(rest, func(i, j int) bool { return byScore(rest[i], rest[j]) })
		need := topN - len(selected)
		if need > len(rest) {
			need = len(rest)
		}
		selected = append(selected, rest[:need]...)
	}

	return selected
}

// FindNearby returns places within radiusMeters of the given point.
func (s *PlaceService) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Place, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	cacheKey := fmt.Sprintf("places:nearby:%.4f:%.4f:%.0f:%d", lat, lon, radiusMeters, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var places []domain.Place
			if err := json.Unmarshal(data, &places); err == nil {
				return places, nil
			}
		}
	}

	places, err := s.places.FindNearby(ctx, lat, lon, radiusMeters, limit)
	if err != nil {
		return nil, err
	}

	// The corpus only changes on re-ingest; 5 minutes is safe.
	if s.cache != nil {
		if data, err := json.Marshal(places); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return places, nil
}

// Search performs fuzzy + full-text search on place names.
func (s *PlaceService) Search(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.Place, error) {
	if query == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	cacheKey := fmt.Sprintf("places:search:%s:%d", query, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var places []domain.Place
			if err := json.Unmarshal(data, &places); err == nil {
				return places, nil
			}
		}
	}

	places, err := s.places.Search(ctx, query, near, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(places); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return places, nil
}

// GetByID returns a single place.
func (s *PlaceService) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	cacheKey := "places:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var place domain.Place
			if err := json.Unmarshal(data, &place); err == nil {
				return &place, nil
			}
		}
	}

	place, err := s.places.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(place); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}

	return place, nil
}

// GetByIDs returns multiple places by their IDs.
func (s *PlaceService) GetByIDs(ctx context.Context, ids []string) ([]domain.Place, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.places.GetByIDs(ctx, ids)
}

// ListByCity returns the scored corpus for one city.
func (s *PlaceService) ListByCity(ctx context.Context, citySlug string, minScore float64) ([]domain.Place, error) {
	if citySlug == "" {
		return nil, fmt.Errorf("city slug must not be empty")
	}
	return s.places.ListByCity(ctx, citySlug, minScore)
}
