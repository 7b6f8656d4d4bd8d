package usecases_test

import (
	"context"
	"math"
	"testing"

	"github.com/aldatxeta/tourkit/internal/core/domain"
	"github.com/aldatxeta/tourkit/internal/core/usecases"
)

type mockCityRepo struct {
	getBySlugFn func(ctx context.Context, slug string) (*domain.City, error)
	listFn      func(ctx context.Context) ([]domain.City, error)
}

func (m *mockCityRepo) Upsert(ctx context.Context, c *domain.City) error { return nil }

func (m *mockCityRepo) GetBySlug(ctx context.Context, slug string) (*domain.City, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug)
	}
	return &domain.City{ID: "c1", Slug: slug, Median: domain.GeoPoint{Lat: 43.26, Lon: -2.93}}, nil
}

func (m *mockCityRepo) List(ctx context.Context) ([]domain.City, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

type mockSemantic struct {
	similaritiesFn func(ctx context.Context, query, citySlug string, placeIDs []string) (map[string]float64, error)
}

func (m *mockSemantic) Similarities(ctx context.Context, query, citySlug string, placeIDs []string) (map[string]float64, error) {
	if m.similaritiesFn != nil {
		return m.similaritiesFn(ctx, query, citySlug, placeIDs)
	}
	sims := make(map[string]float64, len(placeIDs))
	for _, id := range placeIDs {
		sims[id] = 0.5
	}
	return sims, nil
}

func newRecommendFixture(places []domain.Place, sims map[string]float64) *usecases.RecommendService {
	placeRepo := &mockPlaceRepo{
		listByCityFn: func(ctx context.Context, citySlug string, minScore float64) ([]domain.Place, error) {
			return places, nil
		},
	}
	semantic := &mockSemantic{
		similaritiesFn: func(ctx context.Context, query, citySlug string, placeIDs []string) (map[string]float64, error) {
			return sims, nil
		},
	}
	return usecases.NewRecommendService(placeRepo, &mockCityRepo{}, semantic, usecases.NewItineraryService(nil))
}

func TestRecommendService_Recommend_SimilarityDominates(t *testing.T) {
	// Identical rating and review stats so only similarity separates them.
	places := []domain.Place{
		{ID: "a", CityID: "c1", Rating: 4.0, Reviews: 100, Location: domain.GeoPoint{Lat: 43.26, Lon: -2.93}},
		{ID: "b", CityID: "c1", Rating: 4.0, Reviews: 100, Location: domain.GeoPoint{Lat: 43.26, Lon: -2.93}},
	}
	svc := newRecommendFixture(places, map[string]float64{"a": 0.1, "b": 0.9})

	scored, err := svc.Recommend(context.Background(), usecases.RecommendRequest{
		Query: "pintxos", CitySlug: "bilbao", TopN: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scored) != 2 {
		t.Fatalf("expected 2 results, got %d", len(scored))
	}
	if scored[0].ID != "b" {
		t.Errorf("higher similarity should rank first, got %s", scored[0].ID)
	}
}

func TestRecommendService_Recommend_BlendMath(t *testing.T) {
	// One candidate: min-max normalization collapses to zero, so the
	// final score is simCoef*sim plus the proximity term.
	loc := domain.GeoPoint{Lat: 43.26, Lon: -2.93}
	places := []domain.Place{{ID: "a", CityID: "c1", Rating: 4.0, Reviews: 100, Location: loc}}
	svc := newRecommendFixture(places, map[string]float64{"a": 0.7})

	user := domain.GeoPoint{Lat: 43.26, Lon: -2.93}
	scored, err := svc.Recommend(context.Background(), usecases.RecommendRequest{
		Query: "museum", CitySlug: "bilbao", UserLocation: &user, TopN: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	// Zero distance: exp(-0/5) = 1, so final = 10*0.7 + 1.5*1.
	want := 10*0.7 + 1.5
	if math.Abs(scored[0].FinalScore-want) > 1e-9 {
		t.Errorf("FinalScore = %v, want %v", scored[0].FinalScore, want)
	}
	if math.Abs(scored[0].ProximityScore-1) > 1e-9 {
		t.Errorf("ProximityScore = %v, want 1", scored[0].ProximityScore)
	}
}

func TestRecommendService_Recommend_NoUserLocationDropsProximity(t *testing.T) {
	near := domain.GeoPoint{Lat: 43.26, Lon: -2.93}
	far := domain.GeoPoint{Lat: 43.35, Lon: -3.01}
	places := []domain.Place{
		{ID: "near", CityID: "c1", Rating: 4.0, Reviews: 100, Location: near},
		{ID: "zfar", CityID: "c1", Rating: 4.0, Reviews: 100, Location: far},
	}
	svc := newRecommendFixture(places, map[string]float64{"near": 0.5, "zfar": 0.5})

	scored, err := svc.Recommend(context.Background(), usecases.RecommendRequest{
		Query: "cafe", CitySlug: "bilbao", TopN: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(scored[0].FinalScore-scored[1].FinalScore) > 1e-9 {
		t.Errorf("without a user location distance must not separate scores: %v vs %v",
			scored[0].FinalScore, scored[1].FinalScore)
	}
	// Equal scores break to ascending ID.
	if scored[0].ID != "near" {
		t.Errorf("expected tie-break to ascending id, got %s first", scored[0].ID)
	}
}

func TestRecommendService_Recommend_TopNDefaults(t *testing.T) {
	places := make([]domain.Place, 10)
	sims := map[string]float64{}
	for i := range places {
		id := string(rune('a' + i))
		places[i] = domain.Place{ID: id, CityID: "c1", Rating: 4, Reviews: 100,
			Location: domain.GeoPoint{Lat: 43.26, Lon: -2.93}}
		sims[id] = float64(i) / 10
	}
	svc := newRecommendFixture(places, sims)

	scored, err := svc.Recommend(context.Background(), usecases.RecommendRequest{
		Query: "bar", CitySlug: "bilbao",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(scored) != 5 {
		t.Errorf("expected default top 5, got %d", len(scored))
	}
}

func TestRecommendService_Recommend_Validation(t *testing.T) {
	svc := newRecommendFixture(nil, nil)

	if _, err := svc.Recommend(context.Background(), usecases.RecommendRequest{CitySlug: "bilbao"}); err == nil {
		t.Error("expected error for empty query")
	}
	if _, err := svc.Recommend(context.Background(), usecases.RecommendRequest{Query: "x"}); err == nil {
		t.Error("expected error for missing city")
	}
}

func TestRecommendService_Recommend_EmptyCorpus(t *testing.T) {
	svc := newRecommendFixture(nil, nil)
	scored, err := svc.Recommend(context.Background(), usecases.RecommendRequest{
		Query: "x", CitySlug: "bilbao",
	})
	if err != nil {
		t.Fatalf("empty corpus must not error: %v", err)
	}
	if len(scored) != 0 {
		t.Errorf("expected no results, got %d", len(scored))
	}
}

func TestRecommendService_BuildItinerary(t *testing.T) {
	places := []domain.Place{
		{ID: "a", CityID: "c1", Rating: 4.5, Reviews: 500, Location: domain.GeoPoint{Lat: 43.261, Lon: -2.935}},
		{ID: "b", CityID: "c1", Rating: 4.2, Reviews: 300, Location: domain.GeoPoint{Lat: 43.268, Lon: -2.934}},
		{ID: "c", CityID: "c1", Rating: 4.0, Reviews: 100, Location: domain.GeoPoint{Lat: 43.257, Lon: -2.924}},
	}
	svc := newRecommendFixture(places, map[string]float64{"a": 0.9, "b": 0.8, "c": 0.7})

	user := domain.GeoPoint{Lat: 43.263, Lon: -2.935}
	stops, err := svc.BuildItinerary(context.Background(), usecases.RecommendRequest{
		Query: "art", CitySlug: "bilbao", UserLocation: &user, TopN: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(stops) != 3 {
		t.Fatalf("expected 3 stops, got %d", len(stops))
	}
	seen := map[string]bool{}
	for i, s := range stops {
		if s.VisitOrder != i+1 {
			t.Errorf("stop %d has visit order %d", i, s.VisitOrder)
		}
		if seen[s.ID] {
			t.Errorf("place %s sequenced twice", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestRecommendService_BuildItinerary_EmptyCorpus(t *testing.T) {
	svc := newRecommendFixture(nil, nil)
	stops, err := svc.BuildItinerary(context.Background(), usecases.RecommendRequest{
		Query: "x", CitySlug: "bilbao",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stops) != 0 {
		t.Errorf("expected empty itinerary, got %d", len(stops))
	}
}
