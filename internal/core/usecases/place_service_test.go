package usecases_test

import (
	"context"
	"math"
	"testing"

	"github.com/aldatxeta/tourkit/internal/core/domain"
	"github.com/aldatxeta/tourkit/internal/core/usecases"
)

// --- Mock PlaceRepository ---

type mockPlaceRepo struct {
	findNearbyFn func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Place, error)
	getByIDFn    func(ctx context.Context, id string) (*domain.Place, error)
	getByIDsFn   func(ctx context.Context, ids []string) ([]domain.Place, error)
	searchFn     func(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.Place, error)
	listByCityFn func(ctx context.Context, citySlug string, minScore float64) ([]domain.Place, error)
}

func (m *mockPlaceRepo) Upsert(ctx context.Context, p *domain.Place) error        { return nil }
func (m *mockPlaceRepo) UpsertBatch(ctx context.Context, ps []domain.Place) error { return nil }

func (m *mockPlaceRepo) FindNearby(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Place, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, lat, lon, radius, limit)
	}
	return nil, nil
}

func (m *mockPlaceRepo) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockPlaceRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Place, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (m *mockPlaceRepo) Search(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.Place, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, near, limit)
	}
	return nil, nil
}

func (m *mockPlaceRepo) ListByCity(ctx context.Context, citySlug string, minScore float64) ([]domain.Place, error) {
	if m.listByCityFn != nil {
		return m.listByCityFn(ctx, citySlug, minScore)
	}
	return nil, nil
}

// --- Tests ---

func TestPlaceService_Score(t *testing.T) {
	svc := usecases.NewPlaceService(&mockPlaceRepo{}, nil)

	p := domain.Place{Rating: 4.5, Reviews: 100, EditorialSummary: "worth a detour"}
	want := 0.2*4.5 + 0.6*math.Log1p(100) + 1.0
	if got := svc.Score(p); math.Abs(got-want) > 1e-9 {
		t.Errorf("Score = %v, want %v", got, want)
	}

	noEditorial := domain.Place{Rating: 4.5, Reviews: 100}
	if got := svc.Score(noEditorial); math.Abs(got-(want-1.0)) > 1e-9 {
		t.Errorf("Score without editorial = %v, want %v", got, want-1.0)
	}

	negReviews := domain.Place{Rating: 3, Reviews: -5}
	if got := svc.Score(negReviews); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("negative reviews should count as zero: got %v", got)
	}
}

func TestPlaceService_Clean(t *testing.T) {
	svc := usecases.NewPlaceService(&mockPlaceRepo{}, nil)
	loc := domain.GeoPoint{Lat: 43.26, Lon: -2.93}

	in := []domain.Place{
		{ID: "keep", Location: loc, Rating: 4.8, Reviews: 800, EditorialSummary: "x"},
		{ID: "closed", Location: loc, Rating: 4.8, Reviews: 800, BusinessStatus: "CLOSED"},
		{ID: "closed-temp", Location: loc, Rating: 4.8, Reviews: 800, BusinessStatus: "CLOSED_TEMPORARILY"},
		{ID: "few-reviews", Location: loc, Rating: 4.8, Reviews: 10},
		{ID: "low-score", Location: loc, Rating: 1.0, Reviews: 31},
		{ID: "no-coords", Rating: 4.8, Reviews: 800},
	}

	out := svc.Clean(in)
	if len(out) != 1 || out[0].ID != "keep" {
		ids := make([]string, len(out))
		for i, p := range out {
			ids[i] = p.ID
		}
		t.Fatalf("expected only [keep], got %v", ids)
	}
	if out[0].Score == 0 {
		t.Error("surviving place should carry its computed score")
	}
	if in[0].Score != 0 {
		t.Error("input slice must not be modified")
	}
}

func TestPlaceService_SelectBalanced_Proportional(t *testing.T) {
	svc := usecases.NewPlaceService(&mockPlaceRepo{}, nil)

	// 10 museums, 5 parks; both types above the >4 threshold.
	var places []domain.Place
	for i := 0; i < 10; i++ {
		places = append(places, domain.Place{
			ID: string(rune('a'+i)), PrimaryType: "museum", Score: float64(10 - i),
		})
	}
	for i := 0; i < 5; i++ {
		places = append(places, domain.Place{
			ID: string(rune('p'+i)), PrimaryType: "park", Score: float64(5 - i),
		})
	}

	out := svc.SelectBalanced(places, 6)
	if len(out) != 6 {
		t.Fatalf("expected 6 places, got %d", len(out))
	}
	museums, parks := 0, 0
	for _, p := range out {
		switch p.PrimaryType {
		case "museum":
			museums++
		case "park":
			parks++
		}
	}
	// Quotas: museum 10/15*6 = 4, park 5/15*6 = 2.
	if museums != 4 || parks != 2 {
		t.Errorf("expected 4 museums / 2 parks, got %d / %d", museums, parks)
	}
}

func TestPlaceService_SelectBalanced_RareTypesFallBackToScore(t *testing.T) {
	svc := usecases.NewPlaceService(&mockPlaceRepo{}, nil)
	places := []domain.Place{
		{ID: "a", PrimaryType: "museum", Score: 9},
		{ID: "b", PrimaryType: "park", Score: 8},
		{ID: "c", PrimaryType: "cafe", Score: 7},
		{ID: "d", PrimaryType: "pier", Score: 1},
	}

	out := svc.SelectBalanced(places, 2)
	if len(out) != 2 {
		t.Fatalf("expected 2 places, got %d", len(out))
	}
	if out[0].ID != "a" || out[1].ID != "b" {
		t.Errorf("expected top-score fallback [a b], got [%s %s]", out[0].ID, out[1].ID)
	}
}

func TestPlaceService_SelectBalanced_Empty(t *testing.T) {
	svc := usecases.NewPlaceService(&mockPlaceRepo{}, nil)
	if out := svc.SelectBalanced(nil, 10); len(out) != 0 {
		t.Errorf("expected empty selection, got %d", len(out))
	}
}

func TestPlaceService_FindNearby(t *testing.T) {
	repo := &mockPlaceRepo{
		findNearbyFn: func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Place, error) {
			return []domain.Place{
				{ID: "1", Name: "Guggenheim", Location: domain.GeoPoint{Lat: 43.268, Lon: -2.934}},
				{ID: "2", Name: "Zubizuri", Location: domain.GeoPoint{Lat: 43.267, Lon: -2.927}},
			}, nil
		},
	}

	svc := usecases.NewPlaceService(repo, nil)
	places, err := svc.FindNearby(context.Background(), 43.268, -2.934, 500, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 2 {
		t.Fatalf("expected 2 places, got %d", len(places))
	}
	if places[0].Name != "Guggenheim" {
		t.Errorf("expected Guggenheim, got %s", places[0].Name)
	}
}

func TestPlaceService_FindNearby_ClampLimit(t *testing.T) {
	called := false
	repo := &mockPlaceRepo{
		findNearbyFn: func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Place, error) {
			called = true
			if limit != 50 {
				t.Errorf("expected limit clamped to 50, got %d", limit)
			}
			return nil, nil
		},
	}

	svc := usecases.NewPlaceService(repo, nil)
	_, _ = svc.FindNearby(context.Background(), 43.0, -2.0, 500, 999)
	if !called {
		t.Error("repo was not called")
	}
}

func TestPlaceService_Search_EmptyQuery(t *testing.T) {
	svc := usecases.NewPlaceService(&mockPlaceRepo{}, nil)
	_, err := svc.Search(context.Background(), "", nil, 10)
	if err == nil {
		t.Error("expected error for empty query")
	}
}

func TestPlaceService_GetByID(t *testing.T) {
	repo := &mockPlaceRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Place, error) {
			return &domain.Place{ID: id, Name: "Test Place"}, nil
		},
	}

	svc := usecases.NewPlaceService(repo, nil)
	place, err := svc.GetByID(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place.ID != "abc-123" {
		t.Errorf("expected id abc-123, got %s", place.ID)
	}
}
