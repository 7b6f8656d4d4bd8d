package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aldatxeta/tourkit/internal/core/domain"
	"github.com/aldatxeta/tourkit/internal/core/usecases"
	"github.com/aldatxeta/tourkit/internal/pkg/geospatial"
)

func TestItineraryService_Sequence_PrefersHighIndicator(t *testing.T) {
	// A is closer in raw distance terms after dividing by indicator:
	// d(ref,A) ~ 2.22 km / 1 = 2.22, d(ref,B) ~ 1.11 km / 5 = 0.222.
	candidates := []domain.RoutePoint{
		{ID: "1", Location: domain.GeoPoint{Lat: 0, Lon: 0.02}, Indicator: 1},
		{ID: "2", Location: domain.GeoPoint{Lat: 0, Lon: 0.01}, Indicator: 5},
	}
	svc := usecases.NewItineraryService(nil)

	stops, err := svc.Sequence(context.Background(), candidates, domain.GeoPoint{Lat: 0, Lon: 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stops) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(stops))
	}
	if stops[0].ID != "2" || stops[1].ID != "1" {
		t.Errorf("expected order [2, 1], got [%s, %s]", stops[0].ID, stops[1].ID)
	}
	if stops[0].VisitOrder != 1 || stops[1].VisitOrder != 2 {
		t.Errorf("visit order not 1-based sequential: %d, %d", stops[0].VisitOrder, stops[1].VisitOrder)
	}
}

func TestItineraryService_Sequence_SizeLaw(t *testing.T) {
	candidates := []domain.RoutePoint{
		{ID: "a", Location: domain.GeoPoint{Lat: 0, Lon: 0.01}, Indicator: 1},
		{ID: "b", Location: domain.GeoPoint{Lat: 0, Lon: 0.02}, Indicator: 1},
		{ID: "c", Location: domain.GeoPoint{Lat: 0, Lon: 0.03}, Indicator: 1},
	}
	svc := usecases.NewItineraryService(nil)
	start := domain.GeoPoint{Lat: 0, Lon: 0}

	for _, n := range []int{0, 1, 2, 3, 5, 100} {
		stops, err := svc.Sequence(context.Background(), candidates, start, n)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		want := n
		if want > len(candidates) {
			want = len(candidates)
		}
		if len(stops) != want {
			t.Errorf("n=%d: got %d stops, want %d", n, len(stops), want)
		}
	}
}

func TestItineraryService_Sequence_NoDuplicates(t *testing.T) {
	candidates := []domain.RoutePoint{
		{ID: "a", Location: domain.GeoPoint{Lat: 0.01, Lon: 0}, Indicator: 2},
		{ID: "b", Location: domain.GeoPoint{Lat: 0, Lon: 0.01}, Indicator: 3},
		{ID: "c", Location: domain.GeoPoint{Lat: 0.02, Lon: 0.02}, Indicator: 1},
		{ID: "d", Location: domain.GeoPoint{Lat: 0.01, Lon: 0.03}, Indicator: 4},
	}
	svc := usecases.NewItineraryService(nil)

	stops, err := svc.Sequence(context.Background(), candidates, domain.GeoPoint{Lat: 0, Lon: 0}, 4)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, s := range stops {
		if seen[s.ID] {
			t.Fatalf("candidate %s visited twice", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestItineraryService_Sequence_GreedyLocalOptimality(t *testing.T) {
	candidates := []domain.RoutePoint{
		{ID: "a", Location: domain.GeoPoint{Lat: 0.01, Lon: 0}, Indicator: 2},
		{ID: "b", Location: domain.GeoPoint{Lat: 0, Lon: 0.02}, Indicator: 1},
		{ID: "c", Location: domain.GeoPoint{Lat: 0.02, Lon: 0.02}, Indicator: 6},
		{ID: "d", Location: domain.GeoPoint{Lat: 0.01, Lon: 0.03}, Indicator: 0.5},
	}
	svc := usecases.NewItineraryService(nil)
	start := domain.GeoPoint{Lat: 0, Lon: 0}

	stops, err := svc.Sequence(context.Background(), candidates, start, len(candidates))
	if err != nil {
		t.Fatal(err)
	}

	adj := func(ref domain.GeoPoint, c domain.RoutePoint) float64 {
		return geospatial.Haversine(ref.Lat, ref.Lon, c.Location.Lat, c.Location.Lon) / c.Indicator
	}

	remaining := map[string]domain.RoutePoint{}
	for _, c := range candidates {
		remaining[c.ID] = c
	}
	ref := start
	for i, s := range stops {
		chosen := adj(ref, s.RoutePoint)
		for id, c := range remaining {
			if id == s.ID {
				continue
			}
			if adj(ref, c) < chosen {
				t.Errorf("step %d: %s (%.5f) chosen over closer %s (%.5f)", i+1, s.ID, chosen, id, adj(ref, c))
			}
		}
		delete(remaining, s.ID)
		ref = s.Location
	}
}

func TestItineraryService_Sequence_TieBreakByID(t *testing.T) {
	// Two candidates equidistant from the start with equal indicators:
	// the lower ID must win.
	candidates := []domain.RoutePoint{
		{ID: "z", Location: domain.GeoPoint{Lat: 0, Lon: 0.01}, Indicator: 1},
		{ID: "a", Location: domain.GeoPoint{Lat: 0, Lon: -0.01}, Indicator: 1},
	}
	svc := usecases.NewItineraryService(nil)

	stops, err := svc.Sequence(context.Background(), candidates, domain.GeoPoint{Lat: 0, Lon: 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if stops[0].ID != "a" {
		t.Errorf("tie should break to ascending id: got %s first", stops[0].ID)
	}
}

func TestItineraryService_Sequence_EmptyPool(t *testing.T) {
	svc := usecases.NewItineraryService(nil)
	stops, err := svc.Sequence(context.Background(), nil, domain.GeoPoint{Lat: 0, Lon: 0}, 3)
	if err != nil {
		t.Fatalf("empty pool must not error: %v", err)
	}
	if len(stops) != 0 {
		t.Fatalf("expected empty itinerary, got %d stops", len(stops))
	}
}

func TestItineraryService_Sequence_InvalidIndicator(t *testing.T) {
	svc := usecases.NewItineraryService(nil)
	_, err := svc.Sequence(context.Background(), []domain.RoutePoint{
		{ID: "x", Location: domain.GeoPoint{Lat: 0, Lon: 0.01}, Indicator: 0},
	}, domain.GeoPoint{Lat: 0, Lon: 0}, 1)
	if !errors.Is(err, domain.ErrInvalidIndicator) {
		t.Fatalf("expected ErrInvalidIndicator, got %v", err)
	}
}

func TestItineraryService_Sequence_InvalidStart(t *testing.T) {
	svc := usecases.NewItineraryService(nil)
	_, err := svc.Sequence(context.Background(), nil, domain.GeoPoint{Lat: 91, Lon: 0}, 1)
	if !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestItineraryService_Sequence_DoesNotMutateInput(t *testing.T) {
	candidates := []domain.RoutePoint{
		{ID: "a", Location: domain.GeoPoint{Lat: 0, Lon: 0.03}, Indicator: 1},
		{ID: "b", Location: domain.GeoPoint{Lat: 0, Lon: 0.01}, Indicator: 1},
		{ID: "c", Location: domain.GeoPoint{Lat: 0, Lon: 0.02}, Indicator: 1},
	}
	snapshot := make([]domain.RoutePoint, len(candidates))
	copy(snapshot, candidates)

	svc := usecases.NewItineraryService(nil)
	if _, err := svc.Sequence(context.Background(), candidates, domain.GeoPoint{Lat: 0, Lon: 0}, 3); err != nil {
		t.Fatal(err)
	}
	for i := range snapshot {
		if candidates[i] != snapshot[i] {
			t.Fatalf("caller slice mutated at %d: %+v", i, candidates[i])
		}
	}
}

func TestItineraryService_Sequence_PublishesEvent(t *testing.T) {
	pub := &mockPublisher{}
	svc := usecases.NewItineraryService(pub)
	_, err := svc.Sequence(context.Background(), []domain.RoutePoint{
		{ID: "a", Location: domain.GeoPoint{Lat: 0, Lon: 0.01}, Indicator: 1},
	}, domain.GeoPoint{Lat: 0, Lon: 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if pub.itineraries != 1 {
		t.Errorf("expected 1 published itinerary, got %d", pub.itineraries)
	}
}
