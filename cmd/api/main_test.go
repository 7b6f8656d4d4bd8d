package main

import (
	"context"
	"testing"

	natsadapter "github.com/aldatxeta/tourkit/internal/adapters/nats"
	"github.com/aldatxeta/tourkit/internal/adapters/valkey"
	"github.com/aldatxeta/tourkit/internal/core/domain"
	"github.com/aldatxeta/tourkit/internal/core/usecases"
)

func TestOptionalCache_NilPointerStaysNilInterface(t *testing.T) {
	var cache *valkey.Cache
	if svc := optionalCache(cache); svc != nil {
		t.Fatalf("expected nil interface for nil cache, got %#v", svc)
	}

	cache = &valkey.Cache{}
	if svc := optionalCache(cache); svc == nil {
		t.Fatal("expected non-nil interface for live cache")
	}
}

func TestOptionalPublisher_NilPointerStaysNilInterface(t *testing.T) {
	var nc *natsadapter.Publisher
	if p := optionalPublisher(nc); p != nil {
		t.Fatalf("expected nil interface for nil publisher, got %#v", p)
	}
}

// A degraded start (no cache, no broker) must still serve coverage
// requests instead of dereferencing a nil adapter inside a non-nil
// interface.
func TestDegradedStart_CoverageStillServes(t *testing.T) {
	var cache *valkey.Cache
	var nc *natsadapter.Publisher

	svc := usecases.NewCoverageService(nil, optionalCache(cache), optionalPublisher(nc))

	square, err := domain.NewPolygon([]domain.GeoPoint{
		{Lat: 0, Lon: 0},
		{Lat: 0.01, Lon: 0},
		{Lat: 0.01, Lon: 0.01},
		{Lat: 0, Lon: 0.01},
	})
	if err != nil {
		t.Fatalf("polygon: %v", err)
	}

	centers, err := svc.Generate(context.Background(), domain.CoverageRequest{
		Polygons:      []domain.Polygon{square},
		RadiusMeters:  500,
		SpacingFactor: 0,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(centers) == 0 {
		t.Fatal("expected at least one center")
	}
}
