package domain

import (
	"errors"
	"math"
	"testing"
)

func square(t *testing.T) Polygon {
	t.Helper()
	pg, err := NewPolygon([]GeoPoint{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 0.01},
		{Lat: 0.01, Lon: 0.01},
		{Lat: 0.01, Lon: 0},
	})
	if err != nil {
		t.Fatalf("build square: %v", err)
	}
	return pg
}

func TestNewPolygon_TooFewVertices(t *testing.T) {
	_, err := NewPolygon([]GeoPoint{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}})
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("expected ErrInvalidGeometry, got %v", err)
	}
}

func TestNewPolygon_NonFiniteVertex(t *testing.T) {
	_, err := NewPolygon([]GeoPoint{
		{Lat: 0, Lon: 0},
		{Lat: math.NaN(), Lon: 0.01},
		{Lat: 0.01, Lon: 0.01},
	})
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("expected ErrInvalidGeometry, got %v", err)
	}
}

func TestNewPolygon_CopiesInput(t *testing.T) {
	verts := []GeoPoint{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}}
	pg, err := NewPolygon(verts)
	if err != nil {
		t.Fatal(err)
	}
	verts[0].Lat = 99
	if pg.Vertices()[0].Lat != 0 {
		t.Error("polygon shares caller's vertex slice")
	}
}

func TestPolygon_Contains(t *testing.T) {
	pg := square(t)

	tests := []struct {
		name string
		p    GeoPoint
		want bool
	}{
		{"center", GeoPoint{Lat: 0.005, Lon: 0.005}, true},
		{"outside north", GeoPoint{Lat: 0.02, Lon: 0.005}, false},
		{"outside west", GeoPoint{Lat: 0.005, Lon: -0.001}, false},
		{"on south edge", GeoPoint{Lat: 0, Lon: 0.005}, true},
		{"on west edge", GeoPoint{Lat: 0.005, Lon: 0}, true},
		{"on corner", GeoPoint{Lat: 0, Lon: 0}, true},
		{"on north-east corner", GeoPoint{Lat: 0.01, Lon: 0.01}, true},
		{"just outside edge", GeoPoint{Lat: -0.0001, Lon: 0.005}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pg.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestPolygon_Contains_Concave(t *testing.T) {
	// L-shape: the notch at the top right is outside.
	pg, err := NewPolygon([]GeoPoint{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 2},
		{Lat: 2, Lon: 2},
		{Lat: 2, Lon: 1},
		{Lat: 1, Lon: 1},
		{Lat: 1, Lon: 0},
	})
	if err != nil {
		t.Fatal(err)
	}

	if !pg.Contains(GeoPoint{Lat: 0.5, Lon: 0.5}) {
		t.Error("lower arm of L should contain (0.5, 0.5)")
	}
	if !pg.Contains(GeoPoint{Lat: 1.5, Lon: 1.5}) {
		t.Error("upper arm of L should contain (1.5, 1.5)")
	}
	if pg.Contains(GeoPoint{Lat: 1.5, Lon: 0.5}) {
		t.Error("notch should not contain (1.5, 0.5)")
	}
}

func TestPolygon_Bounds(t *testing.T) {
	pg, err := NewPolygon([]GeoPoint{
		{Lat: 41.90, Lon: 12.44},
		{Lat: 41.92, Lon: 12.48},
		{Lat: 41.88, Lon: 12.50},
		{Lat: 41.87, Lon: 12.47},
	})
	if err != nil {
		t.Fatal(err)
	}
	b := pg.Bounds()
	if b.MinLat != 41.87 || b.MaxLat != 41.92 || b.MinLon != 12.44 || b.MaxLon != 12.50 {
		t.Errorf("unexpected bounds: %+v", b)
	}
}

func TestBounds_ReferenceLat(t *testing.T) {
	north := Bounds{MinLat: 40, MaxLat: 45}
	if got := north.ReferenceLat(); got != 45 {
		t.Errorf("northern hemisphere reference = %v, want 45", got)
	}
	south := Bounds{MinLat: -45, MaxLat: -40}
	if got := south.ReferenceLat(); got != -45 {
		t.Errorf("southern hemisphere reference = %v, want -45", got)
	}
}

func TestGeoPoint_Valid(t *testing.T) {
	if !(GeoPoint{Lat: -90, Lon: 180}).Valid() {
		t.Error("extreme in-range coordinate should be valid")
	}
	if (GeoPoint{Lat: math.Inf(1), Lon: 0}).Valid() {
		t.Error("infinite latitude should be invalid")
	}
	if (GeoPoint{Lat: 0, Lon: 181}).Valid() {
		t.Error("out-of-range longitude should be invalid")
	}
}

func TestCoverageRequest_Validate(t *testing.T) {
	pg := square(t)

	tests := []struct {
		name    string
		req     CoverageRequest
		wantErr error
	}{
		{"ok", CoverageRequest{Polygons: []Polygon{pg}, RadiusMeters: 500, SpacingFactor: 0.5}, nil},
		{"zero radius", CoverageRequest{Polygons: []Polygon{pg}, RadiusMeters: 0, SpacingFactor: 0.5}, ErrInvalidParameter},
		{"negative radius", CoverageRequest{Polygons: []Polygon{pg}, RadiusMeters: -10, SpacingFactor: 0}, ErrInvalidParameter},
		{"spacing below range", CoverageRequest{Polygons: []Polygon{pg}, RadiusMeters: 500, SpacingFactor: -0.1}, ErrInvalidParameter},
		{"spacing above range", CoverageRequest{Polygons: []Polygon{pg}, RadiusMeters: 500, SpacingFactor: 1.1}, ErrInvalidParameter},
		{"unbuilt polygon", CoverageRequest{Polygons: []Polygon{{}}, RadiusMeters: 500, SpacingFactor: 0.5}, ErrInvalidGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRoutePoint_Validate(t *testing.T) {
	good := RoutePoint{ID: "p1", Location: GeoPoint{Lat: 0, Lon: 0.01}, Indicator: 1}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	zero := RoutePoint{ID: "p2", Location: GeoPoint{Lat: 0, Lon: 0}, Indicator: 0}
	if err := zero.Validate(); !errors.Is(err, ErrInvalidIndicator) {
		t.Errorf("expected ErrInvalidIndicator, got %v", err)
	}

	bad := RoutePoint{ID: "p3", Location: GeoPoint{Lat: 91, Lon: 0}, Indicator: 1}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate, got %v", err)
	}
}
