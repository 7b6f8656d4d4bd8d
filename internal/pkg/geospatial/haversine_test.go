package geospatial

import (
	"math"
	"testing"
)

func TestHaversine_KnownDistance(t *testing.T) {
	// Bilbao (43.2630, -2.9350) to Madrid (40.4168, -3.7038) is about 323 km.
	got := Haversine(43.2630, -2.9350, 40.4168, -3.7038)
	if got < 318 || got > 328 {
		t.Errorf("Bilbao-Madrid distance = %.1f km, want ~323 km", got)
	}
}

func TestHaversine_ZeroDistance(t *testing.T) {
	if d := Haversine(43.263, -2.935, 43.263, -2.935); d != 0 {
		t.Errorf("distance to self = %v, want 0", d)
	}
}

func TestHaversine_EquatorDegree(t *testing.T) {
	// One degree of longitude at the equator is about 111.19 km on a
	// 6371 km sphere.
	got := Haversine(0, 0, 0, 1)
	want := 6371.0 * math.Pi / 180
	if math.Abs(got-want) > 0.01 {
		t.Errorf("one equator degree = %.4f km, want %.4f", got, want)
	}
}

func TestHaversineMeters(t *testing.T) {
	km := Haversine(0, 0, 0, 0.01)
	m := HaversineMeters(0, 0, 0, 0.01)
	if math.Abs(m-km*1000) > 1e-9 {
		t.Errorf("meters %.6f != km*1000 %.6f", m, km*1000)
	}
}

func TestMetersToLatDegrees(t *testing.T) {
	want := 500.0 / 6371000.0 * (180 / math.Pi)
	if got := MetersToLatDegrees(500); math.Abs(got-want) > 1e-12 {
		t.Errorf("MetersToLatDegrees(500) = %v, want %v", got, want)
	}
}

func TestMetersToLonDegrees_EquatorMatchesLat(t *testing.T) {
	lat := MetersToLatDegrees(500)
	lon := MetersToLonDegrees(500, 0)
	if math.Abs(lat-lon) > 1e-12 {
		t.Errorf("at the equator lon step %v should equal lat step %v", lon, lat)
	}
}

func TestMetersToLonDegrees_GrowsTowardPole(t *testing.T) {
	at0 := MetersToLonDegrees(500, 0)
	at60 := MetersToLonDegrees(500, 60)
	if at60 <= at0 {
		t.Errorf("lon step at 60N (%v) should exceed step at equator (%v)", at60, at0)
	}
	// cos(60 deg) = 0.5, so the step should be almost exactly double.
	if math.Abs(at60-2*at0) > 1e-9 {
		t.Errorf("lon step at 60N = %v, want %v", at60, 2*at0)
	}
}

func TestValidCoordinate(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"origin", 0, 0, true},
		{"bilbao", 43.263, -2.935, true},
		{"lat too high", 90.1, 0, false},
		{"lon too low", 0, -180.5, false},
		{"nan lat", math.NaN(), 0, false},
		{"inf lon", 0, math.Inf(1), false},
		{"extremes", -90, 180, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidCoordinate(tt.lat, tt.lon); got != tt.want {
				t.Errorf("ValidCoordinate(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}
