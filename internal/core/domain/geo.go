package domain

import (
	"fmt"
	"math"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate is finite and within range.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Extend grows the bounds to include p.
func (b *Bounds) Extend(p GeoPoint) {
	if p.Lat < b.MinLat {
		b.MinLat = p.Lat
	}
	if p.Lat > b.MaxLat {
		b.MaxLat = p.Lat
	}
	if p.Lon < b.MinLon {
		b.MinLon = p.Lon
	}
	if p.Lon > b.MaxLon {
		b.MaxLon = p.Lon
	}
}

// ReferenceLat returns the more poleward of the two latitude bounds.
// Converting meters to longitude degrees at this latitude yields the
// smaller (conservative) step, so grid sweeps never under-sample the
// pole-ward edge of the box.
func (b Bounds) ReferenceLat() float64 {
	if math.Abs(b.MinLat) > math.Abs(b.MaxLat) {
		return b.MinLat
	}
	return b.MaxLat
}

// Polygon is an ordered, implicitly closed ring of vertices
// (the last vertex connects back to the first). Immutable after
// construction via NewPolygon.
type Polygon struct {
	vertices []GeoPoint
}

// NewPolygon validates and constructs a polygon. A polygon needs at
// least 3 vertices and every coordinate must be finite and in range.
func NewPolygon(vertices []GeoPoint) (Polygon, error) {
	if len(vertices) < 3 {
		return Polygon{}, fmt.Errorf("polygon needs at least 3 vertices, got %d: %w", len(vertices), ErrInvalidGeometry)
	}
	for i, v := range vertices {
		if !v.Valid() {
			return Polygon{}, fmt.Errorf("polygon vertex %d has invalid coordinate (%v, %v): %w", i, v.Lat, v.Lon, ErrInvalidGeometry)
		}
	}
	own := make([]GeoPoint, len(vertices))
	copy(own, vertices)
	return Polygon{vertices: own}, nil
}

// Vertices returns a copy of the vertex ring.
func (pg Polygon) Vertices() []GeoPoint {
	out := make([]GeoPoint, len(pg.vertices))
	copy(out, pg.vertices)
	return out
}

// Bounds returns the polygon's bounding box.
func (pg Polygon) Bounds() Bounds {
	b := Bounds{
		MinLat: pg.vertices[0].Lat, MaxLat: pg.vertices[0].Lat,
		MinLon: pg.vertices[0].Lon, MaxLon: pg.vertices[0].Lon,
	}
	for _, v := range pg.vertices[1:] {
		b.Extend(v)
	}
	return b
}

// Contains reports whether p lies inside the polygon, using a
// boundary-inclusive ray cast: points exactly on an edge or vertex
// count as inside. This convention matters for grid points that land
// on a polygon edge during coverage sweeps.
func (pg Polygon) Contains(p GeoPoint) bool {
	n := len(pg.vertices)
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a := pg.vertices[j]
		b := pg.vertices[i]

		if onSegment(p, a, b) {
			return true
		}

		if (b.Lat > p.Lat) != (a.Lat > p.Lat) {
			cross := (a.Lon-b.Lon)*(p.Lat-b.Lat)/(a.Lat-b.Lat) + b.Lon
			if p.Lon < cross {
				inside = !inside
			}
		}
	}
	return inside
}

// onSegment reports whether p lies on the segment a-b.
func onSegment(p, a, b GeoPoint) bool {
	cross := (b.Lon-a.Lon)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lon-a.Lon)
	if math.Abs(cross) > 1e-12 {
		return false
	}
	dot := (p.Lon-a.Lon)*(b.Lon-a.Lon) + (p.Lat-a.Lat)*(b.Lat-a.Lat)
	if dot < 0 {
		return false
	}
	lenSq := (b.Lon-a.Lon)*(b.Lon-a.Lon) + (b.Lat-a.Lat)*(b.Lat-a.Lat)
	return dot <= lenSq
}
