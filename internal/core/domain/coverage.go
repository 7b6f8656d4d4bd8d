package domain

import "fmt"

// CoverageRequest fully describes one coverage computation: the areas
// to tile, the circle radius, and how densely circles are packed.
// Immutable once validated.
type CoverageRequest struct {
	Polygons     []Polygon
	RadiusMeters float64
	// SpacingFactor controls grid density in [0,1]:
	// 0 puts centers one radius apart (maximal overlap),
	// 1 puts them two radii apart (tangent circles, minimal overlap).
	SpacingFactor float64
}

// Validate checks radius and spacing factor. Polygons are validated at
// construction by NewPolygon, so a zero-value Polygon never reaches a
// validated request.
func (r CoverageRequest) Validate() error {
	if r.RadiusMeters <= 0 {
		return fmt.Errorf("radius must be positive, got %v: %w", r.RadiusMeters, ErrInvalidParameter)
	}
	if r.SpacingFactor < 0 || r.SpacingFactor > 1 {
		return fmt.Errorf("spacing factor must be in [0,1], got %v: %w", r.SpacingFactor, ErrInvalidParameter)
	}
	for i, pg := range r.Polygons {
		if len(pg.vertices) == 0 {
			return fmt.Errorf("polygon %d was not built with NewPolygon: %w", i+1, ErrInvalidGeometry)
		}
	}
	return nil
}

// CircleCenter is one sampling circle of a coverage plan. AreaID is
// the 1-based index of the first input polygon (by request order)
// that contains the center.
type CircleCenter struct {
	Location     GeoPoint `json:"location"`
	RadiusMeters float64  `json:"radius_meters"`
	AreaID       int      `json:"area_id"`
}

// CoveragePlan is a persisted coverage run: the request parameters and
// the generated centers, in grid-sweep order (south to north, west to
// east).
type CoveragePlan struct {
	ID            string         `json:"id"`
	RadiusMeters  float64        `json:"radius_meters"`
	SpacingFactor float64        `json:"spacing_factor"`
	AreaCount     int            `json:"area_count"`
	Centers       []CircleCenter `json:"centers"`
}
