package domain

import "fmt"

// RoutePoint is a candidate destination for itinerary sequencing.
// Indicator is an opaque positive desirability weight computed
// upstream; higher means more attractive.
type RoutePoint struct {
	ID        string   `json:"id"`
	Location  GeoPoint `json:"location"`
	Indicator float64  `json:"indicator"`
}

// Validate checks the candidate's coordinate and indicator.
func (p RoutePoint) Validate() error {
	if !p.Location.Valid() {
		return fmt.Errorf("candidate %q has invalid coordinate (%v, %v): %w", p.ID, p.Location.Lat, p.Location.Lon, ErrInvalidCoordinate)
	}
	if p.Indicator <= 0 {
		return fmt.Errorf("candidate %q has indicator %v, must be positive: %w", p.ID, p.Indicator, ErrInvalidIndicator)
	}
	return nil
}

// ItineraryStop is a sequenced candidate with its 1-based visit order.
type ItineraryStop struct {
	RoutePoint
	VisitOrder int `json:"visit_order"`
}
