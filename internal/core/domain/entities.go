package domain

import (
	"time"
)

// City groups places for per-city cleaning, search, and
// recommendation. Median is the median place coordinate, used as the
// proximity fallback when a caller supplies no location.
type City struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Country   string    `json:"country,omitempty"`
	Median    GeoPoint  `json:"median"`
	CreatedAt time.Time `json:"created_at"`
}

// Place is a point of interest ingested from an external places
// export.
type Place struct {
	ID               string         `json:"id"`
	MapsID           string         `json:"maps_id"`
	CityID           string         `json:"city_id"`
	Name             string         `json:"name"`
	Location         GeoPoint       `json:"location"`
	Rating           float64        `json:"rating"`
	Reviews          int            `json:"reviews"`
	PrimaryType      string         `json:"primary_type,omitempty"`
	Types            []string       `json:"types,omitempty"`
	BusinessStatus   string         `json:"business_status,omitempty"`
	EditorialSummary string         `json:"editorial_summary,omitempty"`
	GoodForGroups    bool           `json:"good_for_groups"`
	GoodForChildren  bool           `json:"good_for_children"`
	Score            float64        `json:"score"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	Distance         *float64       `json:"distance,omitempty"` // computed field
	CreatedAt        time.Time      `json:"created_at"`
}

// ScoredPlace is a place annotated with the blended recommendation
// score and its components.
type ScoredPlace struct {
	Place
	Similarity     float64 `json:"similarity"`
	ProximityScore float64 `json:"proximity_score"`
	FinalScore     float64 `json:"final_score"`
}
