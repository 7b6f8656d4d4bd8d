package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CorpusStats holds statistics about the ingested place corpus.
type CorpusStats struct {
	Cities        int    `json:"cities"`
	Places        int    `json:"places"`
	CoveragePlans int    `json:"coverage_plans"`
	LastIngest    string `json:"last_ingest,omitempty"`
}

// CorpusStatsHandler returns row counts from the corpus tables.
func CorpusStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errInternal(c, "database not available")
		}

		var stats CorpusStats
		row := deps.DB.Pool.QueryRow(c.Context(), `
			SELECT
				(SELECT count(*) FROM cities),
				(SELECT count(*) FROM places),
				(SELECT count(*) FROM coverage_plans),
				COALESCE((SELECT max(created_at)::text FROM places), '')
		`)
		if err := row.Scan(&stats.Cities, &stats.Places, &stats.CoveragePlans, &stats.LastIngest); err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}

// ListCitiesHandler returns all cities with place corpora.
func ListCitiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cities, err := deps.Cities.List(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}

		// Apply offset/limit pagination on the full list
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 100
		}

		total := len(cities)
		if offset >= total {
			cities = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			cities = cities[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: cities, Pagination: pg})
	}
}

// GetCityHandler returns a single city by slug.
func GetCityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		if slug == "" {
			return errBadRequest(c, "city slug is required")
		}
		city, err := deps.Cities.GetBySlug(c.Context(), slug)
		if err != nil {
			return errNotFound(c, "city not found")
		}
		return c.JSON(city)
	}
}

// CityPlacesHandler returns the scored corpus for one city.
func CityPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		if slug == "" {
			return errBadRequest(c, "city slug is required")
		}
		minScore := c.QueryFloat("min_score", 0)

		places, err := deps.Places.ListByCity(c.Context(), slug, minScore)
		if err != nil {
			return errInternal(c, err.Error())
		}

		// Pagination
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		total := len(places)
		if offset >= total {
			places = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			places = places[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: places, Pagination: pg})
	}
}

// NearbyPlacesHandler returns places within a radius of a point.
func NearbyPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryFloat("radius", 500)
		limit := c.QueryInt("limit", 50)

		if lat == 0 || lon == 0 {
			return errBadRequest(c, "lat and lon are required")
		}
		if radius <= 0 || radius > 10000 {
			return errBadRequest(c, "radius must be between 1 and 10000 meters")
		}
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		places, err := deps.Places.FindNearby(c.Context(), lat, lon, radius, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(places)
	}
}

// SearchPlacesHandler performs fuzzy search on place names.
func SearchPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		limit := c.QueryInt("limit", 20)
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		places, err := deps.Places.Search(c.Context(), query, nil, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		return c.JSON(places)
	}
}

// GetPlaceHandler returns a single place by ID.
func GetPlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "place id is required")
		}
		place, err := deps.Places.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "place not found")
		}
		return c.JSON(place)
	}
}

// BatchPlacesHandler returns multiple places by ID.
func BatchPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ids := c.Query("ids", "")
		if ids == "" {
			return errBadRequest(c, "ids query parameter is required (comma-separated)")
		}

		// Parse comma-separated IDs
		var placeIDs []string
		for _, id := range strings.Split(ids, ",") {
			if trimmed := strings.TrimSpace(id); trimmed != "" {
				placeIDs = append(placeIDs, trimmed)
			}
		}

		if len(placeIDs) == 0 {
			return errBadRequest(c, "at least one place ID is required")
		}
		if len(placeIDs) > 100 {
			return errBadRequest(c, "maximum 100 place IDs allowed")
		}

		places, err := deps.Places.GetByIDs(c.Context(), placeIDs)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(places)
	}
}
