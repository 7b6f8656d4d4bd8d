package http

import (
	"github.com/nats-io/nats.go"

	"github.com/aldatxeta/tourkit/internal/adapters/postgres"
	"github.com/aldatxeta/tourkit/internal/adapters/valkey"
	"github.com/aldatxeta/tourkit/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Coverage    *usecases.CoverageService
	Itineraries *usecases.ItineraryService
	Places      *usecases.PlaceService
	Cities      *usecases.CityService
	Recommend   *usecases.RecommendService
	NATS        *nats.Conn
	DB          *postgres.DB
	Cache       *valkey.Cache
}
