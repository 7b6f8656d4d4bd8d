package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	cityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "City",
		Fields: graphql.Fields{
			"id":      &graphql.Field{Type: graphql.String},
			"slug":    &graphql.Field{Type: graphql.String},
			"name":    &graphql.Field{Type: graphql.String},
			"country": &graphql.Field{Type: graphql.String},
			"median":  &graphql.Field{Type: geoPointType},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"id":                &graphql.Field{Type: graphql.String},
			"maps_id":           &graphql.Field{Type: graphql.String},
			"city_id":           &graphql.Field{Type: graphql.String},
			"name":              &graphql.Field{Type: graphql.String},
			"location":          &graphql.Field{Type: geoPointType},
			"rating":            &graphql.Field{Type: graphql.Float},
			"reviews":           &graphql.Field{Type: graphql.Int},
			"primary_type":      &graphql.Field{Type: graphql.String},
			"editorial_summary": &graphql.Field{Type: graphql.String},
			"score":             &graphql.Field{Type: graphql.Float},
			"distance":          &graphql.Field{Type: graphql.Float},
		},
	})

	centerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CircleCenter",
		Fields: graphql.Fields{
			"location":      &graphql.Field{Type: geoPointType},
			"radius_meters": &graphql.Field{Type: graphql.Float},
			"area_id":       &graphql.Field{Type: graphql.Int},
		},
	})

	coveragePlanType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CoveragePlan",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.String},
			"radius_meters":  &graphql.Field{Type: graphql.Float},
			"spacing_factor": &graphql.Field{Type: graphql.Float},
			"area_count":     &graphql.Field{Type: graphql.Int},
			"centers":        &graphql.Field{Type: graphql.NewList(centerType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"cities": &graphql.Field{
				Type:        graphql.NewList(cityType),
				Description: "List all cities with place corpora",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Cities.List(p.Context)
				},
			},
			"placesNearby": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Find places near a location",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 500.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					return deps.Places.FindNearby(p.Context, lat, lon, radius, limit)
				},
			},
			"searchPlaces": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Search places by name (fuzzy matching)",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := p.Args["query"].(string)
					limit := p.Args["limit"].(int)
					return deps.Places.Search(p.Context, q, nil, limit)
				},
			},
			"place": &graphql.Field{
				Type:        placeType,
				Description: "Get a place by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Places.GetByID(p.Context, id)
				},
			},
			"cityPlaces": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Scored place corpus for one city",
				Args: graphql.FieldConfigArgument{
					"city":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"min_score": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					city := p.Args["city"].(string)
					minScore := p.Args["min_score"].(float64)
					return deps.Places.ListByCity(p.Context, city, minScore)
				},
			},
			"coveragePlan": &graphql.Field{
				Type:        coveragePlanType,
				Description: "Get a coverage plan with its circle centers",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Coverage.GetPlan(p.Context, id)
				},
			},
			"coveragePlans": &graphql.Field{
				Type:        graphql.NewList(coveragePlanType),
				Description: "List recent coverage plans",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit := p.Args["limit"].(int)
					return deps.Coverage.ListPlans(p.Context, limit)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
