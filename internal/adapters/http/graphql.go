package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/ipmap/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"south": &graphql.Field{Type: graphql.Float},
			"west":  &graphql.Field{Type: graphql.Float},
			"north": &graphql.Field{Type: graphql.Float},
			"east":  &graphql.Field{Type: graphql.Float},
		},
	})

	memberType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Member",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"ip_address": &graphql.Field{Type: graphql.String},
		},
	})

	clusterType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Cluster",
		Fields: graphql.Fields{
			"location":          &graphql.Field{Type: geoPointType},
			"city":              &graphql.Field{Type: graphql.String},
			"state":             &graphql.Field{Type: graphql.String},
			"country_or_region": &graphql.Field{Type: graphql.String},
			"count":             &graphql.Field{Type: graphql.Int},
			"members":           &graphql.Field{Type: graphql.NewList(memberType)},
		},
	})

	densityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Density",
		Fields: graphql.Fields{
			"tier": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if d, ok := p.Source.(domain.Density); ok {
						return string(d.Tier), nil
					}
					return nil, nil
				},
			},
			"band":       &graphql.Field{Type: graphql.Int},
			"size_hint":  &graphql.Field{Type: graphql.Int},
			"show_label": &graphql.Field{Type: graphql.Boolean},
			"label":      &graphql.Field{Type: graphql.String},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"cluster": &graphql.Field{Type: clusterType},
			"density": &graphql.Field{Type: densityType},
		},
	})

	framingType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Framing",
		Fields: graphql.Fields{
			"bounds":  &graphql.Field{Type: boundsType},
			"center":  &graphql.Field{Type: geoPointType},
			"padding": &graphql.Field{Type: graphql.Int},
			"span_km": &graphql.Field{Type: graphql.Float},
			"fit":     &graphql.Field{Type: graphql.Boolean},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"clusters": &graphql.Field{
				Type:        graphql.NewList(markerType),
				Description: "Markers inside a bounding region, densest last",
				Args: graphql.FieldConfigArgument{
					"south": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"west":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"north": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"east":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					region, err := regionFromBounds(domain.Bounds{
						South: p.Args["south"].(float64),
						West:  p.Args["west"].(float64),
						North: p.Args["north"].(float64),
						East:  p.Args["east"].(float64),
					})
					if err != nil {
						return nil, err
					}
					return deps.Clusters.VisibleMarkers(p.Context, region)
				},
			},
			"allClusters": &graphql.Field{
				Type:        graphql.NewList(clusterType),
				Description: "Every cluster in ascending count order",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					clusters, _ := deps.Clusters.List(p.Args["offset"].(int), p.Args["limit"].(int))
					return clusters, nil
				},
			},
			"cluster": &graphql.Field{
				Type:        clusterType,
				Description: "The cluster at an exact location",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					c, err := deps.Clusters.Lookup(domain.GeoPoint{
						Lat: p.Args["lat"].(float64),
						Lng: p.Args["lng"].(float64),
					})
					if err != nil {
						return nil, err
					}
					return c, nil
				},
			},
			"framing": &graphql.Field{
				Type:        framingType,
				Description: "Initial extent for a freshly opened map",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Clusters.Framing(), nil
				},
			},
			"density": &graphql.Field{
				Type:        densityType,
				Description: "Classify an arbitrary count",
				Args: graphql.FieldConfigArgument{
					"count": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Clusters.Classify(p.Args["count"].(int))
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
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
