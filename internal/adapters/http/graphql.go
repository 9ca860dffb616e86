package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	geojsonadapter "github.com/samirrijal/geocover/internal/adapters/geojson"
	"github.com/samirrijal/geocover/internal/core/domain"
	"github.com/samirrijal/geocover/internal/core/usecases"
	"github.com/samirrijal/geocover/internal/pkg/metrics"
)

// buildSchema creates the GraphQL schema wired to the coverage service.
// Geometries travel as GeoJSON strings in both directions.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	resultFields := graphql.Fields{
		"coveredPercentage": &graphql.Field{
			Type:        graphql.Float,
			Description: "Null when the subject has zero area",
		},
		"leftover":    &graphql.Field{Type: graphql.String},
		"coveredArea": &graphql.Field{Type: graphql.String},
	}

	partialType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "PartialCoverage",
		Fields: resultFields,
	})

	coverageFields := graphql.Fields{
		"partialCoverages": &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(partialType)))},
	}
	for k, v := range resultFields {
		coverageFields[k] = v
	}
	coverageType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Coverage",
		Fields: coverageFields,
	})

	geometryList := graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String)))

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"coverage": &graphql.Field{
				Type:        coverageType,
				Description: "Coverage of a subject by an ordered list of candidates",
				Args: graphql.FieldConfigArgument{
					"subject":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"candidates": &graphql.ArgumentConfig{Type: geometryList},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					subject, err := geojsonadapter.DecodeGeometry([]byte(p.Args["subject"].(string)), domain.RoleSubject, 0)
					if err != nil {
						return nil, err
					}
					raw := p.Args["candidates"].([]interface{})
					candidates := make([]domain.GeoArea, 0, len(raw))
					for i, r := range raw {
						mp, err := geojsonadapter.DecodeGeometry([]byte(r.(string)), domain.RoleCandidate, i)
						if err != nil {
							return nil, err
						}
						candidates = append(candidates, domain.GeoArea{Area: mp})
					}

					ctx := usecases.WithTransport(p.Context, metrics.TransportGraphQL)
					res, err := deps.Coverage.Coverage(ctx, domain.GeoArea{Area: subject}, candidates)
					if err != nil {
						return nil, err
					}

					out, err := resultMap(res.CoverageResult)
					if err != nil {
						return nil, err
					}
					partials := make([]map[string]interface{}, 0, len(res.Partials))
					for _, pc := range res.Partials {
						m, err := resultMap(pc)
						if err != nil {
							return nil, err
						}
						partials = append(partials, m)
					}
					out["partialCoverages"] = partials
					return out, nil
				},
			},
			"leftover": &graphql.Field{
				Type:        graphql.String,
				Description: "What remains of subject after subtracting each clipper in order",
				Args: graphql.FieldConfigArgument{
					"subject":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"clippers": &graphql.ArgumentConfig{Type: geometryList},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					subject, err := geojsonadapter.DecodeGeometry([]byte(p.Args["subject"].(string)), domain.RoleSubject, 0)
					if err != nil {
						return nil, err
					}
					raw := p.Args["clippers"].([]interface{})
					clippers := make([]domain.MultiPolygon, 0, len(raw))
					for i, r := range raw {
						mp, err := geojsonadapter.DecodeGeometry([]byte(r.(string)), domain.RoleCandidate, i)
						if err != nil {
							return nil, err
						}
						clippers = append(clippers, mp)
					}

					ctx := usecases.WithTransport(p.Context, metrics.TransportGraphQL)
					leftover, err := deps.Coverage.Leftover(ctx, subject, clippers)
					if err != nil {
						return nil, err
					}
					data, err := geojsonadapter.MarshalMultiPolygon(leftover)
					if err != nil {
						return nil, err
					}
					return string(data), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// resultMap flattens a CoverageResult for the GraphQL resolver.
func resultMap(r domain.CoverageResult) (map[string]interface{}, error) {
	m := map[string]interface{}{}
	if r.CoveredPercentage.IsFinite() {
		m["coveredPercentage"] = float64(r.CoveredPercentage)
	}
	for key, mp := range map[string]*domain.MultiPolygon{"leftover": r.Leftover, "coveredArea": r.Covered} {
		if mp == nil {
			continue
		}
		data, err := json.Marshal(geojsonadapter.EncodeMultiPolygon(*mp))
		if err != nil {
			return nil, err
		}
		m[key] = string(data)
	}
	return m, nil
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
			return newError(c, fiber.StatusBadRequest, domain.CodeMalformedInput, "invalid request body")
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
