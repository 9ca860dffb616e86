// Package geojsonadapter converts between GeoJSON wire geometries and the
// domain MultiPolygon every coverage computation runs on.
//
// Polygon inputs are lifted to one-element MultiPolygons, MultiPolygons pass
// through unchanged, and every other geometry type is rejected with a
// domain.InvalidGeometryKindError naming the offending input. No repair,
// simplification, rounding or winding/closure validation is performed.
package geojsonadapter

import (
	"encoding/json"
	"errors"
	"fmt"

	geojson "github.com/paulmach/go.geojson"

	"github.com/samirrijal/geocover/internal/core/domain"
)

var errMissingType = errors.New("geometry type is missing")

// Classify converts a wire geometry into the closed domain variant. It fails
// with a malformed input error when the type is missing or a position has
// fewer than two ordinates.
func Classify(g *geojson.Geometry) (domain.Geometry, error) {
	if g == nil {
		return domain.Geometry{}, &domain.MalformedInputError{Field: "geometry"}
	}

	switch g.Type {
	case "":
		return domain.Geometry{}, &domain.MalformedInputError{Field: "type", Err: errMissingType}

	case geojson.GeometryPolygon:
		p, err := decodePolygon(g.Polygon)
		if err != nil {
			return domain.Geometry{}, err
		}
		return domain.Geometry{Kind: domain.KindPolygon, Polygon: p, TypeName: string(g.Type)}, nil

	case geojson.GeometryMultiPolygon:
		mp := make(domain.MultiPolygon, 0, len(g.MultiPolygon))
		for _, raw := range g.MultiPolygon {
			p, err := decodePolygon(raw)
			if err != nil {
				return domain.Geometry{}, err
			}
			mp = append(mp, p)
		}
		return domain.Geometry{Kind: domain.KindMultiPolygon, MultiPolygon: mp, TypeName: string(g.Type)}, nil

	default:
		return domain.Geometry{Kind: domain.KindUnsupported, TypeName: string(g.Type)}, nil
	}
}

// Normalize lifts g into a MultiPolygon. role and index identify the input
// in the returned error.
func Normalize(g domain.Geometry, role domain.Role, index int) (domain.MultiPolygon, error) {
	switch g.Kind {
	case domain.KindMultiPolygon:
		return g.MultiPolygon, nil
	case domain.KindPolygon:
		return domain.MultiPolygon{g.Polygon}, nil
	default:
		return nil, &domain.InvalidGeometryKindError{Role: role, Index: index, Kind: g.TypeName}
	}
}

// ToMultiPolygon classifies and normalizes a wire geometry in one step.
func ToMultiPolygon(g *geojson.Geometry, role domain.Role, index int) (domain.MultiPolygon, error) {
	dg, err := Classify(g)
	if err != nil {
		return nil, err
	}
	return Normalize(dg, role, index)
}

// DecodeGeometry parses a single GeoJSON geometry document.
func DecodeGeometry(data []byte, role domain.Role, index int) (domain.MultiPolygon, error) {
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, &domain.MalformedInputError{Field: string(role), Err: err}
	}
	return ToMultiPolygon(g, role, index)
}

func decodePolygon(raw [][][]float64) (domain.Polygon, error) {
	if len(raw) == 0 {
		return domain.Polygon{Exterior: domain.Ring{}}, nil
	}
	rings := make([]domain.Ring, 0, len(raw))
	for _, r := range raw {
		ring, err := decodeRing(r)
		if err != nil {
			return domain.Polygon{}, err
		}
		rings = append(rings, ring)
	}
	p := domain.Polygon{Exterior: rings[0]}
	if len(rings) > 1 {
		p.Holes = rings[1:]
	}
	return p, nil
}

func decodeRing(raw [][]float64) (domain.Ring, error) {
	ring := make(domain.Ring, 0, len(raw))
	for _, pos := range raw {
		if len(pos) < 2 {
			return nil, &domain.MalformedInputError{Field: "coordinates", Err: fmt.Errorf("position needs at least 2 ordinates, got %d", len(pos))}
		}
		ring = append(ring, domain.Coord{X: pos[0], Y: pos[1]})
	}
	return ring, nil
}

// EncodeMultiPolygon renders mp as a GeoJSON MultiPolygon. Each polygon's
// exterior ring comes first, followed by its holes; rings are emitted closed.
func EncodeMultiPolygon(mp domain.MultiPolygon) *geojson.Geometry {
	polys := make([][][][]float64, 0, len(mp))
	for _, p := range mp {
		rings := make([][][]float64, 0, 1+len(p.Holes))
		rings = append(rings, encodeRing(p.Exterior))
		for _, h := range p.Holes {
			rings = append(rings, encodeRing(h))
		}
		polys = append(polys, rings)
	}
	return &geojson.Geometry{Type: geojson.GeometryMultiPolygon, MultiPolygon: polys}
}

func encodeRing(r domain.Ring) [][]float64 {
	out := make([][]float64, 0, len(r)+1)
	for _, c := range r {
		out = append(out, []float64{c.X, c.Y})
	}
	if n := len(r); n > 0 && r[0] != r[n-1] {
		out = append(out, []float64{r[0].X, r[0].Y})
	}
	return out
}

// MarshalMultiPolygon is EncodeMultiPolygon followed by JSON encoding.
func MarshalMultiPolygon(mp domain.MultiPolygon) ([]byte, error) {
	return json.Marshal(EncodeMultiPolygon(mp))
}
