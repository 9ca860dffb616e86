package domain

// Coord is a planar 2D coordinate. For geographic input X is longitude and
// Y is latitude, matching GeoJSON position order.
type Coord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Ring is an ordered sequence of coordinates, implicitly closed.
// Closure and winding are not enforced here.
type Ring []Coord

// Polygon is one exterior ring plus zero or more holes.
type Polygon struct {
	Exterior Ring   `json:"exterior"`
	Holes    []Ring `json:"holes,omitempty"`
}

// MultiPolygon is the canonical shape every subject and candidate is
// coerced into before any computation.
type MultiPolygon []Polygon

// GeometryKind tags the geometry variants the service recognizes.
type GeometryKind int

const (
	KindUnsupported GeometryKind = iota
	KindPolygon
	KindMultiPolygon
)

func (k GeometryKind) String() string {
	switch k {
	case KindPolygon:
		return "Polygon"
	case KindMultiPolygon:
		return "MultiPolygon"
	default:
		return "Unsupported"
	}
}

// Geometry is a decoded input geometry. Exactly one of Polygon or
// MultiPolygon is meaningful, selected by Kind. TypeName keeps the wire
// type of unsupported geometries for error reporting.
type Geometry struct {
	Kind         GeometryKind
	Polygon      Polygon
	MultiPolygon MultiPolygon
	TypeName     string
}

// GeoArea is a MultiPolygon with an optional opaque identifier.
// The identifier is never used by the computation.
type GeoArea struct {
	ID   *string
	Area MultiPolygon
}
