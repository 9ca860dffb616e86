package geospatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the IUGG mean Earth radius.
const EarthRadiusMeters = 6371008.8

// RingArea returns the unsigned spherical area in square meters enclosed by
// a ring of lon/lat degree pairs. Winding order does not matter; the smaller
// of the two regions the ring bounds is measured. A closing vertex equal to
// the first one is ignored.
func RingArea(lonLat [][2]float64) float64 {
	n := len(lonLat)
	if n > 1 && lonLat[0] == lonLat[n-1] {
		n--
	}
	if n < 3 {
		return 0
	}

	pts := make([]s2.Point, 0, n)
	for _, c := range lonLat[:n] {
		pts = append(pts, s2.PointFromLatLng(s2.LatLngFromDegrees(c[1], c[0])))
	}

	steradians := s2.LoopFromPoints(pts).Area()
	if steradians > 2*math.Pi {
		steradians = 4*math.Pi - steradians
	}
	return steradians * EarthRadiusMeters * EarthRadiusMeters
}

// PolygonArea returns the spherical area of an exterior ring minus its holes.
func PolygonArea(exterior [][2]float64, holes ...[][2]float64) float64 {
	a := RingArea(exterior)
	for _, h := range holes {
		a -= RingArea(h)
	}
	return math.Abs(a)
}
