package geo

import (
	"errors"
	"math"
	"sort"
)

// GeoJSON geometry type names used across the mongo collections. The
// locations and regions collections carry a 2dsphere index over these.
const (
	TypePoint      = "Point"
	TypeLineString = "LineString"
	TypePolygon    = "Polygon"
)

var ErrNoPoints = errors.New("no points to build a geometry from")

// Point is a GeoJSON point, coordinates ordered [longitude, latitude].
type Point struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

// LineString is a GeoJSON line, used for pickup-to-destination routes.
type LineString struct {
	Type        string      `json:"type" bson:"type"`
	Coordinates [][]float64 `json:"coordinates" bson:"coordinates"`
}

// Geometry is a variable-type GeoJSON geometry. Travel regions degrade
// from Polygon down to LineString or Point when a user has too few
// distinct known locations, so the concrete type is only known at
// runtime. All three are valid $geoIntersects operands.
type Geometry struct {
	Type        string      `json:"type" bson:"type"`
	Coordinates interface{} `json:"coordinates" bson:"coordinates"`
}

func NewPoint(lon, lat float64) Point {
	return Point{Type: TypePoint, Coordinates: []float64{lon, lat}}
}

// NewRoute builds the straight-line route segment between two points.
func NewRoute(from, to Point) LineString {
	return LineString{
		Type:        TypeLineString,
		Coordinates: [][]float64{from.Coordinates, to.Coordinates},
	}
}

// Approximate rounds each coordinate component to the given number of
// decimal places. 4 places is roughly 11m of precision, 3 places is
// roughly 111m; pings are bucketed at 4 and addresses compared at 3.
func Approximate(coords []float64, places int) []float64 {
	factor := math.Pow(10, float64(places))
	rounded := make([]float64, len(coords))
	for i, c := range coords {
		rounded[i] = math.Round(c*factor) / factor
	}
	return rounded
}

// SamePlace reports whether two coordinate pairs round to the same
// grid cell at the given precision.
func SamePlace(a, b []float64, places int) bool {
	if len(a) != len(b) {
		return false
	}
	ra, rb := Approximate(a, places), Approximate(b, places)
	for i := range ra {
		if ra[i] != rb[i] {
			return false
		}
	}
	return true
}

// WithinDegrees reports whether b is within eps degrees of a on both
// axes. Used for the ~111m address re-geocode tolerance (eps 0.001).
func WithinDegrees(a, b []float64, eps float64) bool {
	if len(a) < 2 || len(b) < 2 {
		return false
	}
	return math.Abs(a[0]-b[0]) < eps && math.Abs(a[1]-b[1]) < eps
}

// ConvexHull computes the convex hull of the first limit points and
// returns it as a GeoJSON geometry. Input order matters: callers put
// the highest-priority points first and the limit cuts off the tail.
//
// Degenerate input yields a degenerate but valid geometry: a single
// distinct point becomes a Point, two become a LineString, and only
// zero points is an error.
func ConvexHull(points [][]float64, limit int) (Geometry, error) {
	if limit > 0 && len(points) > limit {
		points = points[:limit]
	}
	distinct := dedupe(points)
	switch len(distinct) {
	case 0:
		return Geometry{}, ErrNoPoints
	case 1:
		return Geometry{Type: TypePoint, Coordinates: distinct[0]}, nil
	case 2:
		return Geometry{Type: TypeLineString, Coordinates: distinct}, nil
	}

	hull := monotoneChain(distinct)
	if len(hull) < 3 {
		// all collinear
		return Geometry{
			Type:        TypeLineString,
			Coordinates: [][]float64{hull[0], hull[len(hull)-1]},
		}, nil
	}

	// close the ring per GeoJSON polygon rules
	ring := append(hull, hull[0])
	return Geometry{Type: TypePolygon, Coordinates: [][][]float64{ring}}, nil
}

func dedupe(points [][]float64) [][]float64 {
	seen := make(map[[2]float64]bool, len(points))
	out := make([][]float64, 0, len(points))
	for _, p := range points {
		if len(p) < 2 {
			continue
		}
		key := [2]float64{p[0], p[1]}
		if !seen[key] {
			seen[key] = true
			out = append(out, []float64{p[0], p[1]})
		}
	}
	return out
}

// monotoneChain is Andrew's monotone chain algorithm. Returns hull
// vertices in counter-clockwise order without the closing point.
func monotoneChain(points [][]float64) [][]float64 {
	sorted := make([][]float64, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})

	var lower [][]float64
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	var upper [][]float64
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

func cross(o, a, b []float64) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}
