package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApproximate(t *testing.T) {
	got := Approximate([]float64{-79.123456, 43.987654}, 4)
	assert.Equal(t, []float64{-79.1235, 43.9877}, got)

	got = Approximate([]float64{-79.123456, 43.987654}, 3)
	assert.Equal(t, []float64{-79.123, 43.988}, got)
}

func TestSamePlace(t *testing.T) {
	a := []float64{-79.12341, 43.98766}
	b := []float64{-79.12339, 43.98771}
	assert.True(t, SamePlace(a, b, 4))
	assert.False(t, SamePlace(a, b, 5))
	assert.False(t, SamePlace(a, []float64{-79.2, 43.9}, 4))
}

func TestWithinDegrees(t *testing.T) {
	a := []float64{-79.1234, 43.9876}
	assert.True(t, WithinDegrees(a, []float64{-79.1239, 43.9871}, 0.001))
	assert.False(t, WithinDegrees(a, []float64{-79.1254, 43.9876}, 0.001))
	assert.False(t, WithinDegrees(a, []float64{-79.1234}, 0.001))
}

func TestConvexHull_Degenerate(t *testing.T) {
	t.Run("no points", func(t *testing.T) {
		_, err := ConvexHull(nil, 10)
		assert.ErrorIs(t, err, ErrNoPoints)
	})

	t.Run("single point", func(t *testing.T) {
		g, err := ConvexHull([][]float64{{1, 2}, {1, 2}}, 10)
		assert.NoError(t, err)
		assert.Equal(t, TypePoint, g.Type)
		assert.Equal(t, []float64{1, 2}, g.Coordinates)
	})

	t.Run("two points", func(t *testing.T) {
		g, err := ConvexHull([][]float64{{0, 0}, {1, 1}}, 10)
		assert.NoError(t, err)
		assert.Equal(t, TypeLineString, g.Type)
	})

	t.Run("collinear", func(t *testing.T) {
		g, err := ConvexHull([][]float64{{0, 0}, {1, 1}, {2, 2}, {3, 3}}, 10)
		assert.NoError(t, err)
		assert.Equal(t, TypeLineString, g.Type)
	})
}

func TestConvexHull_Polygon(t *testing.T) {
	// a square with an interior point that must not appear in the hull
	points := [][]float64{
		{0, 0}, {4, 0}, {4, 4}, {0, 4}, {2, 2},
	}
	g, err := ConvexHull(points, 10)
	assert.NoError(t, err)
	assert.Equal(t, TypePolygon, g.Type)

	rings, ok := g.Coordinates.([][][]float64)
	assert.True(t, ok)
	assert.Len(t, rings, 1)

	ring := rings[0]
	// closed ring: 4 vertices plus the repeated first one
	assert.Len(t, ring, 5)
	assert.Equal(t, ring[0], ring[len(ring)-1])
	for _, v := range ring {
		assert.NotEqual(t, []float64{2, 2}, v)
	}
}

func TestConvexHull_Limit(t *testing.T) {
	// the far point sits beyond the limit cutoff and must be ignored
	points := [][]float64{
		{0, 0}, {1, 0}, {0, 1},
		{100, 100},
	}
	g, err := ConvexHull(points, 3)
	assert.NoError(t, err)
	assert.Equal(t, TypePolygon, g.Type)
	rings := g.Coordinates.([][][]float64)
	for _, v := range rings[0] {
		assert.NotEqual(t, []float64{100, 100}, v)
	}
}

func TestNewRoute(t *testing.T) {
	r := NewRoute(NewPoint(-79.1, 43.9), NewPoint(-79.2, 44.0))
	assert.Equal(t, TypeLineString, r.Type)
	assert.Equal(t, [][]float64{{-79.1, 43.9}, {-79.2, 44.0}}, r.Coordinates)
}
