package geo

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotogether/ride-pooling/pkg/common"
)

func TestNewCoordinate(t *testing.T) {
	t.Run("valid coordinate", func(t *testing.T) {
		c, err := NewCoordinate(22.253, 84.901)
		require.NoError(t, err)
		assert.Equal(t, 22.253, c.Latitude)
		assert.Equal(t, 84.901, c.Longitude)
	})

	t.Run("boundary values accepted", func(t *testing.T) {
		for _, tc := range []struct{ lat, lng float64 }{
			{90, 180},
			{-90, -180},
			{0, 0},
		} {
			_, err := NewCoordinate(tc.lat, tc.lng)
			assert.NoError(t, err)
		}
	})

	t.Run("latitude out of range", func(t *testing.T) {
		_, err := NewCoordinate(90.1, 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrValidation))
	})

	t.Run("longitude out of range", func(t *testing.T) {
		_, err := NewCoordinate(0, -180.5)
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrValidation))
	})

	t.Run("non-finite values rejected", func(t *testing.T) {
		for _, tc := range []struct {
			name     string
			lat, lng float64
		}{
			{"NaN latitude", math.NaN(), 84.901},
			{"NaN longitude", 22.253, math.NaN()},
			{"positive infinite latitude", math.Inf(1), 84.901},
			{"negative infinite latitude", math.Inf(-1), 84.901},
			{"infinite longitude", 22.253, math.Inf(1)},
		} {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewCoordinate(tc.lat, tc.lng)
				require.Error(t, err)
				assert.True(t, errors.Is(err, common.ErrValidation))
			})
		}
	})
}

func TestDistanceKm(t *testing.T) {
	t.Run("known pair", func(t *testing.T) {
		nitGate := Coordinate{Latitude: 22.253, Longitude: 84.901}
		railwayStation := Coordinate{Latitude: 22.270, Longitude: 84.900}

		d := DistanceKm(nitGate, railwayStation)
		assert.Greater(t, d, 1.8)
		assert.Less(t, d, 2.0)
	})

	t.Run("zero distance for identical points", func(t *testing.T) {
		p := Coordinate{Latitude: 40.7128, Longitude: -74.0060}
		assert.Equal(t, 0.0, DistanceKm(p, p))
	})

	t.Run("symmetric", func(t *testing.T) {
		a := Coordinate{Latitude: 51.5074, Longitude: -0.1278}
		b := Coordinate{Latitude: 48.8566, Longitude: 2.3522}
		assert.InDelta(t, DistanceKm(a, b), DistanceKm(b, a), 1e-9)
	})

	t.Run("london to paris", func(t *testing.T) {
		london := Coordinate{Latitude: 51.5074, Longitude: -0.1278}
		paris := Coordinate{Latitude: 48.8566, Longitude: 2.3522}

		d := DistanceKm(london, paris)
		assert.Greater(t, d, 330.0)
		assert.Less(t, d, 360.0)
	})

	t.Run("antimeridian crossing stays finite", func(t *testing.T) {
		a := Coordinate{Latitude: 0, Longitude: 179.9}
		b := Coordinate{Latitude: 0, Longitude: -179.9}

		d := DistanceKm(a, b)
		assert.Greater(t, d, 0.0)
		assert.Less(t, d, 30.0)
	})
}

func TestEncode(t *testing.T) {
	t.Run("default precision yields seven characters", func(t *testing.T) {
		c := Coordinate{Latitude: 22.253, Longitude: 84.901}
		key := Encode(c, DefaultPrecision)
		assert.Len(t, key, DefaultPrecision)
	})

	t.Run("lower precision key prefixes higher precision key", func(t *testing.T) {
		c := Coordinate{Latitude: 22.253, Longitude: 84.901}
		for p := uint(1); p < 12; p++ {
			shorter := Encode(c, p)
			longer := Encode(c, p+1)
			assert.True(t, strings.HasPrefix(longer, shorter),
				"key %q at precision %d should prefix %q", shorter, p, longer)
		}
	})

	t.Run("nearby points share a cell", func(t *testing.T) {
		a := Coordinate{Latitude: 22.2530, Longitude: 84.9010}
		b := Coordinate{Latitude: 22.2531, Longitude: 84.9011}
		assert.Equal(t, Encode(a, 6), Encode(b, 6))
	})
}

func TestNeighbors(t *testing.T) {
	t.Run("includes the cell itself first", func(t *testing.T) {
		c := Coordinate{Latitude: 22.253, Longitude: 84.901}
		key := Encode(c, DefaultPrecision)

		cells := Neighbors(key)
		require.NotEmpty(t, cells)
		assert.Equal(t, key, cells[0])
	})

	t.Run("interior cell has nine distinct cells", func(t *testing.T) {
		key := Encode(Coordinate{Latitude: 22.253, Longitude: 84.901}, DefaultPrecision)

		cells := Neighbors(key)
		assert.Len(t, cells, 9)

		seen := make(map[string]bool)
		for _, cell := range cells {
			assert.False(t, seen[cell], "duplicate cell %q", cell)
			seen[cell] = true
			assert.Len(t, cell, DefaultPrecision)
		}
	})

	t.Run("adjacent points appear in each other's coverage", func(t *testing.T) {
		// Two points straddling a cell boundary must still find each other.
		a := Coordinate{Latitude: 22.2530, Longitude: 84.9010}
		b := Coordinate{Latitude: 22.2545, Longitude: 84.9010}

		aKeys := CoverageKeys(a, DefaultPrecision)
		bKey := Encode(b, DefaultPrecision)

		assert.Contains(t, aKeys, bKey)
	})
}
