package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhagberg/voltflow/internal/service"
)

func testCache(t *testing.T) *SQLiteCache {
	t.Helper()

	cache, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	require.NoError(t, cache.Migrate(context.Background()))
	t.Cleanup(func() { _ = cache.Close() })

	return cache
}

func TestSQLiteCache_Locations(t *testing.T) {
	ctx := context.Background()
	cache := testCache(t)

	t.Run("miss returns nil", func(t *testing.T) {
		got, err := cache.GetLocation(ctx, "Gothenburg")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	loc := service.Location{DisplayName: "Gothenburg, Sweden", Lat: 57.7089, Lon: 11.9746}
	require.NoError(t, cache.SaveLocation(ctx, "Gothenburg", loc))

	t.Run("hit returns stored location", func(t *testing.T) {
		got, err := cache.GetLocation(ctx, "Gothenburg")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, loc, *got)
	})

	t.Run("lookup is whitespace and case insensitive", func(t *testing.T) {
		got, err := cache.GetLocation(ctx, "  gothenburg ")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, loc.DisplayName, got.DisplayName)
	})

	t.Run("save overwrites existing entry", func(t *testing.T) {
		updated := loc
		updated.DisplayName = "Göteborg, Sverige"
		require.NoError(t, cache.SaveLocation(ctx, "Gothenburg", updated))

		got, err := cache.GetLocation(ctx, "Gothenburg")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Göteborg, Sverige", got.DisplayName)
	})

	t.Run("empty query rejected", func(t *testing.T) {
		_, err := cache.GetLocation(ctx, "  ")
		assert.ErrorIs(t, err, ErrEmptyString)
	})
}

func TestSQLiteCache_Routes(t *testing.T) {
	ctx := context.Background()
	cache := testCache(t)

	from := service.Location{Lat: 57.7089, Lon: 11.9746}
	to := service.Location{Lat: 59.3293, Lon: 18.0686}

	t.Run("miss returns nil", func(t *testing.T) {
		got, err := cache.GetRoute(ctx, from, to)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	route := service.Route{DistanceKm: 470.3, Duration: 4*time.Hour + 45*time.Minute}
	require.NoError(t, cache.SaveRoute(ctx, from, to, route))

	t.Run("hit returns stored route", func(t *testing.T) {
		got, err := cache.GetRoute(ctx, from, to)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.InDelta(t, route.DistanceKm, got.DistanceKm, 0.001)
		assert.Equal(t, route.Duration, got.Duration)
	})

	t.Run("reverse direction is a different key", func(t *testing.T) {
		got, err := cache.GetRoute(ctx, to, from)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestSQLiteCache_MigrateIdempotent(t *testing.T) {
	cache := testCache(t)
	assert.NoError(t, cache.Migrate(context.Background()))
}

func TestNewSQLiteCache_EmptyPath(t *testing.T) {
	_, err := NewSQLiteCache(" ")
	assert.ErrorIs(t, err, ErrEmptyString)
}
