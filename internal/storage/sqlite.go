// Package storage provides the SQLite-backed lookup cache. Only external
// lookup results (geocoding, routing) are persisted between runs; the journey
// dataset itself lives in the session and is never written to disk.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mhagberg/voltflow/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Validation errors.
var (
	ErrNilContext  = errors.New("context cannot be nil")
	ErrEmptyString = errors.New("string parameter cannot be empty")
)

// SQLiteCache implements service.GeoCache on a local SQLite file.
type SQLiteCache struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteCache opens (or creates) the cache database at dbPath.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	return &SQLiteCache{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteCache) Close() error {
	return s.db.Close()
}

// GetLocation returns the cached geocode result for query, nil when absent.
func (s *SQLiteCache) GetLocation(ctx context.Context, query string) (*service.Location, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(query, "query"); err != nil {
		return nil, err
	}

	var loc service.Location
	err := s.db.QueryRowContext(ctx,
		`SELECT display_name, lat, lon FROM geocode_cache WHERE query = ?`,
		normalizeQuery(query),
	).Scan(&loc.DisplayName, &loc.Lat, &loc.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read geocode cache: %w", err)
	}
	return &loc, nil
}

// SaveLocation stores a geocode result for query.
func (s *SQLiteCache) SaveLocation(ctx context.Context, query string, loc service.Location) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(query, "query"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO geocode_cache (query, display_name, lat, lon, cached_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(query) DO UPDATE SET
		   display_name = excluded.display_name,
		   lat = excluded.lat,
		   lon = excluded.lon,
		   cached_at = excluded.cached_at`,
		normalizeQuery(query), loc.DisplayName, loc.Lat, loc.Lon, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write geocode cache: %w", err)
	}
	return nil
}

// GetRoute returns the cached route between two locations, nil when absent.
func (s *SQLiteCache) GetRoute(ctx context.Context, from, to service.Location) (*service.Route, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var distanceKm float64
	var durationSec int64
	err := s.db.QueryRowContext(ctx,
		`SELECT distance_km, duration_sec FROM route_cache WHERE route_key = ?`,
		routeKey(from, to),
	).Scan(&distanceKm, &durationSec)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read route cache: %w", err)
	}
	return &service.Route{
		DistanceKm: distanceKm,
		Duration:   time.Duration(durationSec) * time.Second,
	}, nil
}

// SaveRoute stores a computed route between two locations.
func (s *SQLiteCache) SaveRoute(ctx context.Context, from, to service.Location, route service.Route) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO route_cache (route_key, distance_km, duration_sec, cached_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(route_key) DO UPDATE SET
		   distance_km = excluded.distance_km,
		   duration_sec = excluded.duration_sec,
		   cached_at = excluded.cached_at`,
		routeKey(from, to), route.DistanceKm, int64(route.Duration/time.Second), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write route cache: %w", err)
	}
	return nil
}

// normalizeQuery canonicalizes a geocode query for use as a cache key.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// routeKey builds a cache key from coordinates rounded to ~11 m so nearby
// lookups share an entry.
func routeKey(from, to service.Location) string {
	return fmt.Sprintf("%.4f,%.4f->%.4f,%.4f", from.Lat, from.Lon, to.Lat, to.Lon)
}

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}
