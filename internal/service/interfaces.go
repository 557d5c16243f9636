// Package service defines the interfaces shared between application services.
package service

import (
	"context"
	"time"

	"github.com/mhagberg/voltflow/internal/model"
)

// Location is a geocoded place.
type Location struct {
	DisplayName string
	Lat         float64
	Lon         float64
}

// Route is a computed driving route between two locations.
type Route struct {
	DistanceKm float64
	Duration   time.Duration
}

// Geocoder resolves a free-form place query to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Location, error)
}

// Router computes a driving route between two geocoded locations.
type Router interface {
	Route(ctx context.Context, from, to Location) (Route, error)
}

// GeoCache persists geocode and route lookups between runs so repeated trip
// planning does not hammer the public APIs.
type GeoCache interface {
	GetLocation(ctx context.Context, query string) (*Location, error)
	SaveLocation(ctx context.Context, query string, loc Location) error
	GetRoute(ctx context.Context, from, to Location) (*Route, error)
	SaveRoute(ctx context.Context, from, to Location, route Route) error
	Migrate(ctx context.Context) error
	Close() error
}

// Reviewer drives the interactive correction workflow: it presents the
// outstanding anomalies for a pending dataset and returns the user's
// per-row decisions. A zero-length directive list means "keep everything".
type Reviewer interface {
	Review(ctx context.Context, pending []model.TripRecord, anomalies []model.Anomaly) ([]model.CorrectionDirective, error)
}

// ReviewStats shows the results of one correction cycle.
type ReviewStats struct {
	Flagged   int
	Skipped   int
	Corrected int
	Kept      int
	Duration  time.Duration
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
