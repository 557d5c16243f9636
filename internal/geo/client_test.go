package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhagberg/voltflow/internal/common"
	"github.com/mhagberg/voltflow/internal/service"
)

// memCache is an in-memory service.GeoCache for tests.
type memCache struct {
	locations map[string]service.Location
	routes    map[string]service.Route
}

func newMemCache() *memCache {
	return &memCache{
		locations: make(map[string]service.Location),
		routes:    make(map[string]service.Route),
	}
}

func (m *memCache) GetLocation(_ context.Context, query string) (*service.Location, error) {
	if loc, ok := m.locations[query]; ok {
		return &loc, nil
	}
	return nil, nil
}

func (m *memCache) SaveLocation(_ context.Context, query string, loc service.Location) error {
	m.locations[query] = loc
	return nil
}

func (m *memCache) GetRoute(_ context.Context, from, to service.Location) (*service.Route, error) {
	if route, ok := m.routes[routeKeyForTest(from, to)]; ok {
		return &route, nil
	}
	return nil, nil
}

func (m *memCache) SaveRoute(_ context.Context, from, to service.Location, route service.Route) error {
	m.routes[routeKeyForTest(from, to)] = route
	return nil
}

func (m *memCache) Migrate(_ context.Context) error { return nil }
func (m *memCache) Close() error                    { return nil }

func routeKeyForTest(from, to service.Location) string {
	return fmt.Sprintf("%f,%f-%f,%f", from.Lat, from.Lon, to.Lat, to.Lon)
}

func TestClient_Geocode(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/search", r.URL.Path)
		assert.Contains(t, r.Header.Get("User-Agent"), "voltflow")
		assert.Equal(t, "gothenburg", r.URL.Query().Get("q"))

		fmt.Fprint(w, `[{"display_name":"Gothenburg, Sweden","lat":"57.7089","lon":"11.9746"}]`)
	}))
	defer server.Close()

	cache := newMemCache()
	client := NewClient(Config{NominatimURL: server.URL, Timeout: time.Second}, cache)

	loc, err := client.Geocode(context.Background(), "gothenburg")
	require.NoError(t, err)
	assert.Equal(t, "Gothenburg, Sweden", loc.DisplayName)
	assert.InDelta(t, 57.7089, loc.Lat, 0.0001)
	assert.InDelta(t, 11.9746, loc.Lon, 0.0001)

	// Second lookup is served from the cache.
	again, err := client.Geocode(context.Background(), "gothenburg")
	require.NoError(t, err)
	assert.Equal(t, loc, again)
	assert.Equal(t, 1, requests)
}

func TestClient_Geocode_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	client := NewClient(Config{NominatimURL: server.URL, Timeout: time.Second}, nil)

	_, err := client.Geocode(context.Background(), "nowhere at all")
	assert.ErrorIs(t, err, common.ErrNoResults)
}

func TestClient_Route(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Contains(t, r.URL.Path, "/route/v1/driving/")

		fmt.Fprint(w, `{"code":"Ok","routes":[{"distance":470300.5,"duration":17100}]}`)
	}))
	defer server.Close()

	cache := newMemCache()
	client := NewClient(Config{OSRMURL: server.URL, Timeout: time.Second}, cache)

	from := service.Location{Lat: 57.7089, Lon: 11.9746}
	to := service.Location{Lat: 59.3293, Lon: 18.0686}

	route, err := client.Route(context.Background(), from, to)
	require.NoError(t, err)
	assert.InDelta(t, 470.3005, route.DistanceKm, 0.001)
	assert.Equal(t, 17100*time.Second, route.Duration)

	// Second lookup is served from the cache.
	_, err = client.Route(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
}

func TestClient_Route_NoRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"code":"NoRoute","routes":[]}`)
	}))
	defer server.Close()

	client := NewClient(Config{OSRMURL: server.URL, Timeout: time.Second}, nil)

	_, err := client.Route(context.Background(), service.Location{}, service.Location{})
	assert.ErrorIs(t, err, common.ErrNoRoute)
}

func TestClient_Route_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{OSRMURL: server.URL, Timeout: time.Second}, nil)

	_, err := client.Route(context.Background(), service.Location{}, service.Location{})
	assert.Error(t, err)
}
