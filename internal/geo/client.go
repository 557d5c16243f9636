// Package geo implements the trip-planner collaborators: a Nominatim
// geocoder and an OSRM router, both cached locally so repeated lookups stay
// off the public APIs.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/mhagberg/voltflow/internal/common"
	"github.com/mhagberg/voltflow/internal/service"
)

// Config holds the endpoints and client identification for the public APIs.
type Config struct {
	NominatimURL string
	OSRMURL      string
	UserAgent    string
	Timeout      time.Duration
}

// DefaultConfig points at the public Nominatim and OSRM instances.
func DefaultConfig() Config {
	return Config{
		NominatimURL: "https://nominatim.openstreetmap.org",
		OSRMURL:      "https://router.project-osrm.org",
		UserAgent:    "voltflow/1.0 (journey log analyzer)",
		Timeout:      15 * time.Second,
	}
}

// Client talks to Nominatim and OSRM. It implements service.Geocoder and
// service.Router. A nil cache disables caching but not lookups.
type Client struct {
	http  *retryablehttp.Client
	cache service.GeoCache
	cfg   Config
}

// NewClient creates a geo client with retrying HTTP transport.
func NewClient(cfg Config, cache service.GeoCache) *Client {
	if cfg.NominatimURL == "" {
		cfg.NominatimURL = DefaultConfig().NominatimURL
	}
	if cfg.OSRMURL == "" {
		cfg.OSRMURL = DefaultConfig().OSRMURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = log.New(io.Discard, "", 0)
	retryClient.RetryMax = 3
	retryClient.HTTPClient.Timeout = cfg.Timeout

	return &Client{
		http:  retryClient,
		cache: cache,
		cfg:   cfg,
	}
}

// Geocode resolves a free-form place query via Nominatim, consulting the
// cache first. Nominatim's usage policy requires caching and an identifying
// User-Agent.
func (c *Client) Geocode(ctx context.Context, query string) (service.Location, error) {
	if c.cache != nil {
		cached, err := c.cache.GetLocation(ctx, query)
		if err != nil {
			slog.Warn("Geocode cache read failed", "query", query, "error", err)
		} else if cached != nil {
			slog.Debug("Geocode cache hit", "query", query)
			return *cached, nil
		}
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=1",
		c.cfg.NominatimURL, url.QueryEscape(query))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return service.Location{}, fmt.Errorf("geocoding %q: %w", query, err)
	}

	var results []struct {
		DisplayName string `json:"display_name"`
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
	}
	if err := json.Unmarshal(body, &results); err != nil {
		return service.Location{}, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return service.Location{}, fmt.Errorf("geocoding %q: %w", query, common.ErrNoResults)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return service.Location{}, fmt.Errorf("invalid latitude in geocode response: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return service.Location{}, fmt.Errorf("invalid longitude in geocode response: %w", err)
	}

	loc := service.Location{
		DisplayName: results[0].DisplayName,
		Lat:         lat,
		Lon:         lon,
	}

	if c.cache != nil {
		if err := c.cache.SaveLocation(ctx, query, loc); err != nil {
			slog.Warn("Geocode cache write failed", "query", query, "error", err)
		}
	}

	return loc, nil
}

// Route computes a driving route between two locations via OSRM, consulting
// the cache first. OSRM wants lon,lat coordinate order.
func (c *Client) Route(ctx context.Context, from, to service.Location) (service.Route, error) {
	if c.cache != nil {
		cached, err := c.cache.GetRoute(ctx, from, to)
		if err != nil {
			slog.Warn("Route cache read failed", "error", err)
		} else if cached != nil {
			slog.Debug("Route cache hit")
			return *cached, nil
		}
	}

	endpoint := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		c.cfg.OSRMURL, from.Lon, from.Lat, to.Lon, to.Lat)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return service.Route{}, fmt.Errorf("routing: %w", err)
	}

	if code := gjson.GetBytes(body, "code").String(); code != "Ok" {
		return service.Route{}, fmt.Errorf("routing: %w (code %s)", common.ErrNoRoute, code)
	}

	routes := gjson.GetBytes(body, "routes")
	if !routes.Exists() || len(routes.Array()) == 0 {
		return service.Route{}, fmt.Errorf("routing: %w", common.ErrNoRoute)
	}

	route := service.Route{
		DistanceKm: gjson.GetBytes(body, "routes.0.distance").Float() / 1000,
		Duration:   time.Duration(gjson.GetBytes(body, "routes.0.duration").Float() * float64(time.Second)),
	}

	if c.cache != nil {
		if err := c.cache.SaveRoute(ctx, from, to, route); err != nil {
			slog.Warn("Route cache write failed", "error", err)
		}
	}

	return route, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
