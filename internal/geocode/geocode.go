// Package geocode resolves a city name to coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnavailable is returned when no coordinates could be obtained, either
// because geocoding is disabled or the lookup found nothing.
var ErrUnavailable = errors.New("geocode: coordinates unavailable")

// Geocoder looks up a city's latitude and longitude.
type Geocoder interface {
	Geocode(ctx context.Context, city string) (lat, lng float64, err error)
}

// Disabled is a Geocoder that always returns ErrUnavailable.
type Disabled struct{}

// Geocode implements Geocoder.
func (Disabled) Geocode(context.Context, string) (float64, float64, error) {
	return 0, 0, ErrUnavailable
}

// DefaultBaseURL is the Open-Meteo geocoding search endpoint.
const DefaultBaseURL = "https://geocoding-api.open-meteo.com/v1/search"

// OpenMeteo queries the Open-Meteo geocoding API for the best match.
type OpenMeteo struct {
	BaseURL string
	Client  *http.Client
}

// NewOpenMeteo returns an OpenMeteo geocoder with the given request timeout.
func NewOpenMeteo(baseURL string, timeout time.Duration) *OpenMeteo {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenMeteo{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

// Geocode implements Geocoder.
func (g *OpenMeteo) Geocode(ctx context.Context, city string) (float64, float64, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return 0, 0, fmt.Errorf("geocode: city is required")
	}

	q := url.Values{}
	q.Set("name", city)
	q.Set("count", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("geocode: build request: %w", err)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("geocode: %s: %w", city, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("geocode: %s: unexpected status %d", city, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, 0, fmt.Errorf("geocode: decode response: %w", err)
	}
	if len(body.Results) == 0 {
		return 0, 0, fmt.Errorf("%w: no results for %q", ErrUnavailable, city)
	}
	return body.Results[0].Latitude, body.Results[0].Longitude, nil
}
