// Package geocode resolves coordinates to human-readable addresses.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"frrand-backend/internal/geo"
)

// UnknownAddress is the placeholder used when resolution fails; the
// caller still creates the address so the user can correct the text
// later.
const UnknownAddress = "Unknown"

// Geocoder turns a point into address text.
type Geocoder interface {
	Reverse(ctx context.Context, p geo.Point) (string, error)
}

// ForwardGeocoder additionally resolves address text back to a point.
// Optional; callers type-assert and skip verification when absent.
type ForwardGeocoder interface {
	Geocoder
	Forward(ctx context.Context, text string) (geo.Point, error)
}

// StaticGeocoder always returns UnknownAddress. Used in development
// and tests.
type StaticGeocoder struct{}

func (StaticGeocoder) Reverse(_ context.Context, _ geo.Point) (string, error) {
	return UnknownAddress, nil
}

// GoogleGeocoder resolves addresses through the Google Geocoding API.
type GoogleGeocoder struct {
	apiKey string
	client *http.Client
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *GoogleGeocoder) Reverse(ctx context.Context, p geo.Point) (string, error) {
	if len(p.Coordinates) != 2 {
		return "", fmt.Errorf("geocode: malformed point")
	}
	q := url.Values{}
	// latlng is lat,lng while GeoJSON stores lng,lat
	q.Set("latlng", fmt.Sprintf("%f,%f", p.Coordinates[1], p.Coordinates[0]))
	q.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://maps.googleapis.com/maps/api/geocode/json?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		Status  string `json:"status"`
		Results []struct {
			FormattedAddress string `json:"formatted_address"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Status != "OK" || len(body.Results) == 0 {
		return "", fmt.Errorf("geocode: no result (%s)", body.Status)
	}
	return body.Results[0].FormattedAddress, nil
}

func (g *GoogleGeocoder) Forward(ctx context.Context, text string) (geo.Point, error) {
	q := url.Values{}
	q.Set("address", text)
	q.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://maps.googleapis.com/maps/api/geocode/json?"+q.Encode(), nil)
	if err != nil {
		return geo.Point{}, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return geo.Point{}, err
	}
	defer resp.Body.Close()

	var body struct {
		Status  string `json:"status"`
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return geo.Point{}, err
	}
	if body.Status != "OK" || len(body.Results) == 0 {
		return geo.Point{}, fmt.Errorf("geocode: no result (%s)", body.Status)
	}
	loc := body.Results[0].Geometry.Location
	return geo.NewPoint(loc.Lng, loc.Lat), nil
}
