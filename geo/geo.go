// Package geo resolves a rough device location once per session, best
// effort. Absence is a normal outcome: the backend falls back to its own
// resolution when no location is sent.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultEndpoint = "http://ip-api.com/json"

// Point is a lat/lon pair as sent on plan requests.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Resolver struct {
	client   *http.Client
	endpoint string
}

func NewResolver() *Resolver {
	return &Resolver{
		client:   &http.Client{Timeout: 5 * time.Second},
		endpoint: defaultEndpoint,
	}
}

// NewResolverURL points the resolver at a custom endpoint (tests).
func NewResolverURL(endpoint string) *Resolver {
	r := NewResolver()
	r.endpoint = endpoint
	return r
}

// Locate performs the one-shot lookup. Callers treat a nil Point as "no
// location" and carry on.
func (r *Resolver) Locate(ctx context.Context) (*Point, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geolocation lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geolocation lookup: status %d", resp.StatusCode)
	}

	var body struct {
		Status string  `json:"status"`
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("geolocation lookup: %w", err)
	}
	if body.Status != "success" {
		return nil, fmt.Errorf("geolocation lookup: status %q", body.Status)
	}
	return &Point{Lat: body.Lat, Lon: body.Lon}, nil
}
