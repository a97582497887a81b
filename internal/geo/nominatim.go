package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
)

// DefaultNominatimURL is the public OpenStreetMap search endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"

// Nominatim geocodes through the OpenStreetMap search API.
type Nominatim struct {
	fetcher crawler.Fetcher
	baseURL string
}

var _ Geocoder = (*Nominatim)(nil)

// NewNominatim builds a geocoder hitting baseURL through fetcher.
func NewNominatim(fetcher crawler.Fetcher, baseURL string) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	return &Nominatim{fetcher: fetcher, baseURL: baseURL}
}

type nominatimPlace struct {
	DisplayName string `json:"display_name"`
}

// Geocode returns the English display name of the best match.
func (n *Nominatim) Geocode(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("accept-language", "en")
	params.Set("limit", "1")
	target := n.baseURL + "?" + params.Encode()

	resp, err := n.fetcher.Fetch(ctx, crawler.FetchRequest{
		URL:     target,
		Headers: http.Header{"Accept": []string{"application/json"}},
	})
	if err != nil {
		return "", err
	}

	var places []nominatimPlace
	if err := json.Unmarshal(resp.Body, &places); err != nil {
		return "", fmt.Errorf("decode geocode response: %w", err)
	}
	if len(places) == 0 || places[0].DisplayName == "" {
		return "", ErrNoMatch
	}
	return places[0].DisplayName, nil
}
