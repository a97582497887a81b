package geo

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
)

type stubFetcher struct {
	body     string
	err      error
	requests []crawler.FetchRequest
}

func (s *stubFetcher) Fetch(_ context.Context, req crawler.FetchRequest) (crawler.FetchResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return crawler.FetchResponse{}, s.err
	}
	return crawler.FetchResponse{URL: req.URL, StatusCode: 200, Body: []byte(s.body)}, nil
}

func TestNominatimGeocode(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{body: `[{"place_id":1,"display_name":"Lyon, Metropole de Lyon, France"}]`}
	n := NewNominatim(f, "https://geo.test/search")

	address, err := n.Geocode(context.Background(), "Lyon")
	require.NoError(t, err)
	require.Equal(t, "Lyon, Metropole de Lyon, France", address)

	require.Len(t, f.requests, 1)
	u, err := url.Parse(f.requests[0].URL)
	require.NoError(t, err)
	require.Equal(t, "geo.test", u.Host)
	require.Equal(t, "Lyon", u.Query().Get("q"))
	require.Equal(t, "jsonv2", u.Query().Get("format"))
	require.Equal(t, "en", u.Query().Get("accept-language"))
}

func TestNominatimNoMatch(t *testing.T) {
	t.Parallel()

	n := NewNominatim(&stubFetcher{body: `[]`}, "")
	_, err := n.Geocode(context.Background(), "Atlantis")
	require.ErrorIs(t, err, ErrNoMatch)
}

func TestNominatimErrors(t *testing.T) {
	t.Parallel()

	fetchErr := &crawler.FetchError{URL: "x", StatusCode: 429}
	_, err := NewNominatim(&stubFetcher{err: fetchErr}, "").Geocode(context.Background(), "Lyon")
	require.ErrorIs(t, err, fetchErr)

	_, err = NewNominatim(&stubFetcher{body: `<html>`}, "").Geocode(context.Background(), "Lyon")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoMatch)
}
