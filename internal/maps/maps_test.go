package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideshare/internal/domain"
)

func TestGeocoder_AppendsRegionAndCaches(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "VESIT Chembur, Mumbai, India", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "rideshare-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"19.0454","lon":"72.8891","display_name":"VESIT"}]`))
	}))
	defer srv.Close()

	g := NewGeocoder(srv.URL+"/", "Mumbai, India", "rideshare-test", time.Second)

	coords, err := g.Geocode(context.Background(), " VESIT Chembur ")
	require.NoError(t, err)
	assert.Equal(t, 19.0454, coords.Lat)
	assert.Equal(t, 72.8891, coords.Lng)

	_, err = g.Geocode(context.Background(), "vesit chembur")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second lookup is served from cache")
}

func TestGeocoder_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := NewGeocoder(srv.URL, "", "", time.Second)
	_, err := g.Geocode(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrLocationNotFound)

	_, err = g.Geocode(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestGeocoder_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGeocoder(srv.URL, "", "", time.Second)
	_, err := g.Geocode(context.Background(), "Dadar")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLocationNotFound)
	assert.Contains(t, err.Error(), "429")
}

func TestRouter_Route(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/route/v1/driving/72.889100,19.045400;72.847800,19.017800", r.URL.Path)
		assert.Equal(t, "polyline", r.URL.Query().Get("geometries"))
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"distance":8123.4,"duration":1260.5,"geometry":"abc"}]}`))
	}))
	defer srv.Close()

	origin := domain.Coordinates{Lat: 19.0454, Lng: 72.8891}
	dest := domain.Coordinates{Lat: 19.0178, Lng: 72.8478}

	route, err := NewRouter(srv.URL, "", time.Second).Route(context.Background(), origin, dest)
	require.NoError(t, err)
	assert.Equal(t, 8123.4, route.DistanceMeters)
	assert.Equal(t, 1260.5, route.DurationSeconds)
	assert.Equal(t, "abc", route.Polyline)
	assert.Equal(t, origin, route.Origin)
}

func TestRouter_NoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	defer srv.Close()

	_, err := NewRouter(srv.URL, "", time.Second).Route(context.Background(), domain.Coordinates{}, domain.Coordinates{Lat: 1, Lng: 1})
	assert.ErrorIs(t, err, ErrNoRoute)
}
