package maps

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"rideshare/internal/domain"
)

const (
	geocodeCacheTTL     = 24 * time.Hour
	geocodeCacheCleanup = time.Hour
)

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocoder resolves addresses to coordinates with Nominatim.
type Geocoder struct {
	baseURL string
	region  string
	http    httpClient
	cache   *cache.Cache
}

// NewGeocoder creates a new Geocoder. Every query has region appended so
// short campus addresses resolve inside the right city.
func NewGeocoder(baseURL, region, userAgent string, timeout time.Duration) *Geocoder {
	return &Geocoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		region:  region,
		http:    newHTTPClient(timeout, userAgent),
		cache:   cache.New(geocodeCacheTTL, geocodeCacheCleanup),
	}
}

// Geocode returns the coordinates of address.
func (g *Geocoder) Geocode(ctx context.Context, address string) (*domain.Coordinates, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrLocationNotFound
	}

	query := address
	if g.region != "" {
		query = address + ", " + g.region
	}

	key := strings.ToLower(query)
	if cached, found := g.cache.Get(key); found {
		coords := cached.(domain.Coordinates)
		return &coords, nil
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("q", query)

	var places []nominatimPlace
	if err := g.http.getJSON(ctx, g.baseURL+"/search?"+params.Encode(), &places); err != nil {
		return nil, fmt.Errorf("geocode %q: %w", address, err)
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("geocode %q: %w", address, ErrLocationNotFound)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: bad latitude: %w", address, err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: bad longitude: %w", address, err)
	}

	coords := domain.Coordinates{Lat: lat, Lng: lng}
	g.cache.Set(key, coords, cache.DefaultExpiration)
	return &coords, nil
}
