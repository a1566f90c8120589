package maps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rideshare/internal/domain"
)

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry string  `json:"geometry"`
	} `json:"routes"`
}

// Router computes driving routes with OSRM.
type Router struct {
	baseURL string
	http    httpClient
}

// NewRouter creates a new Router.
func NewRouter(baseURL, userAgent string, timeout time.Duration) *Router {
	return &Router{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newHTTPClient(timeout, userAgent),
	}
}

// Route returns the fastest driving route from origin to dest.
func (r *Router) Route(ctx context.Context, origin, dest domain.Coordinates) (*domain.Route, error) {
	// OSRM takes lng,lat pairs.
	endpoint := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=polyline",
		r.baseURL, origin.Lng, origin.Lat, dest.Lng, dest.Lat)

	var resp osrmResponse
	if err := r.http.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	if resp.Code != "Ok" || len(resp.Routes) == 0 {
		return nil, fmt.Errorf("route %s: %w", resp.Code, ErrNoRoute)
	}

	best := resp.Routes[0]
	return &domain.Route{
		Origin:          origin,
		Destination:     dest,
		DistanceMeters:  best.Distance,
		DurationSeconds: best.Duration,
		Polyline:        best.Geometry,
	}, nil
}
