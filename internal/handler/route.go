package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideshare/internal/service"
)

// RouteHandler serves room routes.
type RouteHandler struct {
	routes *service.RouteService
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(routes *service.RouteService) *RouteHandler {
	return &RouteHandler{routes: routes}
}

// RouteResponse is the HTTP representation of a driving route.
type RouteResponse struct {
	Origin          CoordinatesResponse `json:"origin"`
	Destination     CoordinatesResponse `json:"destination"`
	DistanceMeters  float64             `json:"distance_meters"`
	DurationSeconds float64             `json:"duration_seconds"`
	DurationMinutes int                 `json:"duration_minutes"`
	Polyline        string              `json:"polyline"`
}

// GetRoute handles GET /v1/rooms/:id/route
func (h *RouteHandler) GetRoute(c *gin.Context) {
	route, err := h.routes.GetRoomRoute(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RouteResponse{
		Origin:          CoordinatesResponse{Lat: route.Origin.Lat, Lng: route.Origin.Lng},
		Destination:     CoordinatesResponse{Lat: route.Destination.Lat, Lng: route.Destination.Lng},
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		DurationMinutes: int(route.DurationSeconds/60 + 0.5),
		Polyline:        route.Polyline,
	})
}
