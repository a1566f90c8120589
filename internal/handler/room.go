package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rideshare/internal/domain"
	"rideshare/internal/middleware"
	"rideshare/internal/service"
)

// RoomHandler handles HTTP requests for rooms.
type RoomHandler struct {
	rooms     *service.RoomService
	discovery *service.DiscoveryService
}

// NewRoomHandler creates a new RoomHandler.
func NewRoomHandler(rooms *service.RoomService, discovery *service.DiscoveryService) *RoomHandler {
	return &RoomHandler{
		rooms:     rooms,
		discovery: discovery,
	}
}

// CreateRoomRequest is the HTTP request body for creating a room.
type CreateRoomRequest struct {
	Name             string `json:"name"`
	StartPoint       string `json:"start_point"`
	Destination      string `json:"destination"`
	PassengerLimit   int    `json:"passenger_limit"`
	VehicleSecured   bool   `json:"vehicle_secured"`
	ExpiresInMinutes int    `json:"expires_in_minutes,omitempty"`
}

// CreateRoom handles POST /v1/rooms
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), service.CreateRoomRequest{
		OwnerID:          middleware.UserID(c),
		Name:             req.Name,
		StartPoint:       req.StartPoint,
		Destination:      req.Destination,
		PassengerLimit:   req.PassengerLimit,
		VehicleSecured:   req.VehicleSecured,
		ExpiresInMinutes: req.ExpiresInMinutes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRoomResponse(room, time.Now()))
}

// GetRoom handles GET /v1/rooms/:id
func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.rooms.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRoomResponse(room, time.Now()))
}

// ListRooms handles GET /v1/rooms?start=&destination=&available=&limit=
func (h *RoomHandler) ListRooms(c *gin.Context) {
	available, err := queryBool(c, "available", true)
	if err != nil {
		badRequest(c, "available must be true or false")
		return
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		badRequest(c, "limit must be an integer")
		return
	}

	rooms, err := h.discovery.SearchRooms(c.Request.Context(), service.SearchRoomsRequest{
		StartPrefix:       c.Query("start"),
		DestinationPrefix: c.Query("destination"),
		OnlyAvailable:     available,
		Limit:             limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRoomResponses(rooms, time.Now()))
}

// NearbyRooms handles GET /v1/rooms/nearby?lat=&lng=&radius_km=&available=
func (h *RoomHandler) NearbyRooms(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		badRequest(c, "lat and lng are required")
		return
	}
	radius, err := queryFloat(c, "radius_km", 0)
	if err != nil {
		badRequest(c, "radius_km must be a number")
		return
	}
	available, err := queryBool(c, "available", true)
	if err != nil {
		badRequest(c, "available must be true or false")
		return
	}

	nearby, err := h.discovery.NearbyRooms(c.Request.Context(), service.NearbyRoomsRequest{
		Lat:           lat,
		Lng:           lng,
		RadiusKm:      radius,
		OnlyAvailable: available,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	response := make([]RoomResponse, 0, len(nearby))
	for _, n := range nearby {
		r := toRoomResponse(n.Room, now)
		distance := n.DistanceKm
		r.DistanceKm = &distance
		response = append(response, r)
	}
	respondJSON(c, http.StatusOK, response)
}

// MyRooms handles GET /v1/rooms/mine
func (h *RoomHandler) MyRooms(c *gin.Context) {
	rooms, err := h.discovery.MyRooms(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRoomResponses(rooms, time.Now()))
}

// Participants handles GET /v1/rooms/:id/participants
func (h *RoomHandler) Participants(c *gin.Context) {
	users, err := h.rooms.ListParticipants(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, toUserResponse(u))
	}
	respondJSON(c, http.StatusOK, response)
}

// JoinRoom handles POST /v1/rooms/:id/join
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	h.mutate(c, h.rooms.JoinRoom)
}

// LeaveRoom handles POST /v1/rooms/:id/leave
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	h.mutate(c, h.rooms.LeaveRoom)
}

// CompleteRoom handles POST /v1/rooms/:id/complete
func (h *RoomHandler) CompleteRoom(c *gin.Context) {
	h.mutate(c, h.rooms.CompleteRoom)
}

// CancelRoom handles POST /v1/rooms/:id/cancel
func (h *RoomHandler) CancelRoom(c *gin.Context) {
	h.mutate(c, h.rooms.CancelRoom)
}

type roomMutation func(ctx context.Context, roomID, userID string) (*domain.Room, error)

func (h *RoomHandler) mutate(c *gin.Context, fn roomMutation) {
	room, err := fn(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRoomResponse(room, time.Now()))
}

func queryBool(c *gin.Context, key string, def bool) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseBool(raw)
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func queryFloat(c *gin.Context, key string, def float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseFloat(raw, 64)
}
