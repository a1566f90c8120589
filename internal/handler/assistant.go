package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideshare/internal/service"
)

// AssistantHandler handles the language model helpers.
type AssistantHandler struct {
	assistant *service.AssistantService
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(assistant *service.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

// ExtractRequest is the HTTP request body for room extraction.
type ExtractRequest struct {
	Query string `json:"query"`
}

// ExtractResponse holds the extracted room form fields.
type ExtractResponse struct {
	Name           string `json:"name"`
	StartPoint     string `json:"start_point"`
	Destination    string `json:"destination"`
	PassengerLimit int    `json:"passenger_limit"`
}

// SuggestRequest is the HTTP request body for route suggestions.
type SuggestRequest struct {
	StartPoint     string `json:"start_point"`
	Destination    string `json:"destination"`
	VehicleSecured bool   `json:"vehicle_secured"`
}

// SuggestResponse holds route suggestions.
type SuggestResponse struct {
	SuggestedRoutes    []string `json:"suggested_routes"`
	NearbyDestinations []string `json:"nearby_destinations"`
}

// SummaryResponse holds a room summary.
type SummaryResponse struct {
	RoomID  string `json:"room_id"`
	Summary string `json:"summary"`
}

// Extract handles POST /v1/assistant/extract
func (h *AssistantHandler) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	extracted, err := h.assistant.ExtractRoom(c.Request.Context(), req.Query)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ExtractResponse{
		Name:           extracted.Name,
		StartPoint:     extracted.StartPoint,
		Destination:    extracted.Destination,
		PassengerLimit: extracted.PassengerLimit,
	})
}

// Suggest handles POST /v1/assistant/suggestions
func (h *AssistantHandler) Suggest(c *gin.Context) {
	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	suggestions, err := h.assistant.SuggestRoutes(c.Request.Context(), service.SuggestRoutesRequest{
		StartPoint:     req.StartPoint,
		Destination:    req.Destination,
		VehicleSecured: req.VehicleSecured,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, SuggestResponse{
		SuggestedRoutes:    suggestions.SuggestedRoutes,
		NearbyDestinations: suggestions.NearbyDestinations,
	})
}

// Summary handles GET /v1/rooms/:id/summary
func (h *AssistantHandler) Summary(c *gin.Context) {
	summary, err := h.assistant.SummarizeRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, SummaryResponse{
		RoomID:  summary.RoomID,
		Summary: summary.Summary,
	})
}
