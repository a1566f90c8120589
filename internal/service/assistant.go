package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"google.golang.org/genai"

	"rideshare/internal/domain"
	"rideshare/internal/llm"
)

const maxQueryLength = 1000

var (
	extractPrompt = template.Must(template.New("extract").Parse(
		`You help students of VES college in Mumbai create shared auto-rickshaw rides.
Extract the ride details from the request below.
- name: a short title for the ride.
- startingPoint: where the ride starts.
- destination: where the ride ends.
- passengerLimit: total riders including the requester, between 2 and 4. Use 2 when not stated.

Request: {{.Query}}`))

	suggestPrompt = template.Must(template.New("suggest").Parse(
		`You help students in Mumbai share auto-rickshaw rides.
A student wants to travel from "{{.StartPoint}}" to "{{.Destination}}".
{{if .VehicleSecured}}They have already found an auto.{{else}}They have not found an auto yet.{{end}}
Suggest up to three practical routes as short descriptions, and up to five
popular destinations within 5 miles of "{{.Destination}}" where other
students might also be heading.`))

	summaryPrompt = template.Must(template.New("summary").Parse(
		`Write a one or two sentence summary of a shared ride for the students in it.
Destination: {{.Destination}}
Start time: {{.StartTime}}
Number of people: {{.People}}`))
)

var (
	extractSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":           {Type: genai.TypeString},
			"startingPoint":  {Type: genai.TypeString},
			"destination":    {Type: genai.TypeString},
			"passengerLimit": {Type: genai.TypeInteger},
		},
		Required: []string{"startingPoint", "destination"},
	}

	suggestSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"suggestedRoutes":    {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"nearbyDestinations": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"suggestedRoutes", "nearbyDestinations"},
	}

	summarySchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {Type: genai.TypeString},
		},
		Required: []string{"summary"},
	}
)

// AssistantService turns free text into room details and describes rooms
// using a hosted language model. It never writes stored data.
type AssistantService struct {
	generator llm.Generator
	rooms     RoomGetter
	metrics   *Metrics
	now       func() time.Time
}

// NewAssistantService creates a new AssistantService. generator may be nil,
// in which case every call returns ErrAssistantUnavailable.
func NewAssistantService(generator llm.Generator, rooms RoomGetter, metrics *Metrics) *AssistantService {
	return &AssistantService{
		generator: generator,
		rooms:     rooms,
		metrics:   metrics,
		now:       time.Now,
	}
}

// ExtractRoom parses a free-text ride request into room form fields.
func (s *AssistantService) ExtractRoom(ctx context.Context, query string) (*domain.ExtractedRoom, error) {
	result, err := s.extractRoom(ctx, query)
	s.metrics.assistantResult("extract", err)
	return result, err
}

func (s *AssistantService) extractRoom(ctx context.Context, query string) (*domain.ExtractedRoom, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if utf8.RuneCountInString(query) > maxQueryLength {
		return nil, ErrQueryTooLong
	}

	var out struct {
		Name           string `json:"name"`
		StartingPoint  string `json:"startingPoint"`
		Destination    string `json:"destination"`
		PassengerLimit int    `json:"passengerLimit"`
	}
	if err := s.generate(ctx, extractPrompt, map[string]any{"Query": query}, extractSchema, &out); err != nil {
		return nil, err
	}

	extracted := &domain.ExtractedRoom{
		Name:           strings.TrimSpace(out.Name),
		StartPoint:     strings.TrimSpace(out.StartingPoint),
		Destination:    strings.TrimSpace(out.Destination),
		PassengerLimit: clampPassengerLimit(out.PassengerLimit),
	}
	if extracted.Name == "" && extracted.Destination != "" {
		extracted.Name = "Ride to " + extracted.Destination
	}
	return extracted, nil
}

// clampPassengerLimit forces a model-supplied limit into the accepted range.
// Zero means the model did not find one.
func clampPassengerLimit(limit int) int {
	switch {
	case limit < domain.MinPassengerLimit:
		return domain.MinPassengerLimit
	case limit > domain.MaxPassengerLimit:
		return domain.MaxPassengerLimit
	default:
		return limit
	}
}

// SuggestRoutesRequest contains the parameters for route suggestions.
type SuggestRoutesRequest struct {
	StartPoint     string
	Destination    string
	VehicleSecured bool
}

// SuggestRoutes proposes routes and nearby destinations for a trip.
func (s *AssistantService) SuggestRoutes(ctx context.Context, req SuggestRoutesRequest) (*domain.RouteSuggestions, error) {
	result, err := s.suggestRoutes(ctx, req)
	s.metrics.assistantResult("suggest", err)
	return result, err
}

func (s *AssistantService) suggestRoutes(ctx context.Context, req SuggestRoutesRequest) (*domain.RouteSuggestions, error) {
	req.StartPoint = strings.TrimSpace(req.StartPoint)
	req.Destination = strings.TrimSpace(req.Destination)
	if req.StartPoint == "" {
		return nil, ErrInvalidStartPoint
	}
	if req.Destination == "" {
		return nil, ErrInvalidDestination
	}

	var out struct {
		SuggestedRoutes    []string `json:"suggestedRoutes"`
		NearbyDestinations []string `json:"nearbyDestinations"`
	}
	if err := s.generate(ctx, suggestPrompt, req, suggestSchema, &out); err != nil {
		return nil, err
	}

	return &domain.RouteSuggestions{
		SuggestedRoutes:    nonEmpty(out.SuggestedRoutes),
		NearbyDestinations: nonEmpty(out.NearbyDestinations),
	}, nil
}

// SummarizeRoom describes a room's destination, timing and head count.
func (s *AssistantService) SummarizeRoom(ctx context.Context, roomID string) (*domain.RoomSummary, error) {
	result, err := s.summarizeRoom(ctx, roomID)
	s.metrics.assistantResult("summary", err)
	return result, err
}

func (s *AssistantService) summarizeRoom(ctx context.Context, roomID string) (*domain.RoomSummary, error) {
	if s.generator == nil {
		return nil, ErrAssistantUnavailable
	}

	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	// The room leaves when it fills up or expires, whichever comes first.
	start := room.CreatedAt
	if !room.ExpiresAt.IsZero() {
		start = room.ExpiresAt
	}

	data := map[string]any{
		"Destination": room.Destination,
		"StartTime":   start.Format("Mon 02 Jan 15:04 MST"),
		"People":      room.Occupancy(),
	}

	var out struct {
		Summary string `json:"summary"`
	}
	if err := s.generate(ctx, summaryPrompt, data, summarySchema, &out); err != nil {
		return nil, err
	}

	summary := strings.TrimSpace(out.Summary)
	if summary == "" {
		return nil, fmt.Errorf("%w: empty summary", ErrAssistantFailed)
	}
	return &domain.RoomSummary{RoomID: room.ID, Summary: summary}, nil
}

func (s *AssistantService) generate(ctx context.Context, tmpl *template.Template, data any, schema *genai.Schema, out any) error {
	if s.generator == nil {
		return ErrAssistantUnavailable
	}

	var prompt strings.Builder
	if err := tmpl.Execute(&prompt, data); err != nil {
		return fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}

	if err := s.generator.GenerateJSON(ctx, prompt.String(), schema, out); err != nil {
		if errors.Is(err, llm.ErrUnavailable) {
			return ErrAssistantUnavailable
		}
		return fmt.Errorf("%w: %v", ErrAssistantFailed, err)
	}
	return nil
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
