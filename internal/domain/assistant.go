package domain

// ExtractedRoom holds room form fields parsed from free text.
type ExtractedRoom struct {
	Name           string
	StartPoint     string
	Destination    string
	PassengerLimit int
}

// RouteSuggestions holds assistant suggestions for a start/destination pair.
type RouteSuggestions struct {
	SuggestedRoutes    []string
	NearbyDestinations []string
}

// RoomSummary is a short natural-language description of a room.
type RoomSummary struct {
	RoomID  string
	Summary string
}
