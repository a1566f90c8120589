package domain

// Route is a driving route between a room's start point and destination.
type Route struct {
	Origin          Coordinates
	Destination     Coordinates
	DistanceMeters  float64
	DurationSeconds float64
	Polyline        string // Encoded polyline, precision 5.
}
