package models

import "math"

// Coordinates represents a geographical point defined by its latitude and longitude in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"lat"` // Latitude of the geographical point.
	Longitude float64 `json:"lng"` // Longitude of the geographical point.
}

// Valid reports whether the point is finite and inside the latitude/longitude ranges.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) ||
		math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return false
	}

	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Candidate is a subject considered by a proximity query.
// A nil Coordinates marks a record that has not been located yet.
type Candidate struct {
	ID          string
	Coordinates *Coordinates
}

// Group holds the subjects that share one exact coordinate, in input order.
type Group struct {
	Coordinates Coordinates
	IDs         []string
}

// Marker is a render-ready position for a single subject.
type Marker struct {
	ID       string      `json:"id"`
	Position Coordinates `json:"position"`
}
