package geocoding

import (
	"context"
	"errors"
	"net/http"

	"github.com/UnknownOlympus/locus/internal/models"
)

// Provider is an interface that defines a method for geocoding free text.
// The Geocode method takes a context and a place description as input,
// and returns the coordinates of the highest ranked match.
// Implementations return ErrNoResults when nothing matched.
type Provider interface {
	Geocode(ctx context.Context, address string) (*models.Coordinates, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Provider level errors.
var (
	// ErrNoResults is returned when the provider answered with an empty result list.
	ErrNoResults = errors.New("geocoding provider returned no results")
	// ErrInvalidCoords is returned when the provider answered with unusable coordinates.
	ErrInvalidCoords = errors.New("geocoding provider returned invalid coordinates")
)
