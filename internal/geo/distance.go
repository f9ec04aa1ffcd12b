package geo

import (
	"math"

	"github.com/UnknownOlympus/locus/internal/models"
)

// EarthRadiusMiles is the sphere radius used for every distance in the directory.
const EarthRadiusMiles = 3959.0

// Distance returns the haversine great-circle distance between a and b in miles.
// The result does not depend on the order of the arguments.
func Distance(a, b models.Coordinates) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLng := toRadians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	cosProduct := math.Cos(toRadians(a.Latitude)) * math.Cos(toRadians(b.Latitude))

	h := math.Min(1, sinLat*sinLat+cosProduct*sinLng*sinLng)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMiles * c
}

// WithinRadius keeps the candidates whose distance to reference is at most radiusMiles.
// Candidates without a valid coordinate are dropped. Input order is preserved.
func WithinRadius(reference models.Coordinates, radiusMiles float64, candidates []models.Candidate) []models.Candidate {
	result := make([]models.Candidate, 0, len(candidates))
	if math.IsNaN(radiusMiles) || radiusMiles < 0 {
		return result
	}

	for _, candidate := range candidates {
		if !Located(candidate) {
			continue
		}
		if Distance(reference, *candidate.Coordinates) <= radiusMiles {
			result = append(result, candidate)
		}
	}

	return result
}

// Located reports whether the candidate carries a usable coordinate.
func Located(candidate models.Candidate) bool {
	return candidate.Coordinates != nil && candidate.Coordinates.Valid()
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
