package geo

import (
	"math"

	"github.com/UnknownOlympus/locus/internal/models"
)

// Precision policy for stored coordinates.
const (
	// GeocodePrecision is the number of decimals kept from a provider result (~111 m).
	GeocodePrecision = 3
	// StoragePrecision is the number of decimals kept after the per-subject offset (~11 m).
	StoragePrecision = 4
)

// Quantize rounds both axes of c to the given number of decimal places.
// Halves are rounded away from zero. The result differs from c by at most
// 0.5 * 10^-decimals on each axis.
func Quantize(c models.Coordinates, decimals int) models.Coordinates {
	return models.Coordinates{
		Latitude:  round(c.Latitude, decimals),
		Longitude: round(c.Longitude, decimals),
	}
}

func round(value float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(value*scale) / scale
}
