package geo

import (
	"math"

	"github.com/UnknownOlympus/locus/internal/models"
	"github.com/cespare/xxhash/v2"
	"github.com/golang/geo/s2"
)

// MaxOffsetDegrees is the radius of the disc a subject can be moved within (~500 m).
const MaxOffsetDegrees = 0.005

// Offset moves base by a displacement derived only from subjectID.
//
// The upper half of the subject hash selects the bearing and the lower half
// the distance in [0, MaxOffsetDegrees). The displacement is planar in degree
// space. Calling Offset with the same arguments always yields the same point.
// The result is not quantized; storage paths re-quantize it to StoragePrecision.
// Near a pole or the antimeridian the shifted point is normalized, so the
// displacement bound holds as a great-circle distance rather than per axis.
func Offset(subjectID string, base models.Coordinates) models.Coordinates {
	sum := xxhash.Sum64String(subjectID)

	angle := unitFraction(uint32(sum>>32)) * 2 * math.Pi
	distance := unitFraction(uint32(sum)) * MaxOffsetDegrees

	return normalize(models.Coordinates{
		Latitude:  base.Latitude + math.Cos(angle)*distance,
		Longitude: base.Longitude + math.Sin(angle)*distance,
	})
}

// normalize clamps the latitude and wraps the longitude of a point pushed
// past a pole or the antimeridian. Valid points are returned unchanged.
func normalize(c models.Coordinates) models.Coordinates {
	if c.Valid() {
		return c
	}

	ll := s2.LatLngFromDegrees(c.Latitude, c.Longitude).Normalized()

	return models.Coordinates{
		Latitude:  clamp(ll.Lat.Degrees(), -90, 90),
		Longitude: clamp(ll.Lng.Degrees(), -180, 180),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// unitFraction maps v uniformly onto [0, 1).
func unitFraction(v uint32) float64 {
	return float64(v) / (1 << 32)
}
