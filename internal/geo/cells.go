package geo

import (
	"math"

	"github.com/TomiHiltunen/geohash-golang"
	"github.com/UnknownOlympus/locus/internal/models"
)

// maxCoverPrecision is the finest geohash precision CoveringPrefixes picks (~3 mi cells).
const maxCoverPrecision = 5

// milesPerDegree is the length of one degree of arc on a great circle.
const milesPerDegree = EarthRadiusMiles * math.Pi / 180

// CoveringPrefixes returns geohash prefixes whose cells together contain every
// point within radiusMiles of reference: the cell holding reference plus its
// eight neighbours, at the finest precision whose cells are at least as large
// as the radius in both directions. All prefixes share one length.
//
// A nil result means no prefix set can cover the circle, either because the
// radius is wider than a precision-1 cell or because the neighbourhood crosses
// a pole or the antimeridian. Callers then fall back to an unfiltered scan.
func CoveringPrefixes(reference models.Coordinates, radiusMiles float64) []string {
	if !reference.Valid() || math.IsNaN(radiusMiles) || radiusMiles < 0 {
		return nil
	}

	latReach := radiusMiles / milesPerDegree
	edgeLat := math.Abs(reference.Latitude) + latReach
	if edgeLat >= 90 {
		return nil
	}
	lngReach := latReach / math.Cos(toRadians(edgeLat))

	for precision := maxCoverPrecision; precision >= 1; precision-- {
		latSpan, lngSpan := cellSpan(precision)
		if latReach >= latSpan || lngReach >= lngSpan {
			continue
		}

		hash := geohash.EncodeWithPrecision(reference.Latitude, reference.Longitude, precision)
		box := geohash.Decode(hash)
		sw, ne := box.SouthWest(), box.NorthEast()
		if sw.Lat()-latSpan < -90 || ne.Lat()+latSpan > 90 ||
			sw.Lng()-lngSpan < -180 || ne.Lng()+lngSpan > 180 {
			return nil
		}

		return append([]string{hash}, geohash.CalculateAllAdjacent(hash)...)
	}

	return nil
}

// cellSpan returns the height and width in degrees of a geohash cell.
// Bits alternate starting with longitude, so odd precisions get the extra one.
func cellSpan(precision int) (float64, float64) {
	bits := 5 * precision
	latBits := bits / 2
	lngBits := bits - latBits

	return 180 / math.Exp2(float64(latBits)), 360 / math.Exp2(float64(lngBits))
}
