package geo

import (
	"math"

	"github.com/UnknownOlympus/locus/internal/models"
)

// SpreadRadiusDegrees is the radius of the ring coincident markers are placed on (~100 m).
const SpreadRadiusDegrees = 0.001

// GroupByCoordinates groups located candidates by their exact coordinate.
// Groups appear in the order of their first member and members keep input order.
func GroupByCoordinates(candidates []models.Candidate) []models.Group {
	index := make(map[models.Coordinates]int)
	groups := make([]models.Group, 0, len(candidates))

	for _, candidate := range candidates {
		if !Located(candidate) {
			continue
		}

		key := *candidate.Coordinates
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, models.Group{Coordinates: key})
		}
		groups[pos].IDs = append(groups[pos].IDs, candidate.ID)
	}

	return groups
}

// Spread assigns every subject a render position. A single subject keeps the
// group coordinate; N > 1 subjects are placed evenly on a ring of
// SpreadRadiusDegrees around it, the i-th one at bearing 2*pi*i/N. Ring
// positions pushed past a pole or the antimeridian are clamped and wrapped.
func Spread(groups []models.Group) []models.Marker {
	var markers []models.Marker

	for _, group := range groups {
		total := len(group.IDs)
		for i, id := range group.IDs {
			markers = append(markers, models.Marker{
				ID:       id,
				Position: ringPosition(group.Coordinates, i, total),
			})
		}
	}

	return markers
}

func ringPosition(center models.Coordinates, index, total int) models.Coordinates {
	if total == 1 {
		return center
	}

	angle := 2 * math.Pi * float64(index) / float64(total)

	return normalize(models.Coordinates{
		Latitude:  center.Latitude + SpreadRadiusDegrees*math.Cos(angle),
		Longitude: center.Longitude + SpreadRadiusDegrees*math.Sin(angle),
	})
}
