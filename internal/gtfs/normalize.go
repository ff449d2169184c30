package gtfs

import (
	"math"
	"strings"

	"github.com/ajespoo/RoutePlanner/internal/models"
	"github.com/rs/zerolog/log"
)

// NameKey folds a stop name for table lookups: case-insensitive, with runs
// of whitespace collapsed.
func NameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// ValidateAndCleanStops removes stops with invalid coordinates
func ValidateAndCleanStops(stops []models.Stop) []models.Stop {
	cleaned := []models.Stop{}

	for _, stop := range stops {
		if err := stop.Coordinate().Validate(); err != nil {
			log.Warn().Str("stop_id", stop.GtfsID).Err(err).Msg("Dropping stop")
			continue
		}
		if stop.Latitude == 0 && stop.Longitude == 0 {
			log.Warn().Str("stop_id", stop.GtfsID).Msg("Dropping stop with null island coordinates")
			continue
		}

		cleaned = append(cleaned, stop)
	}

	if len(cleaned) < len(stops) {
		log.Info().Int("removed", len(stops)-len(cleaned)).Msg("Cleaned stops")
	}

	return cleaned
}

// DeduplicateByName keeps the first stop for every name, in feed order.
// Names whose later stops lie further than ambiguityMeters from the kept
// one are returned as ambiguous; a lookup by such a name may land on the
// wrong side of the network.
func DeduplicateByName(stops []models.Stop, ambiguityMeters float64) ([]models.Stop, []string) {
	kept := []models.Stop{}
	index := make(map[string]int)
	flagged := make(map[string]bool)
	var ambiguous []string

	for _, stop := range stops {
		key := NameKey(stop.Name)
		i, seen := index[key]
		if !seen {
			index[key] = len(kept)
			kept = append(kept, stop)
			continue
		}

		first := kept[i]
		distance := haversineDistance(first.Latitude, first.Longitude, stop.Latitude, stop.Longitude)
		if distance > ambiguityMeters && !flagged[key] {
			flagged[key] = true
			ambiguous = append(ambiguous, first.Name)
			log.Debug().
				Str("name", first.Name).
				Str("kept", first.GtfsID).
				Str("other", stop.GtfsID).
				Float64("distance_m", distance).
				Msg("Ambiguous stop name")
		}
	}

	log.Info().
		Int("stops", len(stops)).
		Int("names", len(kept)).
		Int("ambiguous", len(ambiguous)).
		Msg("Deduplicated stops by name")

	return kept, ambiguous
}

// haversineDistance calculates the distance between two points in meters
func haversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000 // meters

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}
