package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/ajespoo/RoutePlanner/internal/models"
)

const (
	// DefaultResultLimit is used when the caller does not ask for a count
	DefaultResultLimit = 5
	// MaxResultLimit caps how many itineraries are ever requested upstream
	MaxResultLimit = 10

	maxLabelRunes = 100
)

// Document is a GraphQL query document ready to be posted upstream
type Document string

// Labels are the human-readable names attached to origin and destination
type Labels struct {
	Origin      string
	Destination string
}

// ClampResultLimit bounds the itinerary count to [1, MaxResultLimit]
func ClampResultLimit(limit int) int {
	if limit <= 0 {
		return DefaultResultLimit
	}
	if limit > MaxResultLimit {
		return MaxResultLimit
	}
	return limit
}

// SanitizeLabel strips characters that could break out of a GraphQL string
// literal and truncates the label.
func SanitizeLabel(label string) string {
	var b strings.Builder
	n := 0
	for _, r := range label {
		if n >= maxLabelRunes {
			break
		}
		switch r {
		case '"', '\\', '{', '}':
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		n++
	}
	return strings.TrimSpace(b.String())
}

// formatFloat renders a coordinate as a plain numeric literal
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// BuildPlanQuery builds the planConnection query for a latest-arrival search.
// The selection set is what the normalizer reads; keep the two in step.
func BuildPlanQuery(origin, destination models.Coordinate, constraint models.ArrivalConstraint, resultLimit int, labels Labels) (Document, error) {
	if err := origin.Validate(); err != nil {
		return "", fmt.Errorf("invalid origin: %w", err)
	}
	if err := destination.Validate(); err != nil {
		return "", fmt.Errorf("invalid destination: %w", err)
	}

	arrival, err := constraint.Instant()
	if err != nil {
		return "", err
	}

	doc := fmt.Sprintf(planTemplate,
		formatFloat(origin.Latitude), formatFloat(origin.Longitude), SanitizeLabel(labels.Origin),
		formatFloat(destination.Latitude), formatFloat(destination.Longitude), SanitizeLabel(labels.Destination),
		ClampResultLimit(resultLimit),
		arrival.Format(time.RFC3339),
	)

	return Document(doc), nil
}

// BuildStopSearchQuery builds the stop name search query
func BuildStopSearchQuery(name string) (Document, error) {
	clean := SanitizeLabel(name)
	if clean == "" {
		return "", fmt.Errorf("stop name is empty after sanitizing")
	}

	return Document(fmt.Sprintf(stopSearchTemplate, clean)), nil
}

const stopSearchTemplate = `{
  stops(name: "%s") {
    gtfsId
    name
    code
    lat
    lon
    zoneId
  }
}`

const planTemplate = `{
  planConnection(
    origin: {location: {coordinate: {latitude: %s, longitude: %s}}, label: "%s"}
    destination: {location: {coordinate: {latitude: %s, longitude: %s}}, label: "%s"}
    first: %d
    dateTime: {latestArrival: "%s"}
  ) {
    edges {
      node {
        start
        end
        duration
        legs {
          mode
          duration
          distance
          from {
            name
            lat
            lon
            stop {
              gtfsId
              code
            }
          }
          to {
            name
            lat
            lon
            stop {
              gtfsId
              code
            }
          }
          start {
            scheduledTime
            estimated {
              time
            }
          }
          end {
            scheduledTime
            estimated {
              time
            }
          }
          route {
            gtfsId
            shortName
            longName
            mode
          }
          trip {
            gtfsId
            tripHeadsign
          }
          realTime
          realtimeState
          intermediateStops {
            gtfsId
            name
          }
        }
        emissionsPerPerson {
          co2
        }
      }
    }
  }
}`
