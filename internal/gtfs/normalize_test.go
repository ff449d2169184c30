package gtfs

import (
	"math"
	"testing"

	"github.com/ajespoo/RoutePlanner/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestNameKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Already folded", input: "keilaniemi", expected: "keilaniemi"},
		{name: "Mixed case", input: "Aalto Yliopisto", expected: "aalto yliopisto"},
		{name: "Extra whitespace", input: "  KONE   Building\t", expected: "kone building"},
		{name: "Non-ASCII kept", input: "Töölön Tori", expected: "töölön tori"},
		{name: "Empty", input: "   ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NameKey(tt.input))
		})
	}
}

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name     string
		lat1     float64
		lon1     float64
		lat2     float64
		lon2     float64
		expected float64
		delta    float64
	}{
		{
			name:     "Zero distance",
			lat1:     60.1847,
			lon1:     24.82901,
			lat2:     60.1847,
			lon2:     24.82901,
			expected: 0,
			delta:    1,
		},
		{
			name:     "Approximately 1km",
			lat1:     60.1847,
			lon1:     24.82901,
			lat2:     60.1937,
			lon2:     24.82901,
			expected: 1000,
			delta:    100,
		},
		{
			name:     "Aalto to Keilaniemi",
			lat1:     60.1847,
			lon1:     24.82901,
			lat2:     60.175294,
			lon2:     24.684855,
			expected: 8000,
			delta:    500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := haversineDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.expected, result, tt.delta)
		})
	}
}

func TestValidateAndCleanStops(t *testing.T) {
	tests := []struct {
		name     string
		stops    []models.Stop
		expected int
	}{
		{
			name: "All valid stops",
			stops: []models.Stop{
				{GtfsID: "1", Latitude: 60.1, Longitude: 24.8},
				{GtfsID: "2", Latitude: 60.2, Longitude: 24.9},
			},
			expected: 2,
		},
		{
			name: "Filter invalid latitude",
			stops: []models.Stop{
				{GtfsID: "1", Latitude: 60.1, Longitude: 24.8},
				{GtfsID: "2", Latitude: 95.0, Longitude: 24.9},
			},
			expected: 1,
		},
		{
			name: "Filter null island",
			stops: []models.Stop{
				{GtfsID: "1", Latitude: 60.1, Longitude: 24.8},
				{GtfsID: "2", Latitude: 0.0, Longitude: 0.0},
			},
			expected: 1,
		},
		{
			name: "Filter invalid longitude",
			stops: []models.Stop{
				{GtfsID: "1", Latitude: 60.1, Longitude: 24.8},
				{GtfsID: "2", Latitude: 60.2, Longitude: 200.0},
			},
			expected: 1,
		},
		{
			name: "Filter non-finite coordinates",
			stops: []models.Stop{
				{GtfsID: "1", Latitude: 60.1, Longitude: 24.8},
				{GtfsID: "2", Latitude: math.NaN(), Longitude: 24.9},
				{GtfsID: "3", Latitude: 60.2, Longitude: math.Inf(1)},
			},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateAndCleanStops(tt.stops)
			assert.Equal(t, tt.expected, len(result))
		})
	}
}

func TestDeduplicateByName(t *testing.T) {
	stops := []models.Stop{
		{GtfsID: "HSL:2222603", Name: "Aalto-yliopisto", Latitude: 60.1847, Longitude: 24.82901},
		{GtfsID: "HSL:2222604", Name: "aalto-yliopisto", Latitude: 60.1848, Longitude: 24.82911},
		{GtfsID: "HSL:1000001", Name: "Asema", Latitude: 60.17, Longitude: 24.94},
		{GtfsID: "HSL:9000001", Name: "Asema", Latitude: 60.40, Longitude: 25.10},
		{GtfsID: "HSL:2211601", Name: "Keilaniemi", Latitude: 60.175294, Longitude: 24.684855},
	}

	kept, ambiguous := DeduplicateByName(stops, 500)

	assert.Len(t, kept, 3)
	assert.Equal(t, "HSL:2222603", kept[0].GtfsID)
	assert.Equal(t, "HSL:1000001", kept[1].GtfsID)
	assert.Equal(t, "HSL:2211601", kept[2].GtfsID)
	assert.Equal(t, []string{"Asema"}, ambiguous)
}
