package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ajespoo/RoutePlanner/internal/models"
	"github.com/rs/zerolog/log"
)

const stopsFile = "stops.txt"

// LoadStops reads stops from a GTFS feed ZIP or a bare stops.txt
func LoadStops(path string) ([]models.Stop, error) {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return loadStopsFromZip(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseStops(file)
}

func loadStopsFromZip(zipPath string) ([]models.Stop, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.FileInfo().IsDir() || filepath.Base(file.Name) != stopsFile {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		return ParseStops(rc)
	}

	return nil, fmt.Errorf("feed %s has no %s", zipPath, stopsFile)
}

// ParseStops parses the contents of stops.txt.
// Entrances, generic nodes and boarding areas are skipped.
func ParseStops(reader io.Reader) ([]models.Stop, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colMap := makeColumnMap(header)
	if _, ok := colMap["stop_id"]; !ok {
		return nil, fmt.Errorf("stops header has no stop_id column")
	}

	var stops []models.Stop

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Msg("Skipping malformed stop row")
			continue
		}

		switch getField(record, colMap, "location_type") {
		case "", "0", "1":
		default:
			continue
		}

		stopID := getField(record, colMap, "stop_id")
		stopName := getField(record, colMap, "stop_name")
		latStr := getField(record, colMap, "stop_lat")
		lonStr := getField(record, colMap, "stop_lon")

		if stopID == "" || stopName == "" || latStr == "" || lonStr == "" {
			log.Debug().Str("stop_id", stopID).Msg("Skipping stop with missing required fields")
			continue
		}

		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			log.Warn().Str("stop_id", stopID).Err(err).Msg("Invalid stop latitude")
			continue
		}

		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			log.Warn().Str("stop_id", stopID).Err(err).Msg("Invalid stop longitude")
			continue
		}

		stops = append(stops, models.Stop{
			GtfsID:    stopID,
			Name:      stopName,
			Code:      getField(record, colMap, "stop_code"),
			Latitude:  lat,
			Longitude: lon,
			ZoneID:    getField(record, colMap, "zone_id"),
		})
	}

	return stops, nil
}

// Helper functions

func makeColumnMap(header []string) map[string]int {
	colMap := make(map[string]int)
	for i, col := range header {
		// stops.txt exports often start with a UTF-8 BOM
		colMap[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}
	return colMap
}

func getField(record []string, colMap map[string]int, fieldName string) string {
	if idx, ok := colMap[fieldName]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
