package stops

import (
	"context"
	"fmt"

	"github.com/ajespoo/RoutePlanner/internal/db"
	"github.com/ajespoo/RoutePlanner/internal/gtfs"
	"github.com/ajespoo/RoutePlanner/internal/models"
	"github.com/rs/zerolog"
)

// ambiguityMeters flags feed names used by stops further apart than this
const ambiguityMeters = 1000

// TableSources lists where static stops come from. Later sources override
// earlier ones by name: built-in, Static, GTFSPath, then Database.
type TableSources struct {
	Static   []models.Stop
	GTFSPath string
	Database db.Querier
}

// LoadTable assembles the static stop table
func LoadTable(ctx context.Context, src TableSources, logger zerolog.Logger) (Table, error) {
	table := BuiltinTable()
	table.Add(src.Static...)

	if src.GTFSPath != "" {
		feedStops, err := gtfs.LoadStops(src.GTFSPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load GTFS stops from %s: %w", src.GTFSPath, err)
		}
		added := addCleaned(table, feedStops)
		logger.Info().Str("path", src.GTFSPath).Int("stops", added).Msg("Loaded GTFS stops")
	}

	if src.Database != nil {
		dbStops, err := db.LoadStops(ctx, src.Database)
		if err != nil {
			return nil, err
		}
		added := addCleaned(table, dbStops)
		logger.Info().Int("stops", added).Msg("Loaded database stops")
	}

	return table, nil
}

func addCleaned(table Table, stops []models.Stop) int {
	kept, _ := gtfs.DeduplicateByName(gtfs.ValidateAndCleanStops(stops), ambiguityMeters)
	table.Add(kept...)
	return len(kept)
}
