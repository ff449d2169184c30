package db

import (
	"context"
	"fmt"

	"github.com/ajespoo/RoutePlanner/internal/models"
	"github.com/jackc/pgx/v5"
)

// Querier is the subset of *pgx.Conn used by the stop loader
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const selectStops = `
	SELECT stop_id, stop_name, COALESCE(stop_code, ''), stop_lat, stop_lon, COALESCE(zone_id, '')
	FROM stop
	WHERE stop_name IS NOT NULL AND stop_name <> ''
	ORDER BY stop_id`

// LoadStops reads every named stop from the stop table
func LoadStops(ctx context.Context, q Querier) ([]models.Stop, error) {
	rows, err := q.Query(ctx, selectStops)
	if err != nil {
		return nil, fmt.Errorf("failed to query stops: %w", err)
	}
	defer rows.Close()

	var stops []models.Stop
	for rows.Next() {
		var s models.Stop
		if err := rows.Scan(&s.GtfsID, &s.Name, &s.Code, &s.Latitude, &s.Longitude, &s.ZoneID); err != nil {
			return nil, fmt.Errorf("failed to scan stop: %w", err)
		}
		stops = append(stops, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stops: %w", err)
	}

	return stops, nil
}
