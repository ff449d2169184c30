package stops

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ajespoo/RoutePlanner/internal/models"
	"github.com/ajespoo/RoutePlanner/internal/query"
	"github.com/ajespoo/RoutePlanner/internal/upstream"
	"github.com/rs/zerolog"
)

// Executor runs a GraphQL document upstream
type Executor interface {
	Execute(ctx context.Context, class upstream.CallClass, doc query.Document) (*upstream.RawResponse, error)
}

type searchData struct {
	Stops []struct {
		GtfsID *string  `json:"gtfsId"`
		Name   *string  `json:"name"`
		Code   *string  `json:"code"`
		Lat    *float64 `json:"lat"`
		Lon    *float64 `json:"lon"`
		ZoneID *string  `json:"zoneId"`
	} `json:"stops"`
}

// LiveSearchResolver looks stops up by name against the routing service.
// Candidates are used in upstream order and the first one wins; stops that
// share a name are not disambiguated.
type LiveSearchResolver struct {
	exec   Executor
	logger zerolog.Logger
}

// NewLiveSearchResolver creates a resolver backed by upstream stop search
func NewLiveSearchResolver(exec Executor, logger zerolog.Logger) *LiveSearchResolver {
	return &LiveSearchResolver{
		exec:   exec,
		logger: logger.With().Str("component", "live_resolver").Logger(),
	}
}

// Search returns every candidate with a position, in upstream order
func (r *LiveSearchResolver) Search(ctx context.Context, name string) ([]models.Stop, error) {
	doc, err := query.BuildStopSearchQuery(name)
	if err != nil {
		return nil, err
	}

	raw, err := r.exec.Execute(ctx, upstream.StopSearch, doc)
	if err != nil {
		return nil, err
	}
	if err := raw.Err(); err != nil {
		return nil, err
	}

	var data searchData
	if len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode stop search data: %w", err)
		}
	}

	stops := make([]models.Stop, 0, len(data.Stops))
	for _, s := range data.Stops {
		if s.Lat == nil || s.Lon == nil {
			continue
		}
		stops = append(stops, models.Stop{
			GtfsID:    deref(s.GtfsID),
			Name:      deref(s.Name),
			Code:      deref(s.Code),
			Latitude:  *s.Lat,
			Longitude: *s.Lon,
			ZoneID:    deref(s.ZoneID),
		})
	}

	return stops, nil
}

// Lookup returns the first candidate for name
func (r *LiveSearchResolver) Lookup(ctx context.Context, name string) (models.Stop, error) {
	candidates, err := r.Search(ctx, name)
	if err != nil {
		return models.Stop{}, err
	}
	if len(candidates) == 0 {
		return models.Stop{}, &NotFoundError{Name: name}
	}

	if len(candidates) > 1 {
		r.logger.Debug().
			Str("name", name).
			Int("candidates", len(candidates)).
			Str("picked", candidates[0].GtfsID).
			Msg("Multiple stops matched, using first")
	}

	return candidates[0], nil
}

// Resolve returns the coordinate of the first candidate for name
func (r *LiveSearchResolver) Resolve(ctx context.Context, name string) (models.Coordinate, error) {
	stop, err := r.Lookup(ctx, name)
	if err != nil {
		return models.Coordinate{}, err
	}
	return stop.Coordinate(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
