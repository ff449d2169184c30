package stops

import (
	"context"

	"github.com/ajespoo/RoutePlanner/internal/models"
	"github.com/rs/zerolog"
)

// Lookuper returns the single stop chosen for a name
type Lookuper interface {
	Lookup(ctx context.Context, name string) (models.Stop, error)
	Search(ctx context.Context, name string) ([]models.Stop, error)
}

// StopStore is a name keyed stop cache. GetStop returns nil, nil on a miss.
type StopStore interface {
	GetStop(ctx context.Context, name string) (*models.Stop, error)
	SetStop(ctx context.Context, name string, stop models.Stop) error
}

// CachedResolver remembers successful lookups. Cache errors fall through to
// the wrapped resolver and not-found results are never stored.
type CachedResolver struct {
	next   Lookuper
	store  StopStore
	logger zerolog.Logger
}

// NewCachedResolver wraps next with store
func NewCachedResolver(next Lookuper, store StopStore, logger zerolog.Logger) *CachedResolver {
	return &CachedResolver{
		next:   next,
		store:  store,
		logger: logger.With().Str("component", "stop_cache").Logger(),
	}
}

// Resolve returns the cached coordinate for name, looking it up on a miss
func (r *CachedResolver) Resolve(ctx context.Context, name string) (models.Coordinate, error) {
	cached, err := r.store.GetStop(ctx, name)
	if err != nil {
		r.logger.Warn().Err(err).Str("name", name).Msg("Stop cache read failed")
	} else if cached != nil {
		return cached.Coordinate(), nil
	}

	stop, err := r.next.Lookup(ctx, name)
	if err != nil {
		return models.Coordinate{}, err
	}

	if err := r.store.SetStop(ctx, name, stop); err != nil {
		r.logger.Warn().Err(err).Str("name", name).Msg("Stop cache write failed")
	}

	return stop.Coordinate(), nil
}

// Search is not cached
func (r *CachedResolver) Search(ctx context.Context, name string) ([]models.Stop, error) {
	return r.next.Search(ctx, name)
}
