package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ajespoo/RoutePlanner/internal/models"
	"github.com/ajespoo/RoutePlanner/internal/normalize"
	"github.com/ajespoo/RoutePlanner/internal/query"
	"github.com/ajespoo/RoutePlanner/internal/stops"
	"github.com/ajespoo/RoutePlanner/internal/upstream"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// DefaultTimeZone is the civil time zone of the HSL network
const DefaultTimeZone = "Europe/Helsinki"

// MinSearchQueryLength is the shortest accepted stop search query
const MinSearchQueryLength = 2

// Executor runs a GraphQL document upstream
type Executor interface {
	Execute(ctx context.Context, class upstream.CallClass, doc query.Document) (*upstream.RawResponse, error)
}

// Options configures an Adapter
type Options struct {
	Resolver stops.Resolver
	// Searcher serves stop search. When nil the resolver is used if it
	// implements stops.Searcher.
	Searcher        stops.Searcher
	Client          Executor
	TimeZone        string
	ResultLimit     int
	DefaultFromStop string
	DefaultToStop   string
	Logger          zerolog.Logger
}

// Request is an inbound planning request in its textual form
type Request struct {
	FromStop    string
	ToStop      string
	ArrivalTime string
}

// Adapter turns stop names and an arrival time into normalized itineraries
type Adapter struct {
	resolver    stops.Resolver
	searcher    stops.Searcher
	client      Executor
	zone        string
	location    *time.Location
	resultLimit int
	defaultFrom string
	defaultTo   string
	logger      zerolog.Logger
}

// New creates an adapter. Resolver and Client are required.
func New(opts Options) (*Adapter, error) {
	if opts.Resolver == nil {
		return nil, fmt.Errorf("planner: resolver is required")
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("planner: upstream client is required")
	}
	if opts.TimeZone == "" {
		opts.TimeZone = DefaultTimeZone
	}

	loc, err := time.LoadLocation(opts.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("planner: unknown time zone %q: %w", opts.TimeZone, err)
	}

	searcher := opts.Searcher
	if searcher == nil {
		searcher, _ = opts.Resolver.(stops.Searcher)
	}

	return &Adapter{
		resolver:    opts.Resolver,
		searcher:    searcher,
		client:      opts.Client,
		zone:        opts.TimeZone,
		location:    loc,
		resultLimit: query.ClampResultLimit(opts.ResultLimit),
		defaultFrom: strings.TrimSpace(opts.DefaultFromStop),
		defaultTo:   strings.TrimSpace(opts.DefaultToStop),
		logger:      opts.Logger.With().Str("component", "planner").Logger(),
	}, nil
}

// Location returns the zone arrival times are interpreted in
func (a *Adapter) Location() *time.Location {
	return a.location
}

// Plan runs one planning request. It never returns a Go error; every
// failure is folded into the result's error arm.
func (a *Adapter) Plan(ctx context.Context, req Request) models.PlanResult {
	start := time.Now()

	success, err := a.plan(ctx, req)
	if err != nil {
		planErr := Classify(err)
		event := a.logger.Warn()
		if planErr.ErrorCode == models.ErrInternal {
			event = a.logger.Error()
		}
		event.Err(err).
			Str("from", req.FromStop).
			Str("to", req.ToStop).
			Str("arrival_time", req.ArrivalTime).
			Str("error_code", string(planErr.ErrorCode)).
			Msg("Plan failed")
		return models.Failed(planErr)
	}

	a.logger.Info().
		Str("from", success.FromStop).
		Str("to", success.ToStop).
		Str("arrival", success.RequestedArrival).
		Int("itineraries", success.TotalCount).
		Str("latency", time.Since(start).String()).
		Msg("Plan complete")

	return models.Succeeded(success)
}

func (a *Adapter) plan(ctx context.Context, req Request) (*models.PlanSuccess, error) {
	from := firstNonEmpty(req.FromStop, a.defaultFrom)
	to := firstNonEmpty(req.ToStop, a.defaultTo)

	// A name with nothing left after sanitizing cannot be searched for
	if query.SanitizeLabel(from) == "" {
		return nil, missingParameter("from")
	}
	if query.SanitizeLabel(to) == "" {
		return nil, missingParameter("to")
	}
	if strings.TrimSpace(req.ArrivalTime) == "" {
		return nil, missingParameter("arrival_time")
	}

	arrival, err := ParseArrival(strings.TrimSpace(req.ArrivalTime), a.location)
	if err != nil {
		return nil, err
	}

	origin, destination, err := a.resolvePair(ctx, from, to)
	if err != nil {
		return nil, err
	}

	constraint := models.NewArrivalConstraint(arrival, a.zone)
	doc, err := query.BuildPlanQuery(origin, destination, constraint, a.resultLimit, query.Labels{
		Origin:      from,
		Destination: to,
	})
	if err != nil {
		return nil, err
	}

	raw, err := a.client.Execute(ctx, upstream.Plan, doc)
	if err != nil {
		return nil, err
	}

	return normalize.Normalize(raw, normalize.Request{
		FromStop:         from,
		ToStop:           to,
		RequestedArrival: arrival.Format(time.RFC3339),
	})
}

// resolvePair resolves both endpoints concurrently. The first failure
// cancels the sibling and both results are dropped; the returned error
// joins every failure so classification can pick the most specific one.
func (a *Adapter) resolvePair(ctx context.Context, from, to string) (models.Coordinate, models.Coordinate, error) {
	var origin, destination models.Coordinate

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		c, err := a.resolver.Resolve(ctx, from)
		if err != nil {
			return err
		}
		origin = c
		return nil
	})
	p.Go(func(ctx context.Context) error {
		c, err := a.resolver.Resolve(ctx, to)
		if err != nil {
			return err
		}
		destination = c
		return nil
	})

	if err := p.Wait(); err != nil {
		return models.Coordinate{}, models.Coordinate{}, err
	}

	return origin, destination, nil
}

// SearchStops lists stops matching q
func (a *Adapter) SearchStops(ctx context.Context, q string) (*models.StopSearchResult, *models.PlanError) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, Classify(missingParameter("q"))
	}
	if len([]rune(query.SanitizeLabel(q))) < MinSearchQueryLength {
		return nil, &models.PlanError{
			ErrorCode: models.ErrQueryTooShort,
			Message:   fmt.Sprintf("Search query must be at least %d characters", MinSearchQueryLength),
		}
	}
	if a.searcher == nil {
		return nil, Classify(fmt.Errorf("stop search is not available"))
	}

	found, err := a.searcher.Search(ctx, q)
	if err != nil {
		a.logger.Warn().Err(err).Str("query", q).Msg("Stop search failed")
		return nil, Classify(err)
	}

	return &models.StopSearchResult{
		Success: true,
		Query:   q,
		Stops:   found,
		Total:   len(found),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
