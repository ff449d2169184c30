package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ajespoo/RoutePlanner/internal/api"
	"github.com/ajespoo/RoutePlanner/internal/cache"
	"github.com/ajespoo/RoutePlanner/internal/config"
	"github.com/ajespoo/RoutePlanner/internal/db"
	"github.com/ajespoo/RoutePlanner/internal/middleware"
	"github.com/ajespoo/RoutePlanner/internal/planner"
	"github.com/ajespoo/RoutePlanner/internal/secrets"
	"github.com/ajespoo/RoutePlanner/internal/stops"
	"github.com/ajespoo/RoutePlanner/internal/upstream"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Service holds everything built from a Config
type Service struct {
	Adapter     *planner.Adapter
	Checks      map[string]api.HealthCheck
	RateLimiter fiber.Handler

	usesRedis bool
}

// SetupLogging configures the global logger from LOG_FORMAT and LOG_LEVEL
func SetupLogging() {
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "console") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	level, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// Build wires the adapter and its collaborators
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Service, error) {
	svc := &Service{Checks: map[string]api.HealthCheck{}}

	client := upstream.NewClient(upstream.Options{
		BaseURL:           cfg.Upstream.BaseURL,
		Keys:              apiKeys(ctx, cfg, logger),
		StopSearchTimeout: cfg.Upstream.StopSearchTimeout,
		PlanTimeout:       cfg.Upstream.PlanTimeout,
		Logger:            logger,
	})

	var rdb *redis.Client
	if cfg.Cache.Enabled || cfg.RateLimit.Enabled {
		var err error
		rdb, err = cache.GetClient()
		if err != nil {
			return nil, err
		}
		svc.usesRedis = true
		svc.Checks["redis"] = cache.HealthCheck
		logger.Info().Msg("Redis connection established")
	}

	resolver, err := svc.buildResolver(ctx, cfg, client, rdb, logger)
	if err != nil {
		svc.Close()
		return nil, err
	}

	adapter, err := planner.New(planner.Options{
		Resolver:        resolver,
		Client:          client,
		TimeZone:        cfg.Planner.TimeZone,
		ResultLimit:     cfg.Upstream.ResultLimit,
		DefaultFromStop: cfg.Planner.DefaultFromStop,
		DefaultToStop:   cfg.Planner.DefaultToStop,
		Logger:          logger,
	})
	if err != nil {
		svc.Close()
		return nil, err
	}
	svc.Adapter = adapter

	if cfg.RateLimit.Enabled {
		svc.RateLimiter = middleware.RateLimitMiddleware(rdb, cfg.RateLimit.PerMinute)
	}

	return svc, nil
}

func (s *Service) buildResolver(ctx context.Context, cfg *config.Config, client *upstream.Client, rdb *redis.Client, logger zerolog.Logger) (stops.Resolver, error) {
	switch stops.Mode(cfg.Resolver.Mode) {
	case stops.ModeStatic:
		sources := stops.TableSources{
			Static:   cfg.StaticStops(),
			GTFSPath: cfg.Resolver.GTFSStopsPath,
		}
		if cfg.Resolver.LoadFromDatabase {
			conn, err := db.Connect(ctx, db.LoadConfigFromEnv())
			if err != nil {
				return nil, err
			}
			defer conn.Close(context.WithoutCancel(ctx))
			sources.Database = conn
		}

		table, err := stops.LoadTable(ctx, sources, logger)
		if err != nil {
			return nil, err
		}

		resolver, err := stops.NewStaticTableResolver(table, cfg.Resolver.DefaultStop, logger)
		if err != nil {
			return nil, err
		}
		logger.Info().Int("stops", resolver.Len()).Msg("Using static stop table")
		return resolver, nil

	case stops.ModeLive:
		live := stops.NewLiveSearchResolver(client, logger)
		if cfg.Cache.Enabled {
			logger.Info().Str("ttl", cfg.Cache.TTL.String()).Msg("Using live stop search with cache")
			return stops.NewCachedResolver(live, cache.NewStopCache(rdb, cfg.Cache.TTL), logger), nil
		}
		logger.Info().Msg("Using live stop search")
		return live, nil

	default:
		return nil, fmt.Errorf("unknown resolver mode %q", cfg.Resolver.Mode)
	}
}

// apiKeys prefers the secrets store and falls back to the plain key
func apiKeys(ctx context.Context, cfg *config.Config, logger zerolog.Logger) secrets.KeyProvider {
	if cfg.Upstream.APIKeyParam == "" {
		return secrets.StaticKey(cfg.Upstream.APIKey)
	}

	keys, err := secrets.NewParameterStoreKeyFromEnv(ctx, cfg.Upstream.APIKeyParam, cfg.Upstream.APIKey, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Parameter store unavailable, using plain API key")
		return secrets.StaticKey(cfg.Upstream.APIKey)
	}
	return keys
}

// Close releases the connections Build opened
func (s *Service) Close() {
	if s.usesRedis {
		cache.Close()
	}
}
