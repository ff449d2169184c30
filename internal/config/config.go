package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ajespoo/RoutePlanner/internal/models"
	"github.com/ajespoo/RoutePlanner/internal/planner"
	"github.com/ajespoo/RoutePlanner/internal/query"
	"github.com/ajespoo/RoutePlanner/internal/stops"
	"github.com/ajespoo/RoutePlanner/internal/upstream"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the service configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Planner   PlannerConfig   `yaml:"planner"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
}

type ServerConfig struct {
	Port int `yaml:"port" validate:"min=1,max=65535"`
	// ProxyHeader is read for the client IP, e.g. X-Forwarded-For behind a
	// load balancer. Empty means the peer address is used.
	ProxyHeader    string   `yaml:"proxy_header"`
	TrustedProxies []string `yaml:"trusted_proxies" validate:"dive,ip|cidr"`
}

type UpstreamConfig struct {
	BaseURL string `yaml:"base_url" validate:"required,url"`
	APIKey  string `yaml:"api_key"`
	// APIKeyParam names an SSM parameter holding the key
	APIKeyParam       string        `yaml:"api_key_param"`
	StopSearchTimeout time.Duration `yaml:"stop_search_timeout" validate:"gt=0"`
	PlanTimeout       time.Duration `yaml:"plan_timeout" validate:"gt=0"`
	ResultLimit       int           `yaml:"result_limit" validate:"min=1,max=10"`
}

type PlannerConfig struct {
	TimeZone        string `yaml:"time_zone" validate:"required"`
	DefaultFromStop string `yaml:"default_from_stop"`
	DefaultToStop   string `yaml:"default_to_stop"`
}

type ResolverConfig struct {
	Mode             string       `yaml:"mode" validate:"oneof=live static"`
	DefaultStop      string       `yaml:"default_stop"`
	StaticStops      []StaticStop `yaml:"static_stops" validate:"dive"`
	GTFSStopsPath    string       `yaml:"gtfs_stops_path"`
	LoadFromDatabase bool         `yaml:"load_from_database"`
}

type StaticStop struct {
	Name      string  `yaml:"name" validate:"required"`
	Latitude  float64 `yaml:"lat" validate:"gte=-90,lte=90"`
	Longitude float64 `yaml:"lon" validate:"gte=-180,lte=180"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl" validate:"gte=0"`
}

type RateLimitConfig struct {
	Enabled   bool `yaml:"enabled"`
	PerMinute int  `yaml:"per_minute" validate:"gte=0"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 3000},
		Upstream: UpstreamConfig{
			BaseURL:           upstream.DefaultBaseURL,
			StopSearchTimeout: 10 * time.Second,
			PlanTimeout:       30 * time.Second,
			ResultLimit:       query.DefaultResultLimit,
		},
		Planner: PlannerConfig{
			TimeZone: planner.DefaultTimeZone,
		},
		Resolver: ResolverConfig{
			Mode:        string(stops.ModeLive),
			DefaultStop: stops.DefaultStopName,
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			PerMinute: 60,
		},
	}
}

// Load reads path (optional), applies environment overrides and validates
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks struct constraints and the time zone
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := time.LoadLocation(c.Planner.TimeZone); err != nil {
		return fmt.Errorf("invalid config: time zone %q: %w", c.Planner.TimeZone, err)
	}
	return nil
}

// StaticStops converts the configured stops to table entries
func (c *Config) StaticStops() []models.Stop {
	out := make([]models.Stop, 0, len(c.Resolver.StaticStops))
	for _, s := range c.Resolver.StaticStops {
		out = append(out, models.Stop{Name: s.Name, Latitude: s.Latitude, Longitude: s.Longitude})
	}
	return out
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid API_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}

	c.Server.ProxyHeader = getEnv("PROXY_HEADER", c.Server.ProxyHeader)

	c.Upstream.BaseURL = getEnv("HSL_API_URL", c.Upstream.BaseURL)
	c.Upstream.APIKey = getEnv("DIGITRANSIT_API_KEY", c.Upstream.APIKey)
	c.Upstream.APIKeyParam = getEnv("DIGITRANSIT_API_KEY_PARAM", c.Upstream.APIKeyParam)
	c.Planner.TimeZone = getEnv("PLANNER_TIME_ZONE", c.Planner.TimeZone)
	c.Planner.DefaultFromStop = getEnv("DEFAULT_FROM_STOP", c.Planner.DefaultFromStop)
	c.Planner.DefaultToStop = getEnv("DEFAULT_TO_STOP", c.Planner.DefaultToStop)
	c.Resolver.Mode = getEnv("RESOLVER_MODE", c.Resolver.Mode)
	c.Resolver.GTFSStopsPath = getEnv("GTFS_STOPS_PATH", c.Resolver.GTFSStopsPath)

	if v := os.Getenv("CACHE_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CACHE_ENABLED %q: %w", v, err)
		}
		c.Cache.Enabled = enabled
	}

	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		perMinute, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE %q: %w", v, err)
		}
		c.RateLimit.Enabled = perMinute > 0
		c.RateLimit.PerMinute = perMinute
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
