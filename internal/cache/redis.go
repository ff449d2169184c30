package cache

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ajespoo/RoutePlanner/internal/models"
	"github.com/redis/go-redis/v9"
)

var (
	client     *redis.Client
	clientOnce sync.Once
	clientErr  error
)

// Config holds Redis configuration
type Config struct {
	Host       string
	Port       int
	Password   string
	DB         int
	TLSEnabled bool
}

// LoadConfigFromEnv loads Redis configuration from environment variables
func LoadConfigFromEnv() *Config {
	port, _ := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	db, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return &Config{
		Host:       getEnv("REDIS_HOST", "localhost"),
		Port:       port,
		Password:   getEnv("REDIS_PASSWORD", ""),
		DB:         db,
		TLSEnabled: getEnv("REDIS_TLS_ENABLED", "false") == "true",
	}
}

// Options converts the config to go-redis options
func (c *Config) Options() *redis.Options {
	opts := &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", c.Host, c.Port),
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	}

	if c.TLSEnabled {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	return opts
}

// GetClient returns the global Redis client (singleton pattern)
func GetClient() (*redis.Client, error) {
	clientOnce.Do(func() {
		client = redis.NewClient(LoadConfigFromEnv().Options())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			clientErr = fmt.Errorf("failed to connect to Redis: %w", err)
			return
		}
	})

	return client, clientErr
}

// Close closes the Redis client
func Close() {
	if client != nil {
		client.Close()
	}
}

// StopKey generates a cache key for a stop name lookup
func StopKey(name string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(name), " "))
	hash := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("stop:%x", hash[:8])
}

// StopCache stores resolved stops keyed by name
type StopCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewStopCache creates a stop cache on the given client
func NewStopCache(rdb redis.Cmdable, ttl time.Duration) *StopCache {
	return &StopCache{rdb: rdb, ttl: ttl}
}

// GetStop retrieves a cached stop. A miss returns nil, nil.
func (c *StopCache) GetStop(ctx context.Context, name string) (*models.Stop, error) {
	data, err := c.rdb.Get(ctx, StopKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var stop models.Stop
	if err := json.Unmarshal(data, &stop); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached stop: %w", err)
	}

	return &stop, nil
}

// SetStop caches a stop under the name it was looked up by
func (c *StopCache) SetStop(ctx context.Context, name string, stop models.Stop) error {
	data, err := json.Marshal(stop)
	if err != nil {
		return fmt.Errorf("failed to marshal stop: %w", err)
	}

	return c.rdb.Set(ctx, StopKey(name), data, c.ttl).Err()
}

// HealthCheck performs a health check on the Redis connection
func HealthCheck(ctx context.Context) error {
	client, err := GetClient()
	if err != nil {
		return fmt.Errorf("Redis client not initialized: %w", err)
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis ping failed: %w", err)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
