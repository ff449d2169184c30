package db

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
)

// Config holds database configuration
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	// ConnectTimeout bounds dialing
	ConnectTimeout time.Duration
}

// LoadConfigFromEnv loads database configuration from environment variables
func LoadConfigFromEnv() *Config {
	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	timeout, err := time.ParseDuration(getEnv("DB_CONNECT_TIMEOUT", "10s"))
	if err != nil || timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Config{
		Host:           getEnv("DB_HOST", "localhost"),
		Port:           port,
		Database:       getEnv("DB_NAME", "routeplanner"),
		User:           getEnv("DB_USER", "postgres"),
		Password:       getEnv("DB_PASSWORD", ""),
		SSLMode:        getEnv("DB_SSLMODE", "disable"),
		ConnectTimeout: timeout,
	}
}

// ConnString renders the config as a postgres URL
func (c *Config) ConnString() string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	return u.String()
}

// ConnConfig parses the config into a pgx connection config
func (c *Config) ConnConfig() (*pgx.ConnConfig, error) {
	connConfig, err := pgx.ParseConfig(c.ConnString())
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	connConfig.ConnectTimeout = c.ConnectTimeout

	// Transaction-mode poolers reject named prepared statements
	if c.Port == 6543 {
		connConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	return connConfig, nil
}

// Connect opens a single connection. The stop table is only read at
// startup, so callers close it once the load is done.
func Connect(ctx context.Context, config *Config) (*pgx.Conn, error) {
	connConfig, err := config.ConnConfig()
	if err != nil {
		return nil, err
	}

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	return conn, nil
}

// getEnv retrieves an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
