package secrets

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"
)

// PlaceholderKey is the value the parameter store is provisioned with
// before an operator sets the real key.
const PlaceholderKey = "PLACEHOLDER_SET_MANUALLY"

// KeyProvider supplies the upstream subscription key.
// An empty key is valid and means "call upstream without a key".
type KeyProvider interface {
	APIKey(ctx context.Context) (string, error)
}

// Usable reports whether key should be sent upstream
func Usable(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && key != PlaceholderKey
}

// StaticKey is a key supplied directly from the environment or config
type StaticKey string

func (k StaticKey) APIKey(ctx context.Context) (string, error) {
	return string(k), nil
}

// ParameterGetter is the subset of the SSM client used here
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ParameterStoreKey reads the key from an SSM parameter and falls back to a
// plain key when the lookup fails. A successful value is kept for the
// lifetime of the provider; after a failure the fallback is served until
// retryInterval has passed.
type ParameterStoreKey struct {
	client        ParameterGetter
	name          string
	fallback      string
	timeout       time.Duration
	retryInterval time.Duration
	logger        zerolog.Logger

	mu      sync.Mutex
	cached  string
	loaded  bool
	retryAt time.Time
}

// NewParameterStoreKey creates a provider for the named parameter
func NewParameterStoreKey(client ParameterGetter, name, fallback string, logger zerolog.Logger) *ParameterStoreKey {
	return &ParameterStoreKey{
		client:        client,
		name:          name,
		fallback:      fallback,
		timeout:       5 * time.Second,
		retryInterval: 5 * time.Minute,
		logger:        logger.With().Str("component", "secrets").Str("parameter", name).Logger(),
	}
}

// NewParameterStoreKeyFromEnv builds the SSM client from the default AWS
// credential chain
func NewParameterStoreKeyFromEnv(ctx context.Context, name, fallback string, logger zerolog.Logger) (*ParameterStoreKey, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewParameterStoreKey(ssm.NewFromConfig(cfg), name, fallback, logger), nil
}

// APIKey never returns an error: a failed lookup degrades to the fallback key
func (p *ParameterStoreKey) APIKey(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loaded {
		return p.cached, nil
	}
	if time.Now().Before(p.retryAt) {
		return p.fallback, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(p.name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		p.logger.Warn().Err(err).
			Str("retry_in", p.retryInterval.String()).
			Msg("Failed to read API key from parameter store, using environment key")
		p.retryAt = time.Now().Add(p.retryInterval)
		return p.fallback, nil
	}

	if out.Parameter == nil || !Usable(aws.ToString(out.Parameter.Value)) {
		p.logger.Warn().Msg("Parameter store holds no usable API key, using environment key")
		p.cached = p.fallback
	} else {
		p.cached = aws.ToString(out.Parameter.Value)
	}
	p.loaded = true

	return p.cached, nil
}
