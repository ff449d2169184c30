package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ajespoo/RoutePlanner/internal/query"
	"github.com/ajespoo/RoutePlanner/internal/secrets"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the HSL routing endpoint
const DefaultBaseURL = "https://api.digitransit.fi/routing/v2/hsl/gtfs/v1"

// SubscriptionKeyHeader carries the optional API key
const SubscriptionKeyHeader = "digitransit-subscription-key"

const maxBodyBytes = 8 << 20

// CallClass selects the timeout applied to an upstream call
type CallClass int

const (
	StopSearch CallClass = iota
	Plan
)

func (c CallClass) String() string {
	switch c {
	case StopSearch:
		return "stop_search"
	case Plan:
		return "plan"
	default:
		return "unknown"
	}
}

// GraphQLError is one entry of a GraphQL "errors" array. Raw keeps the
// entry exactly as upstream sent it and is what gets marshalled back out.
type GraphQLError struct {
	Message string
	Raw     json.RawMessage
}

func (e *GraphQLError) UnmarshalJSON(b []byte) error {
	var entry struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &entry); err != nil {
		return err
	}
	e.Message = entry.Message
	e.Raw = append(json.RawMessage(nil), b...)
	return nil
}

func (e GraphQLError) MarshalJSON() ([]byte, error) {
	if len(e.Raw) > 0 {
		return e.Raw, nil
	}
	return json.Marshal(map[string]string{"message": e.Message})
}

// RawResponse is a decoded GraphQL envelope. Data and Errors may both be set.
type RawResponse struct {
	Status int
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// HasErrors reports whether upstream returned GraphQL errors
func (r *RawResponse) HasErrors() bool {
	return len(r.Errors) > 0
}

// Err returns the GraphQL errors as a *GraphQLErrors, or nil
func (r *RawResponse) Err() error {
	if !r.HasErrors() {
		return nil
	}
	return &GraphQLErrors{Errors: r.Errors}
}

// Options configures a Client
type Options struct {
	BaseURL           string
	Keys              secrets.KeyProvider
	HTTPClient        *http.Client
	StopSearchTimeout time.Duration
	PlanTimeout       time.Duration
	Logger            zerolog.Logger
}

// Client posts GraphQL documents to the routing service.
// It holds no mutable state after construction.
type Client struct {
	baseURL    string
	keys       secrets.KeyProvider
	httpClient *http.Client
	timeouts   map[CallClass]time.Duration
	logger     zerolog.Logger
}

// NewClient creates a client, filling unset options with defaults
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Keys == nil {
		opts.Keys = secrets.StaticKey("")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.StopSearchTimeout <= 0 {
		opts.StopSearchTimeout = 10 * time.Second
	}
	if opts.PlanTimeout <= 0 {
		opts.PlanTimeout = 30 * time.Second
	}

	return &Client{
		baseURL:    opts.BaseURL,
		keys:       opts.Keys,
		httpClient: opts.HTTPClient,
		timeouts: map[CallClass]time.Duration{
			StopSearch: opts.StopSearchTimeout,
			Plan:       opts.PlanTimeout,
		},
		logger: opts.Logger.With().Str("component", "upstream").Logger(),
	}
}

// Timeout returns the timeout used for a call class
func (c *Client) Timeout(class CallClass) time.Duration {
	return c.timeouts[class]
}

// Execute posts the document and decodes the GraphQL envelope.
// The call is not cancelled when ctx is; it runs until it completes or the
// class timeout elapses.
func (c *Client) Execute(ctx context.Context, class CallClass, doc query.Document) (*RawResponse, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.Timeout(class))
	defer cancel()

	payload, err := json.Marshal(map[string]string{"query": string(doc)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	// Key lookup problems never abort the request
	key, err := c.keys.APIKey(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("API key lookup failed, calling upstream without a key")
	} else if secrets.Usable(key) {
		req.Header.Set(SubscriptionKeyHeader, key)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("class", class.String()).Msg("Upstream request failed")
		return nil, &ConnectionError{Class: class, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &ConnectionError{Class: class, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.logger.Debug().
		Str("class", class.String()).
		Int("status", resp.StatusCode).
		Str("latency", time.Since(start).String()).
		Msg("Upstream response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(body, 512)}
	}

	raw := &RawResponse{Status: resp.StatusCode}
	if err := json.Unmarshal(body, raw); err != nil {
		return nil, &MalformedBodyError{Err: err}
	}

	return raw, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
