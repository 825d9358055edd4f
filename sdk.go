// sdk.go
// ------
// The sdk.go file contains the Client type, the main entry point of the SDK.
//
// Key functionalities include:
// - Initializing the SDK with NewClient()
// - Building signed requests via NewRequest() and running them via Do() or the verb helpers
// - Exposing the last observed leaky-bucket telemetry with RateLimitInfo()
//
// A Client is safe for concurrent use. Each logical call gets its own Request, which
// owns the call's bucket state and its single token-refresh allowance.
package lightspeedbridge

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials CredentialProvider
	decoder     Decoder
	logger      *zap.Logger
	verbose     bool
	sleep       SleepFunc
	metrics     *Metrics
	rateLimiter *RateLimiter

	maxThrottleRetries int
	maxThrottleWait    time.Duration
}

// NewClient creates a Client. credentials may be nil for unauthenticated use;
// cfg may be nil to use DefaultConfig.
func NewClient(credentials CredentialProvider, cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cfg.MaxThrottleRetries < 0 || cfg.MaxThrottleWait < 0 {
		return nil, fmt.Errorf("throttle limits must not be negative")
	}

	c := &Client{
		baseURL:            baseURL,
		httpClient:         cfg.HTTPClient,
		credentials:        credentials,
		decoder:            cfg.Decoder,
		logger:             cfg.Logger,
		verbose:            cfg.Verbose,
		sleep:              cfg.Sleep,
		rateLimiter:        NewRateLimiter(),
		maxThrottleRetries: cfg.MaxThrottleRetries,
		maxThrottleWait:    cfg.MaxThrottleWait,
	}
	if c.httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	if c.decoder == nil {
		c.decoder = JSONDecoder{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	if cfg.Registerer != nil {
		c.metrics = NewMetrics(cfg.Registerer)
	}
	return c, nil
}

// Do builds and executes spec.
func (c *Client) Do(ctx context.Context, spec RequestSpec) (any, error) {
	req, err := c.NewRequest(spec)
	if err != nil {
		return nil, err
	}
	return req.Execute(ctx)
}

func (c *Client) Get(ctx context.Context, path string, params Params) (any, error) {
	return c.Do(ctx, RequestSpec{Method: MethodGet, Path: path, Params: params})
}

func (c *Client) Post(ctx context.Context, path string, params Params, body []byte) (any, error) {
	return c.Do(ctx, RequestSpec{Method: MethodPost, Path: path, Params: params, Body: body})
}

func (c *Client) Put(ctx context.Context, path string, params Params, body []byte) (any, error) {
	return c.Do(ctx, RequestSpec{Method: MethodPut, Path: path, Params: params, Body: body})
}

func (c *Client) Delete(ctx context.Context, path string, params Params) (any, error) {
	return c.Do(ctx, RequestSpec{Method: MethodDelete, Path: path, Params: params})
}

// AccountPath returns the path of an account-scoped resource,
// e.g. AccountPath("12", "Item") is "/Account/12/Item.json".
// An empty accountID yields the account listing, an empty resource the account itself.
func AccountPath(accountID, resource string) string {
	accountID = strings.Trim(accountID, "/")
	resource = strings.Trim(resource, "/")
	switch {
	case accountID == "":
		return "/Account.json"
	case resource == "":
		return "/Account/" + accountID + ".json"
	default:
		return "/Account/" + accountID + "/" + resource + ".json"
	}
}

// RateLimitInfo returns the most recently observed bucket state across all calls.
// ok is false until some response has carried telemetry.
func (c *Client) RateLimitInfo() (BucketState, bool) {
	state, at := c.rateLimiter.GetRateLimitInfo()
	return state, !at.IsZero()
}

// notice logs payloads and retry notices, which only verbose clients emit.
func (c *Client) notice(msg string, fields ...zap.Field) {
	if !c.verbose {
		return
	}
	c.logger.Info(msg, fields...)
}
