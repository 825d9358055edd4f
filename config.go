// config.go
// ----------
// This file defines Config, which controls where requests go, how throttled calls are
// bounded, and where diagnostics end up. LoadConfig reads the same settings from a viper
// instance so the CLI and embedding programs share one source of truth.
//
// Throttle retries are unbounded by default; MaxThrottleRetries and MaxThrottleWait
// are the safety valves for callers that cannot block indefinitely.
package lightspeedbridge

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.merchantos.com/API"
	DefaultTimeout = 60 * time.Second
	EnvPrefix      = "LIGHTSPEED"
)

// SleepFunc suspends the caller for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config customizes a Client.
type Config struct {
	BaseURL    string       // scheme://host/base-path, e.g. DefaultBaseURL
	HTTPClient *http.Client // defaults to a client with Timeout
	Timeout    time.Duration

	MaxThrottleRetries int           // 0 means unlimited
	MaxThrottleWait    time.Duration // cumulative; 0 means unlimited

	// Verbose logs decoded payloads and throttle notices at Info level.
	Verbose bool
	Logger  *zap.Logger

	Decoder    Decoder
	Registerer prometheus.Registerer // nil disables metrics
	Sleep      SleepFunc
}

// DefaultConfig returns a Config targeting the production API.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// Settings holds the values LoadConfig reads, including credentials that
// the caller turns into a CredentialProvider.
type Settings struct {
	Config *Config

	AccountID    string
	AccessToken  string
	RefreshToken string
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// BindEnv wires LIGHTSPEED_* environment variables into v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("max_throttle_retries", 0)
	v.SetDefault("max_throttle_wait", time.Duration(0))
	v.SetDefault("verbose", false)
}

// LoadConfig builds Settings from v. Call BindEnv first to pick up the environment.
func LoadConfig(v *viper.Viper) (*Settings, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(v.GetString("base_url")), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.Timeout = v.GetDuration("timeout")
	cfg.MaxThrottleRetries = v.GetInt("max_throttle_retries")
	cfg.MaxThrottleWait = v.GetDuration("max_throttle_wait")
	cfg.Verbose = v.GetBool("verbose")

	if cfg.MaxThrottleRetries < 0 {
		return nil, fmt.Errorf("max_throttle_retries must not be negative, got %d", cfg.MaxThrottleRetries)
	}
	if cfg.MaxThrottleWait < 0 {
		return nil, fmt.Errorf("max_throttle_wait must not be negative, got %s", cfg.MaxThrottleWait)
	}

	return &Settings{
		Config:       cfg,
		AccountID:    strings.TrimSpace(v.GetString("account_id")),
		AccessToken:  strings.TrimSpace(v.GetString("access_token")),
		RefreshToken: strings.TrimSpace(v.GetString("refresh_token")),
		ClientID:     strings.TrimSpace(v.GetString("client_id")),
		ClientSecret: strings.TrimSpace(v.GetString("client_secret")),
		TokenURL:     strings.TrimSpace(v.GetString("token_url")),
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
