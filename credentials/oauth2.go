package credentials

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	lightspeedbridge "github.com/opengovern/lightspeed-bridge"
)

// DefaultTokenURL is the Lightspeed Retail OAuth2 token endpoint.
const DefaultTokenURL = "https://cloud.merchantos.com/oauth/access_token.php"

// refreshTimeout bounds a shared token request once no caller's ctx governs it.
const refreshTimeout = 30 * time.Second

// OAuth2Config holds what is needed to mint access tokens from a refresh token.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string // defaults to DefaultTokenURL
	RefreshToken string
	AccessToken  string       // optional token to start with
	HTTPClient   *http.Client // used for token requests
	Logger       *zap.Logger
}

// OAuth2 refreshes access tokens with the refresh_token grant. It is safe for
// concurrent use; simultaneous Refresh calls share one token request.
type OAuth2 struct {
	conf       *oauth2.Config
	httpClient *http.Client
	logger     *zap.Logger

	mu    sync.RWMutex
	token *oauth2.Token

	group singleflight.Group
}

func NewOAuth2(cfg OAuth2Config) (*OAuth2, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, errors.New("credentials: client ID is required")
	}
	if strings.TrimSpace(cfg.RefreshToken) == "" {
		return nil, errors.New("credentials: refresh token is required")
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &OAuth2{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: cfg.HTTPClient,
		logger:     logger,
		token: &oauth2.Token{
			AccessToken:  cfg.AccessToken,
			TokenType:    "Bearer",
			RefreshToken: cfg.RefreshToken,
		},
	}
	if cfg.AccessToken != "" {
		p.token.Expiry = jwtExpiry(cfg.AccessToken)
	}
	return p, nil
}

func (p *OAuth2) AccessToken() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token.AccessToken
}

// Expiry reports when the current access token expires, or the zero time if unknown.
func (p *OAuth2) Expiry() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token.Expiry
}

// Token returns a copy of the current token.
func (p *OAuth2) Token() *oauth2.Token {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tok := *p.token
	return &tok
}

// Refresh exchanges the refresh token for a new access token. A refresh token
// rejected by the server yields an error matching lightspeedbridge.ErrUnauthorized.
//
// Concurrent callers share one token request. The shared request is detached
// from the cancellation of whichever caller started it and is bounded by
// refreshTimeout instead; a caller whose ctx ends stops waiting for it.
func (p *OAuth2) Refresh(ctx context.Context) error {
	ch := p.group.DoChan("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return nil, p.refresh(rctx)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Shared {
			p.logger.Debug("joined in-flight token refresh")
		}
		return res.Err
	}
}

func (p *OAuth2) refresh(ctx context.Context) error {
	p.mu.RLock()
	refreshToken := p.token.RefreshToken
	p.mu.RUnlock()

	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}
	// An empty access token forces the source to hit the token endpoint.
	tok, err := p.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil &&
			(re.Response.StatusCode == http.StatusBadRequest || re.Response.StatusCode == http.StatusUnauthorized) {
			p.logger.Warn("refresh token rejected", zap.Int("status", re.Response.StatusCode))
			return fmt.Errorf("%w: refresh token rejected: %v", lightspeedbridge.ErrUnauthorized, err)
		}
		return fmt.Errorf("refresh access token: %w", err)
	}

	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	if tok.Expiry.IsZero() {
		tok.Expiry = jwtExpiry(tok.AccessToken)
	}

	p.mu.Lock()
	p.token = tok
	p.mu.Unlock()

	p.logger.Debug("access token refreshed", zap.Time("expiry", tok.Expiry))
	return nil
}

// jwtExpiry reads the exp claim of a JWT-shaped token without verifying it.
// Opaque tokens yield the zero time.
func jwtExpiry(raw string) time.Time {
	if strings.Count(raw, ".") != 2 {
		return time.Time{}
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
