// Package credentials implements lightspeedbridge.CredentialProvider for fixed
// tokens and for the Lightspeed OAuth2 refresh-token flow.
package credentials

import (
	"context"
	"fmt"

	lightspeedbridge "github.com/opengovern/lightspeed-bridge"
)

// ErrRefreshUnsupported is returned by providers that cannot obtain a new token.
// It matches lightspeedbridge.ErrUnauthorized.
var ErrRefreshUnsupported = fmt.Errorf("%w: token cannot be refreshed", lightspeedbridge.ErrUnauthorized)

// Static serves a fixed token.
type Static struct {
	token string
}

func NewStatic(token string) *Static {
	return &Static{token: token}
}

func (s *Static) AccessToken() string { return s.token }

func (s *Static) Refresh(context.Context) error { return ErrRefreshUnsupported }
