package lightspeedbridge

import "context"

// CredentialProvider supplies the bearer token used to sign requests.
type CredentialProvider interface {
	// AccessToken returns the current token, or "" when none is held.
	// Unauthenticated requests are still sent.
	AccessToken() string

	// Refresh obtains a new token and stores it for later AccessToken calls.
	// It may fail with an error matching ErrUnauthorized when the refresh
	// credentials themselves are rejected.
	Refresh(ctx context.Context) error
}

// Decoder turns a raw response body into structured data.
type Decoder interface {
	Decode(body []byte) (any, error)
}
