// Package mock provides scripted stand-ins for the Lightspeed API and for
// credential providers, for use in tests.
package mock

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Response is one scripted reply.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string
	Err        error // returned instead of a response when set
}

// RecordedRequest captures what the client sent.
type RecordedRequest struct {
	Method        string
	URL           string
	Authorization string
	ContentType   string
	Body          string
}

// Transport is an http.RoundTripper replaying Responses in order. Once the
// script runs out the last response repeats. With AlwaysThrottle set, or once
// more than ThrottleAfter requests were made, it answers 429 instead.
type Transport struct {
	Responses []Response

	ThrottleAfter  int
	AlwaysThrottle bool
	BucketLevel    string // sent with synthesized 429s, e.g. "60/60"

	mu       sync.Mutex
	requests []RecordedRequest
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := RecordedRequest{
		Method:        req.Method,
		URL:           req.URL.String(),
		Authorization: req.Header.Get("Authorization"),
		ContentType:   req.Header.Get("Content-Type"),
	}
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		rec.Body = string(b)
	}

	t.mu.Lock()
	t.requests = append(t.requests, rec)
	n := len(t.requests)
	t.mu.Unlock()

	var r Response
	switch {
	case t.AlwaysThrottle || (t.ThrottleAfter > 0 && n > t.ThrottleAfter):
		r = Response{StatusCode: http.StatusTooManyRequests, Body: `{"message":"Rate limited"}`}
		if t.BucketLevel != "" {
			r.Headers = map[string]string{"X-LS-API-Bucket-Level": t.BucketLevel}
		}
	case len(t.Responses) == 0:
		r = Response{StatusCode: http.StatusOK, Body: `{"success":true}`}
	case n <= len(t.Responses):
		r = t.Responses[n-1]
	default:
		r = t.Responses[len(t.Responses)-1]
	}
	if r.Err != nil {
		return nil, r.Err
	}

	header := make(http.Header)
	for k, v := range r.Headers {
		header.Set(k, v)
	}
	return &http.Response{
		StatusCode: r.StatusCode,
		Status:     http.StatusText(r.StatusCode),
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(r.Body)),
		Request:    req,
	}, nil
}

// Requests returns a copy of everything sent so far.
func (t *Transport) Requests() []RecordedRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]RecordedRequest(nil), t.requests...)
}

// Client wraps t in an *http.Client.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

// ErrRefreshRejected is a convenient refresh failure.
var ErrRefreshRejected = errors.New("mock: refresh rejected")

// Credentials is a counting credential provider. Each Refresh moves to the
// next entry of Refreshed, or keeps the current token once they run out.
type Credentials struct {
	mu         sync.Mutex
	Token      string
	Refreshed  []string
	RefreshErr error
	refreshes  int
}

func (c *Credentials) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Token
}

func (c *Credentials) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshes++
	if c.RefreshErr != nil {
		return c.RefreshErr
	}
	if c.refreshes <= len(c.Refreshed) {
		c.Token = c.Refreshed[c.refreshes-1]
	}
	return ctx.Err()
}

// Refreshes reports how many times Refresh was called.
func (c *Credentials) Refreshes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshes
}
