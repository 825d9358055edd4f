package lightspeedbridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Request is one logical call. It owns the call's bucket telemetry and
// remembers whether its single token refresh has been spent.
// A Request must not be executed concurrently with itself.
type Request struct {
	client *Client
	spec   RequestSpec

	url           string
	body          []byte
	contentType   string
	authorization string

	bucket           BucketState
	refreshAttempted bool
}

// NewRequest builds a signed request for spec.
func (c *Client) NewRequest(spec RequestSpec) (*Request, error) {
	if !spec.Method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, spec.Method)
	}

	path := spec.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	r := &Request{
		client: c,
		spec:   spec,
		url:    c.baseURL + path,
		bucket: NewBucketState(),
	}

	if spec.Method == MethodGet && len(spec.Params) > 0 {
		sep := "?"
		if strings.Contains(r.url, "?") {
			sep = "&"
		}
		r.url += sep + spec.Params.Encode()
	}

	// An explicit body is sent verbatim for every method, GET included.
	switch {
	case spec.Body != nil:
		r.body = spec.Body
		r.contentType = spec.ContentType
		if r.contentType == "" {
			r.contentType = "application/json"
		}
	case spec.Method != MethodGet && len(spec.Params) > 0:
		r.body = []byte(spec.Params.Encode())
		r.contentType = "application/x-www-form-urlencoded"
	}

	r.sign()
	return r, nil
}

// sign recomputes the Authorization header from the provider's current token.
func (r *Request) sign() {
	r.authorization = ""
	if r.client.credentials == nil {
		return
	}
	if token := r.client.credentials.AccessToken(); token != "" {
		r.authorization = "Bearer " + token
	}
}

// Authorization returns the header value the next attempt will carry.
func (r *Request) Authorization() string { return r.authorization }

// URL returns the absolute URL including any query string.
func (r *Request) URL() string { return r.url }

// Bucket returns the telemetry this call has observed so far.
func (r *Request) Bucket() BucketState { return r.bucket }

// Execute sends the request and recovers from throttling and token expiry.
// Throttled attempts are retried after the bucket has had time to drain, subject to
// the client's MaxThrottleRetries and MaxThrottleWait. A 401 triggers exactly one
// token refresh; a second 401 is returned to the caller.
func (r *Request) Execute(ctx context.Context) (any, error) {
	var (
		throttles int
		waited    time.Duration
		attempt   int
	)
	for {
		attempt++
		data, err := r.perform(ctx)
		if err == nil {
			return data, nil
		}

		apiErr, _ := AsAPIError(err)
		switch KindOf(err) {
		case KindThrottled:
			wait := r.bucket.ThrottleWait(r.spec.Method.UnitCost())
			if r.client.maxThrottleRetries > 0 && throttles >= r.client.maxThrottleRetries {
				return nil, err
			}
			// Compared against what is left of the budget; waited+wait can overflow.
			if r.client.maxThrottleWait > 0 && wait > r.client.maxThrottleWait-waited {
				return nil, err
			}
			throttles++
			waited += wait

			r.client.metrics.recordThrottle(wait.Seconds())
			r.client.notice("retrying throttled request",
				zap.String("method", string(r.spec.Method)),
				zap.String("path", r.spec.Path),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Float64("bucket_level", r.bucket.Level),
				zap.Float64("bucket_max", r.bucket.Max),
			)
			if serr := r.client.sleep(ctx, wait); serr != nil {
				cancelled := *apiErr
				cancelled.Cause = serr
				return nil, &cancelled
			}

		case KindUnauthorized:
			if r.refreshAttempted || r.client.credentials == nil {
				return nil, err
			}
			r.refreshAttempted = true

			r.client.logger.Debug("refreshing access token after 401",
				zap.String("method", string(r.spec.Method)),
				zap.String("path", r.spec.Path),
			)
			rerr := r.client.credentials.Refresh(ctx)
			r.client.metrics.recordRefresh(rerr)
			if rerr != nil {
				if _, typed := AsAPIError(rerr); typed {
					return nil, rerr
				}
				failed := *apiErr
				failed.Cause = fmt.Errorf("refresh access token: %w", rerr)
				return nil, &failed
			}
			r.sign()

		default:
			return nil, err
		}
	}
}

// perform runs a single attempt: send, record telemetry, classify.
func (r *Request) perform(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, r.transportError(err)
	}

	httpReq, err := r.httpRequest(ctx)
	if err != nil {
		return nil, r.transportError(err)
	}

	resp, err := r.client.httpClient.Do(httpReq)
	if err != nil {
		r.client.metrics.recordTransportFailure()
		return nil, r.transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		r.client.metrics.recordTransportFailure()
		return nil, r.transportError(fmt.Errorf("read response body: %w", err))
	}

	r.client.metrics.recordResponse(r.spec.Method, resp.StatusCode)
	if r.bucket.UpdateFromHeader(resp.Header) {
		r.client.rateLimiter.UpdateRateLimits(r.bucket)
		r.client.metrics.recordBucket(r.bucket)
	}

	if resp.StatusCode == http.StatusOK {
		return r.handleSuccess(resp.StatusCode, body)
	}
	return nil, r.handleError(resp.StatusCode, body)
}

func (r *Request) httpRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, string(r.spec.Method), r.url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.authorization != "" {
		req.Header.Set("Authorization", r.authorization)
	}
	return req, nil
}

func (r *Request) handleSuccess(status int, body []byte) (any, error) {
	data, err := r.client.decoder.Decode(body)
	if err != nil {
		return nil, &APIError{
			Kind:       KindGeneric,
			StatusCode: status,
			Method:     r.spec.Method,
			Path:       r.spec.Path,
			Cause:      err,
		}
	}
	r.client.notice("lightspeed response",
		zap.String("method", string(r.spec.Method)),
		zap.String("path", r.spec.Path),
		zap.Any("data", data),
	)
	return data, nil
}

func (r *Request) handleError(status int, body []byte) error {
	return &APIError{
		Kind:       KindForStatus(status),
		StatusCode: status,
		Message:    errorMessage(r.client.decoder, body),
		Method:     r.spec.Method,
		Path:       r.spec.Path,
	}
}

func (r *Request) transportError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &APIError{
		Kind:   KindTransport,
		Method: r.spec.Method,
		Path:   r.spec.Path,
		Cause:  err,
	}
}
