// errors.go
// ---------
// This file defines the closed set of failures a Lightspeed call can end in.
// Every non-200 response and every transport failure is surfaced as an *APIError
// whose Kind can be matched with errors.Is against the sentinel values below.
package lightspeedbridge

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies a failed call.
type ErrorKind int

const (
	KindGeneric ErrorKind = iota
	KindBadRequest
	KindUnauthorized
	KindNotAuthorized
	KindNotFound
	KindThrottled
	KindInternalServerError
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotAuthorized:
		return "not_authorized"
	case KindNotFound:
		return "not_found"
	case KindThrottled:
		return "throttled"
	case KindInternalServerError:
		return "internal_server_error"
	case KindTransport:
		return "transport"
	default:
		return "api_error"
	}
}

// Sentinels for errors.Is matching against an *APIError.
var (
	ErrAPI                 = &kindError{KindGeneric}
	ErrBadRequest          = &kindError{KindBadRequest}
	ErrUnauthorized        = &kindError{KindUnauthorized}
	ErrNotAuthorized       = &kindError{KindNotAuthorized}
	ErrNotFound            = &kindError{KindNotFound}
	ErrThrottled           = &kindError{KindThrottled}
	ErrInternalServerError = &kindError{KindInternalServerError}
	ErrTransport           = &kindError{KindTransport}
)

// ErrInvalidMethod is returned when a request is built with a verb outside GET/POST/PUT/DELETE.
var ErrInvalidMethod = errors.New("lightspeed: unsupported HTTP method")

type kindError struct{ kind ErrorKind }

func (e *kindError) Error() string { return "lightspeed: " + e.kind.String() }

// APIError is the typed failure returned by Request.Execute.
type APIError struct {
	Kind       ErrorKind
	StatusCode int // 0 for transport failures
	Message    string
	Method     Method
	Path       string
	Cause      error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("lightspeed: ")
	if e.Method != "" {
		b.WriteString(string(e.Method))
		b.WriteString(" ")
	}
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	if e.StatusCode != 0 {
		b.WriteString(fmt.Sprintf("http %d %s", e.StatusCode, e.Kind))
	} else {
		b.WriteString(e.Kind.String())
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() error { return e.Cause }

// Is reports whether target is the sentinel for e's kind.
func (e *APIError) Is(target error) bool {
	k, ok := target.(*kindError)
	return ok && e != nil && k.kind == e.Kind
}

// AsAPIError extracts an *APIError from err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindGeneric when err is not an *APIError.
func KindOf(err error) ErrorKind {
	if ae, ok := AsAPIError(err); ok {
		return ae.Kind
	}
	return KindGeneric
}

// KindForStatus maps a non-200 status code to its ErrorKind.
func KindForStatus(code int) ErrorKind {
	switch {
	case code == http.StatusBadRequest:
		return KindBadRequest
	case code == http.StatusUnauthorized:
		return KindUnauthorized
	case code == http.StatusForbidden:
		return KindNotAuthorized
	case code == http.StatusNotFound:
		return KindNotFound
	case code == http.StatusTooManyRequests:
		return KindThrottled
	case code >= 500 && code <= 599:
		return KindInternalServerError
	default:
		return KindGeneric
	}
}
