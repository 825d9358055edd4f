package lightspeedbridge

import (
	"net/url"
	"strings"
)

// Method is one of the four verbs the Lightspeed API accepts.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// Valid reports whether m is a supported verb.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return true
	}
	return false
}

// UnitCost is the weight of a request against the leaky bucket.
func (m Method) UnitCost() float64 {
	if m == MethodGet {
		return 1
	}
	return 10
}

// ParseMethod normalizes a verb name such as "get" into a Method.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", ErrInvalidMethod
	}
	return m, nil
}

// Param is one key/value pair of a request's parameters.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered string mapping. Encoding keeps insertion order.
type Params []Param

func (p Params) Add(key, value string) Params {
	return append(p, Param{Key: key, Value: value})
}

// Encode renders p as application/x-www-form-urlencoded text.
func (p Params) Encode() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}

// RequestSpec describes one logical call.
type RequestSpec struct {
	Method Method
	Path   string
	// Params become the query string for GET and a form body otherwise.
	Params Params
	// Body, when non-nil, is sent verbatim and Params are not used as the body.
	Body        []byte
	ContentType string
}
