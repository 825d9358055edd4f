package lightspeedbridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// JSONDecoder decodes JSON payloads into map[string]any / []any values.
// Numbers are kept as json.Number so large IDs survive unchanged.
type JSONDecoder struct{}

func (JSONDecoder) Decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decode response body: trailing data after JSON value")
	}
	return v, nil
}

// errorMessage pulls the "message" field out of an error body.
// Undecodable bodies and missing or non-string fields yield "".
func errorMessage(d Decoder, body []byte) (msg string) {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	defer func() {
		if recover() != nil {
			msg = ""
		}
	}()

	v, err := d.Decode(body)
	if err != nil {
		return ""
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	switch m := obj["message"].(type) {
	case string:
		return m
	case fmt.Stringer:
		return m.String()
	default:
		return ""
	}
}
