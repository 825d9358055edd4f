package lightspeedbridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONDecoder(t *testing.T) {
	v, err := JSONDecoder{}.Decode([]byte(`{"Item":{"itemID":"12","qoh":9007199254740993}}`))
	require.NoError(t, err)

	item := v.(map[string]any)["Item"].(map[string]any)
	assert.Equal(t, "12", item["itemID"])
	assert.Equal(t, json.Number("9007199254740993"), item["qoh"])

	_, err = JSONDecoder{}.Decode([]byte(`{"a":1} {"b":2}`))
	assert.Error(t, err)
	_, err = JSONDecoder{}.Decode([]byte(`<html>`))
	assert.Error(t, err)
}

type panickyDecoder struct{}

func (panickyDecoder) Decode([]byte) (any, error) { panic("bad decoder") }

func TestErrorMessage(t *testing.T) {
	d := JSONDecoder{}
	assert.Equal(t, "Bad token", errorMessage(d, []byte(`{"httpCode":"401","message":"Bad token"}`)))
	assert.Equal(t, "", errorMessage(d, []byte(`{"httpCode":"401"}`)))
	assert.Equal(t, "42", errorMessage(d, []byte(`{"message":42}`)))
	assert.Equal(t, "", errorMessage(d, []byte(`{"message":null}`)))
	assert.Equal(t, "", errorMessage(d, []byte(`["message"]`)))
	assert.Equal(t, "", errorMessage(d, []byte(`not json`)))
	assert.Equal(t, "", errorMessage(d, nil))
	assert.Equal(t, "", errorMessage(panickyDecoder{}, []byte(`{}`)))
}
