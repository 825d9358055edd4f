package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lightspeedbridge "github.com/opengovern/lightspeed-bridge"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(bytes.NewBufferString(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func apiServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("LIGHTSPEED_BASE_URL", srv.URL+"/API")
	t.Setenv("LIGHTSPEED_ACCESS_TOKEN", "cli-token")
	t.Setenv("LIGHTSPEED_ACCOUNT_ID", "7")
}

func TestGetCommand(t *testing.T) {
	apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/API/Account/7/Item.json", r.URL.Path)
		assert.Equal(t, "limit=2", r.URL.RawQuery)
		assert.Equal(t, "Bearer cli-token", r.Header.Get("Authorization"))
		w.Header().Set(lightspeedbridge.BucketLevelHeader, "1/60")
		_, _ = w.Write([]byte(`{"Item":{"itemID":"3"}}`))
	})

	out, err := runCLI(t, "", "get", "--account", "Item", "--param", "limit=2")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Item":{"itemID":"3"}}`, out)
}

func TestPostCommandReadsStdin(t *testing.T) {
	apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"description":"Hat"}`, string(body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"Item":{"itemID":"9"}}`))
	})

	out, err := runCLI(t, `{"description":"Hat"}`, "post", "/Account/7/Item.json", "--body", "-")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Item":{"itemID":"9"}}`, out)
}

func TestPutCommandReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "item.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"qoh":"4"}`), 0o600))

	apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"qoh":"4"}`, string(body))
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := runCLI(t, "", "put", "/Account/7/Item/9.json", "--body", "@"+path)
	require.NoError(t, err)
}

func TestRequestCommandParsesMethod(t *testing.T) {
	apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/API/Account/7/Item/9.json", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"qoh":"1"}`, string(body))
		_, _ = w.Write([]byte(`{"Item":{"itemID":"9"}}`))
	})

	out, err := runCLI(t, "", "request", " Put ", "--account", "Item/9", "--body", `{"qoh":"1"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Item":{"itemID":"9"}}`, out)
}

func TestRequestCommandRejectsMethod(t *testing.T) {
	apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := runCLI(t, "", "request", "patch", "/Account/7/Item/9.json")
	assert.ErrorIs(t, err, lightspeedbridge.ErrInvalidMethod)
	assert.Equal(t, 1, ExitCode(err))
}

func TestCommandSurfacesAPIError(t *testing.T) {
	apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Item not found"}`))
	})

	_, err := runCLI(t, "", "delete", "/Account/7/Item/404.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, lightspeedbridge.ErrNotFound))
	assert.Equal(t, 4, ExitCode(err))
}

func TestRateLimitCommand(t *testing.T) {
	apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/API/Account/7.json", r.URL.Path)
		w.Header().Set(lightspeedbridge.BucketLevelHeader, "30/60")
		_, _ = w.Write([]byte(`{}`))
	})

	out, err := runCLI(t, "", "ratelimit")
	require.NoError(t, err)
	assert.JSONEq(t, `{"bucket_level":30,"bucket_max":60,"refill_rate":1}`, out)
}

func TestInvalidParam(t *testing.T) {
	apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := runCLI(t, "", "get", "/Account.json", "--param", "oops")
	assert.ErrorContains(t, err, "invalid --param")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 3, ExitCode(&lightspeedbridge.APIError{Kind: lightspeedbridge.KindUnauthorized}))
	assert.Equal(t, 5, ExitCode(fmt.Errorf("wrapped: %w", &lightspeedbridge.APIError{Kind: lightspeedbridge.KindThrottled})))
	assert.Equal(t, 6, ExitCode(&lightspeedbridge.APIError{Kind: lightspeedbridge.KindTransport}))
	assert.Equal(t, 130, ExitCode(context.Canceled))
}
