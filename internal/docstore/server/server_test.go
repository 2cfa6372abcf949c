package server

import (
	"encoding/json/v2"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelfwise/internal/docstore/badgerstore"
)

const testKey = "test-api-key"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := badgerstore.OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ts := httptest.NewServer(New(store, testKey, nil))
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, key, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	if key != "" {
		req.Header.Set(APIKeyHeader, key)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_RequiresAPIKey(t *testing.T) {
	ts := newTestServer(t)

	for _, key := range []string{"", "wrong-key"} {
		resp := do(t, ts, http.MethodGet, "/documents", key, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp := do(t, ts, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_DocumentLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/documents", testKey, `{"username":"alice123"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

	var created createResponse
	require.NoError(t, json.UnmarshalRead(resp.Body, &created))
	require.NotEmpty(t, created.ID)

	resp = do(t, ts, http.MethodGet, "/documents", testKey, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed listResponse
	require.NoError(t, json.UnmarshalRead(resp.Body, &listed))
	assert.Equal(t, []string{created.ID}, listed.IDs)

	resp = do(t, ts, http.MethodPut, "/documents/"+created.ID, testKey, `{"username":"alice123","email":"a@example.com"}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/documents/"+created.ID, testKey, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"alice123","email":"a@example.com"}`, string(body))
}

func TestServer_UnknownDocument(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodGet, "/documents/doc-missing", testKey, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, ts, http.MethodPut, "/documents/doc-missing", testKey, `{}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_RejectsInvalidJSON(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/documents", testKey, `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_EmptyList(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodGet, "/documents", testKey, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ids":[]}`, string(body))
}
