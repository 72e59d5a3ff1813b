package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vikashrahii/pipeline"
	httpadapter "github.com/vikashrahii/pipeline/pkg/adapters/http"
	"github.com/vikashrahii/pipeline/pkg/domain"
	"github.com/vikashrahii/pipeline/pkg/observability"
)

type fixture struct {
	server  *httptest.Server
	editor  *pipeline.Editor
	streams *httpadapter.StreamManager
}

func newFixture(t *testing.T, validatorURL string) *fixture {
	t.Helper()
	streams := httpadapter.NewStreamManager(nil)
	editor := pipeline.New(
		pipeline.WithValidatorEndpoint(validatorURL),
		pipeline.WithLifecycleHooks(streams.Hooks()),
	)
	metrics := observability.NewMetrics()

	handler, err := httpadapter.NewHandler(editor,
		httpadapter.WithStreams(streams),
		httpadapter.WithMetrics(metrics.Handler()),
	)
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &fixture{server: srv, editor: editor, streams: streams}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func TestServer_Health(t *testing.T) {
	f := newFixture(t, "")
	resp, body := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	resp, body = f.do(t, http.MethodGet, "/info", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1.0.0", body["api_version"])
	assert.Equal(t, strings.TrimSpace(pipeline.Version), body["version"])
}

func TestServer_OpenAPI(t *testing.T) {
	f := newFixture(t, "")
	resp, _ := f.do(t, http.MethodGet, "/openapi.yaml", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/yaml", resp.Header.Get("Content-Type"))

	doc, err := httpadapter.LoadSpec(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/nodes/{id}/text"))
}

func TestServer_TextNodeLifecycle(t *testing.T) {
	f := newFixture(t, "")

	resp, body := f.do(t, http.MethodPost, "/nodes", map[string]any{
		"id":   "text-1",
		"data": map[string]any{"text": "Hello {{name}}, you are {{age}}"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "text", body["type"])
	assert.Equal(t, []any{"name", "age"}, body["variables"])
	assert.Equal(t, "Variables detected: name, age", body["summary"])

	resp, body = f.do(t, http.MethodPost, "/nodes", map[string]any{"id": "text-1"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body["error"], "already exists")

	resp, _ = f.do(t, http.MethodPost, "/nodes", map[string]any{"id": "in-1", "type": "customInput"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, edge := f.do(t, http.MethodPost, "/edges", map[string]any{
		"source": "in-1", "target": "text-1", "targetHandle": "text-1-age",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "reactflow__edge-in-1-text-1text-1-age", edge["id"])

	// Dropping {{age}} keeps the edge and reports it.
	resp, body = f.do(t, http.MethodPut, "/nodes/text-1/text", map[string]any{"text": "Hello {{name}}"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["dangling_edges"], 1)

	resp, body = f.do(t, http.MethodGet, "/pipeline", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["nodes"], 2)
	assert.Len(t, body["edges"], 1)

	resp, _ = f.do(t, http.MethodDelete, "/nodes/text-1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, "/nodes/text-1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_GeneratedIDs(t *testing.T) {
	f := newFixture(t, "")
	resp, body := f.do(t, http.MethodPost, "/nodes", map[string]any{})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, strings.HasPrefix(body["id"].(string), "text-"))
	assert.Equal(t, "{{input}}", body["text"])
}

func TestServer_BadRequests(t *testing.T) {
	f := newFixture(t, "")

	resp, _ := f.do(t, http.MethodPut, "/nodes/x/text", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "text is required")

	resp, _ = f.do(t, http.MethodPost, "/nodes", map[string]any{"type": "spaceship"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/edges", map[string]any{"source": "a"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/edges", map[string]any{"source": "a", "target": "b"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPut, "/nodes/ghost/text", map[string]any{"text": ""})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Submit(t *testing.T) {
	validator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"num_nodes": 1, "num_edges": 0, "is_dag": true}`))
	}))
	defer validator.Close()

	f := newFixture(t, validator.URL)
	_, err := f.editor.AddTextNode(context.Background(), "t", domain.Position{})
	require.NoError(t, err)

	resp, body := f.do(t, http.MethodPost, "/pipeline/submit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["is_dag"])
	assert.Equal(t, 1.0, body["num_nodes"])
	assert.Contains(t, body["summary"], "Is DAG: Yes")

	validator.Close()
	resp, body = f.do(t, http.MethodPost, "/pipeline/submit", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "Error submitting pipeline. Please check the console for details.", body["error"])
}

func TestServer_CORS(t *testing.T) {
	f := newFixture(t, "")

	req, err := http.NewRequest(http.MethodOptions, f.server.URL+"/nodes", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_Metrics(t *testing.T) {
	f := newFixture(t, "")
	f.do(t, http.MethodPost, "/nodes", map[string]any{"id": "t"})

	resp, err := http.Get(f.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Events(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.editor.AddTextNode(context.Background(), "t", domain.Position{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.server.URL+"/events?node_id=t", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	_, err = f.editor.EditText(context.Background(), "t", "{{a}} {{b}}")
	require.NoError(t, err)

	for lines.Scan() {
		line := lines.Text()
		if !strings.HasPrefix(line, "data: {") {
			continue
		}
		var evt map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt))
		assert.Equal(t, "reconcile", evt["type"])
		assert.Equal(t, "t", evt["node_id"])
		assert.Equal(t, 2.0, evt["variables"])
		return
	}
	t.Fatal("no reconcile event received")
}

func TestServer_TextIsSanitized(t *testing.T) {
	t.Setenv("PIPELINE_MAX_TEXT_SIZE", "32")
	f := newFixture(t, "")
	f.do(t, http.MethodPost, "/nodes", map[string]any{"id": "t"})

	resp, body := f.do(t, http.MethodPut, "/nodes/t/text", map[string]any{"text": "\x1b[1m{{a}}\x00"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[1m{{a}}", body["text"])

	resp, _ = f.do(t, http.MethodPut, "/nodes/t/text", map[string]any{"text": strings.Repeat("x", 33)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestServer_CreateNodeRejectsBadTextWithoutMounting(t *testing.T) {
	t.Setenv("PIPELINE_MAX_TEXT_SIZE", "32")
	f := newFixture(t, "")

	resp, _ := f.do(t, http.MethodPost, "/nodes", map[string]any{
		"id":   "t9",
		"data": map[string]any{"text": strings.Repeat("x", 33)},
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/nodes/t9", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := f.do(t, http.MethodPost, "/nodes", map[string]any{
		"id":   "t9",
		"data": map[string]any{"text": "{{short}}"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "{{short}}", body["text"])
}
