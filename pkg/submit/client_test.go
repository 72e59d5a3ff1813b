package submit_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vikashrahii/pipeline/pkg/adapters/memory"
	"github.com/vikashrahii/pipeline/pkg/domain"
	"github.com/vikashrahii/pipeline/pkg/submit"
)

// fakeValidator counts what it receives and answers with the canned DAG verdict.
type fakeValidator struct {
	dag      bool
	received []domain.Graph
}

func (f *fakeValidator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet && r.URL.Path == "/" {
		_ = json.NewEncoder(w).Encode(map[string]string{"Ping": "Pong"})
		return
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var g domain.Graph
	if err := json.Unmarshal([]byte(r.FormValue("pipeline")), &g); err != nil {
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid JSON format"})
		return
	}
	f.received = append(f.received, g)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"num_nodes": len(g.Nodes),
		"num_edges": len(g.Edges),
		"is_dag":    f.dag,
	})
}

type notices struct{ msgs []string }

func (n *notices) Notify(msg string) { n.msgs = append(n.msgs, msg) }

func chainStore(t *testing.T, backEdge bool) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.PutNode(ctx, domain.NodeRecord{ID: "in", Type: domain.NodeTypeInput}))
	require.NoError(t, store.PutNode(ctx, domain.NodeRecord{ID: "t", Type: domain.NodeTypeText}))
	require.NoError(t, store.UpdateNodeField(ctx, "t", domain.FieldText, "{{q}}"))
	require.NoError(t, store.UpdateNodeField(ctx, "t", domain.FieldVariables, []string{"q"}))
	require.NoError(t, store.PutNode(ctx, domain.NodeRecord{ID: "out", Type: domain.NodeTypeOutput}))
	require.NoError(t, store.PutEdge(ctx, domain.EdgeRecord{ID: "e1", Source: "in", Target: "t", TargetHandle: "t-q"}))
	require.NoError(t, store.PutEdge(ctx, domain.EdgeRecord{ID: "e2", Source: "t", SourceHandle: "t-output", Target: "out"}))
	if backEdge {
		require.NoError(t, store.PutEdge(ctx, domain.EdgeRecord{ID: "e3", Source: "out", Target: "in"}))
	}
	return store
}

func TestClient_SubmitChain(t *testing.T) {
	fake := &fakeValidator{dag: true}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	n := &notices{}
	client := submit.New(submit.WithEndpoint(srv.URL+"/pipelines/parse"), submit.WithNotifier(n))

	res, err := client.SubmitAndNotify(context.Background(), chainStore(t, false))
	require.NoError(t, err)
	assert.Equal(t, &submit.Result{NumNodes: 3, NumEdges: 2, IsDAG: true}, res)
	assert.Equal(t, []string{
		"Pipeline Analysis Results:\n\nNumber of Nodes: 3\nNumber of Edges: 2\nIs DAG: Yes",
	}, n.msgs)

	require.Len(t, fake.received, 1)
	rec, ok := fake.received[0].Node("t")
	require.True(t, ok)
	assert.Equal(t, "{{q}}", rec.Data["text"])
	assert.Equal(t, []any{"q"}, rec.Data["variables"])
}

func TestClient_SubmitBackEdge(t *testing.T) {
	srv := httptest.NewServer(&fakeValidator{dag: false})
	defer srv.Close()

	client := submit.New(submit.WithEndpoint(srv.URL))
	res, err := client.Submit(context.Background(), chainStore(t, true))
	require.NoError(t, err)
	assert.False(t, res.IsDAG)
	assert.Equal(t, 3, res.NumEdges)
	assert.Contains(t, res.Summary(), "Is DAG: No")
}

func TestClient_EmptyGraphEncodesArrays(t *testing.T) {
	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw = r.FormValue("pipeline")
		_, _ = w.Write([]byte(`{"num_nodes":0,"num_edges":0,"is_dag":true}`))
	}))
	defer srv.Close()

	_, err := submit.New(submit.WithEndpoint(srv.URL)).Submit(context.Background(), memory.NewStore())
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":[],"edges":[]}`, raw)
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(&fakeValidator{})
	endpoint := srv.URL
	srv.Close()

	store := chainStore(t, false)
	before, err := store.Snapshot(context.Background())
	require.NoError(t, err)

	n := &notices{}
	client := submit.New(submit.WithEndpoint(endpoint), submit.WithNotifier(n))
	res, err := client.SubmitAndNotify(context.Background(), store)

	assert.Nil(t, res)
	assert.ErrorIs(t, err, submit.ErrTransport)
	assert.Equal(t, []string{submit.FailureNotice}, n.msgs)

	after, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, after, "submission must not mutate the graph")
}

func TestClient_ResponseFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"validator error body", http.StatusOK, `{"error": "Invalid JSON format"}`, submit.ErrResponse},
		{"not json", http.StatusOK, `<html>oops</html>`, submit.ErrResponse},
		{"missing fields", http.StatusOK, `{"num_nodes": 1}`, submit.ErrResponse},
		{"server error", http.StatusInternalServerError, `boom`, submit.ErrTransport},
		{"unprocessable", http.StatusUnprocessableEntity, `{"detail":"field required"}`, submit.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			n := &notices{}
			client := submit.New(submit.WithEndpoint(srv.URL), submit.WithNotifier(n))
			_, err := client.SubmitAndNotify(context.Background(), memory.NewStore())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, []string{submit.FailureNotice}, n.msgs)
		})
	}
}

func TestClient_Hooks(t *testing.T) {
	srv := httptest.NewServer(&fakeValidator{dag: true})
	defer srv.Close()

	var events []*domain.SubmitEvent
	client := submit.New(submit.WithEndpoint(srv.URL), submit.WithHooks(domain.LifecycleHooks{
		OnSubmit: func(_ context.Context, e *domain.SubmitEvent) { events = append(events, e) },
	}))

	_, err := client.Submit(context.Background(), chainStore(t, false))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 3, events[0].Nodes)
	assert.Equal(t, 2, events[0].Edges)
	assert.True(t, events[0].IsDAG)
	assert.NoError(t, events[0].Err)
}

type brokenStore struct{ *memory.Store }

func (brokenStore) Snapshot(context.Context) (domain.Graph, error) {
	return domain.Graph{}, errors.New("store offline")
}

func TestClient_SnapshotFailureIsContained(t *testing.T) {
	n := &notices{}
	client := submit.New(submit.WithNotifier(n))
	_, err := client.SubmitAndNotify(context.Background(), brokenStore{memory.NewStore()})
	assert.Error(t, err)
	assert.Equal(t, []string{submit.FailureNotice}, n.msgs)
}

func TestClient_Ping(t *testing.T) {
	srv := httptest.NewServer(&fakeValidator{})
	defer srv.Close()

	client := submit.New(submit.WithEndpoint(srv.URL + "/pipelines/parse?x=1"))
	assert.NoError(t, client.Ping(context.Background()))

	wrong := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Ping":"Nope"}`))
	}))
	defer wrong.Close()
	err := submit.New(submit.WithEndpoint(wrong.URL)).Ping(context.Background())
	assert.ErrorIs(t, err, submit.ErrResponse)
}

func TestWriterNotifier(t *testing.T) {
	var sb strings.Builder
	submit.WriterNotifier{W: &sb}.Notify("hello")
	assert.Equal(t, "hello\n", sb.String())
}
