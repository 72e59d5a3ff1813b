package pipeline_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vikashrahii/pipeline"
	"github.com/vikashrahii/pipeline/pkg/adapters/memory"
	"github.com/vikashrahii/pipeline/pkg/domain"
	"github.com/vikashrahii/pipeline/pkg/layout"
	"github.com/vikashrahii/pipeline/pkg/submit"
)

func TestEditor_SharedStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	editor := pipeline.New(pipeline.WithStore(store))
	assert.Same(t, store, editor.Store())

	_, err := editor.AddTextNode(ctx, "t", domain.Position{X: 10, Y: 20})
	require.NoError(t, err)
	_, err = editor.EditText(ctx, "t", "{{a}} {{b}}")
	require.NoError(t, err)

	text, found, err := store.NodeField(ctx, "t", domain.FieldText)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "{{a}} {{b}}", text)

	vars, _, err := store.NodeField(ctx, "t", domain.FieldVariables)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, vars)
}

func TestEditor_Measurer(t *testing.T) {
	ctx := context.Background()
	editor := pipeline.New(pipeline.WithMeasurer(layout.MeasurerFunc(func(string, float64) float64 { return 300 })))

	view, err := editor.AddTextNode(ctx, "t", domain.Position{})
	require.NoError(t, err)
	assert.Equal(t, 365.0, view.Size.Height)
}

func TestEditor_Hooks(t *testing.T) {
	ctx := context.Background()
	var reconciles, submits int
	editor := pipeline.New(
		pipeline.WithValidatorEndpoint("http://127.0.0.1:1/pipelines/parse"),
		pipeline.WithNotifier(submit.NotifierFunc(func(string) {})),
		pipeline.WithLifecycleHooks(domain.LifecycleHooks{
			OnReconcile: func(context.Context, *domain.ReconcileEvent) { reconciles++ },
		}),
		pipeline.WithLifecycleHooks(domain.LifecycleHooks{
			OnSubmit: func(_ context.Context, e *domain.SubmitEvent) {
				submits++
				assert.Error(t, e.Err)
			},
		}),
	)

	_, err := editor.AddTextNode(ctx, "t", domain.Position{})
	require.NoError(t, err)
	_, err = editor.EditText(ctx, "t", "x")
	require.NoError(t, err)
	assert.Equal(t, 2, reconciles)

	_, err = editor.SubmitAndNotify(ctx)
	assert.True(t, errors.Is(err, submit.ErrTransport))
	assert.Equal(t, 1, submits)
}

func TestEditor_LoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := pipeline.New()
	require.NoError(t, src.AddNode(ctx, domain.NodeRecord{ID: "in", Type: domain.NodeTypeInput}))
	_, err := src.AddTextNode(ctx, "t", domain.Position{})
	require.NoError(t, err)
	_, err = src.EditText(ctx, "t", "Use {{ctx}}")
	require.NoError(t, err)
	_, err = src.Connect(ctx, domain.EdgeRecord{Source: "in", Target: "t", TargetHandle: "t-ctx"})
	require.NoError(t, err)

	g, err := src.Graph(ctx)
	require.NoError(t, err)

	dst := pipeline.New()
	require.NoError(t, dst.Load(ctx, g))
	view, err := dst.View("t")
	require.NoError(t, err)
	assert.Equal(t, "Use {{ctx}}", view.Text)
	assert.Equal(t, []string{"ctx"}, view.Variables)

	got, err := dst.Graph(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Edges, 1)
}

func TestEditor_Ping(t *testing.T) {
	validator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Ping":"Pong"}`))
	}))
	defer validator.Close()

	editor := pipeline.New(pipeline.WithValidatorEndpoint(validator.URL + "/pipelines/parse"))
	assert.NoError(t, editor.Ping(context.Background()))
}
