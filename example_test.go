package pipeline_test

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"

	"github.com/vikashrahii/pipeline"
	"github.com/vikashrahii/pipeline/pkg/domain"
	"github.com/vikashrahii/pipeline/pkg/submit"
)

// ExampleEditor shows a text node deriving its ports from the variables in its text.
func ExampleEditor() {
	ctx := context.Background()
	editor := pipeline.New()

	if _, err := editor.AddTextNode(ctx, "text-1", domain.Position{}); err != nil {
		log.Fatal(err)
	}
	view, err := editor.EditText(ctx, "text-1", "Hello {{name}}, you are {{age}}")
	if err != nil {
		log.Fatal(err)
	}
	summary, _ := editor.Summary("text-1")

	fmt.Println(view.Variables)
	fmt.Println(view.Ports.IDs())
	fmt.Println(summary)
	// Output:
	// [name age]
	// [text-1-name text-1-age text-1-output]
	// Variables detected: name, age
}

// ExampleEditor_SubmitAndNotify submits the composed graph to a validator.
func ExampleEditor_SubmitAndNotify() {
	validator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"num_nodes": 2, "num_edges": 1, "is_dag": true}`))
	}))
	defer validator.Close()

	ctx := context.Background()
	editor := pipeline.New(
		pipeline.WithValidatorEndpoint(validator.URL),
		pipeline.WithNotifier(submit.NotifierFunc(func(msg string) { fmt.Println(msg) })),
	)
	_ = editor.AddNode(ctx, domain.NodeRecord{ID: "in-1", Type: domain.NodeTypeInput})
	_, _ = editor.AddTextNode(ctx, "text-1", domain.Position{})
	_, _ = editor.Connect(ctx, domain.EdgeRecord{Source: "in-1", Target: "text-1", TargetHandle: "text-1-input"})

	if _, err := editor.SubmitAndNotify(ctx); err != nil {
		log.Fatal(err)
	}
	// Output:
	// Pipeline Analysis Results:
	//
	// Number of Nodes: 2
	// Number of Edges: 1
	// Is DAG: Yes
}
