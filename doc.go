/*
Package pipeline is a library for building visual pipeline editors around
template text nodes.

A text node holds free-form text with inline variable references such as
{{name}}. Every edit re-derives the node's state in one step: the distinct
variables in first-appearance order, one input port per variable plus one
output port, and a node size that grows with the text and the port count.
Derived fields are published to a shared graph store, which is what gets
submitted to a remote validator reporting node and edge counts and whether
the graph is acyclic.

# Usage

	ed := pipeline.New(pipeline.WithValidatorEndpoint("http://localhost:8000/pipelines/parse"))

	view, err := ed.AddTextNode(ctx, "text-1", domain.Position{X: 100, Y: 80})
	if err != nil {
		log.Fatal(err)
	}

	view, err = ed.EditText(ctx, "text-1", "Hello {{name}}, you are {{age}}")
	// view.Variables == []string{"name", "age"}
	// view.Ports.Inputs[0].ID == "text-1-name"

	res, err := ed.Submit(ctx)
	fmt.Println(res.Summary())

# Packages

  - pkg/template: variable extraction.
  - pkg/layout: port derivation, sizing and text measurement.
  - pkg/node: the text node and its reconciliation.
  - pkg/canvas: live nodes, per-node locking and edges.
  - pkg/submit: the validator client.
  - pkg/adapters: memory and redis graph stores, HTTP and MCP servers.
*/
package pipeline
