package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/vikashrahii/pipeline"
	"github.com/vikashrahii/pipeline/internal/sanitize"
	"github.com/vikashrahii/pipeline/pkg/adapters/memory"
	"github.com/vikashrahii/pipeline/pkg/domain"
	"github.com/vikashrahii/pipeline/pkg/node"
	"github.com/vikashrahii/pipeline/pkg/submit"
	"github.com/vikashrahii/pipeline/pkg/template"
)

// GraphURI is the resource exposing the current pipeline graph.
const GraphURI = "pipeline://graph"

// Editor defines what the MCP server needs from the pipeline editor.
type Editor interface {
	AddTextNode(ctx context.Context, id string, pos domain.Position) (node.View, error)
	EditText(ctx context.Context, id, text string) (node.View, error)
	View(id string) (node.View, error)
	Graph(ctx context.Context) (domain.Graph, error)
	Submit(ctx context.Context) (*submit.Result, error)
}

// VariablesResponse is the result of extract_variables.
type VariablesResponse struct {
	Variables []string `json:"variables" jsonschema_description:"Distinct variable names in order of first appearance"`
	Summary   string   `json:"summary,omitempty" jsonschema_description:"The line shown under the text area"`
}

// NodeResponse is the derived state of a text node.
type NodeResponse struct {
	node.View
	Summary string `json:"summary,omitempty" jsonschema_description:"The line shown under the text area"`
}

// SubmitResponse is the validator's analysis of the pipeline.
type SubmitResponse struct {
	submit.Result
	Summary string `json:"summary" jsonschema_description:"Human readable analysis"`
}

// TextArgs are the arguments of extract_variables.
type TextArgs struct {
	Text string `json:"text"`
}

// NodeArgs are the arguments of preview_node and edit_node.
type NodeArgs struct {
	NodeID string `json:"node_id"`
	Text   string `json:"text"`
}

// Server exposes the pipeline editor as an MCP server.
type Server struct {
	editor    Editor
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(editor Editor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		editor:    editor,
		logger:    logger,
		mcpServer: server.NewMCPServer("pipeline-mcp", strings.TrimSpace(pipeline.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("extract_variables",
		mcp.WithDescription("List the {{variable}} references in a template text."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Template text")),
		mcp.WithOutputSchema[VariablesResponse](),
	), mcp.NewStructuredToolHandler(s.handleExtract))

	s.mcpServer.AddTool(mcp.NewTool("preview_node",
		mcp.WithDescription("Derive the ports and size a text node would have for the given text, without touching the pipeline."),
		mcp.WithString("node_id", mcp.Description("Node id used for port ids (default: preview)")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Template text")),
		mcp.WithOutputSchema[NodeResponse](),
	), mcp.NewStructuredToolHandler(s.handlePreview))

	s.mcpServer.AddTool(mcp.NewTool("edit_node",
		mcp.WithDescription("Set the text of a text node in the pipeline, creating the node if needed."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Text node id")),
		mcp.WithString("text", mcp.Required(), mcp.Description("New template text")),
		mcp.WithOutputSchema[NodeResponse](),
	), mcp.NewStructuredToolHandler(s.handleEdit))

	s.mcpServer.AddTool(mcp.NewTool("submit_pipeline",
		mcp.WithDescription("Send the pipeline to the validator and report node count, edge count and whether it is a DAG."),
		mcp.WithOutputSchema[SubmitResponse](),
	), mcp.NewStructuredToolHandler(s.handleSubmit))

	s.mcpServer.AddTool(mcp.NewTool("get_pipeline",
		mcp.WithDescription("Get the full pipeline graph."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, err := s.graphJSON(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(b)), nil
	})
}

func (s *Server) handleExtract(ctx context.Context, request mcp.CallToolRequest, args TextArgs) (VariablesResponse, error) {
	vars := template.ExtractVariables(args.Text)
	return VariablesResponse{Variables: vars, Summary: template.Summary(vars)}, nil
}

func (s *Server) handlePreview(ctx context.Context, request mcp.CallToolRequest, args NodeArgs) (NodeResponse, error) {
	id := args.NodeID
	if id == "" {
		id = "preview"
	}
	text, err := sanitize.Text(args.Text)
	if err != nil {
		return NodeResponse{}, err
	}
	store := memory.NewStore()
	if err := store.PutNode(ctx, domain.NodeRecord{ID: id, Type: domain.NodeTypeText}); err != nil {
		return NodeResponse{}, fmt.Errorf("preview failed: %w", err)
	}
	n, err := node.New(ctx, id, store, node.WithText(text), node.WithLogger(s.logger))
	if err != nil {
		return NodeResponse{}, fmt.Errorf("preview failed: %w", err)
	}
	if text == "" {
		if _, err := n.SetText(ctx, ""); err != nil {
			return NodeResponse{}, fmt.Errorf("preview failed: %w", err)
		}
	}
	return NodeResponse{View: n.View(), Summary: n.Summary()}, nil
}

func (s *Server) handleEdit(ctx context.Context, request mcp.CallToolRequest, args NodeArgs) (NodeResponse, error) {
	if args.NodeID == "" {
		return NodeResponse{}, fmt.Errorf("%w: node_id is required", domain.ErrInvalidRecord)
	}
	text, err := sanitize.Text(args.Text)
	if err != nil {
		return NodeResponse{}, err
	}
	if _, err := s.editor.View(args.NodeID); err != nil {
		if _, err := s.editor.AddTextNode(ctx, args.NodeID, domain.Position{}); err != nil {
			return NodeResponse{}, fmt.Errorf("create failed: %w", err)
		}
	}
	view, err := s.editor.EditText(ctx, args.NodeID, text)
	if err != nil {
		return NodeResponse{}, fmt.Errorf("edit failed: %w", err)
	}
	return NodeResponse{View: view, Summary: template.Summary(view.Variables)}, nil
}

func (s *Server) handleSubmit(ctx context.Context, request mcp.CallToolRequest, args struct{}) (SubmitResponse, error) {
	res, err := s.editor.Submit(ctx)
	if err != nil {
		s.logger.Error("MCP Submit: validator call failed", "err", err)
		return SubmitResponse{}, fmt.Errorf("%s: %w", submit.FailureNotice, err)
	}
	return SubmitResponse{Result: *res, Summary: res.Summary()}, nil
}

func (s *Server) graphJSON(ctx context.Context) ([]byte, error) {
	g, err := s.editor.Graph(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline: %w", err)
	}
	return json.Marshal(g.Normalize())
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Current Pipeline Graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := s.graphJSON(ctx)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	})
}
