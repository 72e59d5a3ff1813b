package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/vikashrahii/pipeline"
	"github.com/vikashrahii/pipeline/internal/sanitize"
	"github.com/vikashrahii/pipeline/pkg/domain"
	"github.com/vikashrahii/pipeline/pkg/node"
	"github.com/vikashrahii/pipeline/pkg/submit"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Editor is the part of the pipeline editor the HTTP API drives.
type Editor interface {
	AddTextNode(ctx context.Context, id string, pos domain.Position) (node.View, error)
	AddNode(ctx context.Context, rec domain.NodeRecord) error
	EditText(ctx context.Context, id, text string) (node.View, error)
	View(id string) (node.View, error)
	Summary(id string) (string, error)
	RemoveNode(ctx context.Context, id string) error
	Connect(ctx context.Context, e domain.EdgeRecord) (domain.EdgeRecord, error)
	Disconnect(ctx context.Context, edgeID string) error
	DanglingEdges(ctx context.Context, nodeID string) ([]domain.EdgeRecord, error)
	Graph(ctx context.Context) (domain.Graph, error)
	Submit(ctx context.Context) (*submit.Result, error)
}

// DefaultAllowedOrigins is the canvas dev server.
var DefaultAllowedOrigins = []string{"http://localhost:3000"}

// Server serves the editor API.
type Server struct {
	editor   Editor
	streams  *StreamManager
	spec     *openapi3.T
	metrics  http.Handler
	origins  []string
	logger   *slog.Logger
	validate *validator.Validate
}

// Option configures the Server.
type Option func(*Server)

// WithStreams enables GET /events backed by sm. Wire sm.Hooks() into the editor.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.streams = sm
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithAllowedOrigins sets the CORS origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler creates the HTTP handler for the editor API.
func NewHandler(editor Editor, opts ...Option) (http.Handler, error) {
	spec, err := LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}

	s := &Server{
		editor:   editor,
		spec:     spec,
		origins:  DefaultAllowedOrigins,
		logger:   slog.Default(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.cors)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/nodes", func(r chi.Router) {
		r.Post("/", s.CreateNode)
		r.Get("/{id}", s.GetNode)
		r.Delete("/{id}", s.DeleteNode)
		r.Put("/{id}/text", s.SetNodeText)
	})
	r.Post("/edges", s.CreateEdge)
	r.Delete("/edges/{id}", s.DeleteEdge)
	r.Get("/pipeline", s.GetPipeline)
	r.Post("/pipeline/submit", s.SubmitPipeline)
	if s.streams != nil {
		r.Get("/events", s.SubscribeEvents)
	}

	return otelhttp.NewHandler(r, "pipeline-http"), nil
}

// cors allows the canvas origin, mirroring the validator's CORS policy.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (slices.Contains(s.origins, origin) || slices.Contains(s.origins, "*")) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Pipeline Editor API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.spec.Info != nil {
		apiVersion = s.spec.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "pipeline-http",
		"version":     strings.TrimSpace(pipeline.Version),
		"api_version": apiVersion,
	})
}

type createNodeRequest struct {
	ID       string          `json:"id" validate:"omitempty,max=128,excludesall=/"`
	Type     string          `json:"type" validate:"omitempty,oneof=text customInput customOutput llm"`
	Position domain.Position `json:"position"`
	Data     map[string]any  `json:"data"`
}

type nodeResponse struct {
	node.View
	Type          string              `json:"type"`
	Summary       string              `json:"summary,omitempty"`
	DanglingEdges []domain.EdgeRecord `json:"dangling_edges,omitempty"`
}

// CreateNode handles POST /nodes. Text nodes get an id of the form text-<uuid> when none is given.
func (s *Server) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req createNodeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Type == "" {
		req.Type = domain.NodeTypeText
	}
	if req.ID == "" {
		req.ID = req.Type + "-" + uuid.NewString()
	}

	if req.Type != domain.NodeTypeText {
		rec := domain.NodeRecord{ID: req.ID, Type: req.Type, Position: req.Position, Data: req.Data}
		if err := s.editor.AddNode(r.Context(), rec); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, rec)
		return
	}

	text, hasText := req.Data[domain.FieldText].(string)
	if hasText {
		clean, err := sanitize.Text(text)
		if err != nil {
			s.writeError(w, err)
			return
		}
		text = clean
	}

	view, err := s.editor.AddTextNode(r.Context(), req.ID, req.Position)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if hasText {
		if view, err = s.editor.EditText(r.Context(), req.ID, text); err != nil {
			s.writeError(w, err)
			return
		}
	}
	s.writeNode(w, r, http.StatusCreated, view)
}

// GetNode handles GET /nodes/{id}.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	view, err := s.editor.View(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeNode(w, r, http.StatusOK, view)
}

type setTextRequest struct {
	Text *string `json:"text" validate:"required"`
}

// SetNodeText handles PUT /nodes/{id}/text.
func (s *Server) SetNodeText(w http.ResponseWriter, r *http.Request) {
	var req setTextRequest
	if !s.decode(w, r, &req) {
		return
	}
	view, err := s.editText(r, chi.URLParam(r, "id"), *req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeNode(w, r, http.StatusOK, view)
}

func (s *Server) editText(r *http.Request, id, text string) (node.View, error) {
	clean, err := sanitize.Text(text)
	if err != nil {
		return node.View{}, err
	}
	return s.editor.EditText(r.Context(), id, clean)
}

// DeleteNode handles DELETE /nodes/{id}.
func (s *Server) DeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := s.editor.RemoveNode(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type edgeRequest struct {
	ID           string `json:"id"`
	Source       string `json:"source" validate:"required"`
	SourceHandle string `json:"sourceHandle"`
	Target       string `json:"target" validate:"required"`
	TargetHandle string `json:"targetHandle"`
	Type         string `json:"type"`
	Animated     bool   `json:"animated"`
}

// CreateEdge handles POST /edges.
func (s *Server) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if !s.decode(w, r, &req) {
		return
	}
	edge, err := s.editor.Connect(r.Context(), domain.EdgeRecord(req))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, edge)
}

// DeleteEdge handles DELETE /edges/{id}.
func (s *Server) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	if err := s.editor.Disconnect(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPipeline handles GET /pipeline.
func (s *Server) GetPipeline(w http.ResponseWriter, r *http.Request) {
	g, err := s.editor.Graph(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, g.Normalize())
}

// SubmitPipeline handles POST /pipeline/submit.
func (s *Server) SubmitPipeline(w http.ResponseWriter, r *http.Request) {
	res, err := s.editor.Submit(r.Context())
	if err != nil {
		s.logger.Error("Error submitting pipeline", "err", err)
		s.writeJSON(w, http.StatusBadGateway, map[string]string{"error": submit.FailureNotice})
		return
	}
	s.writeJSON(w, http.StatusOK, struct {
		submit.Result
		Summary string `json:"summary"`
	}{*res, res.Summary()})
}

// SubscribeEvents handles GET /events (SSE). With node_id, only that node's events are sent.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	topic := r.URL.Query().Get("node_id")
	ch, cancel := s.streams.Subscribe(topic)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) writeNode(w http.ResponseWriter, r *http.Request, status int, view node.View) {
	resp := nodeResponse{View: view, Type: domain.NodeTypeText}
	resp.Summary, _ = s.editor.Summary(view.ID)
	dangling, err := s.editor.DanglingEdges(r.Context(), view.ID)
	if err != nil {
		s.logger.Warn("Failed to list dangling edges", "node_id", view.ID, "err", err)
	}
	resp.DanglingEdges = dangling
	s.writeJSON(w, status, resp)
}

// decode reads and validates a JSON body, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNodeNotFound), errors.Is(err, domain.ErrEdgeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateNode):
		return http.StatusConflict
	case errors.Is(err, sanitize.ErrTextTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInvalidRecord), errors.Is(err, sanitize.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, submit.ErrTransport), errors.Is(err, submit.ErrResponse):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
