package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/vikashrahii/pipeline/internal/logging"
	"github.com/vikashrahii/pipeline/pkg/domain"
	"github.com/vikashrahii/pipeline/pkg/ports"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultEndpoint is the validator's parse route.
const DefaultEndpoint = "http://localhost:8000/pipelines/parse"

// FormField is the multipart field carrying the graph JSON.
const FormField = "pipeline"

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 512

// Client submits graphs to the validator. It never retries and sets no timeout
// of its own; callers bound requests through ctx or WithHTTPClient.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
	notifier Notifier
	hooks    domain.LifecycleHooks
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint sets the validator URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger receiving failure details.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithNotifier sets where SubmitAndNotify surfaces its notice.
func WithNotifier(n Notifier) Option {
	return func(c *Client) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithHooks registers lifecycle hooks for submissions.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Client) {
		c.hooks = c.hooks.Merge(hooks)
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		http:     &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger:   logging.NewNop(),
		notifier: WriterNotifier{W: os.Stdout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the validator URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Submit snapshots the store and submits the graph.
func (c *Client) Submit(ctx context.Context, store ports.GraphStore) (*Result, error) {
	g, err := store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot graph: %w", err)
	}
	return c.SubmitGraph(ctx, g)
}

// SubmitGraph posts g to the validator and parses its verdict.
func (c *Client) SubmitGraph(ctx context.Context, g domain.Graph) (*Result, error) {
	start := time.Now()
	res, err := c.post(ctx, g.Normalize())

	if c.hooks.OnSubmit != nil {
		evt := &domain.SubmitEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventSubmit},
			Nodes:     len(g.Nodes),
			Edges:     len(g.Edges),
			Duration:  time.Since(start),
			Err:       err,
		}
		if res != nil {
			evt.IsDAG = res.IsDAG
		}
		c.hooks.OnSubmit(ctx, evt)
	}
	return res, err
}

// SubmitAndNotify is the submit button flow: it submits, surfaces exactly one
// notice (the summary or FailureNotice) and logs failure details.
// The returned error is for callers that need it; the notice is already shown.
func (c *Client) SubmitAndNotify(ctx context.Context, store ports.GraphStore) (*Result, error) {
	res, err := c.Submit(ctx, store)
	if err != nil {
		c.logger.Error("Error submitting pipeline", "endpoint", c.endpoint, "err", err)
		c.notifier.Notify(FailureNotice)
		return nil, err
	}
	c.notifier.Notify(res.Summary())
	return res, nil
}

func (c *Client) post(ctx context.Context, g domain.Graph) (*Result, error) {
	payload, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("failed to encode graph: %w", err)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField(FormField, string(payload)); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var raw response
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResponse, err)
	}
	return raw.result()
}

// Ping checks the validator is up by calling its root route, which answers {"Ping": "Pong"}.
func (c *Client) Ping(ctx context.Context) error {
	root, err := rootURL(c.endpoint)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, root, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
	}
	var pong map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&pong); err != nil {
		return fmt.Errorf("%w: %w", ErrResponse, err)
	}
	if pong["Ping"] != "Pong" {
		return fmt.Errorf("%w: unexpected ping answer %v", ErrResponse, pong)
	}
	return nil
}
