package toolcall

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lithammer/shortuuid/v4"
	"github.com/tmc/langchaingo/tools"
)

// FailurePrefix starts every failure outcome line.
const FailurePrefix = "Request failed: "

// ToolName is the registry key the executor is dispatched under.
const ToolName = "http_request"

// Executor performs the network call described by a directive and converts
// every outcome, success or failure, to chat-displayable text. It satisfies
// the langchaingo tools.Tool interface so it can live in a tool registry.
type Executor struct {
	client *http.Client
}

var _ tools.Tool = (*Executor)(nil)

// NewExecutor creates an Executor. The client carries no timeout: a stalled
// call stays pending until its context is done.
func NewExecutor() *Executor {
	return &Executor{client: &http.Client{}}
}

func (e *Executor) Name() string { return ToolName }

func (e *Executor) Description() string {
	return "Issue the HTTP request described by a JSON directive with keys `url` (string, absolute URL) and `options` (method, headers, body)."
}

// Call implements tools.Tool. The returned error is always nil; failures are
// part of the outcome text.
func (e *Executor) Call(ctx context.Context, input string) (string, error) {
	return e.Run(ctx, input), nil
}

// Run parses and executes the raw directive text. It never fails: the result
// is always displayable outcome text.
func (e *Executor) Run(ctx context.Context, raw string) string {
	req, err := Parse(raw)
	if err != nil {
		slog.Warn("directive rejected", "err", err)
		return FailurePrefix + err.Error()
	}
	return e.Execute(ctx, req)
}

// Execute issues exactly one network call for the validated request. On
// success the outcome is the verbatim response body in a json fence; on any
// failure it is a single prefixed line. No failure escapes this boundary.
func (e *Executor) Execute(ctx context.Context, req *Request) string {
	id := shortuuid.New()
	slog.Info("tool invocation", "id", id, "url", req.URL, "method", req.Options.Method)

	method := req.Options.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if req.Options.HasBody {
		body = strings.NewReader(req.Options.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		slog.Warn("tool invocation failed", "id", id, "err", err)
		return FailurePrefix + err.Error()
	}
	for name, value := range req.Options.Headers {
		httpReq.Header.Set(name, value)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		slog.Warn("tool invocation failed", "id", id, "err", err)
		return FailurePrefix + err.Error()
	}
	defer resp.Body.Close()

	// Non-2xx is not distinguished from success; the body is the outcome
	// either way.
	text, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("tool invocation failed", "id", id, "err", err)
		return FailurePrefix + err.Error()
	}
	slog.Info("tool invocation done", "id", id, "status", resp.StatusCode, "bytes", len(text))
	return "```json\n" + string(text) + "\n```\n"
}

// Registry is a name-keyed set of tools, dispatched the same way for every
// tool kind.
type Registry map[string]tools.Tool

// NewRegistry builds a registry from the given tools.
func NewRegistry(list ...tools.Tool) Registry {
	r := make(Registry, len(list))
	for _, t := range list {
		r[t.Name()] = t
	}
	return r
}

// Dispatch runs the named tool and always returns displayable text.
func (r Registry) Dispatch(ctx context.Context, name, input string) string {
	t, ok := r[name]
	if !ok {
		return "Unknown tool: " + name
	}
	out, err := t.Call(ctx, input)
	if err != nil {
		return "Error: " + err.Error()
	}
	return out
}
