// Package toolcall parses and executes the tool-invocation directives that
// assistant messages embed as fenced "plugin" code blocks.
package toolcall

import (
	"encoding/json"
	"net/url"

	"github.com/pkg/errors"
)

// Parse failure kinds, each a distinct failure point checked in order.
var (
	// ErrMalformedPayload: the directive body is not well-formed JSON.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrMissingTarget: the url field is absent or not a string.
	ErrMissingTarget = errors.New("url is required")
	// ErrInvalidTarget: the url field does not parse as an absolute URL.
	ErrInvalidTarget = errors.New("invalid url")
)

// Options are the transport options of a directive. Method, headers and body
// are passed through verbatim; nothing here is policy-checked.
type Options struct {
	Method  string
	Headers map[string]string
	// Body is the request body after normalization: a non-string body value
	// is re-encoded to its JSON text. HasBody distinguishes an absent body
	// from an empty one.
	Body    string
	HasBody bool
	// Extra carries any other transport fields of the directive untouched.
	Extra map[string]any
}

// Request is a validated tool-invocation request. It is derived transiently
// from message text and never persisted as a structured object.
type Request struct {
	URL     string
	Options Options
}

// Parse turns the verbatim text of a directive block into a validated
// Request. Shape validation only: header names, HTTP method and body size are
// unconstrained.
func Parse(raw string) (*Request, error) {
	var payload struct {
		URL     any            `json:"url"`
		Options map[string]any `json:"options"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, errors.Wrap(ErrMalformedPayload, err.Error())
	}

	target, ok := payload.URL.(string)
	if !ok {
		return nil, ErrMissingTarget
	}
	u, err := url.Parse(target)
	if err != nil || !u.IsAbs() {
		return nil, errors.Wrapf(ErrInvalidTarget, "%q", target)
	}

	req := &Request{URL: target}
	for key, value := range payload.Options {
		switch key {
		case "method":
			if s, ok := value.(string); ok {
				req.Options.Method = s
			}
		case "headers":
			if h, ok := value.(map[string]any); ok {
				req.Options.Headers = make(map[string]string, len(h))
				for name, v := range h {
					if s, ok := v.(string); ok {
						req.Options.Headers[name] = s
					}
				}
			}
		case "body":
			req.Options.HasBody = true
			if s, ok := value.(string); ok {
				req.Options.Body = s
			} else {
				// Structured bodies are coerced to their JSON text, not
				// rejected.
				encoded, _ := json.Marshal(value)
				req.Options.Body = string(encoded)
			}
		default:
			if req.Options.Extra == nil {
				req.Options.Extra = make(map[string]any)
			}
			req.Options.Extra[key] = value
		}
	}
	return req, nil
}
