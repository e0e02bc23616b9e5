package toolcall

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("valid request keeps the url verbatim", func(t *testing.T) {
		req, err := Parse(`{"url":"https://api.example.com/x"}`)
		require.NoError(t, err)
		require.Equal(t, "https://api.example.com/x", req.URL)
		require.Empty(t, req.Options.Method)
		require.False(t, req.Options.HasBody)
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := Parse(`{"url":`)
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrMalformedPayload))
	})

	t.Run("missing url", func(t *testing.T) {
		_, err := Parse(`{"options":{}}`)
		require.True(t, errors.Is(err, ErrMissingTarget))
	})

	t.Run("non-string url", func(t *testing.T) {
		_, err := Parse(`{"url":42}`)
		require.True(t, errors.Is(err, ErrMissingTarget))
	})

	t.Run("relative url", func(t *testing.T) {
		_, err := Parse(`{"url":"not a url"}`)
		require.True(t, errors.Is(err, ErrInvalidTarget))

		_, err = Parse(`{"url":"/relative/path"}`)
		require.True(t, errors.Is(err, ErrInvalidTarget))
	})

	t.Run("string body passes through", func(t *testing.T) {
		req, err := Parse(`{"url":"https://api.example.com/x","options":{"body":"hello"}}`)
		require.NoError(t, err)
		require.True(t, req.Options.HasBody)
		require.Equal(t, "hello", req.Options.Body)
	})

	t.Run("structured body is coerced to its JSON text", func(t *testing.T) {
		req, err := Parse(`{"url":"https://api.example.com/x","options":{"body":{"a":1}}}`)
		require.NoError(t, err)
		require.True(t, req.Options.HasBody)
		require.JSONEq(t, `{"a":1}`, req.Options.Body)

		req, err = Parse(`{"url":"https://api.example.com/x","options":{"body":[1,2]}}`)
		require.NoError(t, err)
		require.Equal(t, "[1,2]", req.Options.Body)
	})

	t.Run("method and headers are unconstrained", func(t *testing.T) {
		req, err := Parse(`{"url":"https://api.example.com/x","options":{"method":"BREW","headers":{"X-Weird":"1"}}}`)
		require.NoError(t, err)
		require.Equal(t, "BREW", req.Options.Method)
		require.Equal(t, map[string]string{"X-Weird": "1"}, req.Options.Headers)
	})

	t.Run("unknown transport fields are kept", func(t *testing.T) {
		req, err := Parse(`{"url":"https://api.example.com/x","options":{"mode":"cors"}}`)
		require.NoError(t, err)
		require.Equal(t, "cors", req.Options.Extra["mode"])
	})
}
