package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/require"

	"github.com/fruitbox12/zik.sh/plugin/toolcall"
	"github.com/fruitbox12/zik.sh/server/profile"
	"github.com/fruitbox12/zik.sh/store"
	"github.com/fruitbox12/zik.sh/store/db/sqlite"
)

func newTestServer(t *testing.T, autoExecute bool) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	prof := &profile.Profile{
		Mode:        "prod",
		Driver:      "sqlite",
		DSN:         filepath.Join(dir, "zik_test.db"),
		Data:        dir,
		AutoExecute: autoExecute,
	}
	driver, err := sqlite.NewDB(prof)
	require.NoError(t, err)
	st := store.New(driver)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	e := echo.New()
	NewAPIV1Service(prof, st).Register(e)
	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, payload any, out any) int {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < http.StatusBadRequest {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestChatSessionEndpoints(t *testing.T) {
	ts := newTestServer(t, false)

	var first sessionResponse
	code := doJSON(t, http.MethodPost, ts.URL+"/api/v1/chats", sessionRequest{}, &first)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, "New Chat", first.Title)
	require.NotEmpty(t, first.UID)

	var second sessionResponse
	doJSON(t, http.MethodPost, ts.URL+"/api/v1/chats", sessionRequest{Title: "Trip Plan"}, &second)
	require.Equal(t, "Trip Plan", second.Title)

	t.Run("list newest first", func(t *testing.T) {
		var list []sessionResponse
		code := doJSON(t, http.MethodGet, ts.URL+"/api/v1/chats", nil, &list)
		require.Equal(t, http.StatusOK, code)
		require.Len(t, list, 2)
		require.Equal(t, second.UID, list[0].UID)
	})

	t.Run("rename", func(t *testing.T) {
		var renamed sessionResponse
		code := doJSON(t, http.MethodPatch, ts.URL+"/api/v1/chats/"+first.UID, sessionRequest{Title: "Groceries"}, &renamed)
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "Groceries", renamed.Title)
		require.Equal(t, first.UID, renamed.UID)

		code = doJSON(t, http.MethodPatch, ts.URL+"/api/v1/chats/"+first.UID, sessionRequest{}, nil)
		require.Equal(t, http.StatusBadRequest, code)

		code = doJSON(t, http.MethodPatch, ts.URL+"/api/v1/chats/nope", sessionRequest{Title: "x"}, nil)
		require.Equal(t, http.StatusNotFound, code)
	})

	t.Run("delete returns the next session to show", func(t *testing.T) {
		var del deleteSessionResponse
		code := doJSON(t, http.MethodDelete, ts.URL+"/api/v1/chats/"+second.UID, nil, &del)
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, first.UID, del.NextUID)

		code = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/chats/"+first.UID, nil, &del)
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "", del.NextUID)

		code = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/chats/"+first.UID, nil, nil)
		require.Equal(t, http.StatusNotFound, code)
	})
}

func TestCreateChatMessage(t *testing.T) {
	ts := newTestServer(t, false)

	var sess sessionResponse
	doJSON(t, http.MethodPost, ts.URL+"/api/v1/chats", sessionRequest{}, &sess)
	base := ts.URL + "/api/v1/chats/" + sess.UID + "/messages"

	t.Run("first user message titles the session", func(t *testing.T) {
		var msg messageResponse
		code := doJSON(t, http.MethodPost, base, messageRequest{Content: "plan my trip to Kyoto\nwith details"}, &msg)
		require.Equal(t, http.StatusCreated, code)
		require.Equal(t, "user", msg.Role)

		var list []sessionResponse
		doJSON(t, http.MethodGet, ts.URL+"/api/v1/chats", nil, &list)
		require.Equal(t, "plan my trip to Kyoto", list[0].Title)
	})

	t.Run("auto-title truncates on rune boundaries", func(t *testing.T) {
		var fresh sessionResponse
		doJSON(t, http.MethodPost, ts.URL+"/api/v1/chats", sessionRequest{}, &fresh)
		doJSON(t, http.MethodPost, ts.URL+"/api/v1/chats/"+fresh.UID+"/messages",
			messageRequest{Content: strings.Repeat("é", 60)}, nil)

		var list []sessionResponse
		doJSON(t, http.MethodGet, ts.URL+"/api/v1/chats", nil, &list)
		for _, s := range list {
			if s.UID != fresh.UID {
				continue
			}
			require.True(t, utf8.ValidString(s.Title))
			require.Equal(t, strings.Repeat("é", 48), s.Title)
		}
	})

	t.Run("validation", func(t *testing.T) {
		code := doJSON(t, http.MethodPost, base, messageRequest{Content: "   "}, nil)
		require.Equal(t, http.StatusBadRequest, code)

		code = doJSON(t, http.MethodPost, base, messageRequest{Role: "system", Content: "x"}, nil)
		require.Equal(t, http.StatusBadRequest, code)

		code = doJSON(t, http.MethodPost, ts.URL+"/api/v1/chats/nope/messages", messageRequest{Content: "x"}, nil)
		require.Equal(t, http.StatusNotFound, code)
	})
}

func TestAssistantDirectiveExecution(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer stub.Close()

	ts := newTestServer(t, true)

	var sess sessionResponse
	doJSON(t, http.MethodPost, ts.URL+"/api/v1/chats", sessionRequest{}, &sess)
	base := ts.URL + "/api/v1/chats/" + sess.UID + "/messages"

	t.Run("directive outcome is appended to the conversation", func(t *testing.T) {
		content := fmt.Sprintf("Fetching now:\n\n```plugin\n{\"url\": %q}\n```\n", stub.URL)
		code := doJSON(t, http.MethodPost, base, messageRequest{Role: "assistant", Content: content}, nil)
		require.Equal(t, http.StatusCreated, code)

		var msgs []messageResponse
		doJSON(t, http.MethodGet, base, nil, &msgs)
		require.Len(t, msgs, 2)
		require.Equal(t, "assistant", msgs[0].Role)
		require.Equal(t, "user", msgs[1].Role)
		require.Equal(t, "```json\n{\"ok\":true}\n```\n", msgs[1].Content)
	})

	t.Run("invalid target still settles with a failure outcome", func(t *testing.T) {
		content := "```plugin\n{\"url\": \"not a url\"}\n```\n"
		doJSON(t, http.MethodPost, base, messageRequest{Role: "assistant", Content: content}, nil)

		var msgs []messageResponse
		doJSON(t, http.MethodGet, base, nil, &msgs)
		last := msgs[len(msgs)-1]
		require.Equal(t, "user", last.Role)
		require.True(t, strings.HasPrefix(last.Content, toolcall.FailurePrefix))
	})

	t.Run("assistant text without a directive appends nothing", func(t *testing.T) {
		var before []messageResponse
		doJSON(t, http.MethodGet, base, nil, &before)

		doJSON(t, http.MethodPost, base, messageRequest{Role: "assistant", Content: "just prose"}, nil)

		var after []messageResponse
		doJSON(t, http.MethodGet, base, nil, &after)
		require.Len(t, after, len(before)+1)
	})
}
