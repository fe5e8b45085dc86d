package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpggio/actionplan/internal/chat"
	"github.com/rpggio/actionplan/internal/outbox"
	"github.com/stretchr/testify/require"
)

type echoHandler struct {
	sender chat.Sender
	events []chat.Event
}

func (h *echoHandler) HandleEvent(ctx context.Context, ev chat.Event) {
	h.events = append(h.events, ev)
	_ = h.sender.Send(ctx, chat.Message{Target: ev.From.Handle, Text: "got " + ev.Kind().String()})
}

type staticHealth struct {
	err error
}

func (h staticHealth) HealthCheck(context.Context) error { return h.err }

func newEchoServer(t *testing.T, secret string) (*httptest.Server, *echoHandler) {
	t.Helper()
	handler := &echoHandler{sender: outbox.NewSender(nil, nil)}
	server := httptest.NewServer(NewServer(Config{Events: handler, Health: staticHealth{}, WebhookSecret: secret}))
	t.Cleanup(server.Close)
	return server, handler
}

func postEvent(t *testing.T, url, secret, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/events", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(WebhookSecretHeader, secret)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHTTPServer_Events(t *testing.T) {
	server, handler := newEchoServer(t, "s3cret")

	resp := postEvent(t, server.URL, "s3cret", `{"from":{"handle":"42"},"kind":"button","data":"tasks:all"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out EventResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Replies, 1)
	require.Equal(t, "42", out.Replies[0].Target)
	require.Equal(t, "got button", out.Replies[0].Text)

	require.Len(t, handler.events, 1)
	require.Equal(t, chat.Button{Data: "tasks:all"}, handler.events[0].Payload)
}

func TestHTTPServer_EventsRequiresSecret(t *testing.T) {
	server, handler := newEchoServer(t, "s3cret")

	resp := postEvent(t, server.URL, "", `{"from":{"handle":"42"},"kind":"text","text":"hi"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Empty(t, handler.events)
}

func TestHTTPServer_InvalidEvent(t *testing.T) {
	server, handler := newEchoServer(t, "")

	for _, body := range []string{
		`not json`,
		`{"from":{"handle":""},"kind":"text","text":"hi"}`,
		`{"from":{"handle":"1"},"kind":"sticker"}`,
		`{"from":{"handle":"1"},"kind":"media"}`,
	} {
		resp := postEvent(t, server.URL, "", body)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
	require.Empty(t, handler.events)
}

func TestHTTPServer_Health(t *testing.T) {
	server, _ := newEchoServer(t, "")

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestHTTPServer_HealthFailure(t *testing.T) {
	server := httptest.NewServer(NewServer(Config{
		Events: &echoHandler{sender: outbox.NewSender(nil, nil)},
		Health: staticHealth{err: errors.New("db gone")},
	}))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestEventRequest_Event(t *testing.T) {
	from := chat.User{Handle: "7"}

	ev, err := EventRequest{From: from, Kind: "command", Text: "tasks all"}.Event()
	require.NoError(t, err)
	require.Equal(t, chat.Command{Name: "tasks", Args: []string{"all"}}, ev.Payload)

	ev, err = EventRequest{From: from, Kind: "text", Text: "/start"}.Event()
	require.NoError(t, err)
	require.Equal(t, chat.KindCommand, ev.Kind())

	ev, err = EventRequest{From: from, Kind: "text", Text: "My Tasks"}.Event()
	require.NoError(t, err)
	require.Equal(t, chat.Text{Body: "My Tasks"}, ev.Payload)

	ev, err = EventRequest{From: from, Kind: "media", Media: &MediaPayload{
		Kind: "document", FileRef: "f1", FileName: "a.pdf", Size: 10,
	}}.Event()
	require.NoError(t, err)
	require.Equal(t, chat.Media{MediaKind: chat.MediaDocument, FileRef: "f1", FileName: "a.pdf", Size: 10}, ev.Payload)

	_, err = EventRequest{From: from, Kind: "command", Text: " "}.Event()
	require.ErrorIs(t, err, ErrInvalidEvent)

	_, err = EventRequest{From: from, Kind: "button"}.Event()
	require.ErrorIs(t, err, ErrInvalidEvent)
}
