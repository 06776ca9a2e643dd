package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/psilabvnorg/ttsgen/internal/generate"
)

func wsTestServer(t *testing.T, serve func(conn *websocket.Conn, r *http.Request)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != GenerateWSPath {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		serve(conn, r)
	}))
}

func TestWSOpenerStreamsEvents(t *testing.T) {
	srv := wsTestServer(t, func(conn *websocket.Conn, r *http.Request) {
		if got := r.URL.Query().Get("voice_id"); got != "aria" {
			t.Errorf("voice_id = %q, want aria", got)
		}
		for _, ev := range []generate.ProgressEvent{
			{Progress: 30, Status: "Processing text..."},
			{Progress: 100, Status: "Done!", AudioData: "QUJD"},
		} {
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	ch, err := NewWSOpener(srv.URL, 0).Open(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer ch.Close()

	events := collectEvents(t, ch)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if !events[1].Terminal() {
		t.Fatalf("last event not terminal: %+v", events[1])
	}
	if err := ch.Err(); err != nil {
		t.Fatalf("Err = %v, want nil", err)
	}
}

func TestWSOpenerNormalCloseWithoutTerminal(t *testing.T) {
	srv := wsTestServer(t, func(conn *websocket.Conn, _ *http.Request) {
		_ = conn.WriteJSON(generate.ProgressEvent{Progress: 10, Status: "working"})
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	})
	defer srv.Close()

	ch, err := NewWSOpener(srv.URL, 0).Open(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer ch.Close()

	events := collectEvents(t, ch)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	// Normal close without a terminal event: the stream just ends; the
	// controller decides how to report it.
	if err := ch.Err(); err != nil {
		t.Fatalf("Err = %v, want nil on clean close", err)
	}
}

func TestWSOpenerSkipsUnparseableMessages(t *testing.T) {
	srv := wsTestServer(t, func(conn *websocket.Conn, _ *http.Request) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte("garbage"))
		_ = conn.WriteJSON(generate.ProgressEvent{Progress: 100, Status: "Done!", AudioData: "QUJD"})
	})
	defer srv.Close()

	ch, err := NewWSOpener(srv.URL, 0).Open(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer ch.Close()

	events := collectEvents(t, ch)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1 (garbage skipped)", len(events))
	}
}

func TestWSURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"http://host:8000", "ws", true},
		{"https://host", "wss", true},
		{"ws://host", "ws", true},
		{"ftp://host", "", false},
		{"http://", "", false},
	}
	for _, tc := range cases {
		u, err := wsURL(tc.in)
		if tc.ok != (err == nil) {
			t.Fatalf("wsURL(%q) err = %v, want ok=%v", tc.in, err, tc.ok)
		}
		if err == nil && u.Scheme != tc.want {
			t.Fatalf("wsURL(%q) scheme = %q, want %q", tc.in, u.Scheme, tc.want)
		}
	}
}
