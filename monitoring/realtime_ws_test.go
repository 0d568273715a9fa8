package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startHub(t *testing.T, heartbeat time.Duration) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx, heartbeat)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-hub.Done()
	})
	waitFor(t, func() bool { return hub.Publish("ping", nil) == nil })
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func readMessage(t *testing.T, conn *websocket.Conn, want MessageType) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.Type == want {
			return msg
		}
	}
}

func TestHubPublishReachesClients(t *testing.T) {
	hub, srv := startHub(t, 0)
	first := dial(t, srv)
	second := dial(t, srv)
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	payload := []map[string]string{{"description": "buy milk", "priority": "Low"}}
	if err := hub.Publish(string(TasksChanged), payload); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn, TasksChanged)
		if msg.ID == "" || msg.Timestamp.IsZero() {
			t.Fatalf("envelope missing id or timestamp: %+v", msg)
		}
		var got []map[string]string
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		if len(got) != 1 || got[0]["description"] != "buy milk" {
			t.Fatalf("unexpected data %s", msg.Data)
		}
	}
}

func TestHubHeartbeat(t *testing.T) {
	hub, srv := startHub(t, 20*time.Millisecond)
	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	msg := readMessage(t, conn, Heartbeat)
	if !strings.Contains(string(msg.Data), "alive") {
		t.Fatalf("unexpected heartbeat data %s", msg.Data)
	}
}

func TestHubUnregistersClosedClient(t *testing.T) {
	hub, srv := startHub(t, 0)
	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestHubPublishWhenStopped(t *testing.T) {
	hub := NewHub(nil)
	if err := hub.Publish(string(TasksChanged), nil); !errors.Is(err, ErrHubStopped) {
		t.Fatalf("expected ErrHubStopped, got %v", err)
	}
}
