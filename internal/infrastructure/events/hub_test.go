package events

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/relaxflow/core/internal/infrastructure/logger"
	"github.com/relaxflow/core/internal/ports"
)

func setupTestHub(t testing.TB) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub([]string{"*"}, logger.NewNop())

	e := echo.New()
	e.GET("/api/events", hub.ServeWS)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t testing.TB, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t testing.TB, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, got %d", n, hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_BroadcastsChangeEvents(t *testing.T) {
	hub, srv := setupTestHub(t)
	conn := dial(t, srv, "")
	waitForClients(t, hub, 1)

	hub.Publish(ports.ChangeEvent{
		Collection: "products",
		Action:     ports.ChangeCreated,
		ID:         "42",
		At:         time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got ports.ChangeEvent
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if got.Collection != "products" || got.Action != ports.ChangeCreated || got.ID != "42" {
		t.Errorf("Unexpected event %+v", got)
	}
}

func TestHub_CollectionFilter(t *testing.T) {
	hub, srv := setupTestHub(t)
	conn := dial(t, srv, "?collections=users")
	waitForClients(t, hub, 1)

	hub.Publish(ports.ChangeEvent{Collection: "products", Action: ports.ChangeDeleted, ID: "1"})
	hub.Publish(ports.ChangeEvent{Collection: "users", Action: ports.ChangeUpdated, ID: "7"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got ports.ChangeEvent
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if got.Collection != "users" || got.ID != "7" {
		t.Errorf("Expected only the users event, got %+v", got)
	}
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, srv := setupTestHub(t)
	conn := dial(t, srv, "")
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestParseCollections(t *testing.T) {
	if parseCollections("") != nil {
		t.Error("Expected nil filter for empty input")
	}
	set := parseCollections("users, products,,")
	if len(set) != 2 || !set["users"] || !set["products"] {
		t.Errorf("Unexpected filter %v", set)
	}
}
