package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldelevate/risk-analyzer/pkg/models"
)

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Registration runs through the hub loop; give it a moment before
	// broadcasting.
	time.Sleep(50 * time.Millisecond)
	return conn
}

func TestHubBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	conn := dialTestHub(t, hub)
	require.NoError(t, hub.Broadcast("test.event", map[string]string{"key": "value"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, "test.event", event.Type)
	assert.Equal(t, map[string]interface{}{"key": "value"}, event.Payload)
	assert.False(t, event.Timestamp.IsZero())
}

func TestHubPublishViolations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	conn := dialTestHub(t, hub)

	violations := []models.Violation{{
		Type:     models.ViolationPositionSize,
		Severity: models.SeverityHigh,
		Symbol:   "AAPL",
	}}
	require.NoError(t, hub.PublishViolations(context.Background(), violations))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, "risk.alerts", event.Type)

	payload := event.Payload.([]interface{})
	require.Len(t, payload, 1)
	assert.Equal(t, "AAPL", payload[0].(map[string]interface{})["symbol"])
}

func TestHubBroadcastWithoutClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	// No subscribers: the event is simply dropped.
	assert.NoError(t, hub.Broadcast("test.event", nil))
}
