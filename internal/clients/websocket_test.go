package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ws "loanwise/internal/transport/websocket"

	"github.com/gorilla/websocket"
)

func startNotifyHub(t *testing.T, userID int64) (*ws.Hub, *websocket.Conn) {
	t.Helper()

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r, userID)
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + server.URL[4:]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// give the hub time to register the connection
	time.Sleep(100 * time.Millisecond)

	return hub, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) (ws.Message, map[string]interface{}) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var received ws.Message
	if err := conn.ReadJSON(&received); err != nil {
		t.Fatalf("failed to read message: %v", err)
	}

	dataBytes, err := json.Marshal(received.Data)
	if err != nil {
		t.Fatalf("failed to marshal data: %v", err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		t.Fatalf("failed to unmarshal data: %v", err)
	}

	return received, data
}

func TestWebSocketClient_NotifyExportProgress(t *testing.T) {
	hub, conn := startNotifyHub(t, 1)
	client := NewWebSocketClient(hub)

	if err := client.NotifyExportProgress(context.Background(), 1, "export-123", 50.5, "generating"); err != nil {
		t.Fatalf("failed to notify progress: %v", err)
	}

	received, data := readMessage(t, conn)

	if received.Type != "export_progress" {
		t.Errorf("expected type 'export_progress', got %q", received.Type)
	}
	if received.UserID != 1 {
		t.Errorf("expected userID 1, got %d", received.UserID)
	}
	if received.Channel != "export_progress#1" {
		t.Errorf("expected channel 'export_progress#1', got %q", received.Channel)
	}
	if data["id"] != "export-123" {
		t.Errorf("expected id 'export-123', got %v", data["id"])
	}
	if data["progress"].(float64) != 50.5 {
		t.Errorf("expected progress 50.5, got %v", data["progress"])
	}
	if data["stage"] != "generating" {
		t.Errorf("expected stage 'generating', got %v", data["stage"])
	}
}

func TestWebSocketClient_NotifyExportComplete(t *testing.T) {
	hub, conn := startNotifyHub(t, 1)
	client := NewWebSocketClient(hub)

	err := client.NotifyExportComplete(context.Background(), 1, "export-123", "https://example.com/file.xlsx", "amortization_schedule_20260101.xlsx")
	if err != nil {
		t.Fatalf("failed to notify complete: %v", err)
	}

	received, data := readMessage(t, conn)

	if received.Type != "export_complete" {
		t.Errorf("expected type 'export_complete', got %q", received.Type)
	}
	if received.Channel != "export_complete#1" {
		t.Errorf("expected channel 'export_complete#1', got %q", received.Channel)
	}
	if data["id"] != "export-123" {
		t.Errorf("expected id 'export-123', got %v", data["id"])
	}
	if data["url"] != "https://example.com/file.xlsx" {
		t.Errorf("expected file url, got %v", data["url"])
	}
	if data["filename"] != "amortization_schedule_20260101.xlsx" {
		t.Errorf("unexpected filename %v", data["filename"])
	}
	if int64(data["user_id"].(float64)) != 1 {
		t.Errorf("expected user_id 1, got %v", data["user_id"])
	}
}

func TestWebSocketClient_NotifyExportFailed(t *testing.T) {
	hub, conn := startNotifyHub(t, 1)
	client := NewWebSocketClient(hub)

	if err := client.NotifyExportFailed(context.Background(), 1, "export-123", "upload failed"); err != nil {
		t.Fatalf("failed to notify failed: %v", err)
	}

	received, data := readMessage(t, conn)

	if received.Type != "export_failed" {
		t.Errorf("expected type 'export_failed', got %q", received.Type)
	}
	if received.Channel != "export_failed#1" {
		t.Errorf("expected channel 'export_failed#1', got %q", received.Channel)
	}
	if data["id"] != "export-123" {
		t.Errorf("expected id 'export-123', got %v", data["id"])
	}
	if data["message"] != "upload failed" {
		t.Errorf("expected message 'upload failed', got %v", data["message"])
	}
}

func TestWebSocketClient_NilHub(t *testing.T) {
	client := NewWebSocketClient(nil)

	if err := client.NotifyExportProgress(context.Background(), 1, "export-123", 50.5, ""); err != nil {
		t.Errorf("nil hub should be a no-op, got: %v", err)
	}
	if err := client.NotifyExportComplete(context.Background(), 1, "export-123", "https://example.com/file.xlsx", "file.xlsx"); err != nil {
		t.Errorf("nil hub should be a no-op, got: %v", err)
	}
	if err := client.NotifyExportFailed(context.Background(), 1, "export-123", "boom"); err != nil {
		t.Errorf("nil hub should be a no-op, got: %v", err)
	}
}

func TestWebSocketClient_MultipleProgressUpdates(t *testing.T) {
	hub, conn := startNotifyHub(t, 1)
	client := NewWebSocketClient(hub)

	progresses := []float64{10.0, 25.0, 50.0, 75.0, 100.0}
	for _, progress := range progresses {
		if err := client.NotifyExportProgress(context.Background(), 1, "export-123", progress, ""); err != nil {
			t.Fatalf("failed to notify progress: %v", err)
		}

		_, data := readMessage(t, conn)
		if data["progress"].(float64) != progress {
			t.Errorf("expected progress %.1f, got %v", progress, data["progress"])
		}
	}
}
