package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bbernstein/gdtf-builder-go/internal/services/pubsub"
)

func dialSocket(t *testing.T, httpURL, path string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(httpURL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, ps *pubsub.PubSub, topic pubsub.Topic, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ps.SubscriberCount(topic) >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Expected %d subscribers on topic %s", want, topic)
}

func TestPreviewSocket(t *testing.T) {
	srv, _, _ := setupServer(t)
	conn := dialSocket(t, srv.URL, "/ws/preview")

	if err := conn.WriteJSON(testFixturePayload()); err != nil {
		t.Fatalf("Failed to send fixture: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply previewResponse
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("Failed to read preview: %v", err)
	}
	if reply.Error != "" {
		t.Fatalf("Expected no error, got %q", reply.Error)
	}
	if !strings.Contains(reply.XML, `Name="API_Par"`) {
		t.Error("Expected preview XML to contain sanitized fixture name")
	}
	if len(reply.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", reply.Warnings)
	}
}

func TestPreviewSocket_InvalidPayload(t *testing.T) {
	srv, _, _ := setupServer(t)
	conn := dialSocket(t, srv.URL, "/ws/preview")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply previewResponse
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("Failed to read reply: %v", err)
	}
	if reply.Error == "" {
		t.Fatal("Expected in-band error for invalid JSON")
	}

	// The socket stays usable after a bad payload.
	if err := conn.WriteJSON(testFixturePayload()); err != nil {
		t.Fatalf("Failed to send fixture: %v", err)
	}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("Failed to read preview: %v", err)
	}
	if reply.XML == "" {
		t.Error("Expected XML in follow-up preview")
	}
}

func TestEventsSocket_BuildEvent(t *testing.T) {
	srv, _, ps := setupServer(t)
	conn := dialSocket(t, srv.URL, "/ws/events")
	waitForSubscribers(t, ps, pubsub.TopicBuildCompleted, 1)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/build", testFixturePayload())
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200 on build, got %d", resp.StatusCode)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var envelope struct {
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	if err := conn.ReadJSON(&envelope); err != nil {
		t.Fatalf("Failed to read event: %v", err)
	}
	if envelope.Type != "build_completed" {
		t.Errorf("Expected event type 'build_completed', got %q", envelope.Type)
	}
	if envelope.Data["fileName"] != "API_Par.gdtf" {
		t.Errorf("Expected file name 'API_Par.gdtf', got %v", envelope.Data["fileName"])
	}
	if envelope.Data["source"] != "ADHOC" {
		t.Errorf("Expected source ADHOC, got %v", envelope.Data["source"])
	}
}

func TestEventsSocket_DraftEvent(t *testing.T) {
	srv, _, ps := setupServer(t)
	conn := dialSocket(t, srv.URL, "/ws/events")
	waitForSubscribers(t, ps, pubsub.TopicDraftUpdated, 1)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/drafts", testFixturePayload())
	var created draftResponse
	decodeJSON(t, resp, &created)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var envelope struct {
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	if err := conn.ReadJSON(&envelope); err != nil {
		t.Fatalf("Failed to read event: %v", err)
	}
	if envelope.Type != "draft_updated" {
		t.Errorf("Expected event type 'draft_updated', got %q", envelope.Type)
	}
	if envelope.Data["draftId"] != created.ID {
		t.Errorf("Expected draft ID %q, got %v", created.ID, envelope.Data["draftId"])
	}
	if envelope.Data["action"] != "created" {
		t.Errorf("Expected action 'created', got %v", envelope.Data["action"])
	}
}

func TestEventsSocket_DraftFilter(t *testing.T) {
	srv, _, ps := setupServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/drafts", testFixturePayload())
	var watched draftResponse
	decodeJSON(t, resp, &watched)

	otherPayload := testFixturePayload()
	otherPayload.Name = "Other Par"
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/drafts", otherPayload)
	var other draftResponse
	decodeJSON(t, resp, &other)

	conn := dialSocket(t, srv.URL, "/ws/events?draftId="+watched.ID)
	waitForSubscribers(t, ps, pubsub.TopicBuildCompleted, 1)

	// Build the unwatched draft first. Only the second build may arrive.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/drafts/"+other.ID+"/build", nil)
	resp.Body.Close()
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/drafts/"+watched.ID+"/build", nil)
	resp.Body.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var envelope struct {
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	if err := conn.ReadJSON(&envelope); err != nil {
		t.Fatalf("Failed to read event: %v", err)
	}
	if envelope.Data["draftId"] != watched.ID {
		t.Errorf("Expected event for draft %q, got %v", watched.ID, envelope.Data["draftId"])
	}
}
