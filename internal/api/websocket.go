package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/bbernstein/gdtf-builder-go/internal/services/pubsub"
	"github.com/bbernstein/gdtf-builder-go/pkg/gdtf"
)

// previewResponse is the message sent back for every fixture received on the
// preview socket. Either XML or Error is set.
type previewResponse struct {
	XML      string   `json:"xml,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// eventEnvelope wraps pubsub messages for the events socket.
type eventEnvelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// previewSocket streams live XML previews. Each text message is a fixture
// definition in the same JSON shape as POST /api/preview; the reply carries
// the rendered description.xml or an in-band error.
func (h *Handler) previewSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade preview socket: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var payload gdtf.Fixture
		if err := json.Unmarshal(data, &payload); err != nil {
			if werr := conn.WriteJSON(previewResponse{Error: "invalid fixture JSON: " + err.Error()}); werr != nil {
				return
			}
			continue
		}

		xmlText, warnings, err := h.builder.PreviewXML(payload)
		if err != nil {
			if werr := conn.WriteJSON(previewResponse{Error: err.Error()}); werr != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(previewResponse{XML: xmlText, Warnings: warnings}); err != nil {
			return
		}
	}
}

// eventsSocket pushes build and draft events to the client. An optional
// ?draftId query parameter narrows the stream to one draft.
func (h *Handler) eventsSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade events socket: %v", err)
		return
	}
	defer conn.Close()

	filter := r.URL.Query().Get("draftId")

	builds := h.pubsub.Subscribe(pubsub.TopicBuildCompleted, filter, 16)
	drafts := h.pubsub.Subscribe(pubsub.TopicDraftUpdated, filter, 16)
	defer h.pubsub.Unsubscribe(builds)
	defer h.pubsub.Unsubscribe(drafts)

	// Drain the connection so closes are noticed even though clients never
	// send payloads on this socket.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-builds.Channel:
			if !ok {
				return
			}
			if err := conn.WriteJSON(eventEnvelope{Type: "build_completed", Data: msg}); err != nil {
				return
			}
		case msg, ok := <-drafts.Channel:
			if !ok {
				return
			}
			if err := conn.WriteJSON(eventEnvelope{Type: "draft_updated", Data: msg}); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
