// Package api exposes the REST and websocket surface of the builder:
// draft management, package builds, OFL conversion, reference data, and the
// live preview and event sockets.
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/bbernstein/gdtf-builder-go/internal/database/repositories"
	"github.com/bbernstein/gdtf-builder-go/internal/services/builder"
	"github.com/bbernstein/gdtf-builder-go/internal/services/library"
	"github.com/bbernstein/gdtf-builder-go/internal/services/pubsub"
)

// WarningsHeader carries builder warnings on binary and XML responses as a
// JSON array.
const WarningsHeader = "X-Gdtf-Warnings"

// Handler owns the HTTP surface and its dependencies.
type Handler struct {
	draftRepo *repositories.DraftRepository
	buildRepo *repositories.BuildRepository
	builder   *builder.Service
	library   *library.Service
	pubsub    *pubsub.PubSub
	upgrader  websocket.Upgrader
}

// NewHandler creates the API handler.
func NewHandler(draftRepo *repositories.DraftRepository, buildRepo *repositories.BuildRepository, builderSvc *builder.Service, lib *library.Service, ps *pubsub.PubSub) *Handler {
	return &Handler{
		draftRepo: draftRepo,
		buildRepo: buildRepo,
		builder:   builderSvc,
		library:   lib,
		pubsub:    ps,
		upgrader: websocket.Upgrader{
			// CORS is enforced at the router level; the socket accepts any origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Routes assembles the router for the whole API surface.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Post("/build", h.buildFixture)
		r.Post("/preview", h.previewFixture)
		r.Post("/ofl/convert", h.convertOFL)
		r.Get("/builds", h.listBuilds)

		r.Route("/drafts", func(r chi.Router) {
			r.Get("/", h.listDrafts)
			r.Post("/", h.createDraft)
			r.Route("/{draftID}", func(r chi.Router) {
				r.Get("/", h.getDraft)
				r.Put("/", h.updateDraft)
				r.Delete("/", h.deleteDraft)
				r.Post("/duplicate", h.duplicateDraft)
				r.Post("/build", h.buildDraft)
			})
		})

		r.Route("/reference", func(r chi.Router) {
			r.Get("/attributes", h.referenceAttributes)
			r.Get("/presets", h.referencePresets)
			r.Get("/catalogue", h.referenceCatalogue)
		})
	})

	r.Get("/ws/preview", h.previewSocket)
	r.Get("/ws/events", h.eventsSocket)

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func readJSON(r *http.Request, v interface{}) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(v)
}
