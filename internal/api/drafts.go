package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bbernstein/gdtf-builder-go/internal/database/models"
	"github.com/bbernstein/gdtf-builder-go/internal/services/builder"
	"github.com/bbernstein/gdtf-builder-go/internal/services/pubsub"
	"github.com/bbernstein/gdtf-builder-go/pkg/gdtf"
)

// DraftEvent is published on TopicDraftUpdated whenever a draft changes.
type DraftEvent struct {
	DraftID string `json:"draftId"`
	Action  string `json:"action"`
}

// draftSummary is the list-view shape of a draft, without the mode tree.
type draftSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Manufacturer string    `json:"manufacturer"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// draftResponse is the full draft tree in the same shape the build endpoints
// accept.
type draftResponse struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Manufacturer string      `json:"manufacturer"`
	Modes        []gdtf.Mode `json:"modes"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func draftToResponse(draft *models.FixtureDraft) draftResponse {
	return draftResponse{
		ID:           draft.ID,
		Name:         draft.Name,
		Manufacturer: draft.Manufacturer,
		Modes:        builder.DraftFixture(draft).Modes,
		CreatedAt:    draft.CreatedAt,
		UpdatedAt:    draft.UpdatedAt,
	}
}

func (h *Handler) listDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.draftRepo.FindAll(r.Context())
	if err != nil {
		log.Printf("Failed to list drafts: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list drafts")
		return
	}

	out := make([]draftSummary, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, draftSummary{
			ID:           d.ID,
			Name:         d.Name,
			Manufacturer: d.Manufacturer,
			CreatedAt:    d.CreatedAt,
			UpdatedAt:    d.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createDraft(w http.ResponseWriter, r *http.Request) {
	var payload gdtf.Fixture
	if err := readJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid draft JSON: "+err.Error())
		return
	}

	draft := &models.FixtureDraft{
		Name:         payload.Name,
		Manufacturer: payload.Manufacturer,
		Modes:        builder.DraftModes(payload.Modes),
	}
	if err := h.draftRepo.Create(r.Context(), draft); err != nil {
		log.Printf("Failed to create draft: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create draft")
		return
	}

	created, err := h.draftRepo.FindByID(r.Context(), draft.ID)
	if err != nil || created == nil {
		log.Printf("Failed to load created draft: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load created draft")
		return
	}

	h.publishDraftEvent(draft.ID, "created")
	writeJSON(w, http.StatusCreated, draftToResponse(created))
}

func (h *Handler) getDraft(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftID")
	draft, err := h.draftRepo.FindByID(r.Context(), draftID)
	if err != nil {
		log.Printf("Failed to load draft %s: %v", draftID, err)
		writeError(w, http.StatusInternalServerError, "failed to load draft")
		return
	}
	if draft == nil {
		writeError(w, http.StatusNotFound, "draft not found")
		return
	}
	writeJSON(w, http.StatusOK, draftToResponse(draft))
}

func (h *Handler) updateDraft(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftID")

	var payload gdtf.Fixture
	if err := readJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid draft JSON: "+err.Error())
		return
	}

	existing, err := h.draftRepo.FindByID(r.Context(), draftID)
	if err != nil {
		log.Printf("Failed to load draft %s: %v", draftID, err)
		writeError(w, http.StatusInternalServerError, "failed to load draft")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "draft not found")
		return
	}

	if err := h.draftRepo.UpdateMeta(r.Context(), draftID, payload.Name, payload.Manufacturer); err != nil {
		log.Printf("Failed to update draft %s: %v", draftID, err)
		writeError(w, http.StatusInternalServerError, "failed to update draft")
		return
	}
	if err := h.draftRepo.ReplaceModes(r.Context(), draftID, builder.DraftModes(payload.Modes)); err != nil {
		log.Printf("Failed to replace modes of draft %s: %v", draftID, err)
		writeError(w, http.StatusInternalServerError, "failed to update draft")
		return
	}

	updated, err := h.draftRepo.FindByID(r.Context(), draftID)
	if err != nil || updated == nil {
		log.Printf("Failed to reload draft %s: %v", draftID, err)
		writeError(w, http.StatusInternalServerError, "failed to load updated draft")
		return
	}

	h.publishDraftEvent(draftID, "updated")
	writeJSON(w, http.StatusOK, draftToResponse(updated))
}

func (h *Handler) deleteDraft(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftID")

	existing, err := h.draftRepo.FindByID(r.Context(), draftID)
	if err != nil {
		log.Printf("Failed to load draft %s: %v", draftID, err)
		writeError(w, http.StatusInternalServerError, "failed to load draft")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "draft not found")
		return
	}

	if err := h.draftRepo.Delete(r.Context(), draftID); err != nil {
		log.Printf("Failed to delete draft %s: %v", draftID, err)
		writeError(w, http.StatusInternalServerError, "failed to delete draft")
		return
	}

	h.publishDraftEvent(draftID, "deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) duplicateDraft(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftID")

	existing, err := h.draftRepo.FindByID(r.Context(), draftID)
	if err != nil {
		log.Printf("Failed to load draft %s: %v", draftID, err)
		writeError(w, http.StatusInternalServerError, "failed to load draft")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "draft not found")
		return
	}

	copyID, err := h.draftRepo.Duplicate(r.Context(), draftID, existing.Name+" (Copy)")
	if err != nil {
		log.Printf("Failed to duplicate draft %s: %v", draftID, err)
		writeError(w, http.StatusInternalServerError, "failed to duplicate draft")
		return
	}

	dup, err := h.draftRepo.FindByID(r.Context(), copyID)
	if err != nil || dup == nil {
		log.Printf("Failed to load duplicated draft %s: %v", copyID, err)
		writeError(w, http.StatusInternalServerError, "failed to load duplicated draft")
		return
	}

	h.publishDraftEvent(copyID, "created")
	writeJSON(w, http.StatusCreated, draftToResponse(dup))
}

func (h *Handler) buildDraft(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftID")

	existing, err := h.draftRepo.FindByID(r.Context(), draftID)
	if err != nil {
		log.Printf("Failed to load draft %s: %v", draftID, err)
		writeError(w, http.StatusInternalServerError, "failed to load draft")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "draft not found")
		return
	}

	result, err := h.builder.BuildDraft(r.Context(), draftID)
	if err != nil {
		log.Printf("Failed to build draft %s: %v", draftID, err)
		writeError(w, http.StatusInternalServerError, "failed to build draft")
		return
	}
	h.writeBuildResult(w, r, result)
}

func (h *Handler) publishDraftEvent(draftID, action string) {
	h.pubsub.Publish(pubsub.TopicDraftUpdated, draftID, DraftEvent{DraftID: draftID, Action: action})
}
