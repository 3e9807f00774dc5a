package api

import (
	"net/http"

	"github.com/bbernstein/gdtf-builder-go/pkg/gdtf"
)

func (h *Handler) referenceAttributes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mappings":        h.library.Mappings(),
		"wheelAttributes": gdtf.WheelAttributes(),
	})
}

func (h *Handler) referencePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, gdtf.SlotPresets())
}

func (h *Handler) referenceCatalogue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"groups":     gdtf.Catalogue(),
		"continuous": gdtf.ContinuousChannels(),
	})
}
