package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/bbernstein/gdtf-builder-go/internal/database/models"
	"github.com/bbernstein/gdtf-builder-go/internal/services/builder"
	"github.com/bbernstein/gdtf-builder-go/internal/services/ofl"
	"github.com/bbernstein/gdtf-builder-go/pkg/gdtf"
)

const defaultBuildListLimit = 50

// buildRecordResponse is the JSON shape of a build history entry.
type buildRecordResponse struct {
	ID           string    `json:"id"`
	DraftID      *string   `json:"draftId,omitempty"`
	FixtureName  string    `json:"fixtureName"`
	Manufacturer string    `json:"manufacturer"`
	FileName     string    `json:"fileName"`
	Source       string    `json:"source"`
	ModeCount    int       `json:"modeCount"`
	ChannelCount int       `json:"channelCount"`
	SizeBytes    int       `json:"sizeBytes"`
	Warnings     []string  `json:"warnings,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func buildRecordToResponse(record models.BuildRecord) buildRecordResponse {
	out := buildRecordResponse{
		ID:           record.ID,
		DraftID:      record.DraftID,
		FixtureName:  record.FixtureName,
		Manufacturer: record.Manufacturer,
		FileName:     record.FileName,
		Source:       record.Source,
		ModeCount:    record.ModeCount,
		ChannelCount: record.ChannelCount,
		SizeBytes:    record.SizeBytes,
		CreatedAt:    record.CreatedAt,
	}
	if record.Warnings != nil {
		var warnings []string
		if err := json.Unmarshal([]byte(*record.Warnings), &warnings); err == nil {
			out.Warnings = warnings
		}
	}
	return out
}

func (h *Handler) buildFixture(w http.ResponseWriter, r *http.Request) {
	var payload gdtf.Fixture
	if err := readJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid fixture JSON: "+err.Error())
		return
	}

	result, err := h.builder.BuildFixture(r.Context(), payload, models.BuildSourceAdhoc, nil)
	if err != nil {
		log.Printf("Failed to build fixture: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to build fixture")
		return
	}
	h.writeBuildResult(w, r, result)
}

func (h *Handler) previewFixture(w http.ResponseWriter, r *http.Request) {
	var payload gdtf.Fixture
	if err := readJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid fixture JSON: "+err.Error())
		return
	}

	xmlText, warnings, err := h.builder.PreviewXML(payload)
	if err != nil {
		log.Printf("Failed to build preview: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to build preview")
		return
	}

	setWarningsHeader(w, warnings)
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xmlText))
}

func (h *Handler) convertOFL(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	manufacturer := r.URL.Query().Get("manufacturer")
	fx, err := ofl.Convert(manufacturer, data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid OFL fixture: "+err.Error())
		return
	}

	result, err := h.builder.BuildFixture(r.Context(), fx, models.BuildSourceOFL, nil)
	if err != nil {
		log.Printf("Failed to build OFL fixture: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to build fixture")
		return
	}
	h.writeBuildResult(w, r, result)
}

func (h *Handler) listBuilds(w http.ResponseWriter, r *http.Request) {
	limit := defaultBuildListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := h.buildRepo.FindAll(r.Context(), limit)
	if err != nil {
		log.Printf("Failed to list builds: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list builds")
		return
	}

	out := make([]buildRecordResponse, 0, len(records))
	for _, record := range records {
		out = append(out, buildRecordToResponse(record))
	}
	writeJSON(w, http.StatusOK, out)
}

// writeBuildResult sends a finished package to the client, either as the
// binary .gdtf archive or, with ?format=xml, as the raw description.xml.
func (h *Handler) writeBuildResult(w http.ResponseWriter, r *http.Request, result *builder.BuildResult) {
	setWarningsHeader(w, result.Warnings)

	if r.URL.Query().Get("format") == "xml" {
		xmlText, err := gdtf.ReadDescription(result.Data)
		if err != nil {
			log.Printf("Failed to read description from package: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to read built package")
			return
		}
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(xmlText))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func setWarningsHeader(w http.ResponseWriter, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	encoded, err := json.Marshal(warnings)
	if err != nil {
		return
	}
	w.Header().Set(WarningsHeader, string(encoded))
}
