package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/scamshield/scamshield/internal/api/respond"
	"github.com/scamshield/scamshield/internal/api/validate"
	"github.com/scamshield/scamshield/internal/model"
	"github.com/scamshield/scamshield/internal/services"
)

// PatternHandler exposes pattern reporting and the trending query.
type PatternHandler struct {
	svc           *services.PatternService
	maxMessageLen int
}

func NewPatternHandler(svc *services.PatternService, maxMessageLen int) *PatternHandler {
	return &PatternHandler{svc: svc, maxMessageLen: maxMessageLen}
}

// Report handles POST /api/v1/patterns/report.
func (h *PatternHandler) Report(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Message  string         `json:"message"`
		Category model.Category `json:"category"`
		Severity model.Severity `json:"severity,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteCode(w, model.CodeValidation, "invalid json body")
		return
	}
	if err := validate.Message(in.Message, h.maxMessageLen); err != nil {
		respond.WriteCode(w, model.CodeValidation, err.Error())
		return
	}

	pattern, err := h.svc.Report(r.Context(), in.Message, in.Category, in.Severity)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, pattern)
}

// Trending handles GET /api/v1/patterns/trending.
func (h *PatternHandler) Trending(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 50 {
			respond.WriteCode(w, model.CodeValidation, "limit must be between 1 and 50")
			return
		}
		limit = n
	}
	patterns, err := h.svc.Trending(r.Context(), limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, patterns)
}
