package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/scamshield/scamshield/internal/api/respond"
	"github.com/scamshield/scamshield/internal/api/validate"
	"github.com/scamshield/scamshield/internal/model"
	"github.com/scamshield/scamshield/internal/services"
)

// AnalyzeHandler exposes the primary analysis operation.
type AnalyzeHandler struct {
	svc           *services.AnalyzeService
	maxMessageLen int
}

func NewAnalyzeHandler(svc *services.AnalyzeService, maxMessageLen int) *AnalyzeHandler {
	return &AnalyzeHandler{svc: svc, maxMessageLen: maxMessageLen}
}

// Analyze handles POST /api/v1/analyze.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Message string  `json:"message"`
		Region  string  `json:"region,omitempty"`
		UserID  *string `json:"userId,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteCode(w, model.CodeValidation, "invalid json body")
		return
	}
	if err := validate.Message(in.Message, h.maxMessageLen); err != nil {
		respond.WriteCode(w, model.CodeValidation, err.Error())
		return
	}
	if err := validate.Region(in.Region); err != nil {
		respond.WriteCode(w, model.CodeValidation, err.Error())
		return
	}

	result, cached, err := h.svc.Analyze(r.Context(), in.Message, in.Region, in.UserID)
	if err != nil {
		respond.WriteError(w, err)
		return
	}
	respond.WriteAnalysis(w, result, cached)
}

// writeStoreError maps persistence failures onto DATABASE_SERVICE_ERROR
// while letting taxonomy errors through untouched.
func writeStoreError(w http.ResponseWriter, err error) {
	var te *model.Error
	if errors.As(err, &te) {
		respond.WriteError(w, err)
		return
	}
	respond.WriteError(w, model.NewError(model.CodeDatabaseService, "persistence unavailable", err))
}
