package api

import (
	"net/http"
	"strconv"

	"github.com/scamshield/scamshield/internal/api/respond"
	"github.com/scamshield/scamshield/internal/model"
	"github.com/scamshield/scamshield/internal/services"
)

// HistoryHandler serves a user's rewrite history. The caller's identity comes
// from the X-User-ID header; requests without one are rejected.
type HistoryHandler struct {
	svc *services.HistoryService
}

func NewHistoryHandler(svc *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

// List handles GET /api/v1/history.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		respond.WriteCode(w, model.CodeAuthentication, "identity required")
		return
	}

	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	pageSize := atoiDefault(q.Get("pageSize"), 20)

	pageData, err := h.svc.List(r.Context(), model.ListHistoryRequest{
		UserID:   userID,
		Page:     page,
		PageSize: pageSize,
		SortAsc:  q.Get("sort") == "asc",
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, pageData)
}

func atoiDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
