package api

import (
	"net/http"
	"time"

	"github.com/scamshield/scamshield/internal/api/respond"
	"github.com/scamshield/scamshield/internal/api/validate"
	"github.com/scamshield/scamshield/internal/model"
	"github.com/scamshield/scamshield/internal/services"
)

// AnalyticsHandler serves aggregate usage statistics.
type AnalyticsHandler struct {
	svc *services.AnalyticsService
}

func NewAnalyticsHandler(svc *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// Report handles GET /api/v1/analytics.
func (h *AnalyticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f model.AnalyticsFilter
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respond.WriteCode(w, model.CodeValidation, "from must be RFC3339")
			return
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respond.WriteCode(w, model.CodeValidation, "to must be RFC3339")
			return
		}
		f.To = t
	}
	if v := q.Get("region"); v != "" {
		if err := validate.Region(v); err != nil {
			respond.WriteCode(w, model.CodeValidation, err.Error())
			return
		}
		f.Region = v
	}
	f.UserID = q.Get("userId")

	report, err := h.svc.Report(r.Context(), f)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, report)
}
