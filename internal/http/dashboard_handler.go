package http

import (
	"context"
	"net/http"
	"time"
)

type DashboardHandler struct {
	dashboard DashboardService
	timeout   time.Duration
}

func NewDashboardHandler(dashboard DashboardService, timeout time.Duration) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, timeout: timeout}
}

// GET /api/v1/admin/dashboard
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	summary, err := h.dashboard.Summary(ctx, getActor(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
