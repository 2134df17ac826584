package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"sales-kpi/internal/services"
	"sales-kpi/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

type PageHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewPageHandlers(analytics *services.Analytics, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// page lists the regions and channels of the loaded data for the sidebar.
func (h *PageHandlers) page() templates.Page {
	if !h.analytics.Loaded() {
		return templates.Page{}
	}
	rep := h.analytics.Report()
	return templates.Page{
		Regions:  rep.Revenue.ByRegion.Keys(),
		Channels: rep.Revenue.ByChannel.Keys(),
	}
}

func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if err := templates.Dashboard(h.page()).Render(ctx, w); err != nil {
		h.logger.Error("render dashboard", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}
