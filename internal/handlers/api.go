package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"sales-kpi/internal/errors"
	"sales-kpi/internal/kpi"
	"sales-kpi/internal/observability"
	"sales-kpi/internal/services"
	"sales-kpi/pkg/version"
)

const (
	cacheMaxAge = "public, max-age=300"
	maxBins     = 200
)

type APIHandlers struct {
	analytics    *services.Analytics
	logger       *slog.Logger
	fetchTimeout time.Duration
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger, fetchTimeout time.Duration) *APIHandlers {
	return &APIHandlers{
		analytics:    analytics,
		logger:       logger,
		fetchTimeout: fetchTimeout,
	}
}

// parseFilter reads the sidebar filters from the query string. region and
// channel may repeat or hold a comma separated list.
func parseFilter(r *http.Request) (kpi.Filter, error) {
	q := r.URL.Query()
	f, err := kpi.ParseFilter(q["region"], q["channel"], q.Get("from"), q.Get("to"))
	if err != nil {
		return kpi.Filter{}, errors.ValidationWrap(err, "invalid filter")
	}
	return f, nil
}

// report resolves the filtered report for r, writing the error response
// itself when it cannot.
func (h *APIHandlers) report(w http.ResponseWriter, r *http.Request) (kpi.Report, bool) {
	requestID := observability.GetRequestID(r.Context())
	if !h.analytics.Loaded() {
		errors.WriteError(w, h.logger, errors.Wrap(services.ErrNoData, errors.CodeServiceUnavail, "sales data is not loaded yet"), requestID)
		return kpi.Report{}, false
	}
	f, err := parseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return kpi.Report{}, false
	}
	return h.analytics.Compute(f), true
}

func (h *APIHandlers) write(w http.ResponseWriter, data any) {
	errors.WriteSuccessWithHeaders(w, data, map[string]string{
		"Cache-Control": cacheMaxAge,
	})
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	if rep, ok := h.report(w, r); ok {
		h.write(w, rep)
	}
}

func (h *APIHandlers) HandleRevenue(w http.ResponseWriter, r *http.Request) {
	if rep, ok := h.report(w, r); ok {
		h.write(w, rep.Revenue)
	}
}

func (h *APIHandlers) HandleProfitability(w http.ResponseWriter, r *http.Request) {
	if rep, ok := h.report(w, r); ok {
		h.write(w, rep.Profitability)
	}
}

func (h *APIHandlers) HandleProducts(w http.ResponseWriter, r *http.Request) {
	if rep, ok := h.report(w, r); ok {
		h.write(w, rep.Products)
	}
}

func (h *APIHandlers) HandleCustomers(w http.ResponseWriter, r *http.Request) {
	if rep, ok := h.report(w, r); ok {
		h.write(w, rep.Customers)
	}
}

func (h *APIHandlers) HandleOperational(w http.ResponseWriter, r *http.Request) {
	if rep, ok := h.report(w, r); ok {
		h.write(w, rep.Operational)
	}
}

func (h *APIHandlers) HandleDistribution(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	bins := kpi.DefaultBins
	if s := r.URL.Query().Get("bins"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxBins {
			errors.WriteError(w, h.logger, errors.Validation("bins must be an integer between 1 and 200").WithDetails("got "+strconv.Quote(s)), requestID)
			return
		}
		bins = n
	}

	f, err := parseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}
	h.write(w, h.analytics.Distribution(f, bins))
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	info := h.analytics.Info()
	status := "healthy"
	switch {
	case !h.analytics.Loaded():
		status = "starting"
	case info.FellBack:
		status = "degraded"
	}

	errors.WriteSuccess(w, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version.Short(),
		"source":    info.Source,
		"fell_back": info.FellBack,
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}

// HandleRefresh forces a re-fetch from the source.
func (h *APIHandlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.fetchTimeout)
		defer cancel()
	}

	if err := h.analytics.Refresh(ctx); err != nil {
		errors.WriteError(w, h.logger, errors.FromLoadError(err, h.analytics.Info().Source), observability.GetRequestID(r.Context()))
		return
	}
	errors.WriteSuccess(w, h.analytics.Info())
}
