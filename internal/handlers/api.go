package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"retail-insights/internal/errors"
	"retail-insights/internal/models"
	"retail-insights/internal/observability"
	"retail-insights/internal/services"
)

const (
	defaultProductLimit = 10
	defaultGenreLimit   = 10
	cacheControl        = "public, max-age=300"
)

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func cached() map[string]string {
	return map[string]string{"Cache-Control": cacheControl}
}

func (h *APIHandlers) HandleCustomerPurchases(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.CustomerPurchases(0), cached())
}

func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.TopProducts(defaultProductLimit), cached())
}

func (h *APIHandlers) HandleMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.MonthlyRevenue(), cached())
}

func (h *APIHandlers) HandleDailyTransactions(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.DailyTransactions(), cached())
}

func (h *APIHandlers) HandleGenreSales(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.GenreSales(defaultGenreLimit), cached())
}

func (h *APIHandlers) HandleTotalSales(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, map[string]any{
		"total_sales": h.analytics.TotalSales(),
	}, cached())
}

// HandleEmployeeSales serves the threshold report. The min query parameter
// is the inclusive lower bound on an employee's aggregate sales; it
// defaults to zero and must parse as a decimal number.
func (h *APIHandlers) HandleEmployeeSales(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	min := decimal.Zero
	if raw := r.URL.Query().Get("min"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			errors.WriteError(w, h.logger, errors.Validation("min must be a number"), requestID)
			return
		}
		min = parsed
	}

	data, err := h.analytics.EmployeeSalesAbove(r.Context(), min)
	if err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "failed to run employee sales report"), requestID)
		return
	}

	// An empty result set is a normal outcome for a high threshold.
	if data == nil {
		data = []models.EmployeeSales{}
	}
	errors.WriteSuccess(w, data)
}

// HandleRefresh recomputes the report snapshot from the store.
func (h *APIHandlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	if err := h.analytics.Refresh(r.Context()); err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "failed to refresh snapshot"), requestID)
		return
	}
	errors.WriteSuccess(w, h.analytics.Stats())
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
