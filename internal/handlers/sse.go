package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"retail-insights/internal/models"
	"retail-insights/internal/services"
)

const (
	maxTableRows = 50
	sseProducts  = 10
	sseGenres    = 10
)

var customerTableTemplate = template.Must(template.New("customerTable").Parse(`
<div id="customer-content">
<table class="modern-table">
<thead><tr><th>Customer</th><th>Total Purchases</th></tr></thead>
<tbody>
{{range .}}<tr>
<td>{{.CustomerID}}</td>
<td><strong>${{.Total}}</strong></td>
</tr>{{end}}
</tbody>
</table>
</div>`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

type customerRow struct {
	CustomerID string
	Total      string
}

func (h *SSEHandlers) renderCustomerTable(rows []models.CustomerPurchase) (string, error) {
	if len(rows) > maxTableRows {
		rows = rows[:maxTableRows]
	}

	view := make([]customerRow, 0, len(rows))
	for _, r := range rows {
		view = append(view, customerRow{CustomerID: r.CustomerID, Total: r.Total.StringFixed(2)})
	}

	var buf strings.Builder
	err := customerTableTemplate.Execute(&buf, view)
	return buf.String(), err
}

func (h *SSEHandlers) HandleCustomerPurchases(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	html, err := h.renderCustomerTable(h.analytics.CustomerPurchases(0))
	if err != nil {
		h.logger.Error("render customer table", "error", err)
		return
	}
	sse.PatchElements(html)

	flush(w)
}

func (h *SSEHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	if !h.patchSignals(sse, map[string]any{
		"productsData": h.analytics.TopProducts(sseProducts),
	}) {
		return
	}
	sse.PatchElements(`<div id="products-content">Top products loaded</div>`)

	flush(w)
}

func (h *SSEHandlers) HandleMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	if !h.patchSignals(sse, map[string]any{
		"monthlyData": h.analytics.MonthlyRevenue(),
	}) {
		return
	}
	sse.PatchElements(`<div id="monthly-content">Monthly revenue loaded</div>`)

	flush(w)
}

func (h *SSEHandlers) HandleGenreSales(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	if !h.patchSignals(sse, map[string]any{
		"genresData": h.analytics.GenreSales(sseGenres),
	}) {
		return
	}
	sse.PatchElements(`<div id="genres-content">Genre sales loaded</div>`)

	flush(w)
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	html, err := h.renderCustomerTable(h.analytics.CustomerPurchases(0))
	if err != nil {
		h.logger.Error("render customer table", "error", err)
		return
	}
	sse.PatchElements(html)

	h.patchSignals(sse, map[string]any{
		"productsData": h.analytics.TopProducts(sseProducts),
		"monthlyData":  h.analytics.MonthlyRevenue(),
		"genresData":   h.analytics.GenreSales(sseGenres),
	})

	flush(w)
}

func (h *SSEHandlers) patchSignals(sse *datastar.ServerSentEventGenerator, signals map[string]any) bool {
	data, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal signals", "error", err)
		return false
	}
	sse.PatchSignals(data)
	return true
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
