package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"retail-insights/internal/models"
	"retail-insights/internal/server"
	"retail-insights/internal/services"
	"retail-insights/internal/store/memory"
)

func newTestAnalytics(t *testing.T) *services.Analytics {
	t.Helper()

	day := time.Date(2011, 12, 1, 8, 26, 0, 0, time.UTC)
	st := memory.New()
	st.SetRetail([]models.RetailLine{
		{InvoiceNo: "536365", StockCode: "85123A", Quantity: 6, InvoiceDate: day, UnitPrice: decimal.RequireFromString("2.55"), CustomerID: "17850", Country: "United Kingdom"},
		{InvoiceNo: "536366", StockCode: "22633", Quantity: 6, InvoiceDate: day, UnitPrice: decimal.RequireFromString("1.85"), CustomerID: "13047", Country: "United Kingdom"},
	})
	st.SetMusicStore(
		[]models.Employee{{ID: 3, FirstName: "Jane", LastName: "Peacock"}},
		[]models.Customer{{ID: 10, SupportRepID: 3}},
		[]models.Invoice{{ID: 100, CustomerID: 10, InvoiceDate: day, Total: decimal.RequireFromString("8.91")}},
		[]models.Genre{{ID: 1, Name: "Rock"}},
		[]models.Track{{ID: 1, Name: "Restless and Wild", GenreID: 1}},
		[]models.InvoiceItem{{ID: 1, InvoiceID: 100, TrackID: 1, UnitPrice: decimal.RequireFromString("0.99"), Quantity: 9}},
	)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := services.NewAnalytics(st, logger)
	if err := a.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	return a
}

func TestServer_Routes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := server.NewServer(newTestAnalytics(t), logger)

	tests := []struct {
		method         string
		path           string
		expectedStatus int
		contentType    string
	}{
		{"GET", "/health", http.StatusOK, "application/json"},
		{"GET", "/admin/stats", http.StatusOK, "application/json"},
		{"POST", "/admin/refresh", http.StatusOK, "application/json"},
		{"GET", "/api/customer-purchases", http.StatusOK, "application/json"},
		{"GET", "/api/top-products", http.StatusOK, "application/json"},
		{"GET", "/api/monthly-revenue", http.StatusOK, "application/json"},
		{"GET", "/api/daily-transactions", http.StatusOK, "application/json"},
		{"GET", "/api/genre-sales", http.StatusOK, "application/json"},
		{"GET", "/api/total-sales", http.StatusOK, "application/json"},
		{"GET", "/api/employee-sales", http.StatusOK, "application/json"},
		{"GET", "/api/employee-sales?min=5", http.StatusOK, "application/json"},
		{"GET", "/sse/customer-purchases", http.StatusOK, "text/event-stream"},
		{"GET", "/sse/refresh-all", http.StatusOK, "text/event-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(tt.method, tt.path, nil)

			srv.ServeHTTP(w, r)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}

			ct := w.Header().Get("Content-Type")
			if !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}

			if tt.contentType == "application/json" {
				var result any
				if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
					t.Errorf("invalid json: %v", err)
				}
			}
		})
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := server.NewServer(newTestAnalytics(t), logger)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/admin/refresh", nil)

	srv.ServeHTTP(w, r)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestServer_UnknownRoute(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := server.NewServer(newTestAnalytics(t), logger)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/nope", nil)

	srv.ServeHTTP(w, r)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
