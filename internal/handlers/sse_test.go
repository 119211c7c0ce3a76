package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"retail-insights/internal/models"
)

func TestNewSSEHandlers(t *testing.T) {
	analytics := createTestAnalytics(t)
	logger := testLogger()

	h := NewSSEHandlers(analytics, logger)

	if h == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}
	if h.analytics != analytics {
		t.Error("NewSSEHandlers() should set analytics field")
	}
	if h.logger != logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestSSEHandlers_renderCustomerTable(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(t), testLogger())

	testData := []models.CustomerPurchase{
		{CustomerID: "17850", Total: dec("1234.50")},
		{CustomerID: "13047", Total: dec("80")},
	}

	html, err := h.renderCustomerTable(testData)
	if err != nil {
		t.Fatalf("renderCustomerTable() failed: %v", err)
	}

	expectedContent := []string{
		`<table class="modern-table">`,
		"<th>Customer</th>",
		"<th>Total Purchases</th>",
		"17850",
		"1234.50",
		"13047",
		"80.00",
	}

	for _, content := range expectedContent {
		if !strings.Contains(html, content) {
			t.Errorf("expected HTML to contain %q", content)
		}
	}
}

func TestSSEHandlers_renderCustomerTable_LargeDataset(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(t), testLogger())

	testData := make([]models.CustomerPurchase, 75)
	for i := range testData {
		testData[i] = models.CustomerPurchase{
			CustomerID: fmt.Sprintf("1%04d", i),
			Total:      dec("10.00"),
		}
	}

	html, err := h.renderCustomerTable(testData)
	if err != nil {
		t.Fatalf("renderCustomerTable() failed: %v", err)
	}

	rowCount := strings.Count(html, "<tr>") - 1 // minus the header row
	if rowCount != maxTableRows {
		t.Errorf("expected %d rendered rows, got %d", maxTableRows, rowCount)
	}
}

func TestSSEHandlers_HandleCustomerPurchases(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/customer-purchases", nil)
	w := httptest.NewRecorder()

	h.HandleCustomerPurchases(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("expected event-stream content type, got %q", ct)
	}

	body := w.Body.String()
	if !strings.Contains(body, "datastar-patch-elements") {
		t.Errorf("expected patch-elements event, got:\n%s", body)
	}
	if !strings.Contains(body, "customer-content") {
		t.Errorf("expected customer table fragment, got:\n%s", body)
	}
	if !strings.Contains(body, "17850") {
		t.Errorf("expected leading customer in fragment, got:\n%s", body)
	}
}

func TestSSEHandlers_HandleTopProducts(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/top-products", nil)
	w := httptest.NewRecorder()

	h.HandleTopProducts(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "datastar-patch-signals") {
		t.Errorf("expected patch-signals event, got:\n%s", body)
	}
	if !strings.Contains(body, "productsData") {
		t.Errorf("expected productsData signal, got:\n%s", body)
	}
}

func TestSSEHandlers_HandleRefreshAll(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/refresh-all", nil)
	w := httptest.NewRecorder()

	h.HandleRefreshAll(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	body := w.Body.String()
	for _, signal := range []string{"customer-content", "productsData", "monthlyData", "genresData"} {
		if !strings.Contains(body, signal) {
			t.Errorf("expected %q in stream, got:\n%s", signal, body)
		}
	}
}
