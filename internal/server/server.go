package server

import (
	"log/slog"
	"net/http"

	"retail-insights/internal/handlers"
	"retail-insights/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

func NewServer(analytics *services.Analytics, logger *slog.Logger) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.HandleFunc("POST /admin/refresh", s.apiHandlers.HandleRefresh)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/customer-purchases", s.apiHandlers.HandleCustomerPurchases)
	s.mux.HandleFunc("GET /api/top-products", s.apiHandlers.HandleTopProducts)
	s.mux.HandleFunc("GET /api/monthly-revenue", s.apiHandlers.HandleMonthlyRevenue)
	s.mux.HandleFunc("GET /api/daily-transactions", s.apiHandlers.HandleDailyTransactions)
	s.mux.HandleFunc("GET /api/genre-sales", s.apiHandlers.HandleGenreSales)
	s.mux.HandleFunc("GET /api/total-sales", s.apiHandlers.HandleTotalSales)
	s.mux.HandleFunc("GET /api/employee-sales", s.apiHandlers.HandleEmployeeSales)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/customer-purchases", s.sseHandlers.HandleCustomerPurchases)
	s.mux.HandleFunc("GET /sse/top-products", s.sseHandlers.HandleTopProducts)
	s.mux.HandleFunc("GET /sse/monthly-revenue", s.sseHandlers.HandleMonthlyRevenue)
	s.mux.HandleFunc("GET /sse/genre-sales", s.sseHandlers.HandleGenreSales)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
