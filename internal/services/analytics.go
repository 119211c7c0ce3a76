package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"retail-insights/internal/models"
	"retail-insights/internal/store"
)

const (
	// Precomputed snapshot sizes; handlers truncate further if asked.
	customerLimit = 50
	productLimit  = 20
	genreLimit    = 20
)

// Snapshot holds every non-parameterized report, refreshed as a unit.
type Snapshot struct {
	CustomerPurchases []models.CustomerPurchase  `json:"customer_purchases"`
	TopProducts       []models.ProductOrders     `json:"top_products"`
	MonthlyRevenue    []models.MonthlyRevenue    `json:"monthly_revenue"`
	DailyTransactions []models.DailyTransactions `json:"daily_transactions"`
	GenreSales        []models.GenreSales        `json:"genre_sales"`
	TotalSales        decimal.Decimal            `json:"total_sales"`
	RecordCount       int64                      `json:"record_count"`
	RefreshedAt       time.Time                  `json:"refreshed_at"`
}

// Analytics serves report data from a cached snapshot. The parameterized
// employee report is never cached: its threshold argument changes per
// call, so it always goes to the store.
type Analytics struct {
	mu       sync.RWMutex
	store    store.Store
	snapshot *Snapshot
	logger   *slog.Logger
}

func NewAnalytics(st store.Store, logger *slog.Logger) *Analytics {
	return &Analytics{
		store:    st,
		snapshot: &Snapshot{},
		logger:   logger,
	}
}

// Refresh recomputes the snapshot. The report queries are independent and
// read-only, so they run concurrently.
func (a *Analytics) Refresh(ctx context.Context) error {
	start := time.Now()
	next := &Snapshot{}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		next.CustomerPurchases, err = a.store.CustomerPurchases(ctx, customerLimit)
		return err
	})
	g.Go(func() error {
		var err error
		next.TopProducts, err = a.store.TopProducts(ctx, productLimit)
		return err
	})
	g.Go(func() error {
		var err error
		next.MonthlyRevenue, err = a.store.MonthlyRevenue(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		next.DailyTransactions, err = a.store.DailyTransactions(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		next.GenreSales, err = a.store.GenreSales(ctx, genreLimit)
		return err
	})
	g.Go(func() error {
		var err error
		next.TotalSales, err = a.store.TotalSales(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		next.RecordCount, err = a.store.RetailCount(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("refresh snapshot: %w", err)
	}
	next.RefreshedAt = time.Now()

	a.mu.Lock()
	a.snapshot = next
	a.mu.Unlock()

	a.logger.Info("snapshot refreshed",
		"records", next.RecordCount,
		"duration", time.Since(start),
	)
	return nil
}

func (a *Analytics) CustomerPurchases(limit int) []models.CustomerPurchase {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return head(a.snapshot.CustomerPurchases, limit)
}

func (a *Analytics) TopProducts(limit int) []models.ProductOrders {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return head(a.snapshot.TopProducts, limit)
}

func (a *Analytics) MonthlyRevenue() []models.MonthlyRevenue {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot.MonthlyRevenue
}

func (a *Analytics) DailyTransactions() []models.DailyTransactions {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot.DailyTransactions
}

func (a *Analytics) GenreSales(limit int) []models.GenreSales {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return head(a.snapshot.GenreSales, limit)
}

func (a *Analytics) TotalSales() decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot.TotalSales
}

// EmployeeSalesAbove runs the parameterized threshold report. The query
// definition lives in the store; each call supplies only the threshold.
func (a *Analytics) EmployeeSalesAbove(ctx context.Context, min decimal.Decimal) ([]models.EmployeeSales, error) {
	return a.store.EmployeeSalesAbove(ctx, min)
}

// Stats summarizes the cached snapshot for the admin endpoint.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"record_count": a.snapshot.RecordCount,
		"refreshed_at": a.snapshot.RefreshedAt,
		"customers":    len(a.snapshot.CustomerPurchases),
		"products":     len(a.snapshot.TopProducts),
		"months":       len(a.snapshot.MonthlyRevenue),
		"days":         len(a.snapshot.DailyTransactions),
		"genres":       len(a.snapshot.GenreSales),
		"total_sales":  a.snapshot.TotalSales,
	}
}

func head[T any](s []T, limit int) []T {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit]
}
