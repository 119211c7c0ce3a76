// Package store defines the reporting operations the analytics service
// runs against a pre-loaded sales dataset. Two implementations exist:
// store/pg queries PostgreSQL, store/memory aggregates in process.
//
// All operations are read-only. Monetary totals are fixed-point decimals
// rounded to two places regardless of how line amounts are stored.
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"retail-insights/internal/models"
)

// Store exposes the report queries. Ordering is descending by the
// aggregate with the grouping key as tie-break, except MonthlyRevenue and
// DailyTransactions which are chronological. A limit <= 0 means no limit.
type Store interface {
	// CustomerPurchases totals quantity*unit_price per customer.
	// Cancelled invoices and the unknown-customer sentinel are excluded.
	CustomerPurchases(ctx context.Context, limit int) ([]models.CustomerPurchase, error)

	// TopProducts counts sold lines per stock code, cancellations excluded.
	TopProducts(ctx context.Context, limit int) ([]models.ProductOrders, error)

	// MonthlyRevenue totals revenue per calendar month, cancellations excluded.
	MonthlyRevenue(ctx context.Context) ([]models.MonthlyRevenue, error)

	// DailyTransactions counts distinct invoices per day.
	DailyTransactions(ctx context.Context) ([]models.DailyTransactions, error)

	// TotalSales is the overall revenue figure, cancellations excluded.
	TotalSales(ctx context.Context) (decimal.Decimal, error)

	// GenreSales totals music-store revenue per genre through
	// invoice_items -> tracks -> genres.
	GenreSales(ctx context.Context, limit int) ([]models.GenreSales, error)

	// EmployeeSalesAbove reports employees whose supported customers
	// generated invoice totals of at least min. The comparison is
	// inclusive and applied to the aggregate, not to raw rows. An empty
	// result is a valid outcome, not an error.
	EmployeeSalesAbove(ctx context.Context, min decimal.Decimal) ([]models.EmployeeSales, error)

	// RetailCount returns the number of loaded retail lines.
	RetailCount(ctx context.Context) (int64, error)
}

// RetailLoader accepts batches of parsed retail lines during ingest.
type RetailLoader interface {
	AppendRetail(ctx context.Context, lines []models.RetailLine) error
}
