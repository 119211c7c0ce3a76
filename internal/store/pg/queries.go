package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"retail-insights/internal/models"
)

// All report queries cast their monetary aggregate to NUMERIC(26,2) so the
// reported totals are fixed-point with two decimal places. Each carries a
// secondary sort key to make ordering among equal aggregates deterministic.

const customerPurchasesSQL = `
SELECT customer_id,
       CAST(SUM(quantity * unit_price) AS NUMERIC(26,2)) AS total_purchase_amount
FROM retail.online_retail
WHERE customer_id <> '0'
  AND invoice_no NOT LIKE 'C%'
GROUP BY customer_id
ORDER BY total_purchase_amount DESC, customer_id`

const topProductsSQL = `
SELECT stock_code,
       COUNT(*) AS total_orders
FROM retail.online_retail
WHERE invoice_no NOT LIKE 'C%'
GROUP BY stock_code
ORDER BY total_orders DESC, stock_code`

const monthlyRevenueSQL = `
SELECT EXTRACT(YEAR FROM invoice_date)::int  AS year,
       EXTRACT(MONTH FROM invoice_date)::int AS month,
       CAST(SUM(quantity * unit_price) AS NUMERIC(26,2)) AS monthly_revenue
FROM retail.online_retail
WHERE invoice_no NOT LIKE 'C%'
GROUP BY 1, 2
ORDER BY 1, 2`

const dailyTransactionsSQL = `
SELECT invoice_date::date AS date,
       COUNT(DISTINCT invoice_no) AS total_transactions
FROM retail.online_retail
GROUP BY 1
ORDER BY 1`

const totalSalesSQL = `
SELECT COALESCE(CAST(SUM(quantity * unit_price) AS NUMERIC(26,2)), 0) AS total_sales
FROM retail.online_retail
WHERE invoice_no NOT LIKE 'C%'`

const genreSalesSQL = `
SELECT g.name AS genre,
       CAST(SUM(ii.unit_price * ii.quantity) AS NUMERIC(26,2)) AS total_sales
FROM music.invoice_items ii
JOIN music.tracks t ON t.track_id = ii.track_id
JOIN music.genres g ON g.genre_id = t.genre_id
GROUP BY g.name
ORDER BY total_sales DESC, g.name`

// One query definition, many thresholds: pgx prepares the statement on
// first use and caches it per connection, so repeated invocations with
// different arguments reuse the same definition. Results are identical to
// re-issuing the query text with a literal threshold.
const employeeSalesAboveSQL = `
SELECT e.employee_id,
       e.first_name,
       e.last_name,
       CAST(SUM(i.total) AS NUMERIC(26,2)) AS total_sales
FROM music.employees e
JOIN music.customers c ON c.support_rep_id = e.employee_id
JOIN music.invoices i ON i.customer_id = c.customer_id
GROUP BY e.employee_id, e.first_name, e.last_name
HAVING SUM(i.total) >= $1
ORDER BY total_sales DESC, e.employee_id`

func (s *Store) CustomerPurchases(ctx context.Context, limit int) ([]models.CustomerPurchase, error) {
	sql, args := withLimit(customerPurchasesSQL, limit)
	rows, err := queryRows(ctx, s, sql, args, func(rows pgx.Rows) (models.CustomerPurchase, error) {
		var r models.CustomerPurchase
		err := rows.Scan(&r.CustomerID, &r.Total)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("query customer purchases: %w", err)
	}
	return rows, nil
}

func (s *Store) TopProducts(ctx context.Context, limit int) ([]models.ProductOrders, error) {
	sql, args := withLimit(topProductsSQL, limit)
	rows, err := queryRows(ctx, s, sql, args, func(rows pgx.Rows) (models.ProductOrders, error) {
		var r models.ProductOrders
		err := rows.Scan(&r.StockCode, &r.Orders)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("query top products: %w", err)
	}
	return rows, nil
}

func (s *Store) MonthlyRevenue(ctx context.Context) ([]models.MonthlyRevenue, error) {
	rows, err := queryRows(ctx, s, monthlyRevenueSQL, nil, func(rows pgx.Rows) (models.MonthlyRevenue, error) {
		var r models.MonthlyRevenue
		err := rows.Scan(&r.Year, &r.Month, &r.Revenue)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("query monthly revenue: %w", err)
	}
	return rows, nil
}

func (s *Store) DailyTransactions(ctx context.Context) ([]models.DailyTransactions, error) {
	rows, err := queryRows(ctx, s, dailyTransactionsSQL, nil, func(rows pgx.Rows) (models.DailyTransactions, error) {
		var r models.DailyTransactions
		var day time.Time
		if err := rows.Scan(&day, &r.Transactions); err != nil {
			return r, err
		}
		r.Date = day.Format("2006-01-02")
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query daily transactions: %w", err)
	}
	return rows, nil
}

func (s *Store) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := s.pool.QueryRow(ctx, totalSalesSQL).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("query total sales: %w", err)
	}
	return total, nil
}

func (s *Store) GenreSales(ctx context.Context, limit int) ([]models.GenreSales, error) {
	sql, args := withLimit(genreSalesSQL, limit)
	rows, err := queryRows(ctx, s, sql, args, func(rows pgx.Rows) (models.GenreSales, error) {
		var r models.GenreSales
		err := rows.Scan(&r.Genre, &r.Total)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("query genre sales: %w", err)
	}
	return rows, nil
}

func (s *Store) EmployeeSalesAbove(ctx context.Context, min decimal.Decimal) ([]models.EmployeeSales, error) {
	rows, err := queryRows(ctx, s, employeeSalesAboveSQL, []any{min}, func(rows pgx.Rows) (models.EmployeeSales, error) {
		var r models.EmployeeSales
		err := rows.Scan(&r.EmployeeID, &r.FirstName, &r.LastName, &r.Total)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("query employee sales: %w", err)
	}
	return rows, nil
}

// withLimit appends a LIMIT clause when limit is positive. The limit is
// always the last placeholder.
func withLimit(sql string, limit int) (string, []any) {
	if limit <= 0 {
		return sql, nil
	}
	return fmt.Sprintf("%s\nLIMIT $1", sql), []any{limit}
}

func queryRows[T any](ctx context.Context, s *Store, sql string, args []any, scan func(pgx.Rows) (T, error)) ([]T, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}
