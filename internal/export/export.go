// Package export serializes report result sets to delimited text files:
// a header row of column names, then one line per result row. Monetary
// values are written with exactly two decimal places.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"retail-insights/internal/models"
)

func CustomerPurchases(path string, rows []models.CustomerPurchase) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.CustomerID, money(r.Total)})
	}
	return writeFile(path, []string{"customer_id", "total_purchase_amount"}, records)
}

func TopProducts(path string, rows []models.ProductOrders) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.StockCode, strconv.FormatInt(r.Orders, 10)})
	}
	return writeFile(path, []string{"stock_code", "total_orders"}, records)
}

func MonthlyRevenue(path string, rows []models.MonthlyRevenue) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			strconv.Itoa(r.Year), strconv.Itoa(r.Month), money(r.Revenue),
		})
	}
	return writeFile(path, []string{"year", "month", "monthly_revenue"}, records)
}

func DailyTransactions(path string, rows []models.DailyTransactions) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.Date, strconv.FormatInt(r.Transactions, 10)})
	}
	return writeFile(path, []string{"date", "total_transactions"}, records)
}

func GenreSales(path string, rows []models.GenreSales) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.Genre, money(r.Total)})
	}
	return writeFile(path, []string{"genre", "total_sales"}, records)
}

func EmployeeSales(path string, rows []models.EmployeeSales) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			strconv.FormatInt(r.EmployeeID, 10), r.FirstName, r.LastName, money(r.Total),
		})
	}
	return writeFile(path, []string{"employee_id", "first_name", "last_name", "total_sales"}, records)
}

func TotalSales(path string, total decimal.Decimal) error {
	return writeFile(path, []string{"total_sales"}, [][]string{{money(total)}})
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func writeFile(path string, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	return f.Close()
}
