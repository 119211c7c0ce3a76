// Package memory is the in-process store implementation. It keeps the raw
// retail lines and music-store rows and evaluates each report by grouping
// in maps, the same way the result would come back from SQL: identical
// exclusion rules, inclusive threshold comparison, totals rounded to two
// decimal places.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"retail-insights/internal/models"
)

type Store struct {
	mu    sync.RWMutex
	lines []models.RetailLine

	employees    []models.Employee
	customers    []models.Customer
	invoices     []models.Invoice
	genres       []models.Genre
	tracks       []models.Track
	invoiceItems []models.InvoiceItem
}

func New() *Store {
	return &Store{}
}

// AppendRetail adds a batch of parsed retail lines.
func (s *Store) AppendRetail(_ context.Context, lines []models.RetailLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, lines...)
	return nil
}

// SetRetail replaces the retail dataset.
func (s *Store) SetRetail(lines []models.RetailLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = slices.Clone(lines)
}

// SetMusicStore replaces the music-store dataset.
func (s *Store) SetMusicStore(
	employees []models.Employee,
	customers []models.Customer,
	invoices []models.Invoice,
	genres []models.Genre,
	tracks []models.Track,
	items []models.InvoiceItem,
) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees = slices.Clone(employees)
	s.customers = slices.Clone(customers)
	s.invoices = slices.Clone(invoices)
	s.genres = slices.Clone(genres)
	s.tracks = slices.Clone(tracks)
	s.invoiceItems = slices.Clone(items)
}

func (s *Store) RetailCount(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.lines)), nil
}

func (s *Store) CustomerPurchases(_ context.Context, limit int) ([]models.CustomerPurchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]decimal.Decimal)
	for _, l := range s.lines {
		if l.Cancelled() || l.UnknownCustomer() {
			continue
		}
		totals[l.CustomerID] = totals[l.CustomerID].Add(l.Amount())
	}

	result := make([]models.CustomerPurchase, 0, len(totals))
	for id, total := range totals {
		result = append(result, models.CustomerPurchase{
			CustomerID: id,
			Total:      total.Round(2),
		})
	}
	slices.SortFunc(result, func(a, b models.CustomerPurchase) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return compareStrings(a.CustomerID, b.CustomerID)
	})
	return truncate(result, limit), nil
}

func (s *Store) TopProducts(_ context.Context, limit int) ([]models.ProductOrders, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, l := range s.lines {
		if l.Cancelled() {
			continue
		}
		counts[l.StockCode]++
	}

	result := make([]models.ProductOrders, 0, len(counts))
	for code, n := range counts {
		result = append(result, models.ProductOrders{StockCode: code, Orders: n})
	}
	slices.SortFunc(result, func(a, b models.ProductOrders) int {
		if a.Orders != b.Orders {
			if a.Orders > b.Orders {
				return -1
			}
			return 1
		}
		return compareStrings(a.StockCode, b.StockCode)
	})
	return truncate(result, limit), nil
}

func (s *Store) MonthlyRevenue(_ context.Context) ([]models.MonthlyRevenue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type month struct{ year, month int }
	totals := make(map[month]decimal.Decimal)
	for _, l := range s.lines {
		if l.Cancelled() {
			continue
		}
		key := month{l.InvoiceDate.Year(), int(l.InvoiceDate.Month())}
		totals[key] = totals[key].Add(l.Amount())
	}

	result := make([]models.MonthlyRevenue, 0, len(totals))
	for key, total := range totals {
		result = append(result, models.MonthlyRevenue{
			Year:    key.year,
			Month:   key.month,
			Revenue: total.Round(2),
		})
	}
	slices.SortFunc(result, func(a, b models.MonthlyRevenue) int {
		if a.Year != b.Year {
			return a.Year - b.Year
		}
		return a.Month - b.Month
	})
	return result, nil
}

func (s *Store) DailyTransactions(_ context.Context) ([]models.DailyTransactions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invoices := make(map[string]map[string]struct{})
	for _, l := range s.lines {
		day := l.InvoiceDate.Format("2006-01-02")
		if invoices[day] == nil {
			invoices[day] = make(map[string]struct{})
		}
		invoices[day][l.InvoiceNo] = struct{}{}
	}

	result := make([]models.DailyTransactions, 0, len(invoices))
	for day, set := range invoices {
		result = append(result, models.DailyTransactions{
			Date:         day,
			Transactions: int64(len(set)),
		})
	}
	slices.SortFunc(result, func(a, b models.DailyTransactions) int {
		return compareStrings(a.Date, b.Date)
	})
	return result, nil
}

func (s *Store) TotalSales(_ context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, l := range s.lines {
		if l.Cancelled() {
			continue
		}
		total = total.Add(l.Amount())
	}
	return total.Round(2), nil
}

func (s *Store) GenreSales(_ context.Context, limit int) ([]models.GenreSales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	genreName := make(map[int64]string, len(s.genres))
	for _, g := range s.genres {
		genreName[g.ID] = g.Name
	}
	trackGenre := make(map[int64]int64, len(s.tracks))
	for _, t := range s.tracks {
		trackGenre[t.ID] = t.GenreID
	}

	totals := make(map[string]decimal.Decimal)
	for _, item := range s.invoiceItems {
		name, ok := genreName[trackGenre[item.TrackID]]
		if !ok {
			continue
		}
		amount := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		totals[name] = totals[name].Add(amount)
	}

	result := make([]models.GenreSales, 0, len(totals))
	for name, total := range totals {
		result = append(result, models.GenreSales{Genre: name, Total: total.Round(2)})
	}
	slices.SortFunc(result, func(a, b models.GenreSales) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return compareStrings(a.Genre, b.Genre)
	})
	return truncate(result, limit), nil
}

func (s *Store) EmployeeSalesAbove(_ context.Context, min decimal.Decimal) ([]models.EmployeeSales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supportRep := make(map[int64]int64, len(s.customers))
	for _, c := range s.customers {
		supportRep[c.ID] = c.SupportRepID
	}

	// Inner-join semantics: only employees reached through at least one
	// invoice appear, matching the SQL form of the report.
	totals := make(map[int64]decimal.Decimal)
	for _, inv := range s.invoices {
		rep, ok := supportRep[inv.CustomerID]
		if !ok {
			continue
		}
		totals[rep] = totals[rep].Add(inv.Total)
	}

	result := make([]models.EmployeeSales, 0, len(totals))
	for _, e := range s.employees {
		total, ok := totals[e.ID]
		if !ok || total.Cmp(min) < 0 {
			continue
		}
		result = append(result, models.EmployeeSales{
			EmployeeID: e.ID,
			FirstName:  e.FirstName,
			LastName:   e.LastName,
			Total:      total.Round(2),
		})
	}
	slices.SortFunc(result, func(a, b models.EmployeeSales) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		switch {
		case a.EmployeeID < b.EmployeeID:
			return -1
		case a.EmployeeID > b.EmployeeID:
			return 1
		default:
			return 0
		}
	})
	return result, nil
}

func truncate[T any](s []T, limit int) []T {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit]
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
