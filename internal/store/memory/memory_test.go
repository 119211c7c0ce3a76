package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"retail-insights/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func line(invoice, stock, customer string, qty int, price string, date time.Time) models.RetailLine {
	return models.RetailLine{
		InvoiceNo:   invoice,
		StockCode:   stock,
		Description: "test item",
		Quantity:    qty,
		InvoiceDate: date,
		UnitPrice:   dec(price),
		CustomerID:  customer,
		Country:     "United Kingdom",
	}
}

var day = time.Date(2011, 3, 15, 10, 30, 0, 0, time.UTC)

func TestCustomerPurchases_ExcludesCancellations(t *testing.T) {
	s := New()
	s.SetRetail([]models.RetailLine{
		line("536365", "85123A", "17850", 1, "100.00", day),
		line("C536366", "85123A", "17850", 1, "50.00", day),
	})

	got, err := s.CustomerPurchases(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 customer, got %d", len(got))
	}
	if !got[0].Total.Equal(dec("100.00")) {
		t.Errorf("expected 100.00 after excluding cancellation, got %s", got[0].Total)
	}
}

func TestCustomerPurchases_ExcludesUnknownCustomerSentinel(t *testing.T) {
	s := New()
	s.SetRetail([]models.RetailLine{
		line("536365", "85123A", "0", 2, "10.00", day),
		line("536366", "85123A", "", 1, "10.00", day),
	})

	got, err := s.CustomerPurchases(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("sentinel-only dataset must yield empty ranking, got %d rows", len(got))
	}
}

func TestCustomerPurchases_TopNTruncationAndOrder(t *testing.T) {
	s := New()
	var lines []models.RetailLine
	customers := []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7"}
	for i, c := range customers {
		// Distinct totals: 10, 20, ... 70.
		lines = append(lines, line("54000"+c, "S1", c, i+1, "10.00", day))
	}
	s.SetRetail(lines)

	got, err := s.CustomerPurchases(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected exactly 3 rows, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Total.GreaterThan(got[i-1].Total) {
			t.Errorf("rows not in descending order: %s before %s", got[i-1].Total, got[i].Total)
		}
	}
	if got[0].CustomerID != "c7" {
		t.Errorf("expected top customer c7, got %s", got[0].CustomerID)
	}
}

func TestTotalSales_RoundsToTwoDecimalPlaces(t *testing.T) {
	s := New()
	// 3 * 3.335 = 10.005, reported as 10.01 under standard rounding.
	s.SetRetail([]models.RetailLine{
		line("536365", "85123A", "17850", 3, "3.335", day),
	})

	got, err := s.TotalSales(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "10.01" {
		t.Errorf("expected 10.01, got %s", got)
	}
}

func TestMonthlyRevenue_ChronologicalAndExcludesCancellations(t *testing.T) {
	s := New()
	s.SetRetail([]models.RetailLine{
		line("536370", "S1", "17850", 1, "5.00", time.Date(2011, 2, 1, 0, 0, 0, 0, time.UTC)),
		line("536365", "S1", "17850", 1, "7.00", time.Date(2011, 1, 5, 0, 0, 0, 0, time.UTC)),
		line("C536380", "S1", "17850", 1, "9.00", time.Date(2011, 1, 20, 0, 0, 0, 0, time.UTC)),
	})

	got, err := s.MonthlyRevenue(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 months, got %d", len(got))
	}
	if got[0].Year != 2011 || got[0].Month != 1 {
		t.Errorf("expected 2011-01 first, got %d-%02d", got[0].Year, got[0].Month)
	}
	if !got[0].Revenue.Equal(dec("7.00")) {
		t.Errorf("January revenue should exclude cancellation, got %s", got[0].Revenue)
	}
}

func TestDailyTransactions_CountsDistinctInvoices(t *testing.T) {
	s := New()
	s.SetRetail([]models.RetailLine{
		line("536365", "S1", "17850", 1, "1.00", day),
		line("536365", "S2", "17850", 1, "1.00", day),
		line("536366", "S1", "17851", 1, "1.00", day),
	})

	got, err := s.DailyTransactions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 day, got %d", len(got))
	}
	if got[0].Transactions != 2 {
		t.Errorf("expected 2 distinct invoices, got %d", got[0].Transactions)
	}
}

func TestTopProducts_Truncation(t *testing.T) {
	s := New()
	s.SetRetail([]models.RetailLine{
		line("1", "A", "c1", 1, "1.00", day),
		line("2", "A", "c1", 1, "1.00", day),
		line("3", "B", "c1", 1, "1.00", day),
		line("4", "C", "c1", 1, "1.00", day),
	})

	got, err := s.TopProducts(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].StockCode != "A" || got[0].Orders != 2 {
		t.Errorf("expected A with 2 orders first, got %+v", got[0])
	}
}

func musicFixture(s *Store) {
	employees := []models.Employee{
		{ID: 1, FirstName: "Jane", LastName: "Peacock", Title: "Sales Support Agent"},
		{ID: 2, FirstName: "Margaret", LastName: "Park", Title: "Sales Support Agent"},
		{ID: 3, FirstName: "Steve", LastName: "Johnson", Title: "Sales Support Agent"},
	}
	customers := []models.Customer{
		{ID: 10, FirstName: "Luis", LastName: "Goncalves", SupportRepID: 1},
		{ID: 11, FirstName: "Leonie", LastName: "Koehler", SupportRepID: 2},
		{ID: 12, FirstName: "Francois", LastName: "Tremblay", SupportRepID: 3},
	}
	invoices := []models.Invoice{
		{ID: 100, CustomerID: 10, InvoiceDate: day, Total: dec("700.00")},
		{ID: 101, CustomerID: 11, InvoiceDate: day, Total: dec("250.00")},
		{ID: 102, CustomerID: 11, InvoiceDate: day, Total: dec("250.00")},
		{ID: 103, CustomerID: 12, InvoiceDate: day, Total: dec("120.00")},
	}
	genres := []models.Genre{{ID: 1, Name: "Rock"}, {ID: 2, Name: "Jazz"}}
	tracks := []models.Track{
		{ID: 1, Name: "Track A", GenreID: 1},
		{ID: 2, Name: "Track B", GenreID: 2},
	}
	items := []models.InvoiceItem{
		{ID: 1, InvoiceID: 100, TrackID: 1, UnitPrice: dec("0.99"), Quantity: 3},
		{ID: 2, InvoiceID: 101, TrackID: 2, UnitPrice: dec("1.99"), Quantity: 1},
	}
	s.SetMusicStore(employees, customers, invoices, genres, tracks, items)
}

func TestEmployeeSalesAbove_InclusiveBoundary(t *testing.T) {
	s := New()
	musicFixture(s)

	// Margaret's total is exactly 500.00: must be included at min=500.
	got, err := s.EmployeeSalesAbove(context.Background(), dec("500"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 employees at threshold 500, got %d", len(got))
	}
	if got[0].EmployeeID != 1 || got[1].EmployeeID != 2 {
		t.Errorf("unexpected order: %+v", got)
	}
	if !got[1].Total.Equal(dec("500.00")) {
		t.Errorf("boundary total should be 500.00, got %s", got[1].Total)
	}
}

func TestEmployeeSalesAbove_Monotonicity(t *testing.T) {
	s := New()
	musicFixture(s)
	ctx := context.Background()

	low, err := s.EmployeeSalesAbove(ctx, dec("100"))
	if err != nil {
		t.Fatal(err)
	}
	high, err := s.EmployeeSalesAbove(ctx, dec("600"))
	if err != nil {
		t.Fatal(err)
	}

	if len(high) > len(low) {
		t.Fatalf("higher threshold returned more rows: %d vs %d", len(high), len(low))
	}
	qualified := make(map[int64]bool)
	for _, e := range low {
		qualified[e.EmployeeID] = true
	}
	for _, e := range high {
		if !qualified[e.EmployeeID] {
			t.Errorf("employee %d qualifies at 600 but not at 100", e.EmployeeID)
		}
	}
}

func TestEmployeeSalesAbove_UnattainableThresholdIsEmptyNotError(t *testing.T) {
	s := New()
	musicFixture(s)

	got, err := s.EmployeeSalesAbove(context.Background(), dec("1000000"))
	if err != nil {
		t.Fatalf("unattainable threshold must not error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d rows", len(got))
	}
}

func TestEmployeeSalesAbove_ZeroThresholdReturnsAllJoinedEmployees(t *testing.T) {
	s := New()
	musicFixture(s)

	got, err := s.EmployeeSalesAbove(context.Background(), decimal.Zero)
	if err != nil {
		t.Fatal(err)
	}
	// Inner-join semantics: all three employees have at least one invoice.
	if len(got) != 3 {
		t.Errorf("expected 3 employees at threshold 0, got %d", len(got))
	}
}

func TestGenreSales_Ranking(t *testing.T) {
	s := New()
	musicFixture(s)

	got, err := s.GenreSales(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 genres, got %d", len(got))
	}
	if got[0].Genre != "Rock" || !got[0].Total.Equal(dec("2.97")) {
		t.Errorf("expected Rock at 2.97, got %+v", got[0])
	}
}

func TestAppendRetail_Accumulates(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.AppendRetail(ctx, []models.RetailLine{line("1", "A", "c1", 1, "1.00", day)}); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendRetail(ctx, []models.RetailLine{line("2", "B", "c2", 1, "1.00", day)}); err != nil {
		t.Fatal(err)
	}

	n, err := s.RetailCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 lines, got %d", n)
	}
}
