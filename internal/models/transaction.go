package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// UnknownCustomerID is the sentinel used when a retail line has no
	// customer attached. It must never appear in customer-level aggregates.
	UnknownCustomerID = "0"

	// CancellationPrefix marks a voided invoice. Cancelled lines are
	// excluded from all revenue aggregates.
	CancellationPrefix = "C"
)

// RetailLine is one row of the online-retail transaction log.
type RetailLine struct {
	InvoiceNo   string
	StockCode   string
	Description string
	Quantity    int
	InvoiceDate time.Time
	UnitPrice   decimal.Decimal
	CustomerID  string
	Country     string
}

// Cancelled reports whether the line belongs to a voided invoice.
func (l RetailLine) Cancelled() bool {
	return strings.HasPrefix(l.InvoiceNo, CancellationPrefix)
}

// UnknownCustomer reports whether the line carries the sentinel customer id.
func (l RetailLine) UnknownCustomer() bool {
	return l.CustomerID == "" || l.CustomerID == UnknownCustomerID
}

// Amount is the monetary value of the line (quantity times unit price).
func (l RetailLine) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type CustomerPurchase struct {
	CustomerID string          `json:"customer_id"`
	Total      decimal.Decimal `json:"total_purchase_amount"`
}

type ProductOrders struct {
	StockCode string `json:"stock_code"`
	Orders    int64  `json:"total_orders"`
}

type MonthlyRevenue struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Revenue decimal.Decimal `json:"monthly_revenue"`
}

type DailyTransactions struct {
	Date         string `json:"date"`
	Transactions int64  `json:"total_transactions"`
}

type GenreSales struct {
	Genre string          `json:"genre"`
	Total decimal.Decimal `json:"total_sales"`
}

type EmployeeSales struct {
	EmployeeID int64           `json:"employee_id"`
	FirstName  string          `json:"first_name"`
	LastName   string          `json:"last_name"`
	Total      decimal.Decimal `json:"total_sales"`
}

// Music-store dimensions and facts. Employees support customers, customers
// own invoices, invoice items reference tracks which carry a genre.
type Employee struct {
	ID        int64
	FirstName string
	LastName  string
	Title     string
}

type Customer struct {
	ID           int64
	FirstName    string
	LastName     string
	SupportRepID int64
}

type Invoice struct {
	ID          int64
	CustomerID  int64
	InvoiceDate time.Time
	Total       decimal.Decimal
}

type Genre struct {
	ID   int64
	Name string
}

type Track struct {
	ID      int64
	Name    string
	GenreID int64
}

type InvoiceItem struct {
	ID        int64
	InvoiceID int64
	TrackID   int64
	UnitPrice decimal.Decimal
	Quantity  int
}
