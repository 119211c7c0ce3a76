// Package ingest streams the online-retail CSV into a store. Records are
// read sequentially (the description field contains quoted commas), parsed
// in parallel batches, and appended batch by batch. Malformed rows are
// skipped and counted, never fatal.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"retail-insights/internal/models"
	"retail-insights/internal/store"
)

const (
	defaultBatchSize = 5000
	maxWorkers       = 10
)

// The raw UCI export uses month/day timestamps; re-exported files carry
// the normalized form. Both are accepted.
var dateLayouts = []string{
	"1/2/2006 15:04",
	"2006-01-02 15:04:05",
}

type Result struct {
	Loaded  int64
	Skipped int64
	Elapsed time.Duration
}

type Ingestor struct {
	dst       store.RetailLoader
	batchSize int
	logger    *slog.Logger
}

func New(dst store.RetailLoader, batchSize int, logger *slog.Logger) *Ingestor {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Ingestor{dst: dst, batchSize: batchSize, logger: logger}
}

// LoadFile ingests the CSV at path into the destination store.
func (ing *Ingestor) LoadFile(ctx context.Context, path string) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	return ing.Load(ctx, file)
}

func (ing *Ingestor) Load(ctx context.Context, r io.Reader) (Result, error) {
	start := time.Now()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Header row.
	if _, err := reader.Read(); err != nil {
		return Result{}, fmt.Errorf("read header: %w", err)
	}

	var loaded, skipped atomic.Int64
	batch := make([][]string, 0, ing.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := ing.processBatch(ctx, batch, &loaded, &skipped); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A structurally broken row is skipped like any other bad
			// row. Anything else is an io failure that would repeat on
			// every read, so it aborts the load.
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped.Add(1)
				continue
			}
			return Result{}, fmt.Errorf("read csv: %w", err)
		}

		batch = append(batch, record)
		if len(batch) >= ing.batchSize {
			if err := flush(); err != nil {
				return Result{}, err
			}
		}
	}

	if err := flush(); err != nil {
		return Result{}, err
	}

	res := Result{
		Loaded:  loaded.Load(),
		Skipped: skipped.Load(),
		Elapsed: time.Since(start),
	}

	if res.Loaded == 0 {
		return res, fmt.Errorf("no valid records found")
	}

	ing.logger.Info("csv ingest complete",
		"loaded", res.Loaded,
		"skipped", res.Skipped,
		"duration", res.Elapsed,
	)
	return res, nil
}

func (ing *Ingestor) processBatch(ctx context.Context, batch [][]string, loaded, skipped *atomic.Int64) error {
	parsed := make([]models.RetailLine, len(batch))
	valid := make([]bool, len(batch))

	var wg errgroup.Group
	wg.SetLimit(maxWorkers)

	for i, record := range batch {
		wg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			line, err := parseRecord(record)
			if err != nil {
				skipped.Add(1)
				return nil
			}
			parsed[i] = line
			valid[i] = true
			return nil
		})
	}

	if err := wg.Wait(); err != nil {
		return err
	}

	lines := make([]models.RetailLine, 0, len(batch))
	for i, ok := range valid {
		if ok {
			lines = append(lines, parsed[i])
		}
	}

	if len(lines) == 0 {
		return nil
	}
	if err := ing.dst.AppendRetail(ctx, lines); err != nil {
		return fmt.Errorf("append batch: %w", err)
	}
	loaded.Add(int64(len(lines)))
	return nil
}

// parseRecord coerces one CSV record into a RetailLine. Expected columns:
// InvoiceNo, StockCode, Description, Quantity, InvoiceDate, UnitPrice,
// CustomerID, Country. A missing customer id becomes the "0" sentinel.
func parseRecord(record []string) (models.RetailLine, error) {
	if len(record) < 8 {
		return models.RetailLine{}, fmt.Errorf("expected 8 columns, got %d", len(record))
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(record[3]))
	if err != nil {
		return models.RetailLine{}, fmt.Errorf("quantity: %w", err)
	}

	date, err := parseDate(strings.TrimSpace(record[4]))
	if err != nil {
		return models.RetailLine{}, fmt.Errorf("invoice date: %w", err)
	}

	unitPrice, err := decimal.NewFromString(strings.TrimSpace(record[5]))
	if err != nil {
		return models.RetailLine{}, fmt.Errorf("unit price: %w", err)
	}

	customerID := strings.TrimSpace(record[6])
	customerID = strings.TrimSuffix(customerID, ".0")
	if customerID == "" {
		customerID = models.UnknownCustomerID
	}

	return models.RetailLine{
		InvoiceNo:   strings.TrimSpace(record[0]),
		StockCode:   strings.TrimSpace(record[1]),
		Description: strings.TrimSpace(record[2]),
		Quantity:    quantity,
		InvoiceDate: date,
		UnitPrice:   unitPrice,
		CustomerID:  customerID,
		Country:     strings.TrimSpace(record[7]),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
