package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/shopspring/decimal"

	"retail-insights/internal/config"
	"retail-insights/internal/export"
	"retail-insights/internal/ingest"
	"retail-insights/internal/observability"
	"retail-insights/internal/store"
	"retail-insights/internal/store/memory"
	"retail-insights/internal/store/pg"
)

const runTimeout = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}

	logger.Info("export completed", "dir", cfg.Export.Dir)
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := seedIfEmpty(ctx, cfg, st, logger); err != nil {
		return err
	}

	return exportAll(ctx, cfg, st, logger)
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	if !cfg.UseDatabase() {
		logger.Info("using in-memory store")
		return memory.New(), func() {}, nil
	}

	pgStore, err := pg.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}

	if err := pgStore.EnsureSchema(ctx); err != nil {
		pgStore.Close()
		return nil, nil, err
	}

	logger.Info("using postgres store")
	return pgStore, pgStore.Close, nil
}

func seedIfEmpty(ctx context.Context, cfg *config.Config, st store.Store, logger *slog.Logger) error {
	if cfg.Ingest.CSVFile == "" {
		return nil
	}

	count, err := st.RetailCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Info("store already populated, skipping CSV ingest", "records", count)
		return nil
	}

	loader, ok := st.(store.RetailLoader)
	if !ok {
		return nil
	}

	ing := ingest.New(loader, cfg.Ingest.BatchSize, logger)
	result, err := ing.LoadFile(ctx, cfg.Ingest.CSVFile)
	if err != nil {
		return err
	}

	logger.Info("CSV data loaded",
		"loaded", result.Loaded,
		"skipped", result.Skipped,
		"duration", result.Elapsed,
	)
	return nil
}

// exportAll runs every report once and the employee threshold report once
// per configured threshold, one CSV file each.
func exportAll(ctx context.Context, cfg *config.Config, st store.Store, logger *slog.Logger) error {
	dir := cfg.Export.Dir

	customers, err := st.CustomerPurchases(ctx, 0)
	if err != nil {
		return fmt.Errorf("customer purchases report: %w", err)
	}
	if err := export.CustomerPurchases(filepath.Join(dir, "customer_purchases.csv"), customers); err != nil {
		return err
	}

	products, err := st.TopProducts(ctx, 0)
	if err != nil {
		return fmt.Errorf("top products report: %w", err)
	}
	if err := export.TopProducts(filepath.Join(dir, "top_products.csv"), products); err != nil {
		return err
	}

	monthly, err := st.MonthlyRevenue(ctx)
	if err != nil {
		return fmt.Errorf("monthly revenue report: %w", err)
	}
	if err := export.MonthlyRevenue(filepath.Join(dir, "monthly_revenue.csv"), monthly); err != nil {
		return err
	}

	daily, err := st.DailyTransactions(ctx)
	if err != nil {
		return fmt.Errorf("daily transactions report: %w", err)
	}
	if err := export.DailyTransactions(filepath.Join(dir, "daily_transactions.csv"), daily); err != nil {
		return err
	}

	total, err := st.TotalSales(ctx)
	if err != nil {
		return fmt.Errorf("total sales report: %w", err)
	}
	if err := export.TotalSales(filepath.Join(dir, "total_sales.csv"), total); err != nil {
		return err
	}

	genres, err := st.GenreSales(ctx, 0)
	if err != nil {
		return fmt.Errorf("genre sales report: %w", err)
	}
	if err := export.GenreSales(filepath.Join(dir, "genre_sales.csv"), genres); err != nil {
		return err
	}

	for _, threshold := range cfg.Export.Thresholds {
		min := decimal.NewFromInt(int64(threshold))

		rows, err := st.EmployeeSalesAbove(ctx, min)
		if err != nil {
			return fmt.Errorf("employee sales report (min=%d): %w", threshold, err)
		}

		name := fmt.Sprintf("employee_sales_%d.csv", threshold)
		if err := export.EmployeeSales(filepath.Join(dir, name), rows); err != nil {
			return err
		}

		logger.Info("employee report written", "threshold", threshold, "rows", len(rows))
	}

	return nil
}
