package main

import (
	"context"
	"flag"
	"log"
	"os"

	"supplychain/internal/config"
	"supplychain/internal/db"
	"supplychain/internal/domain"
	"supplychain/internal/excel"
	"supplychain/internal/logging"
	"supplychain/internal/repository"
	"supplychain/internal/service"

	"go.uber.org/zap"
)

type options struct {
	filePath string
	userID   int64
	username string
	dryRun   bool
}

func main() {
	os.Exit(run(parseFlags()))
}

// run returns 2 when any row was rejected so scripts can tell a partial import
// from a clean one.
func run(opts options) int {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	rows, err := readRows(opts.filePath)
	if err != nil {
		logger.Fatal("read purchase workbook", zap.String("file", opts.filePath), zap.Error(err))
	}
	logger.Info("purchase workbook parsed", zap.String("file", opts.filePath), zap.Int("rows", len(rows)))
	if opts.dryRun {
		unreadable := 0
		for _, row := range rows {
			if row.ParseError != "" {
				unreadable++
				logger.Warn("row unreadable", zap.Int("row", row.Row), zap.String("error", row.ParseError))
				continue
			}
			logger.Info("row",
				zap.Int("row", row.Row),
				zap.String("material", row.MaterialCode),
				zap.String("supplier", row.SupplierCode),
				zap.Int("quantity", row.Quantity),
				zap.String("status", row.Status),
			)
		}
		if unreadable > 0 {
			return 2
		}
		return 0
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Database.URL, db.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		logger.Fatal("database error", zap.Error(err))
	}
	defer pool.Close()

	if _, err := db.RunMigrations(ctx, pool); err != nil {
		logger.Fatal("migration error", zap.Error(err))
	}

	svc := service.New(repository.New(pool), service.Options{Logger: logger})
	if _, err := svc.EnsureDefaultWarehouse(ctx, cfg.Warehouse.DefaultCode, cfg.Warehouse.DefaultName); err != nil {
		logger.Fatal("default warehouse init error", zap.Error(err))
	}

	actor := domain.Principal{UserID: opts.userID, Username: opts.username, Role: domain.RoleAdmin}
	results, err := svc.ImportPurchaseOrders(ctx, actor, rows)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}

	failed := 0
	for _, result := range results {
		if result.Error != "" {
			failed++
			logger.Warn("row rejected", zap.Int("row", result.Row), zap.String("error", result.Error))
			continue
		}
		logger.Info("purchase order imported",
			zap.Int("row", result.Row),
			zap.String("po_no", result.PONo),
			zap.Int64("id", result.ID),
			zap.String("status", string(result.Status)),
		)
	}
	logger.Info("import complete",
		zap.Int("rows", len(rows)),
		zap.Int("created", len(results)-failed),
		zap.Int("failed", failed),
	)
	if failed > 0 {
		return 2
	}
	return 0
}

func parseFlags() options {
	var opts options
	flag.StringVar(
		&opts.filePath,
		"file",
		"purchase_orders.xlsx",
		"path to the purchase order workbook",
	)
	flag.Int64Var(
		&opts.userID,
		"user-id",
		1,
		"user id recorded as creator of the imported orders",
	)
	flag.StringVar(
		&opts.username,
		"username",
		"import",
		"username recorded in the import log",
	)
	flag.BoolVar(
		&opts.dryRun,
		"dry-run",
		false,
		"parse the workbook and print the rows without writing",
	)
	flag.Parse()
	if opts.userID <= 0 {
		log.Fatalf("invalid --user-id: %d", opts.userID)
	}
	return opts
}

func readRows(path string) ([]domain.PurchaseImportRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return excel.ParsePurchaseRows(f)
}
