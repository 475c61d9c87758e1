package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finboard/internal/core"
	"finboard/internal/store/csvfile"
	"finboard/internal/store/gsheet"
	"finboard/internal/store/memory"
	"finboard/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend()
	case CSVBackend:
		return f.createCSVBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend() (*Result, error) {
	rows := memory.NewRowStore(sampleRows(time.Now().UTC()))

	f.logger.Info("Initialized memory backend with sample data")

	return &Result{
		Rows:      rows,
		Overrides: memory.NewOverrideStore(),
	}, nil
}

func (f *DefaultFactory) createCSVBackend(config Config) (*Result, error) {
	f.logger.Info("Initialized CSV backend",
		"base_path", config.BaseCSVPath,
		"override_path", config.OverrideCSVPath)

	return &Result{
		Rows:      csvfile.NewBaseStore(config.BaseCSVPath),
		Overrides: csvfile.NewOverrideStore(config.OverrideCSVPath),
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	base, err := sqlite.NewBaseStore(config.BaseDBPath,
		sqlite.WithRecategorizations(sqlite.DefaultRecategorizations()),
		sqlite.WithHiddenMerchants(sqlite.DefaultHiddenMerchants()))
	if err != nil {
		return nil, fmt.Errorf("failed to open base database: %w", err)
	}

	overrides, err := f.openOverrideRepository(config.OverrideDBPath)
	if err != nil {
		base.Close()
		return nil, err
	}

	f.logger.Info("Initialized SQLite backend",
		"base_db", config.BaseDBPath,
		"override_db", config.OverrideDBPath)

	return &Result{
		Rows:      base,
		Overrides: overrides,
		Cleanup: func() error {
			return errors.Join(base.Close(), overrides.Close())
		},
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*Result, error) {
	base, err := gsheet.NewFromEnv(ctx, config.SheetsTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	overrides, err := f.openOverrideRepository(config.OverrideDBPath)
	if err != nil {
		return nil, err
	}

	f.logger.Info("Initialized Google Sheets backend",
		"ttl", config.SheetsTTL,
		"override_db", config.OverrideDBPath)

	return &Result{
		Rows:      base,
		Overrides: overrides,
		Cleanup:   overrides.Close,
	}, nil
}

// openOverrideRepository migrates and opens the local override database,
// shared by the sqlite and sheets backends.
func (f *DefaultFactory) openOverrideRepository(dbPath string) (*sqlite.Repository, error) {
	if err := sqlite.RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("failed to migrate override database: %w", err)
	}
	repo, err := sqlite.NewRepository(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open override database: %w", err)
	}
	return repo, nil
}

// sampleRows seeds the memory backend so a fresh checkout renders a
// populated dashboard without any external data source.
func sampleRows(now time.Time) []core.Transaction {
	day := func(daysAgo int) core.Date {
		d := now.AddDate(0, 0, -daysAgo)
		return core.NewDate(d.Year(), int(d.Month()), d.Day())
	}
	return []core.Transaction{
		{ID: "sample-1", Date: day(1), MerchantName: "Blue Bottle Coffee", Amount: core.Money{Cents: 650}, Category: core.FoodAndDrink, AccountID: "jay-checking"},
		{ID: "sample-2", Date: day(2), MerchantName: "Whole Foods", Amount: core.Money{Cents: 8432}, Category: core.FoodAndDrink, AccountID: "cara-credit"},
		{ID: "sample-3", Date: day(3), MerchantName: "Shell", Amount: core.Money{Cents: 4210}, Category: core.Transportation, AccountID: "jay-checking"},
		{ID: "sample-4", Date: day(5), MerchantName: "Netflix", Amount: core.Money{Cents: 1599}, Category: core.Entertainment, AccountID: "cara-credit"},
		{ID: "sample-5", Date: day(6), MerchantName: "Target", Amount: core.Money{Cents: 12075}, Category: core.GeneralMerchandise, AccountID: "jay-credit"},
		{ID: "sample-6", Date: day(8), MerchantName: "City Utilities", Amount: core.Money{Cents: 18900}, Category: core.RentAndUtilities, AccountID: "jay-checking"},
		{ID: "sample-7", Date: day(12), MerchantName: "AMC Theatres", Amount: core.Money{Cents: 3400}, Category: core.Entertainment, AccountID: "jay-credit"},
		{ID: "sample-8", Date: day(15), MerchantName: "CVS Pharmacy", Amount: core.Money{Cents: 2250}, Category: core.Medical, AccountID: "cara-checking"},
		{ID: "sample-9", Date: day(20), MerchantName: "Amazon Refund", Amount: core.Money{Cents: -2500}, Category: core.GeneralMerchandise, AccountID: "jay-checking"},
		{ID: "sample-10", Date: day(40), MerchantName: "Home Depot", Amount: core.Money{Cents: 15600}, Category: core.HomeImprovement, AccountID: "cara-credit"},
	}
}
