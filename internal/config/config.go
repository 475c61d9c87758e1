package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"finboard/internal/core"
)

type Config struct {
	// HTTP Server
	Port string

	// Dashboard session gate; empty disables authentication.
	DashboardPassword string

	// Backend selection
	DataBackend string

	// CSV backend
	BaseCSVPath     string
	OverrideCSVPath string

	// SQLite backend. BaseDBPath is the sync-owned Plaid database
	// (read-only); OverrideDBPath holds overrides and the audit trail
	// and is used by every backend when AMQP auditing is enabled.
	BaseDBPath     string
	OverrideDBPath string

	// Google Sheets backend
	GoogleSpreadsheetID string
	GoogleSheetName     string
	SheetsTTL           time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// View shaping
	PageSize     int
	WindowDays   int
	RollingLabel string

	// Owners selectable in the dashboard, besides "all".
	Owners []string

	// Budget tables in cents: shared for the all-owners view,
	// individual for a named owner's discretionary view.
	SharedBudgets core.Budgets
	OwnerBudgets  core.Budgets

	// Essential categories hidden from per-owner views.
	ExcludedCategories []core.Category
}

func Load() *Config {
	cfg := &Config{
		Port:              getEnv("PORT", "8081"),
		DashboardPassword: getEnv("DASHBOARD_PASSWORD", ""),

		DataBackend: getEnv("DATA_BACKEND", "memory"),

		BaseCSVPath:     getEnv("BASE_CSV_PATH", "./data/transactions.csv"),
		OverrideCSVPath: getEnv("OVERRIDE_CSV_PATH", "./data/overrides.csv"),

		BaseDBPath:     getEnv("BASE_DB_PATH", "./data/plaid-sync.db"),
		OverrideDBPath: getEnv("OVERRIDE_DB_PATH", "./data/finboard.db"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		SheetsTTL:           getEnvDuration("SHEETS_TTL", 5*time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finboard"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "override_changes"),

		PageSize:     getEnvInt("PAGE_SIZE", 10),
		WindowDays:   getEnvInt("WINDOW_DAYS", 30),
		RollingLabel: getEnv("ROLLING_LABEL", "Last 30 Days"),

		Owners: getEnvList("OWNERS", []string{"jay", "cara"}),

		SharedBudgets:      getEnvBudgets("SHARED_BUDGETS", defaultSharedBudgets()),
		OwnerBudgets:       getEnvBudgets("OWNER_BUDGETS", defaultOwnerBudgets()),
		ExcludedCategories: getEnvCategories("EXCLUDED_CATEGORIES", defaultExcluded()),
	}

	return cfg
}

// defaultSharedBudgets is the household envelope table for the
// all-accounts view.
func defaultSharedBudgets() core.Budgets {
	return core.Budgets{
		core.CategoryTotal:      {Cents: 250000},
		core.GeneralMerchandise: {Cents: 60000},
		core.FoodAndDrink:       {Cents: 10000},
		core.Transportation:     {Cents: 20000},
	}
}

// defaultOwnerBudgets is the per-owner extras envelope.
func defaultOwnerBudgets() core.Budgets {
	return core.Budgets{
		core.Entertainment: {Cents: 10000},
	}
}

// defaultExcluded lists the essential categories a per-owner view hides,
// leaving only discretionary spending.
func defaultExcluded() []core.Category {
	return []core.Category{
		core.GeneralMerchandise,
		core.FoodAndDrink,
		core.Transportation,
		core.RentAndUtilities,
		core.Medical,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"memory", "csv", "sqlite", "sheets"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate CSV configuration if backend is csv
	if c.DataBackend == "csv" {
		if c.BaseCSVPath == "" {
			errors = append(errors, "base CSV path cannot be empty when using csv backend")
		} else if _, err := os.Stat(c.BaseCSVPath); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("base CSV file does not exist: %s", c.BaseCSVPath))
		}
		if c.OverrideCSVPath == "" {
			errors = append(errors, "override CSV path cannot be empty when using csv backend")
		}
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.BaseDBPath == "" {
			errors = append(errors, "base database path cannot be empty when using sqlite backend")
		} else if _, err := os.Stat(c.BaseDBPath); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("base database does not exist: %s", c.BaseDBPath))
		}
	}
	if c.DataBackend == "sqlite" || c.DataBackend == "sheets" || c.AMQPURL != "" {
		if c.OverrideDBPath == "" {
			errors = append(errors, "override database path cannot be empty")
		} else {
			dir := filepath.Dir(c.OverrideDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate Google Sheets configuration if backend is sheets
	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate view shaping
	if c.PageSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be at least 1", c.PageSize))
	} else if c.PageSize > 500 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be at most 500", c.PageSize))
	}
	if c.WindowDays < 1 {
		errors = append(errors, fmt.Sprintf("invalid window days %d: must be at least 1", c.WindowDays))
	} else if c.WindowDays > 366 {
		errors = append(errors, fmt.Sprintf("invalid window days %d: must be at most 366", c.WindowDays))
	}
	if c.RollingLabel == "" {
		errors = append(errors, "rolling label cannot be empty")
	}

	for cat, limit := range c.SharedBudgets {
		if limit.Cents < 0 {
			errors = append(errors, fmt.Sprintf("negative shared budget for %s", cat))
		}
	}
	for cat, limit := range c.OwnerBudgets {
		if limit.Cents < 0 {
			errors = append(errors, fmt.Sprintf("negative owner budget for %s", cat))
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList parses a comma-separated list, e.g. "jay,cara".
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getEnvCategories parses a comma-separated category list.
func getEnvCategories(key string, defaultValue []core.Category) []core.Category {
	names := getEnvList(key, nil)
	if names == nil {
		return defaultValue
	}
	out := make([]core.Category, len(names))
	for i, n := range names {
		out[i] = core.Category(n)
	}
	return out
}

// getEnvBudgets parses "CATEGORY:dollars" pairs, e.g.
// "Total:2500,FOOD_AND_DRINK:100". Malformed pairs are skipped.
func getEnvBudgets(key string, defaultValue core.Budgets) core.Budgets {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	out := core.Budgets{}
	for _, pair := range strings.Split(value, ",") {
		name, amount, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			continue
		}
		cents, err := core.ParseAmountToCents(amount)
		if err != nil {
			continue
		}
		out[core.Category(strings.TrimSpace(name))] = core.Money{Cents: cents}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
