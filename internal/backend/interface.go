package backend

import (
	"context"
	"time"

	"finboard/internal/store"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result contains the stores produced for a backend and an optional
// cleanup function.
type Result struct {
	Rows      store.RowStore
	Overrides store.OverrideStore
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// CSV specific
	BaseCSVPath     string
	OverrideCSVPath string

	// SQLite specific. OverrideDBPath is shared with the sheets
	// backend, which keeps overrides locally.
	BaseDBPath     string
	OverrideDBPath string

	// Google Sheets specific
	SheetsTTL time.Duration
}

// BackendType represents the type of backend.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	CSVBackend    BackendType = "csv"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid.
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, CSVBackend, SQLiteBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
