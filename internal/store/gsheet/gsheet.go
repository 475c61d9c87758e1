// Package gsheet reads base transactions from a Google Sheets export.
// Some households keep a hand-curated transaction sheet instead of a
// Plaid sync database; this store lets the dashboard sit on top of it.
package gsheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"finboard/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Expected column order in the transactions sheet. A header row with
// these titles is tolerated and skipped.
// A: transaction_id, B: date, C: amount, D: merchant_name,
// E: name, F: account_id, G: category primary, H: category detailed.
const readRange = "!A:H"

// Store is a read-only row store over one sheet of a spreadsheet.
// Fetches are cached for a TTL; LastModified reports the fetch time so
// the dataset layer refreshes at most once per TTL window.
type Store struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	ttl           time.Duration

	mu        sync.Mutex
	rows      []core.Transaction
	fetchedAt time.Time
}

// NewFromEnv builds a Store from environment variables. Required:
// GOOGLE_SPREADSHEET_ID. Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME (default "Transactions").
func NewFromEnv(ctx context.Context, ttl time.Duration) (*Store, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Transactions"
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		ttl:           ttl,
	}, nil
}

// newSheetsService initializes a Sheets service with service-account
// credentials. The read-only scope is enough for this store.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (s *Store) ReadAll(ctx context.Context) ([]core.Transaction, error) {
	rows, _, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, len(rows))
	copy(out, rows)
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (core.Transaction, error) {
	rows, _, err := s.fetch(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	for _, t := range rows {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

// LastModified reports when the cached snapshot was fetched. The Sheets
// API exposes no cheap change signal, so freshness is TTL-bucketed.
func (s *Store) LastModified(ctx context.Context) (time.Time, error) {
	_, fetchedAt, err := s.fetch(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return fetchedAt, nil
}

func (s *Store) fetch(ctx context.Context) ([]core.Transaction, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fetchedAt.IsZero() && time.Since(s.fetchedAt) < s.ttl {
		return s.rows, s.fetchedAt, nil
	}

	rng := s.sheetName + readRange
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		// Serve the stale snapshot when the API is unreachable but we
		// have one; first fetch still fails hard.
		if !s.fetchedAt.IsZero() {
			slog.WarnContext(ctx, "sheets fetch failed, serving stale snapshot",
				"range", rng, "fetched_at", s.fetchedAt, "error", err)
			return s.rows, s.fetchedAt, nil
		}
		return nil, time.Time{}, fmt.Errorf("read %s: %w", rng, errors.Join(core.ErrDataSource, err))
	}

	rows, err := parseRows(resp.Values)
	if err != nil {
		return nil, time.Time{}, err
	}
	s.rows = rows
	s.fetchedAt = time.Now().UTC()
	return s.rows, s.fetchedAt, nil
}

func parseRows(values [][]any) ([]core.Transaction, error) {
	var out []core.Transaction
	for i, row := range values {
		cols := toStrings(row)
		if len(cols) < 7 {
			continue
		}
		// Skip the header row and any stray blank lines.
		if i == 0 && strings.EqualFold(cols[0], "transaction_id") {
			continue
		}
		if cols[0] == "" {
			continue
		}
		t, err := parseRow(cols)
		if err != nil {
			return nil, fmt.Errorf("sheet row %d: %w", i+1, errors.Join(core.ErrDataSource, err))
		}
		out = append(out, t)
	}
	return out, nil
}

func parseRow(cols []string) (core.Transaction, error) {
	date, err := core.ParseDate(cols[1])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date %q: %w", cols[1], err)
	}
	cents, err := core.ParseAmountToCents(cols[2])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", cols[2], err)
	}
	t := core.Transaction{
		ID:           cols[0],
		Date:         date,
		Amount:       core.Money{Cents: cents},
		MerchantName: cols[3],
		Name:         cols[4],
		AccountID:    cols[5],
		Category:     core.Category(cols[6]),
	}
	if len(cols) >= 8 {
		t.CategoryDetailed = cols[7]
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
