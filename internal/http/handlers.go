package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"finboard/internal/core"
	"finboard/internal/services"
)

type transactionJSON struct {
	ID               string `json:"id"`
	Date             string `json:"date"`
	AmountCents      int64  `json:"amount_cents"`
	Amount           string `json:"amount"`
	MerchantName     string `json:"merchant_name"`
	Name             string `json:"name"`
	AccountID        string `json:"account_id"`
	Category         string `json:"category"`
	CategoryDetailed string `json:"category_detailed,omitempty"`
	Color            string `json:"color"`
}

type summaryJSON struct {
	TotalCents int64                `json:"total_cents"`
	Total      string               `json:"total"`
	ByCategory []categoryAmountJSON `json:"by_category"`
}

type categoryAmountJSON struct {
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Color       string `json:"color"`
}

type budgetJSON struct {
	Category        string  `json:"category"`
	LimitCents      int64   `json:"limit_cents"`
	SpentCents      int64   `json:"spent_cents"`
	AmountLeftCents int64   `json:"amount_left_cents"`
	AmountLeft      string  `json:"amount_left"`
	PercentLeft     float64 `json:"percent_left"`
	OverBudget      bool    `json:"over_budget"`
	State           string  `json:"state"`
}

type overrideJSON struct {
	TransactionID string  `json:"transaction_id"`
	Amount        *string `json:"amount,omitempty"`
	Category      *string `json:"category,omitempty"`
}

type viewJSON struct {
	Rows        []transactionJSON `json:"rows"`
	Page        int               `json:"page"`
	PageCount   int               `json:"page_count"`
	Summary     summaryJSON       `json:"summary"`
	Budgets     []budgetJSON      `json:"budgets"`
	LastUpdated string            `json:"last_updated"`
}

func (s *Server) handleTimespans(w http.ResponseWriter, r *http.Request) {
	timespans, err := s.dashboard.Timespans(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"timespans": timespans})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	req, err := parseViewRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.dashboard.View(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toViewJSON(result))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	req, err := parseViewRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.dashboard.View(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryJSON(result.Summary))
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	req, err := parseViewRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.dashboard.View(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	budgets := make([]budgetJSON, len(result.Budgets))
	for i, b := range result.Budgets {
		budgets[i] = toBudgetJSON(b)
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": budgets})
}

func (s *Server) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	overrides, err := s.overrides.ReadAll(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]overrideJSON, len(overrides))
	for i, o := range overrides {
		out[i] = toOverrideJSON(o)
	}
	writeJSON(w, http.StatusOK, map[string]any{"overrides": out})
}

func (s *Server) handleUpsertOverride(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body struct {
		Amount   *string `json:"amount"`
		Category *string `json:"category"`
	}
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var amount *core.Money
	if body.Amount != nil {
		cents, err := core.ParseAmountToCents(*body.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid amount: "+*body.Amount)
			return
		}
		amount = &core.Money{Cents: cents}
	}

	if err := s.overrides.Upsert(r.Context(), id, amount, body.Category); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteOverride(w http.ResponseWriter, r *http.Request) {
	if err := s.overrides.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseViewRequest(r *http.Request) (services.ViewRequest, error) {
	q := r.URL.Query()
	req := services.ViewRequest{
		Timespan: strings.TrimSpace(q.Get("timespan")),
		Owner:    strings.TrimSpace(q.Get("owner")),
		Page:     1,
	}
	if req.Owner == "" {
		req.Owner = services.OwnerAll
	}
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return services.ViewRequest{}, errors.New("invalid page: " + v)
		}
		req.Page = page
	}
	return req, nil
}

// writeServiceError maps the domain error taxonomy to HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrDataSource):
		slog.ErrorContext(r.Context(), "Data source error", "url", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, "data source unavailable")
	default:
		slog.ErrorContext(r.Context(), "Unhandled error", "url", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func toViewJSON(result services.ViewResult) viewJSON {
	rows := make([]transactionJSON, len(result.Rows))
	for i, t := range result.Rows {
		rows[i] = toTransactionJSON(t)
	}
	budgets := make([]budgetJSON, len(result.Budgets))
	for i, b := range result.Budgets {
		budgets[i] = toBudgetJSON(b)
	}
	lastUpdated := ""
	if !result.LastUpdated.IsZero() {
		lastUpdated = result.LastUpdated.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return viewJSON{
		Rows:        rows,
		Page:        result.Page,
		PageCount:   result.PageCount,
		Summary:     toSummaryJSON(result.Summary),
		Budgets:     budgets,
		LastUpdated: lastUpdated,
	}
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:               t.ID,
		Date:             t.Date.String(),
		AmountCents:      t.Amount.Cents,
		Amount:           t.Amount.String(),
		MerchantName:     t.MerchantName,
		Name:             t.Name,
		AccountID:        t.AccountID,
		Category:         string(t.Category),
		CategoryDetailed: t.CategoryDetailed,
		Color:            t.Category.Color(),
	}
}

func toSummaryJSON(s core.Summary) summaryJSON {
	byCategory := make([]categoryAmountJSON, len(s.ByCategory))
	for i, ca := range s.ByCategory {
		byCategory[i] = categoryAmountJSON{
			Category:    string(ca.Category),
			AmountCents: ca.Amount.Cents,
			Amount:      ca.Amount.String(),
			Color:       ca.Category.Color(),
		}
	}
	return summaryJSON{
		TotalCents: s.Total.Cents,
		Total:      s.Total.String(),
		ByCategory: byCategory,
	}
}

func toBudgetJSON(b core.BudgetStatus) budgetJSON {
	return budgetJSON{
		Category:        string(b.Category),
		LimitCents:      b.Limit.Cents,
		SpentCents:      b.Spent.Cents,
		AmountLeftCents: b.AmountLeft.Cents,
		AmountLeft:      b.AmountLeft.String(),
		PercentLeft:     b.PercentLeft,
		OverBudget:      b.OverBudget,
		State:           string(b.State),
	}
}

func toOverrideJSON(o core.Override) overrideJSON {
	out := overrideJSON{TransactionID: o.TransactionID, Category: o.Category}
	if o.Amount != nil {
		v := o.Amount.String()
		out.Amount = &v
	}
	return out
}
