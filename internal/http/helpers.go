package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"aidat/internal/core"
	"aidat/internal/ledger"
	"aidat/internal/session"
	"aidat/internal/store"
)

// extractClientIP resolves the client address, preferring proxy headers.
func extractClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// parseYearMonth extracts year and month from query parameters, defaulting
// to the current calendar month.
func parseYearMonth(r *http.Request) (year, month int) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}
	return year, month
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// outcomeStatus maps an operation outcome to an HTTP status.
func outcomeStatus(out ledger.Outcome, okStatus int) int {
	if out.OK {
		return okStatus
	}
	switch {
	case errors.Is(out.Err, session.ErrInvalidCredentials),
		errors.Is(out.Err, session.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(out.Err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(out.Err, core.ErrEmptyAmount),
		errors.Is(out.Err, core.ErrInvalidAmount),
		errors.Is(out.Err, core.ErrEmptyDescription),
		errors.Is(out.Err, core.ErrInvalidType),
		errors.Is(out.Err, core.ErrInvalidDate):
		return http.StatusUnprocessableEntity
	case out.Err != nil:
		return http.StatusBadGateway
	default:
		// operation refused without an underlying error: a duplicate of an
		// in-flight mutation, or a missing precondition
		return http.StatusConflict
	}
}

// transactionJSON is the wire shape of one ledger entry. Amounts carry both
// the formatted decimal string and the exact cent count.
type transactionJSON struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	AmountCents int64     `json:"amountCents"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	AddedBy     string    `json:"addedBy"`
	UpdatedBy   string    `json:"updatedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		Type:        string(t.Type),
		Amount:      core.FormatCents(t.Amount.Cents),
		AmountCents: t.Amount.Cents,
		Description: t.Description,
		Date:        t.Date.String(),
		Month:       t.Month,
		Year:        t.Year,
		AddedBy:     t.AddedBy,
		UpdatedBy:   t.UpdatedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toTransactionsJSON(ts []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, len(ts))
	for i, t := range ts {
		out[i] = toTransactionJSON(t)
	}
	return out
}

// summaryJSON is the aggregate wire shape for one period.
type summaryJSON struct {
	Month        int    `json:"month"`
	Year         int    `json:"year"`
	Income       string `json:"income"`
	IncomeCents  int64  `json:"incomeCents"`
	Expense      string `json:"expense"`
	ExpenseCents int64  `json:"expenseCents"`
	Net          string `json:"net"`
	NetCents     int64  `json:"netCents"`
	IncomeCount  int    `json:"incomeCount"`
	ExpenseCount int    `json:"expenseCount"`
}

func toSummaryJSON(p core.Period, t core.Totals) summaryJSON {
	return summaryJSON{
		Month:        p.Month,
		Year:         p.Year,
		Income:       core.FormatCents(t.Income.Cents),
		IncomeCents:  t.Income.Cents,
		Expense:      core.FormatCents(t.Expense.Cents),
		ExpenseCents: t.Expense.Cents,
		Net:          core.FormatCents(t.Net.Cents),
		NetCents:     t.Net.Cents,
		IncomeCount:  t.IncomeCount,
		ExpenseCount: t.ExpenseCount,
	}
}
