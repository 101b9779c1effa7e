package http

import (
	"fmt"
	"net/http"
	"strconv"

	"aidat/internal/core"
	"aidat/internal/ledger"
)

type stateResponse struct {
	Loading       bool              `json:"loading"`
	Failed        string            `json:"failed,omitempty"`
	Month         int               `json:"month"`
	Year          int               `json:"year"`
	Transactions  []transactionJSON `json:"transactions"`
	Summary       summaryJSON       `json:"summary"`
	Overlay       string            `json:"overlay"`
	Adding        bool              `json:"adding"`
	EditingID     string            `json:"editingId,omitempty"`
	DeletingIDs   []string          `json:"deletingIds,omitempty"`
	ConfirmIDs    []string          `json:"confirmIds,omitempty"`
	Authenticated bool              `json:"authenticated"`
	Actor         string            `json:"actor"`
}

// handleState returns the whole read-model in one response.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	v := s.ledger.View()
	writeJSON(w, http.StatusOK, stateResponse{
		Loading:       v.Loading,
		Failed:        v.Failed,
		Month:         v.Period.Month,
		Year:          v.Period.Year,
		Transactions:  toTransactionsJSON(v.Transactions),
		Summary:       toSummaryJSON(v.Period, v.Totals),
		Overlay:       string(v.Overlay),
		Adding:        v.Adding,
		EditingID:     v.EditingID,
		DeletingIDs:   v.DeletingIDs,
		ConfirmIDs:    v.ConfirmIDs,
		Authenticated: s.sessions.IsAdmin(),
		Actor:         s.sessions.Actor(),
	})
}

// handleListTransactions returns the records for the requested period, or
// the active filter when no period is given.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var ts []core.Transaction
	if r.URL.Query().Has("month") || r.URL.Query().Has("year") {
		year, month := parseYearMonth(r)
		p := core.Period{Month: month, Year: year}
		if !p.Valid() {
			writeError(w, http.StatusUnprocessableEntity, "invalid period")
			return
		}
		ts = core.FilterByPeriod(s.ledger.Snapshot(), p)
	} else {
		ts = s.ledger.VisibleTransactions()
	}
	writeJSON(w, http.StatusOK, toTransactionsJSON(ts))
}

type draftRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

func (d draftRequest) toDraft() core.Draft {
	return core.Draft{
		Type:        core.TransactionType(sanitizeInput(d.Type)),
		Amount:      sanitizeInput(d.Amount),
		Description: sanitizeInput(d.Description),
		Date:        sanitizeInput(d.Date),
	}
}

type outcomeResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func writeOutcome(w http.ResponseWriter, out ledger.Outcome, okStatus int) {
	writeJSON(w, outcomeStatus(out, okStatus), outcomeResponse{OK: out.OK, Message: out.Message})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out := s.ledger.SubmitNew(r.Context(), req.toDraft())
	writeOutcome(w, out, http.StatusCreated)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out := s.ledger.SubmitEdit(r.Context(), r.PathValue("id"), req.toDraft())
	writeOutcome(w, out, http.StatusOK)
}

// handleRequestDelete parks the delete behind confirmation; nothing is
// removed yet. 202 signals the pending confirmation step.
func (s *Server) handleRequestDelete(w http.ResponseWriter, r *http.Request) {
	out := s.ledger.RequestDelete(r.PathValue("id"))
	writeOutcome(w, out, http.StatusAccepted)
}

func (s *Server) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	out := s.ledger.ConfirmDelete(r.Context(), r.PathValue("id"))
	writeOutcome(w, out, http.StatusOK)
}

func (s *Server) handleCancelDelete(w http.ResponseWriter, r *http.Request) {
	s.ledger.CancelDelete(r.PathValue("id"))
	writeJSON(w, http.StatusOK, outcomeResponse{OK: true})
}

// handleSummary serves the aggregates for the requested period, cached per
// snapshot revision.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	p := core.Period{Month: month, Year: year}
	if !p.Valid() {
		writeError(w, http.StatusUnprocessableEntity, "invalid period")
		return
	}

	key := fmt.Sprintf("summary:%d:%d-%d", s.ledger.Revision(), p.Year, p.Month)
	if cached, ok := s.summaryCache.Get(key); ok {
		w.Header().Set("X-Cache", "hit")
		writeJSON(w, http.StatusOK, cached)
		return
	}

	totals := core.Aggregate(core.FilterByPeriod(s.ledger.Snapshot(), p))
	resp := toSummaryJSON(p, totals)
	s.summaryCache.Set(key, resp)
	w.Header().Set("X-Cache", "miss")
	writeJSON(w, http.StatusOK, resp)
}

type filterRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out := s.ledger.SetFilter(req.Month, req.Year)
	if !out.OK {
		writeError(w, http.StatusUnprocessableEntity, out.Message)
		return
	}
	p := s.ledger.Filter()
	writeJSON(w, http.StatusOK, toSummaryJSON(p, s.ledger.Totals()))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out := s.ledger.Login(req.Username, req.Password)
	writeOutcome(w, out, http.StatusOK)
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	out := s.ledger.Logout()
	writeOutcome(w, out, http.StatusOK)
}

type sessionInfoResponse struct {
	Authenticated bool   `json:"authenticated"`
	Name          string `json:"name,omitempty"`
	Role          string `json:"role,omitempty"`
}

func (s *Server) handleSessionInfo(w http.ResponseWriter, _ *http.Request) {
	if sess, ok := s.sessions.Current(); ok {
		writeJSON(w, http.StatusOK, sessionInfoResponse{Authenticated: true, Name: sess.Name, Role: sess.Role})
		return
	}
	writeJSON(w, http.StatusOK, sessionInfoResponse{Authenticated: false})
}

type accountInfoResponse struct {
	BankName    string `json:"bankName"`
	IBAN        string `json:"iban"`
	AccountName string `json:"accountName"`
}

// handleAccountInfo serves the building account's payment details, shown so
// residents can copy them when transferring dues.
func (s *Server) handleAccountInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, accountInfoResponse{
		BankName:    "DENİZBANK A.Ş",
		IBAN:        "TR97 0013 4000 0247 1685 8000 01",
		AccountName: "MİTHAT KARA",
	})
}

func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.notes.Active())
}

func (s *Server) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	s.notes.Dismiss(id)
	w.WriteHeader(http.StatusNoContent)
}
