package http

import (
	"net/http"
	"strconv"
	"time"

	"hisobchi/internal/core"
	"hisobchi/internal/period"
	"hisobchi/internal/services"
)

type transactionDTO struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	Amount      int64  `json:"amount_cents"`
	Display     string `json:"display"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	CategoryID  int64  `json:"category_id,omitempty"`
	ScopeKind   string `json:"scope_kind"`
	ProjectID   int64  `json:"project_id,omitempty"`
	BalanceID   int64  `json:"balance_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:          t.ID,
		Kind:        string(t.Kind),
		Amount:      t.Amount.Cents,
		Display:     t.Amount.FormatSigned(t.Kind, t.Currency),
		Currency:    string(t.Currency),
		Description: t.Description,
		CategoryID:  t.CategoryID,
		ScopeKind:   string(t.Scope.Kind),
		ProjectID:   t.Scope.ProjectID,
		BalanceID:   t.Scope.BalanceID,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

// parsePeriod reads the period query parameter, defaulting to today.
func parsePeriod(r *http.Request) period.Token {
	if v := r.URL.Query().Get("period"); v != "" {
		return period.Token(v)
	}
	return period.Today
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())

	user, err := s.storage.GetUser(r.Context(), tgUser.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	win, err := period.Compute(parsePeriod(r), time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := s.storage.ListTransactions(r.Context(), tgUser.ID, user.Selection, win.Start, win.ExclusiveEnd())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]transactionDTO, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionDTO(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())

	var body struct {
		Kind        string `json:"kind"`
		Amount      string `json:"amount"`
		Currency    string `json:"currency"`
		Description string `json:"description"`
		CategoryID  int64  `json:"category_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kind := core.TransactionKind(body.Kind)
	if !kind.Valid() {
		writeError(w, http.StatusUnprocessableEntity, "kind must be income or expense")
		return
	}

	t, err := s.transactions.Create(r.Context(), tgUser.ID, services.CreateInput{
		Kind:        kind,
		Amount:      body.Amount,
		Currency:    core.Currency(body.Currency),
		Description: sanitizeInput(body.Description),
		CategoryID:  body.CategoryID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(t))
}

// handleDeleteTransaction requires an explicit kind so the delete can
// never land on a row of the other kind that happens to share the id.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	kind := core.TransactionKind(r.URL.Query().Get("kind"))
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "kind query parameter must be income or expense")
		return
	}

	if err := s.transactions.Delete(r.Context(), tgUser.ID, id, kind); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())

	var body struct {
		FromBalanceID int64  `json:"from_balance_id"`
		ToBalanceID   int64  `json:"to_balance_id"`
		Amount        string `json:"amount"`
		Fee           string `json:"fee"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tr, err := s.transfers.Create(r.Context(), tgUser.ID, services.TransferInput{
		FromBalanceID: body.FromBalanceID,
		ToBalanceID:   body.ToBalanceID,
		Amount:        body.Amount,
		Fee:           body.Fee,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":              tr.ID,
		"from_balance_id": tr.FromBalanceID,
		"to_balance_id":   tr.ToBalanceID,
		"amount_cents":    tr.Amount.Cents,
		"fee_cents":       tr.Fee.Cents,
	})
}

func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())
	transfers, err := s.storage.ListTransfers(r.Context(), tgUser.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(transfers))
	for _, tr := range transfers {
		out = append(out, map[string]any{
			"id":              tr.ID,
			"from_balance_id": tr.FromBalanceID,
			"to_balance_id":   tr.ToBalanceID,
			"amount_cents":    tr.Amount.Cents,
			"fee_cents":       tr.Fee.Cents,
			"date":            tr.Date.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
