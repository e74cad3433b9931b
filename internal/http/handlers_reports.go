package http

import (
	"errors"
	"io"
	"net/http"

	"hisobchi/internal/amqp"
	"hisobchi/internal/core"
	"hisobchi/internal/services"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())

	text, err := s.reports.ChatSummary(r.Context(), tgUser.ID, parsePeriod(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": text})
}

// handleDownloadReport renders the document inline and streams it back.
func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())

	format := r.URL.Query().Get("format")
	doc, name, err := s.reports.Direct(r.Context(), tgUser.ID, parsePeriod(r), format)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	contentType := "application/pdf"
	if format == amqp.FormatExcel {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// handleRequestReport enqueues an async render job for the worker.
func (s *Server) handleRequestReport(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())

	var body struct {
		Period string `json:"period"`
		Format string `json:"format"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token := parsePeriodValue(body.Period)
	if !token.Valid() {
		writeError(w, http.StatusBadRequest, "period must be today, week or month")
		return
	}

	jobID, err := s.reports.RequestDocument(r.Context(), tgUser.ID, token, body.Format)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrUnknownFormat), errors.Is(err, services.ErrQueueUnavailable):
		writeDomainError(w, err)
		return
	default:
		// the job was valid but could not reach the broker
		writeError(w, http.StatusBadGateway, "could not enqueue report job")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

const maxVoiceBytes = 10 << 20

func (s *Server) handleVoiceExtract(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())

	if !s.voiceEnabled {
		writeError(w, http.StatusServiceUnavailable, "voice extraction is not configured")
		return
	}

	mimeType := r.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "audio/ogg"
	}
	audio, err := io.ReadAll(io.LimitReader(r.Body, maxVoiceBytes))
	if err != nil || len(audio) == 0 {
		writeError(w, http.StatusBadRequest, "empty audio body")
		return
	}

	sess, err := s.transactions.ExtractVoice(r.Context(), tgUser.ID, audio, mimeType)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	candidates := make([]map[string]any, 0, len(sess.Candidates))
	for _, c := range sess.Candidates {
		candidates = append(candidates, map[string]any{
			"kind":        string(c.Kind),
			"amount":      c.Amount.Cents,
			"display":     c.Amount.Format(c.Currency),
			"description": c.Description,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"expires_at": sess.ExpiresAt,
		"candidates": candidates,
	})
}

func (s *Server) handleVoiceConfirm(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())

	saved, err := s.transactions.ConfirmPending(r.Context(), tgUser.ID, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]transactionDTO, 0, len(saved))
	for _, t := range saved {
		out = append(out, toTransactionDTO(t))
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleVoiceCancel(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())

	if err := s.transactions.CancelPending(tgUser.ID, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleDebtOverview(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())

	currency := core.Currency(r.URL.Query().Get("currency"))
	if currency == "" {
		currency = core.UZS
	}
	if !currency.Valid() {
		writeDomainError(w, core.ErrInvalidCurrency)
		return
	}

	overview, err := s.debts.Overview(r.Context(), tgUser.ID, currency)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(overview))
	for _, cb := range overview {
		out = append(out, map[string]any{
			"contact_id":   cb.Contact.ID,
			"contact_name": cb.Contact.Name,
			"currency":     string(cb.Currency),
			"i_owe":        cb.IOwe.Cents,
			"owed_to_me":   cb.OwedToMe.Cents,
			"has_debt":     cb.HasDebt(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateDebtEntry(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())

	var body struct {
		ContactName string `json:"contact_name"`
		Kind        string `json:"kind"`
		Amount      string `json:"amount"`
		Currency    string `json:"currency"`
		Note        string `json:"note"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kind := core.DebtKind(body.Kind)
	if !kind.Valid() {
		writeError(w, http.StatusUnprocessableEntity, "kind must be borrow, lend, repay or receive")
		return
	}

	e, err := s.debts.AddEntry(r.Context(), tgUser.ID, services.DebtInput{
		ContactName: sanitizeInput(body.ContactName),
		Kind:        kind,
		Amount:      body.Amount,
		Currency:    core.Currency(body.Currency),
		Note:        sanitizeInput(body.Note),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":           e.ID,
		"contact_id":   e.ContactID,
		"kind":         string(e.Kind),
		"amount_cents": e.Amount.Cents,
	})
}

func (s *Server) handleDeleteDebtContact(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())

	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid contact id")
		return
	}
	if err := s.debts.DeleteContact(r.Context(), tgUser.ID, id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
