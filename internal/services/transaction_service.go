package services

import (
	"context"
	"fmt"
	"log/slog"

	"hisobchi/internal/core"
	"hisobchi/internal/pending"
	"hisobchi/internal/storage"
)

// VoiceExtractor turns a voice recording into transaction candidates.
type VoiceExtractor interface {
	ExtractVoice(ctx context.Context, audio []byte, mimeType string) ([]core.Transaction, error)
}

// TransactionService orchestrates transaction writes: direct entry and
// the voice extraction confirm flow.
type TransactionService struct {
	storage   *storage.SQLiteRepository
	pending   *pending.Store
	extractor VoiceExtractor
}

func NewTransactionService(repo *storage.SQLiteRepository, store *pending.Store, extractor VoiceExtractor) *TransactionService {
	return &TransactionService{
		storage:   repo,
		pending:   store,
		extractor: extractor,
	}
}

// CreateInput is a transaction as the user entered it, before scope
// resolution.
type CreateInput struct {
	Kind        core.TransactionKind
	Amount      string
	Currency    core.Currency
	Description string
	CategoryID  int64
}

// Create parses the amount, resolves the write scope from the user's
// current selection and persists the transaction.
func (s *TransactionService) Create(ctx context.Context, userID int64, in CreateInput) (core.Transaction, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}

	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load user: %w", err)
	}

	currency := in.Currency
	if currency == "" {
		currency = core.UZS
	}

	t := core.Transaction{
		UserID:      userID,
		Kind:        in.Kind,
		Amount:      amount,
		Currency:    currency,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Scope:       core.ResolveWriteScope(in.Kind, user.Selection),
	}
	return s.storage.InsertTransaction(ctx, t)
}

// Delete removes a transaction. The caller must say which kind it is
// deleting so an id can never be matched against the wrong kind.
func (s *TransactionService) Delete(ctx context.Context, userID, id int64, kind core.TransactionKind) error {
	return s.storage.DeleteTransaction(ctx, userID, id, kind)
}

// ExtractVoice runs extraction and opens a pending session holding the
// candidates. Nothing is persisted until the user confirms.
func (s *TransactionService) ExtractVoice(ctx context.Context, userID int64, audio []byte, mimeType string) (pending.Session, error) {
	candidates, err := s.extractor.ExtractVoice(ctx, audio, mimeType)
	if err != nil {
		return pending.Session{}, err
	}
	sess := s.pending.Create(userID, candidates)
	slog.InfoContext(ctx, "Voice extraction pending",
		"session_id", sess.ID,
		"user_id", userID,
		"candidates", len(candidates))
	return sess, nil
}

// ConfirmPending persists the session's candidates in one database
// transaction, so a bad candidate never leaves a partial batch behind.
// Each candidate gets its scope from the user's selection at confirm
// time, not extraction time.
func (s *TransactionService) ConfirmPending(ctx context.Context, userID int64, sessionID string) ([]core.Transaction, error) {
	candidates, err := s.pending.Confirm(sessionID, userID)
	if err != nil {
		return nil, err
	}

	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	for i := range candidates {
		candidates[i].UserID = userID
		candidates[i].Scope = core.ResolveWriteScope(candidates[i].Kind, user.Selection)
	}

	saved, err := s.storage.InsertTransactions(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("persist candidates: %w", err)
	}
	return saved, nil
}

// CancelPending discards a session.
func (s *TransactionService) CancelPending(userID int64, sessionID string) error {
	return s.pending.Cancel(sessionID, userID)
}
