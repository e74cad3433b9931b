package services

import (
	"context"
	"fmt"

	"hisobchi/internal/core"
	"hisobchi/internal/debt"
	"hisobchi/internal/storage"
)

// DebtService records debt movements and aggregates them per contact.
type DebtService struct {
	storage *storage.SQLiteRepository
}

func NewDebtService(repo *storage.SQLiteRepository) *DebtService {
	return &DebtService{storage: repo}
}

type DebtInput struct {
	ContactName string
	Kind        core.DebtKind
	Amount      string
	Currency    core.Currency
	Note        string
}

func (s *DebtService) AddEntry(ctx context.Context, userID int64, in DebtInput) (core.DebtEntry, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.DebtEntry{}, err
	}

	currency := in.Currency
	if currency == "" {
		currency = core.UZS
	}

	e := core.DebtEntry{
		UserID:   userID,
		Kind:     in.Kind,
		Amount:   amount,
		Currency: currency,
		Note:     in.Note,
	}
	return s.storage.CreateDebtEntry(ctx, e, in.ContactName)
}

// Overview nets every contact's ledger down to two numbers in the given
// currency.
func (s *DebtService) Overview(ctx context.Context, userID int64, currency core.Currency) ([]debt.ContactBalance, error) {
	contacts, err := s.storage.ListDebtContacts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	entries, err := s.storage.ListDebtEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return debt.Aggregate(contacts, entries, currency), nil
}

func (s *DebtService) DeleteContact(ctx context.Context, userID, contactID int64) error {
	return s.storage.DeleteDebtContact(ctx, userID, contactID)
}
