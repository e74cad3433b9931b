package services

import (
	"context"

	"hisobchi/internal/core"
	"hisobchi/internal/storage"
)

// TransferService moves money between personal balances.
type TransferService struct {
	storage *storage.SQLiteRepository
}

func NewTransferService(repo *storage.SQLiteRepository) *TransferService {
	return &TransferService{storage: repo}
}

type TransferInput struct {
	FromBalanceID int64
	ToBalanceID   int64
	Amount        string
	Fee           string
}

// Create parses the amounts and hands the transfer to storage, which
// commits all legs and both balance mutations atomically.
func (s *TransferService) Create(ctx context.Context, userID int64, in TransferInput) (core.Transfer, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Transfer{}, err
	}

	fee := core.Money{}
	if in.Fee != "" {
		fee, err = core.ParseAmount(in.Fee)
		if err != nil {
			return core.Transfer{}, err
		}
	}

	t := core.Transfer{
		UserID:        userID,
		FromBalanceID: in.FromBalanceID,
		ToBalanceID:   in.ToBalanceID,
		Amount:        amount,
		Fee:           fee,
	}
	if err := t.Validate(); err != nil {
		return core.Transfer{}, err
	}
	return s.storage.CreateTransfer(ctx, t)
}
