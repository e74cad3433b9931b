package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hisobchi/internal/core"
)

// CreateTransfer moves money between two of the user's balances. The
// transfer row, its two or three transaction legs and both cached balance
// mutations commit in a single database transaction; a failure anywhere
// leaves no partial state behind.
func (r *SQLiteRepository) CreateTransfer(ctx context.Context, t core.Transfer) (core.Transfer, error) {
	if err := t.Validate(); err != nil {
		return core.Transfer{}, err
	}
	if t.Date.IsZero() {
		t.Date = time.Now()
	}

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		from, err := balanceInTx(ctx, tx, t.UserID, t.FromBalanceID)
		if err != nil {
			return fmt.Errorf("source balance: %w", err)
		}
		to, err := balanceInTx(ctx, tx, t.UserID, t.ToBalanceID)
		if err != nil {
			return fmt.Errorf("destination balance: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO transfers (user_id, from_balance_id, to_balance_id, amount_cents, fee_cents, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			t.UserID, t.FromBalanceID, t.ToBalanceID, t.Amount.Cents, t.Fee.Cents, t.Date.Unix())
		if err != nil {
			return fmt.Errorf("insert transfer: %w", err)
		}
		t.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("transfer id: %w", err)
		}

		legs := []core.Transaction{
			{
				UserID:      t.UserID,
				Kind:        core.Expense,
				Amount:      t.Amount,
				Currency:    from.Currency,
				Description: fmt.Sprintf("O'tkazma: %s → %s", from.Title, to.Title),
				Scope:       core.BalanceScope(t.FromBalanceID),
				TransferID:  t.ID,
				CreatedAt:   t.Date,
			},
			{
				UserID:      t.UserID,
				Kind:        core.Income,
				Amount:      t.Amount,
				Currency:    to.Currency,
				Description: fmt.Sprintf("O'tkazma: %s → %s", from.Title, to.Title),
				Scope:       core.BalanceScope(t.ToBalanceID),
				TransferID:  t.ID,
				CreatedAt:   t.Date,
			},
		}
		if t.Fee.Cents > 0 {
			legs = append(legs, core.Transaction{
				UserID:      t.UserID,
				Kind:        core.Expense,
				Amount:      t.Fee,
				Currency:    from.Currency,
				Description: fmt.Sprintf("O'tkazma komissiyasi: %s", from.Title),
				Scope:       core.BalanceScope(t.FromBalanceID),
				TransferID:  t.ID,
				CreatedAt:   t.Date,
			})
		}

		for _, leg := range legs {
			if _, err := insertTransactionTx(ctx, tx, leg); err != nil {
				return err
			}
		}

		if err := applyBalanceDelta(ctx, tx, t.UserID, t.FromBalanceID, -(t.Amount.Cents + t.Fee.Cents)); err != nil {
			return fmt.Errorf("debit source: %w", err)
		}
		if err := applyBalanceDelta(ctx, tx, t.UserID, t.ToBalanceID, t.Amount.Cents); err != nil {
			return fmt.Errorf("credit destination: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Transfer{}, err
	}

	slog.InfoContext(ctx, "Transfer completed",
		"id", t.ID,
		"from", t.FromBalanceID,
		"to", t.ToBalanceID,
		"amount_cents", t.Amount.Cents,
		"fee_cents", t.Fee.Cents)
	return t, nil
}

func balanceInTx(ctx context.Context, tx *sql.Tx, userID, balanceID int64) (core.PersonalBalance, error) {
	var b core.PersonalBalance
	err := tx.QueryRowContext(ctx, `
		SELECT id, user_id, title, currency, amount_cents
		FROM balances WHERE id = ? AND user_id = ?`, balanceID, userID).
		Scan(&b.ID, &b.UserID, &b.Title, &b.Currency, &b.Amount.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PersonalBalance{}, core.ErrNotFound
	}
	if err != nil {
		return core.PersonalBalance{}, err
	}
	return b, nil
}

// ListTransfers returns the user's transfers, newest first.
func (r *SQLiteRepository) ListTransfers(ctx context.Context, userID int64) ([]core.Transfer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, from_balance_id, to_balance_id, amount_cents, fee_cents, created_at
		FROM transfers WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var out []core.Transfer
	for rows.Next() {
		var (
			t         core.Transfer
			createdAt int64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.FromBalanceID, &t.ToBalanceID,
			&t.Amount.Cents, &t.Fee.Cents, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		t.Date = unixTime(createdAt)
		out = append(out, t)
	}
	return out, rows.Err()
}
