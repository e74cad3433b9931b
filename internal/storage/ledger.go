package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"hisobchi/internal/core"
)

// InsertTransaction writes a transaction and, for balance-scoped rows,
// mutates the cached balance amount in the same database transaction so
// the two can never diverge.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		t.ID, err = insertTransactionTx(ctx, tx, t)
		if err != nil {
			return err
		}
		if t.Scope.Kind == core.ScopeBalance {
			return applyBalanceDelta(ctx, tx, t.UserID, t.Scope.BalanceID, balanceDelta(t))
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents,
		"scope", t.Scope.Kind)
	return t, nil
}

// InsertTransactions writes a batch atomically. Either every row lands,
// with its balance delta applied, or none do.
func (r *SQLiteRepository) InsertTransactions(ctx context.Context, ts []core.Transaction) ([]core.Transaction, error) {
	for i := range ts {
		if err := ts[i].Validate(); err != nil {
			return nil, err
		}
		if ts[i].CreatedAt.IsZero() {
			ts[i].CreatedAt = time.Now()
		}
	}

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		for i := range ts {
			var err error
			ts[i].ID, err = insertTransactionTx(ctx, tx, ts[i])
			if err != nil {
				return err
			}
			if ts[i].Scope.Kind == core.ScopeBalance {
				if err := applyBalanceDelta(ctx, tx, ts[i].UserID, ts[i].Scope.BalanceID, balanceDelta(ts[i])); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Transaction batch saved", "count", len(ts))
	return ts, nil
}

func insertTransactionTx(ctx context.Context, tx *sql.Tx, t core.Transaction) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO transactions
			(user_id, kind, amount_cents, currency, description, category_id,
			 scope_kind, balance_id, project_id, transfer_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Kind, t.Amount.Cents, t.Currency, t.Description,
		nullID(t.CategoryID), t.Scope.Kind, nullID(t.Scope.BalanceID),
		nullID(t.Scope.ProjectID), nullID(t.TransferID), t.CreatedAt.Unix())
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}
	return id, nil
}

// balanceDelta is the signed effect of a transaction on its balance.
func balanceDelta(t core.Transaction) int64 {
	if t.Kind == core.Income {
		return t.Amount.Cents
	}
	return -t.Amount.Cents
}

func applyBalanceDelta(ctx context.Context, tx *sql.Tx, userID, balanceID, delta int64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE balances SET amount_cents = amount_cents + ? WHERE id = ? AND user_id = ?",
		delta, balanceID, userID)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteTransaction removes a row the caller has identified by id and kind.
// The kind is required so a delete can never silently land on the wrong
// table half. Balance-scoped deletes reverse the cached amount mutation.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64, kind core.TransactionKind) error {
	if !kind.Valid() {
		return fmt.Errorf("delete transaction: invalid kind %q", kind)
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var (
			t         core.Transaction
			balanceID sql.NullInt64
		)
		err := tx.QueryRowContext(ctx, `
			SELECT kind, amount_cents, scope_kind, balance_id
			FROM transactions WHERE id = ? AND user_id = ? AND kind = ?`,
			id, userID, kind).
			Scan(&t.Kind, &t.Amount.Cents, &t.Scope.Kind, &balanceID)
		if err == sql.ErrNoRows {
			return core.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM transactions WHERE id = ? AND user_id = ?", id, userID); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}

		if t.Scope.Kind == core.ScopeBalance && balanceID.Valid {
			t.UserID = userID
			t.Scope.BalanceID = balanceID.Int64
			return applyBalanceDelta(ctx, tx, userID, balanceID.Int64, -balanceDelta(t))
		}
		return nil
	})
}

// selectionWhere translates a scope selection into SQL, mirroring
// core.ReadFilter.Matches.
func selectionWhere(sel core.UserSelection) (string, []any) {
	switch sel.Kind {
	case core.SelectAll:
		return "", nil
	case core.SelectProject:
		return " AND kind = 'expense' AND project_id = ?", []any{sel.ProjectID}
	case core.SelectBalance:
		return " AND balance_id = ?", []any{sel.BalanceID}
	default:
		return " AND scope_kind = 'unscoped'", nil
	}
}

// ListTransactions implements report.Ledger: rows with created_at in
// [from, to) matching the selection, oldest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, sel core.UserSelection, from, to time.Time) ([]core.Transaction, error) {
	q := `
		SELECT id, user_id, kind, amount_cents, currency, description,
		       category_id, scope_kind, balance_id, project_id, transfer_id, created_at
		FROM transactions
		WHERE user_id = ? AND created_at >= ? AND created_at < ?`
	args := []any{userID, from.Unix(), to.Unix()}

	where, extra := selectionWhere(sel)
	q += where
	args = append(args, extra...)
	q += " ORDER BY created_at, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(rows *sql.Rows) (core.Transaction, error) {
	var (
		t          core.Transaction
		categoryID sql.NullInt64
		balanceID  sql.NullInt64
		projectID  sql.NullInt64
		transferID sql.NullInt64
		createdAt  int64
	)
	err := rows.Scan(&t.ID, &t.UserID, &t.Kind, &t.Amount.Cents, &t.Currency,
		&t.Description, &categoryID, &t.Scope.Kind, &balanceID, &projectID,
		&transferID, &createdAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.CategoryID = categoryID.Int64
	t.Scope.BalanceID = balanceID.Int64
	t.Scope.ProjectID = projectID.Int64
	t.TransferID = transferID.Int64
	t.CreatedAt = unixTime(createdAt)
	return t, nil
}

// SumByKindBefore implements report.Ledger: the total of one kind matching
// the selection strictly before the given instant.
func (r *SQLiteRepository) SumByKindBefore(ctx context.Context, userID int64, sel core.UserSelection, kind core.TransactionKind, before time.Time) (int64, error) {
	q := `
		SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		WHERE user_id = ? AND kind = ? AND created_at < ?`
	args := []any{userID, kind, before.Unix()}

	where, extra := selectionWhere(sel)
	q += where
	args = append(args, extra...)

	var total int64
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}
	return total, nil
}

// ProjectNames implements report.Ledger.
func (r *SQLiteRepository) ProjectNames(ctx context.Context, userID int64) (map[int64]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name FROM projects WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("project names: %w", err)
	}
	defer rows.Close()

	names := make(map[int64]string)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan project name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}
