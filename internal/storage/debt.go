package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hisobchi/internal/core"
)

// CreateDebtEntry records a debt movement against a contact, creating the
// contact on first mention. Contact names are unique per user.
func (r *SQLiteRepository) CreateDebtEntry(ctx context.Context, e core.DebtEntry, contactName string) (core.DebtEntry, error) {
	if err := e.Validate(); err != nil {
		return core.DebtEntry{}, err
	}
	if e.Date.IsZero() {
		e.Date = time.Now()
	}

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if e.ContactID == 0 {
			id, err := ensureContactTx(ctx, tx, e.UserID, contactName)
			if err != nil {
				return err
			}
			e.ContactID = id
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO debt_entries (user_id, contact_id, kind, amount_cents, currency, description, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.UserID, e.ContactID, e.Kind, e.Amount.Cents, e.Currency, e.Note, e.Date.Unix())
		if err != nil {
			return fmt.Errorf("insert debt entry: %w", err)
		}
		e.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("debt entry id: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.DebtEntry{}, err
	}
	return e, nil
}

func ensureContactTx(ctx context.Context, tx *sql.Tx, userID int64, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("debt contact name is empty")
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO debt_contacts (user_id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id, name) DO NOTHING`,
		userID, name, time.Now().Unix()); err != nil {
		return 0, fmt.Errorf("ensure contact: %w", err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx,
		"SELECT id FROM debt_contacts WHERE user_id = ? AND name = ?",
		userID, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup contact: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) ListDebtContacts(ctx context.Context, userID int64) ([]core.DebtContact, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, name FROM debt_contacts WHERE user_id = ? ORDER BY name", userID)
	if err != nil {
		return nil, fmt.Errorf("list debt contacts: %w", err)
	}
	defer rows.Close()

	var out []core.DebtContact
	for rows.Next() {
		var c core.DebtContact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan debt contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListDebtEntries(ctx context.Context, userID int64) ([]core.DebtEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, contact_id, kind, amount_cents, currency, description, created_at
		FROM debt_entries WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list debt entries: %w", err)
	}
	defer rows.Close()

	var out []core.DebtEntry
	for rows.Next() {
		var (
			e         core.DebtEntry
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.ContactID, &e.Kind,
			&e.Amount.Cents, &e.Currency, &e.Note, &createdAt); err != nil {
			return nil, fmt.Errorf("scan debt entry: %w", err)
		}
		e.Date = unixTime(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteDebtContact removes a contact and, through the foreign key cascade,
// all of its entries.
func (r *SQLiteRepository) DeleteDebtContact(ctx context.Context, userID, contactID int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM debt_contacts WHERE id = ? AND user_id = ?", contactID, userID)
	if err != nil {
		return fmt.Errorf("delete debt contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}
