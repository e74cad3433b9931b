package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hisobchi/internal/core"
	"hisobchi/internal/period"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// the pragma rides on the DSN so every pooled connection enforces
	// foreign keys
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// unixTime converts a stored timestamp to the reporting time zone so that
// day boundaries line up with what the user sees.
func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).In(period.Tashkent)
}

// UpsertUser registers a user on first contact and refreshes the stored
// name on every later one. The Telegram id doubles as the primary key.
func (r *SQLiteRepository) UpsertUser(ctx context.Context, telegramID int64, name string) (core.User, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (telegram_id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT (telegram_id) DO UPDATE SET name = excluded.name`,
		telegramID, name, time.Now().Unix())
	if err != nil {
		return core.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return r.GetUser(ctx, telegramID)
}

func (r *SQLiteRepository) GetUser(ctx context.Context, telegramID int64) (core.User, error) {
	var (
		u         core.User
		createdAt int64
		projectID sql.NullInt64
		balanceID sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT telegram_id, name, selection_kind, selection_project_id, selection_balance_id, created_at
		FROM users WHERE telegram_id = ?`, telegramID).
		Scan(&u.TelegramID, &u.Username, &u.Selection.Kind, &projectID, &balanceID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.ID = u.TelegramID
	u.Selection.ProjectID = projectID.Int64
	u.Selection.BalanceID = balanceID.Int64
	u.CreatedAt = unixTime(createdAt)
	return u, nil
}

// SetSelection stores the user's current scope context. The referenced
// project or balance must exist and belong to the user.
func (r *SQLiteRepository) SetSelection(ctx context.Context, userID int64, sel core.UserSelection) error {
	switch sel.Kind {
	case core.SelectProject:
		var n int
		if err := r.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM projects WHERE id = ? AND user_id = ?",
			sel.ProjectID, userID).Scan(&n); err != nil {
			return fmt.Errorf("check project: %w", err)
		}
		if n == 0 {
			return core.ErrNotFound
		}
	case core.SelectBalance:
		var n int
		if err := r.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM balances WHERE id = ? AND user_id = ?",
			sel.BalanceID, userID).Scan(&n); err != nil {
			return fmt.Errorf("check balance: %w", err)
		}
		if n == 0 {
			return core.ErrNotFound
		}
	case core.SelectAll, core.SelectUnscoped:
	default:
		return core.ErrInvalidScope
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET selection_kind = ?, selection_project_id = ?, selection_balance_id = ?
		WHERE telegram_id = ?`,
		sel.Kind, nullID(sel.ProjectID), nullID(sel.BalanceID), userID)
	if err != nil {
		return fmt.Errorf("set selection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func (r *SQLiteRepository) CreateBalance(ctx context.Context, b core.PersonalBalance) (core.PersonalBalance, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO balances (user_id, title, currency, amount_cents, emoji, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.Title, b.Currency, b.Amount.Cents, b.Emoji, b.Color, time.Now().Unix())
	if err != nil {
		return core.PersonalBalance{}, fmt.Errorf("create balance: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return core.PersonalBalance{}, fmt.Errorf("balance id: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) GetBalance(ctx context.Context, userID, balanceID int64) (core.PersonalBalance, error) {
	var b core.PersonalBalance
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, currency, amount_cents, emoji, color
		FROM balances WHERE id = ? AND user_id = ?`, balanceID, userID).
		Scan(&b.ID, &b.UserID, &b.Title, &b.Currency, &b.Amount.Cents, &b.Emoji, &b.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PersonalBalance{}, core.ErrNotFound
	}
	if err != nil {
		return core.PersonalBalance{}, fmt.Errorf("get balance: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBalances(ctx context.Context, userID int64) ([]core.PersonalBalance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, currency, amount_cents, emoji, color
		FROM balances WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()

	var out []core.PersonalBalance
	for rows.Next() {
		var b core.PersonalBalance
		if err := rows.Scan(&b.ID, &b.UserID, &b.Title, &b.Currency, &b.Amount.Cents, &b.Emoji, &b.Color); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// DeleteBalance removes a balance and detaches its transactions back to the
// unscoped pool. Stale selections pointing at it fall back to unscoped.
func (r *SQLiteRepository) DeleteBalance(ctx context.Context, userID, balanceID int64) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE transactions SET scope_kind = 'unscoped', balance_id = NULL
			WHERE balance_id = ? AND user_id = ?`, balanceID, userID); err != nil {
			return fmt.Errorf("detach transactions: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			"DELETE FROM balances WHERE id = ? AND user_id = ?", balanceID, userID)
		if err != nil {
			return fmt.Errorf("delete balance: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE users SET selection_kind = 'unscoped', selection_balance_id = NULL
			WHERE telegram_id = ? AND selection_balance_id = ?`, userID, balanceID); err != nil {
			return fmt.Errorf("reset selection: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepository) CreateProject(ctx context.Context, userID int64, name string) (core.Project, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO projects (user_id, name, created_at) VALUES (?, ?, ?)",
		userID, name, now.Unix())
	if err != nil {
		return core.Project{}, fmt.Errorf("create project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Project{}, fmt.Errorf("project id: %w", err)
	}
	return core.Project{ID: id, UserID: userID, Name: name, CreatedAt: now.In(period.Tashkent)}, nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context, userID int64) ([]core.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, name, created_at FROM projects WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []core.Project
	for rows.Next() {
		var (
			p         core.Project
			createdAt int64
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.CreatedAt = unixTime(createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteProject removes the project together with every expense attributed
// to it, and resets any selection that pointed at it.
func (r *SQLiteRepository) DeleteProject(ctx context.Context, userID, projectID int64) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM transactions WHERE project_id = ? AND user_id = ?",
			projectID, userID); err != nil {
			return fmt.Errorf("delete project transactions: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			"DELETE FROM projects WHERE id = ? AND user_id = ?", projectID, userID)
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE users SET selection_kind = 'unscoped', selection_project_id = NULL
			WHERE telegram_id = ? AND selection_project_id = ?`, userID, projectID); err != nil {
			return fmt.Errorf("reset selection: %w", err)
		}
		return nil
	})
}

// ListCategories returns the user's categories plus the built-in defaults.
func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, kind, icon, color, is_default
		FROM categories WHERE user_id IN (0, ?) ORDER BY user_id, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Kind, &c.Icon, &c.Color, &c.IsDefault); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (user_id, name, kind, icon, color, is_default, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		c.UserID, c.Name, c.Kind, c.Icon, c.Color, time.Now().Unix())
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	return c, nil
}

// LaborCategoryID resolves the distinguished labor category, preferring a
// user-defined one over the built-in default.
func (r *SQLiteRepository) LaborCategoryID(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM categories WHERE name = ? AND user_id IN (0, ?)
		ORDER BY user_id DESC LIMIT 1`, core.LaborCategoryName, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("labor category: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
