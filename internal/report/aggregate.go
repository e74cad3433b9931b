// Package report contains the single aggregation engine behind every
// report surface. The chat summary, the PDF and the spreadsheet are pure
// renderers over the ReportData produced here; none of them recompute
// totals or running balances on their own.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"hisobchi/internal/core"
	"hisobchi/internal/period"
)

// Ledger is the read contract the engine needs from the store.
type Ledger interface {
	// ListTransactions returns the owner's transactions matching the
	// selection's read filter with CreatedAt in [from, to) .
	ListTransactions(ctx context.Context, userID int64, sel core.UserSelection, from, to time.Time) ([]core.Transaction, error)
	// SumByKindBefore sums amounts of one kind matching the selection's
	// read filter strictly before the given instant.
	SumByKindBefore(ctx context.Context, userID int64, sel core.UserSelection, kind core.TransactionKind, before time.Time) (int64, error)
	// ProjectNames maps the owner's project ids to display names.
	ProjectNames(ctx context.Context, userID int64) (map[int64]string, error)
	// GetBalance returns one of the owner's balances or core.ErrNotFound.
	GetBalance(ctx context.Context, userID, balanceID int64) (core.PersonalBalance, error)
	// LaborCategoryID returns the id of the owner's labor/salary category,
	// or 0 when it has not been created yet.
	LaborCategoryID(ctx context.Context, userID int64) (int64, error)
}

// Row is one transaction with the running balance after applying it.
type Row struct {
	Tx      core.Transaction
	Balance core.Money
}

// Bucket groups the expenses of one scope, with the labor/salary category
// split out as a distinguished sub-total.
type Bucket struct {
	Scope        core.Scope
	Label        string
	Regular      []core.Transaction
	Labor        []core.Transaction
	RegularTotal core.Money
	LaborTotal   core.Money
	Total        core.Money
}

// ReportData is the single source of truth consumed by every projection.
type ReportData struct {
	UserID    int64
	Selection core.UserSelection
	Currency  core.Currency

	PeriodLabel string
	RangeLabel  string
	ScopeLabel  string

	Incomes []core.Transaction
	Buckets []Bucket

	TotalIncome  core.Money
	TotalExpense core.Money
	PeriodNet    core.Money

	// HasOpeningBalance is false for project views: projects are cost-only
	// and clients must not display a running start balance for them.
	OpeningBalance    core.Money
	HasOpeningBalance bool

	Rows []Row
}

// FinalBalance is the opening balance plus the period net.
func (d ReportData) FinalBalance() core.Money {
	return core.Money{Cents: d.OpeningBalance.Cents + d.PeriodNet.Cents}
}

// Empty reports whether the window contained no transactions. Empty data
// is a valid, renderable state, not an error.
func (d ReportData) Empty() bool {
	return len(d.Rows) == 0
}

type Engine struct {
	ledger Ledger
}

func NewEngine(ledger Ledger) *Engine {
	return &Engine{ledger: ledger}
}

// Aggregate fetches the owner's transactions for the selection and window
// and reduces them into ReportData.
func (e *Engine) Aggregate(ctx context.Context, userID int64, sel core.UserSelection, w period.Window) (ReportData, error) {
	projects, err := e.ledger.ProjectNames(ctx, userID)
	if err != nil {
		return ReportData{}, fmt.Errorf("load project names: %w", err)
	}

	sel, currency, scopeLabel, err := e.normalizeSelection(ctx, userID, sel, projects)
	if err != nil {
		return ReportData{}, err
	}

	txs, err := e.ledger.ListTransactions(ctx, userID, sel, w.Start, w.ExclusiveEnd())
	if err != nil {
		return ReportData{}, fmt.Errorf("list transactions: %w", err)
	}

	laborID, err := e.ledger.LaborCategoryID(ctx, userID)
	if err != nil {
		return ReportData{}, fmt.Errorf("resolve labor category: %w", err)
	}

	data := ReportData{
		UserID:      userID,
		Selection:   sel,
		Currency:    currency,
		PeriodLabel: w.Label,
		RangeLabel:  w.RangeLabel(),
		ScopeLabel:  scopeLabel,
	}

	var expenses []core.Transaction
	for _, tx := range txs {
		switch tx.Kind {
		case core.Income:
			data.Incomes = append(data.Incomes, tx)
			data.TotalIncome.Cents += tx.Amount.Cents
		case core.Expense:
			expenses = append(expenses, tx)
			data.TotalExpense.Cents += tx.Amount.Cents
		}
	}
	data.PeriodNet = core.Money{Cents: data.TotalIncome.Cents - data.TotalExpense.Cents}

	data.Buckets = buildBuckets(sel, scopeLabel, expenses, projects, laborID)

	if sel.Kind == core.SelectProject {
		// cost-only view: no running-balance concept
		data.HasOpeningBalance = false
	} else {
		opening, err := e.openingBalance(ctx, userID, sel, w.PriorEnd)
		if err != nil {
			return ReportData{}, err
		}
		data.OpeningBalance = opening
		data.HasOpeningBalance = true
	}

	data.Rows = runningBalance(txs, data.OpeningBalance)

	slog.DebugContext(ctx, "Report aggregated",
		"user_id", userID,
		"scope", string(sel.Kind),
		"period", data.PeriodLabel,
		"rows", len(data.Rows),
		"total_income_cents", data.TotalIncome.Cents,
		"total_expense_cents", data.TotalExpense.Cents)

	return data, nil
}

// normalizeSelection degrades stale selections (deleted project/balance)
// to unscoped instead of failing, and resolves the display label and
// report currency.
func (e *Engine) normalizeSelection(ctx context.Context, userID int64, sel core.UserSelection, projects map[int64]string) (core.UserSelection, core.Currency, string, error) {
	switch sel.Kind {
	case core.SelectAll:
		return sel, core.UZS, "Umumiy", nil
	case core.SelectProject:
		name, ok := projects[sel.ProjectID]
		if !ok {
			slog.WarnContext(ctx, "Stale project selection, falling back to unscoped",
				"user_id", userID, "project_id", sel.ProjectID)
			return core.UserSelection{Kind: core.SelectUnscoped}, core.UZS, "Boshqa", nil
		}
		return sel, core.UZS, name, nil
	case core.SelectBalance:
		bal, err := e.ledger.GetBalance(ctx, userID, sel.BalanceID)
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Stale balance selection, falling back to unscoped",
				"user_id", userID, "balance_id", sel.BalanceID)
			return core.UserSelection{Kind: core.SelectUnscoped}, core.UZS, "Boshqa", nil
		}
		if err != nil {
			return sel, core.UZS, "", fmt.Errorf("load balance: %w", err)
		}
		return sel, bal.Currency, bal.Title, nil
	default:
		return core.UserSelection{Kind: core.SelectUnscoped}, core.UZS, "Boshqa", nil
	}
}

func (e *Engine) openingBalance(ctx context.Context, userID int64, sel core.UserSelection, before time.Time) (core.Money, error) {
	// For ALL this sums literally everything; for a single scope the same
	// sum restricted to it. Both ride the selection's read filter.
	income, err := e.ledger.SumByKindBefore(ctx, userID, sel, core.Income, before)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum prior income: %w", err)
	}
	expense, err := e.ledger.SumByKindBefore(ctx, userID, sel, core.Expense, before)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum prior expense: %w", err)
	}
	return core.Money{Cents: income - expense}, nil
}

// buildBuckets splits expenses per scope (one bucket per project plus an
// "other" bucket) when the selection is ALL, and into a single bucket
// otherwise. Every bucket splits labor-category rows from regular rows.
func buildBuckets(sel core.UserSelection, scopeLabel string, expenses []core.Transaction, projects map[int64]string, laborID int64) []Bucket {
	if len(expenses) == 0 {
		return nil
	}

	if sel.Kind != core.SelectAll {
		b := newBucket(scopeFromSelection(sel), scopeLabel)
		for _, tx := range expenses {
			b.add(tx, laborID)
		}
		return []Bucket{*b}
	}

	var order []int64
	byProject := make(map[int64]*Bucket)
	other := newBucket(core.Unscoped(), "Boshqa")

	for _, tx := range expenses {
		if tx.Scope.Kind != core.ScopeProject {
			other.add(tx, laborID)
			continue
		}
		b, ok := byProject[tx.Scope.ProjectID]
		if !ok {
			label := projects[tx.Scope.ProjectID]
			if label == "" {
				label = fmt.Sprintf("Obyekt #%d", tx.Scope.ProjectID)
			}
			b = newBucket(tx.Scope, label)
			byProject[tx.Scope.ProjectID] = b
			order = append(order, tx.Scope.ProjectID)
		}
		b.add(tx, laborID)
	}

	buckets := make([]Bucket, 0, len(order)+1)
	for _, id := range order {
		buckets = append(buckets, *byProject[id])
	}
	if other.Total.Cents > 0 {
		buckets = append(buckets, *other)
	}
	return buckets
}

func scopeFromSelection(sel core.UserSelection) core.Scope {
	switch sel.Kind {
	case core.SelectProject:
		return core.ProjectScope(sel.ProjectID)
	case core.SelectBalance:
		return core.BalanceScope(sel.BalanceID)
	default:
		return core.Unscoped()
	}
}

func newBucket(scope core.Scope, label string) *Bucket {
	return &Bucket{Scope: scope, Label: label}
}

func (b *Bucket) add(tx core.Transaction, laborID int64) {
	if laborID != 0 && tx.CategoryID == laborID {
		b.Labor = append(b.Labor, tx)
		b.LaborTotal.Cents += tx.Amount.Cents
	} else {
		b.Regular = append(b.Regular, tx)
		b.RegularTotal.Cents += tx.Amount.Cents
	}
	b.Total.Cents += tx.Amount.Cents
}

// runningBalance sorts the included transactions chronologically and
// records the accumulator after each one, seeded with the opening balance.
func runningBalance(txs []core.Transaction, opening core.Money) []Row {
	sorted := make([]core.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	rows := make([]Row, 0, len(sorted))
	acc := opening.Cents
	for _, tx := range sorted {
		if tx.Kind == core.Income {
			acc += tx.Amount.Cents
		} else {
			acc -= tx.Amount.Cents
		}
		rows = append(rows, Row{Tx: tx, Balance: core.Money{Cents: acc}})
	}
	return rows
}
