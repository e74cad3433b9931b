package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

const (
	UZS Currency = "UZS"
	USD Currency = "USD"
)

const (
	Borrow  DebtKind = "borrow"  // I received money from the contact
	Lend    DebtKind = "lend"    // I gave money to the contact
	Repay   DebtKind = "repay"   // I paid the contact back
	Receive DebtKind = "receive" // the contact paid me back
)

// LaborCategoryName is the distinguished expense category whose entries are
// reported as a separate sub-total within each project bucket.
const LaborCategoryName = "Ish haqi"

type (
	TransactionKind string

	Currency string

	DebtKind string

	Transaction struct {
		ID          int64
		UserID      int64
		Kind        TransactionKind
		Amount      Money
		Currency    Currency
		Description string
		CategoryID  int64 // 0 when uncategorized
		Scope       Scope
		TransferID  int64 // 0 unless the row is a transfer leg
		CreatedAt   time.Time
	}

	PersonalBalance struct {
		ID       int64
		UserID   int64
		Title    string
		Currency Currency
		Amount   Money // cached running total, mutated with every scoped write
		Emoji    string
		Color    string
	}

	Project struct {
		ID        int64
		UserID    int64
		Name      string
		CreatedAt time.Time
	}

	Category struct {
		ID        int64
		UserID    int64 // 0 for global defaults
		Name      string
		Kind      TransactionKind
		Icon      string
		Color     string
		IsDefault bool
	}

	DebtContact struct {
		ID     int64
		UserID int64
		Name   string
	}

	DebtEntry struct {
		ID        int64
		UserID    int64
		ContactID int64
		Kind      DebtKind
		Amount    Money
		Currency  Currency
		Date      time.Time
		Note      string
	}

	Transfer struct {
		ID            int64
		UserID        int64
		FromBalanceID int64
		ToBalanceID   int64
		Amount        Money
		Fee           Money
		Date          time.Time
	}

	User struct {
		ID         int64
		TelegramID int64
		Username   string
		Selection  UserSelection
		CreatedAt  time.Time
	}
)

var (
	ErrNotFound                 = errors.New("not found")
	ErrInvalidScope             = errors.New("invalid scope")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrInvalidCurrency          = errors.New("invalid currency")
	ErrEmptyDescription         = errors.New("empty description")
	ErrTransferInvariant        = errors.New("transfer invariant violation")
	ErrExtractionTimeout        = errors.New("extraction timed out")
	ErrExtractionUnintelligible = errors.New("extraction returned no usable data")
)

func (k TransactionKind) Valid() bool {
	return k == Income || k == Expense
}

func (c Currency) Valid() bool {
	return c == UZS || c == USD
}

func (k DebtKind) Valid() bool {
	switch k {
	case Borrow, Lend, Repay, Receive:
		return true
	}
	return false
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return errors.New("invalid transaction kind")
	}
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if !t.Currency.Valid() {
		return ErrInvalidCurrency
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Scope.Validate(); err != nil {
		return err
	}
	return nil
}

func (e DebtEntry) Validate() error {
	if !e.Kind.Valid() {
		return errors.New("invalid debt kind")
	}
	if e.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if !e.Currency.Valid() {
		return ErrInvalidCurrency
	}
	return nil
}

// Validate checks transfer preconditions before any write is attempted.
func (t Transfer) Validate() error {
	if t.FromBalanceID == t.ToBalanceID {
		return ErrTransferInvariant
	}
	if t.Amount.Cents <= 0 {
		return ErrTransferInvariant
	}
	if t.Fee.Cents < 0 {
		return ErrTransferInvariant
	}
	return nil
}
