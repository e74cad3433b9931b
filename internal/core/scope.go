package core

const (
	// ScopeUnscoped tags income/expense not tied to any project or balance.
	ScopeUnscoped ScopeKind = "unscoped"
	// ScopeBalance ties a transaction to a personal balance; inserting one
	// must also mutate the cached balance amount.
	ScopeBalance ScopeKind = "balance"
	// ScopeProject ties an expense to a construction project.
	ScopeProject ScopeKind = "project"
)

const (
	SelectAll      SelectionKind = "all"
	SelectProject  SelectionKind = "project"
	SelectBalance  SelectionKind = "balance"
	SelectUnscoped SelectionKind = "unscoped"
)

type (
	ScopeKind string

	// Scope is the attribution of a transaction: exactly one of a personal
	// balance, a project, or unscoped. BalanceID and ProjectID are never
	// both set.
	Scope struct {
		Kind      ScopeKind
		BalanceID int64
		ProjectID int64
	}

	SelectionKind string

	// UserSelection is the user's current context: where new writes go and
	// which scope reads default to.
	UserSelection struct {
		Kind      SelectionKind
		ProjectID int64
		BalanceID int64
	}
)

func Unscoped() Scope               { return Scope{Kind: ScopeUnscoped} }
func BalanceScope(id int64) Scope   { return Scope{Kind: ScopeBalance, BalanceID: id} }
func ProjectScope(id int64) Scope   { return Scope{Kind: ScopeProject, ProjectID: id} }

func (s Scope) Validate() error {
	switch s.Kind {
	case ScopeUnscoped:
		if s.BalanceID != 0 || s.ProjectID != 0 {
			return ErrInvalidScope
		}
	case ScopeBalance:
		if s.BalanceID == 0 || s.ProjectID != 0 {
			return ErrInvalidScope
		}
	case ScopeProject:
		if s.ProjectID == 0 || s.BalanceID != 0 {
			return ErrInvalidScope
		}
	default:
		return ErrInvalidScope
	}
	return nil
}

// ResolveWriteScope decides which scope a newly created transaction gets,
// from its kind and the user's current selection.
//
// Income is never attributed to a construction project: projects are cost
// centers, not revenue centers. The only scoped income is personal-balance
// income, when the selection is a specific balance.
func ResolveWriteScope(kind TransactionKind, sel UserSelection) Scope {
	if sel.Kind == SelectBalance && sel.BalanceID != 0 {
		return BalanceScope(sel.BalanceID)
	}
	if kind == Income {
		return Unscoped()
	}
	switch sel.Kind {
	case SelectProject:
		if sel.ProjectID != 0 {
			return ProjectScope(sel.ProjectID)
		}
	case SelectAll, SelectUnscoped:
		// the aggregate view cannot receive direct writes
	}
	return Unscoped()
}

// ReadFilter is the predicate a scope selection imposes on reads.
type ReadFilter struct {
	Selection UserSelection
}

// Matches reports whether the transaction belongs to the selected view.
// Project views show expenses only; there is no project-level income.
func (f ReadFilter) Matches(t Transaction) bool {
	switch f.Selection.Kind {
	case SelectAll:
		return true
	case SelectProject:
		return t.Kind == Expense &&
			t.Scope.Kind == ScopeProject &&
			t.Scope.ProjectID == f.Selection.ProjectID
	case SelectBalance:
		return t.Scope.Kind == ScopeBalance &&
			t.Scope.BalanceID == f.Selection.BalanceID
	default:
		return t.Scope.Kind == ScopeUnscoped
	}
}
