package core

import "testing"

func TestScopeValidate(t *testing.T) {
	cases := []struct {
		name string
		s    Scope
		ok   bool
	}{
		{"unscoped", Unscoped(), true},
		{"balance", BalanceScope(3), true},
		{"project", ProjectScope(7), true},
		{"both set", Scope{Kind: ScopeBalance, BalanceID: 3, ProjectID: 7}, false},
		{"balance without id", Scope{Kind: ScopeBalance}, false},
		{"project without id", Scope{Kind: ScopeProject}, false},
		{"unknown kind", Scope{Kind: "wallet"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.s.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestResolveWriteScope(t *testing.T) {
	cases := []struct {
		name string
		kind TransactionKind
		sel  UserSelection
		want Scope
	}{
		{"income under all", Income, UserSelection{Kind: SelectAll}, Unscoped()},
		{"income under project", Income, UserSelection{Kind: SelectProject, ProjectID: 4}, Unscoped()},
		{"income under balance", Income, UserSelection{Kind: SelectBalance, BalanceID: 2}, BalanceScope(2)},
		{"expense under all", Expense, UserSelection{Kind: SelectAll}, Unscoped()},
		{"expense under project", Expense, UserSelection{Kind: SelectProject, ProjectID: 4}, ProjectScope(4)},
		{"expense under balance", Expense, UserSelection{Kind: SelectBalance, BalanceID: 2}, BalanceScope(2)},
		{"expense unscoped", Expense, UserSelection{Kind: SelectUnscoped}, Unscoped()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveWriteScope(tc.kind, tc.sel); got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestReadFilterMatches(t *testing.T) {
	projExpense := Transaction{Kind: Expense, Scope: ProjectScope(4)}
	projIncomeLike := Transaction{Kind: Income, Scope: ProjectScope(4)}
	balIncome := Transaction{Kind: Income, Scope: BalanceScope(2)}
	other := Transaction{Kind: Expense, Scope: Unscoped()}

	all := ReadFilter{Selection: UserSelection{Kind: SelectAll}}
	for _, tx := range []Transaction{projExpense, balIncome, other} {
		if !all.Matches(tx) {
			t.Fatalf("all view must match %+v", tx.Scope)
		}
	}

	proj := ReadFilter{Selection: UserSelection{Kind: SelectProject, ProjectID: 4}}
	if !proj.Matches(projExpense) {
		t.Fatal("project view must match its own expense")
	}
	// project views never show income, by design
	if proj.Matches(projIncomeLike) {
		t.Fatal("project view must exclude income")
	}
	if proj.Matches(other) {
		t.Fatal("project view must exclude unscoped rows")
	}

	bal := ReadFilter{Selection: UserSelection{Kind: SelectBalance, BalanceID: 2}}
	if !bal.Matches(balIncome) || bal.Matches(other) {
		t.Fatal("balance view must match only its own scope")
	}

	uns := ReadFilter{Selection: UserSelection{Kind: SelectUnscoped}}
	if !uns.Matches(other) || uns.Matches(balIncome) {
		t.Fatal("unscoped view must match only unscoped rows")
	}
}
