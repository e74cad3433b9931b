package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"12000", 1200000, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	cases := []struct {
		m    Money
		c    Currency
		want string
	}{
		{Money{Cents: 50000000}, UZS, "500 000 so'm"},
		{Money{Cents: 100}, UZS, "1 so'm"},
		{Money{Cents: 123456789}, UZS, "1 234 567.89 so'm"},
		{Money{Cents: 2500}, USD, "25 USD"},
		{Money{Cents: -38000000}, UZS, "-380 000 so'm"},
	}
	for _, tc := range cases {
		if got := tc.m.Format(tc.c); got != tc.want {
			t.Fatalf("Format(%d, %s) = %q, want %q", tc.m.Cents, tc.c, got, tc.want)
		}
	}
}

func TestMoneyFormatSigned(t *testing.T) {
	m := Money{Cents: 12000000}
	if got := m.FormatSigned(Income, UZS); got != "+120 000 so'm" {
		t.Fatalf("income: %q", got)
	}
	if got := m.FormatSigned(Expense, UZS); got != "-120 000 so'm" {
		t.Fatalf("expense: %q", got)
	}
}
