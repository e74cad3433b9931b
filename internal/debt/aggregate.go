// Package debt nets the four debt-movement kinds into per-contact balances.
package debt

import (
	"hisobchi/internal/core"
)

// ContactBalance is the derived position against one contact in one
// currency: what I owe them and what they owe me. Both are clamped to
// zero, so over-repayment does not surface as negative debt.
type ContactBalance struct {
	Contact  core.DebtContact
	Currency core.Currency
	IOwe     core.Money
	OwedToMe core.Money
}

// HasDebt reports whether anything is outstanding in either direction.
func (b ContactBalance) HasDebt() bool {
	return b.IOwe.Cents > 0 || b.OwedToMe.Cents > 0
}

// Aggregate nets all entries in the given currency per contact. Contacts
// are returned in their input order; entries for other currencies or
// unknown contacts are ignored.
func Aggregate(contacts []core.DebtContact, entries []core.DebtEntry, currency core.Currency) []ContactBalance {
	type position struct {
		borrowed, repaid int64
		lent, received   int64
	}
	byContact := make(map[int64]*position, len(contacts))
	for _, c := range contacts {
		byContact[c.ID] = &position{}
	}

	for _, e := range entries {
		if e.Currency != currency {
			continue
		}
		p, ok := byContact[e.ContactID]
		if !ok {
			continue
		}
		switch e.Kind {
		case core.Borrow:
			p.borrowed += e.Amount.Cents
		case core.Repay:
			p.repaid += e.Amount.Cents
		case core.Lend:
			p.lent += e.Amount.Cents
		case core.Receive:
			p.received += e.Amount.Cents
		}
	}

	out := make([]ContactBalance, 0, len(contacts))
	for _, c := range contacts {
		p := byContact[c.ID]
		out = append(out, ContactBalance{
			Contact:  c,
			Currency: currency,
			IOwe:     core.Money{Cents: clamp(p.borrowed - p.repaid)},
			OwedToMe: core.Money{Cents: clamp(p.lent - p.received)},
		})
	}
	return out
}

func clamp(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
