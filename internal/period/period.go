// Package period computes report windows for the named periods the bot
// offers (today / this week / this month).
//
// All boundary arithmetic happens in a single fixed UTC+5 offset so the chat
// summary, the PDF and the spreadsheet agree on what "today" means no matter
// which timezone the server runs in.
package period

import (
	"fmt"
	"time"
)

const (
	Today Token = "today"
	Week  Token = "week"
	Month Token = "month"
)

type Token string

// Tashkent is the canonical offset every stored timestamp is interpreted in.
var Tashkent = time.FixedZone("UTC+5", 5*60*60)

// Window is an inclusive [Start, End] date range plus the exclusive upper
// bound PriorEnd used to compute the opening balance (sum of everything
// strictly before Start).
type Window struct {
	Start    time.Time
	End      time.Time
	PriorEnd time.Time
	Label    string
}

func (t Token) Valid() bool {
	switch t {
	case Today, Week, Month:
		return true
	}
	return false
}

// Compute derives the window for a period token at the given instant.
func Compute(token Token, now time.Time) (Window, error) {
	local := now.In(Tashkent)
	day := floorDay(local)

	var w Window
	switch token {
	case Today:
		w = Window{Start: day, End: day, Label: "Bugungi"}
	case Week:
		wd := int(day.Weekday())
		if wd == 0 {
			wd = 7 // ISO weekday: Sunday is 7
		}
		w = Window{Start: day.AddDate(0, 0, -(wd - 1)), End: day, Label: "Haftalik"}
	case Month:
		w = Window{Start: time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, Tashkent), End: day, Label: "Oylik"}
	default:
		return Window{}, fmt.Errorf("unknown period token %q", token)
	}
	w.PriorEnd = w.Start
	return w, nil
}

// Contains reports whether ts falls inside the window's inclusive day range.
func (w Window) Contains(ts time.Time) bool {
	d := floorDay(ts.In(Tashkent))
	return !d.Before(w.Start) && !d.After(w.End)
}

// RangeLabel renders the window bounds for document headers, e.g.
// "2026-08-24 — 2026-08-29".
func (w Window) RangeLabel() string {
	const layout = "2006-01-02"
	if w.Start.Equal(w.End) {
		return w.Start.Format(layout)
	}
	return w.Start.Format(layout) + " — " + w.End.Format(layout)
}

// ExclusiveEnd is the instant just past the window, for BETWEEN-style
// queries over timestamps rather than dates.
func (w Window) ExclusiveEnd() time.Time {
	return w.End.AddDate(0, 0, 1)
}

func floorDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Tashkent)
}
