package period

import (
	"testing"
	"time"
)

func TestComputeToday(t *testing.T) {
	now := time.Date(2026, 8, 29, 14, 30, 0, 0, Tashkent)
	w, err := Compute(Today, now)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 8, 29, 0, 0, 0, 0, Tashkent)
	if !w.Start.Equal(want) || !w.End.Equal(want) {
		t.Fatalf("today window = [%v, %v], want [%v, %v]", w.Start, w.End, want, want)
	}
	if !w.PriorEnd.Equal(w.Start) {
		t.Fatal("prior end must equal window start")
	}
	if w.Label != "Bugungi" {
		t.Fatalf("label = %q", w.Label)
	}
}

func TestComputeWeekStartsMonday(t *testing.T) {
	// 2026-08-29 is a Saturday; the ISO week started Monday the 24th.
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, Tashkent)
	w, err := Compute(Week, now)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := w.Start, time.Date(2026, 8, 24, 0, 0, 0, 0, Tashkent); !got.Equal(want) {
		t.Fatalf("week start = %v, want %v", got, want)
	}
}

func TestComputeWeekOnSunday(t *testing.T) {
	// Sunday belongs to the week that started the previous Monday.
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, Tashkent)
	w, _ := Compute(Week, now)
	if got, want := w.Start, time.Date(2026, 8, 24, 0, 0, 0, 0, Tashkent); !got.Equal(want) {
		t.Fatalf("week start on Sunday = %v, want %v", got, want)
	}
}

func TestComputeMonth(t *testing.T) {
	now := time.Date(2026, 8, 29, 23, 59, 0, 0, Tashkent)
	w, _ := Compute(Month, now)
	if got, want := w.Start, time.Date(2026, 8, 1, 0, 0, 0, 0, Tashkent); !got.Equal(want) {
		t.Fatalf("month start = %v, want %v", got, want)
	}
}

func TestComputeDeterministicWithinDay(t *testing.T) {
	a := time.Date(2026, 8, 29, 0, 0, 30, 0, Tashkent)
	b := a.Add(time.Minute)
	wa, _ := Compute(Today, a)
	wb, _ := Compute(Today, b)
	if !wa.Start.Equal(wb.Start) || !wa.End.Equal(wb.End) {
		t.Fatal("windows within the same calendar day must be identical")
	}
}

func TestComputeUsesFixedOffsetNotServerZone(t *testing.T) {
	// 21:00 UTC on the 28th is already the 29th in UTC+5.
	now := time.Date(2026, 8, 28, 21, 0, 0, 0, time.UTC)
	w, _ := Compute(Today, now)
	if got, want := w.Start, time.Date(2026, 8, 29, 0, 0, 0, 0, Tashkent); !got.Equal(want) {
		t.Fatalf("start = %v, want %v", got, want)
	}
}

func TestWindowContains(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, Tashkent)
	w, _ := Compute(Week, now)
	if !w.Contains(time.Date(2026, 8, 24, 0, 0, 1, 0, Tashkent)) {
		t.Fatal("window must include its first day")
	}
	if w.Contains(time.Date(2026, 8, 23, 23, 59, 0, 0, Tashkent)) {
		t.Fatal("window must exclude the day before start")
	}
}

func TestComputeUnknownToken(t *testing.T) {
	if _, err := Compute("quarter", time.Now()); err == nil {
		t.Fatal("expected error for unknown token")
	}
}
