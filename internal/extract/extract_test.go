package extract

import (
	"errors"
	"testing"
	"time"

	"hisobchi/internal/core"
)

func TestParseCandidatesArray(t *testing.T) {
	text := "```json\n[{\"type\":\"income\",\"amount\":50000,\"description\":\"Oylik\"},{\"type\":\"expense\",\"amount\":20000,\"description\":\"Taksi\"}]\n```"
	got, err := parseCandidates(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("candidates = %d, want 2", len(got))
	}
	if got[0].Kind != core.Income || got[0].Amount.Cents != 5000000 {
		t.Fatalf("first candidate = %+v", got[0])
	}
	if got[1].Kind != core.Expense || got[1].Description != "Taksi" {
		t.Fatalf("second candidate = %+v", got[1])
	}
}

func TestParseCandidatesLoneObject(t *testing.T) {
	got, err := parseCandidates(`{"type":"expense","amount":"15000","description":"Sement"}`)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Amount.Cents != 1500000 {
		t.Fatalf("candidates = %+v", got)
	}
}

func TestParseCandidatesUnintelligible(t *testing.T) {
	for _, text := range []string{
		`{"error":"tushunarsiz"}`,
		"not json at all",
		`[{"type":"expense","amount":"abc","description":"x"}]`,
		`[{"type":"expense","amount":100,"description":""}]`,
	} {
		if _, err := parseCandidates(text); !errors.Is(err, core.ErrExtractionUnintelligible) {
			t.Fatalf("parse(%q) = %v, want ErrExtractionUnintelligible", text, err)
		}
	}
}

func TestParseCandidatesSkipsInvalidEntries(t *testing.T) {
	text := `[{"type":"refund","amount":100,"description":"x"},{"type":"expense","amount":100,"description":"Mix"}]`
	got, err := parseCandidates(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Description != "Mix" {
		t.Fatalf("candidates = %+v", got)
	}
}

func TestKeyPoolRotates(t *testing.T) {
	pool := NewKeyPool([]string{"a", "b"}, time.Minute)

	for i, want := range []string{"a", "b", "a"} {
		got, err := pool.Next()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("draw %d = %q, want %q", i, got, want)
		}
	}
}

func TestKeyPoolBenchesExhaustedKeys(t *testing.T) {
	pool := NewKeyPool([]string{"a", "b"}, time.Minute)
	pool.MarkExhausted("a")

	for i := 0; i < 3; i++ {
		got, err := pool.Next()
		if err != nil {
			t.Fatal(err)
		}
		if got != "b" {
			t.Fatalf("draw %d = %q, want b while a is benched", i, got)
		}
	}

	pool.MarkExhausted("b")
	if _, err := pool.Next(); !errors.Is(err, ErrKeysExhausted) {
		t.Fatalf("all benched = %v, want ErrKeysExhausted", err)
	}
}

func TestKeyPoolUnbenchesAfterCooloff(t *testing.T) {
	pool := NewKeyPool([]string{"a"}, time.Minute)
	pool.MarkExhausted("a")
	pool.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	got, err := pool.Next()
	if err != nil {
		t.Fatal(err)
	}
	if got != "a" {
		t.Fatalf("key after cooloff = %q", got)
	}
}
