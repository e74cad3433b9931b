package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{40, 30 * time.Second}, // shift overflow also caps
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"connection closed", errors.New("connection closed"), true},
		{"unexpected EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"handler error", errors.New("render report: boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestReportJobMessageRoundTrip(t *testing.T) {
	msg := &ReportJobMessage{
		JobID:         "0b0d9f2e",
		UserID:        7,
		SelectionKind: "project",
		ProjectID:     4,
		Period:        "month",
		Format:        FormatPDF,
		Timestamp:     time.Now().UTC().Truncate(time.Second),
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	got, err := ReportJobMessageFromJSON(body)
	if err != nil {
		t.Fatal(err)
	}
	if got.JobID != msg.JobID || got.UserID != msg.UserID || got.Format != msg.Format || got.ProjectID != 4 {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestReportJobMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := ReportJobMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected unmarshal error")
	}
}
