package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hisobchi/internal/core"
	"hisobchi/internal/extract"
	"hisobchi/internal/pending"
	"hisobchi/internal/period"
	"hisobchi/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeDomainError maps domain sentinels onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound),
		errors.Is(err, pending.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidCurrency),
		errors.Is(err, core.ErrInvalidScope),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrTransferInvariant),
		errors.Is(err, services.ErrUnknownFormat):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrQueueUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, pending.ErrSessionExpired),
		errors.Is(err, pending.ErrSessionClosed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrExtractionUnintelligible):
		writeError(w, http.StatusUnprocessableEntity, "could not understand the recording")
	case errors.Is(err, core.ErrExtractionTimeout):
		writeError(w, http.StatusGatewayTimeout, "extraction timed out")
	case errors.Is(err, extract.ErrKeysExhausted):
		writeError(w, http.StatusServiceUnavailable, "extraction temporarily unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// parsePeriodValue maps a request value onto a period token, defaulting
// to today.
func parsePeriodValue(v string) period.Token {
	if v == "" {
		return period.Today
	}
	return period.Token(v)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
