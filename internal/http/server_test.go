package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"hisobchi/internal/core"
	"hisobchi/internal/pending"
	"hisobchi/internal/services"
	"hisobchi/internal/storage"
)

type stubExtractor struct {
	candidates []core.Transaction
	err        error
}

func (f *stubExtractor) ExtractVoice(_ context.Context, _ []byte, _ string) ([]core.Transaction, error) {
	return f.candidates, f.err
}

func newTestServer(t *testing.T, extractor services.VoiceExtractor) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "hisobchi.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	if extractor == nil {
		extractor = &stubExtractor{}
	}
	txService := services.NewTransactionService(repo, pending.NewStore(time.Minute), extractor)

	srv := NewServer(":0", Deps{
		Storage:      repo,
		Transactions: txService,
		Transfers:    services.NewTransferService(repo),
		Debts:        services.NewDebtService(repo),
		Reports:      services.NewReportService(repo, nil),
		BotToken:     testBotToken,
		VoiceEnabled: true,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path string, body any, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+testInitData(userID))
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/profile", nil, 0)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer invalid-data")
	rec2 := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec2.Code)
	}
}

func TestHealthEndpointsNeedNoAuth(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, srv, http.MethodGet, path, nil, 0)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestProfileRegistersUser(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/profile", nil, 42)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}

	var body struct {
		ID        int64 `json:"id"`
		Selection struct {
			Kind string `json:"kind"`
		} `json:"selection"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.ID != 42 || body.Selection.Kind != "all" {
		t.Fatalf("profile = %+v", body)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"kind":        "expense",
		"amount":      "50000",
		"description": "Sement",
	}, 42)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body)
	}
	var created transactionDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Amount != 5000000 || created.ScopeKind != "unscoped" {
		t.Fatalf("created = %+v", created)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/transactions?period=today", nil, 42)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listed []transactionDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 {
		t.Fatalf("listed = %d rows", len(listed))
	}

	// delete without a kind is refused
	rec = doRequest(t, srv, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", created.ID), nil, 42)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("kindless delete status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodDelete, fmt.Sprintf("/api/transactions/%d?kind=income", created.ID), nil, 42)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("wrong-kind delete status = %d, want 404", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodDelete, fmt.Sprintf("/api/transactions/%d?kind=expense", created.ID), nil, 42)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d body=%s", rec.Code, rec.Body)
	}
}

func TestInvalidAmountRejected(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"kind":        "expense",
		"amount":      "abc",
		"description": "x",
	}, 42)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	doRequest(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"kind":        "income",
		"amount":      "100000",
		"description": "Avans",
	}, 42)

	rec := doRequest(t, srv, http.MethodGet, "/api/summary?period=today", nil, 42)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	var body struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Summary == "" {
		t.Fatal("empty summary")
	}
}

func TestVoiceFlowOverHTTP(t *testing.T) {
	extractor := &stubExtractor{candidates: []core.Transaction{
		{Kind: core.Expense, Amount: core.Money{Cents: 2000000}, Currency: core.UZS, Description: "Taksi"},
	}}
	srv := newTestServer(t, extractor)

	req := httptest.NewRequest(http.MethodPost, "/api/voice/extract", bytes.NewReader([]byte("ogg-bytes")))
	req.Header.Set("Authorization", "Bearer "+testInitData(42))
	req.Header.Set("Content-Type", "audio/ogg")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("extract status = %d body=%s", rec.Code, rec.Body)
	}

	var extractBody struct {
		SessionID  string           `json:"session_id"`
		Candidates []map[string]any `json:"candidates"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &extractBody); err != nil {
		t.Fatal(err)
	}
	if extractBody.SessionID == "" || len(extractBody.Candidates) != 1 {
		t.Fatalf("extract body = %+v", extractBody)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/voice/"+extractBody.SessionID+"/confirm", nil, 42)
	if rec.Code != http.StatusCreated {
		t.Fatalf("confirm status = %d body=%s", rec.Code, rec.Body)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/voice/"+extractBody.SessionID+"/confirm", nil, 42)
	if rec.Code != http.StatusConflict {
		t.Fatalf("double confirm status = %d, want 409", rec.Code)
	}
}

func TestRequestReportStatusCodes(t *testing.T) {
	srv := newTestServer(t, nil)

	// the test server has no queue configured
	rec := doRequest(t, srv, http.MethodPost, "/api/reports", map[string]any{
		"period": "today", "format": "pdf",
	}, 42)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("no queue status = %d, want 503", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/reports", map[string]any{
		"period": "today", "format": "docx",
	}, 42)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad format status = %d, want 422", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/reports", map[string]any{
		"period": "yearly", "format": "pdf",
	}, 42)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad period status = %d, want 400", rec.Code)
	}
}

func TestTransferEndpointValidates(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/balances", map[string]any{
		"title": "Naqd", "amount": "100000",
	}, 42)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create balance status = %d body=%s", rec.Code, rec.Body)
	}
	var b balanceDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatal(err)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/transfers", map[string]any{
		"from_balance_id": b.ID,
		"to_balance_id":   b.ID,
		"amount":          "1000",
	}, 42)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("self transfer status = %d, want 422", rec.Code)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/categories", map[string]any{
		"name": "Elektrika",
		"kind": "expense",
	}, 42)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category status = %d body=%s", rec.Code, rec.Body)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/categories", nil, 42)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var categories []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &categories); err != nil {
		t.Fatal(err)
	}
	var foundCustom, foundDefault bool
	for _, c := range categories {
		switch c["name"] {
		case "Elektrika":
			foundCustom = true
		case "Ish haqi":
			foundDefault = true
		}
	}
	if !foundCustom || !foundDefault {
		t.Fatalf("categories = %+v", categories)
	}
}

func TestDebtEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/debts", map[string]any{
		"contact_name": "Karim",
		"kind":         "lend",
		"amount":       "40000",
	}, 42)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create debt status = %d body=%s", rec.Code, rec.Body)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/debts", nil, 42)
	if rec.Code != http.StatusOK {
		t.Fatalf("overview status = %d", rec.Code)
	}
	var overview []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &overview); err != nil {
		t.Fatal(err)
	}
	if len(overview) != 1 || overview[0]["contact_name"] != "Karim" {
		t.Fatalf("overview = %+v", overview)
	}
}
