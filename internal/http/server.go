package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"hisobchi/internal/services"
	"hisobchi/internal/storage"
)

// Server is the JSON API consumed by the Telegram mini-app.
type Server struct {
	http.Server

	storage      *storage.SQLiteRepository
	transactions *services.TransactionService
	transfers    *services.TransferService
	debts        *services.DebtService
	reports      *services.ReportService

	botToken     string
	voiceEnabled bool

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// Deps bundles everything the server needs.
type Deps struct {
	Storage      *storage.SQLiteRepository
	Transactions *services.TransactionService
	Transfers    *services.TransferService
	Debts        *services.DebtService
	Reports      *services.ReportService
	BotToken     string
	VoiceEnabled bool

	// WriteRateLimit caps non-GET requests per client per minute.
	// Zero means the default.
	WriteRateLimit int
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		storage:      deps.Storage,
		transactions: deps.Transactions,
		transfers:    deps.Transfers,
		debts:        deps.Debts,
		reports:      deps.Reports,
		botToken:     deps.BotToken,
		voiceEnabled: deps.VoiceEnabled,
		rateLimiter:  newRateLimiter(deps.WriteRateLimit, time.Minute),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	api := func(h http.HandlerFunc) http.HandlerFunc {
		return s.withSecurityHeaders(s.withAuth(h))
	}

	mux.HandleFunc("GET /api/profile", api(s.handleProfile))
	mux.HandleFunc("POST /api/selection", api(s.handleSetSelection))

	mux.HandleFunc("GET /api/transactions", api(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", api(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", api(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/balances", api(s.handleListBalances))
	mux.HandleFunc("POST /api/balances", api(s.handleCreateBalance))
	mux.HandleFunc("DELETE /api/balances/{id}", api(s.handleDeleteBalance))

	mux.HandleFunc("GET /api/projects", api(s.handleListProjects))
	mux.HandleFunc("POST /api/projects", api(s.handleCreateProject))
	mux.HandleFunc("DELETE /api/projects/{id}", api(s.handleDeleteProject))

	mux.HandleFunc("GET /api/categories", api(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", api(s.handleCreateCategory))

	mux.HandleFunc("GET /api/debts", api(s.handleDebtOverview))
	mux.HandleFunc("POST /api/debts", api(s.handleCreateDebtEntry))
	mux.HandleFunc("DELETE /api/debts/contacts/{id}", api(s.handleDeleteDebtContact))

	mux.HandleFunc("GET /api/transfers", api(s.handleListTransfers))
	mux.HandleFunc("POST /api/transfers", api(s.handleCreateTransfer))

	mux.HandleFunc("GET /api/summary", api(s.handleSummary))
	mux.HandleFunc("GET /api/reports/download", api(s.handleDownloadReport))
	mux.HandleFunc("POST /api/reports", api(s.handleRequestReport))

	mux.HandleFunc("POST /api/voice/extract", api(s.handleVoiceExtract))
	mux.HandleFunc("POST /api/voice/{id}/confirm", api(s.handleVoiceConfirm))
	mux.HandleFunc("POST /api/voice/{id}/cancel", api(s.handleVoiceCancel))

	return s
}

// withSecurityHeaders adds security headers, rate limiting and request
// logging.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), contextKey("request_id"), requestID)
		r = r.WithContext(ctx)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops the rate limiter sweep and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
