// Package http exposes the JSON API. The caller's identity comes from the
// X-User-ID header, set by an upstream authenticating proxy.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/splitpro/splitpro-backend/internal/metrics"
	"github.com/splitpro/splitpro-backend/internal/usecase/balance"
	"github.com/splitpro/splitpro-backend/internal/usecase/expense"
	"github.com/splitpro/splitpro-backend/internal/usecase/friend"
	"github.com/splitpro/splitpro-backend/internal/usecase/group"
	"github.com/splitpro/splitpro-backend/internal/usecase/ledger"
	"github.com/splitpro/splitpro-backend/internal/usecase/settlement"
	"github.com/splitpro/splitpro-backend/internal/usecase/user"
)

// Server wires the use case services to HTTP routes.
type Server struct {
	http.Server

	users       *user.Service
	friends     *friend.Service
	balances    *balance.Service
	expenses    *expense.Service
	groups      *group.Service
	settlements *settlement.Service
	ledger      *ledger.Ledger
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(
	addr string,
	users *user.Service,
	friends *friend.Service,
	balances *balance.Service,
	expenses *expense.Service,
	groups *group.Service,
	settlements *settlement.Service,
	ldg *ledger.Ledger,
) *Server {
	s := &Server{
		users:       users,
		friends:     friends,
		balances:    balances,
		expenses:    expenses,
		groups:      groups,
		settlements: settlements,
		ledger:      ldg,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /users", s.handleRegisterUser)
	mux.HandleFunc("GET /users/{id}", s.handleGetUser)

	mux.HandleFunc("POST /friends", s.handleAddFriend)
	mux.HandleFunc("GET /friends", s.handleListFriends)
	mux.HandleFunc("DELETE /friends/{id}", s.handleRemoveFriend)

	mux.HandleFunc("GET /balances", s.handleBalanceSummary)
	mux.HandleFunc("GET /balances/{friendID}", s.handleGetBalance)

	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /expenses", s.handleListExpenses)
	mux.HandleFunc("GET /expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("POST /groups", s.handleCreateGroup)
	mux.HandleFunc("GET /groups/{id}", s.handleGetGroup)
	mux.HandleFunc("GET /groups/{id}/expenses", s.handleListGroupExpenses)

	mux.HandleFunc("POST /settlements", s.handleRecordSettlement)
	mux.HandleFunc("GET /settlements", s.handleListSettlements)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      withMiddleware(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// withMiddleware adds panic recovery and request logging.
func withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(r.Context(), "panic in handler",
					"panic", rec, "method", r.Method, "url", r.URL.Path)
				http.Error(rw, "internal server error", http.StatusInternalServerError)
			}
			slog.InfoContext(r.Context(), "request completed",
				"method", r.Method,
				"url", r.URL.Path,
				"status", rw.statusCode,
				"duration_ms", time.Since(start).Milliseconds())
		}()

		next.ServeHTTP(rw, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}
