package api

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/adscope/adscope/internal/audit"
	"github.com/adscope/adscope/internal/auth"
	"log/slog"
)

// SetupRoutes configures all API routes. repo and db may be nil when
// persistence is disabled; the lookup endpoints then report 501 and the
// health endpoint skips the database probe.
func SetupRoutes(mux *http.ServeMux, service *audit.Service, repo audit.Repository, db *sql.DB, authConfig auth.Config, logger *slog.Logger) {
	handler := NewHandler(service, repo, db, logger)
	authHandler := NewAuthHandler(authConfig, logger)

	authMiddleware := auth.AuthMiddleware(authConfig)

	// Authentication routes (public)
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/auth/validate", func(w http.ResponseWriter, r *http.Request) {
		authMiddleware(http.HandlerFunc(authHandler.ValidateToken)).ServeHTTP(w, r)
	})

	// Audit routes (authenticated)
	mux.HandleFunc("/api/audits", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			authMiddleware(http.HandlerFunc(handler.RunAuditHandler)).ServeHTTP(w, r)
		case http.MethodGet:
			authMiddleware(http.HandlerFunc(handler.ListAuditsHandler)).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/audits/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/latest") {
			authMiddleware(http.HandlerFunc(handler.GetLatestAuditHandler)).ServeHTTP(w, r)
			return
		}
		authMiddleware(http.HandlerFunc(handler.GetAuditHandler)).ServeHTTP(w, r)
	})

	// Health check endpoint (public)
	mux.HandleFunc("/healthz", handler.HealthHandler)
}
