package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adscope/adscope/internal/audit"
	"github.com/adscope/adscope/internal/database"
	"github.com/adscope/adscope/internal/models"
	"log/slog"
)

type Handler struct {
	service   *audit.Service
	repo      audit.Repository
	db        *sql.DB
	logger    *slog.Logger
	startTime time.Time
}

func NewHandler(service *audit.Service, repo audit.Repository, db *sql.DB, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		repo:      repo,
		db:        db,
		logger:    logger,
		startTime: time.Now(),
	}
}

// RunAuditRequest is the body of POST /api/audits.
type RunAuditRequest struct {
	ClientName        string          `json:"client_name"`
	AgencyName        string          `json:"agency_name,omitempty"`
	Platform          models.Platform `json:"platform"`
	Data              map[string]any  `json:"data"`
	UseCache          *bool           `json:"use_cache,omitempty"`
	CacheLookbackDays int             `json:"cache_lookback_days,omitempty"`
}

// RunAuditHandler handles POST /api/audits
func (h *Handler) RunAuditHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RunAuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := ValidateAuditRequest(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Caching defaults to on; clients opt out per request.
	useCache := true
	if req.UseCache != nil {
		useCache = *req.UseCache
	}

	result := h.service.Run(r.Context(), audit.Request{
		ClientName:        req.ClientName,
		AgencyName:        req.AgencyName,
		Platform:          req.Platform,
		Payload:           req.Data,
		UseCache:          useCache,
		CacheLookbackDays: req.CacheLookbackDays,
	})

	status := http.StatusOK
	if !result.Success {
		// The audit envelope carries the failure reason; the run itself
		// is still a completed request.
		status = http.StatusUnprocessableEntity
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// ListAuditsResponse wraps the audit list endpoint payload.
type ListAuditsResponse struct {
	Audits []models.AuditSummary `json:"audits"`
	Count  int                   `json:"count"`
}

// ListAuditsHandler handles GET /api/audits
func (h *Handler) ListAuditsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.repo == nil {
		http.Error(w, "Persistence not configured", http.StatusNotImplemented)
		return
	}

	clientName := r.URL.Query().Get("client")
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	summaries, err := h.repo.ListAudits(r.Context(), clientName, limit)
	if err != nil {
		h.logger.Error("failed to list audits", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := ListAuditsResponse{
		Audits: summaries,
		Count:  len(summaries),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// GetAuditHandler handles GET /api/audits/:id
func (h *Handler) GetAuditHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.repo == nil {
		http.Error(w, "Persistence not configured", http.StatusNotImplemented)
		return
	}

	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 4 || parts[3] == "" {
		http.Error(w, "Audit ID required", http.StatusBadRequest)
		return
	}
	auditID := parts[3]

	result, err := h.repo.GetAudit(r.Context(), auditID)
	if err != nil {
		h.logger.Error("failed to get audit", "id", auditID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if result == nil {
		http.Error(w, "Audit not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// GetLatestAuditHandler handles GET /api/audits/latest?client=...&platform=...
func (h *Handler) GetLatestAuditHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.repo == nil {
		http.Error(w, "Persistence not configured", http.StatusNotImplemented)
		return
	}

	clientName := r.URL.Query().Get("client")
	if clientName == "" {
		http.Error(w, "client query parameter required", http.StatusBadRequest)
		return
	}

	platform := models.Platform(r.URL.Query().Get("platform"))
	if platform == "" {
		platform = models.PlatformFacebook
	}
	if !KnownPlatform(platform) {
		http.Error(w, "Unknown platform", http.StatusBadRequest)
		return
	}

	result, err := h.repo.GetLatestAudit(r.Context(), clientName, platform)
	if err != nil {
		h.logger.Error("failed to get latest audit", "client", clientName, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if result == nil {
		http.Error(w, "No audit found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// HealthHandler handles GET /healthz. With persistence configured the
// response includes database reachability and pool counters, and an
// unreachable database degrades the status.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	response := map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
	}

	if h.db != nil {
		if err := database.HealthCheck(r.Context(), h.db); err != nil {
			h.logger.Warn("database health check failed", "error", err)
			status = http.StatusServiceUnavailable
			response["status"] = "degraded"
			response["database"] = "unreachable"
		} else {
			response["database"] = "ok"
			response["database_stats"] = database.Stats(h.db)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
