// Package audit is the top-level entry point for running account audits: it
// normalizes a raw platform payload, runs the analysis pass, wraps the
// outcome in a run envelope and handles caching and persistence.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/adscope/adscope/internal/analysis"
	"github.com/adscope/adscope/internal/cache"
	"github.com/adscope/adscope/internal/ingestion"
	"github.com/adscope/adscope/internal/metrics"
	"github.com/adscope/adscope/internal/models"
)

// Repository persists completed audits. A nil repository disables
// persistence.
type Repository interface {
	SaveAudit(ctx context.Context, result *models.AuditResult) error
	GetAudit(ctx context.Context, id string) (*models.AuditResult, error)
	ListAudits(ctx context.Context, clientName string, limit int) ([]models.AuditSummary, error)
	GetLatestAudit(ctx context.Context, clientName string, platform models.Platform) (*models.AuditResult, error)
}

// Advisor turns a completed audit into supplementary AI recommendations. A
// nil advisor disables the advisory pass.
type Advisor interface {
	Advise(ctx context.Context, result *models.AuditResult) ([]models.Recommendation, error)
}

// Request describes one audit run.
type Request struct {
	ClientName string
	AgencyName string
	Platform   models.Platform
	// Payload is the raw connector export: campaigns, ad sets, ads and
	// insight rows under their platform field names.
	Payload map[string]any

	// UseCache serves an existing result for the same client, platform and
	// day instead of recomputing.
	UseCache          bool
	CacheLookbackDays int
}

// Service runs audits end to end.
type Service struct {
	normalizer *ingestion.Normalizer
	analyzer   *analysis.Analyzer
	store      *cache.Store
	repo       Repository
	advisor    Advisor
	collector  *metrics.Collector
	logger     *slog.Logger
}

// NewService wires the audit pipeline. store, repo, advisor and collector
// may each be nil to disable that concern.
func NewService(
	normalizer *ingestion.Normalizer,
	analyzer *analysis.Analyzer,
	store *cache.Store,
	repo Repository,
	advisor Advisor,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Service {
	return &Service{
		normalizer: normalizer,
		analyzer:   analyzer,
		store:      store,
		repo:       repo,
		advisor:    advisor,
		collector:  collector,
		logger:     logger,
	}
}

// Run executes one audit. It never returns an error: any failure is
// reported inside the result envelope with Success=false, so callers only
// inspect the result.
func (s *Service) Run(ctx context.Context, req Request) (result *models.AuditResult) {
	start := time.Now()
	result = &models.AuditResult{
		ID:         uuid.NewString(),
		Timestamp:  start.UTC(),
		ClientName: req.ClientName,
		AgencyName: req.AgencyName,
		Platform:   req.Platform,
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("audit panicked", "run_id", result.ID, "panic", r)
			result.Success = false
			result.Error = fmt.Sprintf("internal error: %v", r)
		}
		if s.collector != nil {
			s.collector.RecordAudit(string(req.Platform), result.Success, time.Since(start))
		}
	}()

	if req.ClientName == "" {
		result.Error = "client name is required"
		return result
	}
	if req.Platform == "" {
		req.Platform = models.PlatformGeneric
		result.Platform = models.PlatformGeneric
	}

	if req.UseCache && s.store != nil {
		if cached, err := s.store.Get(req.ClientName, req.Platform, req.CacheLookbackDays); err == nil {
			s.logger.Info("audit served from cache",
				"client", req.ClientName, "platform", req.Platform, "cached_run_id", cached.ID)
			return cached
		}
	}

	s.logger.Info("audit started",
		"run_id", result.ID, "client", req.ClientName, "platform", req.Platform)

	snap, err := s.normalizer.Normalize(req.Payload, req.Platform)
	if err != nil {
		result.Error = fmt.Sprintf("normalize input: %v", err)
		s.logger.Error("audit failed", "run_id", result.ID, "error", result.Error)
		return result
	}

	analyzed := s.analyzer.Analyze(snap)
	result.Success = true
	result.AccountOverview = analyzed.Overview
	result.Insights = analyzed.Insights
	result.Recommendations = analyzed.Recommendations
	result.Metrics = analyzed.Metrics
	result.PotentialSavings = analyzed.PotentialSavings
	result.PotentialImprovementPct = analyzed.PotentialImprovementPct

	if s.advisor != nil {
		aiRecs, err := s.advisor.Advise(ctx, result)
		if err != nil {
			// Advisory output is supplementary; the audit stands without it.
			s.logger.Warn("advisory pass failed", "run_id", result.ID, "error", err)
		} else {
			result.AIRecommendations = aiRecs
		}
	}

	if s.collector != nil {
		counts := make(map[string]int)
		for _, r := range result.Recommendations {
			counts[string(r.Severity)]++
		}
		s.collector.RecordRecommendations(counts)
	}

	if s.store != nil {
		if err := s.store.Put(result); err != nil {
			s.logger.Warn("audit cache write failed", "run_id", result.ID, "error", err)
		}
	}
	if s.repo != nil {
		if err := s.repo.SaveAudit(ctx, result); err != nil {
			s.logger.Warn("audit persistence failed", "run_id", result.ID, "error", err)
		}
	}

	s.logger.Info("audit completed",
		"run_id", result.ID,
		"recommendations", len(result.Recommendations),
		"potential_savings", result.PotentialSavings,
		"duration", time.Since(start))
	return result
}
