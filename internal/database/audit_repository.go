package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/adscope/adscope/internal/models"
)

// AuditRepository handles audit result database operations
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// SaveAudit stores a completed audit. The full result is stored as JSONB
// alongside the columns the list and lookup queries filter on.
func (r *AuditRepository) SaveAudit(ctx context.Context, result *models.AuditResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal audit result: %w", err)
	}

	query := `
		INSERT INTO audits (id, timestamp, client_name, agency_name, platform, success, potential_savings, recommendation_count, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET timestamp = EXCLUDED.timestamp,
		    client_name = EXCLUDED.client_name,
		    agency_name = EXCLUDED.agency_name,
		    platform = EXCLUDED.platform,
		    success = EXCLUDED.success,
		    potential_savings = EXCLUDED.potential_savings,
		    recommendation_count = EXCLUDED.recommendation_count,
		    result = EXCLUDED.result
	`

	_, err = r.db.ExecContext(ctx, query,
		result.ID, result.Timestamp, result.ClientName, result.AgencyName,
		string(result.Platform), result.Success, result.PotentialSavings,
		len(result.Recommendations), resultJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save audit: %w", err)
	}

	return nil
}

// GetAudit retrieves an audit by ID. Returns nil when no audit exists.
func (r *AuditRepository) GetAudit(ctx context.Context, id string) (*models.AuditResult, error) {
	query := `SELECT result FROM audits WHERE id = $1`

	var resultJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit: %w", err)
	}

	var result models.AuditResult
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal audit result: %w", err)
	}

	return &result, nil
}

// ListAudits retrieves audit summaries, newest first. An empty clientName
// lists audits for all clients.
func (r *AuditRepository) ListAudits(ctx context.Context, clientName string, limit int) ([]models.AuditSummary, error) {
	if limit < 1 {
		limit = 50
	}

	query := `
		SELECT id, timestamp, client_name, platform, success, potential_savings, recommendation_count
		FROM audits
		WHERE ($1 = '' OR client_name = $1)
		ORDER BY timestamp DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, clientName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}
	defer rows.Close()

	var summaries []models.AuditSummary
	for rows.Next() {
		var s models.AuditSummary
		var platform string

		err := rows.Scan(&s.ID, &s.Timestamp, &s.ClientName, &platform, &s.Success, &s.PotentialSavings, &s.RecommendationCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit summary: %w", err)
		}
		s.Platform = models.Platform(platform)

		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audits: %w", err)
	}

	return summaries, nil
}

// GetLatestAudit retrieves the most recent successful audit for a client
// and platform. Returns nil when none exists.
func (r *AuditRepository) GetLatestAudit(ctx context.Context, clientName string, platform models.Platform) (*models.AuditResult, error) {
	query := `
		SELECT result
		FROM audits
		WHERE client_name = $1 AND platform = $2 AND success = true
		ORDER BY timestamp DESC
		LIMIT 1
	`

	var resultJSON []byte
	err := r.db.QueryRowContext(ctx, query, clientName, string(platform)).Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest audit: %w", err)
	}

	var result models.AuditResult
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal audit result: %w", err)
	}

	return &result, nil
}
