// Package cache stores completed audit results as JSON files on disk, one
// per client, platform and day. It lets repeated audit requests for the same
// account serve the day's existing result instead of recomputing.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adscope/adscope/internal/models"
)

// ErrMiss is returned when no cached result exists in the lookback window.
var ErrMiss = errors.New("cache: no cached audit found")

// Store is a keyed on-disk audit cache. Keys are derived from client name,
// platform and calendar day, so at most one entry per account per day.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates the cache directory if needed.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Put writes an audit result under its client, platform and timestamp day.
func (s *Store) Put(result *models.AuditResult) error {
	path := s.path(result.ClientName, result.Platform, result.Timestamp)
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: marshal audit: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cache: write %s: %w", filepath.Base(path), err)
	}
	s.logger.Debug("audit cached", "file", filepath.Base(path))
	return nil
}

// Get returns the newest cached result for the client and platform within
// the last lookbackDays days (0 means today only). Unreadable files inside
// the window are skipped, not fatal.
func (s *Store) Get(clientName string, platform models.Platform, lookbackDays int) (*models.AuditResult, error) {
	now := time.Now().UTC()
	for offset := 0; offset <= lookbackDays; offset++ {
		path := s.path(clientName, platform, now.AddDate(0, 0, -offset))
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			s.logger.Warn("unreadable cache file skipped", "file", filepath.Base(path), "error", err)
			continue
		}
		var result models.AuditResult
		if err := json.Unmarshal(data, &result); err != nil {
			s.logger.Warn("corrupt cache file skipped", "file", filepath.Base(path), "error", err)
			continue
		}
		return &result, nil
	}
	return nil, ErrMiss
}

// Prune deletes cache files older than maxAge.
func (s *Store) Prune(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("cache: read directory: %w", err)
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			s.logger.Warn("cache prune failed for file", "file", entry.Name(), "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("cache pruned", "removed", removed)
	}
	return removed, nil
}

func (s *Store) path(clientName string, platform models.Platform, day time.Time) string {
	name := fmt.Sprintf("%s_%s_%s.json",
		slugify(clientName), platform, day.UTC().Format("20060102"))
	return filepath.Join(s.dir, name)
}

// slugify keeps cache file names filesystem-safe.
func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "client"
	}
	return b.String()
}
