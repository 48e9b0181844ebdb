package cache

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/adscope/adscope/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), slog.Default())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func sampleResult() *models.AuditResult {
	return &models.AuditResult{
		ID:         "run-1",
		Timestamp:  time.Now().UTC().Truncate(time.Second),
		ClientName: "Acme Corp",
		Platform:   models.PlatformFacebook,
		Success:    true,
		AccountOverview: models.AccountOverview{
			TotalSpend: 2000, TotalImpressions: 150000, TotalClicks: 5500,
			CTR: 3.6667, CPA: 36.36,
		},
		Recommendations: []models.Recommendation{
			{Type: models.RecTypeBudgetAllocationImbalance, Severity: models.SeverityHigh, PotentialSavings: 250, PriorityScore: 450},
			{Type: models.RecTypeAdFatigue, Severity: models.SeverityMedium, PotentialSavings: 90, PriorityScore: 133},
		},
		PotentialSavings:        340,
		PotentialImprovementPct: 9.5,
	}
}

func TestRoundTrip(t *testing.T) {
	s := testStore(t)
	want := sampleResult()
	if err := s.Put(want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get("Acme Corp", models.PlatformFacebook, 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	// Ordering and numeric values must survive the trip exactly.
	if !reflect.DeepEqual(got.Recommendations, want.Recommendations) {
		t.Errorf("recommendations changed:\ngot  %+v\nwant %+v", got.Recommendations, want.Recommendations)
	}
	if got.PotentialSavings != want.PotentialSavings {
		t.Errorf("savings = %v, want %v", got.PotentialSavings, want.PotentialSavings)
	}
	if got.AccountOverview != want.AccountOverview {
		t.Errorf("overview = %+v, want %+v", got.AccountOverview, want.AccountOverview)
	}
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, want.Timestamp)
	}
}

func TestGetMiss(t *testing.T) {
	s := testStore(t)
	if _, err := s.Get("Nobody", models.PlatformTikTok, 3); !errors.Is(err, ErrMiss) {
		t.Errorf("err = %v, want ErrMiss", err)
	}
}

func TestGetScopedByPlatform(t *testing.T) {
	s := testStore(t)
	if err := s.Put(sampleResult()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := s.Get("Acme Corp", models.PlatformTikTok, 0); !errors.Is(err, ErrMiss) {
		t.Errorf("cross-platform hit: err = %v, want ErrMiss", err)
	}
}

func TestGetLookback(t *testing.T) {
	s := testStore(t)
	old := sampleResult()
	old.Timestamp = time.Now().UTC().AddDate(0, 0, -2)
	if err := s.Put(old); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, err := s.Get("Acme Corp", models.PlatformFacebook, 1); !errors.Is(err, ErrMiss) {
		t.Errorf("short lookback hit a 2-day-old entry: %v", err)
	}
	got, err := s.Get("Acme Corp", models.PlatformFacebook, 3)
	if err != nil {
		t.Fatalf("lookback Get: %v", err)
	}
	if got.ID != old.ID {
		t.Errorf("got %q, want %q", got.ID, old.ID)
	}
}

func TestPrune(t *testing.T) {
	s := testStore(t)

	old := sampleResult()
	old.ID = "run-old"
	old.Timestamp = time.Now().UTC().AddDate(0, 0, -10)
	if err := s.Put(old); err != nil {
		t.Fatalf("Put: %v", err)
	}
	stale := s.path(old.ClientName, old.Platform, old.Timestamp)
	when := time.Now().Add(-10 * 24 * time.Hour)
	if err := os.Chtimes(stale, when, when); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	fresh := sampleResult()
	if err := s.Put(fresh); err != nil {
		t.Fatalf("Put: %v", err)
	}

	removed, err := s.Prune(7 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(stale); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("stale entry still on disk: %v", err)
	}
	if _, err := s.Get(fresh.ClientName, fresh.Platform, 0); err != nil {
		t.Errorf("fresh entry lost to prune: %v", err)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Acme Corp":     "acme_corp",
		"  x/y:z  ":     "xyz",
		"émile & fils!": "mile__fils",
		"":              "client",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Errorf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
