package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Ingest.PageSize != defaultIngestPageSize {
		t.Fatalf("expected default page size, got %d", cfg.Ingest.PageSize)
	}
	if cfg.Matching.FuzzyThreshold != defaultFuzzyThreshold {
		t.Fatalf("expected default fuzzy threshold, got %f", cfg.Matching.FuzzyThreshold)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		"[matching]",
		"fuzzy_threshold = 0.9",
		"tv_year_skew = 3",
		"[relationships]",
		"cache_ttl_seconds = 120",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s to be found, got %s exists=%v", path, resolved, exists)
	}
	if cfg.Matching.FuzzyThreshold != 0.9 {
		t.Fatalf("expected fuzzy threshold 0.9, got %f", cfg.Matching.FuzzyThreshold)
	}
	if cfg.Matching.TVYearSkew != 3 {
		t.Fatalf("expected tv year skew 3, got %d", cfg.Matching.TVYearSkew)
	}
	if cfg.Relationships.CacheTTLSeconds != 120 {
		t.Fatalf("expected ttl 120, got %d", cfg.Relationships.CacheTTLSeconds)
	}
	// untouched sections keep defaults
	if cfg.TMDB.BaseURL != defaultTMDBBaseURL {
		t.Fatalf("expected default tmdb base url, got %s", cfg.TMDB.BaseURL)
	}
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := Default()
	cfg.Matching.FuzzyThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for fuzzy_threshold > 1")
	}
}

func TestValidateRejectsNegativeTolerance(t *testing.T) {
	cfg := Default()
	cfg.Matching.RuntimeTolerance = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative runtime tolerance")
	}
}

func TestCreateSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	if err := CreateSample(path); err == nil {
		t.Fatal("expected error when file exists")
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := expandPath("~/x")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	if got != filepath.Join(home, "x") {
		t.Fatalf("expected %s, got %s", filepath.Join(home, "x"), got)
	}
}
