package config

import (
	"testing"
	"time"
)

// TestLoad_Defaults verifies sane defaults with a clean environment.
func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "PORT", "GRIDFIT_WORKERS", "GRIDFIT_SEED",
		"GRIDFIT_FOLDS", "GRIDFIT_REPEATS", "GRIDFIT_TRAIN_RATIO",
		"GRIDFIT_METRIC", "GRIDFIT_DATA_FILE", "GRIDFIT_REMOTE_URL",
		"GRIDFIT_REMOTE_TIMEOUT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Enabled {
		t.Error("Database should be disabled without DATABASE_URL")
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Engine.Folds != 10 || cfg.Engine.Repeats != 5 {
		t.Errorf("Expected default 10x5 resampling, got %dx%d", cfg.Engine.Folds, cfg.Engine.Repeats)
	}
	if cfg.Engine.Seed != 42 {
		t.Errorf("Expected default seed 42, got %d", cfg.Engine.Seed)
	}
	if cfg.Engine.TrainRatio != 0.75 {
		t.Errorf("Expected default train ratio 0.75, got %f", cfg.Engine.TrainRatio)
	}
	if cfg.Engine.Metric != "auc" {
		t.Errorf("Expected default metric auc, got %s", cfg.Engine.Metric)
	}
	if cfg.Data.RemoteTimeout != 30*time.Second {
		t.Errorf("Expected default remote timeout 30s, got %v", cfg.Data.RemoteTimeout)
	}
}

// TestLoad_Overrides verifies environment variables override defaults.
func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gridfit")
	t.Setenv("GRIDFIT_FOLDS", "5")
	t.Setenv("GRIDFIT_REPEATS", "3")
	t.Setenv("GRIDFIT_SEED", "7")
	t.Setenv("GRIDFIT_METRIC", "kappa")
	t.Setenv("GRIDFIT_REMOTE_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.Database.Enabled {
		t.Error("Database should be enabled with DATABASE_URL set")
	}
	if cfg.Engine.Folds != 5 || cfg.Engine.Repeats != 3 || cfg.Engine.Seed != 7 {
		t.Errorf("Overrides not applied: %+v", cfg.Engine)
	}
	if cfg.Engine.Metric != "kappa" {
		t.Errorf("Expected metric kappa, got %s", cfg.Engine.Metric)
	}
	if cfg.Data.RemoteTimeout != 5*time.Second {
		t.Errorf("Expected remote timeout 5s, got %v", cfg.Data.RemoteTimeout)
	}
}

// TestLoad_Validation verifies out-of-range settings fail fast.
func TestLoad_Validation(t *testing.T) {
	t.Setenv("GRIDFIT_FOLDS", "1")
	if _, err := Load(); err == nil {
		t.Error("Expected error for GRIDFIT_FOLDS=1")
	}

	t.Setenv("GRIDFIT_FOLDS", "10")
	t.Setenv("GRIDFIT_TRAIN_RATIO", "1.5")
	if _, err := Load(); err == nil {
		t.Error("Expected error for train ratio above 1")
	}
}
