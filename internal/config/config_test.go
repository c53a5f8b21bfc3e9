package config

import "testing"

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("HTTP.Port = %d, want 8080", cfg.HTTP.Port)
	}
	if cfg.Corpus.ChunkSize != 800 {
		t.Errorf("Corpus.ChunkSize = %d, want 800", cfg.Corpus.ChunkSize)
	}
	if cfg.Corpus.ChunkOverlap != 150 {
		t.Errorf("Corpus.ChunkOverlap = %d, want 150", cfg.Corpus.ChunkOverlap)
	}
	if cfg.Index.TopK != 4 {
		t.Errorf("Index.TopK = %d, want 4", cfg.Index.TopK)
	}
	if cfg.Index.MinScore != 0.3 {
		t.Errorf("Index.MinScore = %v, want 0.3", cfg.Index.MinScore)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestValidate_OverlapNotSmallerThanSize(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	cfg.Corpus.ChunkSize = 100
	cfg.Corpus.ChunkOverlap = 100

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for overlap >= size")
	}
}

func TestValidate_MinScoreRange(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	cfg.Index.MinScore = 1.5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for min_score out of range")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CALIA_TEST_KEY", "secret")

	out := string(expandEnvVars([]byte("api_key: ${CALIA_TEST_KEY}")))
	if out != "api_key: secret" {
		t.Errorf("expanded = %q", out)
	}

	out = string(expandEnvVars([]byte("model: ${CALIA_UNSET_VAR:-fallback-model}")))
	if out != "model: fallback-model" {
		t.Errorf("expanded with default = %q", out)
	}
}
