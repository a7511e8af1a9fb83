package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRetrievalDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DEFAULT_TOP_K", "")
	t.Setenv("VECTOR_SIZE", "")
	t.Setenv("EMBED_BATCH_SIZE", "")

	cfg := Load()
	if cfg.DefaultTopK != 20 {
		t.Fatalf("expected default top k 20, got %d", cfg.DefaultTopK)
	}
	if cfg.VectorSize != 768 {
		t.Fatalf("expected default vector size 768, got %d", cfg.VectorSize)
	}
	if cfg.EmbedBatchSize != 64 {
		t.Fatalf("expected default embed batch size 64, got %d", cfg.EmbedBatchSize)
	}
	if cfg.QdrantCollection != "line_items" {
		t.Fatalf("expected default collection line_items, got %q", cfg.QdrantCollection)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DEFAULT_TOP_K", "35")
	t.Setenv("GEMINI_RPS", "0.5")
	t.Setenv("QDRANT_COLLECTION", "line_items_staging")

	cfg := Load()
	if cfg.DefaultTopK != 35 {
		t.Fatalf("expected top k 35, got %d", cfg.DefaultTopK)
	}
	if cfg.GeminiRPS != 0.5 {
		t.Fatalf("expected rps 0.5, got %v", cfg.GeminiRPS)
	}
	if cfg.QdrantCollection != "line_items_staging" {
		t.Fatalf("expected collection override, got %q", cfg.QdrantCollection)
	}
}

func TestLoadFileOverlayEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "default_top_k: 7\nqdrant_url: http://qdrant.internal:6333\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DEFAULT_TOP_K", "9")
	t.Setenv("QDRANT_URL", "")

	cfg := LoadWithFile(path)
	if cfg.QdrantURL != "http://qdrant.internal:6333" {
		t.Fatalf("file overlay not applied, qdrant url = %q", cfg.QdrantURL)
	}
	if cfg.DefaultTopK != 9 {
		t.Fatalf("environment must win over file, top k = %d", cfg.DefaultTopK)
	}
}

func TestLoadIgnoresBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DEFAULT_TOP_K", "")

	cfg := LoadWithFile(path)
	if cfg.DefaultTopK != 20 {
		t.Fatalf("broken file must fall back to defaults, got %d", cfg.DefaultTopK)
	}
}
