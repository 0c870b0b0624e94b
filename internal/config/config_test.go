package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	content := `
storage:
  data_dir: /var/lib/chatbot
rag:
  chunk_size: 500
  chunk_overlap: 100
  top_k: 5
  generate_within: 30s
embed_llm:
  provider: ollama
  base_url: http://localhost:11434
  model: nomic-embed-text
infer_llm:
  provider: openai
  base_url: https://openrouter.ai/api/v1
  key: Bearer test
  model: gpt-4o-mini
database:
  enabled: true
  dsn: postgres://localhost/chatbot
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Storage.DataDir != "/var/lib/chatbot" {
		t.Errorf("DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.RAG.ChunkSize != 500 || cfg.RAG.ChunkOverlap != 100 || cfg.RAG.TopK != 5 {
		t.Errorf("RAG config = %+v", cfg.RAG)
	}
	if cfg.RAG.GenerateWithin.Std() != 30*time.Second {
		t.Errorf("GenerateWithin = %v", cfg.RAG.GenerateWithin.Std())
	}
	if cfg.EmbedLLM.Provider != "ollama" || cfg.InferLLM.Model != "gpt-4o-mini" {
		t.Errorf("LLM config = %+v / %+v", cfg.EmbedLLM, cfg.InferLLM)
	}
	if !cfg.Database.Enabled {
		t.Error("Database.Enabled = false")
	}
}

func TestDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RAG.ChunkSize != 700 || cfg.RAG.ChunkOverlap != 200 {
		t.Errorf("chunking defaults = %d/%d, want 700/200", cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	}
	if cfg.RAG.TopK != 3 {
		t.Errorf("TopK default = %d, want 3", cfg.RAG.TopK)
	}
	if cfg.RAG.GenerateWithin.Std() != 60*time.Second {
		t.Errorf("GenerateWithin default = %v", cfg.RAG.GenerateWithin.Std())
	}
	if cfg.Storage.DataDir != "./data" {
		t.Errorf("DataDir default = %q", cfg.Storage.DataDir)
	}
}

func TestOverlapLargerThanChunkSizeResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("rag:\n  chunk_size: 300\n  chunk_overlap: 400\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
		t.Fatalf("overlap %d not reset below chunk size %d", cfg.RAG.ChunkOverlap, cfg.RAG.ChunkSize)
	}
}
