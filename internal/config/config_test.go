package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"docx-translator/internal/types"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv(EnvOpenAIBaseURL, "")

	if err := m.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	cfg := m.Get()
	if cfg.OpenAIBaseURL != DefaultBaseURL {
		t.Errorf("OpenAIBaseURL = %q, want %q", cfg.OpenAIBaseURL, DefaultBaseURL)
	}
	if cfg.OpenAIModel != DefaultModel {
		t.Errorf("OpenAIModel = %q, want %q", cfg.OpenAIModel, DefaultModel)
	}
	if cfg.MaxChunkChars != DefaultMaxChunkChars {
		t.Errorf("MaxChunkChars = %d, want %d", cfg.MaxChunkChars, DefaultMaxChunkChars)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", cfg.Concurrency, DefaultConcurrency)
	}
	if cfg.OutputSuffix != DefaultOutputSuffix {
		t.Errorf("OutputSuffix = %q, want %q", cfg.OutputSuffix, DefaultOutputSuffix)
	}
	if cfg.FallbackFont != DefaultFallbackFont {
		t.Errorf("FallbackFont = %q, want %q", cfg.FallbackFont, DefaultFallbackFont)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	want := &types.Config{
		OpenAIAPIKey:   "sk-test",
		OpenAIBaseURL:  "https://example.com/v1",
		OpenAIModel:    "gpt-4o-mini",
		TargetLanguage: "French",
		MaxChunkChars:  2500,
		Concurrency:    4,
		OutputSuffix:   "_fr",
		FallbackFont:   "Arial",
	}
	data, _ := json.Marshal(want)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	t.Setenv(EnvOpenAIBaseURL, "")
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	cfg := m.Get()
	if cfg.OpenAIAPIKey != want.OpenAIAPIKey ||
		cfg.OpenAIBaseURL != want.OpenAIBaseURL ||
		cfg.OpenAIModel != want.OpenAIModel ||
		cfg.TargetLanguage != want.TargetLanguage ||
		cfg.MaxChunkChars != want.MaxChunkChars ||
		cfg.Concurrency != want.Concurrency ||
		cfg.OutputSuffix != want.OutputSuffix ||
		cfg.FallbackFont != want.FallbackFont {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestLoad_InvalidJSONUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv(EnvOpenAIBaseURL, "")
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if m.Get().OpenAIModel != DefaultModel {
		t.Errorf("OpenAIModel = %q, want default %q", m.Get().OpenAIModel, DefaultModel)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	t.Setenv(EnvOpenAIAPIKey, "sk-from-env")
	t.Setenv(EnvOpenAIBaseURL, "https://proxy.example.com/v1")

	if err := m.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	cfg := m.Get()
	if cfg.OpenAIAPIKey != "sk-from-env" {
		t.Errorf("OpenAIAPIKey = %q, want env override", cfg.OpenAIAPIKey)
	}
	if cfg.OpenAIBaseURL != "https://proxy.example.com/v1" {
		t.Errorf("OpenAIBaseURL = %q, want env override", cfg.OpenAIBaseURL)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv(EnvOpenAIBaseURL, "")

	m.Get().OpenAIAPIKey = "sk-saved"
	m.Get().Concurrency = 7
	if err := m.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	m2, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	if err := m2.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if m2.Get().OpenAIAPIKey != "sk-saved" {
		t.Errorf("OpenAIAPIKey = %q after reload, want %q", m2.Get().OpenAIAPIKey, "sk-saved")
	}
	if m2.Get().Concurrency != 7 {
		t.Errorf("Concurrency = %d after reload, want 7", m2.Get().Concurrency)
	}
}
