package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func envLookup(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestValidCredential(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"", false},
		{"   ", false},
		{"short", false},
		{"your_openai_api_key_here", false},
		{"YOUR_OPENAI_API_KEY_HERE", false},
		{"your_own_key_123456", false},
		{"sk-abc def-123456", false},
		{"sk-proj-abcdefghijklmnop", true},
		{"  hf_abcdefghijklmnop  ", true},
	}

	for _, tt := range tests {
		if got := ValidCredential(tt.value); got != tt.expected {
			t.Errorf("ValidCredential(%q) = %v; want %v", tt.value, got, tt.expected)
		}
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	s := Defaults()
	s.ApplyEnv(envLookup(map[string]string{
		"OPENAI_API_KEY":           "sk-proj-abcdefghijklmnop",
		"HUGGINGFACEHUB_API_TOKEN": "hf_abcdefghijklmnop",
		"PAID_PROVIDER":            "gemini",
		"QDRANT_PORT":              "7000",
		"QDRANT_HOST":              "qdrant",
		"REDIS_ENABLED":            "false",
		"SESSION_IDLE_TIMEOUT":     "15m",
		"LOG_LEVEL":                "   ",
	}))

	if s.OpenAI.APIKey != "sk-proj-abcdefghijklmnop" {
		t.Errorf("OpenAI key not applied: %q", s.OpenAI.APIKey)
	}
	if s.PaidProvider != PaidProviderGemini {
		t.Errorf("PaidProvider got %s, want %s", s.PaidProvider, PaidProviderGemini)
	}
	if s.Qdrant.Port != 7000 || s.Qdrant.Host != "qdrant" {
		t.Errorf("Qdrant settings not applied: %+v", s.Qdrant)
	}
	if s.Redis.Enabled {
		t.Error("Expected redis to be disabled")
	}
	if s.SessionIdleTimeout != 15*time.Minute {
		t.Errorf("SessionIdleTimeout got %v", s.SessionIdleTimeout)
	}
	if s.LogLevel != "debug" {
		t.Errorf("blank env value should not override, got %q", s.LogLevel)
	}
	if !s.HasHubToken() {
		t.Error("Expected hub token to be valid")
	}
	// gemini is the paid provider and no google key is set
	if s.HasPaidCredential() {
		t.Error("Expected no paid credential for gemini")
	}
}

func TestMergeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
listen_addr: ":8080"
vector_backend: memory
session_idle_timeout: 45m
huggingface:
  chat_model: google/flan-t5-base
redis:
  enabled: false
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	s := Defaults()
	if err := s.MergeFile(path); err != nil {
		t.Fatalf("MergeFile failed: %v", err)
	}
	if s.ListenAddr != ":8080" {
		t.Errorf("ListenAddr got %s", s.ListenAddr)
	}
	if s.HuggingFace.ChatModel != "google/flan-t5-base" {
		t.Errorf("ChatModel got %s", s.HuggingFace.ChatModel)
	}
	if s.HuggingFace.EmbeddingModel != HuggingFaceEmbeddingModel {
		t.Errorf("unset fields must keep defaults, got %s", s.HuggingFace.EmbeddingModel)
	}
	if s.SessionIdleTimeout != 45*time.Minute {
		t.Errorf("SessionIdleTimeout got %v", s.SessionIdleTimeout)
	}
	if s.Redis.Enabled {
		t.Error("Expected redis disabled from file")
	}

	if err := Defaults().MergeFile(filepath.Join(dir, "missing.yaml")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	s := Defaults()
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	s.VectorBackend = VectorBackendQdrant
	if err := s.Validate(); err == nil {
		t.Error("Expected error for qdrant without host")
	}

	s = Defaults()
	s.PaidProvider = "anthropic"
	if err := s.Validate(); err == nil {
		t.Error("Expected error for unknown paid provider")
	}
}
