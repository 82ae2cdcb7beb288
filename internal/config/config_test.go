// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Local.Host != "http://localhost:11434" {
		t.Errorf("Host = %q", cfg.Local.Host)
	}
	if cfg.DefaultModel != "gemma3:1b" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.Chat.MaxHistory != 10 {
		t.Errorf("MaxHistory = %d, want 10", cfg.Chat.MaxHistory)
	}
	if !cfg.Chat.Stream {
		t.Error("streaming disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
default_model = "llama3:8b"

[local]
host = "http://remote:11434"
probe_timeout_secs = 5

[chat]
max_history = 4
stream = false
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if cfg.DefaultModel != "llama3:8b" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.Local.Host != "http://remote:11434" {
		t.Errorf("Host = %q", cfg.Local.Host)
	}
	if cfg.Local.ProbeTimeoutSecs != 5 {
		t.Errorf("ProbeTimeoutSecs = %d", cfg.Local.ProbeTimeoutSecs)
	}
	if cfg.Chat.MaxHistory != 4 {
		t.Errorf("MaxHistory = %d", cfg.Chat.MaxHistory)
	}

	// Unset fields fall back to defaults
	if cfg.Local.StreamTimeoutSecs != 300 {
		t.Errorf("StreamTimeoutSecs = %d, want default 300", cfg.Local.StreamTimeoutSecs)
	}
	if cfg.Local.PreferredModel != "llama3:8b" {
		t.Errorf("PreferredModel = %q, want default model", cfg.Local.PreferredModel)
	}
}

func TestSetDefaults_ClampsMaxHistory(t *testing.T) {
	for _, bad := range []int{0, -1, -100} {
		cfg := &Config{Chat: ChatConfig{MaxHistory: bad}}
		cfg.SetDefaults()
		if cfg.Chat.MaxHistory < 1 {
			t.Errorf("MaxHistory = %d after SetDefaults(%d), want >= 1", cfg.Chat.MaxHistory, bad)
		}
	}
}

func TestValidate_RejectsBadHost(t *testing.T) {
	tests := []string{
		"localhost:11434",
		"ftp://somewhere",
		"http://",
	}
	for _, host := range tests {
		cfg := Default()
		cfg.Local.Host = host
		if err := cfg.Validate(); err == nil {
			t.Errorf("Validate() accepted host %q", host)
		}
	}
}

func TestValidate_RejectsNegativeTimeouts(t *testing.T) {
	cfg := Default()
	cfg.Local.ProbeTimeoutSecs = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted negative probe timeout")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://envhost:11434")
	t.Setenv("FITPLAN_MODEL", "envmodel:1b")
	t.Setenv("FITPLAN_NO_STREAM", "1")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Local.Host != "http://envhost:11434" {
		t.Errorf("Host = %q", cfg.Local.Host)
	}
	if cfg.DefaultModel != "envmodel:1b" || cfg.Local.PreferredModel != "envmodel:1b" {
		t.Errorf("model override not applied: %q / %q", cfg.DefaultModel, cfg.Local.PreferredModel)
	}
	if cfg.Chat.Stream {
		t.Error("FITPLAN_NO_STREAM=1 did not disable streaming")
	}
}

func TestApplyEnvOverrides_FitplanHostWinsOverOllamaHost(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://ollama:11434")
	t.Setenv("FITPLAN_HOST", "http://fitplan:11434")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Local.Host != "http://fitplan:11434" {
		t.Errorf("Host = %q, want the app-specific override to win", cfg.Local.Host)
	}
}

func TestSaveTOMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roundtrip.toml")

	cfg := Default()
	cfg.DefaultModel = "saved:model"
	cfg.Chat.MaxHistory = 7

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	loaded := Default()
	if err := LoadTOML(loaded, path); err != nil {
		t.Fatalf("LoadTOML() error = %v", err)
	}

	if loaded.DefaultModel != "saved:model" {
		t.Errorf("DefaultModel = %q", loaded.DefaultModel)
	}
	if loaded.Chat.MaxHistory != 7 {
		t.Errorf("MaxHistory = %d", loaded.Chat.MaxHistory)
	}
}
