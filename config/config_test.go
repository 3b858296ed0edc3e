package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	cfgDir := filepath.Join(dir, ".codewright")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// isolate points HOME and the working directory at empty temp dirs so Load
// sees only what the test writes.
func isolate(t *testing.T) (home, project string) {
	t.Helper()
	home = t.TempDir()
	project = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PORT", "")
	t.Setenv("CODEWRIGHT_PROVIDER", "")
	t.Setenv("CODEWRIGHT_MODEL", "")
	t.Chdir(project)
	return home, project
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "openai" || cfg.Model != "gpt-4o" || cfg.Port != "8080" {
		t.Errorf("defaults = %s/%s/%s", cfg.Provider, cfg.Model, cfg.Port)
	}
	if cfg.ShellTimeout() != 15*time.Second {
		t.Errorf("shell timeout = %v, want 15s", cfg.ShellTimeout())
	}
}

func TestLoadHidesOwnConfigDir(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	joined := strings.Join(cfg.FilesystemAccess.Hidden, " ")
	if !strings.Contains(joined, ".codewright") {
		t.Errorf("hidden globs %v do not cover the config dir", cfg.FilesystemAccess.Hidden)
	}
}

func TestProjectConfigOverridesUserConfig(t *testing.T) {
	home, project := isolate(t)
	writeConfig(t, home, "provider: anthropic\nmodel: claude-sonnet-4-20250514\nport: \"9000\"\n")
	writeConfig(t, project, "model: claude-opus-4-20250514\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("provider = %q, want user-level anthropic", cfg.Provider)
	}
	if cfg.Model != "claude-opus-4-20250514" {
		t.Errorf("model = %q, want project override", cfg.Model)
	}
	if cfg.Port != "9000" {
		t.Errorf("port = %q, want user-level 9000", cfg.Port)
	}
}

func TestEnvironmentOverridesFiles(t *testing.T) {
	_, project := isolate(t)
	writeConfig(t, project, "provider: gemini\nport: \"9000\"\n")
	t.Setenv("PORT", "9999")
	t.Setenv("CODEWRIGHT_PROVIDER", "mock")
	t.Setenv("CODEWRIGHT_MODEL", "test-model")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9999" || cfg.Provider != "mock" || cfg.Model != "test-model" {
		t.Errorf("env overrides not applied: %s/%s/%s", cfg.Provider, cfg.Model, cfg.Port)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	isolate(t)
	t.Setenv("CODEWRIGHT_PROVIDER", "watson")

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted unknown provider")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Provider: "openai", Model: "gpt-4o", Port: "8080", ShellTimeoutSeconds: 15}, false},
		{"empty port", Config{Provider: "openai", Model: "gpt-4o", ShellTimeoutSeconds: 15}, true},
		{"empty model", Config{Provider: "openai", Port: "8080", ShellTimeoutSeconds: 15}, true},
		{"zero timeout", Config{Provider: "openai", Model: "gpt-4o", Port: "8080"}, true},
		{"mock provider", Config{Provider: "mock", Model: "m", Port: "1", ShellTimeoutSeconds: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
