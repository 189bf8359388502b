package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.PublicationID = "24212003"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing publication id",
			mutate:  func(cfg *Config) { cfg.PublicationID = "" },
			wantErr: "publication id",
		},
		{
			name:    "empty base url",
			mutate:  func(cfg *Config) { cfg.BaseURL = "" },
			wantErr: "base URL",
		},
		{
			name:    "base url without host",
			mutate:  func(cfg *Config) { cfg.BaseURL = "http://" },
			wantErr: "host",
		},
		{
			name:    "negative sleep",
			mutate:  func(cfg *Config) { cfg.SleepTime = -time.Second },
			wantErr: "sleep",
		},
		{
			name:    "zero timeout",
			mutate:  func(cfg *Config) { cfg.Timeout = 0 },
			wantErr: "timeout",
		},
		{
			name:    "negative retries",
			mutate:  func(cfg *Config) { cfg.MaxRetries = -1 },
			wantErr: "retries",
		},
		{
			name:    "zero chunk size",
			mutate:  func(cfg *Config) { cfg.ChunkSize = 0 },
			wantErr: "chunk size",
		},
		{
			name:    "bad output format",
			mutate:  func(cfg *Config) { cfg.OutputFormat = "xml" },
			wantErr: "output format",
		},
		{
			name:    "empty user agent",
			mutate:  func(cfg *Config) { cfg.UserAgent = "" },
			wantErr: "user agent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}

	if err := validConfig().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.yaml")
	content := strings.Join([]string{
		"target_dir: out",
		"sleep_seconds: 5",
		"download_attachments: false",
		"output_format: dual",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := validConfig()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.TargetDir != "out" {
		t.Errorf("TargetDir = %q, want %q", cfg.TargetDir, "out")
	}
	if cfg.SleepTime != 5*time.Second {
		t.Errorf("SleepTime = %v, want 5s", cfg.SleepTime)
	}
	if cfg.DownloadAttachments {
		t.Errorf("DownloadAttachments = true, want false")
	}
	if cfg.OutputFormat != "dual" {
		t.Errorf("OutputFormat = %q, want dual", cfg.OutputFormat)
	}
	// Fields the file does not name keep their defaults.
	if cfg.MaxRetries != DefaultConfig().MaxRetries {
		t.Errorf("MaxRetries = %d, want default %d", cfg.MaxRetries, DefaultConfig().MaxRetries)
	}
}

func TestLoadFileErrors(t *testing.T) {
	cfg := validConfig()
	if err := cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("LoadFile on missing file should error")
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("target_dir: [unclosed"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := cfg.LoadFile(path); err == nil {
		t.Errorf("LoadFile on malformed YAML should error")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("SCRAPER_TEST_INT", "7")
	if value, ok, err := EnvInt("SCRAPER_TEST_INT"); err != nil || !ok || value != 7 {
		t.Errorf("EnvInt = (%d, %v, %v), want (7, true, nil)", value, ok, err)
	}

	t.Setenv("SCRAPER_TEST_INT", "seven")
	if _, _, err := EnvInt("SCRAPER_TEST_INT"); err == nil {
		t.Errorf("EnvInt on non-integer should error")
	}

	if _, ok, err := EnvInt("SCRAPER_TEST_UNSET"); ok || err != nil {
		t.Errorf("EnvInt on unset var = (ok=%v, err=%v), want (false, nil)", ok, err)
	}

	t.Setenv("SCRAPER_TEST_BOOL", "true")
	if value, ok, err := EnvBool("SCRAPER_TEST_BOOL"); err != nil || !ok || !value {
		t.Errorf("EnvBool = (%v, %v, %v), want (true, true, nil)", value, ok, err)
	}

	t.Setenv("SCRAPER_TEST_STR", "hello")
	if value, ok := EnvString("SCRAPER_TEST_STR"); !ok || value != "hello" {
		t.Errorf("EnvString = (%q, %v), want (hello, true)", value, ok)
	}
}
