package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSetLogger(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.InfoLevel)
	SetLogger(logger)

	// This test mainly ensures the function doesn't panic
}

func TestApplyDefaults(t *testing.T) {
	t.Run("Config struct defaults", func(t *testing.T) {
		config := &Config{}
		applyDefaults(config)

		if config.Site.Name != "Inkpad" {
			t.Errorf("Expected site name 'Inkpad', got %q", config.Site.Name)
		}

		if config.Server.Host != "0.0.0.0" {
			t.Errorf("Expected host '0.0.0.0', got %q", config.Server.Host)
		}
		if config.Server.Port != "12600" {
			t.Errorf("Expected port '12600', got %q", config.Server.Port)
		}

		if config.Storage.Backend != "sqlite" {
			t.Errorf("Expected storage backend 'sqlite', got %q", config.Storage.Backend)
		}
		if config.Storage.PostsKey != "blog_posts_v1" {
			t.Errorf("Expected posts key 'blog_posts_v1', got %q", config.Storage.PostsKey)
		}
		if !config.Storage.Compress {
			t.Error("Expected compression to be enabled by default")
		}

		if config.Editor.AutosaveDelayMs != 1000 {
			t.Errorf("Expected autosave delay 1000, got %d", config.Editor.AutosaveDelayMs)
		}
		if config.Editor.ToolbarOffsetPx != 50 {
			t.Errorf("Expected toolbar offset 50, got %d", config.Editor.ToolbarOffsetPx)
		}
		if config.Editor.TrustHTMLBlocks {
			t.Error("Expected HTML blocks to be sanitized by default")
		}

		if config.Services.PhotosBaseURL != "https://picsum.photos" {
			t.Errorf("Unexpected photos base URL %q", config.Services.PhotosBaseURL)
		}
		if config.Services.PhotosPageSize != 30 {
			t.Errorf("Expected photos page size 30, got %d", config.Services.PhotosPageSize)
		}

		if config.Uploads.Backend != "memory" {
			t.Errorf("Expected uploads backend 'memory', got %q", config.Uploads.Backend)
		}

		if config.Logging.Level != "info" {
			t.Errorf("Expected log level 'info', got %q", config.Logging.Level)
		}
	})

	t.Run("Non-pointer value is ignored", func(t *testing.T) {
		// Should not panic
		applyDefaults(Config{})
		applyDefaults(42)
	})

	t.Run("Slice defaults", func(t *testing.T) {
		type withSlice struct {
			Tags []string `default:"a, b ,c"`
		}
		s := &withSlice{}
		applyDefaults(s)
		if strings.Join(s.Tags, "|") != "a|b|c" {
			t.Errorf("Expected trimmed slice defaults, got %v", s.Tags)
		}
	})
}

func TestDurations(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Editor.AutosaveDelay() != time.Second {
		t.Errorf("Expected 1s autosave delay, got %v", cfg.Editor.AutosaveDelay())
	}
	if cfg.Services.LinkPreviewTimeout() != 5*time.Second {
		t.Errorf("Expected 5s link preview timeout, got %v", cfg.Services.LinkPreviewTimeout())
	}
	if cfg.Services.PhotosTimeout() != 5*time.Second {
		t.Errorf("Expected 5s photos timeout, got %v", cfg.Services.PhotosTimeout())
	}
	if cfg.Services.LinkPreviewCacheTTL() != 30*time.Minute {
		t.Errorf("Expected 30m cache TTL, got %v", cfg.Services.LinkPreviewCacheTTL())
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tempFile, err := os.CreateTemp("", "test-config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(tempFile.Name()) })

	if _, err := tempFile.WriteString(content); err != nil {
		t.Fatalf("Failed to write config content: %v", err)
	}
	tempFile.Close()
	return tempFile.Name()
}

func TestLoadConfig(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.ErrorLevel)
	SetLogger(logger)

	t.Run("Load non-existent config file", func(t *testing.T) {
		originalAppConfig := AppConfig
		defer func() { AppConfig = originalAppConfig }()

		err := LoadConfig("non-existent-config.yaml")
		if err != nil {
			t.Errorf("Expected no error for non-existent config file, got %v", err)
		}

		if AppConfig == nil {
			t.Fatal("Expected AppConfig to be set with defaults")
		}
		if AppConfig.Site.Name != "Inkpad" {
			t.Errorf("Expected default site name, got %q", AppConfig.Site.Name)
		}
	})

	t.Run("Load valid config file", func(t *testing.T) {
		originalAppConfig := AppConfig
		defer func() { AppConfig = originalAppConfig }()

		path := writeTempConfig(t, `
server:
  port: "8080"
storage:
  backend: memory
editor:
  autosave_delay_ms: 250
  trust_html_blocks: true
`)

		if err := LoadConfig(path); err != nil {
			t.Fatalf("Expected no error loading valid config, got %v", err)
		}

		if AppConfig.Server.Port != "8080" {
			t.Errorf("Expected port 8080, got %q", AppConfig.Server.Port)
		}
		if AppConfig.Storage.Backend != "memory" {
			t.Errorf("Expected memory backend, got %q", AppConfig.Storage.Backend)
		}
		if AppConfig.Editor.AutosaveDelayMs != 250 {
			t.Errorf("Expected autosave delay 250, got %d", AppConfig.Editor.AutosaveDelayMs)
		}
		if !AppConfig.Editor.TrustHTMLBlocks {
			t.Error("Expected trust_html_blocks to be true")
		}
		// Unset values keep their defaults
		if AppConfig.Server.Host != "0.0.0.0" {
			t.Errorf("Expected default host, got %q", AppConfig.Server.Host)
		}
	})

	t.Run("Invalid configs", func(t *testing.T) {
		testCases := []struct {
			name      string
			content   string
			errorText string
		}{
			{"Malformed YAML", "server: [", "failed to parse config file"},
			{"Unknown storage backend", "storage:\n  backend: redis\n", "unsupported storage backend"},
			{"S3 without bucket", "uploads:\n  backend: s3\n", "uploads.bucket is required"},
			{"Unknown uploads backend", "uploads:\n  backend: ftp\n", "unsupported uploads backend"},
			{"Zero autosave delay", "editor:\n  autosave_delay_ms: 0\n", "must be positive"},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				originalAppConfig := AppConfig
				defer func() { AppConfig = originalAppConfig }()

				err := LoadConfig(writeTempConfig(t, tc.content))
				if err == nil {
					t.Fatal("Expected error but got none")
				}
				if !strings.Contains(err.Error(), tc.errorText) {
					t.Errorf("Expected error to contain %q, got %q", tc.errorText, err.Error())
				}
			})
		}
	})
}
