package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDaemonConfigDefaults(t *testing.T) {
	cfg, err := loadDaemonConfig("")
	if err != nil {
		t.Fatalf("loadDaemonConfig: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Server.CacheSize != 256 {
		t.Errorf("cache size = %d, want 256", cfg.Server.CacheSize)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("shutdown timeout = %v, want 10s", cfg.Server.ShutdownTimeout)
	}
	if !cfg.Training.OnStart {
		t.Error("expected training on start by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadDaemonConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ossgraded.yaml")
	yaml := `
server:
  addr: ":9090"
  cache_size: 16
training:
  labels: /etc/ossgrade/labels.yaml
logging:
  level: debug
  format: text
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OSSGRADED_DATABASE_URL", "postgres://localhost/ossgrade")
	t.Setenv("OSSGRADED_SERVER_ADDR", ":7070")

	cfg, err := loadDaemonConfig(path)
	if err != nil {
		t.Fatalf("loadDaemonConfig: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("env should override the file: addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.CacheSize != 16 {
		t.Errorf("cache size = %d, want 16", cfg.Server.CacheSize)
	}
	if cfg.Database.URL != "postgres://localhost/ossgrade" {
		t.Errorf("database url = %q", cfg.Database.URL)
	}
	if cfg.Training.Labels != "/etc/ossgrade/labels.yaml" {
		t.Errorf("labels = %q", cfg.Training.Labels)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadDaemonConfigMissingFile(t *testing.T) {
	if _, err := loadDaemonConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestDaemonConfigValidate(t *testing.T) {
	valid := func() *daemonConfig {
		cfg, err := loadDaemonConfig("")
		if err != nil {
			t.Fatalf("loadDaemonConfig: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *daemonConfig)
		wantErr string
	}{
		{"empty addr", func(c *daemonConfig) { c.Server.Addr = "" }, "server.addr"},
		{"zero cache", func(c *daemonConfig) { c.Server.CacheSize = 0 }, "server.cache_size"},
		{"zero shutdown", func(c *daemonConfig) { c.Server.ShutdownTimeout = 0 }, "server.shutdown_timeout"},
		{"no label source", func(c *daemonConfig) { c.Training.Labels = "" }, "training.labels"},
		{"bad level", func(c *daemonConfig) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *daemonConfig) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}

	cfg := valid()
	cfg.Training.Labels = ""
	cfg.Database.URL = "postgres://localhost/ossgrade"
	if err := cfg.Validate(); err != nil {
		t.Errorf("database without labels file should validate: %v", err)
	}
}

func TestNewServiceServesHealthAndUntrained(t *testing.T) {
	dir := t.TempDir()
	gradingPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(gradingPath, []byte("storage:\n  backend: local\n  dir: "+filepath.Join(dir, "data")+"\n"), 0o644); err != nil {
		t.Fatalf("write grading config: %v", err)
	}

	cfg, err := loadDaemonConfig("")
	if err != nil {
		t.Fatalf("loadDaemonConfig: %v", err)
	}
	cfg.Grading.Config = gradingPath
	cfg.Training.Labels = filepath.Join(dir, "labels.yaml")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := newService(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("newService: %v", err)
	}
	defer svc.Close()

	// no labels file and no records: warming fails but the service stays up
	if _, _, err := svc.trainer.Warm(context.Background()); err == nil {
		t.Error("expected warm start without labels to fail")
	}

	srv := httptest.NewServer(svc.handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/v1/thresholds")
	if err != nil {
		t.Fatalf("GET /api/v1/thresholds: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("thresholds status = %d, want 503", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/v1/labels")
	if err != nil {
		t.Fatalf("GET /api/v1/labels: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("labels without a database: status = %d, want 501", resp.StatusCode)
	}
}
