package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
auth:
  enabled: true
  api_key: secret
anthropic:
  api_key: sk-ant-test
  model: claude-sonnet-4-20250514
  max_tokens: 3000
  timeout_seconds: 45
search:
  api_key: serper-test
  timeout_seconds: 10
reader:
  endpoint: https://reader.internal
fetcher:
  mode: headless
  user_agent: audit-agent
  respect_robots: false
  timeout_seconds: 30
  content_cap: 12000
  max_parallel: 2
  nav_timeout_seconds: 40
db:
  dsn: postgres://audit@localhost/audit
  max_conns: 8
archive:
  mode: local
  local_dir: /tmp/snapshots
pubsub:
  enabled: true
  project_id: partsignal-dev
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if !cfg.Auth.Enabled || cfg.Auth.APIKey != "secret" {
		t.Fatalf("expected auth enabled with secret key")
	}
	if cfg.Anthropic.MaxTokens != 3000 {
		t.Fatalf("expected anthropic overrides to apply, got %+v", cfg.Anthropic)
	}
	if cfg.Fetcher.Mode != "headless" || cfg.Fetcher.ContentCap != 12000 {
		t.Fatalf("expected fetcher overrides to apply, got %+v", cfg.Fetcher)
	}
	if cfg.Reader.Endpoint != "https://reader.internal" {
		t.Fatalf("expected reader endpoint override, got %q", cfg.Reader.Endpoint)
	}
	if cfg.Archive.Mode != "local" || cfg.Archive.LocalDir != "/tmp/snapshots" {
		t.Fatalf("expected archive overrides to apply, got %+v", cfg.Archive)
	}
	if cfg.DB.MaxConns != 8 || cfg.DB.MinConns != 1 {
		t.Fatalf("expected db overrides with defaults preserved, got %+v", cfg.DB)
	}
	if got := cfg.AnthropicTimeout(); got != 45*time.Second {
		t.Fatalf("expected anthropic timeout 45s, got %v", got)
	}
	if got := cfg.FetchTimeout(); got != 30*time.Second {
		t.Fatalf("expected fetch timeout 30s, got %v", got)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:    ServerConfig{Port: 8080},
		Anthropic: AnthropicConfig{APIKey: "sk-ant-test"},
		Search:    SearchConfig{APIKey: "serper-test"},
		Fetcher:   FetcherConfig{Mode: "reader", TimeoutSeconds: 20},
		Archive:   ArchiveConfig{Mode: "none"},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid port",
			cfg: func() Config {
				c := base
				c.Server.Port = 0
				return c
			}(),
			want: "server.port",
		},
		{
			name: "missing generation credential",
			cfg: func() Config {
				c := base
				c.Anthropic.APIKey = ""
				return c
			}(),
			want: "anthropic.api_key",
		},
		{
			name: "missing search credential",
			cfg: func() Config {
				c := base
				c.Search.APIKey = ""
				return c
			}(),
			want: "search.api_key",
		},
		{
			name: "unknown fetcher mode",
			cfg: func() Config {
				c := base
				c.Fetcher.Mode = "curl"
				return c
			}(),
			want: "fetcher.mode",
		},
		{
			name: "headless missing max parallel",
			cfg: func() Config {
				c := base
				c.Fetcher.Mode = "headless"
				c.Fetcher.MaxParallel = 0
				return c
			}(),
			want: "fetcher.max_parallel",
		},
		{
			name: "local archive missing dir",
			cfg: func() Config {
				c := base
				c.Archive.Mode = "local"
				return c
			}(),
			want: "archive.local_dir",
		},
		{
			name: "gcs archive missing bucket",
			cfg: func() Config {
				c := base
				c.Archive.Mode = "gcs"
				return c
			}(),
			want: "archive.gcs_bucket",
		},
		{
			name: "pubsub missing project",
			cfg: func() Config {
				c := base
				c.PubSub.Enabled = true
				return c
			}(),
			want: "pubsub.project_id",
		},
		{
			name: "auth missing api key",
			cfg: func() Config {
				c := base
				c.Auth.Enabled = true
				return c
			}(),
			want: "auth.api_key",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
