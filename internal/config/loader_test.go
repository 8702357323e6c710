package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := writeConfig(t, `
mist:
  base_url: https://api.mist.com
  org_id: org-1
  api_token: token-1
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Mist.BaseURL != "https://api.mist.com" {
		t.Fatalf("base url = %q", cfg.Mist.BaseURL)
	}
	if cfg.Mist.Timeout != 60*time.Second {
		t.Fatalf("timeout = %v", cfg.Mist.Timeout)
	}
	if cfg.Results.Directory != "results" {
		t.Fatalf("results dir = %q", cfg.Results.Directory)
	}
	if cfg.Workers != 4 {
		t.Fatalf("workers = %d", cfg.Workers)
	}
	if cfg.Database != nil {
		t.Fatalf("database should be nil when unconfigured")
	}
}

func TestLoadTrimsTrailingSlashFromBaseURL(t *testing.T) {
	dir := writeConfig(t, `
mist:
  base_url: https://api.mist.com/
  org_id: org-1
  api_token: token-1
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mist.BaseURL != "https://api.mist.com" {
		t.Fatalf("base url = %q", cfg.Mist.BaseURL)
	}
}

func TestLoadMissingCredentials(t *testing.T) {
	dir := writeConfig(t, `
mist:
  base_url: https://api.mist.com
`)

	_, err := Load(dir)
	if err == nil {
		t.Fatalf("expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), "mist.api_token") || !strings.Contains(err.Error(), "mist.org_id") {
		t.Fatalf("error should name the missing keys: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := writeConfig(t, `
mist:
  base_url: https://api.mist.com
  org_id: org-1
  api_token: from-file
`)
	t.Setenv("MIST_API_TOKEN", "from-env")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mist.APIToken != "from-env" {
		t.Fatalf("api token = %q, want env override", cfg.Mist.APIToken)
	}
}

func TestLoadDatabaseSection(t *testing.T) {
	dir := writeConfig(t, `
mist:
  base_url: https://api.mist.com
  org_id: org-1
  api_token: token-1
database:
  host: db.internal
  port: 5433
  user: importer
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Database == nil {
		t.Fatalf("database section should be populated")
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 5433 {
		t.Fatalf("database = %+v", cfg.Database)
	}
	if cfg.Database.User != "importer" {
		t.Fatalf("database user = %q", cfg.Database.User)
	}
	// Unset keys fall back to the defaults.
	if cfg.Database.DBName != "ap_site_import" || cfg.Database.SSLMode != "disable" {
		t.Fatalf("database defaults = %+v", cfg.Database)
	}
}

func TestLoadWithoutConfigFile(t *testing.T) {
	t.Setenv("MIST_BASE_URL", "https://api.mist.com")
	t.Setenv("MIST_ORG_ID", "org-1")
	t.Setenv("MIST_API_TOKEN", "token-1")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load from env only: %v", err)
	}
	if cfg.Mist.OrgID != "org-1" {
		t.Fatalf("org id = %q", cfg.Mist.OrgID)
	}
}
