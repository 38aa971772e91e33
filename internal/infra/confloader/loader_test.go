package confloader

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Server struct {
		HTTP struct {
			Addr         string   `koanf:"addr"`
			AdminKeyHash string   `koanf:"admin_key_hash"`
			CORSOrigins  []string `koanf:"cors_origins"`
		} `koanf:"http"`
	} `koanf:"server"`
	Governance struct {
		MaxActive int    `koanf:"max_active"`
		Clock     string `koanf:"clock"`
	} `koanf:"governance"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "govmesh.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewLoader_Options(t *testing.T) {
	if l := NewLoader(); l.envPrefix != DefaultEnvPrefix || l.FilePath() != "" {
		t.Errorf("defaults = %q, %q", l.envPrefix, l.FilePath())
	}
	l := NewLoader(WithEnvPrefix("GMCLI_"), WithConfigFile("/etc/govmesh/govmesh.yaml"))
	if l.envPrefix != "GMCLI_" || l.FilePath() != "/etc/govmesh/govmesh.yaml" {
		t.Errorf("options not applied: %q, %q", l.envPrefix, l.FilePath())
	}
}

func TestEnvKey(t *testing.T) {
	for name, want := range map[string]string{
		"GOVMESH_SERVER_HTTP_ADDR":             "server.http.addr",
		"GOVMESH_SERVER_HTTP_ADMIN__KEY__HASH": "server.http.admin_key_hash",
		"GOVMESH_GOVERNANCE_MAX__ACTIVE":       "governance.max_active",
		"GOVMESH_LOG":                          "log",
	} {
		if got := EnvKey("GOVMESH_", name); got != want {
			t.Errorf("EnvKey(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  http:
    addr: "0.0.0.0:5380"
    cors_origins: ["https://a.example", "https://b.example"]
governance:
  max_active: 10
`)
	var cfg testConfig
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.HTTP.Addr != "0.0.0.0:5380" || cfg.Governance.MaxActive != 10 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if len(cfg.Server.HTTP.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v", cfg.Server.HTTP.CORSOrigins)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var cfg testConfig
	if err := NewLoader(WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))).Load(&cfg); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "server: [unterminated\n")
	var cfg testConfig
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  http:\n    addr: from-file:5380\ngovernance:\n  clock: ticker\n")
	t.Setenv("GOVMESH_SERVER_HTTP_ADDR", "from-env:8080")
	t.Setenv("GOVMESH_SERVER_HTTP_ADMIN__KEY__HASH", "$argon2id$x")

	var cfg testConfig
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.HTTP.Addr != "from-env:8080" {
		t.Errorf("Addr = %q, want env to win", cfg.Server.HTTP.Addr)
	}
	if cfg.Server.HTTP.AdminKeyHash != "$argon2id$x" {
		t.Errorf("AdminKeyHash = %q", cfg.Server.HTTP.AdminKeyHash)
	}
	if cfg.Governance.Clock != "ticker" {
		t.Errorf("Clock = %q, want file value", cfg.Governance.Clock)
	}
}

func TestLoad_CustomPrefixIgnoresDefault(t *testing.T) {
	t.Setenv("GOVMESH_GOVERNANCE_CLOCK", "ticker")
	t.Setenv("GMTEST_GOVERNANCE_CLOCK", "manual")

	var cfg testConfig
	if err := NewLoader(WithEnvPrefix("GMTEST_")).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Governance.Clock != "manual" {
		t.Errorf("Clock = %q, want manual", cfg.Governance.Clock)
	}
}

func TestLoad_KeepsDefaults(t *testing.T) {
	path := writeConfig(t, "governance:\n  clock: ticker\n")

	var cfg testConfig
	cfg.Server.HTTP.Addr = "default:5380"
	cfg.Governance.MaxActive = 25
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.HTTP.Addr != "default:5380" || cfg.Governance.MaxActive != 25 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoad_Repeatable(t *testing.T) {
	path := writeConfig(t, "governance:\n  max_active: 5\n  clock: ticker\n")
	l := NewLoader(WithConfigFile(path))

	var first testConfig
	if err := l.Load(&first); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("governance:\n  max_active: 7\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var second testConfig
	if err := l.Load(&second); err != nil {
		t.Fatal(err)
	}
	if second.Governance.MaxActive != 7 {
		t.Errorf("MaxActive = %d, want 7", second.Governance.MaxActive)
	}
	if second.Governance.Clock != "" {
		t.Errorf("Clock = %q, removed key must not survive a reload", second.Governance.Clock)
	}
}
