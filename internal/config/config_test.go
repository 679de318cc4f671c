package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Auth = AuthConfig{Username: "admin", Password: "secret"}
	cfg.RCON.Host = "127.0.0.1"
	cfg.RCON.Port = 25575
	cfg.RCON.Password = "rconpw"
	cfg.Minecraft.ModsPath = "/srv/mc/mods"
	cfg.Minecraft.ServerPath = "/srv/mc"
	return cfg
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yaml := `
server:
  port: 9090
  host: "127.0.0.1"
auth:
  username: admin
  password: hunter2
rcon:
  host: mc.local
  port: 25575
  password: rconpw
  command_timeout: 2s
minecraft:
  server_path: /srv/mc
  mods_path: /srv/mc/mods
refresh:
  interval: 10s
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.RCON.Host != "mc.local" || cfg.RCON.Port != 25575 {
		t.Errorf("RCON = %s:%d, want mc.local:25575", cfg.RCON.Host, cfg.RCON.Port)
	}
	if cfg.RCON.CommandTimeout != 2*time.Second {
		t.Errorf("RCON.CommandTimeout = %s, want 2s", cfg.RCON.CommandTimeout)
	}
	if cfg.Refresh.Interval != 10*time.Second {
		t.Errorf("Refresh.Interval = %s, want 10s", cfg.Refresh.Interval)
	}

	// Defaults should still be applied for unspecified fields.
	if cfg.RCON.DialTimeout != 5*time.Second {
		t.Errorf("RCON.DialTimeout = %s, want default 5s", cfg.RCON.DialTimeout)
	}
	if cfg.Minecraft.AddonExtension != ".jar" {
		t.Errorf("Minecraft.AddonExtension = %q, want .jar", cfg.Minecraft.AddonExtension)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Refresh.Interval != 5*time.Second {
		t.Errorf("Refresh.Interval = %s, want 5s", cfg.Refresh.Interval)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("server: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":           "8081",
		"ADMIN_USERNAME": "ops",
		"ADMIN_PASSWORD": "pw",
		"RCON_HOST":      "10.0.0.5",
		"RCON_PORT":      "25576",
		"RCON_PASSWORD":  "rc",
		"MODS_PATH":      "/data/mods",
		"SERVER_PATH":    "/data",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := defaultConfig()
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatalf("applyEnv() error: %v", err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("Server.Port = %d, want 8081", cfg.Server.Port)
	}
	if got := cfg.RCONAddr(); got != "10.0.0.5:25576" {
		t.Errorf("RCONAddr() = %q, want 10.0.0.5:25576", got)
	}
	if cfg.Minecraft.ModsPath != "/data/mods" || cfg.Minecraft.ServerPath != "/data" {
		t.Errorf("Minecraft paths = %q, %q", cfg.Minecraft.ModsPath, cfg.Minecraft.ServerPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestApplyEnvBadPort(t *testing.T) {
	cfg := defaultConfig()
	err := cfg.applyEnv(func(k string) (string, bool) {
		if k == "RCON_PORT" {
			return "not-a-port", true
		}
		return "", false
	})
	if err == nil || !strings.Contains(err.Error(), "RCON_PORT") {
		t.Fatalf("applyEnv() error = %v, want RCON_PORT error", err)
	}
}

func TestValidateReportsAllMissing(t *testing.T) {
	err := defaultConfig().Validate()
	if err == nil {
		t.Fatal("Validate() on defaults should fail")
	}
	for _, key := range []string{
		"ADMIN_USERNAME", "ADMIN_PASSWORD", "RCON_HOST", "RCON_PORT",
		"RCON_PASSWORD", "MODS_PATH", "SERVER_PATH",
	} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("Validate() error %q does not mention %s", err, key)
		}
	}
}

func TestValidateInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Refresh.Interval = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject a zero refresh interval")
	}
}
