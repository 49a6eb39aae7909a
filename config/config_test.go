package config_test

import (
	"testing"

	"github.com/twpayne/go-vfs/v4/vfst"

	"github.com/diskenc-io/agent/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	fsys, cleanup, err := vfst.NewTestFS(map[string]interface{}{})
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	cfg, err := config.Load(fsys, config.DefaultPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Daemon.BusName != "io.diskenc.Daemon1" {
		t.Errorf("daemon bus name %q", cfg.Daemon.BusName)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level %q", cfg.LogLevel)
	}
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	content := `log_level: debug
daemon:
  bus_name: org.example.Crypt
  object_path: /org/example/Crypt
  interface: org.example.Crypt
tpm:
  nv_index: "0x1600001"
discovery_paths:
  - /opt/discovery
`
	fsys, cleanup, err := vfst.NewTestFS(map[string]interface{}{
		"/etc/diskenc/agent.yaml": content,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	cfg, err := config.Load(fsys, "/etc/diskenc/agent.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level %q", cfg.LogLevel)
	}
	if cfg.Daemon.BusName != "org.example.Crypt" {
		t.Errorf("daemon bus name %q", cfg.Daemon.BusName)
	}
	if cfg.TPM.NVIndex != "0x1600001" {
		t.Errorf("nv index %q", cfg.TPM.NVIndex)
	}
	if len(cfg.DiscoveryPaths) != 1 || cfg.DiscoveryPaths[0] != "/opt/discovery" {
		t.Errorf("discovery paths %v", cfg.DiscoveryPaths)
	}
	// Untouched sections keep their defaults.
	if cfg.Session.BusName != "io.diskenc.SessionManager1" {
		t.Errorf("session bus name %q", cfg.Session.BusName)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	fsys, cleanup, err := vfst.NewTestFS(map[string]interface{}{
		"/etc/diskenc/agent.yaml": "log_level: [broken",
	})
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	if _, err := config.Load(fsys, "/etc/diskenc/agent.yaml"); err == nil {
		t.Fatal("expected an error")
	}
}
