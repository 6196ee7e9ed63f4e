package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/vlanspan/pvstd/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	if cfg.Control.SocketPath != "/run/pvstd/control.sock" {
		t.Errorf("Control.SocketPath = %q, want %q", cfg.Control.SocketPath, "/run/pvstd/control.sock")
	}

	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9100")
	}

	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}

	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}

	if cfg.Engine.MaxInstances != 64 {
		t.Errorf("Engine.MaxInstances = %d, want %d", cfg.Engine.MaxInstances, 64)
	}

	if cfg.Engine.RootGuardTimeout != 30 {
		t.Errorf("Engine.RootGuardTimeout = %d, want %d", cfg.Engine.RootGuardTimeout, 30)
	}

	if !cfg.Engine.ExtendMode {
		t.Error("Engine.ExtendMode = false, want true")
	}

	if cfg.Engine.Mode != "pvst" {
		t.Errorf("Engine.Mode = %q, want %q", cfg.Engine.Mode, "pvst")
	}

	if cfg.Store.Backend != "log" {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, "log")
	}

	if cfg.Transport.Backend != "mem" {
		t.Errorf("Transport.Backend = %q, want %q", cfg.Transport.Backend, "mem")
	}

	// Defaults must pass validation.
	if err := config.Validate(cfg); err != nil {
		t.Errorf("DefaultConfig() failed validation: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	t.Parallel()

	yamlContent := `
control:
  socket_path: "/run/pvstd/custom.sock"
metrics:
  addr: ":9200"
  path: "/custom-metrics"
log:
  level: "debug"
  format: "text"
engine:
  max_instances: 32
  root_guard_timeout: 60
  extend_mode: false
  mode: "pvst"
store:
  backend: "bolt"
  path: "/var/lib/pvstd/state.db"
transport:
  backend: "raw"
  interfaces:
    - name: "eth0"
      speed: "1G"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Control.SocketPath != "/run/pvstd/custom.sock" {
		t.Errorf("Control.SocketPath = %q, want %q", cfg.Control.SocketPath, "/run/pvstd/custom.sock")
	}

	if cfg.Metrics.Addr != ":9200" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9200")
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}

	if cfg.Engine.MaxInstances != 32 {
		t.Errorf("Engine.MaxInstances = %d, want %d", cfg.Engine.MaxInstances, 32)
	}

	if cfg.Engine.ExtendMode {
		t.Error("Engine.ExtendMode = true, want false")
	}

	if cfg.Store.Backend != "bolt" {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, "bolt")
	}

	if cfg.Store.Path != "/var/lib/pvstd/state.db" {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, "/var/lib/pvstd/state.db")
	}

	if cfg.Transport.Backend != "raw" {
		t.Errorf("Transport.Backend = %q, want %q", cfg.Transport.Backend, "raw")
	}

	if len(cfg.Transport.Interfaces) != 1 || cfg.Transport.Interfaces[0].Name != "eth0" {
		t.Errorf("Transport.Interfaces = %+v, want one eth0 entry", cfg.Transport.Interfaces)
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	t.Parallel()

	// Partial YAML: only override log.level and store.backend.
	// Everything else should inherit from defaults.
	yamlContent := `
log:
  level: "warn"
store:
  backend: "bolt"
  path: "/tmp/state.db"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	// Overridden values.
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}

	if cfg.Store.Backend != "bolt" {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, "bolt")
	}

	// Default values should be preserved.
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want default %q", cfg.Metrics.Addr, ":9100")
	}

	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want default %q", cfg.Log.Format, "json")
	}

	if cfg.Engine.MaxInstances != 64 {
		t.Errorf("Engine.MaxInstances = %d, want default %d", cfg.Engine.MaxInstances, 64)
	}
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr error
	}{
		{
			name: "empty control socket path",
			modify: func(cfg *config.Config) {
				cfg.Control.SocketPath = ""
			},
			wantErr: config.ErrEmptySocketPath,
		},
		{
			name: "zero max instances",
			modify: func(cfg *config.Config) {
				cfg.Engine.MaxInstances = 0
			},
			wantErr: config.ErrInvalidMaxInstances,
		},
		{
			name: "root guard timeout too low",
			modify: func(cfg *config.Config) {
				cfg.Engine.RootGuardTimeout = 1
			},
			wantErr: config.ErrInvalidRootGuardTimeout,
		},
		{
			name: "root guard timeout too high",
			modify: func(cfg *config.Config) {
				cfg.Engine.RootGuardTimeout = 601
			},
			wantErr: config.ErrInvalidRootGuardTimeout,
		},
		{
			name: "invalid engine mode",
			modify: func(cfg *config.Config) {
				cfg.Engine.Mode = "rstp"
			},
			wantErr: config.ErrInvalidEngineMode,
		},
		{
			name: "invalid store backend",
			modify: func(cfg *config.Config) {
				cfg.Store.Backend = "postgres"
			},
			wantErr: config.ErrInvalidStoreBackend,
		},
		{
			name: "bolt backend without path",
			modify: func(cfg *config.Config) {
				cfg.Store.Backend = "bolt"
				cfg.Store.Path = ""
			},
			wantErr: config.ErrStorePathRequired,
		},
		{
			name: "invalid transport backend",
			modify: func(cfg *config.Config) {
				cfg.Transport.Backend = "dpdk"
			},
			wantErr: config.ErrInvalidTransportBackend,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			tt.modify(cfg)

			err := config.Validate(cfg)
			if err == nil {
				t.Fatal("Validate() returned nil, want error")
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "DEBUG", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "INFO", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "WARN", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "Error", want: slog.LevelError},
		{input: "unknown", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "trace", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := config.ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadNonexistentFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load("/nonexistent/path/pvstd.yml")
	if err == nil {
		t.Fatal("Load() returned nil error for nonexistent file")
	}
}

// -------------------------------------------------------------------------
// VLAN Config Tests
// -------------------------------------------------------------------------

func TestLoadWithVlans(t *testing.T) {
	t.Parallel()

	yamlContent := `
transport:
  backend: "mem"
  interfaces:
    - name: "eth0"
      speed: "1G"
    - name: "eth1"
      speed: "1G"
vlans:
  - vlan_id: 10
    priority: 32768
    max_age: 20
    hello_time: 2
    forward_delay: 15
    members:
      - interface: "eth0"
        untagged: true
      - interface: "eth1"
        bpdu_guard: true
  - vlan_id: 20
    priority: 4096
    members:
      - interface: "eth0"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if len(cfg.Vlans) != 2 {
		t.Fatalf("Vlans count = %d, want 2", len(cfg.Vlans))
	}

	v1 := cfg.Vlans[0]
	if v1.VlanID != 10 {
		t.Errorf("Vlans[0].VlanID = %d, want 10", v1.VlanID)
	}
	if v1.Priority != 32768 {
		t.Errorf("Vlans[0].Priority = %d, want 32768", v1.Priority)
	}
	if len(v1.Members) != 2 {
		t.Fatalf("Vlans[0].Members count = %d, want 2", len(v1.Members))
	}
	if !v1.Members[0].Untagged {
		t.Error("Vlans[0].Members[0].Untagged = false, want true")
	}
	if !v1.Members[1].BpduGuard {
		t.Error("Vlans[0].Members[1].BpduGuard = false, want true")
	}

	v2 := cfg.Vlans[1]
	if v2.VlanID != 20 {
		t.Errorf("Vlans[1].VlanID = %d, want 20", v2.VlanID)
	}

	if v1.SessionKey() == v2.SessionKey() {
		t.Error("Vlans[0] and Vlans[1] have the same key, expected different")
	}
}

func TestValidateVlanErrors(t *testing.T) {
	t.Parallel()

	baseYAML := `
transport:
  backend: "mem"
  interfaces:
    - name: "eth0"
      speed: "1G"
`

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr error
	}{
		{
			name: "vlan id out of range",
			modify: func(cfg *config.Config) {
				cfg.Vlans = []config.VlanConfig{{VlanID: 0}}
			},
			wantErr: config.ErrInvalidVlanID,
		},
		{
			name: "vlan id too large",
			modify: func(cfg *config.Config) {
				cfg.Vlans = []config.VlanConfig{{VlanID: 4095}}
			},
			wantErr: config.ErrInvalidVlanID,
		},
		{
			name: "duplicate vlan id",
			modify: func(cfg *config.Config) {
				cfg.Vlans = []config.VlanConfig{{VlanID: 10}, {VlanID: 10}}
			},
			wantErr: config.ErrDuplicateVlanID,
		},
		{
			name: "unknown member interface",
			modify: func(cfg *config.Config) {
				cfg.Transport.Interfaces = []config.InterfaceConfig{{Name: "eth0"}}
				cfg.Vlans = []config.VlanConfig{
					{VlanID: 10, Members: []config.VlanMemberConfig{{Interface: "eth9"}}},
				}
			},
			wantErr: config.ErrUnknownMemberInterface,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			_ = baseYAML
			tt.modify(cfg)

			err := config.Validate(cfg)
			if err == nil {
				t.Fatal("Validate() returned nil, want error")
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// -------------------------------------------------------------------------
// Environment Variable Override Tests
// -------------------------------------------------------------------------

func TestLoadEnvOverrides(t *testing.T) {
	// Environment variable tests cannot be parallel because they modify
	// process-wide state (os.Setenv).

	yamlContent := `
log:
  level: "info"
`
	path := writeTemp(t, yamlContent)

	t.Setenv("PVSTD_LOG_LEVEL", "debug")
	t.Setenv("PVSTD_METRICS_ADDR", ":9200")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q (from env)", cfg.Log.Level, "debug")
	}

	if cfg.Metrics.Addr != ":9200" {
		t.Errorf("Metrics.Addr = %q, want %q (from env)", cfg.Metrics.Addr, ":9200")
	}
}

// writeTemp creates a temporary YAML file and returns its path.
// The file is automatically cleaned up when the test finishes.
func writeTemp(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "pvstd.yml")

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	return path
}
