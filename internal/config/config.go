// Package config manages pvstd daemon configuration using koanf/v2.
//
// Supports YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete pvstd configuration.
type Config struct {
	Control  ControlConfig    `koanf:"control"`
	Metrics  MetricsConfig    `koanf:"metrics"`
	Log      LogConfig        `koanf:"log"`
	Engine   EngineConfig     `koanf:"engine"`
	Store    StoreConfig      `koanf:"store"`
	Transport TransportConfig `koanf:"transport"`
	Vlans    []VlanConfig     `koanf:"vlans"`
}

// ControlConfig holds the Unix domain socket address pvstdctl connects to.
type ControlConfig struct {
	// SocketPath is the filesystem path of the control listener (e.g.,
	// "/run/pvstd/control.sock").
	SocketPath string `koanf:"socket_path"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// EngineConfig holds the bridge-wide defaults fed into stp.DefaultEngineConfig.
type EngineConfig struct {
	// MaxInstances bounds how many VLANs can run an STP instance at once.
	MaxInstances uint16 `koanf:"max_instances"`

	// BaseMAC is the bridge's base MAC address, "aa:bb:cc:dd:ee:ff" form.
	// Each VLAN's bridge id is derived from it plus the VLAN id.
	BaseMAC string `koanf:"base_mac"`

	// RootGuardTimeout is the root-protect recovery timeout in seconds.
	RootGuardTimeout int `koanf:"root_guard_timeout"`

	// ExtendMode names the extended system id (802.1t) mode spec §6.1
	// describes. cmd/pvstd does not pass it to the engine: the management
	// adapter always builds the engine with extended mode on.
	ExtendMode bool `koanf:"extend_mode"`

	// Mode selects the protocol variant: "pvst" or "rstp". Non-goals per
	// spec.md exclude Rapid/MST, so only "pvst" is currently accepted.
	Mode string `koanf:"mode"`
}

// StoreConfig selects and configures the state-publication collaborator.
type StoreConfig struct {
	// Backend is "bolt" or "log". "log" (the default) requires no path.
	Backend string `koanf:"backend"`

	// Path is the bbolt database file, required when Backend is "bolt".
	Path string `koanf:"path"`
}

// TransportConfig selects and configures the raw-frame transport.
type TransportConfig struct {
	// Backend is "raw" (Linux AF_PACKET) or "mem" (in-process loopback,
	// for demos and tests without CAP_NET_RAW).
	Backend string `koanf:"backend"`

	// Interfaces lists every switch port pvstd should open a Conn for.
	Interfaces []InterfaceConfig `koanf:"interfaces"`
}

// InterfaceConfig describes one switch port's transport-level identity.
type InterfaceConfig struct {
	// Name is the interface name (e.g., "eth0").
	Name string `koanf:"name"`

	// Speed is the link speed, used as the port path-cost default (spec
	// §6.4): "10M", "100M", "1G", "10G", "100G".
	Speed string `koanf:"speed"`
}

// VlanConfig describes one declarative per-VLAN STP instance, created on
// daemon startup. A config reload does not re-apply the VLAN list.
type VlanConfig struct {
	// VlanID is the IEEE 802.1Q VLAN tag this instance runs on.
	VlanID uint16 `koanf:"vlan_id"`

	// Priority is the bridge priority for this VLAN (multiple of 4096).
	Priority uint16 `koanf:"priority"`

	// MaxAge, HelloTime, ForwardDelay are seconds (spec §6.1 bridge timers).
	MaxAge       uint8 `koanf:"max_age"`
	HelloTime    uint8 `koanf:"hello_time"`
	ForwardDelay uint8 `koanf:"forward_delay"`

	// Members lists the interfaces participating in this VLAN.
	Members []VlanMemberConfig `koanf:"members"`
}

// VlanMemberConfig describes one interface's membership in a VlanConfig.
type VlanMemberConfig struct {
	// Interface names an entry in TransportConfig.Interfaces.
	Interface string `koanf:"interface"`

	// Untagged marks this interface's native VLAN for the instance; at
	// most one VlanConfig may mark a given interface untagged.
	Untagged bool `koanf:"untagged"`

	// PathCost overrides the link-speed default path cost when nonzero.
	PathCost uint32 `koanf:"path_cost"`

	// PortPriority overrides the default port-id priority (0x80) when set.
	PortPriority int32 `koanf:"port_priority"`

	// BpduGuard, RootGuard, PortFast, UplinkFast mirror the per-port
	// vendor extensions spec §4.8 names.
	BpduGuard  bool `koanf:"bpdu_guard"`
	RootGuard  bool `koanf:"root_guard"`
	PortFast   bool `koanf:"port_fast"`
	UplinkFast bool `koanf:"uplink_fast"`
}

// SessionKey returns a unique identifier for the VLAN ("vlan-<id>").
func (vc VlanConfig) SessionKey() string {
	return fmt.Sprintf("vlan-%d", vc.VlanID)
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Control: ControlConfig{
			SocketPath: "/run/pvstd/control.sock",
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Engine: EngineConfig{
			MaxInstances:     64,
			RootGuardTimeout: 30,
			ExtendMode:       true,
			Mode:             "pvst",
		},
		Store: StoreConfig{
			Backend: "log",
		},
		Transport: TransportConfig{
			Backend: "mem",
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for pvstd configuration.
// Variables are named PVSTD_<section>_<key>, e.g., PVSTD_METRICS_ADDR.
const envPrefix = "PVSTD_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (PVSTD_ prefix), and merges on top of DefaultConfig().
// Missing fields inherit defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms PVSTD_METRICS_ADDR -> metrics.addr.
// Strips the PVSTD_ prefix, lowercases, and replaces _ with .
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"control.socket_path":      defaults.Control.SocketPath,
		"metrics.addr":             defaults.Metrics.Addr,
		"metrics.path":             defaults.Metrics.Path,
		"log.level":                defaults.Log.Level,
		"log.format":               defaults.Log.Format,
		"engine.max_instances":     defaults.Engine.MaxInstances,
		"engine.root_guard_timeout": defaults.Engine.RootGuardTimeout,
		"engine.extend_mode":       defaults.Engine.ExtendMode,
		"engine.mode":              defaults.Engine.Mode,
		"store.backend":            defaults.Store.Backend,
		"transport.backend":        defaults.Transport.Backend,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptySocketPath indicates the control socket path is empty.
	ErrEmptySocketPath = errors.New("control.socket_path must not be empty")

	// ErrInvalidMaxInstances indicates max_instances is zero.
	ErrInvalidMaxInstances = errors.New("engine.max_instances must be > 0")

	// ErrInvalidRootGuardTimeout indicates root_guard_timeout is out of [5,600].
	ErrInvalidRootGuardTimeout = errors.New("engine.root_guard_timeout must be in [5,600]")

	// ErrInvalidEngineMode indicates engine.mode names an unsupported variant.
	ErrInvalidEngineMode = errors.New("engine.mode must be pvst")

	// ErrInvalidStoreBackend indicates store.backend is unrecognized.
	ErrInvalidStoreBackend = errors.New("store.backend must be bolt or log")

	// ErrStorePathRequired indicates a bolt store backend with no path.
	ErrStorePathRequired = errors.New("store.path required when store.backend is bolt")

	// ErrInvalidTransportBackend indicates transport.backend is unrecognized.
	ErrInvalidTransportBackend = errors.New("transport.backend must be raw or mem")

	// ErrInvalidVlanID indicates a vlan_id outside [1,4094].
	ErrInvalidVlanID = errors.New("vlan_id must be in [1,4094]")

	// ErrUnknownMemberInterface indicates a VLAN member names an interface
	// absent from transport.interfaces.
	ErrUnknownMemberInterface = errors.New("vlan member interface not declared under transport.interfaces")

	// ErrDuplicateVlanID indicates two VlanConfig entries share a vlan_id.
	ErrDuplicateVlanID = errors.New("duplicate vlan_id")
)

// ValidStoreBackends lists the recognized store.backend strings.
var ValidStoreBackends = map[string]bool{"bolt": true, "log": true}

// ValidTransportBackends lists the recognized transport.backend strings.
var ValidTransportBackends = map[string]bool{"raw": true, "mem": true}

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Control.SocketPath == "" {
		return ErrEmptySocketPath
	}
	if cfg.Engine.MaxInstances == 0 {
		return ErrInvalidMaxInstances
	}
	if cfg.Engine.RootGuardTimeout < 5 || cfg.Engine.RootGuardTimeout > 600 {
		return ErrInvalidRootGuardTimeout
	}
	if cfg.Engine.Mode != "pvst" {
		return ErrInvalidEngineMode
	}
	if !ValidStoreBackends[cfg.Store.Backend] {
		return ErrInvalidStoreBackend
	}
	if cfg.Store.Backend == "bolt" && cfg.Store.Path == "" {
		return ErrStorePathRequired
	}
	if !ValidTransportBackends[cfg.Transport.Backend] {
		return ErrInvalidTransportBackend
	}

	if err := validateVlans(cfg.Vlans, cfg.Transport.Interfaces); err != nil {
		return err
	}

	return nil
}

// validateVlans checks each declarative VLAN entry for correctness.
func validateVlans(vlans []VlanConfig, interfaces []InterfaceConfig) error {
	known := make(map[string]bool, len(interfaces))
	for _, ifc := range interfaces {
		known[ifc.Name] = true
	}

	seen := make(map[uint16]struct{}, len(vlans))
	for i, vc := range vlans {
		if vc.VlanID < 1 || vc.VlanID > 4094 {
			return fmt.Errorf("vlans[%d]: %w", i, ErrInvalidVlanID)
		}
		if _, dup := seen[vc.VlanID]; dup {
			return fmt.Errorf("vlans[%d] vlan_id %d: %w", i, vc.VlanID, ErrDuplicateVlanID)
		}
		seen[vc.VlanID] = struct{}{}

		for j, m := range vc.Members {
			if !known[m.Interface] {
				return fmt.Errorf("vlans[%d].members[%d] %q: %w", i, j, m.Interface, ErrUnknownMemberInterface)
			}
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
