// pvstd -- per-VLAN Spanning Tree Plus daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/vlanspan/pvstd/internal/config"
	"github.com/vlanspan/pvstd/internal/management"
	stpmetrics "github.com/vlanspan/pvstd/internal/metrics"
	"github.com/vlanspan/pvstd/internal/stp"
	"github.com/vlanspan/pvstd/internal/store"
	"github.com/vlanspan/pvstd/internal/transport"
	appversion "github.com/vlanspan/pvstd/internal/version"
)

// shutdownTimeout is the maximum time to wait for HTTP servers to drain
// active connections during graceful shutdown.
const shutdownTimeout = 10 * time.Second

// drainTimeout is the time to wait after stopping new frame/config intake
// before cancelling the engine's dispatch loop, letting an in-flight tick
// finish (spec §6's drain-then-cancel sequence).
const drainTimeout = 200 * time.Millisecond

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to configuration file (YAML)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load configuration",
			slog.String("error", err.Error()),
		)
		return 1
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(config.ParseLogLevel(cfg.Log.Level))
	logger := newLoggerWithLevel(cfg.Log, logLevel)

	logger.Info("pvstd starting",
		slog.String("version", appversion.Version),
		slog.String("control_socket", cfg.Control.SocketPath),
		slog.String("metrics_addr", cfg.Metrics.Addr),
	)

	reg := prometheus.NewRegistry()
	collector := stpmetrics.NewCollector(reg)

	pub, err := newStorePublisher(cfg.Store, logger)
	if err != nil {
		logger.Error("failed to create state store", slog.String("error", err.Error()))
		return 1
	}
	defer closeStore(pub, logger)

	hub := transport.NewHub(logger)

	adapter := management.NewAdapter(logger, store.NewEngineAdapter(pub, logger), hub)
	if err := bootstrap(adapter, cfg, hub, logger); err != nil {
		logger.Error("failed to bootstrap engine", slog.String("error", err.Error()))
		return 1
	}
	collector.RegisterInstance()

	if err := runServers(cfg, adapter, hub, reg, logger, *configPath, logLevel); err != nil {
		logger.Error("pvstd exited with error", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("pvstd stopped")
	return 0
}

// closeStore closes the store.Publisher's backing resource, if it has one.
func closeStore(pub store.Publisher, logger *slog.Logger) {
	type closer interface{ Close() error }
	c, ok := pub.(closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warn("failed to close state store", slog.String("error", err.Error()))
	}
}

// newStorePublisher builds the configured store.Publisher backend.
func newStorePublisher(cfg config.StoreConfig, logger *slog.Logger) (store.Publisher, error) {
	switch cfg.Backend {
	case "bolt":
		return store.OpenBoltPublisher(cfg.Path)
	default:
		return store.NewLogPublisher(logger), nil
	}
}

// bootstrap applies the Init and BridgeConfig messages, registers every
// configured interface, then reconciles the declarative VLAN list -- all
// run directly on the calling goroutine, before runServers starts the
// engine's dispatch loop.
func bootstrap(adapter *management.Adapter, cfg *config.Config, hub *transport.Hub, logger *slog.Logger) error {
	if err := adapter.Apply(management.Message{
		Kind:            management.KindInit,
		MaxStpInstances: cfg.Engine.MaxInstances,
	}); err != nil {
		return fmt.Errorf("apply init: %w", err)
	}

	if err := adapter.Apply(management.Message{
		Kind:             management.KindBridgeConfig,
		StpMode:          management.StpModePvstp,
		RootGuardTimeout: int32(cfg.Engine.RootGuardTimeout),
		BaseMAC:          parseBaseMAC(cfg.Engine.BaseMAC),
	}); err != nil {
		return fmt.Errorf("apply bridge config: %w", err)
	}

	if err := registerInterfaces(adapter, cfg.Transport, hub, logger); err != nil {
		return fmt.Errorf("register interfaces: %w", err)
	}

	return reconcileVlans(adapter, cfg.Vlans)
}

// registerInterfaces opens a transport.Conn for every configured
// interface, registers it with hub, and tells adapter about its port
// number/speed so later VlanConfig messages can resolve it by name.
func registerInterfaces(adapter *management.Adapter, cfg config.TransportConfig, hub *transport.Hub, logger *slog.Logger) error {
	for i, ifc := range cfg.Interfaces {
		conn, err := newConn(cfg.Backend, ifc.Name)
		if err != nil {
			return fmt.Errorf("open interface %s: %w", ifc.Name, err)
		}
		hub.Add(conn)

		mac, err := interfaceMAC(ifc.Name)
		if err != nil {
			logger.Warn("could not read interface MAC, using zero MAC",
				slog.String("interface", ifc.Name), slog.String("error", err.Error()))
		}

		adapter.RegisterInterface(ifc.Name, stp.PortNumber(i), mac, parseSpeed(ifc.Speed))
	}
	return nil
}

// newConn opens the transport.Conn for one interface per the configured
// backend: "raw" uses a Linux AF_PACKET socket, "mem" an in-process
// loopback conn for demo/test environments without CAP_NET_RAW.
func newConn(backend, ifName string) (transport.Conn, error) {
	switch backend {
	case "raw":
		return transport.NewRawConn(ifName)
	default:
		return transport.NewMemConn(ifName), nil
	}
}

// interfaceMAC reads the hardware address of a local network interface.
// Returns the zero MAC for interfaces not present on this host (e.g. the
// "mem" transport backend's synthetic names).
func interfaceMAC(ifName string) ([6]byte, error) {
	var mac [6]byte
	iface, err := net.InterfaceByName(ifName)
	if err != nil {
		return mac, err
	}
	copy(mac[:], iface.HardwareAddr)
	return mac, nil
}

// parseSpeed maps a config speed string to stp.Speed, defaulting to
// Speed1G for unrecognized values.
func parseSpeed(s string) stp.Speed {
	switch s {
	case "10M":
		return stp.Speed10M
	case "100M":
		return stp.Speed100M
	case "1G":
		return stp.Speed1G
	case "10G":
		return stp.Speed10G
	case "25G":
		return stp.Speed25G
	case "40G":
		return stp.Speed40G
	case "100G":
		return stp.Speed100G
	case "400G":
		return stp.Speed400G
	default:
		return stp.Speed1G
	}
}

// parseBaseMAC parses a colon-separated MAC string; an empty or malformed
// string returns the zero MAC, which stp.Engine uses as-is: per-VLAN
// bridge ids are then built from the zero MAC plus the VLAN id.
func parseBaseMAC(s string) [6]byte {
	var mac [6]byte
	hw, err := net.ParseMAC(s)
	if err != nil || len(hw) != 6 {
		return mac
	}
	copy(mac[:], hw)
	return mac
}

// reconcileVlans applies one VlanConfig message (and any PortConfig and
// VlanPortConfig follow-ups for members with guard, path-cost or priority
// settings) per entry in cfg.Vlans, run directly against adapter before
// the engine's dispatch loop starts.
func reconcileVlans(adapter *management.Adapter, vlans []config.VlanConfig) error {
	for _, vc := range vlans {
		attrs := make([]management.VlanInterfaceAttr, 0, len(vc.Members))
		for _, m := range vc.Members {
			mode := management.PortModeTagged
			if m.Untagged {
				mode = management.PortModeUntagged
			}
			attrs = append(attrs, management.VlanInterfaceAttr{
				IfName:  m.Interface,
				Mode:    mode,
				Enabled: true,
			})
		}

		if err := adapter.Apply(management.Message{
			Kind:         management.KindVlanConfig,
			Opcode:       management.OpcodeSet,
			NewInstance:  true,
			VlanID:       vc.VlanID,
			Priority:     vc.Priority,
			MaxAge:       vc.MaxAge,
			HelloTime:    vc.HelloTime,
			ForwardDelay: vc.ForwardDelay,
			Interfaces:   attrs,
		}); err != nil {
			return fmt.Errorf("vlan %d: %w", vc.VlanID, err)
		}

		for _, m := range vc.Members {
			if m.BpduGuard || m.RootGuard || m.PortFast || m.UplinkFast {
				if err := adapter.Apply(management.Message{
					Kind:       management.KindPortConfig,
					IfName:     m.Interface,
					Enabled:    true,
					RootGuard:  m.RootGuard,
					BpduGuard:  m.BpduGuard,
					PortFast:   m.PortFast,
					UplinkFast: m.UplinkFast,
				}); err != nil {
					return fmt.Errorf("vlan %d interface %s port config: %w", vc.VlanID, m.Interface, err)
				}
			}

			if m.PathCost != 0 || m.PortPriority != 0 {
				priority := management.UnsetPriority
				if m.PortPriority != 0 {
					priority = m.PortPriority
				}
				if err := adapter.Apply(management.Message{
					Kind:             management.KindVlanPortConfig,
					VlanID:           vc.VlanID,
					IfName:           m.Interface,
					PathCost:         m.PathCost,
					VlanPortPriority: priority,
				}); err != nil {
					return fmt.Errorf("vlan %d interface %s port cost/priority: %w", vc.VlanID, m.Interface, err)
				}
			}
		}
	}
	return nil
}

// runServers starts the engine dispatch loop, the frame receive loop, the
// control socket, and the metrics HTTP server under an errgroup driven by
// a signal-aware context, then waits for graceful shutdown.
func runServers(
	cfg *config.Config,
	adapter *management.Adapter,
	hub *transport.Hub,
	reg *prometheus.Registry,
	logger *slog.Logger,
	configPath string,
	logLevel *slog.LevelVar,
) error {
	engine := adapter.Engine()
	controller := management.NewController(adapter)

	metricsSrv := newMetricsServer(cfg.Metrics, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return engine.Run(gCtx)
	})

	g.Go(func() error {
		hub.Run(gCtx, func(ifName string, frame []byte, vlanID uint16, tagged bool) {
			engine.Submit(0, func() {
				adapter.ReceivedFrame(ifName, frame, vlanID, tagged)
			})
		})
		return nil
	})

	ctl, err := newControlListener(cfg.Control.SocketPath, controller, logger)
	if err != nil {
		return fmt.Errorf("start control listener: %w", err)
	}
	g.Go(func() error {
		return ctl.Run(gCtx)
	})

	lc := net.ListenConfig{}
	g.Go(func() error {
		logger.Info("metrics server listening",
			slog.String("addr", cfg.Metrics.Addr), slog.String("path", cfg.Metrics.Path))
		return listenAndServe(gCtx, &lc, metricsSrv, cfg.Metrics.Addr)
	})

	startSighupReload(gCtx, g, configPath, logLevel, logger)

	g.Go(func() error {
		<-gCtx.Done()
		return gracefulShutdown(gCtx, ctl, logger, metricsSrv)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run servers: %w", err)
	}
	return nil
}

// startSighupReload registers a goroutine that reloads the dynamic log
// level on SIGHUP. VLAN/interface reconciliation on reload is not
// supported (bootstrap runs once at startup per spec §6); only the log
// level is safe to change without an engine restart.
func startSighupReload(ctx context.Context, g *errgroup.Group, configPath string, logLevel *slog.LevelVar, logger *slog.Logger) {
	sigHUP := make(chan os.Signal, 1)
	signal.Notify(sigHUP, syscall.SIGHUP)
	g.Go(func() error {
		defer signal.Stop(sigHUP)
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-sigHUP:
				reloadLogLevel(configPath, logLevel, logger)
			}
		}
	})
}

func reloadLogLevel(configPath string, logLevel *slog.LevelVar, logger *slog.Logger) {
	newCfg, err := loadConfig(configPath)
	if err != nil {
		logger.Error("failed to reload configuration, keeping current settings",
			slog.String("error", err.Error()))
		return
	}
	oldLevel := logLevel.Level()
	newLevel := config.ParseLogLevel(newCfg.Log.Level)
	logLevel.Set(newLevel)
	logger.Info("configuration reloaded",
		slog.String("old_log_level", oldLevel.String()),
		slog.String("new_log_level", newLevel.String()))
}

// gracefulShutdown stops accepting new BPDUs and control messages, gives
// the in-flight tick time to finish, then shuts down the HTTP servers
// (spec §6's drain-then-cancel sequence).
func gracefulShutdown(ctx context.Context, ctl *controlListener, logger *slog.Logger, servers ...*http.Server) error {
	logger.Info("initiating graceful shutdown")

	ctl.Close()
	time.Sleep(drainTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("shutdown server: %w", err))
		}
	}
	return shutdownErr
}

func listenAndServe(ctx context.Context, lc *net.ListenConfig, srv *http.Server, addr string) error {
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", addr, err)
	}
	return nil
}

func newMetricsServer(cfg config.MetricsConfig, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.DefaultConfig(), nil
}

func newLoggerWithLevel(cfg config.LogConfig, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
