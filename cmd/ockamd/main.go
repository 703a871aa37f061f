// Command ockamd runs a standalone ockam node: it loads a YAML settings
// file, brings up whichever transports the file configures, starts a
// secure channel listener so peers can establish authenticated encrypted
// channels to it, and registers a sample echo worker so the wiring can be
// smoke-tested end to end. It is a demonstration binary, not a deployment
// tool — production use is expected to embed pkg/node directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/config"
	"github.com/ockamio/ockam/pkg/logging"
	"github.com/ockamio/ockam/pkg/metrics"
	"github.com/ockamio/ockam/pkg/node"
	"github.com/ockamio/ockam/pkg/securechannel"
	"github.com/ockamio/ockam/pkg/telemetry"
	"github.com/ockamio/ockam/pkg/transport/natsbus"
	"github.com/ockamio/ockam/pkg/transport/tcp"
	"github.com/ockamio/ockam/pkg/transport/ws"
	"github.com/ockamio/ockam/pkg/vault"
)

func main() {
	configPath := flag.String("config", "", "path to a NodeSettings YAML/JSON file (optional)")
	envPrefix := flag.String("env-prefix", "OCKAM", "environment variable prefix for settings overrides")
	flag.Parse()

	settings := config.NodeSettings{}
	if *configPath != "" {
		loaded, err := config.LoadNodeSettings(*configPath, *envPrefix)
		if err != nil {
			log.Fatalf("ockamd: failed to load settings from %s: %v", *configPath, err)
		}
		settings = loaded
	} else {
		settings.ApplyDefaults()
	}

	logger := logging.New()
	n := node.NewNode(logger)
	n.SetMailboxCapacity(settings.Node.MailboxCapacity)
	n.SetMetricsSink(metrics.New(nil))

	if tracer, err := telemetry.New(context.Background(), telemetry.DefaultConfig()); err != nil {
		logger.Warnf("ockamd: tracing disabled: %v", err)
	} else {
		n.SetTracer(tracer)
		defer tracer.Shutdown(context.Background())
	}

	rootCtx, err := n.NewContext(addr.NewLocal("ockamd.root"))
	if err != nil {
		log.Fatalf("ockamd: failed to create root context: %v", err)
	}

	var closers []func() error

	if settings.TCP != nil {
		cfg := tcp.Config{
			DialTimeout:       settings.TCP.DialTimeout,
			ReadTimeout:       settings.TCP.ReadTimeout,
			WriteTimeout:      settings.TCP.WriteTimeout,
			HeartbeatInterval: settings.TCP.HeartbeatInterval,
		}
		tcpRouter := tcp.NewRouter(rootCtx, cfg)
		if err := rootCtx.Register(tcp.TransportType, tcpRouter); err != nil {
			log.Fatalf("ockamd: failed to register TCP transport router: %v", err)
		}
		ln, err := tcp.Listen(rootCtx, tcpRouter, settings.TCP.ListenAddr, cfg)
		if err != nil {
			log.Fatalf("ockamd: failed to start TCP listener on %s: %v", settings.TCP.ListenAddr, err)
		}
		logger.Infof("ockamd: TCP transport listening on %s", ln.Addr())
		closers = append(closers, ln.Close)
	}

	if settings.WebSocket != nil {
		cfg := ws.Config{
			HandshakeTimeout:  settings.WebSocket.HandshakeTimeout,
			WriteTimeout:      settings.WebSocket.WriteTimeout,
			HeartbeatInterval: settings.WebSocket.HeartbeatInterval,
		}
		wsRouter := ws.NewRouter(rootCtx, cfg)
		if err := rootCtx.Register(ws.TransportType, wsRouter); err != nil {
			log.Fatalf("ockamd: failed to register WebSocket transport router: %v", err)
		}
		ln, err := ws.Listen(rootCtx, wsRouter, settings.WebSocket.ListenAddr, settings.WebSocket.Path, cfg)
		if err != nil {
			log.Fatalf("ockamd: failed to start WebSocket listener on %s: %v", settings.WebSocket.ListenAddr, err)
		}
		logger.Infof("ockamd: WebSocket transport listening on %s%s", ln.Addr(), settings.WebSocket.Path)
		closers = append(closers, ln.Close)
	}

	if settings.NATS != nil {
		cfg := natsbus.Config{
			URL:            settings.NATS.URL,
			Prefix:         settings.NATS.Prefix,
			NodeID:         settings.NATS.NodeID,
			RequestTimeout: settings.NATS.RequestTimeout,
		}
		natsRouter, err := natsbus.NewRouter(rootCtx, cfg)
		if err != nil {
			log.Fatalf("ockamd: failed to connect to NATS at %s: %v", settings.NATS.URL, err)
		}
		if err := rootCtx.Register(natsbus.TransportType, natsRouter); err != nil {
			log.Fatalf("ockamd: failed to register NATS transport router: %v", err)
		}
		logger.Infof("ockamd: NATS transport connected, node id %s", settings.NATS.NodeID)
		closers = append(closers, natsRouter.Close)
	}

	v := vault.NewSoftwareVault()
	identity, err := securechannel.NewLocalIdentity(v)
	if err != nil {
		log.Fatalf("ockamd: failed to generate node identity: %v", err)
	}
	logger.Infof("ockamd: node identity %x", identity.Identifier())

	scCfg := securechannel.Config{
		Cluster:          settings.SecureChannel.Cluster,
		HandshakeTimeout: settings.SecureChannel.HandshakeTimeout,
	}
	listener, err := securechannel.Listen(rootCtx, addr.NewLocal("ockamd.secure_channel_listener"), identity, v, scCfg)
	if err != nil {
		log.Fatalf("ockamd: failed to start secure channel listener: %v", err)
	}
	logger.Infof("ockamd: secure channel listener ready at %s", listener.Address())

	echoCtx, err := node.StartWorker(rootCtx, addr.NewSet(addr.NewLocal("echo")), echoWorker{}, "app", nil)
	if err != nil {
		log.Fatalf("ockamd: failed to start echo worker: %v", err)
	}
	logger.Infof("ockamd: echo worker ready at %s", echoCtx.Address())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("ockamd: shutting down")
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warnf("ockamd: error closing transport: %v", err)
		}
	}
	if err := rootCtx.StopTimeout(settings.Node.StopGrace); err != nil {
		fmt.Fprintf(os.Stderr, "ockamd: graceful shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("ockamd: stopped")
}
