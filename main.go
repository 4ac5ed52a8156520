package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/etherlabsio/healthcheck/v2"
	"github.com/filecoin-project/go-jsonrpc"
	"github.com/gorilla/mux"
	"github.com/ipfs-force-community/metrics"
	logging "github.com/ipfs/go-log/v2"
	multiaddr "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"github.com/urfave/cli/v2"
	"go.opencensus.io/plugin/ochttp"

	"github.com/dappforge/walletbridge/api"
	"github.com/dappforge/walletbridge/cmds"
	"github.com/dappforge/walletbridge/config"
	"github.com/dappforge/walletbridge/eventbus"
	bridgemetrics "github.com/dappforge/walletbridge/metrics"
	"github.com/dappforge/walletbridge/networks"
	"github.com/dappforge/walletbridge/notify"
	"github.com/dappforge/walletbridge/provider"
	"github.com/dappforge/walletbridge/store"
	"github.com/dappforge/walletbridge/version"
	"github.com/dappforge/walletbridge/walletmgr"
)

var log = logging.Logger("main")

func main() {
	_ = logging.SetLogLevel("*", "INFO")

	app := &cli.App{
		Name:  "walletbridge",
		Usage: "walletbridge daemon, manages the connection to an injected wallet for dapp uis",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "host address and port the rpc api will listen on",
				Value: "/ip4/127.0.0.1/tcp/45232",
			},
			&cli.StringFlag{
				Name:  "repo",
				Usage: "repo directory holding config and the persistent store",
				Value: "~/.walletbridge",
			},
		},
		Commands: []*cli.Command{
			runCmd, cmds.WalletCmds,
		},
	}
	app.Version = version.UserVersion
	if err := app.Run(os.Args); err != nil {
		log.Warn(err)
		os.Exit(1)
	}
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "start the walletbridge daemon",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "wallet-endpoint", Usage: "injected wallet rpc endpoint", EnvVars: []string{"WALLETBRIDGE_WALLET_ENDPOINT"}},
		&cli.Uint64SliceFlag{Name: "supported-chain", Usage: "override the supported chain id set"},
		&cli.BoolFlag{Name: "mem-store", Usage: "keep the persistent store in memory, every run starts disconnected"},
		&cli.StringFlag{Name: "jaeger-proxy", EnvVars: []string{"WALLETBRIDGE_JAEGER_PROXY"}},
		&cli.Float64Flag{Name: "trace-sampler", EnvVars: []string{"WALLETBRIDGE_TRACE_SAMPLER"}, Value: 1.0},
		&cli.StringFlag{Name: "trace-node-name", Value: "walletbridge"},
	},
	Action: func(cctx *cli.Context) error {
		repoDir, err := config.HomeDir(cctx.String("repo"))
		if err != nil {
			return err
		}
		cfg, err := config.EnsureConfig(repoDir)
		if err != nil {
			return err
		}

		if cctx.IsSet("wallet-endpoint") {
			cfg.Provider.Endpoint = cctx.String("wallet-endpoint")
		}
		if cctx.IsSet("supported-chain") {
			cfg.Networks.Supported = cctx.Uint64Slice("supported-chain")
		}
		if cctx.IsSet("mem-store") {
			cfg.Store.InMemory = cctx.Bool("mem-store")
		}
		if proxy := strings.TrimSpace(cctx.String("jaeger-proxy")); len(proxy) != 0 {
			cfg.Trace.JaegerTracingEnabled = true
			cfg.Trace.JaegerEndpoint = proxy
			cfg.Trace.ProbabilitySampler = cctx.Float64("trace-sampler")
			cfg.Trace.ServerName = cctx.String("trace-node-name")
		}

		return RunMain(cctx.Context, cctx.String("listen"), repoDir, cfg)
	},
}

func RunMain(ctx context.Context, listen, repoDir string, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Infof("walletbridge current version %s, listen %s", version.UserVersion, listen)

	var st store.Store
	var err error
	if cfg.Store.InMemory {
		st = store.NewMemStore()
	} else {
		st, err = store.NewBadgerStore(filepath.Join(repoDir, cfg.Store.DataDir))
		if err != nil {
			return err
		}
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Errorf("closing store: %v", err)
		}
	}()

	registry := networks.NewRegistry()
	validator := networks.NewValidator(registry, cfg.Networks.Supported)
	bus := eventbus.NewBus()
	defer bus.Shutdown()

	hub := notify.NewHub(cfg.UI)
	defer hub.Close()
	sink := notify.Multi{notify.NewLogSink(), hub}

	walletProvider := provider.New(ctx, cfg.Provider)
	defer walletProvider.Close()

	mgr := walletmgr.NewManager(walletProvider, validator, st, bus, sink, cfg.UI)
	mgr.Init(ctx)
	defer mgr.Cleanup()

	bridgeAPI := api.NewBridgeAPI(mgr, bus, registry, validator)

	router := mux.NewRouter()
	rpcServer := jsonrpc.NewServer()
	rpcServer.Register("WalletBridge", bridgeAPI)
	router.Handle("/rpc/v1", rpcServer)
	router.Handle("/ws", hub)
	router.Handle("/healthz", healthcheck.Handler(
		healthcheck.WithTimeout(5*time.Second),
		healthcheck.WithChecker("provider", healthcheck.CheckerFunc(func(ctx context.Context) error {
			// the null provider is a valid deployment, only report state
			if !walletProvider.IsInstalled(ctx) {
				log.Debug("healthcheck: wallet not installed")
			}
			return nil
		})),
	))

	if err := bridgemetrics.SetupMetrics(ctx, cfg.Metrics, hub.ClientCount); err != nil {
		return err
	}

	handler := (http.Handler)(router)
	if reporter, err := metrics.RegisterJaeger(cfg.Trace.ServerName, cfg.Trace); err != nil {
		log.Errorf("register jaeger exporter failed %v", err)
	} else if reporter != nil {
		log.Infof("register jaeger-tracing exporter to %s, with node-name:%s", cfg.Trace.JaegerEndpoint, cfg.Trace.ServerName)
		defer metrics.UnregisterJaeger(reporter)
		handler = &ochttp.Handler{Handler: handler}
	}
	srv := &http.Server{Handler: handler}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.Warnw("received shutdown", "signal", sig)
		case <-ctx.Done():
			log.Warn("received shutdown")
		}

		log.Info("Shutting down...")
		if err := srv.Shutdown(context.TODO()); err != nil {
			log.Errorf("shutting down RPC server failed: %s", err)
		}
	}()

	addr, err := multiaddr.NewMultiaddr(listen)
	if err != nil {
		return err
	}

	nl, err := manet.Listen(addr)
	if err != nil {
		return err
	}

	bridgemetrics.ApiState.Set(ctx, 1)
	log.Infof("start to rpc listen %s", nl.Addr())
	if err = srv.Serve(manet.NetListener(nl)); err != nil && err != http.ErrServerClosed {
		return err
	}
	bridgemetrics.ApiState.Set(ctx, 0)

	log.Info("Graceful shutdown successful")
	return nil
}
