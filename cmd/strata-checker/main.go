package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/MdTeach/strata/bridge"
	"github.com/MdTeach/strata/btcio"
	"github.com/MdTeach/strata/checker"
	"github.com/MdTeach/strata/checker/flags"
	"github.com/MdTeach/strata/metrics"
	"github.com/MdTeach/strata/params"
	"github.com/MdTeach/strata/seqrpc"
)

var Version = "v0.1.0"

func main() {
	app := cli.NewApp()
	app.Name = "strata-checker"
	app.Version = Version
	app.Usage = "checkpoint finality checker for the strata rollup"
	app.Flags = flags.Flags
	app.Action = runChecks
	app.Commands = []*cli.Command{
		{
			Name:   "bridge-key",
			Usage:  "aggregate the active operator pubkeys into the bridge key",
			Flags:  flags.Flags,
			Action: runBridgeKey,
		},
		{
			Name:  "gen-params",
			Usage: "generate a rollup params set via strata-datatool",
			Flags: append([]cli.Flag{
				&cli.StringFlag{Name: "settings", Usage: "TOML settings file (defaults used if unset)"},
				&cli.IntFlag{Name: "operators", Usage: "number of operators", Value: 2},
				&cli.StringFlag{Name: "out-dir", Usage: "directory for seed artifacts", Value: "."},
			}, flags.Flags...),
			Action: runGenParams,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Application failed:", err)
		os.Exit(1)
	}
}

func newLogger(cliCtx *cli.Context) (log.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(cliCtx.String(flags.LogLevelFlag.Name))); err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	return log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stdout, lvl, false)), nil
}

func runChecks(cliCtx *cli.Context) error {
	logger, err := newLogger(cliCtx)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cliCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	seq, err := seqrpc.Dial(ctx, cliCtx.String(flags.SequencerRPCFlag.Name))
	if err != nil {
		return fmt.Errorf("dialing sequencer: %w", err)
	}
	defer seq.Close()

	btc, err := btcio.NewClient(btcio.Config{
		Host: cliCtx.String(flags.BitcoindHostFlag.Name),
		User: cliCtx.String(flags.BitcoindUserFlag.Name),
		Pass: cliCtx.String(flags.BitcoindPassFlag.Name),
	})
	if err != nil {
		return fmt.Errorf("connecting to bitcoind: %w", err)
	}
	defer btc.Close()

	metr := metrics.NewMetrics()
	g, ctx := errgroup.WithContext(ctx)
	if cliCtx.Bool(flags.MetricsEnabledFlag.Name) {
		addr := net.JoinHostPort(cliCtx.String(flags.MetricsAddrFlag.Name), strconv.Itoa(cliCtx.Int(flags.MetricsPortFlag.Name)))
		g.Go(func() error {
			return serveMetrics(ctx, logger, metr, addr)
		})
	}

	cfg := checker.Config{}
	if d := cliCtx.Duration(flags.ProofTimeoutFlag.Name); d > 0 {
		cfg.ProofTimeout = &d
	}
	if cliCtx.Bool(flags.ManualGenFlag.Name) {
		genAddr, err := btc.GetNewAddress()
		if err != nil {
			return fmt.Errorf("getting generation address: %w", err)
		}
		cfg.ManualGen = &checker.ManualGenConfig{
			Miner:         btc,
			FinalityDepth: cliCtx.Int64(flags.FinalityDepthFlag.Name),
			GenAddr:       genAddr,
		}
	}

	if cliCtx.Bool(flags.AmbientGenFlag.Name) {
		genAddr, err := btc.GetNewAddress()
		if err != nil {
			return fmt.Errorf("getting ambient generation address: %w", err)
		}
		gen := btcio.NewGenerator(btc, logger, metr, cliCtx.Duration(flags.AmbientGenIntervalFlag.Name), genAddr)
		gen.Start()
		defer gen.Stop()
	}

	c := checker.NewChecker(seq, logger, metr, cfg)
	metr.RecordUp()

	start := cliCtx.Uint64(flags.CheckpointStartFlag.Name)
	count := cliCtx.Uint64(flags.CheckpointCountFlag.Name)
	for idx := start; idx < start+count; idx++ {
		logger.Info("Checking checkpoint finalization", "idx", idx)
		if err := c.CheckNthCheckpointFinalized(ctx, idx); err != nil {
			return fmt.Errorf("checkpoint %d: %w", idx, err)
		}
		logger.Info("Checkpoint finalization check passed", "idx", idx)
	}

	stop() // release the signal context so the metrics server exits
	return g.Wait()
}

func runBridgeKey(cliCtx *cli.Context) error {
	logger, err := newLogger(cliCtx)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cliCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	seq, err := seqrpc.Dial(ctx, cliCtx.String(flags.SequencerRPCFlag.Name))
	if err != nil {
		return fmt.Errorf("dialing sequencer: %w", err)
	}
	defer seq.Close()

	agg := bridge.NewAggregator(seq, metrics.NoopMetrics)
	key, err := agg.BridgePubkey(ctx)
	if err != nil {
		return err
	}
	logger.Info("Aggregated bridge pubkey", "key", key)
	fmt.Println(key)
	return nil
}

func runGenParams(cliCtx *cli.Context) error {
	logger, err := newLogger(cliCtx)
	if err != nil {
		return err
	}

	settings := params.DefaultSettings()
	if path := cliCtx.String("settings"); path != "" {
		settings, err = params.LoadSettings(path)
		if err != nil {
			return err
		}
	}

	tool := params.NewDatatool(logger)
	res, err := tool.GenerateSimpleParams(cliCtx.String("out-dir"), settings, cliCtx.Int("operators"))
	if err != nil {
		return err
	}
	fmt.Println(res.Params)
	return nil
}

func serveMetrics(ctx context.Context, logger log.Logger, metr *metrics.Metrics, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metr.Registry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Starting metrics server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
