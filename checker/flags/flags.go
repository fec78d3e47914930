// Package flags holds the cli flags for the strata-checker binary.
package flags

import (
	"time"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "STRATA_CHECKER"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	SequencerRPCFlag = &cli.StringFlag{
		Name:    "sequencer-rpc",
		Usage:   "Sequencer RPC endpoint",
		Value:   "http://127.0.0.1:8432",
		EnvVars: prefixEnvVars("SEQUENCER_RPC"),
	}
	BitcoindHostFlag = &cli.StringFlag{
		Name:    "bitcoind-host",
		Usage:   "bitcoind RPC host:port",
		Value:   "127.0.0.1:18443",
		EnvVars: prefixEnvVars("BITCOIND_HOST"),
	}
	BitcoindUserFlag = &cli.StringFlag{
		Name:    "bitcoind-user",
		Usage:   "bitcoind RPC username",
		Value:   "alpen",
		EnvVars: prefixEnvVars("BITCOIND_USER"),
	}
	BitcoindPassFlag = &cli.StringFlag{
		Name:    "bitcoind-pass",
		Usage:   "bitcoind RPC password",
		Value:   "alpen",
		EnvVars: prefixEnvVars("BITCOIND_PASS"),
	}
	FinalityDepthFlag = &cli.Int64Flag{
		Name:    "finality-depth",
		Usage:   "L1 confirmations required before a checkpoint anchor is final",
		Value:   2,
		EnvVars: prefixEnvVars("FINALITY_DEPTH"),
	}
	CheckpointStartFlag = &cli.Uint64Flag{
		Name:    "checkpoint-start",
		Usage:   "First checkpoint index to check",
		Value:   0,
		EnvVars: prefixEnvVars("CHECKPOINT_START"),
	}
	CheckpointCountFlag = &cli.Uint64Flag{
		Name:    "checkpoint-count",
		Usage:   "Number of consecutive checkpoints to check",
		Value:   1,
		EnvVars: prefixEnvVars("CHECKPOINT_COUNT"),
	}
	ProofTimeoutFlag = &cli.DurationFlag{
		Name:    "proof-timeout",
		Usage:   "Wait for the sequencer's empty-proof fallback instead of submitting (0 disables)",
		Value:   0,
		EnvVars: prefixEnvVars("PROOF_TIMEOUT"),
	}
	ManualGenFlag = &cli.BoolFlag{
		Name:    "manual-gen",
		Usage:   "Mine finality blocks on demand instead of waiting for organic block arrival",
		Value:   true,
		EnvVars: prefixEnvVars("MANUAL_GEN"),
	}
	AmbientGenFlag = &cli.BoolFlag{
		Name:    "ambient-gen",
		Usage:   "Run a background block generator alongside the checks",
		Value:   false,
		EnvVars: prefixEnvVars("AMBIENT_GEN"),
	}
	AmbientGenIntervalFlag = &cli.DurationFlag{
		Name:    "ambient-gen-interval",
		Usage:   "Interval between ambient generator blocks",
		Value:   500 * time.Millisecond,
		EnvVars: prefixEnvVars("AMBIENT_GEN_INTERVAL"),
	}
	MetricsEnabledFlag = &cli.BoolFlag{
		Name:    "metrics.enabled",
		Usage:   "Enable the metrics server",
		EnvVars: prefixEnvVars("METRICS_ENABLED"),
	}
	MetricsAddrFlag = &cli.StringFlag{
		Name:    "metrics.addr",
		Usage:   "Metrics listening address",
		Value:   "0.0.0.0",
		EnvVars: prefixEnvVars("METRICS_ADDR"),
	}
	MetricsPortFlag = &cli.IntFlag{
		Name:    "metrics.port",
		Usage:   "Metrics listening port",
		Value:   7300,
		EnvVars: prefixEnvVars("METRICS_PORT"),
	}
	LogLevelFlag = &cli.StringFlag{
		Name:    "log.level",
		Usage:   "Lowest log level that will be output",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
	}
)

var Flags = []cli.Flag{
	SequencerRPCFlag,
	BitcoindHostFlag,
	BitcoindUserFlag,
	BitcoindPassFlag,
	FinalityDepthFlag,
	CheckpointStartFlag,
	CheckpointCountFlag,
	ProofTimeoutFlag,
	ManualGenFlag,
	AmbientGenFlag,
	AmbientGenIntervalFlag,
	MetricsEnabledFlag,
	MetricsAddrFlag,
	MetricsPortFlag,
	LogLevelFlag,
}
