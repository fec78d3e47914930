package checker

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/MdTeach/strata/wait"
)

// Poll budgets for the phases of a finality check. The checkpoint-info
// wait is short (the batch should already exist when a check starts); the
// finality wait is the longest, covering proof posting plus confirmation
// depth.
const (
	DefaultInfoTimeout     = 3 * time.Second
	DefaultAnchorTimeout   = 5 * time.Second
	DefaultConfirmTimeout  = 5 * time.Second
	DefaultFinalityTimeout = 10 * time.Second

	// DefaultGraceDelta pads the proof timeout in the no-submission
	// branch, covering sequencer scheduling slack.
	DefaultGraceDelta = time.Second
)

// L1Miner is the slice of the bitcoind client the checker drives when
// manual generation is configured.
type L1Miner interface {
	GenerateToAddress(n int64, addr btcutil.Address) ([]*chainhash.Hash, error)
	Confirmations(txid string) (int64, error)
}

// ManualGenConfig enables deterministic confirmation-depth advancement by
// mining blocks on demand instead of waiting for organic block arrival.
type ManualGenConfig struct {
	Miner         L1Miner
	FinalityDepth int64
	GenAddr       btcutil.Address
}

// Config tunes a Checker. The zero value gets defaults applied by
// NewChecker.
type Config struct {
	// ManualGen, when non-nil, mines FinalityDepth+1 blocks after proof
	// submission instead of relying on natural block production.
	ManualGen *ManualGenConfig

	// ProofTimeout, when non-nil, switches the proof arbiter into the
	// no-submission branch: the check waits ProofTimeout+GraceDelta for
	// the sequencer's own empty-proof fallback to fire.
	ProofTimeout *time.Duration

	GraceDelta time.Duration

	InfoTimeout     time.Duration
	AnchorTimeout   time.Duration
	ConfirmTimeout  time.Duration
	FinalityTimeout time.Duration
	PollStep        time.Duration
}

func (c Config) withDefaults() Config {
	if c.GraceDelta <= 0 {
		c.GraceDelta = DefaultGraceDelta
	}
	if c.InfoTimeout <= 0 {
		c.InfoTimeout = DefaultInfoTimeout
	}
	if c.AnchorTimeout <= 0 {
		c.AnchorTimeout = DefaultAnchorTimeout
	}
	if c.ConfirmTimeout <= 0 {
		c.ConfirmTimeout = DefaultConfirmTimeout
	}
	if c.FinalityTimeout <= 0 {
		c.FinalityTimeout = DefaultFinalityTimeout
	}
	if c.PollStep <= 0 {
		c.PollStep = wait.DefaultStep
	}
	return c
}
