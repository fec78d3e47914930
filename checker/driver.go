// Package checker implements the checkpoint finality state machine: it
// drives a checkpoint batch from creation through proof submission, L1
// anchoring, and depth-based finalization, and asserts the protocol
// invariants along the way.
//
// Three independently-progressing timelines meet here: L2 block
// production (the sequencer creates batches), proof generation (bounded
// by the timeout fallback), and L1 confirmation depth. A check is
// single-shot per index and must not run concurrently with another check
// of the same index.
package checker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/MdTeach/strata/metrics"
	"github.com/MdTeach/strata/seqrpc"
	"github.com/MdTeach/strata/wait"
)

// SequencerClient is the slice of the sequencer RPC surface the checker
// consumes.
type SequencerClient interface {
	SyncStatus(ctx context.Context) (*seqrpc.SyncStatus, error)
	GetCheckpointInfo(ctx context.Context, idx uint64) (*seqrpc.CheckpointInfo, error)
	SubmitCheckpointProof(ctx context.Context, idx uint64, proofHex string) error
	L1Status(ctx context.Context) (*seqrpc.L1Status, error)
}

// Checker drives checkpoint finality checks against a live sequencer and
// L1 node.
type Checker struct {
	seq  SequencerClient
	log  log.Logger
	metr metrics.Metricer
	cfg  Config

	mu     sync.Mutex
	states map[uint64]seqrpc.CheckpointState
}

func NewChecker(seq SequencerClient, logger log.Logger, metr metrics.Metricer, cfg Config) *Checker {
	return &Checker{
		seq:    seq,
		log:    logger.New("role", "checker"),
		metr:   metr,
		cfg:    cfg.withDefaults(),
		states: make(map[uint64]seqrpc.CheckpointState),
	}
}

// State reports the lifecycle state the checker has observed for idx.
// Batches the checker has never touched are Pending.
func (c *Checker) State(idx uint64) seqrpc.CheckpointState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[idx]
}

func (c *Checker) setState(idx uint64, s seqrpc.CheckpointState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s > c.states[idx] {
		c.states[idx] = s
	}
}

// CheckNthCheckpointFinalized drives the checkpoint at idx all the way to
// finalization and fails if any phase times out or an invariant breaks.
//
// Phases: wait for the batch info to exist, assert the sequencing
// invariants, run the proof arbiter, advance L1 depth (manually if
// configured), then wait for the finalized block id to reach the batch's
// L2 block.
func (c *Checker) CheckNthCheckpointFinalized(ctx context.Context, idx uint64) error {
	c.metr.RecordCheckStarted(idx)
	if err := c.checkFinalized(ctx, idx); err != nil {
		c.metr.RecordCheckFailed(idx)
		return err
	}
	c.metr.RecordCheckPassed(idx)
	return nil
}

func (c *Checker) checkFinalized(ctx context.Context, idx uint64) error {
	syncStat, err := c.seq.SyncStatus(ctx)
	if err != nil {
		return fmt.Errorf("reading sync status: %w", err)
	}

	batch, err := wait.UntilWithValue(ctx, func() (*seqrpc.CheckpointInfo, error) {
		return c.seq.GetCheckpointInfo(ctx, idx)
	}, func(info *seqrpc.CheckpointInfo) bool {
		return info != nil
	}, wait.Opts{
		Msg:     fmt.Sprintf("could not find checkpoint info for index %d", idx),
		Timeout: c.cfg.InfoTimeout,
		Step:    c.cfg.PollStep,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCheckpointInfoUnavailable, err)
	}
	c.log.Info("Found checkpoint batch", "idx", idx, "l2_blockid", batch.L2BlockID)

	// The batch must not already be finalized; these checks are
	// single-shot per index.
	if syncStat.FinalizedBlockID == batch.L2BlockID {
		return fmt.Errorf("%w: idx %d, block %s", ErrPrematureFinalization, idx, batch.L2BlockID)
	}
	if batch.Idx != idx {
		return fmt.Errorf("%w: requested idx %d but got %d", ErrSequenceViolation, idx, batch.Idx)
	}
	// Indices are strictly sequential with no gaps: the next batch must
	// not exist before this one's proof lands.
	next, err := c.seq.GetCheckpointInfo(ctx, idx+1)
	if err != nil {
		return fmt.Errorf("reading checkpoint info for %d: %w", idx+1, err)
	}
	if next != nil {
		return fmt.Errorf("%w: checkpoint %d exists before %d submitted its proof", ErrSequenceViolation, idx+1, idx)
	}

	if err := c.submitOrWait(ctx, idx); err != nil {
		return err
	}

	if mg := c.cfg.ManualGen; mg != nil {
		// finality_depth+1 blocks both confirm the anchor and push it
		// past the finality threshold in one step.
		if _, err := mg.Miner.GenerateToAddress(mg.FinalityDepth+1, mg.GenAddr); err != nil {
			return fmt.Errorf("generating finality blocks: %w", err)
		}
		c.metr.RecordBlocksGenerated(int(mg.FinalityDepth + 1))
	}

	err = wait.Until(ctx, func() (bool, error) {
		status, err := c.seq.SyncStatus(ctx)
		if err != nil {
			return false, err
		}
		return status.FinalizedBlockID == batch.L2BlockID, nil
	}, wait.Opts{
		Msg:     "block not finalized",
		Timeout: c.cfg.FinalityTimeout,
		Step:    c.cfg.PollStep,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFinalizationTimedOut, err)
	}
	c.setState(idx, seqrpc.Finalized)
	c.log.Info("Checkpoint finalized", "idx", idx, "l2_blockid", batch.L2BlockID)
	return nil
}

// CheckSubmitProofFailsForNonexistentBatch asserts the negative proof
// path: submitting a proof for a batch that does not exist must fail with
// the checkpoint-does-not-exist error code, never succeed and never
// silently no-op.
func (c *Checker) CheckSubmitProofFailsForNonexistentBatch(ctx context.Context, idx uint64) error {
	err := c.seq.SubmitCheckpointProof(ctx, idx, "")
	if err == nil {
		return fmt.Errorf("submitting proof for nonexistent checkpoint %d unexpectedly succeeded", idx)
	}
	if !errors.Is(err, seqrpc.ErrCheckpointDoesNotExist) {
		return fmt.Errorf("expected checkpoint-does-not-exist for idx %d, got: %w", idx, err)
	}
	c.log.Info("Nonexistent batch proof rejected as expected", "idx", idx)
	return nil
}
