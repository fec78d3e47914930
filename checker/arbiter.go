package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/MdTeach/strata/seqrpc"
	"github.com/MdTeach/strata/wait"
)

// The proof arbiter decides, per checkpoint index, whether a real proof is
// submitted or the sequencer's timeout-triggered empty proof is waited
// out. Both branches satisfy the same observable contract: a new
// published txid eventually appears in the sequencer's L1 status.

// submitOrWait runs the submission branch selected by the configured
// proof timeout and returns once the checkpoint's proof is in flight.
func (c *Checker) submitOrWait(ctx context.Context, idx uint64) error {
	if c.cfg.ProofTimeout == nil {
		return c.submitProof(ctx, idx)
	}

	// No submission: the sequencer posts an empty fallback proof once its
	// own timeout fires. The grace delta covers its scheduling slack.
	delay := *c.cfg.ProofTimeout + c.cfg.GraceDelta
	c.log.Info("Waiting out proof timeout for sequencer fallback", "idx", idx, "delay", delay)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
	}
	c.setState(idx, seqrpc.ProofSubmitted)
	return nil
}

// submitProof posts an empty proof payload (valid in timeout-tolerant
// proof mode) and waits until the sequencer publishes it to L1.
func (c *Checker) submitProof(ctx context.Context, idx uint64) error {
	l1, err := c.seq.L1Status(ctx)
	if err != nil {
		return fmt.Errorf("reading l1 status: %w", err)
	}
	prevTxid := l1.LastPublishedTxid

	if err := c.seq.SubmitCheckpointProof(ctx, idx, ""); err != nil {
		return fmt.Errorf("submitting proof for checkpoint %d: %w", idx, err)
	}
	c.metr.RecordProofSubmitted(idx)
	c.setState(idx, seqrpc.ProofSubmitted)
	c.log.Info("Submitted checkpoint proof", "idx", idx)

	txid, err := c.awaitAnchoring(ctx, prevTxid)
	if err != nil {
		return err
	}
	c.setState(idx, seqrpc.Anchored)
	c.log.Info("Proof envelope published to L1", "idx", idx, "txid", txid)

	if mg := c.cfg.ManualGen; mg != nil {
		if _, err := mg.Miner.GenerateToAddress(1, mg.GenAddr); err != nil {
			return fmt.Errorf("generating confirmation block: %w", err)
		}
		c.metr.RecordBlocksGenerated(1)
		err := wait.Until(ctx, func() (bool, error) {
			confs, err := mg.Miner.Confirmations(txid)
			if err != nil {
				return false, err
			}
			return confs > 0, nil
		}, wait.Opts{
			Msg:     "published envelope not confirmed",
			Timeout: c.cfg.ConfirmTimeout,
			Step:    c.cfg.PollStep,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAnchorUnconfirmed, err)
		}
	}
	return nil
}

// awaitAnchoring polls the sequencer's L1 status until the last published
// txid differs from prevTxid, returning the new txid.
func (c *Checker) awaitAnchoring(ctx context.Context, prevTxid string) (string, error) {
	txid, err := wait.UntilWithValue(ctx, func() (string, error) {
		l1, err := c.seq.L1Status(ctx)
		if err != nil {
			return "", err
		}
		return l1.LastPublishedTxid, nil
	}, func(txid string) bool {
		return txid != prevTxid
	}, wait.Opts{
		Msg:     "proof was not published to bitcoin",
		Timeout: c.cfg.AnchorTimeout,
		Step:    c.cfg.PollStep,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAnchorNotObserved, err)
	}
	c.metr.RecordAnchorObserved(txid)
	return txid, nil
}
