package checker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/MdTeach/strata/metrics"
	"github.com/MdTeach/strata/seqrpc"
)

type testAddr string

func (a testAddr) EncodeAddress() string          { return string(a) }
func (a testAddr) ScriptAddress() []byte          { return []byte(a) }
func (a testAddr) IsForNet(*chaincfg.Params) bool { return true }
func (a testAddr) String() string                 { return string(a) }

var _ btcutil.Address = testAddr("")

// fakeEnv models the sequencer and the L1 node together: proof submission
// publishes an anchor txid and unlocks the next batch; mining confirms the
// anchor and, past finality depth, moves the finalized block id.
type fakeEnv struct {
	mu sync.Mutex

	checkpoints map[uint64]*seqrpc.CheckpointInfo
	submitted   map[uint64]bool

	lastPublished string
	anchorIdx     uint64
	anchorConfs   int64

	finalityDepth int64
	finalizedID   string
	finalizedLog  []string

	// suppressPublish keeps a submitted proof out of L1 status, to
	// exercise the anchor-not-observed path.
	suppressPublish bool
	// holdFinality keeps the finalized block id pinned regardless of
	// depth, to exercise the finalization timeout path.
	holdFinality bool

	mined int64
}

func newFakeEnv(finalityDepth int64) *fakeEnv {
	env := &fakeEnv{
		checkpoints:   make(map[uint64]*seqrpc.CheckpointInfo),
		submitted:     make(map[uint64]bool),
		finalityDepth: finalityDepth,
	}
	env.addCheckpointLocked(0)
	return env
}

func (e *fakeEnv) addCheckpointLocked(idx uint64) {
	e.checkpoints[idx] = &seqrpc.CheckpointInfo{
		Idx:       idx,
		L2BlockID: fmt.Sprintf("blk-%d", idx),
	}
}

func (e *fakeEnv) SyncStatus(context.Context) (*seqrpc.SyncStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return &seqrpc.SyncStatus{FinalizedBlockID: e.finalizedID}, nil
}

func (e *fakeEnv) GetCheckpointInfo(_ context.Context, idx uint64) (*seqrpc.CheckpointInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	info, ok := e.checkpoints[idx]
	if !ok {
		return nil, nil
	}
	cp := *info
	return &cp, nil
}

func (e *fakeEnv) SubmitCheckpointProof(_ context.Context, idx uint64, proofHex string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.checkpoints[idx]; !ok {
		return fmt.Errorf("%w: idx %d", seqrpc.ErrCheckpointDoesNotExist, idx)
	}
	if e.submitted[idx] {
		return fmt.Errorf("%w: idx %d", seqrpc.ErrProofAlreadyCreated, idx)
	}
	e.acceptProofLocked(idx)
	return nil
}

// acceptProofLocked is what proof acceptance does on the sequencer:
// publish the envelope (unless suppressed) and create the next batch.
func (e *fakeEnv) acceptProofLocked(idx uint64) {
	e.submitted[idx] = true
	if !e.suppressPublish {
		e.lastPublished = fmt.Sprintf("txid-%d", idx)
		e.anchorIdx = idx
		e.anchorConfs = 0
	}
	e.addCheckpointLocked(idx + 1)
}

// fallbackProof mimics the sequencer's autonomous empty-proof submission
// when the proof timeout fires.
func (e *fakeEnv) fallbackProof(idx uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.submitted[idx] {
		e.acceptProofLocked(idx)
	}
}

func (e *fakeEnv) L1Status(context.Context) (*seqrpc.L1Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return &seqrpc.L1Status{LastPublishedTxid: e.lastPublished}, nil
}

func (e *fakeEnv) GenerateToAddress(n int64, addr btcutil.Address) ([]*chainhash.Hash, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mined += n
	if e.lastPublished != "" {
		e.anchorConfs += n
		if e.anchorConfs > e.finalityDepth && !e.holdFinality {
			id := e.checkpoints[e.anchorIdx].L2BlockID
			if id != e.finalizedID {
				e.finalizedID = id
				e.finalizedLog = append(e.finalizedLog, id)
			}
		}
	}
	hashes := make([]*chainhash.Hash, n)
	for i := range hashes {
		hashes[i] = new(chainhash.Hash)
	}
	return hashes, nil
}

func (e *fakeEnv) Confirmations(txid string) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.anchorConfs, nil
}

func (e *fakeEnv) minedBlocks() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mined
}

func testConfig(env *fakeEnv, proofTimeout *time.Duration) Config {
	return Config{
		ManualGen: &ManualGenConfig{
			Miner:         env,
			FinalityDepth: env.finalityDepth,
			GenAddr:       testAddr("gen"),
		},
		ProofTimeout:    proofTimeout,
		GraceDelta:      10 * time.Millisecond,
		InfoTimeout:     100 * time.Millisecond,
		AnchorTimeout:   100 * time.Millisecond,
		ConfirmTimeout:  100 * time.Millisecond,
		FinalityTimeout: 200 * time.Millisecond,
		PollStep:        5 * time.Millisecond,
	}
}

func newTestChecker(env *fakeEnv, proofTimeout *time.Duration) *Checker {
	return NewChecker(env, log.NewLogger(log.DiscardHandler()), metrics.NoopMetrics, testConfig(env, proofTimeout))
}

func TestCheckpointFinalizedHappyPath(t *testing.T) {
	env := newFakeEnv(2)
	c := newTestChecker(env, nil)

	// Sequential-index invariant: batch 1 must not exist before batch 0's
	// proof lands.
	info, err := env.GetCheckpointInfo(context.Background(), 1)
	require.NoError(t, err)
	require.Nil(t, info)

	require.NoError(t, c.CheckNthCheckpointFinalized(context.Background(), 0))
	require.Equal(t, seqrpc.Finalized, c.State(0))

	// 1 confirmation block + finality_depth+1 finality blocks.
	require.Equal(t, int64(4), env.minedBlocks())

	info, err = env.GetCheckpointInfo(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, info, "proof submission unlocks the next batch")

	status, err := env.SyncStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, "blk-0", status.FinalizedBlockID)
}

func TestCheckpointFinalizedTimeoutFallback(t *testing.T) {
	env := newFakeEnv(2)
	proofTimeout := 30 * time.Millisecond
	c := newTestChecker(env, &proofTimeout)

	// The sequencer submits its own empty proof when the timeout fires;
	// the check makes no submission call.
	go func() {
		time.Sleep(proofTimeout)
		env.fallbackProof(0)
	}()

	require.NoError(t, c.CheckNthCheckpointFinalized(context.Background(), 0))
	require.Equal(t, seqrpc.Finalized, c.State(0))
}

func TestConsecutiveCheckpointsMonotonicFinality(t *testing.T) {
	env := newFakeEnv(2)
	c := newTestChecker(env, nil)

	require.NoError(t, c.CheckNthCheckpointFinalized(context.Background(), 0))
	require.NoError(t, c.CheckNthCheckpointFinalized(context.Background(), 1))

	require.Equal(t, []string{"blk-0", "blk-1"}, env.finalizedLog, "finalized block id only advances")
}

func TestRecheckFailsOnPrematureFinalization(t *testing.T) {
	env := newFakeEnv(2)
	c := newTestChecker(env, nil)

	require.NoError(t, c.CheckNthCheckpointFinalized(context.Background(), 0))

	// The check is single-shot per index: a second run must trip the
	// premature-finalization assertion.
	err := newTestChecker(env, nil).CheckNthCheckpointFinalized(context.Background(), 0)
	require.ErrorIs(t, err, ErrPrematureFinalization)
}

func TestCheckpointInfoUnavailable(t *testing.T) {
	env := newFakeEnv(2)
	c := newTestChecker(env, nil)

	err := c.CheckNthCheckpointFinalized(context.Background(), 7)
	require.ErrorIs(t, err, ErrCheckpointInfoUnavailable)
	require.ErrorContains(t, err, "could not find checkpoint info for index 7")
}

func TestIdxMismatchIsSequenceViolation(t *testing.T) {
	env := newFakeEnv(2)
	env.mu.Lock()
	env.checkpoints[0].Idx = 3 // inconsistent collaborator response
	env.mu.Unlock()
	c := newTestChecker(env, nil)

	err := c.CheckNthCheckpointFinalized(context.Background(), 0)
	require.ErrorIs(t, err, ErrSequenceViolation)
}

func TestPrematureNextBatchIsSequenceViolation(t *testing.T) {
	env := newFakeEnv(2)
	env.mu.Lock()
	env.addCheckpointLocked(1) // gap invariant broken
	env.mu.Unlock()
	c := newTestChecker(env, nil)

	err := c.CheckNthCheckpointFinalized(context.Background(), 0)
	require.ErrorIs(t, err, ErrSequenceViolation)
}

func TestAnchorNotObserved(t *testing.T) {
	env := newFakeEnv(2)
	env.suppressPublish = true
	c := newTestChecker(env, nil)

	err := c.CheckNthCheckpointFinalized(context.Background(), 0)
	require.ErrorIs(t, err, ErrAnchorNotObserved)
	require.ErrorContains(t, err, "proof was not published to bitcoin")
}

func TestFinalizationTimedOut(t *testing.T) {
	env := newFakeEnv(2)
	env.holdFinality = true
	c := newTestChecker(env, nil)

	err := c.CheckNthCheckpointFinalized(context.Background(), 0)
	require.ErrorIs(t, err, ErrFinalizationTimedOut)
	require.ErrorContains(t, err, "block not finalized")
}

func TestSubmitProofFailsForNonexistentBatch(t *testing.T) {
	env := newFakeEnv(2)
	c := newTestChecker(env, nil)

	require.NoError(t, c.CheckSubmitProofFailsForNonexistentBatch(context.Background(), 100))

	// An existing batch accepts the proof; the negative check must
	// report that as a failure.
	require.Error(t, c.CheckSubmitProofFailsForNonexistentBatch(context.Background(), 0))
}

func TestStateProgression(t *testing.T) {
	env := newFakeEnv(2)
	c := newTestChecker(env, nil)

	require.Equal(t, seqrpc.Pending, c.State(0))
	require.NoError(t, c.CheckNthCheckpointFinalized(context.Background(), 0))
	require.Equal(t, seqrpc.Finalized, c.State(0))
	require.Equal(t, seqrpc.Pending, c.State(1))
}
