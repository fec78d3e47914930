package seqrpc

// CheckpointState tracks where a checkpoint batch sits in its lifecycle.
// Transitions only move forward; a batch is never deleted, only superseded
// once finalization is confirmed.
type CheckpointState int

const (
	// Pending: the sequencer created the batch but no proof has landed.
	Pending CheckpointState = iota
	// ProofSubmitted: a proof (real or timeout fallback) was accepted.
	ProofSubmitted
	// Anchored: the proof envelope was observed in an L1 transaction.
	Anchored
	// Finalized: the anchor transaction reached finality depth.
	Finalized
)

func (s CheckpointState) String() string {
	switch s {
	case Pending:
		return "pending"
	case ProofSubmitted:
		return "proof_submitted"
	case Anchored:
		return "anchored"
	case Finalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// SyncStatus is the sequencer's view of chain sync, as returned by
// strata_syncStatus. FinalizedBlockID never regresses.
type SyncStatus struct {
	TipHeight        uint64 `json:"tip_height"`
	TipBlockID       string `json:"tip_block_id"`
	FinalizedBlockID string `json:"finalized_block_id"`
}

// CheckpointInfo describes one checkpoint batch, as returned by
// strata_getCheckpointInfo. Indices are strictly sequential: info for
// idx+1 does not exist until idx's proof has been submitted.
type CheckpointInfo struct {
	Idx uint64 `json:"idx"`
	// L1Range and L2Range are inclusive [start, end] block ranges the
	// batch covers on each chain.
	L1Range [2]uint64 `json:"l1_range"`
	L2Range [2]uint64 `json:"l2_range"`
	// L2BlockID is the batch's anchor point on L2; it is the id that
	// SyncStatus.FinalizedBlockID takes once the batch finalizes.
	L2BlockID string `json:"l2_blockid"`
}

// L1Status is the sequencer's writer-side view of L1, as returned by
// strata_l1status.
type L1Status struct {
	BitcoinRPCConnected bool   `json:"bitcoin_rpc_connected"`
	CurHeight           uint64 `json:"cur_height"`
	CurTip              string `json:"cur_tip"`
	// LastPublishedTxid is the most recent proof-envelope transaction the
	// sequencer broadcast; empty before the first publish.
	LastPublishedTxid string `json:"last_published_txid"`
}
