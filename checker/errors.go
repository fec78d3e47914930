package checker

import "errors"

// Fatal failure kinds surfaced by a finality check. All of these abort the
// running check; none are retried beyond the bounded polling built into
// the wait primitive.
var (
	// ErrCheckpointInfoUnavailable: checkpoint info for the requested
	// index never appeared within the poll budget.
	ErrCheckpointInfoUnavailable = errors.New("checkpoint info unavailable")

	// ErrPrematureFinalization: the batch's L2 block was already the
	// network's finalized block before the check ran. Re-running a check
	// against an already-finalized index fails here on purpose; checks
	// are single-shot per index.
	ErrPrematureFinalization = errors.New("checkpoint block already finalized")

	// ErrSequenceViolation: the collaborator's responses broke the
	// strictly-sequential checkpoint index invariant.
	ErrSequenceViolation = errors.New("checkpoint sequence violation")

	// ErrAnchorNotObserved: proof submission did not produce a new
	// published L1 transaction in time.
	ErrAnchorNotObserved = errors.New("anchor transaction not observed")

	// ErrAnchorUnconfirmed: the anchor transaction never confirmed after
	// manual block generation.
	ErrAnchorUnconfirmed = errors.New("anchor transaction not confirmed")

	// ErrFinalizationTimedOut: the finalized block id never reached the
	// batch's L2 block within the finality wait.
	ErrFinalizationTimedOut = errors.New("finalization timed out")
)
