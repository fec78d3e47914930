package seqrpc

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
)

// RPC error codes the sequencer returns for checkpoint-proof submission.
// These are part of the sequencer's wire contract.
const (
	codeProofAlreadyCreated    = -32611
	codeCheckpointDoesNotExist = -32610
)

var (
	// ErrCheckpointDoesNotExist is returned when a proof is submitted for
	// a checkpoint index the sequencer has not created yet.
	ErrCheckpointDoesNotExist = errors.New("checkpoint does not exist")
	// ErrProofAlreadyCreated is returned when a proof was already accepted
	// for the checkpoint index.
	ErrProofAlreadyCreated = errors.New("checkpoint proof already created")
)

// decodeErr maps coded sequencer RPC failures onto the closed set of error
// kinds above. Anything without a recognized code passes through unchanged
// so callers can still distinguish transport failures.
func decodeErr(err error) error {
	if err == nil {
		return nil
	}
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return err
	}
	switch rpcErr.ErrorCode() {
	case codeCheckpointDoesNotExist:
		return fmt.Errorf("%w: %v", ErrCheckpointDoesNotExist, err)
	case codeProofAlreadyCreated:
		return fmt.Errorf("%w: %v", ErrProofAlreadyCreated, err)
	default:
		return err
	}
}
