// Package seqrpc is a client for the Strata sequencer's strata_* RPC
// namespace. It exposes the small query/command surface the finality
// checks drive: sync status, checkpoint info, proof submission, the L1
// writer status, and the active operator key set.
package seqrpc

import (
	"context"

	"github.com/ethereum/go-ethereum/rpc"
)

// Client calls the sequencer over a raw RPC connection.
type Client struct {
	rpc *rpc.Client
}

func NewClient(rpc *rpc.Client) *Client {
	return &Client{rpc: rpc}
}

// Dial connects to the sequencer RPC endpoint.
func Dial(ctx context.Context, endpoint string) (*Client, error) {
	cl, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return NewClient(cl), nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

// SyncStatus returns the sequencer's current sync view.
func (c *Client) SyncStatus(ctx context.Context) (*SyncStatus, error) {
	var status SyncStatus
	if err := c.rpc.CallContext(ctx, &status, "strata_syncStatus"); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetCheckpointInfo returns info for the checkpoint at idx, or nil if the
// sequencer has not created that batch yet. A missing batch is not an
// error: callers poll on a nil result.
func (c *Client) GetCheckpointInfo(ctx context.Context, idx uint64) (*CheckpointInfo, error) {
	var info *CheckpointInfo
	if err := c.rpc.CallContext(ctx, &info, "strata_getCheckpointInfo", idx); err != nil {
		return nil, err
	}
	return info, nil
}

// SubmitCheckpointProof submits a proof payload for the checkpoint at idx.
// The payload may be empty when the rollup runs in timeout-tolerant proof
// mode. Returns ErrCheckpointDoesNotExist for an index with no batch and
// ErrProofAlreadyCreated for a double submission.
func (c *Client) SubmitCheckpointProof(ctx context.Context, idx uint64, proofHex string) error {
	err := c.rpc.CallContext(ctx, nil, "strataadmin_submitCheckpointProof", idx, proofHex)
	return decodeErr(err)
}

// L1Status returns the sequencer's L1 writer status, including the txid of
// the most recently published proof envelope.
func (c *Client) L1Status(ctx context.Context) (*L1Status, error) {
	var status L1Status
	if err := c.rpc.CallContext(ctx, &status, "strata_l1status"); err != nil {
		return nil, err
	}
	return &status, nil
}

// ProtocolVersion doubles as the liveness probe: it errors until the
// sequencer has fully started.
func (c *Client) ProtocolVersion(ctx context.Context) (uint64, error) {
	var version uint64
	if err := c.rpc.CallContext(ctx, &version, "strata_protocolVersion"); err != nil {
		return 0, err
	}
	return version, nil
}

// ActiveOperatorPubkeys returns the active operator key set, keyed by the
// operator's decimal index. Keys are hex-encoded compressed pubkeys.
func (c *Client) ActiveOperatorPubkeys(ctx context.Context) (map[string]string, error) {
	var keys map[string]string
	if err := c.rpc.CallContext(ctx, &keys, "strata_getActiveOperatorChainPubkeySet"); err != nil {
		return nil, err
	}
	return keys, nil
}
