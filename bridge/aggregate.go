// Package bridge derives the aggregated bridge pubkey that authorizes
// L1-side spends tied to finalized checkpoints. The key is a pure
// function of the ordered operator key set: keys are taken in strict
// index order, normalized to x-only form, and musig2-aggregated.
package bridge

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcec/v2/schnorr/musig2"
	"github.com/hashicorp/go-multierror"

	"github.com/MdTeach/strata/metrics"
	"github.com/MdTeach/strata/wait"
)

// ErrSequencerUnavailable is returned when the sequencer's liveness probe
// does not succeed within the startup wait.
var ErrSequencerUnavailable = errors.New("sequencer unavailable")

// Sequencer is the slice of the sequencer RPC surface the aggregator
// consumes.
type Sequencer interface {
	ProtocolVersion(ctx context.Context) (uint64, error)
	ActiveOperatorPubkeys(ctx context.Context) (map[string]string, error)
}

// Aggregator fetches the operator key set and aggregates it. Safe to call
// repeatedly; the result only changes if the operator set changes.
type Aggregator struct {
	seq  Sequencer
	metr metrics.Metricer

	// StartupWait bounds the liveness probe before the first fetch.
	StartupWait time.Duration
}

func NewAggregator(seq Sequencer, metr metrics.Metricer) *Aggregator {
	return &Aggregator{
		seq:         seq,
		metr:        metr,
		StartupWait: wait.DefaultTimeout,
	}
}

// BridgePubkey returns the aggregated bridge key as x-only hex.
func (a *Aggregator) BridgePubkey(ctx context.Context) (string, error) {
	err := wait.Until(ctx, func() (bool, error) {
		_, err := a.seq.ProtocolVersion(ctx)
		return err == nil, nil
	}, wait.Opts{Msg: "sequencer did not start on time", Timeout: a.StartupWait})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSequencerUnavailable, err)
	}

	keySet, err := a.seq.ActiveOperatorPubkeys(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching operator pubkeys: %w", err)
	}

	ordered, err := orderedKeys(keySet)
	if err != nil {
		return "", err
	}

	agg, err := AggregateKeys(ordered)
	if err != nil {
		return "", err
	}
	a.metr.RecordBridgeKeyAggregated(len(ordered))
	return agg, nil
}

// orderedKeys extracts the operator keys in ascending index order. The
// index range must be contiguous from 0: a gap is a protocol violation
// and fails loudly rather than being skipped.
func orderedKeys(keySet map[string]string) ([]*btcec.PublicKey, error) {
	var errs error
	keys := make([]*btcec.PublicKey, 0, len(keySet))
	for i := 0; i < len(keySet); i++ {
		raw, ok := keySet[strconv.Itoa(i)]
		if !ok {
			errs = multierror.Append(errs, fmt.Errorf("operator index %d missing from key set of size %d", i, len(keySet)))
			continue
		}
		pk, err := parseXOnly(raw)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("operator %d: %w", i, err))
			continue
		}
		keys = append(keys, pk)
	}
	if errs != nil {
		return nil, errs
	}
	return keys, nil
}

// parseXOnly normalizes a hex pubkey to its x-only form. Both 33-byte
// compressed and already-x-only 32-byte encodings are accepted; the
// parity byte is dropped.
func parseXOnly(raw string) (*btcec.PublicKey, error) {
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding pubkey hex: %w", err)
	}
	switch len(b) {
	case btcec.PubKeyBytesLenCompressed:
		full, err := btcec.ParsePubKey(b)
		if err != nil {
			return nil, fmt.Errorf("parsing compressed pubkey: %w", err)
		}
		return schnorr.ParsePubKey(schnorr.SerializePubKey(full))
	case schnorr.PubKeyBytesLen:
		return schnorr.ParsePubKey(b)
	default:
		return nil, fmt.Errorf("unexpected pubkey length %d", len(b))
	}
}

// AggregateKeys musig2-aggregates the given keys. Order matters: the
// aggregate is not invariant under permutation, so callers must pass keys
// in operator index order.
func AggregateKeys(keys []*btcec.PublicKey) (string, error) {
	if len(keys) == 0 {
		return "", errors.New("empty operator key set")
	}
	agg, _, _, err := musig2.AggregateKeys(keys, false)
	if err != nil {
		return "", fmt.Errorf("aggregating keys: %w", err)
	}
	return hex.EncodeToString(schnorr.SerializePubKey(agg.FinalKey)), nil
}
