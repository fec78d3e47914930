package bridge

import (
	"context"
	"encoding/hex"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"

	"github.com/MdTeach/strata/metrics"
)

// opKey derives a deterministic operator keypair from a seed byte.
func opKey(seed byte) *btcec.PrivateKey {
	var b [32]byte
	for i := range b {
		b[i] = seed
	}
	priv, _ := btcec.PrivKeyFromBytes(b[:])
	return priv
}

func compressedHex(priv *btcec.PrivateKey) string {
	return hex.EncodeToString(priv.PubKey().SerializeCompressed())
}

type fakeSequencer struct {
	live      bool
	operators map[string]string
}

func (s *fakeSequencer) ProtocolVersion(context.Context) (uint64, error) {
	if !s.live {
		return 0, errors.New("not ready")
	}
	return 1, nil
}

func (s *fakeSequencer) ActiveOperatorPubkeys(context.Context) (map[string]string, error) {
	return s.operators, nil
}

func testOperators(seeds ...byte) map[string]string {
	ops := make(map[string]string, len(seeds))
	for i, s := range seeds {
		ops[strconv.Itoa(i)] = compressedHex(opKey(s))
	}
	return ops
}

func TestBridgePubkeyDeterministic(t *testing.T) {
	seq := &fakeSequencer{live: true, operators: testOperators(1, 2, 3)}
	agg := NewAggregator(seq, metrics.NoopMetrics)

	first, err := agg.BridgePubkey(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 64, "x-only key is 32 bytes hex")

	second, err := agg.BridgePubkey(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second, "re-derivation reproduces the identical key")
}

func TestAggregationIsOrderSensitive(t *testing.T) {
	keys := []*btcec.PublicKey{
		opKey(1).PubKey(),
		opKey(2).PubKey(),
		opKey(3).PubKey(),
	}
	forward, err := AggregateKeys(keys)
	require.NoError(t, err)

	reversed, err := AggregateKeys([]*btcec.PublicKey{keys[2], keys[1], keys[0]})
	require.NoError(t, err)
	require.NotEqual(t, forward, reversed, "permuting index order changes the aggregate")
}

func TestAggregateKeysEmpty(t *testing.T) {
	_, err := AggregateKeys(nil)
	require.Error(t, err)
}

func TestOrderedKeysGapFailsLoudly(t *testing.T) {
	ops := testOperators(1, 2, 3)
	delete(ops, "1")
	_, err := orderedKeys(ops)
	require.Error(t, err)
	require.ErrorContains(t, err, "missing")
}

func TestOrderedKeysBadKey(t *testing.T) {
	ops := testOperators(1, 2)
	ops["1"] = "zz-not-hex"
	_, err := orderedKeys(ops)
	require.Error(t, err)
}

func TestParseXOnlyDropsParity(t *testing.T) {
	priv := opKey(7)
	full, err := parseXOnly(compressedHex(priv))
	require.NoError(t, err)

	xonly, err := parseXOnly(hex.EncodeToString(full.SerializeCompressed()[1:]))
	require.NoError(t, err)
	require.Equal(t, full.X(), xonly.X())
}

func TestBridgePubkeySequencerUnavailable(t *testing.T) {
	seq := &fakeSequencer{live: false, operators: testOperators(1)}
	agg := NewAggregator(seq, metrics.NoopMetrics)
	agg.StartupWait = 20 * time.Millisecond

	_, err := agg.BridgePubkey(context.Background())
	require.ErrorIs(t, err, ErrSequencerUnavailable)
}
