package btcio

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// PSBT wallet calls go through RawRequest: bitcoind's wallet API has
// drifted from btcd's typed bindings and the raw form tracks the node.

type walletCreateFundedPsbtResult struct {
	Psbt      string  `json:"psbt"`
	Fee       float64 `json:"fee"`
	ChangePos int64   `json:"changepos"`
}

type walletProcessPsbtResult struct {
	Psbt     string `json:"psbt"`
	Complete bool   `json:"complete"`
}

type finalizePsbtResult struct {
	Psbt     string `json:"psbt"`
	Hex      string `json:"hex"`
	Complete bool   `json:"complete"`
}

func (c *Client) rawRequest(method string, result any, params ...any) error {
	rawParams := make([]json.RawMessage, 0, len(params))
	for _, p := range params {
		raw, err := json.Marshal(p)
		if err != nil {
			return errors.Wrapf(err, "marshaling %s param", method)
		}
		rawParams = append(rawParams, raw)
	}
	resp, err := c.rpc.RawRequest(method, rawParams)
	if err != nil {
		return errors.Wrap(err, method)
	}
	if result == nil {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(resp, result), "decoding %s result", method)
}

// BroadcastTx funds, signs, finalizes and broadcasts a wallet transaction
// with the given outputs, returning the txid. Outputs follow bitcoind's
// walletcreatefundedpsbt shape: address->amount entries or {"data": hex}.
func (c *Client) BroadcastTx(outputs []map[string]any, options map[string]any) (string, error) {
	var created walletCreateFundedPsbtResult
	if err := c.rawRequest("walletcreatefundedpsbt", &created, []any{}, outputs, 0, options); err != nil {
		return "", err
	}

	var processed walletProcessPsbtResult
	if err := c.rawRequest("walletprocesspsbt", &processed, created.Psbt); err != nil {
		return "", err
	}

	var finalized finalizePsbtResult
	if err := c.rawRequest("finalizepsbt", &finalized, processed.Psbt); err != nil {
		return "", err
	}
	if !finalized.Complete {
		return "", errors.New("finalized psbt is incomplete")
	}

	var txid string
	if err := c.rawRequest("sendrawtransaction", &txid, finalized.Hex); err != nil {
		return "", err
	}
	return txid, nil
}
