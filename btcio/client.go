// Package btcio talks to the bitcoind regtest node backing the rollup:
// block generation, transaction confirmation lookups, and the PSBT
// broadcast flow used to fund L1-side transactions.
package btcio

import (
	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
)

// Config holds the bitcoind RPC connection settings. The node is expected
// to run with a wallet loaded, in regtest mode.
type Config struct {
	Host string
	User string
	Pass string
}

// Client wraps the btcd rpcclient with the small surface the harness
// needs. All calls go over HTTP POST; notifications are not used.
type Client struct {
	rpc *rpcclient.Client
}

func NewClient(cfg Config) (*Client, error) {
	rpc, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         cfg.Host,
		User:         cfg.User,
		Pass:         cfg.Pass,
		HTTPPostMode: true,
		DisableTLS:   true,
	}, nil)
	if err != nil {
		return nil, err
	}
	return &Client{rpc: rpc}, nil
}

func (c *Client) Close() {
	c.rpc.Shutdown()
}

// GetNewAddress returns a fresh wallet address.
func (c *Client) GetNewAddress() (btcutil.Address, error) {
	return c.rpc.GetNewAddress("")
}

// GenerateToAddress mines n blocks paying to addr and returns their
// hashes. Regtest only.
func (c *Client) GenerateToAddress(n int64, addr btcutil.Address) ([]*chainhash.Hash, error) {
	return c.rpc.GenerateToAddress(n, addr, nil)
}

// GetTransaction returns wallet details for txid, including its
// confirmation count. Confirmations is 0 while the transaction sits in
// the mempool.
func (c *Client) GetTransaction(txid string) (*btcjson.GetTransactionResult, error) {
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return nil, err
	}
	return c.rpc.GetTransaction(hash)
}

// Confirmations returns the confirmation depth of txid.
func (c *Client) Confirmations(txid string) (int64, error) {
	tx, err := c.GetTransaction(txid)
	if err != nil {
		return 0, err
	}
	return tx.Confirmations, nil
}
