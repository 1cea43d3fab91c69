// Package chainrpc wraps the chain node's RPC surface down to exactly
// what the indexer needs: tip height, block hash by height, and block
// by hash. It follows tosclient.go's typed-wrapper-around-a-generic-
// client shape, using the real Bitcoin Core RPC client
// (github.com/btcsuite/btcd/rpcclient/v8) rather than hand-rolling
// JSON-RPC, since btcec (a sibling package of the same module) was
// already a dependency.
package chainrpc

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	rpcclient "github.com/btcsuite/btcd/rpcclient/v8"
	"github.com/btcsuite/btcd/wire"
)

// Config describes how to reach the chain node.
type Config struct {
	URL      string
	User     string
	Password string
}

// Oracle is the narrow surface the indexer consumes. A fresh Oracle is
// constructed on every indexer (re)spawn.
type Oracle interface {
	TipHeight() (int64, error)
	BlockHash(height int64) (*chainhash.Hash, error)
	Block(hash *chainhash.Hash) (*wire.MsgBlock, error)
	Shutdown()
}

// Client is the production Oracle, backed by a JSON-RPC connection to a
// Bitcoin Core-compatible node.
type Client struct {
	rpc *rpcclient.Client
}

// New creates the chain node client. It runs in HTTP POST mode, one
// request per call; no websocket notifications are needed since the
// indexer polls on its own timer.
func New(cfg Config) (*Client, error) {
	connCfg := &rpcclient.ConnConfig{
		Host:         cfg.URL,
		User:         cfg.User,
		Pass:         cfg.Password,
		HTTPPostMode: true,
		DisableTLS:   true,
	}
	rc, err := rpcclient.New(connCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("chainrpc: dial: %w", err)
	}
	return &Client{rpc: rc}, nil
}

func (c *Client) TipHeight() (int64, error) {
	info, err := c.rpc.GetBlockChainInfo()
	if err != nil {
		return 0, fmt.Errorf("chainrpc: blockchain info: %w", err)
	}
	return int64(info.Blocks), nil
}

func (c *Client) BlockHash(height int64) (*chainhash.Hash, error) {
	hash, err := c.rpc.GetBlockHash(height)
	if err != nil {
		return nil, fmt.Errorf("chainrpc: block hash at %d: %w", height, err)
	}
	return hash, nil
}

func (c *Client) Block(hash *chainhash.Hash) (*wire.MsgBlock, error) {
	block, err := c.rpc.GetBlock(hash)
	if err != nil {
		return nil, fmt.Errorf("chainrpc: block %s: %w", hash, err)
	}
	return block, nil
}

func (c *Client) Shutdown() {
	c.rpc.Shutdown()
}
