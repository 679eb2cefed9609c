// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"math/rand"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru"

	"github.com/0xLogan-x/beamer/interfaces"
	"github.com/0xLogan-x/beamer/state"
)

const (
	// Per-call timeout; kept short so the event monitors stay responsive.
	callTimeout = 5 * time.Second

	// Receipt polling. The long timeout covers slow sequencers.
	receiptTimeout      = 120 * time.Second
	receiptPollInterval = 100 * time.Millisecond

	// Transaction submission retries for transient RPC rejections.
	sendAttempts = 5

	// Read retries for rate-limiting RPC providers.
	readAttempts     = 5
	readRetryBackoff = time.Second

	// Recently fetched headers are cached; monitors re-read the same
	// blocks constantly.
	headerCacheSize = 1000
)

// Client is a typed facade over one rollup's JSON-RPC endpoint. It signs
// with a locally held key and hides retry and caching policies from its
// callers.
type Client struct {
	backend interfaces.Backend
	chainID *big.Int
	key     *ecdsa.PrivateKey
	address common.Address
	signer  bind.SignerFn
	headers *lru.Cache
	log     log.Logger
}

// DialContext connects to the given RPC URL and prepares a signing client.
// POA chains need no special handling; header extra-data of any length is
// accepted by the JSON codec.
func DialContext(ctx context.Context, url string, key *ecdsa.PrivateKey) (*Client, error) {
	backend, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return NewClient(ctx, backend, key)
}

// NewClient wraps an existing backend; used directly by tests.
func NewClient(ctx context.Context, backend interfaces.Backend, key *ecdsa.PrivateKey) (*Client, error) {
	cctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	chainID, err := backend.ChainID(cctx)
	if err != nil {
		return nil, fmt.Errorf("reading chain id: %w", err)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, err
	}
	headers, err := lru.New(headerCacheSize)
	if err != nil {
		return nil, err
	}
	address := crypto.PubkeyToAddress(key.PublicKey)
	return &Client{
		backend: backend,
		chainID: chainID,
		key:     key,
		address: address,
		signer:  opts.Signer,
		headers: headers,
		log:     log.New("chain", chainID.Uint64()),
	}, nil
}

func (c *Client) ChainID() uint64 { return c.chainID.Uint64() }

// Address is the agent's account on this chain.
func (c *Client) Address() common.Address { return c.address }

// Key returns the signing key; the L1 resolver hands it to the relayer.
func (c *Client) Key() *ecdsa.PrivateKey { return c.key }

// Backend exposes the raw backend for contract binding.
func (c *Client) Backend() interfaces.Backend { return c.backend }

// CallOpts returns call options with the per-call timeout applied. The
// returned cancel func must be called by the caller.
func (c *Client) CallOpts(ctx context.Context) (*bind.CallOpts, context.CancelFunc) {
	cctx, cancel := context.WithTimeout(ctx, callTimeout)
	return &bind.CallOpts{Context: cctx, From: c.address}, cancel
}

// BlockNumber returns the latest block number, retrying rate-limited
// responses.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return withRetry(ctx, c.log, "eth_blockNumber", func(cctx context.Context) (uint64, error) {
		return c.backend.BlockNumber(cctx)
	})
}

// HeaderByNumber returns the header of the given block, serving recent
// blocks from the LRU cache. Confirmed rollup blocks never change, so
// cached entries are final.
func (c *Client) HeaderByNumber(ctx context.Context, number uint64) (*types.Header, error) {
	if cached, ok := c.headers.Get(number); ok {
		return cached.(*types.Header), nil
	}
	header, err := withRetry(ctx, c.log, "eth_getBlockByNumber", func(cctx context.Context) (*types.Header, error) {
		return c.backend.HeaderByNumber(cctx, new(big.Int).SetUint64(number))
	})
	if err != nil {
		return nil, err
	}
	c.headers.Add(number, header)
	return header, nil
}

// LatestBlock returns a reference to the chain head.
func (c *Client) LatestBlock(ctx context.Context) (state.BlockReference, error) {
	header, err := withRetry(ctx, c.log, "eth_getBlockByNumber", func(cctx context.Context) (*types.Header, error) {
		return c.backend.HeaderByNumber(cctx, nil)
	})
	if err != nil {
		return state.BlockReference{}, err
	}
	number := header.Number.Uint64()
	c.headers.Add(number, header)
	return state.BlockReference{
		ChainID:   c.chainID.Uint64(),
		Number:    number,
		Timestamp: header.Time,
	}, nil
}

// CodeAt returns the code of the given account at the latest block.
func (c *Client) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return withRetry(ctx, c.log, "eth_getCode", func(cctx context.Context) ([]byte, error) {
		return c.backend.CodeAt(cctx, account, nil)
	})
}

// FilterLogs runs a log filter query, retrying rate-limited responses.
func (c *Client) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return withRetry(ctx, c.log, "eth_getLogs", func(cctx context.Context) ([]types.Log, error) {
		return c.backend.FilterLogs(cctx, query)
	})
}

// Transact submits a state-changing call to the given bound contract and
// waits for its receipt. Transient submission failures are retried up to
// sendAttempts times with randomized sleeps; contract-logic rejections and
// reverted receipts surface as TransactionFailedError and are not retried.
func (c *Client) Transact(
	ctx context.Context,
	contract *bind.BoundContract,
	value *big.Int,
	method string,
	args ...interface{},
) (*types.Receipt, error) {
	opts := &bind.TransactOpts{
		From:    c.address,
		Signer:  c.signer,
		Value:   value,
		Context: ctx,
	}

	var tx *types.Transaction
	var err error
	for attempt := 1; ; attempt++ {
		tx, err = contract.Transact(opts, method, args...)
		if err == nil {
			break
		}
		if isRevert(err) {
			return nil, &TransactionFailedError{Reason: method, Cause: err}
		}
		if attempt >= sendAttempts {
			c.log.Error("transact failed, giving up", "method", method, "err", err)
			return nil, &TransactionFailedError{Reason: "too many failed attempts", Cause: err}
		}
		period := time.Duration(500+rand.Intn(2500)) * time.Millisecond
		c.log.Error("transact failed, retrying", "method", method, "err", err, "sleep", period)
		select {
		case <-time.After(period):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	receipt, err := c.WaitReceipt(ctx, tx.Hash())
	if err != nil {
		return nil, err
	}
	c.log.Debug("transaction mined", "method", method, "tx", tx.Hash(), "block", receipt.BlockNumber)
	return receipt, nil
}

// WaitReceipt polls for the receipt of the given transaction. A receipt
// with status 0 is a failure.
func (c *Client) WaitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	wctx, cancel := context.WithTimeout(ctx, receiptTimeout)
	defer cancel()
	for {
		receipt, err := c.backend.TransactionReceipt(wctx, txHash)
		if err == nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return nil, &TransactionFailedError{Reason: "reverted"}
			}
			return receipt, nil
		}
		select {
		case <-time.After(receiptPollInterval):
		case <-wctx.Done():
			return nil, fmt.Errorf("waiting for receipt of %s: %w", txHash, wctx.Err())
		}
	}
}

// withRetry runs a read call with the per-call timeout, retrying
// rate-limited responses with exponential backoff.
func withRetry[T any](ctx context.Context, logger log.Logger, name string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	backoff := readRetryBackoff
	for attempt := 1; ; attempt++ {
		cctx, cancel := context.WithTimeout(ctx, callTimeout)
		result, err := fn(cctx)
		cancel()
		if err == nil {
			return result, nil
		}
		if !isRateLimited(err) || attempt >= readAttempts {
			return zero, fmt.Errorf("%s: %w", name, err)
		}
		logger.Warn("rate limited, backing off", "call", name, "sleep", backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
		backoff *= 2
	}
}
