// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/0xLogan-x/beamer/state"
)

// DefaultLogRange is the block-range limit per eth_getLogs query used when
// the chain config does not set one. Public RPCs commonly cap ranges.
const DefaultLogRange = 5000

// Backend is the chain surface the fetcher needs.
type Backend interface {
	LatestBlock(ctx context.Context) (state.BlockReference, error)
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
}

// Fetcher produces a monotonic stream of confirmed events for one
// contract, starting at its deployment block. Rollup confirmations are
// final, so the cursor never rewinds.
type Fetcher struct {
	name      string
	client    Backend
	decoder   *Decoder
	address   common.Address
	fromBlock uint64
	logRange  uint64
	log       log.Logger
}

func NewFetcher(name string, client Backend, decoder *Decoder, address common.Address, deploymentBlock, logRange uint64) *Fetcher {
	if logRange == 0 {
		logRange = DefaultLogRange
	}
	return &Fetcher{
		name:      name,
		client:    client,
		decoder:   decoder,
		address:   address,
		fromBlock: deploymentBlock,
		logRange:  logRange,
		log:       log.New("fetcher", name),
	}
}

// Fetch scans [cursor, latest] in range-limited windows and returns the
// decoded events in chain order, together with the observed chain head.
// The cursor advances per completed window, so an error leaves already
// scanned blocks behind.
func (f *Fetcher) Fetch(ctx context.Context) ([]Event, state.BlockReference, error) {
	latest, err := f.client.LatestBlock(ctx)
	if err != nil {
		return nil, state.BlockReference{}, err
	}
	if latest.Number < f.fromBlock {
		return nil, latest, nil
	}

	var fetched []Event
	for from := f.fromBlock; from <= latest.Number; {
		to := from + f.logRange - 1
		if to > latest.Number {
			to = latest.Number
		}
		logs, err := f.client.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(from),
			ToBlock:   new(big.Int).SetUint64(to),
			Addresses: []common.Address{f.address},
		})
		if err != nil {
			return fetched, latest, err
		}
		for _, l := range logs {
			event, err := f.decoder.Decode(l)
			if err == ErrUnknownEvent {
				f.log.Debug("skipping unknown log", "block", l.BlockNumber, "topic0", topic0(l))
				continue
			}
			if err != nil {
				return fetched, latest, err
			}
			fetched = append(fetched, event)
		}
		from = to + 1
		f.fromBlock = from
	}
	return fetched, latest, nil
}

func topic0(l types.Log) common.Hash {
	if len(l.Topics) == 0 {
		return common.Hash{}
	}
	return l.Topics[0]
}
