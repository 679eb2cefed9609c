// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/0xLogan-x/beamer/contracts"
	"github.com/0xLogan-x/beamer/internal/testutils"
	"github.com/0xLogan-x/beamer/state"
)

type queryRange struct {
	from, to uint64
}

type fakeBackend struct {
	chainID   uint64
	latest    uint64
	timestamp uint64
	logs      []types.Log
	queries   []queryRange
	failNext  bool
}

func (b *fakeBackend) LatestBlock(context.Context) (state.BlockReference, error) {
	return state.BlockReference{ChainID: b.chainID, Number: b.latest, Timestamp: b.timestamp}, nil
}

func (b *fakeBackend) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	from, to := q.FromBlock.Uint64(), q.ToBlock.Uint64()
	b.queries = append(b.queries, queryRange{from: from, to: to})
	if b.failNext {
		b.failNext = false
		return nil, fmt.Errorf("rpc: range too wide")
	}
	var matched []types.Log
	for _, l := range b.logs {
		if l.BlockNumber >= from && l.BlockNumber <= to {
			matched = append(matched, l)
		}
	}
	return matched, nil
}

func claimMadeLog(t *testing.T, requestID common.Hash, block uint64) types.Log {
	t.Helper()
	event := contracts.RequestManagerABI.Events["ClaimMade"]
	data, err := event.Inputs.NonIndexed().Pack(
		big.NewInt(200),               // claimId
		[32]byte(testutils.RandomHash(t)), // fillId
		testutils.RandomAddress(t),    // claimer
		big.NewInt(10_000_000),        // claimerStake
		common.Address{},              // lastChallenger
		big.NewInt(0),                 // challengerStakeTotal
		big.NewInt(900),               // termination
	)
	require.NoError(t, err)
	return types.Log{
		Address:     common.Address{1},
		Topics:      []common.Hash{event.ID, requestID},
		Data:        data,
		BlockNumber: block,
		TxHash:      testutils.RandomHash(t),
	}
}

func requestCreatedLog(t *testing.T, requestID common.Hash, block uint64) types.Log {
	t.Helper()
	event := contracts.RequestManagerABI.Events["RequestCreated"]
	data, err := event.Inputs.NonIndexed().Pack(
		big.NewInt(3),              // targetChainId
		testutils.RandomAddress(t), // sourceTokenAddress
		testutils.RandomAddress(t), // targetTokenAddress
		testutils.RandomAddress(t), // sourceAddress
		testutils.RandomAddress(t), // targetAddress
		big.NewInt(100),            // amount
		big.NewInt(1),              // nonce
		big.NewInt(1000),           // validUntil
	)
	require.NoError(t, err)
	return types.Log{
		Address:     common.Address{1},
		Topics:      []common.Hash{event.ID, requestID},
		Data:        data,
		BlockNumber: block,
		TxHash:      testutils.RandomHash(t),
	}
}

func TestFetcherWindowsHonorRangeLimit(t *testing.T) {
	backend := &fakeBackend{chainID: 2, latest: 12, timestamp: 500}
	fetcher := NewFetcher("request-manager", backend,
		NewDecoder(2, contracts.RequestManagerABI), common.Address{1}, 0, 5)

	_, latest, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 12, latest.Number)
	require.Equal(t, []queryRange{{0, 4}, {5, 9}, {10, 12}}, backend.queries)

	// Nothing new: no further queries needed.
	backend.queries = nil
	_, _, err = fetcher.Fetch(context.Background())
	require.NoError(t, err)
	require.Empty(t, backend.queries)

	// New blocks resume from the cursor.
	backend.latest = 14
	_, _, err = fetcher.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []queryRange{{13, 14}}, backend.queries)
}

func TestFetcherDecodesEventsInOrder(t *testing.T) {
	requestID := testutils.RandomHash(t)
	backend := &fakeBackend{
		chainID: 2, latest: 20, timestamp: 500,
		logs: []types.Log{
			requestCreatedLog(t, requestID, 4),
			claimMadeLog(t, requestID, 9),
		},
	}
	fetcher := NewFetcher("request-manager", backend,
		NewDecoder(2, contracts.RequestManagerABI), common.Address{1}, 0, 100)

	fetched, _, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, fetched, 2)

	created, ok := fetched[0].(RequestCreated)
	require.True(t, ok)
	require.Equal(t, state.RequestID(requestID), created.RequestID)
	require.EqualValues(t, 3, created.TargetChainID)
	require.EqualValues(t, 1000, created.ValidUntil)
	require.EqualValues(t, 2, created.ChainID)
	require.EqualValues(t, 4, created.BlockNumber)

	claim, ok := fetched[1].(ClaimMade)
	require.True(t, ok)
	require.Equal(t, state.RequestID(requestID), claim.RequestID)
	require.EqualValues(t, 200, claim.ClaimID)
	require.EqualValues(t, 900, claim.Termination)
	require.Zero(t, claim.ChallengerStakeTotal.Sign())
}

func TestFetcherSkipsUnknownTopics(t *testing.T) {
	backend := &fakeBackend{
		chainID: 2, latest: 5, timestamp: 500,
		logs: []types.Log{{
			Address:     common.Address{1},
			Topics:      []common.Hash{testutils.RandomHash(t)},
			BlockNumber: 1,
		}},
	}
	fetcher := NewFetcher("request-manager", backend,
		NewDecoder(2, contracts.RequestManagerABI), common.Address{1}, 0, 100)

	fetched, _, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	require.Empty(t, fetched)
}

func TestFetcherResumesAfterWindowError(t *testing.T) {
	requestID := testutils.RandomHash(t)
	backend := &fakeBackend{
		chainID: 2, latest: 9, timestamp: 500,
		logs:     []types.Log{requestCreatedLog(t, requestID, 7)},
		failNext: true,
	}
	fetcher := NewFetcher("request-manager", backend,
		NewDecoder(2, contracts.RequestManagerABI), common.Address{1}, 0, 5)

	_, _, err := fetcher.Fetch(context.Background())
	require.Error(t, err)

	// The failed window is retried; completed windows are not.
	backend.queries = nil
	fetched, _, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []queryRange{{0, 4}, {5, 9}}, backend.queries)
	require.Len(t, fetched, 1)
}
