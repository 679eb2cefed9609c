// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/0xLogan-x/beamer/internal/testutils"
)

func newTestRequest(t *testing.T) *Request {
	t.Helper()
	return NewRequest(
		RequestID(testutils.RandomHash(t)),
		2, 3,
		testutils.RandomAddress(t),
		testutils.RandomAddress(t),
		testutils.RandomAddress(t),
		big.NewInt(123),
		big.NewInt(100),
		457,
	)
}

func TestRequestHappyPath(t *testing.T) {
	req := newTestRequest(t)
	filler := testutils.RandomAddress(t)
	fillID := FillID(testutils.RandomHash(t))
	fillTx := testutils.RandomHash(t)

	require.Equal(t, RequestPending, req.State())
	require.NoError(t, req.FillUnconfirmed())
	require.NoError(t, req.Fill(filler, fillID, fillTx))
	require.Equal(t, RequestFilled, req.State())

	gotFiller, ok := req.Filler()
	require.True(t, ok)
	require.Equal(t, filler, gotFiller)
	require.Equal(t, fillTx, req.FillTx())

	require.NoError(t, req.ClaimUnconfirmed())
	require.NoError(t, req.Claim())
	require.Equal(t, RequestClaimed, req.State())

	require.NoError(t, req.Withdraw())
	require.Equal(t, RequestWithdrawn, req.State())
}

func TestRequestFillWithoutUnconfirmed(t *testing.T) {
	// Fills by other parties arrive without us having submitted anything.
	req := newTestRequest(t)
	require.NoError(t, req.Fill(testutils.RandomAddress(t), FillID(testutils.RandomHash(t)), testutils.RandomHash(t)))
	require.Equal(t, RequestFilled, req.State())
}

func TestRequestDuplicateFillIsNoop(t *testing.T) {
	req := newTestRequest(t)
	filler := testutils.RandomAddress(t)
	fillID := FillID(testutils.RandomHash(t))
	tx := testutils.RandomHash(t)

	require.NoError(t, req.Fill(filler, fillID, tx))
	require.Equal(t, ErrAlreadyApplied, req.Fill(filler, fillID, tx))
	require.Equal(t, RequestFilled, req.State())
}

func TestRequestIllegalTransitions(t *testing.T) {
	req := newTestRequest(t)

	// Cannot claim or withdraw a pending request.
	var transitionErr *TransitionError
	require.ErrorAs(t, req.Claim(), &transitionErr)
	require.ErrorAs(t, req.Withdraw(), &transitionErr)

	require.NoError(t, req.Ignore())
	require.ErrorAs(t, req.FillUnconfirmed(), &transitionErr)
	require.Equal(t, RequestIgnored, req.State())
}

func TestRequestFillerSetOnlyWithFill(t *testing.T) {
	req := newTestRequest(t)
	_, ok := req.Filler()
	require.False(t, ok)
	_, ok = req.FillID()
	require.False(t, ok)

	require.NoError(t, req.Fill(testutils.RandomAddress(t), FillID(testutils.RandomHash(t)), testutils.RandomHash(t)))
	_, ok = req.Filler()
	require.True(t, ok)
}

func TestRequestL1ResolutionSupersedesFill(t *testing.T) {
	req := newTestRequest(t)
	require.NoError(t, req.Fill(testutils.RandomAddress(t), FillID(testutils.RandomHash(t)), testutils.RandomHash(t)))

	honest := testutils.RandomAddress(t)
	resolvedFill := FillID(testutils.RandomHash(t))
	require.NoError(t, req.L1Resolve(honest, resolvedFill))
	require.Equal(t, RequestL1Resolved, req.State())

	filler, ok := req.Filler()
	require.True(t, ok)
	require.Equal(t, honest, filler)
	fillID, _ := req.FillID()
	require.Equal(t, resolvedFill, fillID)
}

func TestRequestResolutionClearsInvalidation(t *testing.T) {
	req := newTestRequest(t)
	fillID := FillID(testutils.RandomHash(t))
	tx := testutils.RandomHash(t)

	require.NoError(t, req.InvalidateFill(fillID, tx))
	require.True(t, req.IsInvalidFill(fillID))
	gotTx, ok := req.InvalidFillTx(fillID)
	require.True(t, ok)
	require.Equal(t, tx, gotTx)
	require.Equal(t, ErrAlreadyApplied, req.InvalidateFill(fillID, tx))

	require.NoError(t, req.L1Resolve(testutils.RandomAddress(t), fillID))
	require.False(t, req.IsInvalidFill(fillID))
}

func TestRequestNoResolutionAfterWithdraw(t *testing.T) {
	req := newTestRequest(t)
	require.NoError(t, req.Fill(testutils.RandomAddress(t), FillID(testutils.RandomHash(t)), testutils.RandomHash(t)))
	require.NoError(t, req.Claim())
	require.NoError(t, req.Withdraw())

	var transitionErr *TransitionError
	require.ErrorAs(t, req.L1Resolve(testutils.RandomAddress(t), FillID(testutils.RandomHash(t))), &transitionErr)
	require.Equal(t, RequestWithdrawn, req.State())
	require.Equal(t, ErrAlreadyApplied, req.Withdraw())
}

func TestRequestStateStrings(t *testing.T) {
	require.Equal(t, "Pending", RequestPending.String())
	require.Equal(t, "Unfillable", RequestUnfillable.String())
	require.Equal(t, common.Hash{}.Hex(), RequestID{}.String())
}
