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

const (
	claimerStake    = 10_000_000
	challengerStake = 5_000_000
)

func newTestClaim(t *testing.T) *Claim {
	t.Helper()
	return NewClaim(
		200,
		RequestID(testutils.RandomHash(t)),
		testutils.RandomAddress(t),
		FillID(testutils.RandomHash(t)),
		0,
	)
}

func applyFirst(t *testing.T, claim *Claim, stake int64, termination uint64) {
	t.Helper()
	require.NoError(t, claim.ApplyClaimMade(big.NewInt(stake), common.Address{}, big.NewInt(0), termination))
}

func TestClaimFirstEventStartsClaimerWinning(t *testing.T) {
	claim := newTestClaim(t)
	require.Equal(t, ClaimStarted, claim.State())

	applyFirst(t, claim, claimerStake, 100)
	require.Equal(t, ClaimClaimerWinning, claim.State())
	require.True(t, claim.ClaimerLeads())
	require.EqualValues(t, 100, claim.Termination)
}

func TestClaimChallengeFlipsWinner(t *testing.T) {
	claim := newTestClaim(t)
	applyFirst(t, claim, claimerStake, 100)

	challenger := testutils.RandomAddress(t)
	require.NoError(t, claim.ApplyClaimMade(
		big.NewInt(claimerStake), challenger, big.NewInt(claimerStake+1), 150))
	require.Equal(t, ClaimChallengerWinning, claim.State())
	require.False(t, claim.ClaimerLeads())
	require.Equal(t, challenger, claim.LastChallenger)
	require.EqualValues(t, big.NewInt(claimerStake+1), claim.ChallengerStake(challenger))

	// Claimer counter-outbids.
	require.NoError(t, claim.ApplyClaimMade(
		big.NewInt(2*claimerStake+2), challenger, big.NewInt(claimerStake+1), 150))
	require.Equal(t, ClaimClaimerWinning, claim.State())
}

func TestClaimTieFavorsIncumbent(t *testing.T) {
	claim := newTestClaim(t)
	applyFirst(t, claim, claimerStake, 100)

	// A termination extension with equal stakes keeps the current leader.
	require.NoError(t, claim.ApplyClaimMade(
		big.NewInt(claimerStake+1), testutils.RandomAddress(t), big.NewInt(claimerStake+1), 200))
	require.Equal(t, ClaimClaimerWinning, claim.State())
}

func TestClaimTerminationMonotonic(t *testing.T) {
	claim := newTestClaim(t)
	applyFirst(t, claim, claimerStake, 100)

	var invariantErr *InvariantError
	err := claim.ApplyClaimMade(big.NewInt(claimerStake), common.Address{}, big.NewInt(claimerStake+1), 99)
	require.ErrorAs(t, err, &invariantErr)
	require.EqualValues(t, 100, claim.Termination)
}

func TestClaimNonStrictOutbidRejected(t *testing.T) {
	claim := newTestClaim(t)
	applyFirst(t, claim, claimerStake, 100)

	var invariantErr *InvariantError
	err := claim.ApplyClaimMade(
		big.NewInt(claimerStake), testutils.RandomAddress(t), big.NewInt(challengerStake), 100)
	require.ErrorAs(t, err, &invariantErr)
}

func TestClaimStakeMayNotDecrease(t *testing.T) {
	claim := newTestClaim(t)
	applyFirst(t, claim, claimerStake, 100)

	var invariantErr *InvariantError
	err := claim.ApplyClaimMade(big.NewInt(claimerStake-1), common.Address{}, big.NewInt(0), 120)
	require.ErrorAs(t, err, &invariantErr)
}

func TestClaimDuplicateEventIsNoop(t *testing.T) {
	claim := newTestClaim(t)
	applyFirst(t, claim, claimerStake, 100)
	err := claim.ApplyClaimMade(big.NewInt(claimerStake), common.Address{}, big.NewInt(0), 100)
	require.Equal(t, ErrAlreadyApplied, err)
}

func TestClaimChallengerStakeAttribution(t *testing.T) {
	claim := newTestClaim(t)
	applyFirst(t, claim, claimerStake, 100)

	first := testutils.RandomAddress(t)
	second := testutils.RandomAddress(t)
	require.NoError(t, claim.ApplyClaimMade(
		big.NewInt(claimerStake), first, big.NewInt(claimerStake+1), 150))
	require.NoError(t, claim.ApplyClaimMade(
		big.NewInt(2*claimerStake+2), first, big.NewInt(claimerStake+1), 150))
	require.NoError(t, claim.ApplyClaimMade(
		big.NewInt(2*claimerStake+2), second, big.NewInt(2*claimerStake+3), 180))

	require.EqualValues(t, big.NewInt(claimerStake+1), claim.ChallengerStake(first))
	require.EqualValues(t, big.NewInt(claimerStake+2), claim.ChallengerStake(second))
	require.Equal(t, second, claim.LastChallenger)
	require.EqualValues(t, 0, claim.ChallengerStake(testutils.RandomAddress(t)).Sign())
}

func TestClaimInvalidationOnlyExitsToWithdrawn(t *testing.T) {
	claim := newTestClaim(t)
	applyFirst(t, claim, claimerStake, 100)

	require.NoError(t, claim.Invalidate())
	require.Equal(t, ClaimInvalidated, claim.State())
	require.Equal(t, ErrAlreadyApplied, claim.Invalidate())

	var invariantErr *InvariantError
	err := claim.ApplyClaimMade(big.NewInt(claimerStake), common.Address{}, big.NewInt(claimerStake+1), 200)
	require.ErrorAs(t, err, &invariantErr)

	require.NoError(t, claim.Withdraw())
	require.Equal(t, ClaimWithdrawn, claim.State())
}

func TestClaimRevalidation(t *testing.T) {
	claim := newTestClaim(t)
	applyFirst(t, claim, claimerStake, 100)
	require.NoError(t, claim.Invalidate())

	require.NoError(t, claim.Revalidate())
	require.Equal(t, ClaimClaimerWinning, claim.State())

	// Revalidation of a live claim changes nothing.
	require.Equal(t, ErrAlreadyApplied, claim.Revalidate())
}

func TestClaimWithdrawIsTerminal(t *testing.T) {
	claim := newTestClaim(t)
	applyFirst(t, claim, claimerStake, 100)
	require.NoError(t, claim.Withdraw())
	require.Equal(t, ErrAlreadyApplied, claim.Withdraw())
	require.Equal(t, ErrAlreadyApplied,
		claim.ApplyClaimMade(big.NewInt(claimerStake), common.Address{}, big.NewInt(claimerStake+1), 300))

	var transitionErr *TransitionError
	require.ErrorAs(t, claim.Invalidate(), &transitionErr)
}
