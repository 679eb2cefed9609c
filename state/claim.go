// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ClaimState is the lifecycle state of one claim within the challenge game.
type ClaimState uint8

const (
	ClaimStarted ClaimState = iota
	ClaimClaimerWinning
	ClaimChallengerWinning
	ClaimWithdrawn
	ClaimInvalidated
)

func (s ClaimState) String() string {
	switch s {
	case ClaimStarted:
		return "Started"
	case ClaimClaimerWinning:
		return "ClaimerWinning"
	case ClaimChallengerWinning:
		return "ChallengerWinning"
	case ClaimWithdrawn:
		return "Withdrawn"
	case ClaimInvalidated:
		return "Invalidated"
	}
	return "Unknown"
}

// InvariantError reports an observed event that violates a contract
// invariant, e.g. a shrinking termination or a non-strict outbid. Such
// events are dropped; they cannot be recovered from locally.
type InvariantError struct {
	Entity string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s invariant violated: %s", e.Entity, e.Reason)
}

// Claim is one attempt to redeem a request, together with the stake
// bidding game played on top of it.
type Claim struct {
	ID        ClaimID
	RequestID RequestID
	Claimer   common.Address
	FillID    FillID

	ClaimerStake         *big.Int
	LastChallenger       common.Address
	ChallengerStakeTotal *big.Int
	Termination          uint64

	// ChallengeBackOffTimestamp throttles our own challenges on this
	// claim; it is set once at claim creation and read by the policy.
	ChallengeBackOffTimestamp uint64

	state            ClaimState
	challengerStakes map[common.Address]*big.Int
}

// NewClaim creates a claim in the Started state. The first ClaimMade event
// is applied via ApplyClaimMade.
func NewClaim(id ClaimID, requestID RequestID, claimer common.Address, fillID FillID, backOff uint64) *Claim {
	return &Claim{
		ID:                        id,
		RequestID:                 requestID,
		Claimer:                   claimer,
		FillID:                    fillID,
		ClaimerStake:              new(big.Int),
		ChallengerStakeTotal:      new(big.Int),
		ChallengeBackOffTimestamp: backOff,
		state:                     ClaimStarted,
		challengerStakes:          make(map[common.Address]*big.Int),
	}
}

func (c *Claim) State() ClaimState { return c.state }

// ChallengerStake returns the total stake the given challenger has put on
// this claim so far.
func (c *Claim) ChallengerStake(challenger common.Address) *big.Int {
	if stake, ok := c.challengerStakes[challenger]; ok {
		return stake
	}
	return new(big.Int)
}

// ClaimerLeads reports whether the claimer currently leads the bidding game.
// Equal stakes favor the incumbent leader.
func (c *Claim) ClaimerLeads() bool {
	return c.state != ClaimChallengerWinning
}

func (c *Claim) invariantError(format string, args ...any) error {
	return &InvariantError{Entity: "claim", Reason: fmt.Sprintf(format, args...)}
}

// ApplyClaimMade folds an observed ClaimMade event for this claim into the
// state machine, recomputing the winning side and extending the
// termination. The first event moves the claim out of Started; later ones
// are outbids.
func (c *Claim) ApplyClaimMade(
	claimerStake *big.Int,
	lastChallenger common.Address,
	challengerStakeTotal *big.Int,
	termination uint64,
) error {
	switch c.state {
	case ClaimWithdrawn:
		return ErrAlreadyApplied
	case ClaimInvalidated:
		return c.invariantError("ClaimMade after invalidation")
	}
	if claimerStake.Cmp(c.ClaimerStake) == 0 &&
		challengerStakeTotal.Cmp(c.ChallengerStakeTotal) == 0 &&
		termination == c.Termination &&
		c.state != ClaimStarted {
		return ErrAlreadyApplied
	}
	if termination < c.Termination {
		return c.invariantError("termination decreased: %d -> %d", c.Termination, termination)
	}
	if claimerStake.Cmp(c.ClaimerStake) < 0 || challengerStakeTotal.Cmp(c.ChallengerStakeTotal) < 0 {
		return c.invariantError("stake decreased")
	}
	if c.state != ClaimStarted {
		// Every outbid must strictly exceed the current maximum.
		oldMax := bigMax(c.ClaimerStake, c.ChallengerStakeTotal)
		newMax := bigMax(claimerStake, challengerStakeTotal)
		if newMax.Cmp(oldMax) <= 0 {
			return c.invariantError("outbid does not exceed current maximum stake")
		}
	}

	if diff := new(big.Int).Sub(challengerStakeTotal, c.ChallengerStakeTotal); diff.Sign() > 0 {
		stake, ok := c.challengerStakes[lastChallenger]
		if !ok {
			stake = new(big.Int)
			c.challengerStakes[lastChallenger] = stake
		}
		stake.Add(stake, diff)
		c.LastChallenger = lastChallenger
	}

	c.ClaimerStake = new(big.Int).Set(claimerStake)
	c.ChallengerStakeTotal = new(big.Int).Set(challengerStakeTotal)
	c.Termination = termination

	// Ties favor the incumbent leader.
	switch claimerStake.Cmp(challengerStakeTotal) {
	case 1:
		c.state = ClaimClaimerWinning
	case -1:
		c.state = ClaimChallengerWinning
	default:
		if c.state == ClaimStarted {
			c.state = ClaimClaimerWinning
		}
	}
	return nil
}

// Withdraw applies an observed ClaimWithdrawn event. Allowed from any
// state, including Invalidated.
func (c *Claim) Withdraw() error {
	if c.state == ClaimWithdrawn {
		return ErrAlreadyApplied
	}
	c.state = ClaimWithdrawn
	return nil
}

// Invalidate applies an L1 message declaring this claim's fill invalid.
// Afterwards only Withdraw is permitted, unless a later resolution
// revalidates the claim.
func (c *Claim) Invalidate() error {
	switch c.state {
	case ClaimInvalidated:
		return ErrAlreadyApplied
	case ClaimWithdrawn:
		return &TransitionError{Entity: "claim", From: c.state.String(), Event: "invalidate"}
	}
	c.state = ClaimInvalidated
	return nil
}

// Revalidate is applied when an L1 resolution confirms the claim's
// (claimer, fill ID) pair. The winning side is recomputed from the stakes.
func (c *Claim) Revalidate() error {
	if c.state != ClaimInvalidated {
		return ErrAlreadyApplied
	}
	if c.ClaimerStake.Cmp(c.ChallengerStakeTotal) >= 0 {
		c.state = ClaimClaimerWinning
	} else {
		c.state = ClaimChallengerWinning
	}
	return nil
}

func bigMax(a, b *big.Int) *big.Int {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}
