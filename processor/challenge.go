// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package processor

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/0xLogan-x/beamer/state"
)

// l1ResolutionStake is the total stake that unlocks L1 escalation. The
// first challenge is oversized by this much so a single round crosses the
// threshold.
var l1ResolutionStake = uint256.NewInt(1_000_000_000_000_000) // 10^15 wei

// maybeChallenge applies the challenge policy to one claim:
// challenge iff the back-off has passed AND either the claim is dishonest,
// unchallenged and not ours, or we are in the game and it is our turn.
func (p *Processor) maybeChallenge(req *state.Request, claim *state.Claim, now uint64) {
	switch claim.State() {
	case state.ClaimWithdrawn, state.ClaimInvalidated:
		return
	}
	if now < claim.ChallengeBackOffTimestamp {
		return
	}

	ownClaim := claim.Claimer == p.Address
	unchallenged := claim.ChallengerStakeTotal.Sign() == 0
	dishonest := p.dishonestClaim(req, claim)
	ourTurn := (claim.LastChallenger == p.Address && claim.ClaimerLeads()) ||
		(ownClaim && !claim.ClaimerLeads())

	if !(dishonest && unchallenged && !ownClaim || ourTurn) {
		return
	}

	stake := challengeStake(claim)
	p.log.Info("challenging claim",
		"claim", claim.ID, "request", req.ID, "stake", stake, "dishonest", dishonest)
	p.Actions.Challenge(p.ctx, claim.ID, stake)
}

// dishonestClaim holds when the claim does not match the observed fill.
// A request with no observed fill at all cannot have an honest claim.
func (p *Processor) dishonestClaim(req *state.Request, claim *state.Claim) bool {
	filler, ok := req.Filler()
	if !ok {
		return true
	}
	fillID, _ := req.FillID()
	return claim.Claimer != filler || claim.FillID != fillID
}

// challengeStake sizes our bid: the first challenge is oversized to cross
// the L1-resolution threshold, later outbids exceed the maximum by the
// minimum legal unit.
func challengeStake(claim *state.Claim) *big.Int {
	increase := uint256.NewInt(1)
	if claim.ChallengerStakeTotal.Sign() == 0 {
		increase = l1ResolutionStake
	}
	stake, _ := uint256.FromBig(bigMax(claim.ClaimerStake, claim.ChallengerStakeTotal))
	return new(uint256.Int).Add(stake, increase).ToBig()
}

// maybeEscalate triggers L1 resolution once enough stake is committed to a
// claim we participate in. The relayer carries either the fill proof or,
// for a fabricated fill ID, an invalidation proof.
func (p *Processor) maybeEscalate(req *state.Request, claim *state.Claim) {
	if p.Resolver == nil {
		return
	}
	if claim.State() == state.ClaimWithdrawn {
		return
	}
	committed, _ := uint256.FromBig(bigMax(claim.ClaimerStake, claim.ChallengerStakeTotal))
	if committed.Lt(l1ResolutionStake) {
		return
	}
	participating := claim.Claimer == p.Address || claim.ChallengerStake(p.Address).Sign() > 0
	if !participating {
		return
	}

	relayTx, ok := p.resolutionProof(req, claim)
	if !ok {
		return
	}

	p.mu.Lock()
	started := p.l1Started[req.ID]
	if !started {
		p.l1Started[req.ID] = true
	}
	p.mu.Unlock()
	if started {
		return
	}

	p.Metrics.L1Resolutions.Inc()
	p.log.Info("starting L1 resolution", "request", req.ID, "claim", claim.ID, "tx", relayTx)
	go func() {
		if err := p.Resolver.Run(p.ctx, relayTx); err != nil {
			// Not retried here; the scan retriggers while the claim
			// still warrants it.
			p.mu.Lock()
			delete(p.l1Started, req.ID)
			p.mu.Unlock()
		}
	}()
}

// resolutionProof picks the transaction whose proof settles the game. If
// the claimed fill ID matches no fill, an invalidation is requested first
// and the proof becomes available once FillInvalidated is observed.
func (p *Processor) resolutionProof(req *state.Request, claim *state.Claim) (common.Hash, bool) {
	if _, hasFill := req.FillID(); hasFill && req.FillTx() != (common.Hash{}) {
		// A real fill exists; its proof names the honest filler and
		// thereby settles both honest and fabricated claims.
		return req.FillTx(), true
	}
	if tx, ok := req.InvalidFillTx(claim.FillID); ok {
		return tx, true
	}

	p.mu.Lock()
	invalidating := p.invalidating[claim.ID]
	if !invalidating {
		p.invalidating[claim.ID] = true
	}
	p.mu.Unlock()
	if !invalidating {
		if !p.Actions.InvalidateFill(p.ctx, req.ID, claim.FillID, req.SourceChainID).Accepted() {
			p.mu.Lock()
			delete(p.invalidating, claim.ID)
			p.mu.Unlock()
		}
	}
	return common.Hash{}, false
}
