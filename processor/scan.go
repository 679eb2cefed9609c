// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package processor

import (
	"math/big"

	"github.com/0xLogan-x/beamer/executor"
	"github.com/0xLogan-x/beamer/state"
)

// A fill refused this many times in a row is abandoned; anything
// recoverable (a competing fill, an expiry) surfaces through events or
// the scan guards first.
const maxFillReverts = 5

// processRequests is the periodic "what should I do now?" scan. It only
// runs once both monitors have completed their initial sync; acting on a
// partial chain view could lose stake.
func (p *Processor) processRequests() {
	if !p.synced() {
		return
	}
	now := p.blockTime(p.SourceChainID)

	var staleRequests []state.RequestID
	for _, req := range p.Requests.Items() {
		switch req.State() {
		case state.RequestPending:
			p.fillRequest(req, now)
		case state.RequestFilled:
			if filler, _ := req.Filler(); filler == p.Address {
				p.claimRequest(req)
			}
		case state.RequestUnfillable, state.RequestWithdrawn:
			staleRequests = append(staleRequests, req.ID)
		}
	}
	for _, id := range staleRequests {
		p.log.Debug("dropping settled request", "request", id)
		p.Requests.Remove(id)
		delete(p.fillReverts, id)
	}

	var staleClaims []state.ClaimID
	for _, claim := range p.Claims.Items() {
		if claim.State() == state.ClaimWithdrawn {
			staleClaims = append(staleClaims, claim.ID)
			continue
		}
		req, ok := p.Requests.Get(claim.RequestID)
		if !ok {
			continue
		}
		p.maybeChallenge(req, claim, now)
		p.maybeWithdraw(claim, now)
		p.maybeEscalate(req, claim)
	}
	for _, id := range staleClaims {
		p.log.Debug("dropping withdrawn claim", "claim", id)
		p.Claims.Remove(id)
	}

	p.Metrics.RequestsTracked.Set(float64(p.Requests.Len()))
	p.Metrics.ClaimsTracked.Set(float64(p.Claims.Len()))
}

// fillRequest decides whether a pending request is worth filling and, if
// so, approves and fills it. Anything unverifiable means doing nothing;
// the request stays pending for the next scan.
func (p *Processor) fillRequest(req *state.Request, now uint64) {
	if !p.Checker.IsValidPair(req.SourceChainID, req.SourceToken, req.TargetChainID, req.TargetToken) {
		p.log.Info("ignoring request with invalid token pair", "request", req.ID)
		p.ignore(req)
		return
	}
	if now >= req.ValidUntil {
		p.log.Info("ignoring expired request", "request", req.ID)
		p.ignore(req)
		return
	}
	code, err := p.TargetReader.CodeAt(p.ctx, req.TargetToken)
	if err != nil {
		p.log.Warn("token code check failed", "request", req.ID, "err", err)
		return
	}
	if len(code) == 0 {
		p.log.Info("ignoring request, target token has no code", "request", req.ID, "token", req.TargetToken)
		p.ignore(req)
		return
	}
	balance, err := p.TargetReader.TokenBalance(p.ctx, req.TargetToken, p.Address)
	if err != nil {
		p.log.Warn("token balance check failed", "request", req.ID, "err", err)
		return
	}
	if balance.Cmp(req.Amount) < 0 {
		p.log.Debug("insufficient balance to fill", "request", req.ID, "balance", balance, "amount", req.Amount)
		return
	}

	approveAmount := req.Amount
	if cap := p.Checker.Allowance(req.TargetChainID, req.TargetToken); cap != nil {
		approveAmount = cap
	}
	switch p.Actions.Fill(p.ctx, req, approveAmount).Outcome {
	case executor.Accepted:
		delete(p.fillReverts, req.ID)
		if err := req.FillUnconfirmed(); err != nil {
			p.log.Error("fill-unconfirmed transition failed", "request", req.ID, "err", err)
		}
	case executor.Reverted:
		p.fillReverts[req.ID]++
		if p.fillReverts[req.ID] >= maxFillReverts {
			p.log.Warn("giving up on repeatedly refused fill", "request", req.ID)
			if err := req.MarkUnfillable(); err != nil {
				p.log.Error("unfillable transition failed", "request", req.ID, "err", err)
			}
		}
	}
}

func (p *Processor) ignore(req *state.Request) {
	if err := req.Ignore(); err != nil && err != state.ErrAlreadyApplied {
		p.log.Error("ignore transition failed", "request", req.ID, "err", err)
	}
}

// claimRequest claims a request we filled ourselves.
func (p *Processor) claimRequest(req *state.Request) {
	if p.Actions.Claim(p.ctx, req).Accepted() {
		if err := req.ClaimUnconfirmed(); err != nil {
			p.log.Error("claim-unconfirmed transition failed", "request", req.ID, "err", err)
		}
	}
}

// maybeWithdraw withdraws our own claim once its termination has passed.
// The contract pays whichever side actually won; a refusal is logged by
// the executor and retried never.
func (p *Processor) maybeWithdraw(claim *state.Claim, now uint64) {
	if claim.Claimer != p.Address || claim.State() == state.ClaimInvalidated {
		return
	}
	if now < claim.Termination {
		return
	}
	p.Actions.Withdraw(p.ctx, claim.ID)
}

func bigMax(a, b *big.Int) *big.Int {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}
