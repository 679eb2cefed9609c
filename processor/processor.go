// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package processor

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/0xLogan-x/beamer/contracts"
	"github.com/0xLogan-x/beamer/events"
	"github.com/0xLogan-x/beamer/executor"
	"github.com/0xLogan-x/beamer/metrics"
	"github.com/0xLogan-x/beamer/state"
	"github.com/0xLogan-x/beamer/tokens"
	"github.com/0xLogan-x/beamer/utils"
)

const (
	// Maximum wait for new events; the periodic scan runs at least this
	// often even when the chains are quiet.
	scanInterval = time.Second

	// Maximum time Stop blocks waiting for the worker to exit.
	stopTimeout = 2 * time.Second
)

// Actions is the slice of the executor the processor drives.
type Actions interface {
	Fill(ctx context.Context, req *state.Request, approveAmount *big.Int) executor.Result
	Claim(ctx context.Context, req *state.Request) executor.Result
	Challenge(ctx context.Context, claimID state.ClaimID, stake *big.Int) executor.Result
	Withdraw(ctx context.Context, claimID state.ClaimID) executor.Result
	InvalidateFill(ctx context.Context, id state.RequestID, fillID state.FillID, sourceChainID uint64) executor.Result
}

// RequestReader reads stored request records from the request manager.
type RequestReader interface {
	Request(ctx context.Context, id state.RequestID) (*contracts.RequestData, error)
}

// TargetReader reads target-chain state needed for fill decisions.
type TargetReader interface {
	CodeAt(ctx context.Context, account common.Address) ([]byte, error)
	TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error)
}

// Resolver triggers L1 resolution for a fill or invalidation transaction.
type Resolver interface {
	Run(ctx context.Context, tx common.Hash) error
}

// Params wires a processor. Everything is explicit; there is no package
// state.
type Params struct {
	Address       common.Address
	SourceChainID uint64
	TargetChainID uint64
	Requests      *state.RequestTracker
	Claims        *state.ClaimTracker
	Checker       *tokens.Checker
	Actions       Actions
	RequestReader RequestReader
	TargetReader  TargetReader
	Resolver      Resolver
	FillWaitTime  uint64 // seconds before challenging a claim whose fill we have not seen
	Metrics       *metrics.Metrics
}

// Processor is the single reactor owning the trackers and state machines.
// Monitors are producers only; every mutation happens on the processor
// worker.
type Processor struct {
	Params

	ctx context.Context

	mu           sync.Mutex
	events       []events.Event
	numSyncsDone int
	blocks       map[uint64]state.BlockReference
	l1Started    map[state.RequestID]bool
	invalidating map[state.ClaimID]bool
	fillReverts  map[state.RequestID]int

	haveEvents chan struct{}
	stopCh     chan struct{}
	wg         sync.WaitGroup
	log        log.Logger
}

func New(params Params) *Processor {
	return &Processor{
		Params:       params,
		ctx:          context.Background(),
		blocks:       make(map[uint64]state.BlockReference),
		l1Started:    make(map[state.RequestID]bool),
		invalidating: make(map[state.ClaimID]bool),
		fillReverts:  make(map[state.RequestID]int),
		haveEvents:   make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
		log:          log.New("component", "processor"),
	}
}

func (p *Processor) Start() {
	utils.Go(p.log, "event-processor", &p.wg, p.run)
}

func (p *Processor) Stop() {
	close(p.stopCh)
	if !utils.WaitTimeout(&p.wg, stopTimeout) {
		p.log.Warn("processor did not stop in time")
	}
}

// AddEvents enqueues a batch from a monitor and wakes the worker.
func (p *Processor) AddEvents(batch []events.Event) {
	p.mu.Lock()
	p.events = append(p.events, batch...)
	p.mu.Unlock()
	select {
	case p.haveEvents <- struct{}{}:
	default:
	}
}

// MarkSyncDone counts a monitor's initial-sync completion. The periodic
// scan stays disabled until both chains are synced.
func (p *Processor) MarkSyncDone() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.numSyncsDone >= 2 {
		panic("sync-done signalled more than twice")
	}
	p.numSyncsDone++
}

// UpdateBlock records the latest observed block of one chain. Time-based
// predicates use these, never the wall clock.
func (p *Processor) UpdateBlock(ref state.BlockReference) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current, ok := p.blocks[ref.ChainID]; !ok || ref.Number > current.Number {
		p.blocks[ref.ChainID] = ref
	}
}

func (p *Processor) blockTime(chainID uint64) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.blocks[chainID].Timestamp
}

func (p *Processor) synced() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.numSyncsDone >= 2
}

func (p *Processor) run() {
	p.log.Info("processor started")
	for {
		select {
		case <-p.stopCh:
			p.log.Info("processor stopped")
			return
		case <-p.haveEvents:
			p.processEvents()
		case <-time.After(scanInterval):
		}
		p.processRequests()
	}
}

// processEvents drains the queue to a fixed point. Events that caused no
// state change keep their relative order and are re-appended to the tail,
// behind anything the monitors enqueued in the meantime; they converge
// once their causally prior event arrives.
func (p *Processor) processEvents() {
	for iteration := 0; ; iteration++ {
		p.mu.Lock()
		snapshot := append([]events.Event(nil), p.events...)
		p.mu.Unlock()

		var unprocessed []events.Event
		anyChanged := false
		for _, ev := range snapshot {
			consumed, changed := p.applyEvent(ev)
			anyChanged = anyChanged || changed
			if !consumed {
				unprocessed = append(unprocessed, ev)
			}
		}

		p.mu.Lock()
		remaining := append([]events.Event(nil), p.events[len(snapshot):]...)
		p.events = append(remaining, unprocessed...)
		queued := len(p.events)
		p.mu.Unlock()
		p.Metrics.EventsRequeued.Add(float64(len(unprocessed)))

		p.log.Debug("drain iteration finished",
			"iteration", iteration, "changed", anyChanged, "queued", queued)
		if !anyChanged {
			return
		}
	}
}

// applyEvent feeds one event into the state machines. consumed=false means
// a prerequisite is missing and the event is re-queued; changed drives the
// drain's fixed-point iteration.
func (p *Processor) applyEvent(ev events.Event) (consumed, changed bool) {
	switch ev := ev.(type) {
	case events.RequestCreated:
		return p.applyRequestCreated(ev)
	case events.RequestFilled:
		req, ok := p.Requests.Get(ev.RequestID)
		if !ok {
			return false, false
		}
		err := req.Fill(ev.Filler, ev.FillID, ev.TxHash)
		if err == nil {
			p.log.Info("request filled", "request", ev.RequestID, "filler", ev.Filler)
		}
		return p.transitionOutcome(ev, err)
	case events.ClaimMade:
		return p.applyClaimMade(ev)
	case events.ClaimWithdrawn:
		return p.applyClaimWithdrawn(ev)
	case events.FillInvalidated:
		return p.applyFillInvalidated(ev)
	case events.RequestResolved:
		return p.applyRequestResolved(ev)
	}
	// An unknown event type cannot appear unless a decoder was extended
	// without the processor; fail fast.
	panic("unrecognized event type " + ev.Name())
}

func (p *Processor) applyRequestCreated(ev events.RequestCreated) (bool, bool) {
	if _, ok := p.Requests.Get(ev.RequestID); ok {
		return true, false
	}
	// The stored record carries the fees fixed at creation; read it
	// before tracking so the request is complete from the start.
	data, err := p.RequestReader.Request(p.ctx, ev.RequestID)
	if err != nil {
		p.log.Warn("reading request record failed", "request", ev.RequestID, "err", err)
		return false, false
	}
	req := state.NewRequest(
		ev.RequestID,
		ev.ChainID,
		ev.TargetChainID,
		ev.SourceToken,
		ev.TargetToken,
		ev.TargetAddress,
		ev.Amount,
		ev.Nonce,
		ev.ValidUntil,
	)
	req.LpFee = data.LpFee
	req.ProtocolFee = data.ProtocolFee
	p.Requests.Add(req.ID, req)
	p.log.Info("tracking request", "request", req.ID, "amount", req.Amount, "validUntil", req.ValidUntil)
	return true, true
}

func (p *Processor) applyClaimMade(ev events.ClaimMade) (bool, bool) {
	req, ok := p.Requests.Get(ev.RequestID)
	if !ok {
		return false, false
	}

	claim, known := p.Claims.Get(ev.ClaimID)
	if !known {
		if ev.Claimer == p.Address {
			// Our own claim confirms the request's claimed state.
			if err := req.Claim(); err != nil {
				if _, illegal := err.(*state.TransitionError); illegal {
					return false, false
				}
			}
		}
		claim = state.NewClaim(ev.ClaimID, ev.RequestID, ev.Claimer, ev.FillID, p.claimBackOff(req, ev))
		if err := claim.ApplyClaimMade(ev.ClaimerStake, ev.LastChallenger, ev.ChallengerStakeTotal, ev.Termination); err != nil {
			p.log.Error("dropping bad claim event", "claim", ev.ClaimID, "err", err)
			return true, false
		}
		p.Claims.Add(claim.ID, claim)
		p.log.Info("tracking claim",
			"claim", claim.ID, "request", claim.RequestID, "claimer", claim.Claimer, "stake", claim.ClaimerStake)
		return true, true
	}

	err := claim.ApplyClaimMade(ev.ClaimerStake, ev.LastChallenger, ev.ChallengerStakeTotal, ev.Termination)
	if err == nil {
		p.log.Info("claim updated", "claim", claim.ID, "state", claim.State(),
			"claimerStake", claim.ClaimerStake, "challengerStakeTotal", claim.ChallengerStakeTotal)
	}
	return p.transitionOutcome(ev, err)
}

func (p *Processor) applyClaimWithdrawn(ev events.ClaimWithdrawn) (bool, bool) {
	claim, ok := p.Claims.Get(ev.ClaimID)
	if !ok {
		return false, false
	}
	if err := claim.Withdraw(); err != nil {
		return p.transitionOutcome(ev, err)
	}
	// The deposit is gone only when the claim winner was the filler.
	if req, ok := p.Requests.Get(ev.RequestID); ok {
		if filler, has := req.Filler(); has && filler == ev.Receiver {
			if err := req.Withdraw(); err != nil && err != state.ErrAlreadyApplied {
				p.log.Error("request withdraw transition failed", "request", req.ID, "err", err)
			}
		}
	}
	p.log.Info("claim withdrawn", "claim", ev.ClaimID, "receiver", ev.Receiver)
	return true, true
}

func (p *Processor) applyFillInvalidated(ev events.FillInvalidated) (bool, bool) {
	req, ok := p.Requests.Get(ev.RequestID)
	if !ok {
		return false, false
	}
	if err := req.InvalidateFill(ev.FillID, ev.TxHash); err != nil {
		return p.transitionOutcome(ev, err)
	}
	for _, claim := range p.claimsOf(ev.RequestID) {
		if claim.FillID != ev.FillID {
			continue
		}
		if err := claim.Invalidate(); err != nil && err != state.ErrAlreadyApplied {
			p.log.Error("claim invalidation rejected", "claim", claim.ID, "err", err)
		}
	}
	p.log.Info("fill invalidated", "request", ev.RequestID, "fillId", ev.FillID)
	return true, true
}

func (p *Processor) applyRequestResolved(ev events.RequestResolved) (bool, bool) {
	req, ok := p.Requests.Get(ev.RequestID)
	if !ok {
		return false, false
	}
	err := req.L1Resolve(ev.Filler, ev.FillID)
	if err != nil {
		if _, illegal := err.(*state.TransitionError); illegal {
			p.log.Error("dropping resolution for settled request", "request", ev.RequestID)
			return true, false
		}
		return p.transitionOutcome(ev, err)
	}
	// Resolution is authoritative: claims matching it are valid again,
	// regardless of earlier invalidations.
	for _, claim := range p.claimsOf(ev.RequestID) {
		if claim.Claimer == ev.Filler && claim.FillID == ev.FillID {
			if err := claim.Revalidate(); err == nil {
				p.log.Info("claim revalidated by resolution", "claim", claim.ID)
			}
		}
	}
	p.log.Info("request resolved via L1", "request", ev.RequestID, "filler", ev.Filler)
	return true, true
}

// transitionOutcome maps a state-machine error to drain semantics:
// duplicates are consumed silently, invariant violations are consumed with
// an error log, disallowed transitions are re-queued.
func (p *Processor) transitionOutcome(ev events.Event, err error) (bool, bool) {
	switch err.(type) {
	case nil:
		return true, true
	case *state.InvariantError:
		p.log.Error("dropping event violating invariant", "event", ev.Name(), "err", err)
		return true, false
	case *state.TransitionError:
		return false, false
	default: // state.ErrAlreadyApplied
		return true, false
	}
}

// claimBackOff derives the challenge back-off for a new claim: foreign
// claims whose fill we have not observed get fillWaitTime of grace, since
// the matching RequestFilled may simply still be in flight.
func (p *Processor) claimBackOff(req *state.Request, ev events.ClaimMade) uint64 {
	if ev.Claimer == p.Address {
		return 0
	}
	if fillID, ok := req.FillID(); ok && fillID == ev.FillID {
		return 0
	}
	return p.blockTime(p.SourceChainID) + p.FillWaitTime
}

func (p *Processor) claimsOf(requestID state.RequestID) []*state.Claim {
	var claims []*state.Claim
	for _, claim := range p.Claims.Items() {
		if claim.RequestID == requestID {
			claims = append(claims, claim)
		}
	}
	return claims
}
