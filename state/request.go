// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RequestState is the lifecycle state of a bridge request as seen by the
// agent.
type RequestState uint8

const (
	RequestPending RequestState = iota
	RequestIgnored
	RequestFilledUnconfirmed
	RequestFilled
	RequestClaimedUnconfirmed
	RequestClaimed
	RequestWithdrawn
	RequestL1Resolved
	RequestUnfillable
)

func (s RequestState) String() string {
	switch s {
	case RequestPending:
		return "Pending"
	case RequestIgnored:
		return "Ignored"
	case RequestFilledUnconfirmed:
		return "FilledUnconfirmed"
	case RequestFilled:
		return "Filled"
	case RequestClaimedUnconfirmed:
		return "ClaimedUnconfirmed"
	case RequestClaimed:
		return "Claimed"
	case RequestWithdrawn:
		return "Withdrawn"
	case RequestL1Resolved:
		return "L1Resolved"
	case RequestUnfillable:
		return "Unfillable"
	}
	return "Unknown"
}

// Request is a token-transfer intent created on the source rollup. All
// mutation happens on the processor goroutine.
type Request struct {
	ID            RequestID
	SourceChainID uint64
	TargetChainID uint64
	SourceToken   common.Address
	TargetToken   common.Address
	TargetAddress common.Address
	Amount        *big.Int
	Nonce         *big.Int
	ValidUntil    uint64
	LpFee         *big.Int
	ProtocolFee   *big.Int

	state   RequestState
	filler  common.Address
	fillID  FillID
	fillTx  common.Hash
	hasFill bool

	// fill IDs declared invalid by an L1 message, mapped to the
	// invalidation transaction; cleared again if a subsequent resolution
	// confirms the fill.
	invalidFills map[FillID]common.Hash
}

func NewRequest(
	id RequestID,
	sourceChainID, targetChainID uint64,
	sourceToken, targetToken, targetAddress common.Address,
	amount, nonce *big.Int,
	validUntil uint64,
) *Request {
	return &Request{
		ID:            id,
		SourceChainID: sourceChainID,
		TargetChainID: targetChainID,
		SourceToken:   sourceToken,
		TargetToken:   targetToken,
		TargetAddress: targetAddress,
		Amount:        amount,
		Nonce:         nonce,
		ValidUntil:    validUntil,
		state:         RequestPending,
		invalidFills:  make(map[FillID]common.Hash),
	}
}

func (r *Request) State() RequestState { return r.state }

// Filler returns the known filler address and whether a fill has been
// observed at all.
func (r *Request) Filler() (common.Address, bool) { return r.filler, r.hasFill }

// FillID returns the fill ID of the observed fill.
func (r *Request) FillID() (FillID, bool) { return r.fillID, r.hasFill }

// FillTx is the hash of the transaction that produced the fill, used as
// input to L1 resolution.
func (r *Request) FillTx() common.Hash { return r.fillTx }

func (r *Request) IsInvalidFill(fillID FillID) bool {
	_, ok := r.invalidFills[fillID]
	return ok
}

// InvalidFillTx returns the transaction that invalidated the given fill;
// it is the proof carried by the L1 relayer.
func (r *Request) InvalidFillTx(fillID FillID) (common.Hash, bool) {
	tx, ok := r.invalidFills[fillID]
	return tx, ok
}

func (r *Request) transitionError(event string) error {
	return &TransitionError{Entity: "request", From: r.state.String(), Event: event}
}

// Ignore marks a pending request as not worth filling (expired, invalid
// token pair or token without code).
func (r *Request) Ignore() error {
	if r.state == RequestIgnored {
		return ErrAlreadyApplied
	}
	if r.state != RequestPending {
		return r.transitionError("ignore")
	}
	r.state = RequestIgnored
	return nil
}

// MarkUnfillable records that filling failed permanently; the request will
// be pruned by the next scan.
func (r *Request) MarkUnfillable() error {
	if r.state == RequestUnfillable {
		return ErrAlreadyApplied
	}
	if r.state != RequestPending && r.state != RequestFilledUnconfirmed {
		return r.transitionError("unfillable")
	}
	r.state = RequestUnfillable
	return nil
}

// FillUnconfirmed records that our fill transaction was accepted; the
// RequestFilled event has not been observed yet.
func (r *Request) FillUnconfirmed() error {
	if r.state != RequestPending {
		return r.transitionError("fill-unconfirmed")
	}
	r.state = RequestFilledUnconfirmed
	return nil
}

// Fill applies an observed RequestFilled event. The filler and fill ID are
// set exactly once; they can only be superseded by L1 resolution.
func (r *Request) Fill(filler common.Address, fillID FillID, fillTx common.Hash) error {
	if r.hasFill && r.filler == filler && r.fillID == fillID {
		return ErrAlreadyApplied
	}
	switch r.state {
	case RequestPending, RequestFilledUnconfirmed:
	default:
		return r.transitionError("fill")
	}
	r.state = RequestFilled
	r.filler = filler
	r.fillID = fillID
	r.fillTx = fillTx
	r.hasFill = true
	return nil
}

// ClaimUnconfirmed records that our claim transaction was accepted; the
// ClaimMade event has not been observed yet.
func (r *Request) ClaimUnconfirmed() error {
	if r.state != RequestFilled {
		return r.transitionError("claim-unconfirmed")
	}
	r.state = RequestClaimedUnconfirmed
	return nil
}

// Claim applies an observed ClaimMade event carrying our own address as
// claimer. Foreign claims do not change the request state; they live in
// the claim tracker only.
func (r *Request) Claim() error {
	switch r.state {
	case RequestClaimed:
		return ErrAlreadyApplied
	case RequestFilled, RequestClaimedUnconfirmed:
		r.state = RequestClaimed
		return nil
	}
	return r.transitionError("claim")
}

// Withdraw applies an observed ClaimWithdrawn event that moved the deposit
// to the filler. The request is terminal afterwards.
func (r *Request) Withdraw() error {
	if r.state == RequestWithdrawn {
		return ErrAlreadyApplied
	}
	if r.state != RequestClaimed {
		return r.transitionError("withdraw")
	}
	r.state = RequestWithdrawn
	return nil
}

// L1Resolve registers an authoritative L1 resolution for this request. The
// resolved filler and fill ID supersede any previously observed fill data,
// and the resolved fill ID is no longer considered invalid.
func (r *Request) L1Resolve(filler common.Address, fillID FillID) error {
	if r.state == RequestL1Resolved && r.filler == filler && r.fillID == fillID {
		return ErrAlreadyApplied
	}
	if r.state == RequestWithdrawn {
		return r.transitionError("l1-resolve")
	}
	r.state = RequestL1Resolved
	r.filler = filler
	r.fillID = fillID
	r.hasFill = true
	delete(r.invalidFills, fillID)
	return nil
}

// InvalidateFill registers an observed fill invalidation together with the
// transaction that produced it.
func (r *Request) InvalidateFill(fillID FillID, tx common.Hash) error {
	if _, ok := r.invalidFills[fillID]; ok {
		return ErrAlreadyApplied
	}
	r.invalidFills[fillID] = tx
	return nil
}
