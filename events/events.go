// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0xLogan-x/beamer/state"
)

// Event is one confirmed contract event, decoded and stamped with its
// origin chain.
type Event interface {
	Name() string
	Origin() Meta
}

// Meta identifies where an event was observed.
type Meta struct {
	ChainID     uint64
	BlockNumber uint64
	TxHash      common.Hash
}

func (m Meta) Origin() Meta { return m }

// RequestCreated is emitted by the request manager when a transfer request
// is deposited on the source rollup.
type RequestCreated struct {
	Meta
	RequestID     state.RequestID
	TargetChainID uint64
	SourceToken   common.Address
	TargetToken   common.Address
	SourceAddress common.Address
	TargetAddress common.Address
	Amount        *big.Int
	Nonce         *big.Int
	ValidUntil    uint64
}

func (RequestCreated) Name() string { return "RequestCreated" }

// RequestFilled is emitted by the fill manager on the target rollup.
type RequestFilled struct {
	Meta
	RequestID     state.RequestID
	FillID        state.FillID
	SourceChainID uint64
	TargetToken   common.Address
	Filler        common.Address
	Amount        *big.Int
}

func (RequestFilled) Name() string { return "RequestFilled" }

// ClaimMade is emitted for the initial claim and for every outbid.
type ClaimMade struct {
	Meta
	RequestID            state.RequestID
	ClaimID              state.ClaimID
	FillID               state.FillID
	Claimer              common.Address
	ClaimerStake         *big.Int
	LastChallenger       common.Address
	ChallengerStakeTotal *big.Int
	Termination          uint64
}

func (ClaimMade) Name() string { return "ClaimMade" }

// ClaimWithdrawn is emitted when a terminated claim is settled.
type ClaimWithdrawn struct {
	Meta
	RequestID state.RequestID
	ClaimID   state.ClaimID
	Receiver  common.Address
}

func (ClaimWithdrawn) Name() string { return "ClaimWithdrawn" }

// FillInvalidated is emitted by the fill manager on the target rollup when
// invalidateFill declares a fill ID invalid; its transaction is the proof
// the L1 relayer carries.
type FillInvalidated struct {
	Meta
	RequestID state.RequestID
	FillID    state.FillID
}

func (FillInvalidated) Name() string { return "FillInvalidated" }

// RequestResolved is emitted when an L1 resolution delivers the
// authoritative filler for a request.
type RequestResolved struct {
	Meta
	RequestID state.RequestID
	Filler    common.Address
	FillID    state.FillID
}

func (RequestResolved) Name() string { return "RequestResolved" }
