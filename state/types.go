// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// RequestID is the 32-byte identifier of a bridge request, derived on-chain
// from the request parameters and nonce.
type RequestID common.Hash

func (id RequestID) String() string {
	return common.Hash(id).Hex()
}

// FillID is the 32-byte opaque identifier returned by fillRequest. A valid
// claim must echo the fill ID of the actual fill.
type FillID common.Hash

func (id FillID) String() string {
	return common.Hash(id).Hex()
}

// ClaimID identifies one claim within the request manager. On chain it is a
// uint96 counter; it always fits into 64 bits in practice.
type ClaimID uint64

// BlockReference is the latest observed block of one chain. Time-based
// predicates use block timestamps, never the local wall clock.
type BlockReference struct {
	ChainID   uint64
	Number    uint64
	Timestamp uint64
}

// TransitionError reports a state-machine transition that is not allowed
// from the current state. Events causing it are treated as not consumed.
type TransitionError struct {
	Entity string
	From   string
	Event  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s transition %q not allowed in state %s", e.Entity, e.Event, e.From)
}

// ErrAlreadyApplied signals that an event carries no new information, e.g.
// a terminal event delivered twice. Such events are consumed without a
// state change.
var ErrAlreadyApplied = &alreadyAppliedError{}

type alreadyAppliedError struct{}

func (*alreadyAppliedError) Error() string { return "event already applied" }
