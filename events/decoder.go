// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/0xLogan-x/beamer/state"
)

// ErrUnknownEvent is returned for logs whose topic does not match any
// event the decoder knows. Such logs are skipped by the fetcher.
var ErrUnknownEvent = fmt.Errorf("unknown event")

// Decoder turns raw logs of one contract into typed events.
type Decoder struct {
	chainID uint64
	abi     abi.ABI
}

func NewDecoder(chainID uint64, contractABI abi.ABI) *Decoder {
	return &Decoder{chainID: chainID, abi: contractABI}
}

func (d *Decoder) Decode(l types.Log) (Event, error) {
	if len(l.Topics) == 0 {
		return nil, ErrUnknownEvent
	}
	name := ""
	for _, ev := range d.abi.Events {
		if ev.ID == l.Topics[0] {
			name = ev.RawName
			break
		}
	}
	if name == "" {
		return nil, ErrUnknownEvent
	}
	values, err := d.unpack(name, l)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	meta := Meta{ChainID: d.chainID, BlockNumber: l.BlockNumber, TxHash: l.TxHash}

	switch name {
	case "RequestCreated":
		return RequestCreated{
			Meta:          meta,
			RequestID:     asRequestID(values["requestId"]),
			TargetChainID: asUint64(values["targetChainId"]),
			SourceToken:   values["sourceTokenAddress"].(common.Address),
			TargetToken:   values["targetTokenAddress"].(common.Address),
			SourceAddress: values["sourceAddress"].(common.Address),
			TargetAddress: values["targetAddress"].(common.Address),
			Amount:        values["amount"].(*big.Int),
			Nonce:         values["nonce"].(*big.Int),
			ValidUntil:    asUint64(values["validUntil"]),
		}, nil
	case "RequestFilled":
		return RequestFilled{
			Meta:          meta,
			RequestID:     asRequestID(values["requestId"]),
			FillID:        asFillID(values["fillId"]),
			SourceChainID: asUint64(values["sourceChainId"]),
			TargetToken:   values["targetTokenAddress"].(common.Address),
			Filler:        values["filler"].(common.Address),
			Amount:        values["amount"].(*big.Int),
		}, nil
	case "ClaimMade":
		return ClaimMade{
			Meta:                 meta,
			RequestID:            asRequestID(values["requestId"]),
			ClaimID:              state.ClaimID(asUint64(values["claimId"])),
			FillID:               asFillID(values["fillId"]),
			Claimer:              values["claimer"].(common.Address),
			ClaimerStake:         values["claimerStake"].(*big.Int),
			LastChallenger:       values["lastChallenger"].(common.Address),
			ChallengerStakeTotal: values["challengerStakeTotal"].(*big.Int),
			Termination:          asUint64(values["termination"]),
		}, nil
	case "ClaimWithdrawn":
		return ClaimWithdrawn{
			Meta:      meta,
			RequestID: asRequestID(values["requestId"]),
			ClaimID:   state.ClaimID(asUint64(values["claimId"])),
			Receiver:  values["claimReceiver"].(common.Address),
		}, nil
	case "FillInvalidated":
		return FillInvalidated{
			Meta:      meta,
			RequestID: asRequestID(values["requestId"]),
			FillID:    asFillID(values["fillId"]),
		}, nil
	case "RequestResolved":
		return RequestResolved{
			Meta:      meta,
			RequestID: asRequestID(values["requestId"]),
			Filler:    values["filler"].(common.Address),
			FillID:    asFillID(values["fillId"]),
		}, nil
	}
	return nil, ErrUnknownEvent
}

func (d *Decoder) unpack(name string, l types.Log) (map[string]interface{}, error) {
	values := make(map[string]interface{})
	if err := d.abi.UnpackIntoMap(values, name, l.Data); err != nil {
		return nil, err
	}
	var indexed abi.Arguments
	for _, arg := range d.abi.Events[name].Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopicsIntoMap(values, indexed, l.Topics[1:]); err != nil {
		return nil, err
	}
	return values, nil
}

func asRequestID(v interface{}) state.RequestID {
	return state.RequestID(v.([32]byte))
}

func asFillID(v interface{}) state.FillID {
	return state.FillID(v.([32]byte))
}

func asUint64(v interface{}) uint64 {
	return v.(*big.Int).Uint64()
}
