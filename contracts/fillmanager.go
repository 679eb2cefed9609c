// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/0xLogan-x/beamer/chain"
	"github.com/0xLogan-x/beamer/state"
)

// FillManager binds the fill manager deployed on the target rollup.
type FillManager struct {
	Address common.Address
	client  *chain.Client
	bound   *bind.BoundContract
}

func NewFillManager(address common.Address, client *chain.Client) *FillManager {
	backend := client.Backend()
	return &FillManager{
		Address: address,
		client:  client,
		bound:   bind.NewBoundContract(address, FillManagerABI, backend, backend, backend),
	}
}

// AllowedLP reports whether the given address is whitelisted as a
// liquidity provider. The agent refuses to start when it is not.
func (m *FillManager) AllowedLP(ctx context.Context, lp common.Address) (bool, error) {
	opts, cancel := m.client.CallOpts(ctx)
	defer cancel()
	var out []interface{}
	if err := m.bound.Call(opts, &out, "allowedLPs", lp); err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

// FillRequest transfers the requested tokens to the target address. The
// token must have been approved to the fill manager beforehand.
func (m *FillManager) FillRequest(
	ctx context.Context,
	id state.RequestID,
	sourceChainID uint64,
	targetToken, targetReceiver common.Address,
	amount *big.Int,
) (*types.Receipt, error) {
	return m.client.Transact(ctx, m.bound, nil, "fillRequest",
		common.Hash(id), new(big.Int).SetUint64(sourceChainID), targetToken, targetReceiver, amount)
}

// InvalidateFill asks the fill manager to prove non-existence of a fill,
// sending the proof towards L1.
func (m *FillManager) InvalidateFill(
	ctx context.Context,
	id state.RequestID,
	fillID state.FillID,
	sourceChainID uint64,
) (*types.Receipt, error) {
	return m.client.Transact(ctx, m.bound, nil, "invalidateFill",
		common.Hash(id), common.Hash(fillID), new(big.Int).SetUint64(sourceChainID))
}
