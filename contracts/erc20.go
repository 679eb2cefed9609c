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
)

// ERC20 binds a standard token contract on the target rollup.
type ERC20 struct {
	Address common.Address
	client  *chain.Client
	bound   *bind.BoundContract
}

func NewERC20(address common.Address, client *chain.Client) *ERC20 {
	backend := client.Backend()
	return &ERC20{
		Address: address,
		client:  client,
		bound:   bind.NewBoundContract(address, ERC20ABI, backend, backend, backend),
	}
}

func (t *ERC20) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	opts, cancel := t.client.CallOpts(ctx)
	defer cancel()
	var out []interface{}
	if err := t.bound.Call(opts, &out, "balanceOf", account); err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (t *ERC20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	opts, cancel := t.client.CallOpts(ctx)
	defer cancel()
	var out []interface{}
	if err := t.bound.Call(opts, &out, "allowance", owner, spender); err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (t *ERC20) Decimals(ctx context.Context) (uint8, error) {
	opts, cancel := t.client.CallOpts(ctx)
	defer cancel()
	var out []interface{}
	if err := t.bound.Call(opts, &out, "decimals"); err != nil {
		return 0, err
	}
	return out[0].(uint8), nil
}

func (t *ERC20) Symbol(ctx context.Context) (string, error) {
	opts, cancel := t.client.CallOpts(ctx)
	defer cancel()
	var out []interface{}
	if err := t.bound.Call(opts, &out, "symbol"); err != nil {
		return "", err
	}
	return out[0].(string), nil
}

func (t *ERC20) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Receipt, error) {
	return t.client.Transact(ctx, t.bound, nil, "approve", spender, amount)
}
