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

// RequestData mirrors the request manager's stored request record.
type RequestData struct {
	SourceTokenAddress common.Address
	TargetTokenAddress common.Address
	TargetAddress      common.Address
	Amount             *big.Int
	Nonce              *big.Int
	ValidUntil         *big.Int
	LpFee              *big.Int
	ProtocolFee        *big.Int
}

// RequestManager binds the request manager deployed on the source rollup.
type RequestManager struct {
	Address common.Address
	client  *chain.Client
	bound   *bind.BoundContract
}

func NewRequestManager(address common.Address, client *chain.Client) *RequestManager {
	backend := client.Backend()
	return &RequestManager{
		Address: address,
		client:  client,
		bound:   bind.NewBoundContract(address, RequestManagerABI, backend, backend, backend),
	}
}

// Request reads the stored request record for the given id.
func (m *RequestManager) Request(ctx context.Context, id state.RequestID) (*RequestData, error) {
	opts, cancel := m.client.CallOpts(ctx)
	defer cancel()
	var out []interface{}
	if err := m.bound.Call(opts, &out, "requests", common.Hash(id)); err != nil {
		return nil, err
	}
	return &RequestData{
		SourceTokenAddress: out[0].(common.Address),
		TargetTokenAddress: out[1].(common.Address),
		TargetAddress:      out[2].(common.Address),
		Amount:             out[3].(*big.Int),
		Nonce:              out[4].(*big.Int),
		ValidUntil:         out[5].(*big.Int),
		LpFee:              out[6].(*big.Int),
		ProtocolFee:        out[7].(*big.Int),
	}, nil
}

// ClaimStake reads the stake required for a new claim.
func (m *RequestManager) ClaimStake(ctx context.Context) (*big.Int, error) {
	opts, cancel := m.client.CallOpts(ctx)
	defer cancel()
	var out []interface{}
	if err := m.bound.Call(opts, &out, "claimStake"); err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// IsInvalidFill reports whether the given fill has been invalidated via L1.
func (m *RequestManager) IsInvalidFill(ctx context.Context, id state.RequestID, fillID state.FillID) (bool, error) {
	opts, cancel := m.client.CallOpts(ctx)
	defer cancel()
	var out []interface{}
	if err := m.bound.Call(opts, &out, "isInvalidFill", common.Hash(id), common.Hash(fillID)); err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

// LpFee reads the LP fee the contract would charge for the given amount.
func (m *RequestManager) LpFee(ctx context.Context, amount *big.Int) (*big.Int, error) {
	return m.feeView(ctx, "lpFee", amount)
}

// ProtocolFee reads the protocol fee for the given amount.
func (m *RequestManager) ProtocolFee(ctx context.Context, amount *big.Int) (*big.Int, error) {
	return m.feeView(ctx, "protocolFee", amount)
}

// TotalFee reads the total fee for the given amount.
func (m *RequestManager) TotalFee(ctx context.Context, amount *big.Int) (*big.Int, error) {
	return m.feeView(ctx, "totalFee", amount)
}

func (m *RequestManager) feeView(ctx context.Context, method string, amount *big.Int) (*big.Int, error) {
	opts, cancel := m.client.CallOpts(ctx)
	defer cancel()
	var out []interface{}
	if err := m.bound.Call(opts, &out, method, amount); err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// ClaimRequest submits a claim for the given request, depositing the claim
// stake as transaction value.
func (m *RequestManager) ClaimRequest(ctx context.Context, id state.RequestID, fillID state.FillID, stake *big.Int) (*types.Receipt, error) {
	return m.client.Transact(ctx, m.bound, stake, "claimRequest", common.Hash(id), common.Hash(fillID))
}

// ChallengeClaim outbids the current leader of the given claim with the
// given stake.
func (m *RequestManager) ChallengeClaim(ctx context.Context, claimID state.ClaimID, stake *big.Int) (*types.Receipt, error) {
	return m.client.Transact(ctx, m.bound, stake, "challengeClaim", claimIDArg(claimID))
}

// Withdraw settles a terminated claim in favor of its winner.
func (m *RequestManager) Withdraw(ctx context.Context, claimID state.ClaimID) (*types.Receipt, error) {
	return m.client.Transact(ctx, m.bound, nil, "withdraw", claimIDArg(claimID))
}

// WithdrawOnBehalf settles a terminated claim, directing the payout to the
// given receiver. The ABI overload of withdraw resolves to "withdraw0".
func (m *RequestManager) WithdrawOnBehalf(ctx context.Context, receiver common.Address, claimID state.ClaimID) (*types.Receipt, error) {
	return m.client.Transact(ctx, m.bound, nil, "withdraw0", receiver, claimIDArg(claimID))
}

// ResolveRequest records an L1 resolution on the request manager. The
// contract restricts this to the L1 messenger; nothing in the agent calls
// it.
func (m *RequestManager) ResolveRequest(
	ctx context.Context,
	id state.RequestID,
	fillID state.FillID,
	chainID uint64,
	filler common.Address,
) (*types.Receipt, error) {
	return m.client.Transact(ctx, m.bound, nil, "resolveRequest",
		common.Hash(id), common.Hash(fillID), new(big.Int).SetUint64(chainID), filler)
}

func claimIDArg(id state.ClaimID) *big.Int {
	return new(big.Int).SetUint64(uint64(id))
}
