// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/0xLogan-x/beamer/chain"
	"github.com/0xLogan-x/beamer/metrics"
	"github.com/0xLogan-x/beamer/state"
)

// Outcome classifies what happened to a submitted action.
type Outcome uint8

const (
	// Accepted: the transaction was mined with a successful receipt.
	Accepted Outcome = iota
	// Reverted: the contract refused; the periodic scan may try an
	// alternative path, but the call is never retried automatically.
	Reverted
	// Transient: an RPC-level failure; the scan will simply try again.
	Transient
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Reverted:
		return "reverted"
	case Transient:
		return "transient"
	}
	return "unknown"
}

// Result is the classified outcome of one action.
type Result struct {
	Outcome Outcome
	Receipt *types.Receipt
	Err     error
}

func (r Result) Accepted() bool { return r.Outcome == Accepted }

// RequestManagerTxs is the slice of the request manager the executor uses.
type RequestManagerTxs interface {
	ClaimStake(ctx context.Context) (*big.Int, error)
	ClaimRequest(ctx context.Context, id state.RequestID, fillID state.FillID, stake *big.Int) (*types.Receipt, error)
	ChallengeClaim(ctx context.Context, claimID state.ClaimID, stake *big.Int) (*types.Receipt, error)
	Withdraw(ctx context.Context, claimID state.ClaimID) (*types.Receipt, error)
	WithdrawOnBehalf(ctx context.Context, receiver common.Address, claimID state.ClaimID) (*types.Receipt, error)
}

// FillManagerTxs is the slice of the fill manager the executor uses.
type FillManagerTxs interface {
	FillRequest(ctx context.Context, id state.RequestID, sourceChainID uint64, targetToken, targetReceiver common.Address, amount *big.Int) (*types.Receipt, error)
	InvalidateFill(ctx context.Context, id state.RequestID, fillID state.FillID, sourceChainID uint64) (*types.Receipt, error)
}

// Token is the slice of an ERC-20 the executor uses when filling.
type Token interface {
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Receipt, error)
}

// Executor submits on-chain actions and classifies their outcomes. It
// performs no decision making of its own.
type Executor struct {
	requestManager RequestManagerTxs
	fillManager    FillManagerTxs
	fillManagerAt  common.Address
	token          func(common.Address) Token
	self           common.Address
	metrics        *metrics.Metrics
	log            log.Logger
}

func New(
	requestManager RequestManagerTxs,
	fillManager FillManagerTxs,
	fillManagerAt common.Address,
	token func(common.Address) Token,
	self common.Address,
	m *metrics.Metrics,
) *Executor {
	return &Executor{
		requestManager: requestManager,
		fillManager:    fillManager,
		fillManagerAt:  fillManagerAt,
		token:          token,
		self:           self,
		metrics:        m,
		log:            log.New("component", "executor"),
	}
}

// Fill approves the target token to the fill manager if the current
// allowance does not cover the transfer, then fills the request.
// approveAmount is the configured cap, or the request amount if no cap is
// set.
func (e *Executor) Fill(ctx context.Context, req *state.Request, approveAmount *big.Int) Result {
	token := e.token(req.TargetToken)
	allowance, err := token.Allowance(ctx, e.self, e.fillManagerAt)
	if err != nil {
		return e.classify("allowance", nil, err)
	}
	if allowance.Cmp(req.Amount) < 0 {
		receipt, err := token.Approve(ctx, e.fillManagerAt, approveAmount)
		if result := e.classify("approve", receipt, err); !result.Accepted() {
			return result
		}
	}
	receipt, err := e.fillManager.FillRequest(ctx, req.ID, req.SourceChainID, req.TargetToken, req.TargetAddress, req.Amount)
	result := e.classify("fillRequest", receipt, err)
	if result.Accepted() {
		e.log.Info("filled request", "request", req.ID, "amount", req.Amount)
	}
	return result
}

// Claim claims the request we filled, depositing the current claim stake.
func (e *Executor) Claim(ctx context.Context, req *state.Request) Result {
	stake, err := e.requestManager.ClaimStake(ctx)
	if err != nil {
		return e.classify("claimStake", nil, err)
	}
	fillID, ok := req.FillID()
	if !ok {
		return Result{Outcome: Transient, Err: errNoFill}
	}
	receipt, err := e.requestManager.ClaimRequest(ctx, req.ID, fillID, stake)
	result := e.classify("claimRequest", receipt, err)
	if result.Accepted() {
		e.log.Info("claimed request", "request", req.ID, "stake", stake)
	}
	return result
}

// Challenge outbids the current leader of the given claim.
func (e *Executor) Challenge(ctx context.Context, claimID state.ClaimID, stake *big.Int) Result {
	receipt, err := e.requestManager.ChallengeClaim(ctx, claimID, stake)
	result := e.classify("challengeClaim", receipt, err)
	if result.Accepted() {
		e.metrics.Challenges.Inc()
		e.log.Info("challenged claim", "claim", claimID, "stake", stake)
	}
	return result
}

// Withdraw settles a terminated claim.
func (e *Executor) Withdraw(ctx context.Context, claimID state.ClaimID) Result {
	receipt, err := e.requestManager.Withdraw(ctx, claimID)
	result := e.classify("withdraw", receipt, err)
	if result.Accepted() {
		e.log.Info("withdrew claim", "claim", claimID)
	}
	return result
}

// WithdrawOnBehalf settles a terminated claim towards the given receiver.
func (e *Executor) WithdrawOnBehalf(ctx context.Context, receiver common.Address, claimID state.ClaimID) Result {
	receipt, err := e.requestManager.WithdrawOnBehalf(ctx, receiver, claimID)
	return e.classify("withdraw", receipt, err)
}

// InvalidateFill starts an L1 proof that the given fill does not exist.
func (e *Executor) InvalidateFill(ctx context.Context, id state.RequestID, fillID state.FillID, sourceChainID uint64) Result {
	receipt, err := e.fillManager.InvalidateFill(ctx, id, fillID, sourceChainID)
	return e.classify("invalidateFill", receipt, err)
}

func (e *Executor) classify(method string, receipt *types.Receipt, err error) Result {
	switch {
	case err == nil:
		e.metrics.TxSubmitted.WithLabelValues(method).Inc()
		return Result{Outcome: Accepted, Receipt: receipt}
	case chain.IsTransactionFailed(err):
		e.metrics.TxReverted.WithLabelValues(method).Inc()
		e.log.Error("contract refused transaction", "method", method, "err", err)
		return Result{Outcome: Reverted, Err: err}
	default:
		e.log.Warn("transient failure", "method", method, "err", err)
		return Result{Outcome: Transient, Err: err}
	}
}

var errNoFill = &noFillError{}

type noFillError struct{}

func (*noFillError) Error() string { return "request has no observed fill" }
