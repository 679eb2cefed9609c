// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contracts

import (
	"math/big"

	"github.com/holiman/uint256"
)

// PPM is the denominator of fee rates; rates are integers <= 10^6.
const PPM = 1_000_000

// FeeData holds the fee parameters of the request manager at one point in
// time. Fees recorded on a request are fixed at creation; these helpers
// reproduce the contract's integer math for reporting and tests.
type FeeData struct {
	ProtocolFeePPM uint64
	LpFeePPM       uint64
	MinLpFee       *big.Int
}

// LpFee computes the LP fee for the given transfer amount:
// max(minLpFee, amount * lpFeePPM / PPM). Pure integer arithmetic; no
// floating point may ever touch a transaction value.
func (f *FeeData) LpFee(amount *big.Int) *big.Int {
	fee := ppmShare(amount, f.LpFeePPM)
	if f.MinLpFee != nil && fee.Cmp(f.MinLpFee) < 0 {
		return new(big.Int).Set(f.MinLpFee)
	}
	return fee
}

// ProtocolFee computes the protocol fee: amount * protocolFeePPM / PPM.
func (f *FeeData) ProtocolFee(amount *big.Int) *big.Int {
	return ppmShare(amount, f.ProtocolFeePPM)
}

// TotalFee is the sum of LP and protocol fees.
func (f *FeeData) TotalFee(amount *big.Int) *big.Int {
	return new(big.Int).Add(f.LpFee(amount), f.ProtocolFee(amount))
}

func ppmShare(amount *big.Int, ppm uint64) *big.Int {
	value, overflow := uint256.FromBig(amount)
	if overflow {
		value = new(uint256.Int) // not a representable token amount
	}
	share := new(uint256.Int).Mul(value, uint256.NewInt(ppm))
	share.Div(share, uint256.NewInt(PPM))
	return share.ToBig()
}
