// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contracts

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestABIsCoverAgentSurface(t *testing.T) {
	for _, name := range []string{"RequestCreated", "ClaimMade", "ClaimWithdrawn", "RequestResolved"} {
		_, ok := RequestManagerABI.Events[name]
		require.True(t, ok, "request manager event %s", name)
	}
	for _, name := range []string{"RequestFilled", "FillInvalidated"} {
		_, ok := FillManagerABI.Events[name]
		require.True(t, ok, "fill manager event %s", name)
	}
	for _, name := range []string{"requests", "claimStake", "claimRequest", "challengeClaim",
		"withdraw", "withdraw0", "resolveRequest", "isInvalidFill", "lpFee", "protocolFee", "totalFee"} {
		_, ok := RequestManagerABI.Methods[name]
		require.True(t, ok, "request manager method %s", name)
	}
	for _, name := range []string{"fillRequest", "invalidateFill", "allowedLPs"} {
		_, ok := FillManagerABI.Methods[name]
		require.True(t, ok, "fill manager method %s", name)
	}
	for _, name := range []string{"balanceOf", "approve", "allowance", "decimals", "symbol"} {
		_, ok := ERC20ABI.Methods[name]
		require.True(t, ok, "erc20 method %s", name)
	}
}

func TestOverloadedWithdrawTakesReceiver(t *testing.T) {
	method := RequestManagerABI.Methods["withdraw0"]
	require.Len(t, method.Inputs, 2)
	require.Equal(t, "address", method.Inputs[0].Type.String())
}

func TestFeeMath(t *testing.T) {
	fees := &FeeData{
		ProtocolFeePPM: 14_000,
		LpFeePPM:       15_000,
		MinLpFee:       big.NewInt(5),
	}
	amount := big.NewInt(23_000_000)

	lpFee := fees.LpFee(amount)
	require.EqualValues(t, big.NewInt(345_000), lpFee)
	protocolFee := fees.ProtocolFee(amount)
	require.EqualValues(t, big.NewInt(322_000), protocolFee)
	require.EqualValues(t, new(big.Int).Add(lpFee, protocolFee), fees.TotalFee(amount))
}

func TestFeeMathMinimumLpFee(t *testing.T) {
	fees := &FeeData{LpFeePPM: 15_000, MinLpFee: big.NewInt(1_000_000)}
	require.EqualValues(t, big.NewInt(1_000_000), fees.LpFee(big.NewInt(100)))
}

func TestFeeMathZeroRates(t *testing.T) {
	fees := &FeeData{}
	require.Zero(t, fees.TotalFee(big.NewInt(23_000_000)).Sign())
}

func TestFeeMathTruncates(t *testing.T) {
	// Integer division truncates; 7 * 15000 / 1e6 = 0.105 -> 0.
	fees := &FeeData{LpFeePPM: 15_000}
	require.Zero(t, fees.LpFee(big.NewInt(7)).Sign())
}
