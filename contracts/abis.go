// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Hand-maintained ABI fragments for the deployed bridge contracts,
// restricted to the events and functions the agent uses.

const requestManagerABIJSON = `[
{"type":"event","name":"RequestCreated","inputs":[
 {"name":"requestId","type":"bytes32","indexed":true},
 {"name":"targetChainId","type":"uint256","indexed":false},
 {"name":"sourceTokenAddress","type":"address","indexed":false},
 {"name":"targetTokenAddress","type":"address","indexed":false},
 {"name":"sourceAddress","type":"address","indexed":false},
 {"name":"targetAddress","type":"address","indexed":false},
 {"name":"amount","type":"uint256","indexed":false},
 {"name":"nonce","type":"uint96","indexed":false},
 {"name":"validUntil","type":"uint256","indexed":false}],"anonymous":false},
{"type":"event","name":"ClaimMade","inputs":[
 {"name":"requestId","type":"bytes32","indexed":true},
 {"name":"claimId","type":"uint96","indexed":false},
 {"name":"fillId","type":"bytes32","indexed":false},
 {"name":"claimer","type":"address","indexed":false},
 {"name":"claimerStake","type":"uint96","indexed":false},
 {"name":"lastChallenger","type":"address","indexed":false},
 {"name":"challengerStakeTotal","type":"uint96","indexed":false},
 {"name":"termination","type":"uint256","indexed":false}],"anonymous":false},
{"type":"event","name":"ClaimWithdrawn","inputs":[
 {"name":"claimId","type":"uint96","indexed":false},
 {"name":"requestId","type":"bytes32","indexed":true},
 {"name":"claimReceiver","type":"address","indexed":false}],"anonymous":false},
{"type":"event","name":"RequestResolved","inputs":[
 {"name":"requestId","type":"bytes32","indexed":true},
 {"name":"filler","type":"address","indexed":false},
 {"name":"fillId","type":"bytes32","indexed":false}],"anonymous":false},
{"type":"function","name":"requests","stateMutability":"view","inputs":[
 {"name":"requestId","type":"bytes32"}],"outputs":[
 {"name":"sourceTokenAddress","type":"address"},
 {"name":"targetTokenAddress","type":"address"},
 {"name":"targetAddress","type":"address"},
 {"name":"amount","type":"uint256"},
 {"name":"nonce","type":"uint96"},
 {"name":"validUntil","type":"uint256"},
 {"name":"lpFee","type":"uint256"},
 {"name":"protocolFee","type":"uint256"}]},
{"type":"function","name":"claimStake","stateMutability":"view","inputs":[],"outputs":[
 {"name":"","type":"uint96"}]},
{"type":"function","name":"isInvalidFill","stateMutability":"view","inputs":[
 {"name":"requestId","type":"bytes32"},{"name":"fillId","type":"bytes32"}],"outputs":[
 {"name":"","type":"bool"}]},
{"type":"function","name":"lpFee","stateMutability":"view","inputs":[
 {"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"protocolFee","stateMutability":"view","inputs":[
 {"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"totalFee","stateMutability":"view","inputs":[
 {"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"claimRequest","stateMutability":"payable","inputs":[
 {"name":"requestId","type":"bytes32"},{"name":"fillId","type":"bytes32"}],"outputs":[
 {"name":"","type":"uint96"}]},
{"type":"function","name":"challengeClaim","stateMutability":"payable","inputs":[
 {"name":"claimId","type":"uint96"}],"outputs":[]},
{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[
 {"name":"claimId","type":"uint96"}],"outputs":[]},
{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[
 {"name":"claimReceiver","type":"address"},{"name":"claimId","type":"uint96"}],"outputs":[]},
{"type":"function","name":"resolveRequest","stateMutability":"nonpayable","inputs":[
 {"name":"requestId","type":"bytes32"},{"name":"fillId","type":"bytes32"},
 {"name":"chainId","type":"uint256"},{"name":"filler","type":"address"}],"outputs":[]}
]`

const fillManagerABIJSON = `[
{"type":"event","name":"RequestFilled","inputs":[
 {"name":"requestId","type":"bytes32","indexed":true},
 {"name":"fillId","type":"bytes32","indexed":false},
 {"name":"sourceChainId","type":"uint256","indexed":true},
 {"name":"targetTokenAddress","type":"address","indexed":false},
 {"name":"filler","type":"address","indexed":true},
 {"name":"amount","type":"uint256","indexed":false}],"anonymous":false},
{"type":"event","name":"FillInvalidated","inputs":[
 {"name":"requestId","type":"bytes32","indexed":true},
 {"name":"fillId","type":"bytes32","indexed":false}],"anonymous":false},
{"type":"function","name":"fillRequest","stateMutability":"nonpayable","inputs":[
 {"name":"requestId","type":"bytes32"},
 {"name":"sourceChainId","type":"uint256"},
 {"name":"targetTokenAddress","type":"address"},
 {"name":"targetReceiverAddress","type":"address"},
 {"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bytes32"}]},
{"type":"function","name":"invalidateFill","stateMutability":"nonpayable","inputs":[
 {"name":"requestId","type":"bytes32"},
 {"name":"fillId","type":"bytes32"},
 {"name":"sourceChainId","type":"uint256"}],"outputs":[]},
{"type":"function","name":"allowedLPs","stateMutability":"view","inputs":[
 {"name":"","type":"address"}],"outputs":[{"name":"","type":"bool"}]}
]`

const erc20ABIJSON = `[
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[
 {"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"allowance","stateMutability":"view","inputs":[
 {"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[
 {"name":"","type":"uint256"}]},
{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[
 {"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[
 {"name":"","type":"bool"}]},
{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[
 {"name":"","type":"uint8"}]},
{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[
 {"name":"","type":"string"}]}
]`

var (
	// RequestManagerABI covers the source-chain request manager.
	RequestManagerABI = mustParseABI(requestManagerABIJSON)
	// FillManagerABI covers the target-chain fill manager.
	FillManagerABI = mustParseABI(fillManagerABIJSON)
	// ERC20ABI is the minimal token interface used when filling.
	ERC20ABI = mustParseABI(erc20ABIJSON)
)

func mustParseABI(data string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(data))
	if err != nil {
		panic(err)
	}
	return parsed
}
