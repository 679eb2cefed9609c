// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tokens

import (
	"fmt"
	"math/big"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cast"
)

// Token is one (chain, token contract) pair.
type Token struct {
	ChainID uint64
	Address common.Address
}

// connectedL2s maps a base chain to the rollups settling on it. An
// equivalence class must not span rollups of different base chains;
// L1 resolution could not arbitrate across them.
var connectedL2s = map[uint64]mapset.Set[uint64]{
	// Mainnet: Optimism, Arbitrum, Boba, Metis
	1: mapset.NewSet[uint64](10, 42161, 288, 1088),
	// Goerli: Arbitrum, Optimism, Boba
	5: mapset.NewSet[uint64](421613, 420, 2888),
}

type tokenData struct {
	class     mapset.Set[Token]
	allowance *big.Int
}

// Checker is the pure token-pair policy: which source/target tokens are
// mutually bridgeable and how much of each the agent may spend.
type Checker struct {
	tokens map[Token]tokenData
}

// NewChecker builds a checker from configured equivalence classes. Each
// class is a list of [chain-id, address] or [chain-id, address, allowance]
// entries; allowance "-1" means unbounded.
func NewChecker(classes [][][]string) (*Checker, error) {
	checker := &Checker{tokens: make(map[Token]tokenData)}
	for _, class := range classes {
		members := mapset.NewSet[Token]()
		chains := mapset.NewSet[uint64]()
		for _, entry := range class {
			token, _, err := parseEntry(entry)
			if err != nil {
				return nil, err
			}
			members.Add(token)
			chains.Add(token.ChainID)
		}
		for base, rollups := range connectedL2s {
			overlap := rollups.Intersect(chains)
			if overlap.Cardinality() > 0 && !chains.IsSubset(rollups) {
				return nil, fmt.Errorf(
					"equivalence class spans multiple base chains (base %d, chains %v)", base, chains.ToSlice())
			}
		}
		for _, entry := range class {
			token, allowance, err := parseEntry(entry)
			if err != nil {
				return nil, err
			}
			checker.tokens[token] = tokenData{class: members, allowance: allowance}
		}
	}
	return checker, nil
}

// IsValidPair reports whether source and target tokens belong to the same
// equivalence class.
func (c *Checker) IsValidPair(sourceChainID uint64, sourceToken common.Address, targetChainID uint64, targetToken common.Address) bool {
	data, ok := c.tokens[Token{ChainID: sourceChainID, Address: sourceToken}]
	return ok && data.class.Contains(Token{ChainID: targetChainID, Address: targetToken})
}

// Allowance returns the configured spending cap for the given token, or
// nil if no cap is configured.
func (c *Checker) Allowance(chainID uint64, token common.Address) *big.Int {
	data, ok := c.tokens[Token{ChainID: chainID, Address: token}]
	if !ok || data.allowance == nil {
		return nil
	}
	return new(big.Int).Set(data.allowance)
}

func parseEntry(entry []string) (Token, *big.Int, error) {
	if len(entry) != 2 && len(entry) != 3 {
		return Token{}, nil, fmt.Errorf("unexpected token entry: %v", entry)
	}
	chainID, err := cast.ToUint64E(entry[0])
	if err != nil {
		return Token{}, nil, fmt.Errorf("invalid chain id %q: %w", entry[0], err)
	}
	if !common.IsHexAddress(entry[1]) {
		return Token{}, nil, fmt.Errorf("invalid token address %q", entry[1])
	}
	token := Token{ChainID: chainID, Address: common.HexToAddress(entry[1])}
	if len(entry) == 2 {
		return token, nil, nil
	}
	if entry[2] == "-1" {
		return token, maxUint256(), nil
	}
	allowance, ok := new(big.Int).SetString(entry[2], 10)
	if !ok || allowance.Sign() < 0 {
		return Token{}, nil, fmt.Errorf("invalid allowance %q", entry[2])
	}
	return token, allowance, nil
}

func maxUint256() *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), 256)
	return max.Sub(max, big.NewInt(1))
}
