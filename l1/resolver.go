// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package l1

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
)

var relayerNames = map[string]string{
	"linux":  "relayer-node18-linux-x64",
	"darwin": "relayer-node18-macos-x64",
}

// RelayerExecutable returns the path of the packaged relayer binary,
// looked up next to the agent binary. Callers must check existence.
func RelayerExecutable() (string, error) {
	name, ok := relayerNames[runtime.GOOS]
	if !ok {
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	self, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(self), "relayers", name), nil
}

// Resolver invokes the external relayer to carry a fill or invalidation
// proof from the target rollup through L1 to the source rollup.
type Resolver struct {
	relayer   string
	l1RPC     string
	sourceRPC string
	targetRPC string
	key       *ecdsa.PrivateKey
	log       log.Logger
}

// NewResolver verifies the relayer binary exists; a missing relayer is a
// startup-fatal misconfiguration.
func NewResolver(relayer, l1RPC, sourceRPC, targetRPC string, key *ecdsa.PrivateKey) (*Resolver, error) {
	if _, err := os.Stat(relayer); err != nil {
		return nil, fmt.Errorf("relayer executable not found at %s: %w", relayer, err)
	}
	return &Resolver{
		relayer:   relayer,
		l1RPC:     l1RPC,
		sourceRPC: sourceRPC,
		targetRPC: targetRPC,
		key:       key,
		log:       log.New("component", "l1-resolver"),
	}, nil
}

// Run relays the proof of the transaction with the given hash from the
// target rollup to the source rollup. Failures are reported, not retried;
// the periodic scan retriggers while the claim state still warrants it.
func (r *Resolver) Run(ctx context.Context, fillTx common.Hash) error {
	cmd := exec.CommandContext(ctx, r.relayer,
		"--l1-rpc-url", r.l1RPC,
		"--l2-relay-to-rpc-url", r.sourceRPC,
		"--l2-relay-from-rpc-url", r.targetRPC,
		"--wallet-private-key", hexutil.Encode(crypto.FromECDSA(r.key)),
		"--l2-transaction-hash", fillTx.Hex(),
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		r.log.Error("relayer failed", "tx", fillTx, "err", err, "output", string(output))
		return fmt.Errorf("relayer for %s: %w", fillTx, err)
	}
	r.log.Info("L1 resolution relayed", "tx", fillTx)
	return nil
}
