// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
log-level = "debug"
metrics-address = ":9100"
keystore-file = "/keys/agent.json"
password = "hunter2"
fill-wait-time = 90
l1-rpc-url = "http://l1:8545"

tokens = [
  [
    ["420", "0x2f985a5f6cf7e16eBc2fC500d425E45a04a9c2A3", "-1"],
    ["2888", "0x9D6D62FD7e3dF8E1c1b0E1eAb3cc4a0b05f7bFcE"],
  ],
]

[source-chain]
rpc-url = "http://source:8545"
request-manager = "0x2f985a5f6cf7e16eBc2fC500d425E45a04a9c2A3"
deployment-block = 12

[target-chain]
rpc-url = "http://target:8545"
fill-manager = "0x9D6D62FD7e3dF8E1c1b0E1eAb3cc4a0b05f7bFcE"
deployment-block = 34
log-range = 2000
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	require.Equal(t, "http://source:8545", cfg.SourceChain.RPCURL)
	require.Equal(t, common.HexToAddress("0x2f985a5f6cf7e16eBc2fC500d425E45a04a9c2A3"), cfg.SourceChain.Contract)
	require.EqualValues(t, 12, cfg.SourceChain.DeploymentBlock)
	require.EqualValues(t, DefaultLogRange, cfg.SourceChain.LogRange)
	require.EqualValues(t, 2000, cfg.TargetChain.LogRange)

	require.Equal(t, "http://l1:8545", cfg.L1RPCURL)
	require.Equal(t, "/keys/agent.json", cfg.KeystoreFile)
	require.EqualValues(t, 90, cfg.FillWaitTime)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, ":9100", cfg.MetricsAddress)

	require.Len(t, cfg.Tokens, 1)
	require.Equal(t, [][]string{
		{"420", "0x2f985a5f6cf7e16eBc2fC500d425E45a04a9c2A3", "-1"},
		{"2888", "0x9D6D62FD7e3dF8E1c1b0E1eAb3cc4a0b05f7bFcE"},
	}, cfg.Tokens[0])
}

func TestLoadConfigDefaults(t *testing.T) {
	minimal := `
keystore-file = "/keys/agent.json"

[source-chain]
rpc-url = "http://source:8545"
request-manager = "0x2f985a5f6cf7e16eBc2fC500d425E45a04a9c2A3"

[target-chain]
rpc-url = "http://target:8545"
fill-manager = "0x9D6D62FD7e3dF8E1c1b0E1eAb3cc4a0b05f7bFcE"
`
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)
	require.Equal(t, DefaultLogLevel, cfg.LogLevel)
	require.EqualValues(t, DefaultFillWaitTime, cfg.FillWaitTime)
	require.Empty(t, cfg.Tokens)
	require.Empty(t, cfg.L1RPCURL)
}

func TestLoadConfigRejectsBadContract(t *testing.T) {
	bad := `
keystore-file = "/keys/agent.json"

[source-chain]
rpc-url = "http://source:8545"
request-manager = "not-an-address"

[target-chain]
rpc-url = "http://target:8545"
fill-manager = "0x9D6D62FD7e3dF8E1c1b0E1eAb3cc4a0b05f7bFcE"
`
	_, err := Load(writeConfig(t, bad))
	require.Error(t, err)
}

func TestLoadConfigRequiresKeystore(t *testing.T) {
	bad := `
[source-chain]
rpc-url = "http://source:8545"
request-manager = "0x2f985a5f6cf7e16eBc2fC500d425E45a04a9c2A3"

[target-chain]
rpc-url = "http://target:8545"
fill-manager = "0x9D6D62FD7e3dF8E1c1b0E1eAb3cc4a0b05f7bFcE"
`
	_, err := Load(writeConfig(t, bad))
	require.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
