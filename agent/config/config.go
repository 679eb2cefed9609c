// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Defaults applied when the config file leaves a knob unset.
const (
	DefaultLogLevel     = "info"
	DefaultFillWaitTime = 120  // seconds
	DefaultLogRange     = 5000 // blocks per eth_getLogs query
)

// ChainConfig describes one rollup endpoint and the contract watched
// there.
type ChainConfig struct {
	RPCURL          string
	Contract        common.Address
	DeploymentBlock uint64
	LogRange        uint64
}

// Config is everything the agent needs to run one chain pair.
type Config struct {
	SourceChain ChainConfig // request manager side
	TargetChain ChainConfig // fill manager side
	L1RPCURL    string

	KeystoreFile string
	Password     string

	FillWaitTime uint64
	Tokens       [][][]string

	LogLevel       string
	LogJSON        bool
	LogFile        string
	MetricsAddress string
	RelayerPath    string
}

// Load reads the config file at path. The format is whatever viper
// recognizes from the extension; TOML in all deployments so far.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("log-level", DefaultLogLevel)
	v.SetDefault("fill-wait-time", DefaultFillWaitTime)
	v.SetDefault("source-chain.log-range", DefaultLogRange)
	v.SetDefault("target-chain.log-range", DefaultLogRange)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	sourceChain, err := chainConfig(v, "source-chain", "request-manager")
	if err != nil {
		return nil, err
	}
	targetChain, err := chainConfig(v, "target-chain", "fill-manager")
	if err != nil {
		return nil, err
	}
	tokenClasses, err := tokenConfig(v.Get("tokens"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SourceChain:    sourceChain,
		TargetChain:    targetChain,
		L1RPCURL:       v.GetString("l1-rpc-url"),
		KeystoreFile:   v.GetString("keystore-file"),
		Password:       v.GetString("password"),
		FillWaitTime:   v.GetUint64("fill-wait-time"),
		Tokens:         tokenClasses,
		LogLevel:       v.GetString("log-level"),
		LogJSON:        v.GetBool("log-json"),
		LogFile:        v.GetString("log-file"),
		MetricsAddress: v.GetString("metrics-address"),
		RelayerPath:    v.GetString("relayer-path"),
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.SourceChain.RPCURL == "" || c.TargetChain.RPCURL == "" {
		return fmt.Errorf("both source and target rpc-url must be set")
	}
	if c.KeystoreFile == "" {
		return fmt.Errorf("keystore-file must be set")
	}
	if c.FillWaitTime == 0 {
		return fmt.Errorf("fill-wait-time must be positive")
	}
	return nil
}

func chainConfig(v *viper.Viper, section, contractKey string) (ChainConfig, error) {
	address := v.GetString(section + "." + contractKey)
	if !common.IsHexAddress(address) {
		return ChainConfig{}, fmt.Errorf("%s.%s: invalid address %q", section, contractKey, address)
	}
	return ChainConfig{
		RPCURL:          v.GetString(section + ".rpc-url"),
		Contract:        common.HexToAddress(address),
		DeploymentBlock: v.GetUint64(section + ".deployment-block"),
		LogRange:        v.GetUint64(section + ".log-range"),
	}, nil
}

// tokenConfig normalizes the nested token-class lists; viper hands them
// back as untyped slices.
func tokenConfig(raw interface{}) ([][][]string, error) {
	if raw == nil {
		return nil, nil
	}
	classes, err := cast.ToSliceE(raw)
	if err != nil {
		return nil, fmt.Errorf("tokens: %w", err)
	}
	result := make([][][]string, 0, len(classes))
	for _, rawClass := range classes {
		entries, err := cast.ToSliceE(rawClass)
		if err != nil {
			return nil, fmt.Errorf("tokens: %w", err)
		}
		class := make([][]string, 0, len(entries))
		for _, rawEntry := range entries {
			entry, err := cast.ToStringSliceE(rawEntry)
			if err != nil {
				return nil, fmt.Errorf("tokens: %w", err)
			}
			class = append(class, entry)
		}
		result = append(result, class)
	}
	return result, nil
}
