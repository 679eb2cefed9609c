// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package agent

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"

	"github.com/0xLogan-x/beamer/agent/config"
	"github.com/0xLogan-x/beamer/chain"
	"github.com/0xLogan-x/beamer/contracts"
	"github.com/0xLogan-x/beamer/events"
	"github.com/0xLogan-x/beamer/executor"
	"github.com/0xLogan-x/beamer/l1"
	"github.com/0xLogan-x/beamer/metrics"
	"github.com/0xLogan-x/beamer/processor"
	"github.com/0xLogan-x/beamer/state"
	"github.com/0xLogan-x/beamer/tokens"
)

// Agent runs the reactive engine for one chain pair: two event monitors,
// one processor, and the executor they drive.
type Agent struct {
	cfg       *config.Config
	source    *chain.Client
	target    *chain.Client
	metrics   *metrics.Metrics
	processor *processor.Processor
	monitors  []*events.Monitor
	log       log.Logger
}

// New wires up the agent. Misconfiguration, a missing relayer binary and
// a non-whitelisted LP address are all startup-fatal.
func New(ctx context.Context, cfg *config.Config) (*Agent, error) {
	key, err := loadKey(cfg.KeystoreFile, cfg.Password)
	if err != nil {
		return nil, err
	}

	source, err := chain.DialContext(ctx, cfg.SourceChain.RPCURL, key)
	if err != nil {
		return nil, fmt.Errorf("source chain: %w", err)
	}
	target, err := chain.DialContext(ctx, cfg.TargetChain.RPCURL, key)
	if err != nil {
		return nil, fmt.Errorf("target chain: %w", err)
	}

	requestManager := contracts.NewRequestManager(cfg.SourceChain.Contract, source)
	fillManager := contracts.NewFillManager(cfg.TargetChain.Contract, target)

	allowed, err := fillManager.AllowedLP(ctx, source.Address())
	if err != nil {
		return nil, fmt.Errorf("whitelist check: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("agent address %s is not whitelisted by the fill manager", source.Address())
	}

	checker, err := tokens.NewChecker(cfg.Tokens)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	exec := executor.New(
		requestManager,
		fillManager,
		cfg.TargetChain.Contract,
		func(token common.Address) executor.Token { return contracts.NewERC20(token, target) },
		source.Address(),
		m,
	)

	params := processor.Params{
		Address:       source.Address(),
		SourceChainID: source.ChainID(),
		TargetChainID: target.ChainID(),
		Requests:      state.NewRequestTracker(),
		Claims:        state.NewClaimTracker(),
		Checker:       checker,
		Actions:       exec,
		RequestReader: requestManager,
		TargetReader:  &targetReader{client: target},
		FillWaitTime:  cfg.FillWaitTime,
		Metrics:       m,
	}
	if cfg.L1RPCURL != "" {
		relayer := cfg.RelayerPath
		if relayer == "" {
			if relayer, err = l1.RelayerExecutable(); err != nil {
				return nil, err
			}
		}
		resolver, err := l1.NewResolver(relayer, cfg.L1RPCURL, cfg.SourceChain.RPCURL, cfg.TargetChain.RPCURL, key)
		if err != nil {
			return nil, err
		}
		params.Resolver = resolver
	}

	proc := processor.New(params)

	a := &Agent{
		cfg:       cfg,
		source:    source,
		target:    target,
		metrics:   m,
		processor: proc,
		log:       log.New("component", "agent"),
	}
	a.monitors = []*events.Monitor{
		a.newMonitor("request-manager", source, contracts.RequestManagerABI, cfg.SourceChain),
		a.newMonitor("fill-manager", target, contracts.FillManagerABI, cfg.TargetChain),
	}
	return a, nil
}

func (a *Agent) newMonitor(name string, client *chain.Client, contractABI abi.ABI, cfg config.ChainConfig) *events.Monitor {
	decoder := events.NewDecoder(client.ChainID(), contractABI)
	fetcher := events.NewFetcher(name, client, decoder, cfg.Contract, cfg.DeploymentBlock, cfg.LogRange)
	onNewEvents := func(batch []events.Event) {
		a.metrics.EventsFetched.WithLabelValues(name).Add(float64(len(batch)))
		a.processor.AddEvents(batch)
	}
	return events.NewMonitor(name, fetcher, onNewEvents, a.processor.MarkSyncDone, a.processor.UpdateBlock)
}

// Address is the agent's LP account.
func (a *Agent) Address() common.Address { return a.source.Address() }

func (a *Agent) Start() {
	a.processor.Start()
	for _, monitor := range a.monitors {
		monitor.Start()
	}
	a.log.Info("agent started", "address", a.Address())
}

func (a *Agent) Stop() {
	for _, monitor := range a.monitors {
		monitor.Stop()
	}
	a.processor.Stop()
	a.log.Info("agent stopped")
}

// Run starts the agent and blocks until ctx is cancelled, serving metrics
// on the side when configured.
func (a *Agent) Run(ctx context.Context) error {
	a.Start()
	defer a.Stop()

	g, gctx := errgroup.WithContext(ctx)
	if addr := a.cfg.MetricsAddress; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		server := &http.Server{Addr: addr, Handler: mux}
		g.Go(func() error {
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return server.Shutdown(sctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	return g.Wait()
}

// targetReader adapts the target chain client for fill decisions.
type targetReader struct {
	client *chain.Client
}

func (r *targetReader) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return r.client.CodeAt(ctx, account)
}

func (r *targetReader) TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	return contracts.NewERC20(token, r.client).BalanceOf(ctx, owner)
}

func loadKey(keystoreFile, password string) (*ecdsa.PrivateKey, error) {
	encrypted, err := os.ReadFile(keystoreFile)
	if err != nil {
		return nil, fmt.Errorf("reading keystore: %w", err)
	}
	key, err := keystore.DecryptKey(encrypted, password)
	if err != nil {
		return nil, fmt.Errorf("decrypting keystore: %w", err)
	}
	return key.PrivateKey, nil
}
