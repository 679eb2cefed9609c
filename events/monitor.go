// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/0xLogan-x/beamer/state"
	"github.com/0xLogan-x/beamer/utils"
)

const (
	// Poll cadence once the initial sync is done.
	monitorPollInterval = time.Second

	// Maximum time Stop blocks waiting for the worker to exit.
	stopTimeout = 2 * time.Second
)

// Monitor drives one fetcher on a background worker. Non-empty batches go
// to onNewEvents; onSyncDone fires exactly once after the first successful
// fetch, even an empty one.
type Monitor struct {
	name        string
	fetcher     *Fetcher
	onNewEvents func([]Event)
	onSyncDone  func()
	onNewBlock  func(state.BlockReference)

	stopCh chan struct{}
	wg     sync.WaitGroup
	log    log.Logger
}

func NewMonitor(
	name string,
	fetcher *Fetcher,
	onNewEvents func([]Event),
	onSyncDone func(),
	onNewBlock func(state.BlockReference),
) *Monitor {
	return &Monitor{
		name:        name,
		fetcher:     fetcher,
		onNewEvents: onNewEvents,
		onSyncDone:  onSyncDone,
		onNewBlock:  onNewBlock,
		stopCh:      make(chan struct{}),
		log:         log.New("monitor", name),
	}
}

func (m *Monitor) Start() {
	utils.Go(m.log, m.name, &m.wg, m.run)
}

// Stop flips the stop flag and waits for the worker with a bounded join.
func (m *Monitor) Stop() {
	close(m.stopCh)
	if !utils.WaitTimeout(&m.wg, stopTimeout) {
		m.log.Warn("monitor did not stop in time")
	}
}

func (m *Monitor) run() {
	m.log.Info("monitor started")
	ctx := context.Background()

	// Initial sync: retry until the first fetch succeeds, then signal
	// sync-done exactly once.
	for {
		if m.fetchOnce(ctx) {
			break
		}
		if m.sleepOrStop() {
			m.log.Info("monitor stopped before initial sync")
			return
		}
	}
	m.onSyncDone()
	m.log.Info("sync done")

	for {
		if m.sleepOrStop() {
			break
		}
		m.fetchOnce(ctx)
	}
	m.log.Info("monitor stopped")
}

// fetchOnce runs one fetch cycle and reports whether it succeeded.
func (m *Monitor) fetchOnce(ctx context.Context) bool {
	fetched, latest, err := m.fetcher.Fetch(ctx)
	if len(fetched) > 0 {
		m.onNewEvents(fetched)
	}
	if latest.ChainID != 0 && m.onNewBlock != nil {
		m.onNewBlock(latest)
	}
	if err != nil {
		m.log.Error("event fetch failed", "err", err)
		return false
	}
	return true
}

func (m *Monitor) sleepOrStop() bool {
	select {
	case <-m.stopCh:
		return true
	case <-time.After(monitorPollInterval):
		return false
	}
}
