// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// Go runs fn on a new goroutine tracked by wg. A panic anywhere in a
// worker aborts the whole process: state-machine invariants cannot be
// maintained with a partially working chain view.
func Go(logger log.Logger, name string, wg *sync.WaitGroup, fn func()) {
	wg.Add(1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("worker died", "worker", name, "err", r, "stack", string(debug.Stack()))
				os.Exit(1)
			}
		}()
		defer wg.Done()
		fn()
	}()
}

// WaitTimeout waits for wg up to the given duration and reports whether
// the wait completed.
func WaitTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
