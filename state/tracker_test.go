// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackerAddGetRemove(t *testing.T) {
	tracker := NewTracker[ClaimID, string]()
	tracker.Add(1, "a")
	tracker.Add(2, "b")

	v, ok := tracker.Get(1)
	require.True(t, ok)
	require.Equal(t, "a", v)
	require.Equal(t, 2, tracker.Len())

	tracker.Remove(1)
	_, ok = tracker.Get(1)
	require.False(t, ok)
	require.Equal(t, 1, tracker.Len())
}

func TestTrackerIterationOrder(t *testing.T) {
	tracker := NewTracker[ClaimID, string]()
	tracker.Add(3, "c")
	tracker.Add(1, "a")
	tracker.Add(2, "b")
	require.Equal(t, []string{"c", "a", "b"}, tracker.Items())

	// Removal keeps the order of the remaining items; re-adding an
	// existing key does not move it.
	tracker.Remove(1)
	tracker.Add(3, "c'")
	require.Equal(t, []string{"c'", "b"}, tracker.Items())
}

func TestTrackerUpdateInPlace(t *testing.T) {
	tracker := NewTracker[ClaimID, int]()
	tracker.Add(7, 1)
	tracker.Add(7, 2)
	require.Equal(t, 1, tracker.Len())
	v, _ := tracker.Get(7)
	require.Equal(t, 2, v)
}
