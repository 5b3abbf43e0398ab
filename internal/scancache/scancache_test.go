package scancache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bg/internal/model"
)

func clockAt(ms int64) func() int64 {
	return func() int64 { return ms }
}

func mac(b byte) model.MAC {
	return model.MAC{0, 0, 0, 0, 0, b}
}

// Scenario 6 from spec.md §8: insert B1 at t=100, then at t=50; snapshot
// shows timestamp=100. With maxAge=10 at now=200, snapshot is empty.
func TestUpdateKeepsLatestAndIgnoresOlderOrEqual(t *testing.T) {
	c := New(1000, clockAt(100))
	b1 := mac(1)

	c.Update([]model.ScanResult{{BSSID: b1, Timestamp: 100}})
	c.Update([]model.ScanResult{{BSSID: b1, Timestamp: 50}})

	snap, err := c.Snapshot(1000)
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.EqualValues(t, 100, snap[0].Timestamp)

	// equal timestamp is also ignored (strict-greater only)
	c.Update([]model.ScanResult{{BSSID: b1, Timestamp: 100}})
	snap, _ = c.Snapshot(1000)
	assert.EqualValues(t, 100, snap[0].Timestamp)
}

func TestSnapshotAgePruning(t *testing.T) {
	now := int64(100)
	c := New(1000, func() int64 { return now })
	c.Update([]model.ScanResult{{BSSID: mac(1), Timestamp: 100}})

	now = 200
	snap, err := c.Snapshot(10)
	require.NoError(t, err)
	assert.Empty(t, snap)
}

func TestSnapshotRejectsMaxAgeAboveConfigured(t *testing.T) {
	c := New(50, clockAt(0))
	_, err := c.Snapshot(100)
	assert.Error(t, err)
}

func TestUpdatePrunesBeforeMerging(t *testing.T) {
	now := int64(0)
	c := New(10, func() int64 { return now })
	c.Update([]model.ScanResult{{BSSID: mac(1), Timestamp: 0}})

	now = 100
	c.Update([]model.ScanResult{{BSSID: mac(2), Timestamp: 100}})

	snap, err := c.Snapshot(10)
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, mac(2), snap[0].BSSID)
}
