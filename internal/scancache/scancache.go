/*
 * Copyright 2020 Brightgate Inc.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at https://mozilla.org/MPL/2.0/.
 */

// Package scancache implements C1: a BSSID-keyed scan-result store with age
// eviction. Grounded on ap.wifid/channels.go's apMap/apLock nearby-AP
// tracker, which is the pack's existing instance of the same
// merge-by-key-with-age-pruning-under-a-shared-lock pattern (spec.md §1).
package scancache

import (
	"fmt"
	"sync"

	"bg/internal/model"
)

// Cache maps BSSID to its most recently seen ScanResult.
//
// It is the one component in this daemon that takes a lock outside the FSM
// event loop (spec.md §5): Update and Snapshot never call back into the FSM
// while holding it.
type Cache struct {
	mu             sync.Mutex
	maxAge         int64 // ms
	entries        map[model.MAC]model.ScanResult
	nowMS          func() int64
}

// New builds a Cache that prunes entries older than maxAgeMS. nowMS supplies
// the elapsed-since-boot clock (boottime.NowMS in production; injectable for
// tests).
func New(maxAgeMS int64, nowMS func() int64) *Cache {
	return &Cache{
		maxAge:  maxAgeMS,
		entries: make(map[model.MAC]model.ScanResult),
		nowMS:   nowMS,
	}
}

// Update prunes entries older than maxAge, then merges in batch: an
// incoming result replaces the stored one only if its timestamp is
// strictly greater (equal timestamps are ignored, keeping behavior
// deterministic under duplicate frames — spec.md §4.1).
func (c *Cache) Update(batch []model.ScanResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneLocked()

	for _, r := range batch {
		cur, ok := c.entries[r.BSSID]
		if !ok || r.Timestamp > cur.Timestamp {
			c.entries[r.BSSID] = r
		}
	}
}

func (c *Cache) pruneLocked() {
	now := c.nowMS()
	for bssid, r := range c.entries {
		if now-r.Timestamp > c.maxAge {
			delete(c.entries, bssid)
		}
	}
}

// Snapshot returns copies of all entries with now-timestamp <= maxAge. It
// fails if maxAge exceeds the cache's configured maximum (spec.md §4.1).
func (c *Cache) Snapshot(maxAge int64) ([]model.ScanResult, error) {
	if maxAge > c.maxAge {
		return nil, fmt.Errorf("requested maxAge %d exceeds configured maximum %d", maxAge, c.maxAge)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowMS()
	out := make([]model.ScanResult, 0, len(c.entries))
	for _, r := range c.entries {
		if now-r.Timestamp <= maxAge {
			out = append(out, r)
		}
	}
	return out, nil
}
