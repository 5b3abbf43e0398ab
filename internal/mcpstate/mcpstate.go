/*
 * Copyright 2020 Brightgate Inc.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at https://mozilla.org/MPL/2.0/.
 */

// Package mcpstate reports the daemon's own process-lifecycle state to
// whatever is watching it. It is adapted from ap_common/mcp.MCP's
// OFFLINE/STARTING/INITING/ONLINE/STOPPING/INACTIVE/BROKEN enum, but drops
// the zmq4 REQ/REP transport to a second daemon: ap-softapd has no sibling
// process to dial (spec.md §5 runs the whole lifecycle in one process), so
// state is published in-process through a Sink, the same seam shape C7 uses
// for FSM broadcasts.
package mcpstate

import (
	"sync"
	"time"
)

// State names a point in the daemon's own startup/shutdown lifecycle,
// distinct from model.ApState (which names the Soft-AP's lifecycle).
type State int

// Legal State values, in the order a healthy daemon passes through them.
const (
	Offline State = iota
	Starting
	Initing
	Online
	Stopping
	Inactive
	Broken
)

var names = map[State]string{
	Offline:  "offline",
	Starting: "starting",
	Initing:  "initializing",
	Online:   "online",
	Stopping: "stopping",
	Inactive: "inactive",
	Broken:   "broken",
}

func (s State) String() string {
	if n, ok := names[s]; ok {
		return n
	}
	return "unknown"
}

// Sink receives every state transition. Nil is legal.
type Sink func(prev, next State, since time.Time)

// Reporter tracks this process's own lifecycle state and notifies a Sink on
// each change, the in-process analogue of calling MCP.SetState.
type Reporter struct {
	mu    sync.Mutex
	state State
	since time.Time
	sink  Sink
}

// New builds a Reporter starting in Offline.
func New(sink Sink) *Reporter {
	return &Reporter{state: Offline, since: time.Now(), sink: sink}
}

// SetState transitions to next and fires the sink, mirroring
// MCP.SetState's single-assignment semantics (no transition-table
// validation; callers are trusted to call it in lifecycle order).
func (r *Reporter) SetState(next State) {
	r.mu.Lock()
	prev, since := r.state, r.since
	r.state = next
	r.since = time.Now()
	r.mu.Unlock()

	if r.sink != nil {
		r.sink(prev, next, since)
	}
}

// Get returns the current state and how long it has held it.
func (r *Reporter) Get() (State, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, time.Since(r.since)
}
