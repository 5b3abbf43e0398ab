/*
 * Copyright 2020 Brightgate Inc.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at https://mozilla.org/MPL/2.0/.
 */

// Package shutdowntimer implements C3: a cancelable, re-armable one-shot
// timer for idle auto-shutdown (spec.md §4.3, §9). Firing enqueues a message
// onto the FSM's mailbox rather than calling back synchronously, honoring
// the reentrancy rule in §5.
package shutdowntimer

import (
	"sync"
	"time"
)

// Timer is a cancelable, re-armable one-shot.
type Timer struct {
	mu     sync.Mutex
	timer  *time.Timer
	armed  bool
	genID  uint64
	onFire func()
}

// New builds a Timer.
func New() *Timer {
	return &Timer{}
}

// Arm schedules onFire to run once, timeoutMS from now. Arming replaces any
// pending fire (spec.md §5 "Cancellation/timeouts").
func (t *Timer) Arm(timeoutMS int64, onFire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelLocked()

	t.genID++
	gen := t.genID
	t.armed = true
	t.onFire = onFire

	t.timer = time.AfterFunc(time.Duration(timeoutMS)*time.Millisecond, func() {
		t.mu.Lock()
		fire := t.armed && t.genID == gen
		var cb func()
		if fire {
			t.armed = false
			cb = t.onFire
		}
		t.mu.Unlock()
		if fire && cb != nil {
			cb()
		}
	})
}

// Cancel idempotently disarms the timer; it is safe to call when not armed.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
}

func (t *Timer) cancelLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.armed = false
	t.genID++
}

// Armed reports whether the timer currently has a pending fire (used by
// property P3 in tests).
func (t *Timer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}
