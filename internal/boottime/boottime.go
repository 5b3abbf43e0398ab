/*
 * Copyright 2020 Brightgate Inc.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at https://mozilla.org/MPL/2.0/.
 */

// Package boottime provides the elapsed-since-boot time source the Manager
// stamps its start time with (§9's "Wakeup timer" note). ShutdownTimer does
// not read this clock: it arms a relative time.AfterFunc duration.
package boottime

import (
	"time"

	"golang.org/x/sys/unix"
)

// NowMS returns the current CLOCK_BOOTTIME value in milliseconds. Falls back
// to CLOCK_MONOTONIC, which is wake-capable on hosts that are never
// suspended (the acceptable degradation §9 calls out).
func NowMS() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_BOOTTIME, &ts); err != nil {
		unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts)
	}
	return ts.Sec*1000 + ts.Nsec/int64(time.Millisecond)
}
