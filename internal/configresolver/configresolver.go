/*
 * Copyright 2020 Brightgate Inc.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at https://mozilla.org/MPL/2.0/.
 */

// Package configresolver implements C4: the pure transformations spec.md
// §4.4 describes — BSSID randomization, dual-band config splitting, the OWE
// transition pair, and channel/ACS resolution.
package configresolver

import (
	"crypto/rand"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/pkg/errors"
	"github.com/satori/uuid"

	"bg/internal/model"
)

// NewCorrelationID returns a fresh identifier a caller can attach to one
// startup attempt's logging, so every log line from setupInterface through
// startSoftAp (spec.md §4.5) can be grepped as a single sequence.
func NewCorrelationID() string {
	return uuid.NewV4().String()
}

// RandomizeBSSID fills in a locally-administered unicast MAC when cfg.BSSID
// is absent, and marks the result Randomized. The Randomized flag is
// preserved across updates (clearing BSSID again is idempotent, spec.md
// §4.4): once set, re-resolving a configuration that still has no BSSID
// keeps Randomized true rather than re-deriving it from scratch each time.
func RandomizeBSSID(cfg model.SoftApConfiguration) (model.SoftApConfiguration, error) {
	if cfg.HasBSSID {
		return cfg, nil
	}
	if cfg.Randomized {
		// Already randomized by a prior resolution; leave BSSID alone
		// unless it was never actually populated (shouldn't happen,
		// but resolve defensively rather than silently drop it).
		if !cfg.BSSID.IsZero() {
			return cfg, nil
		}
	}

	var raw [6]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return cfg, errors.Wrap(err, "generating random bssid")
	}
	raw[0] = (raw[0] | 0x02) & 0xfe // locally administered, unicast

	cfg.BSSID = model.MAC(raw)
	cfg.Randomized = true
	return cfg, nil
}

// SplitDualBand produces two child configs identical to parent except band
// is forced to 2GHZ on the first and 5GHZ on the second (spec.md §4.4). Only
// valid when parent.Band == BandAny.
func SplitDualBand(parent model.SoftApConfiguration) (a, b model.SoftApConfiguration) {
	a = parent
	a.Band = model.Band2GHz
	b = parent
	b.Band = model.Band5GHz
	return a, b
}

// StableHash32 is a deterministic, platform-independent 32-bit hash used to
// derive the OWE SSID suffix (spec.md §4.4). fnv-1a has no collision or
// keying requirements here — it only needs to be stable and cheap — so the
// standard library's hash/fnv serves without reaching for a third-party
// hashing package.
func StableHash32(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// OWEPair produces the OWE child (hidden SSID, derived name) and the Open
// companion child (spec.md §4.4). It only establishes the security/SSID
// split: neither child records the other's interface name, and
// StartupSequencer does not add such a cross-reference either.
func OWEPair(parent model.SoftApConfiguration) (owe, open model.SoftApConfiguration) {
	owe = parent
	owe.SSID = fmt.Sprintf("OWE_%d", StableHash32(parent.SSID))
	owe.HiddenSSID = true
	owe.Security = model.SecurityOWE

	open = parent
	open.Security = model.SecurityOpen
	return owe, open
}

// ResolveChannel picks a channel for band, or leaves Channel=0 when ACS
// offload is supported and requested. Fails with an ErrNoChannel-kind error
// if the capability has no legal channel for the band (spec.md §4.4).
func ResolveChannel(cfg model.SoftApConfiguration, cap model.SoftApCapability, band model.Band, acsRequested bool) (int, error) {
	if acsRequested && cap.Has(model.CapACSOffload) {
		return 0, nil
	}

	if cfg.Channel != 0 {
		return cfg.Channel, nil
	}

	channels := cap.ChannelsByBand[band]
	if len(channels) == 0 {
		return 0, &channelErr{band: band}
	}

	sorted := append([]int(nil), channels...)
	sort.Ints(sorted)
	return sorted[0], nil
}

// channelErr is kept unexported; configresolver's caller (StartupSequencer)
// converts it into a model.Error with ErrNoChannel kind.
type channelErr struct {
	band model.Band
}

func (e *channelErr) Error() string {
	return fmt.Sprintf("no supported channel for band %s", e.band)
}

// IsNoChannel reports whether err originated from ResolveChannel's failure
// path.
func IsNoChannel(err error) bool {
	_, ok := err.(*channelErr)
	return ok
}
