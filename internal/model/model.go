/*
 * Copyright 2020 Brightgate Inc.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at https://mozilla.org/MPL/2.0/.
 */

// Package model holds the data types shared across the Soft-AP lifecycle
// components: configuration, capability, observable state, and the client
// and scan-result records the roster and cache operate on.
package model

import (
	"fmt"
	"strings"
)

// Band is a bitmask of radio bands a configuration or capability can name.
type Band uint8

// Legal Band values.  ANY is a bitmask of the three concrete bands, not a
// fourth band of its own.
const (
	Band2GHz Band = 1 << iota
	Band5GHz
	Band6GHz

	BandAny = Band2GHz | Band5GHz | Band6GHz
)

func (b Band) String() string {
	var parts []string
	if b&Band2GHz != 0 {
		parts = append(parts, "2GHZ")
	}
	if b&Band5GHz != 0 {
		parts = append(parts, "5GHZ")
	}
	if b&Band6GHz != 0 {
		parts = append(parts, "6GHZ")
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "|")
}

// Has reports whether b includes every band set in other.
func (b Band) Has(other Band) bool {
	return b&other == other
}

// SecurityMode names the authentication/encryption mode of a configuration.
type SecurityMode int

// Legal SecurityMode values.
const (
	SecurityOpen SecurityMode = iota
	SecurityWPA2PSK
	SecurityWPA3SAE
	SecurityOWE
	SecuritySAETransition
)

// TargetMode distinguishes a locally-scoped AP from one providing upstream
// sharing ("tethering").
type TargetMode int

// Legal TargetMode values.
const (
	ModeLocalOnly TargetMode = iota
	ModeTethered
)

// Role is the Soft-AP's externally assigned role.  I6: assignable exactly
// once, from RoleUnspecified to a member of softApRoles.
type Role int

// Legal Role values.
const (
	RoleUnspecified Role = iota
	RoleLocalOnly
	RoleTethered
)

var softApRoles = map[Role]bool{
	RoleLocalOnly: true,
	RoleTethered:  true,
}

// ValidSoftApRole reports whether r is a member of the assignable role set.
func ValidSoftApRole(r Role) bool {
	return softApRoles[r]
}

// MAC is a 48-bit hardware address.  Equality is by value.
type MAC [6]byte

// ParseMAC parses the standard colon-separated hex form.
func ParseMAC(s string) (MAC, error) {
	var m MAC
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return m, fmt.Errorf("malformed mac address: %q", s)
	}
	for i, p := range parts {
		var b int
		if _, err := fmt.Sscanf(p, "%02x", &b); err != nil {
			return m, fmt.Errorf("malformed mac address: %q", s)
		}
		m[i] = byte(b)
	}
	return m, nil
}

func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		m[0], m[1], m[2], m[3], m[4], m[5])
}

// MarshalText and UnmarshalText let MAC serve as a JSON map key (e.g.
// SoftApConfiguration.BlockedMACs) and as a plain JSON string value, per
// encoding/json's TextMarshaler convention.
func (m MAC) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MAC) UnmarshalText(text []byte) error {
	parsed, err := ParseMAC(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// IsZero reports whether m is the zero MAC (never a legal client address).
func (m MAC) IsZero() bool {
	return m == MAC{}
}

// CapabilityBit names a single supported-feature flag in SoftApCapability.
type CapabilityBit uint32

// Legal CapabilityBit values.
const (
	CapACSOffload CapabilityBit = 1 << iota
	CapClientForceDisconnect
)

// SoftApCapability describes what the driver/hardware underneath can do.
type SoftApCapability struct {
	Bits            CapabilityBit
	MaxClients      int
	ChannelsByBand  map[Band][]int
	Supports5GHz    bool
}

// Has reports whether the capability advertises bit.
func (c SoftApCapability) Has(bit CapabilityBit) bool {
	return c.Bits&bit != 0
}

// SoftApConfiguration is the caller-supplied configuration for one Soft-AP
// instance.
type SoftApConfiguration struct {
	SSID       string
	Passphrase string
	Security   SecurityMode
	Band       Band
	Channel    int // 0 = auto/ACS
	HiddenSSID bool

	BSSID      MAC
	HasBSSID   bool
	Randomized bool // set by ConfigResolver; preserved across updates

	AutoShutdown      bool
	ShutdownTimeoutMS int // 0 => platform default

	MaxClientCount       int // 0 => capability-derived
	ClientControlByUser  bool
	BlockedMACs          map[MAC]bool
	AllowedMACs          map[MAC]bool

	CountryCode string
}

// EffectiveMaxClients returns min(capability.MaxClients, config max if set).
func EffectiveMaxClients(cap SoftApCapability, cfg SoftApConfiguration) int {
	if cfg.MaxClientCount > 0 && cfg.MaxClientCount < cap.MaxClients {
		return cfg.MaxClientCount
	}
	return cap.MaxClients
}

// BandwidthEnum enumerates the bandwidth values reported in SoftApInfo.
type BandwidthEnum int

// Legal BandwidthEnum values.
const (
	BandwidthInvalid BandwidthEnum = iota
	Bandwidth20MHz
	Bandwidth40MHz
	Bandwidth80MHz
	Bandwidth160MHz
)

// SoftApInfo is the observable current radio state of a running AP.
// I5: reset to (0, BandwidthInvalid) on Idle entry.
type SoftApInfo struct {
	FrequencyMHz int
	Bandwidth    BandwidthEnum
}

// Client identifies one associated station.  Equality by MAC (I2).
type Client struct {
	MAC MAC
}

// ScanResult is one cached BSSID sighting.
type ScanResult struct {
	BSSID     MAC
	Timestamp int64 // elapsed-since-boot, milliseconds
	Payload   []byte
}

// ApState is the externally broadcast lifecycle state (§6).
type ApState int

// Legal ApState values.
const (
	StateDisabled ApState = iota
	StateEnabling
	StateEnabled
	StateDisabling
	StateFailed
)

func (s ApState) String() string {
	switch s {
	case StateDisabled:
		return "DISABLED"
	case StateEnabling:
		return "ENABLING"
	case StateEnabled:
		return "ENABLED"
	case StateDisabling:
		return "DISABLING"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// FailureReason names why a FAILED broadcast was published.
type FailureReason int

// Legal FailureReason values.
const (
	FailureNone FailureReason = iota
	FailureGeneral
	FailureNoChannel
	FailureUnsupportedConfiguration
)

// BlockReason names why ClientRoster rejected a station.
type BlockReason int

// Legal BlockReason values.
const (
	BlockNone BlockReason = iota
	BlockedByUser
	BlockNoMoreStas
)

func (r BlockReason) String() string {
	switch r {
	case BlockedByUser:
		return "BLOCKED_BY_USER"
	case BlockNoMoreStas:
		return "NO_MORE_STAS"
	default:
		return "NONE"
	}
}
