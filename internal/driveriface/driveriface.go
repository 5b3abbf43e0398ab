/*
 * Copyright 2020 Brightgate Inc.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at https://mozilla.org/MPL/2.0/.
 */

// Package driveriface declares the native driver adapter contract
// (spec.md §6). It is an explicit out-of-scope collaborator: the real
// implementation (hostapd/nl80211 wrapper) is opaque and lives outside this
// daemon. This package only carries the interface plus a test double.
package driveriface

import "bg/internal/model"

// Iface is the native driver adapter the Manager consumes.
type Iface interface {
	SetupInterfaceForSoftApMode() (ifaceName string, err error)
	SetupInterfaceForBridgeMode() (ifaceName string, err error)
	TeardownInterface(name string) error

	StartSoftAp(iface string, cfg model.SoftApConfiguration) error

	SetMacAddress(iface string, mac model.MAC) error
	GetFactoryMacAddress(iface string) (model.MAC, error)
	SetCountryCodeHal(iface string, countryCode string) error

	Is5GHzBandSupported() bool
	IsInterfaceUp(iface string) bool

	ForceClientDisconnect(iface string, mac model.MAC, reason model.BlockReason) error
	SetHostapdParams(cmd string) error
	GetFstDataInterfaceName() string
}
