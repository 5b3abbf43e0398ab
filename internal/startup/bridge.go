/*
 * Copyright 2020 Brightgate Inc.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at https://mozilla.org/MPL/2.0/.
 */

package startup

import (
	"github.com/pkg/errors"
	"github.com/vishvananda/netlink"
)

// Bridger enslaves/releases a radio interface to/from a bridge interface
// (spec.md §4.5's dual-band/OWE topology). Pulled behind an interface, the
// same way driveriface.Iface isolates the rest of the sequencer from the
// kernel, so a Sequencer can be exercised in tests without real netlink
// devices present.
type Bridger interface {
	AddNicToBridge(bridge, nic string) error
	RemoveNicFromBridge(nic string) error
}

// netlinkBridger is the real Bridger, adapted from ap.wifid/bridge.go's
// addNicToBridge/removeNicFromBridge, using vishvananda/netlink directly in
// place of the pack's internal netctl wrapper.
type netlinkBridger struct{}

func (netlinkBridger) AddNicToBridge(bridge, nic string) error {
	br, err := netlink.LinkByName(bridge)
	if err != nil {
		return errors.Wrapf(err, "looking up bridge %s", bridge)
	}

	link, err := netlink.LinkByName(nic)
	if err != nil {
		return errors.Wrapf(err, "looking up %s", nic)
	}

	if err := netlink.LinkSetUp(link); err != nil {
		return errors.Wrapf(err, "enabling %s", nic)
	}

	if err := netlink.LinkSetMaster(link, br.(*netlink.Bridge)); err != nil {
		return errors.Wrapf(err, "adding %s to %s", nic, bridge)
	}
	return nil
}

func (netlinkBridger) RemoveNicFromBridge(nic string) error {
	link, err := netlink.LinkByName(nic)
	if err != nil {
		return errors.Wrapf(err, "looking up %s", nic)
	}
	if err := netlink.LinkSetNoMaster(link); err != nil {
		return errors.Wrapf(err, "removing %s from its bridge", nic)
	}
	return nil
}
