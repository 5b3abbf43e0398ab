/*
 * Copyright 2020 Brightgate Inc.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at https://mozilla.org/MPL/2.0/.
 */

// Package fsm implements C6 (SoftApStateMachine) and the Manager public API
// of spec.md §6: the two-state (Idle/Started) FSM, its invariants, and the
// single serialized mailbox every external entry point funnels through
// (spec.md §5).
package fsm

import "bg/internal/model"

// MsgKind tags the variant of a Message (spec.md §9: "dynamic message
// dispatch maps cleanly to a tagged-union message type plus a match").
type MsgKind int

// Legal MsgKind values, matching the external commands and driver events
// named in spec.md §2 and the Idle/Started transition tables in §4.6.
const (
	MsgStart MsgKind = iota
	MsgUpdateCapability
	MsgUpdateConfig
	MsgAssociatedStationsChanged
	MsgConnectedStations
	MsgDisconnectedStations
	MsgSoftApChannelSwitched
	MsgInterfaceStatusChanged
	MsgNoAssociatedStationsTimeout
	MsgInterfaceDestroyed
	MsgDualSapInterfaceDestroyed
	MsgFailure
	MsgInterfaceDown
	MsgStop
	MsgDump
)

// Message is the single tagged-union type carried on the FSM's mailbox.
// Only the fields relevant to Kind are populated; the rest are zero.
type Message struct {
	Kind MsgKind

	Client    model.Client
	Connected bool // ASSOCIATED_STATIONS_CHANGED

	Mac model.MAC // CONNECTED_STATIONS / DISCONNECTED_STATIONS

	Freq      int               // SOFT_AP_CHANNEL_SWITCHED
	Bandwidth model.BandwidthEnum

	Up bool // INTERFACE_STATUS_CHANGED

	IfaceName string // DUAL_SAP_INTERFACE_DESTROYED

	NewCapability *model.SoftApCapability // UPDATE_CAPABILITY
	NewConfig     *model.SoftApConfiguration // UPDATE_CONFIG
	RequireRestart bool // set by caller when UPDATE_CONFIG can't apply live

	// Reply, when non-nil, is closed by the handler after processing —
	// used by synchronous-feeling public API calls (Stop, Dump) that
	// still serialize through the mailbox per spec.md §5.
	Reply chan struct{}
	DumpOut *string
}

// Mailbox is the FIFO queue every external entry point enqueues onto. A
// generous buffer plus a non-blocking send (see DriverEventDemux) keeps
// "every callback enqueues without blocking" true even under bursts;
// anything that would overflow it is dropped and logged as a TransientDrop,
// never allowed to stall the caller.
const MailboxCapacity = 256
