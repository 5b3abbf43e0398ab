/*
 * Copyright 2020 Brightgate Inc.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at https://mozilla.org/MPL/2.0/.
 */

// Package driverevent implements C8 (DriverEventDemux), spec.md §4.8:
// normalizes whatever the driver adapter hands back into the FSM's tagged
// Message type and enqueues it without blocking. Grounded on
// ap.wifid/hostapd.go's handleStatus, which regex-matches a raw control-
// socket line against a fixed set of event names and dispatches by name;
// this package keeps that "parse line, switch on tag" shape but targets the
// FSM's Message type instead of hostapd's per-event method calls.
package driverevent

import (
	"regexp"
	"strconv"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"go.uber.org/zap"

	"bg/internal/fsm"
	"bg/internal/model"
)

// Sink is the subset of *fsm.Manager the demux needs: a non-blocking,
// FIFO-preserving enqueue (spec.md §5's single-mailbox model).
type Sink interface {
	EnqueueDriverEvent(msg fsm.Message)
}

// Demux normalizes driver callbacks into fsm.Messages.
type Demux struct {
	sink Sink
	slog *zap.SugaredLogger
}

// New builds a Demux delivering onto sink.
func New(sink Sink, slog *zap.SugaredLogger) *Demux {
	return &Demux{sink: sink, slog: slog}
}

// OnAssociatedStationsChanged corresponds to the roster-based path (spec.md
// §0's Open Question resolution: authoritative for admission/cap
// enforcement).
func (d *Demux) OnAssociatedStationsChanged(mac model.MAC, connected bool) {
	d.sink.EnqueueDriverEvent(fsm.Message{
		Kind:      fsm.MsgAssociatedStationsChanged,
		Client:    model.Client{MAC: mac},
		Connected: connected,
	})
}

// OnConnectedStations corresponds to the legacy count-only path.
func (d *Demux) OnConnectedStations(mac model.MAC) {
	d.sink.EnqueueDriverEvent(fsm.Message{Kind: fsm.MsgConnectedStations, Mac: mac})
}

// OnDisconnectedStations corresponds to the legacy count-only path.
func (d *Demux) OnDisconnectedStations(mac model.MAC) {
	d.sink.EnqueueDriverEvent(fsm.Message{Kind: fsm.MsgDisconnectedStations, Mac: mac})
}

// OnChannelSwitched forwards SOFT_AP_CHANNEL_SWITCHED.
func (d *Demux) OnChannelSwitched(freqMHz int, bw model.BandwidthEnum) {
	d.sink.EnqueueDriverEvent(fsm.Message{
		Kind:      fsm.MsgSoftApChannelSwitched,
		Freq:      freqMHz,
		Bandwidth: bw,
	})
}

// OnInterfaceStatusChanged forwards INTERFACE_STATUS_CHANGED.
func (d *Demux) OnInterfaceStatusChanged(up bool) {
	d.sink.EnqueueDriverEvent(fsm.Message{Kind: fsm.MsgInterfaceStatusChanged, Up: up})
}

// OnInterfaceDestroyed forwards INTERFACE_DESTROYED.
func (d *Demux) OnInterfaceDestroyed(iface string) {
	d.sink.EnqueueDriverEvent(fsm.Message{Kind: fsm.MsgInterfaceDestroyed, IfaceName: iface})
}

// OnDualSapInterfaceDestroyed forwards DUAL_SAP_INTERFACE_DESTROYED.
func (d *Demux) OnDualSapInterfaceDestroyed(iface string) {
	d.sink.EnqueueDriverEvent(fsm.Message{Kind: fsm.MsgDualSapInterfaceDestroyed, IfaceName: iface})
}

// OnFailure forwards FAILURE.
func (d *Demux) OnFailure() {
	d.sink.EnqueueDriverEvent(fsm.Message{Kind: fsm.MsgFailure})
}

// OnInterfaceDown forwards INTERFACE_DOWN.
func (d *Demux) OnInterfaceDown() {
	d.sink.EnqueueDriverEvent(fsm.Message{Kind: fsm.MsgInterfaceDown})
}

// statusLine matches the same family of hostapd control-socket messages
// handleStatus does, restricted to the subset that maps to a FSM message;
// everything else (EAP success/failure, retransmit) lives outside this
// system's scope and is silently ignored, same as handleStatus ignoring a
// line that doesn't match at all.
var statusLine = regexp.MustCompile(
	`^(AP-STA-CONNECTED|AP-STA-DISCONNECTED|AP-STA-POLL-OK|AP-DISABLED|AP-ENABLED) ?([[:xdigit:]:]*)$`)

// HandleStatusLine parses one raw control-socket line, the way
// hostapdConn.handleStatus does, and enqueues the corresponding FSM message.
// A line that matches nothing recognized is dropped, never panics: the
// demux must never let a malformed driver payload take down the daemon.
func (d *Demux) HandleStatusLine(line string) {
	m := statusLine.FindStringSubmatch(line)
	if m == nil {
		return
	}

	tag, macStr := m[1], m[2]
	var mac model.MAC
	if macStr != "" {
		parsed, err := model.ParseMAC(macStr)
		if err != nil {
			d.slog.Warnf("driverevent: unparseable mac %q in %q: %v", macStr, line, err)
			return
		}
		mac = parsed
	}

	switch tag {
	case "AP-STA-CONNECTED", "AP-STA-POLL-OK":
		d.OnConnectedStations(mac)
	case "AP-STA-DISCONNECTED":
		d.OnDisconnectedStations(mac)
	case "AP-ENABLED":
		d.OnInterfaceStatusChanged(true)
	case "AP-DISABLED":
		d.OnInterfaceStatusChanged(false)
	}
}

// HandleRadiotapFrame decodes a raw 802.11 management frame captured off the
// monitor interface (e.g. a deauth the driver itself never surfaced as a
// control-socket event) and, if it is a deauthentication/disassociation
// frame, synthesizes a DISCONNECTED_STATIONS event for the frame's
// transmitter address. The frame's destination is not checked. This is
// additive: a driver that already reports AP-STA-DISCONNECTED on its control
// socket makes this path redundant, never a precondition.
func (d *Demux) HandleRadiotapFrame(payload []byte) {
	packet := gopacket.NewPacket(payload, layers.LayerTypeRadioTap, gopacket.NoCopy)
	dot11Layer := packet.Layer(layers.LayerTypeDot11)
	if dot11Layer == nil {
		return
	}
	dot11, ok := dot11Layer.(*layers.Dot11)
	if !ok {
		return
	}

	switch dot11.Type {
	case layers.Dot11TypeMgmtDeauthentication, layers.Dot11TypeMgmtDisassociation:
		mac, err := model.ParseMAC(dot11.Address2.String())
		if err != nil {
			d.slog.Warnf("driverevent: unparseable radiotap source %v: %v", dot11.Address2, err)
			return
		}
		d.OnDisconnectedStations(mac)
	}
}

// channelSwitchLine matches "CTRL-EVENT-CHANNEL-SWITCH freq=5180 ht_enabled=1
// ch_width=2" style control-socket lines; ch_width follows hostapd's
// CHAN_WIDTH_* numbering (0=20MHz, 1=40MHz, 2=80MHz, 3=160MHz).
var channelSwitchLine = regexp.MustCompile(
	`^CTRL-EVENT-CHANNEL-SWITCH freq=(\d+).*ch_width=(\d+)`)

// HandleChannelSwitchLine parses a CTRL-EVENT-CHANNEL-SWITCH line and
// enqueues SOFT_AP_CHANNEL_SWITCHED. A line that doesn't match is dropped.
func (d *Demux) HandleChannelSwitchLine(line string) {
	m := channelSwitchLine.FindStringSubmatch(line)
	if m == nil {
		return
	}
	freq, ok := parseFreqMHz(m[1])
	if !ok {
		return
	}
	width, ok := parseFreqMHz(m[2])
	if !ok {
		return
	}

	bw := model.BandwidthInvalid
	switch width {
	case 0:
		bw = model.Bandwidth20MHz
	case 1:
		bw = model.Bandwidth40MHz
	case 2:
		bw = model.Bandwidth80MHz
	case 3:
		bw = model.Bandwidth160MHz
	}
	d.OnChannelSwitched(freq, bw)
}

// parseFreqMHz is a small strconv.Atoi wrapper shared by the control-socket
// line parsers above.
func parseFreqMHz(s string) (int, bool) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}
