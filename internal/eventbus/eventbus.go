/*
 * Copyright 2020 Brightgate Inc.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at https://mozilla.org/MPL/2.0/.
 */

// Package eventbus implements C7: fan-out to the external callback surface
// and the metrics sink, spec.md §4.7. Both the Listener and MetricsSink are
// injected seams — their concrete implementations are out-of-scope
// collaborators (spec.md §1, §9's "Global broadcast/metrics surfaces become
// injected sinks"). Bus.* methods are plain synchronous calls: per spec.md
// §5, it is the caller's (the FSM's) job never to let a Listener
// implementation reenter the FSM synchronously.
package eventbus

import "bg/internal/model"

// Listener is the single external callback seam (spec.md §4.7).
type Listener interface {
	OnStateChanged(newState model.ApState, reason model.FailureReason)
	OnConnectedClientsChanged(clients []model.Client)
	OnInfoChanged(info model.SoftApInfo)
	OnStaConnected(mac model.MAC, count int)
	OnStaDisconnected(mac model.MAC, count int)
	OnBlockedClientConnecting(client model.Client, reason model.BlockReason)
	OnStarted()
	OnStopped()
	OnStartFailure(reason model.FailureReason)
}

// MetricsSink counts lifecycle events. A nil sink is legal; Bus no-ops.
type MetricsSink interface {
	IncStartSuccess()
	IncStartFailure(reason model.FailureReason)
	IncChannelSwitch()
}

// Broadcast is the state-change payload published alongside every
// OnStateChanged call (spec.md §4.7, §6).
type Broadcast struct {
	NewState            model.ApState
	PrevState           model.ApState
	FailureReason       model.FailureReason // only meaningful when NewState == StateFailed
	FailureDescription  string
	DataInterfaceName   string
	TargetMode          model.TargetMode
}

// BroadcastSink receives the broadcast payload. Nil is legal.
type BroadcastSink func(Broadcast)

// Bus fans out to a Listener, a BroadcastSink, and an optional MetricsSink.
type Bus struct {
	listener  Listener
	broadcast BroadcastSink
	metrics   MetricsSink
}

// New builds a Bus. listener and broadcast may be nil (used in tests that
// only care about a subset of the seam).
func New(listener Listener, broadcast BroadcastSink, metrics MetricsSink) *Bus {
	return &Bus{listener: listener, broadcast: broadcast, metrics: metrics}
}

// StateChanged publishes both the listener callback and the broadcast
// payload for a state transition.
func (b *Bus) StateChanged(newState, prevState model.ApState, reason model.FailureReason,
	desc, dataIface string, target model.TargetMode) {

	if b.listener != nil {
		b.listener.OnStateChanged(newState, reason)
	}
	if b.broadcast != nil {
		b.broadcast(Broadcast{
			NewState:           newState,
			PrevState:          prevState,
			FailureReason:      reason,
			FailureDescription: desc,
			DataInterfaceName:  dataIface,
			TargetMode:         target,
		})
	}
}

// ConnectedClientsChanged forwards the current roster snapshot.
func (b *Bus) ConnectedClientsChanged(clients []model.Client) {
	if b.listener != nil {
		b.listener.OnConnectedClientsChanged(clients)
	}
}

// InfoChanged forwards a SoftApInfo update.
func (b *Bus) InfoChanged(info model.SoftApInfo) {
	if b.listener != nil {
		b.listener.OnInfoChanged(info)
	}
	if b.metrics != nil {
		b.metrics.IncChannelSwitch()
	}
}

// StaConnected forwards the legacy count-only connect event.
func (b *Bus) StaConnected(mac model.MAC, count int) {
	if b.listener != nil {
		b.listener.OnStaConnected(mac, count)
	}
}

// StaDisconnected forwards the legacy count-only disconnect event.
func (b *Bus) StaDisconnected(mac model.MAC, count int) {
	if b.listener != nil {
		b.listener.OnStaDisconnected(mac, count)
	}
}

// BlockedClientConnecting forwards a rejected-admission notice.
func (b *Bus) BlockedClientConnecting(client model.Client, reason model.BlockReason) {
	if b.listener != nil {
		b.listener.OnBlockedClientConnecting(client, reason)
	}
}

// Started forwards the onStarted notice and a success metric.
func (b *Bus) Started() {
	if b.listener != nil {
		b.listener.OnStarted()
	}
	if b.metrics != nil {
		b.metrics.IncStartSuccess()
	}
}

// Stopped forwards the onStopped notice.
func (b *Bus) Stopped() {
	if b.listener != nil {
		b.listener.OnStopped()
	}
}

// StartFailure forwards the onStartFailure notice and a failure metric.
func (b *Bus) StartFailure(reason model.FailureReason) {
	if b.listener != nil {
		b.listener.OnStartFailure(reason)
	}
	if b.metrics != nil {
		b.metrics.IncStartFailure(reason)
	}
}
