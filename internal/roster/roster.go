/*
 * Copyright 2020 Brightgate Inc.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at https://mozilla.org/MPL/2.0/.
 */

// Package roster implements C2: the ordered connected-station set and its
// admission policy. Unlike ScanCache, Roster is only ever touched from the
// FSM event-loop goroutine (spec.md §5) so it takes no lock of its own.
package roster

import (
	"time"

	"go.uber.org/zap"

	"bg/internal/aplog"
	"bg/internal/model"
)

// Disconnector is the subset of DriverIface the roster uses to force a
// client off the air when it is rejected or evicted (spec.md §4.2, §6).
type Disconnector interface {
	ForceClientDisconnect(mac model.MAC, reason model.BlockReason) error
}

// Roster is the ordered set of currently admitted clients.
type Roster struct {
	slog    *zap.SugaredLogger
	reject  *aplog.ThrottledLogger // duplicate-admission complaints, throttled
	driver  Disconnector
	clients []model.Client // insertion order observable to the callback surface
}

// New builds an empty Roster.
func New(slog *zap.SugaredLogger, driver Disconnector) *Roster {
	return &Roster{
		slog:   slog,
		reject: aplog.GetThrottledLogger(slog, time.Second, 30*time.Second),
		driver: driver,
	}
}

// Snapshot returns a copy of the current membership in insertion order.
func (r *Roster) Snapshot() []model.Client {
	out := make([]model.Client, len(r.clients))
	copy(out, r.clients)
	return out
}

// Len returns the current roster size.
func (r *Roster) Len() int {
	return len(r.clients)
}

func (r *Roster) indexOf(mac model.MAC) int {
	for i, c := range r.clients {
		if c.MAC == mac {
			return i
		}
	}
	return -1
}

// Admit applies the admission policy from spec.md §4.2 to a newly-connected
// client. onBlocked, if non-nil, is called exactly when
// onBlockedClientConnecting must fire (i.e. not for already-known-blocked
// clients). Returns true iff the client was inserted.
func (r *Roster) Admit(client model.Client, cfg model.SoftApConfiguration, cap model.SoftApCapability,
	onBlocked func(model.Client, model.BlockReason)) bool {

	if r.indexOf(client.MAC) >= 0 {
		r.reject.Errorf("duplicate admission for already-connected client %s", client.MAC)
		return false
	}

	if cfg.ClientControlByUser && !cfg.AllowedMACs[client.MAC] {
		if !cfg.BlockedMACs[client.MAC] {
			if onBlocked != nil {
				onBlocked(client, model.BlockedByUser)
			}
		}
		if r.driver != nil {
			r.driver.ForceClientDisconnect(client.MAC, model.BlockedByUser)
		}
		return false
	}

	effMax := model.EffectiveMaxClients(cap, cfg)
	if effMax > 0 && len(r.clients) >= effMax {
		if onBlocked != nil {
			onBlocked(client, model.BlockNoMoreStas)
		}
		if r.driver != nil {
			r.driver.ForceClientDisconnect(client.MAC, model.BlockNoMoreStas)
		}
		return false
	}

	r.clients = append(r.clients, client)
	return true
}

// Remove drops a client by MAC equality. Returns true iff membership
// actually changed.
func (r *Roster) Remove(mac model.MAC) bool {
	idx := r.indexOf(mac)
	if idx < 0 {
		return false
	}
	r.clients = append(r.clients[:idx], r.clients[idx+1:]...)
	return true
}

// Reconcile is run on config/capability change (spec.md §4.2): first eject
// any current client not on the allow list when user-control is enabled,
// then, if still over the effective cap, evict from the tail until under
// the limit. Evictions are requested through the driver; actual roster
// mutation happens when the driver confirms via Remove, not here.
func (r *Roster) Reconcile(cfg model.SoftApConfiguration, cap model.SoftApCapability) {
	if r.driver == nil {
		return
	}

	if cfg.ClientControlByUser {
		for _, c := range r.clients {
			if !cfg.AllowedMACs[c.MAC] {
				r.driver.ForceClientDisconnect(c.MAC, model.BlockedByUser)
			}
		}
	}

	effMax := model.EffectiveMaxClients(cap, cfg)
	if effMax <= 0 {
		return
	}

	// Count how many would survive the allow-list pass above, and evict
	// the over-cap tail among the rest.
	survivors := r.clients
	if cfg.ClientControlByUser {
		survivors = nil
		for _, c := range r.clients {
			if cfg.AllowedMACs[c.MAC] {
				survivors = append(survivors, c)
			}
		}
	}

	for i := len(survivors) - 1; i >= effMax; i-- {
		r.driver.ForceClientDisconnect(survivors[i].MAC, model.BlockNoMoreStas)
	}
}
