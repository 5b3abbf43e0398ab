/*
 * Copyright 2020 Brightgate Inc.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at https://mozilla.org/MPL/2.0/.
 */

// Package softapcfg adapts the shape of common/cfgapi.Handle — a property-
// tree client with typed accessors plus HandleChange/HandleDelete watchers —
// to this system's config-resolution needs. ConfigExec is the opaque
// out-of-scope collaborator (spec.md §1's ApConfigStore): this package
// depends only on the ConfigExec interface, never a concrete configd
// client, and its watchers hand each decoded configuration to a
// caller-supplied sink rather than mutating state inline.
package softapcfg

import (
	"encoding/json"

	"github.com/pkg/errors"

	"bg/internal/model"
)

// ConfigExec is the platform-specific property-tree backend a Handle is
// built on, mirroring cfgapi.ConfigExec's shape.
type ConfigExec interface {
	GetProp(path string) (string, error)
	SetProp(path, val string) error
	HandleChange(path string, handler func(path, val string)) error
	HandleDelete(path string, handler func(path string)) error
}

// Handle is a typed accessor over a config-tree backend, scoped to the
// properties a Soft-AP configuration is built from.
type Handle struct {
	exec ConfigExec
}

// New builds a Handle over exec.
func New(exec ConfigExec) *Handle {
	return &Handle{exec: exec}
}

// GetSoftApConfiguration reads and decodes the full configuration from
// path (a JSON-encoded property, mirroring cfgapi's PropertyNode
// marshaling), returning an error that wraps the underlying ConfigExec
// failure or a JSON decode failure.
func (h *Handle) GetSoftApConfiguration(path string) (model.SoftApConfiguration, error) {
	var cfg model.SoftApConfiguration

	raw, err := h.exec.GetProp(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "softapcfg: GetProp(%s)", path)
	}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return cfg, errors.Wrapf(err, "softapcfg: decode %s", path)
	}
	return cfg, nil
}

// SetSoftApConfiguration encodes and writes cfg to path.
func (h *Handle) SetSoftApConfiguration(path string, cfg model.SoftApConfiguration) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "softapcfg: encode")
	}
	if err := h.exec.SetProp(path, string(raw)); err != nil {
		return errors.Wrapf(err, "softapcfg: SetProp(%s)", path)
	}
	return nil
}

// ConfigChangeSink receives a newly-decoded configuration whenever the
// watched property path changes. Decode failures are not forwarded — the
// watcher reports them through onError (when non-nil) and drops them rather
// than handing a zero-value configuration to the caller.
type ConfigChangeSink func(cfg model.SoftApConfiguration)

// WatchSoftApConfiguration registers a HandleChange callback on path that
// decodes the new value and forwards it to sink, the way a daemon would
// wire a config-tree watch straight into UpdateConfiguration rather than
// polling.
func (h *Handle) WatchSoftApConfiguration(path string, sink ConfigChangeSink, onError func(error)) error {
	return h.exec.HandleChange(path, func(_ string, val string) {
		var cfg model.SoftApConfiguration
		if err := json.Unmarshal([]byte(val), &cfg); err != nil {
			if onError != nil {
				onError(errors.Wrapf(err, "softapcfg: decode watched change at %s", path))
			}
			return
		}
		sink(cfg)
	})
}
