/*
 * Copyright 2020 Brightgate Inc.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at https://mozilla.org/MPL/2.0/.
 */

// Package ouidb annotates a client MAC with its IEEE-assigned manufacturer,
// the supplemented diagnostic feature described in SPEC_FULL.md §3. Grounded
// on ap-ouisearch's db.Query usage of klauspost/oui.
package ouidb

import "github.com/klauspost/oui"

// DB looks up the manufacturer for a MAC address.
type DB struct {
	static oui.StaticDB
}

// Open loads the IEEE OUI database from path.
func Open(path string) (*DB, error) {
	static, err := oui.OpenStaticFile(path)
	if err != nil {
		return nil, err
	}
	return &DB{static: static}, nil
}

// Lookup returns the manufacturer name for mac, or "" if unknown. A nil DB
// (no database configured), or one with no database loaded, always returns "".
func (d *DB) Lookup(mac string) string {
	if d == nil || d.static == nil {
		return ""
	}
	entry, err := d.static.Query(mac)
	if err != nil {
		return ""
	}
	return entry.Manufacturer
}
