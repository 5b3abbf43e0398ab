/*
 * Copyright 2020 Brightgate Inc.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at https://mozilla.org/MPL/2.0/.
 */

package ouidb

import "testing"

func TestLookupOnNilDBReturnsEmpty(t *testing.T) {
	var d *DB
	if got := d.Lookup("00:11:22:33:44:55"); got != "" {
		t.Fatalf("Lookup on nil *DB = %q, want empty", got)
	}
}

func TestOpenMissingFileReturnsError(t *testing.T) {
	if _, err := Open("/nonexistent/oui.txt"); err == nil {
		t.Fatal("Open of a missing file returned nil error")
	}
}

func TestLookupOnUnqueriableDBReturnsEmptyNotPanic(t *testing.T) {
	d := &DB{}
	if got := d.Lookup("not-a-mac"); got != "" {
		t.Fatalf("Lookup(%q) = %q, want empty on malformed input", "not-a-mac", got)
	}
}
