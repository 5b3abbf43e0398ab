package mcpstate

import (
	"testing"
	"time"
)

func TestSetStateFiresSinkWithPrevAndNext(t *testing.T) {
	var gotPrev, gotNext State
	calls := 0

	r := New(func(prev, next State, since time.Time) {
		gotPrev, gotNext = prev, next
		calls++
	})

	r.SetState(Starting)

	if calls != 1 {
		t.Fatalf("expected 1 sink call, got %d", calls)
	}
	if gotPrev != Offline || gotNext != Starting {
		t.Fatalf("expected offline->starting, got %v->%v", gotPrev, gotNext)
	}
}

func TestGetReflectsCurrentState(t *testing.T) {
	r := New(nil)
	r.SetState(Online)

	state, elapsed := r.Get()
	if state != Online {
		t.Fatalf("expected Online, got %v", state)
	}
	if elapsed < 0 {
		t.Fatalf("expected non-negative elapsed, got %v", elapsed)
	}
}

func TestStringNamesKnownStates(t *testing.T) {
	if Online.String() != "online" {
		t.Fatalf("expected 'online', got %q", Online.String())
	}
	if State(99).String() != "unknown" {
		t.Fatalf("expected 'unknown' for out-of-range state, got %q", State(99).String())
	}
}

func TestNilSinkIsNoOp(t *testing.T) {
	r := New(nil)
	r.SetState(Broken)
	state, _ := r.Get()
	if state != Broken {
		t.Fatalf("expected Broken, got %v", state)
	}
}
