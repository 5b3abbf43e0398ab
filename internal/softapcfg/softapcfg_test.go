package softapcfg

import (
	"encoding/json"
	"errors"
	"testing"

	"bg/internal/model"
)

type fakeExec struct {
	props          map[string]string
	changeHandlers map[string]func(string, string)
}

func newFakeExec() *fakeExec {
	return &fakeExec{props: map[string]string{}, changeHandlers: map[string]func(string, string){}}
}

func (f *fakeExec) GetProp(path string) (string, error) {
	v, ok := f.props[path]
	if !ok {
		return "", errors.New("no such property")
	}
	return v, nil
}

func (f *fakeExec) SetProp(path, val string) error {
	f.props[path] = val
	return nil
}

func (f *fakeExec) HandleChange(path string, handler func(string, string)) error {
	f.changeHandlers[path] = handler
	return nil
}

func (f *fakeExec) HandleDelete(path string, handler func(string)) error {
	return nil
}

func (f *fakeExec) fireChange(path, val string) {
	if h, ok := f.changeHandlers[path]; ok {
		h(path, val)
	}
}

func TestSetThenGetRoundTrips(t *testing.T) {
	exec := newFakeExec()
	h := New(exec)
	cfg := model.SoftApConfiguration{SSID: "guest-net", Band: model.Band2GHz}

	if err := h.SetSoftApConfiguration("/softap/0", cfg); err != nil {
		t.Fatalf("SetSoftApConfiguration: %v", err)
	}
	got, err := h.GetSoftApConfiguration("/softap/0")
	if err != nil {
		t.Fatalf("GetSoftApConfiguration: %v", err)
	}
	if got.SSID != cfg.SSID || got.Band != cfg.Band {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, cfg)
	}
}

func TestGetMissingPropagatesError(t *testing.T) {
	h := New(newFakeExec())
	if _, err := h.GetSoftApConfiguration("/missing"); err == nil {
		t.Fatal("expected error for missing property")
	}
}

func TestWatchForwardsDecodedChange(t *testing.T) {
	exec := newFakeExec()
	h := New(exec)

	var got model.SoftApConfiguration
	calls := 0
	if err := h.WatchSoftApConfiguration("/softap/0", func(cfg model.SoftApConfiguration) {
		got = cfg
		calls++
	}, nil); err != nil {
		t.Fatalf("WatchSoftApConfiguration: %v", err)
	}

	raw, _ := json.Marshal(model.SoftApConfiguration{SSID: "changed"})
	exec.fireChange("/softap/0", string(raw))

	if calls != 1 || got.SSID != "changed" {
		t.Fatalf("expected one forwarded change with SSID=changed, got calls=%d got=%+v", calls, got)
	}
}

func TestWatchDropsUndecodableChange(t *testing.T) {
	exec := newFakeExec()
	h := New(exec)

	calls := 0
	var gotErr error
	if err := h.WatchSoftApConfiguration("/softap/0", func(model.SoftApConfiguration) {
		calls++
	}, func(err error) {
		gotErr = err
	}); err != nil {
		t.Fatalf("WatchSoftApConfiguration: %v", err)
	}

	exec.fireChange("/softap/0", "not json")

	if calls != 0 {
		t.Fatalf("expected undecodable change to be dropped, got %d calls", calls)
	}
	if gotErr == nil {
		t.Fatal("expected onError to be invoked")
	}
}
