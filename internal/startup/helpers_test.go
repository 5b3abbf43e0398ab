package startup

import "go.uber.org/zap"

func noopLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// fakeBridger is a scriptable Bridger test double, standing in for real
// netlink devices the way driveriface.Fake stands in for the real driver.
type fakeBridger struct {
	FailAdd    bool
	FailRemove bool
	Added      []string
	Removed    []string
}

func (f *fakeBridger) AddNicToBridge(bridge, nic string) error {
	if f.FailAdd {
		return errString("injected bridge-add failure")
	}
	f.Added = append(f.Added, bridge+":"+nic)
	return nil
}

func (f *fakeBridger) RemoveNicFromBridge(nic string) error {
	if f.FailRemove {
		return errString("injected bridge-remove failure")
	}
	f.Removed = append(f.Removed, nic)
	return nil
}

type errString string

func (e errString) Error() string { return string(e) }
