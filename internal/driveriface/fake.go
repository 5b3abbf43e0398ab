package driveriface

import (
	"fmt"

	"bg/internal/model"
)

// Fake is a scriptable test double for Iface, used by startup- and
// fsm-level tests in place of the real (opaque, out-of-scope) driver
// adapter. Mirrors the shape of ap.wifid's test helpers: fields configure
// failure injection, and call logs let tests assert ordering.
type Fake struct {
	FailSetupSoftAp   bool
	FailSetupBridge   bool
	FailStartSoftAp   bool
	FailSetMac        bool
	FailFactoryMac    bool
	FailSetCountry    bool
	Supports5GHz      bool
	FactoryMAC        model.MAC
	HasFactoryMAC     bool

	nextIfaceIdx int
	Torndown     []string
	Calls        []string
}

// New builds a Fake that supports 5GHz and has a factory MAC by default.
func New() *Fake {
	return &Fake{Supports5GHz: true, HasFactoryMAC: true}
}

func (f *Fake) SetupInterfaceForSoftApMode() (string, error) {
	f.Calls = append(f.Calls, "setupSoftAp")
	if f.FailSetupSoftAp {
		return "", fmt.Errorf("injected setup failure")
	}
	f.nextIfaceIdx++
	return fmt.Sprintf("wlan%d", f.nextIfaceIdx), nil
}

func (f *Fake) SetupInterfaceForBridgeMode() (string, error) {
	f.Calls = append(f.Calls, "setupBridge")
	if f.FailSetupBridge {
		return "", fmt.Errorf("injected bridge failure")
	}
	f.nextIfaceIdx++
	return fmt.Sprintf("br%d", f.nextIfaceIdx), nil
}

func (f *Fake) TeardownInterface(name string) error {
	f.Calls = append(f.Calls, "teardown:"+name)
	f.Torndown = append(f.Torndown, name)
	return nil
}

func (f *Fake) StartSoftAp(iface string, cfg model.SoftApConfiguration) error {
	f.Calls = append(f.Calls, "startSoftAp:"+iface)
	if f.FailStartSoftAp {
		return fmt.Errorf("injected hostapd start failure")
	}
	return nil
}

func (f *Fake) SetMacAddress(iface string, mac model.MAC) error {
	f.Calls = append(f.Calls, "setMac:"+iface)
	if f.FailSetMac {
		return fmt.Errorf("injected set-mac failure")
	}
	return nil
}

func (f *Fake) GetFactoryMacAddress(iface string) (model.MAC, error) {
	if f.FailFactoryMac || !f.HasFactoryMAC {
		return model.MAC{}, fmt.Errorf("no factory mac")
	}
	return f.FactoryMAC, nil
}

func (f *Fake) SetCountryCodeHal(iface string, cc string) error {
	f.Calls = append(f.Calls, "setCountry:"+iface)
	if f.FailSetCountry {
		return fmt.Errorf("injected country-code failure")
	}
	return nil
}

func (f *Fake) Is5GHzBandSupported() bool { return f.Supports5GHz }

func (f *Fake) IsInterfaceUp(iface string) bool { return true }

func (f *Fake) ForceClientDisconnect(iface string, mac model.MAC, reason model.BlockReason) error {
	f.Calls = append(f.Calls, fmt.Sprintf("disconnect:%s:%s", iface, reason))
	return nil
}

func (f *Fake) SetHostapdParams(cmd string) error { return nil }

func (f *Fake) GetFstDataInterfaceName() string { return "" }
