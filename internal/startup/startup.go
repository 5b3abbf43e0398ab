/*
 * Copyright 2020 Brightgate Inc.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at https://mozilla.org/MPL/2.0/.
 */

// Package startup implements C5: the ordered driver-call sequence for
// single/dual-band/OWE startup and its rollback, spec.md §4.5. Grounded on
// ap.wifid/hostapd.go's start()/halt() shape (launch, then tear down
// everything on any failure) and bridge.go's bridge-membership plumbing for
// the dual-iface/OWE paths.
package startup

import (
	"time"

	"go.uber.org/zap"

	"bg/internal/aplog"
	"bg/internal/configresolver"
	"bg/internal/driveriface"
	"bg/internal/model"
)

// paceLimit/pacePeriod bound how fast a caller may retry StartSingle/
// StartDual/StartOWE before the sequencer refuses outright rather than
// driving the adapter again (SPEC_FULL.md "Supplemented Features").
const (
	paceLimit  = 3
	pacePeriod = 30 * time.Second
)

// Hooks lets the FSM observe sequencer progress without the sequencer
// calling back into FSM state directly (spec.md §5 reentrancy rule: the
// sequencer runs synchronously inside a single message handler, so this is
// a plain call, not a re-enqueue).
type Hooks struct {
	PublishEnabling func()
}

// Result describes a successfully started AP.
type Result struct {
	ApIfaceName   string // bridge name in dual/OWE mode, else the radio iface
	DataIfaceName string
	RadioIfaces   []string
	BridgeName    string // empty for single-AP
	FinalConfigs  []model.SoftApConfiguration
	StartedAtMS   int64
	CorrelationID string // ties every log line for one startup attempt together
}

// Sequencer runs the startup/rollback sequence against a driver adapter.
type Sequencer struct {
	driver   driveriface.Iface
	bridger  Bridger
	slog     *zap.SugaredLogger
	nowMS    func() int64
	pace     *aplog.PaceTracker
	paceWarn *aplog.ThrottledLogger
}

// New builds a Sequencer using the real netlink-backed Bridger.
func New(driver driveriface.Iface, slog *zap.SugaredLogger, nowMS func() int64) *Sequencer {
	return NewWithBridger(driver, netlinkBridger{}, slog, nowMS)
}

// NewWithBridger builds a Sequencer against an explicit Bridger, letting
// tests substitute a fake in place of real netlink devices.
func NewWithBridger(driver driveriface.Iface, bridger Bridger, slog *zap.SugaredLogger, nowMS func() int64) *Sequencer {
	return &Sequencer{
		driver:   driver,
		bridger:  bridger,
		slog:     slog,
		nowMS:    nowMS,
		pace:     aplog.NewPaceTracker(paceLimit, pacePeriod),
		paceWarn: aplog.GetThrottledLogger(slog, time.Second, time.Minute),
	}
}

// checkPace refuses a startup attempt that is arriving faster than
// paceLimit attempts per pacePeriod, rather than driving the adapter again
// on a caller that is hard-looping retries.
func (s *Sequencer) checkPace() error {
	if err := s.pace.Tick(); err != nil {
		s.paceWarn.Warnf("refusing to retry startup: %v", err)
		return model.NewError(model.ErrTransientDrop, "%v", err)
	}
	return nil
}

// configureRadio runs steps 4-9 of spec.md §4.5 against one already-created
// radio interface.
func (s *Sequencer) configureRadio(iface string, cfg model.SoftApConfiguration, cap model.SoftApCapability) (model.SoftApConfiguration, error) {
	// Step 4: setMacAddress. An absent BSSID is randomized here (spec.md
	// §4.4: "BSSID absent ⇒ randomize"); an explicit one passes through
	// unchanged.
	resolved, err := configresolver.RandomizeBSSID(cfg)
	if err != nil {
		return cfg, model.NewError(model.ErrDriverFailure, "randomizing bssid for %s: %v", iface, err)
	}
	cfg = resolved
	if err := s.driver.SetMacAddress(iface, cfg.BSSID); err != nil {
		return cfg, model.NewError(model.ErrDriverFailure, "setMacAddress(%s): %v", iface, err)
	}

	// Step 5: setCountryCode — fatal only for 5GHZ.
	is5 := cfg.Band.Has(model.Band5GHz)
	if cfg.CountryCode == "" {
		if is5 {
			return cfg, model.NewError(model.ErrDriverFailure, "empty country code with 5GHZ requested on %s", iface)
		}
	} else if err := s.driver.SetCountryCodeHal(iface, cfg.CountryCode); err != nil {
		if is5 {
			return cfg, model.NewError(model.ErrDriverFailure, "setCountryCode(%s): %v", iface, err)
		}
		s.slog.Warnf("setCountryCode(%s) failed, non-fatal outside 5GHZ: %v", iface, err)
	}

	// Step 6: 5GHZ support check.
	if is5 && !s.driver.Is5GHzBandSupported() {
		return cfg, model.NewError(model.ErrNoChannel, "NO_5GHZ_SUPPORT: driver does not support 5GHZ")
	}

	// Step 7: channel/ACS resolution.
	acsRequested := cfg.Channel == 0
	band := cfg.Band
	if band == model.BandAny {
		band = model.Band2GHz
	}
	channel, err := configresolver.ResolveChannel(cfg, cap, band, acsRequested)
	if err != nil {
		return cfg, model.NewError(model.ErrNoChannel, "%v", err)
	}
	cfg.Channel = channel

	// Step 8: checkSupportAllConfiguration.
	if err := checkSupportAllConfiguration(cfg, cap); err != nil {
		return cfg, model.NewError(model.ErrConfigInvalid, "%v", err)
	}

	// Step 9: startSoftAp.
	if err := s.driver.StartSoftAp(iface, cfg); err != nil {
		return cfg, model.NewError(model.ErrDriverFailure, "startSoftAp(%s): %v", iface, err)
	}

	return cfg, nil
}

func checkSupportAllConfiguration(cfg model.SoftApConfiguration, cap model.SoftApCapability) error {
	if cfg.SSID == "" {
		return &model.Error{Kind: model.ErrConfigInvalid, Detail: "empty SSID"}
	}
	if cfg.MaxClientCount > 0 && cap.MaxClients > 0 && cfg.MaxClientCount > cap.MaxClients {
		return &model.Error{Kind: model.ErrConfigInvalid, Detail: "requested max clients exceeds capability"}
	}
	return nil
}

func (s *Sequencer) teardownAll(ifaces ...string) {
	for _, name := range ifaces {
		if name == "" {
			continue
		}
		// Best-effort: leave the radio back at its factory MAC rather
		// than whatever explicit or randomized BSSID configureRadio
		// applied to it. Absence of a factory MAC (e.g. a bridge
		// device) is expected and not fatal to teardown.
		if factory, err := s.driver.GetFactoryMacAddress(name); err == nil {
			if err := s.driver.SetMacAddress(name, factory); err != nil {
				s.slog.Warnf("factory-mac reset failed on %s: %v", name, err)
			}
		}
		if err := s.driver.TeardownInterface(name); err != nil {
			s.slog.Warnf("teardown(%s) during rollback: %v", name, err)
		}
	}
}

// StartSingle runs the single-AP path (spec.md §4.5 steps 1-10).
func (s *Sequencer) StartSingle(cfg model.SoftApConfiguration, cap model.SoftApCapability, hooks Hooks) (*Result, error) {
	if err := s.checkPace(); err != nil {
		return nil, err
	}

	corrID := configresolver.NewCorrelationID()
	s.slog.Infof("[%s] starting single-AP sequence", corrID)

	iface, err := s.driver.SetupInterfaceForSoftApMode()
	if err != nil {
		return nil, model.NewError(model.ErrDriverFailure, "setupInterfaceForSoftApMode: %v", err)
	}

	dataIface := s.driver.GetFstDataInterfaceName()
	if dataIface == "" {
		dataIface = iface
	}

	if hooks.PublishEnabling != nil {
		hooks.PublishEnabling()
	}

	finalCfg, err := s.configureRadio(iface, cfg, cap)
	if err != nil {
		s.teardownAll(iface)
		return nil, err
	}

	return &Result{
		ApIfaceName:   iface,
		DataIfaceName: dataIface,
		RadioIfaces:   []string{iface},
		FinalConfigs:  []model.SoftApConfiguration{finalCfg},
		StartedAtMS:   s.nowMS(),
		CorrelationID: corrID,
	}, nil
}

// StartDual runs the dual-band path (spec.md §4.5 "Dual-band path"): two
// radio interfaces plus one bridge, split 2GHZ/5GHZ.
func (s *Sequencer) StartDual(cfg model.SoftApConfiguration, cap model.SoftApCapability, hooks Hooks) (*Result, error) {
	cfg2g, cfg5g := configresolver.SplitDualBand(cfg)
	return s.startDualLike(cfg2g, cfg5g, cap, hooks)
}

// StartOWE runs the OWE transition path: same topology as dual-band, but the
// two children are the OWE/Open pair.
func (s *Sequencer) StartOWE(cfg model.SoftApConfiguration, cap model.SoftApCapability, hooks Hooks) (*Result, error) {
	oweCfg, openCfg := configresolver.OWEPair(cfg)
	return s.startDualLike(oweCfg, openCfg, cap, hooks)
}

func (s *Sequencer) startDualLike(cfgA, cfgB model.SoftApConfiguration, cap model.SoftApCapability, hooks Hooks) (*Result, error) {
	if err := s.checkPace(); err != nil {
		return nil, err
	}

	corrID := configresolver.NewCorrelationID()
	s.slog.Infof("[%s] starting dual-radio sequence", corrID)

	radio1, err := s.driver.SetupInterfaceForSoftApMode()
	if err != nil {
		return nil, model.NewError(model.ErrDriverFailure, "setupInterfaceForSoftApMode(radio1): %v", err)
	}
	radio2, err := s.driver.SetupInterfaceForSoftApMode()
	if err != nil {
		s.teardownAll(radio1)
		return nil, model.NewError(model.ErrDriverFailure, "setupInterfaceForSoftApMode(radio2): %v", err)
	}
	bridge, err := s.driver.SetupInterfaceForBridgeMode()
	if err != nil {
		s.teardownAll(radio1, radio2)
		return nil, model.NewError(model.ErrDriverFailure, "setupInterfaceForBridgeMode: %v", err)
	}

	if hooks.PublishEnabling != nil {
		hooks.PublishEnabling()
	}

	finalA, err := s.configureRadio(radio1, cfgA, cap)
	if err != nil {
		s.teardownAll(radio1, radio2, bridge)
		return nil, err
	}
	finalB, err := s.configureRadio(radio2, cfgB, cap)
	if err != nil {
		s.teardownAll(radio1, radio2, bridge)
		return nil, err
	}

	if err := s.bridger.AddNicToBridge(bridge, radio1); err != nil {
		s.teardownAll(radio1, radio2, bridge)
		return nil, model.NewError(model.ErrDriverFailure, "bridging %s: %v", radio1, err)
	}
	if err := s.bridger.AddNicToBridge(bridge, radio2); err != nil {
		s.teardownAll(radio1, radio2, bridge)
		return nil, model.NewError(model.ErrDriverFailure, "bridging %s: %v", radio2, err)
	}

	return &Result{
		ApIfaceName:   bridge,
		DataIfaceName: bridge,
		RadioIfaces:   []string{radio1, radio2},
		BridgeName:    bridge,
		FinalConfigs:  []model.SoftApConfiguration{finalA, finalB},
		StartedAtMS:   s.nowMS(),
		CorrelationID: corrID,
	}, nil
}

// TeardownResult tears down every interface a Result created, in the order
// bridge-then-radios (mirrors hostapd.go's halt() outward-in teardown). Used
// both by Started.exit (§4.6) and by DUAL_SAP_INTERFACE_DESTROYED handling.
func (s *Sequencer) TeardownResult(r *Result) {
	if r == nil {
		return
	}
	if r.BridgeName != "" {
		for _, radio := range r.RadioIfaces {
			s.bridger.RemoveNicFromBridge(radio)
		}
		s.teardownAll(r.BridgeName)
	}
	s.teardownAll(r.RadioIfaces...)
}
