package fsm

import (
	"bg/internal/model"
	"bg/internal/roster"
)

// driverDisconnector adapts Manager.driver + the current apIfaceName to
// roster.Disconnector.
type driverDisconnector struct {
	m *Manager
}

func (d *driverDisconnector) ForceClientDisconnect(mac model.MAC, reason model.BlockReason) error {
	return d.m.driver.ForceClientDisconnect(d.m.apIfaceName, mac, reason)
}

// startedEntry implements spec.md §4.6 "Started.entry": initialize
// ifaceIsUp from a driver probe of both AP and data interfaces (each probe
// passes through onUpChanged), allocate the timer, clear ClientRoster,
// schedule the shutdown timeout per §4.3.
func (m *Manager) startedEntry() {
	m.state = stateStarted
	m.ifaceUp = false
	m.ifaceDestroyed = false
	m.roster = roster.New(m.slog, &driverDisconnector{m})
	m.legacyStaCount = 0
	m.info = model.SoftApInfo{Bandwidth: model.BandwidthInvalid}
	m.startedAtMS = m.nowMS()

	apUp := m.driver.IsInterfaceUp(m.apIfaceName)
	dataUp := apUp
	if m.dataIfaceName != "" && m.dataIfaceName != m.apIfaceName {
		dataUp = m.driver.IsInterfaceUp(m.dataIfaceName)
	}
	m.onUpChanged(apUp && dataUp)

	m.rescheduleTimer()
}

// onUpChanged applies spec.md §4.6's INTERFACE_STATUS_CHANGED action: on the
// first transition to up, publish ENABLED, emit onStarted, and refresh the
// (likely still-empty) client callback snapshot.
func (m *Manager) onUpChanged(up bool) {
	wasUp := m.ifaceUp
	m.ifaceUp = up
	if up && !wasUp {
		m.bus.StateChanged(model.StateEnabled, model.StateEnabling, model.FailureNone, "",
			m.dataIfaceName, m.targetMode)
		m.bus.Started()
		m.bus.ConnectedClientsChanged(m.roster.Snapshot())
	}
}

// rescheduleTimer implements I3/§4.3: armed iff autoShutdown && roster
// empty && Started; canceled otherwise.
func (m *Manager) rescheduleTimer() {
	if m.timer == nil {
		return
	}
	if m.cfg.AutoShutdown && m.roster.Len() == 0 {
		timeout := int64(m.cfg.ShutdownTimeoutMS)
		if timeout <= 0 {
			timeout = defaultShutdownTimeoutMS
		}
		m.timer.Arm(timeout, func() {
			m.enqueue(Message{Kind: MsgNoAssociatedStationsTimeout})
		})
	} else {
		m.timer.Cancel()
	}
}

const defaultShutdownTimeoutMS = 600000

// startedExit implements spec.md §4.6 "Started.exit".
func (m *Manager) startedExit() {
	if !m.ifaceDestroyed {
		m.sequencer.TeardownResult(m.startResult)
	}

	hadClients := m.roster != nil && m.roster.Len() > 0
	m.roster = roster.New(m.slog, &driverDisconnector{m})
	if hadClients {
		m.bus.ConnectedClientsChanged(nil)
	}

	if m.timer != nil {
		m.timer.Cancel()
	}

	m.bus.StateChanged(model.StateDisabled, model.StateDisabling, model.FailureNone, "",
		m.dataIfaceName, m.targetMode)

	// Role is reset to UNSPECIFIED per spec.md §4.6; roleSet is left
	// alone, since I6's "assignable exactly once" outlives this instance
	// (spec.md §3: the Manager is destroyed, not reused, after this
	// transition).
	m.roleMu.Lock()
	m.role = model.RoleUnspecified
	m.roleMu.Unlock()

	m.info = model.SoftApInfo{Bandwidth: model.BandwidthInvalid}
	m.bus.Stopped()
	m.idleEntry()
}

// handleStarted dispatches one message per spec.md §4.6's Started
// transition table.
func (m *Manager) handleStarted(msg Message) {
	switch msg.Kind {
	case MsgStart:
		// already started; ignore.

	case MsgAssociatedStationsChanged:
		m.handleAssociatedStationsChanged(msg)

	case MsgConnectedStations:
		m.legacyStaCount++
		if m.legacyStaCount > 0 {
			m.timer.Cancel()
		}
		m.bus.StaConnected(msg.Mac, m.legacyStaCount)

	case MsgDisconnectedStations:
		if m.legacyStaCount > 0 {
			m.legacyStaCount--
		}
		if m.legacyStaCount == 0 {
			m.rescheduleTimer()
		}
		m.bus.StaDisconnected(msg.Mac, m.legacyStaCount)

	case MsgSoftApChannelSwitched:
		m.handleChannelSwitched(msg)

	case MsgInterfaceStatusChanged:
		m.onUpChanged(msg.Up)

	case MsgNoAssociatedStationsTimeout:
		m.handleShutdownTimeout()

	case MsgInterfaceDestroyed:
		if m.startResult != nil && m.startResult.BridgeName != "" {
			m.sequencer.TeardownResult(m.startResult)
		}
		m.ifaceDestroyed = true
		m.bus.StateChanged(model.StateDisabling, model.StateEnabled, model.FailureNone, "",
			m.dataIfaceName, m.targetMode)
		m.startedExit()

	case MsgDualSapInterfaceDestroyed:
		if !m.ifaceDestroyed && m.startResult != nil && m.startResult.BridgeName != "" {
			m.sequencer.TeardownResult(m.startResult)
			m.ifaceDestroyed = true
		}

	case MsgFailure, MsgInterfaceDown:
		m.bus.StateChanged(model.StateFailed, model.StateEnabled, model.FailureGeneral, "",
			m.dataIfaceName, m.targetMode)
		m.bus.StateChanged(model.StateDisabling, model.StateFailed, model.FailureGeneral, "",
			m.dataIfaceName, m.targetMode)
		m.startedExit()

	case MsgUpdateCapability:
		if m.targetMode == model.ModeTethered && msg.NewCapability != nil {
			m.cap = *msg.NewCapability
			m.roster.Reconcile(m.cfg, m.cap)
		}

	case MsgUpdateConfig:
		m.handleStartedUpdateConfig(msg)

	case MsgStop:
		prevState := model.StateEnabling
		if m.ifaceUp {
			prevState = model.StateEnabled
		}
		m.bus.StateChanged(model.StateDisabling, prevState, model.FailureNone, "",
			m.dataIfaceName, m.targetMode)
		m.startedExit()

	case MsgDump:
		if msg.DumpOut != nil {
			*msg.DumpOut = m.renderDump()
		}
	}
}

func (m *Manager) handleAssociatedStationsChanged(msg Message) {
	var changed bool
	if msg.Connected {
		changed = m.roster.Admit(msg.Client, m.cfg, m.cap, func(c model.Client, reason model.BlockReason) {
			m.bus.BlockedClientConnecting(c, reason)
		})
	} else {
		changed = m.roster.Remove(msg.Client.MAC)
	}

	if changed {
		m.bus.ConnectedClientsChanged(m.roster.Snapshot())
		m.rescheduleTimer()
	}
}

func (m *Manager) handleChannelSwitched(msg Message) {
	next := model.SoftApInfo{FrequencyMHz: msg.Freq, Bandwidth: msg.Bandwidth}
	if next == m.info {
		// P8: no duplicate onInfoChanged for unchanged (freq, bw).
		return
	}
	m.info = next
	m.bus.InfoChanged(m.info)
}

func (m *Manager) handleShutdownTimeout() {
	if !m.cfg.AutoShutdown || m.roster.Len() != 0 {
		m.badTimeout.Errorf("spurious shutdown timeout: autoShutdown=%v roster=%d",
			m.cfg.AutoShutdown, m.roster.Len())
		return
	}
	if m.shutdownNotify != nil {
		m.shutdownNotify()
	}
	m.bus.StateChanged(model.StateDisabling, model.StateEnabled, model.FailureNone, "",
		m.dataIfaceName, m.targetMode)
	m.startedExit()
}

func (m *Manager) handleStartedUpdateConfig(msg Message) {
	if msg.NewConfig == nil {
		return
	}
	if msg.RequireRestart {
		m.slog.Infof("config change requires restart; caller must stop/start")
		return
	}

	old := m.cfg
	m.cfg = *msg.NewConfig
	m.roster.Reconcile(m.cfg, m.cap)

	if old.ShutdownTimeoutMS != m.cfg.ShutdownTimeoutMS || old.AutoShutdown != m.cfg.AutoShutdown {
		m.rescheduleTimer()
	}
}
