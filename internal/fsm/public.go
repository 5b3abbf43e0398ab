package fsm

import (
	"fmt"
	"io"
	"strings"

	"bg/internal/model"
)

// Start enqueues START (spec.md §6).
func (m *Manager) Start() {
	m.enqueue(Message{Kind: MsgStart})
}

// Stop enqueues the user-initiated stop (spec.md §6: "if an interface
// exists, publish DISABLING ...; shut down the FSM"). It blocks until the
// FSM has processed it, so that a caller observing Stop's return can rely
// on onStopped (if any interface existed) having already been delivered.
func (m *Manager) Stop() {
	m.enqueueWait(Message{Kind: MsgStop})
}

// Close terminates the Loop goroutine once all queued messages have
// drained. Callers must not enqueue further messages afterward. This is
// daemon-process shutdown, distinct from the Soft-AP state machine's own
// Stop().
func (m *Manager) Close() {
	m.closed.Set()
	close(m.mailbox)
	<-m.stopped
}

// GetRole returns the current role (spec.md §6).
func (m *Manager) GetRole() model.Role {
	m.roleMu.Lock()
	defer m.roleMu.Unlock()
	return m.role
}

// SetRole assigns the role exactly once (I6): the role must be a member of
// the Soft-AP role set, and a second call fails.
func (m *Manager) SetRole(role model.Role) error {
	if !model.ValidSoftApRole(role) {
		return fmt.Errorf("invalid soft-ap role %d", role)
	}

	m.roleMu.Lock()
	defer m.roleMu.Unlock()
	if m.roleSet {
		return fmt.Errorf("role already assigned")
	}
	m.role = role
	m.roleSet = true
	return nil
}

// UpdateCapability enqueues UPDATE_CAPABILITY (spec.md §6).
func (m *Manager) UpdateCapability(cap model.SoftApCapability) {
	m.enqueue(Message{Kind: MsgUpdateCapability, NewCapability: &cap})
}

// UpdateConfiguration enqueues UPDATE_CONFIG (spec.md §6). requireRestart
// lets the caller flag a change the Started transition table (§4.6) cannot
// apply live (e.g. SSID/security/band), per "if change requires restart,
// log and ignore (caller must stop/start)".
func (m *Manager) UpdateConfiguration(cfg model.SoftApConfiguration, requireRestart bool) {
	m.enqueue(Message{Kind: MsgUpdateConfig, NewConfig: &cfg, RequireRestart: requireRestart})
}

// Dump renders a diagnostic snapshot to w (spec.md §6): current state name,
// role, iface names, up-flag, country, target mode, SSID, band, hidden
// flag, client count, timeout enabled, current SoftApInfo, start timestamp,
// FSM log.
func (m *Manager) Dump(w io.Writer) {
	var out string
	m.enqueueWait(Message{Kind: MsgDump, DumpOut: &out})
	fmt.Fprint(w, out)
}

func (m *Manager) renderDump() string {
	var b strings.Builder

	stateName := "Idle"
	if m.state == stateStarted {
		stateName = "Started"
	}

	clientCount := 0
	var clients []model.Client
	if m.roster != nil {
		clientCount = m.roster.Len()
		clients = m.roster.Snapshot()
	}

	fmt.Fprintf(&b, "state: %s\n", stateName)
	fmt.Fprintf(&b, "role: %d\n", m.GetRole())
	fmt.Fprintf(&b, "apIface: %s\n", m.apIfaceName)
	fmt.Fprintf(&b, "dataIface: %s\n", m.dataIfaceName)
	fmt.Fprintf(&b, "ifaceUp: %v\n", m.ifaceUp)
	fmt.Fprintf(&b, "country: %s\n", m.cfg.CountryCode)
	fmt.Fprintf(&b, "targetMode: %d\n", m.targetMode)
	fmt.Fprintf(&b, "ssid: %s\n", m.cfg.SSID)
	fmt.Fprintf(&b, "band: %s\n", m.cfg.Band)
	fmt.Fprintf(&b, "hidden: %v\n", m.cfg.HiddenSSID)
	fmt.Fprintf(&b, "clients: %d\n", clientCount)
	fmt.Fprintf(&b, "autoShutdown: %v\n", m.cfg.AutoShutdown)
	fmt.Fprintf(&b, "info: freq=%d bw=%d\n", m.info.FrequencyMHz, m.info.Bandwidth)
	fmt.Fprintf(&b, "startedAtMS: %d\n", m.startedAtMS)

	for _, c := range clients {
		vendor := m.vendorDB.Lookup(c.MAC.String())
		if vendor == "" {
			fmt.Fprintf(&b, "client: %s\n", c.MAC)
		} else {
			fmt.Fprintf(&b, "client: %s (%s)\n", c.MAC, vendor)
		}
	}

	fmt.Fprintf(&b, "log: %s\n", strings.Join(m.fsmLog, ","))

	return b.String()
}

// EnqueueDriverEvent is the seam DriverEventDemux (C8) uses to hand a
// normalized message to the FSM without blocking.
func (m *Manager) EnqueueDriverEvent(msg Message) {
	m.enqueue(msg)
}
