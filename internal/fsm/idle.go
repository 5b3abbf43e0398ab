package fsm

import (
	"bg/internal/model"
	"bg/internal/startup"
)

// idleEntry implements spec.md §4.6 "Idle.entry": clear interface names,
// ifaceIsUp=false, ifaceDestroyed=false.
func (m *Manager) idleEntry() {
	m.state = stateIdle
	m.apIfaceName = ""
	m.dataIfaceName = ""
	m.ifaceUp = false
	m.ifaceDestroyed = false
	m.startResult = nil
}

// handleIdle dispatches one message per spec.md §4.6's Idle transition
// table.
func (m *Manager) handleIdle(msg Message) {
	switch msg.Kind {
	case MsgStart:
		m.idleHandleStart()

	case MsgUpdateCapability:
		if m.targetMode == model.ModeTethered && msg.NewCapability != nil {
			m.cap = *msg.NewCapability
		}

	case MsgUpdateConfig:
		m.applyConfigUpdate(msg.NewConfig)

	case MsgStop:
		// P7: stop() on Idle is a no-op — no broadcast, no callback.

	case MsgDump:
		if msg.DumpOut != nil {
			*msg.DumpOut = m.renderDump()
		}

	default:
		// All other messages (driver events arriving after teardown)
		// are no-ops in Idle per spec.md §5's ordering guarantee.
	}
}

func (m *Manager) applyConfigUpdate(newCfg *model.SoftApConfiguration) {
	if newCfg == nil {
		return
	}
	// P6: applying the identical configuration twice must leave
	// observable state unchanged — a plain field copy is naturally
	// idempotent here since there's no derived state to recompute
	// until the next START.
	m.cfg = *newCfg
}

// idleHandleStart dispatches to StartupSequencer per spec.md §4.5, choosing
// the single/dual/OWE path from config band and security, and applies the
// Idle "START" transition's success/failure handling (§4.6).
func (m *Manager) idleHandleStart() {
	hooks := startup.Hooks{
		PublishEnabling: func() {
			m.bus.StateChanged(model.StateEnabling, model.StateDisabled, model.FailureNone, "",
				m.dataIfaceName, m.targetMode)
		},
	}

	var result *startup.Result
	var err error

	switch {
	case m.cfg.Security == model.SecurityOWE || m.cfg.Security == model.SecuritySAETransition:
		result, err = m.sequencer.StartOWE(m.cfg, m.cap, hooks)
	case m.cfg.Band == model.BandAny:
		result, err = m.sequencer.StartDual(m.cfg, m.cap, hooks)
	default:
		result, err = m.sequencer.StartSingle(m.cfg, m.cap, hooks)
	}

	if err != nil {
		reason := model.FailureReasonFor(model.KindOf(err))
		// Pure pre-interface failures (no ApIfaceName ever assigned)
		// publish a single FAILED; once an interface had been created
		// the rollback already happened inside the sequencer, but the
		// broadcast contract is the same single FAILED here too,
		// since Idle never reached ENABLING->ENABLED (spec.md §7).
		m.bus.StateChanged(model.StateFailed, model.StateEnabling, reason, err.Error(),
			m.dataIfaceName, m.targetMode)
		m.bus.StartFailure(reason)
		m.idleEntry()
		return
	}

	m.startResult = result
	m.apIfaceName = result.ApIfaceName
	m.dataIfaceName = result.DataIfaceName
	m.startedEntry()
}
