package fsm

import (
	"sync"
	"time"

	"github.com/tevino/abool"
	"go.uber.org/zap"

	"bg/internal/aplog"
	"bg/internal/driveriface"
	"bg/internal/eventbus"
	"bg/internal/model"
	"bg/internal/ouidb"
	"bg/internal/roster"
	"bg/internal/shutdowntimer"
	"bg/internal/startup"
)

// stateID names the two peer states (spec.md §4.6: "two peer states;
// implementers may realize this as a tagged variant").
type stateID int

const (
	stateIdle stateID = iota
	stateStarted
)

// Manager is the Soft-AP lifecycle FSM plus its public API (spec.md §6).
// All of its fields below mailboxState are owned exclusively by the single
// goroutine running Loop; nothing outside that goroutine may read or write
// them (spec.md §5).
type Manager struct {
	slog           *zap.SugaredLogger
	badTimeout     *aplog.ThrottledLogger // spurious-shutdown-timeout complaints, throttled
	driver         driveriface.Iface
	sequencer      *startup.Sequencer
	bus            *eventbus.Bus
	nowMS          func() int64
	shutdownNotify func()
	vendorDB       *ouidb.DB // optional; nil means dump() omits manufacturer annotations

	mailbox chan Message
	stopped chan struct{}
	closed  *abool.AtomicBool // set by Close, checked by enqueue/enqueueWait from any goroutine

	// mailboxState: owned solely by the Loop goroutine.
	state          stateID
	cfg            model.SoftApConfiguration
	cap            model.SoftApCapability
	targetMode     model.TargetMode
	roster         *roster.Roster
	timer          *shutdowntimer.Timer
	startResult    *startup.Result
	apIfaceName    string
	dataIfaceName  string
	ifaceUp        bool
	ifaceDestroyed bool
	info           model.SoftApInfo
	startedAtMS    int64
	legacyStaCount int
	fsmLog         []string

	// role is Manager-level metadata, not part of the Idle/Started
	// transition tables (spec.md §4.6 never mentions it), so it is
	// guarded by its own small mutex rather than the mailbox: I6 only
	// requires "assignable exactly once", not serialization with FSM
	// transitions.
	roleMu  sync.Mutex
	role    model.Role
	roleSet bool
}

// Config bundles the fixed collaborators a Manager is constructed with
// (spec.md §3 "Manager: constructed with a fixed SoftApModeConfiguration and
// collaborators").
type Config struct {
	Logger     *zap.SugaredLogger
	Driver     driveriface.Iface
	Listener   eventbus.Listener
	Broadcast  eventbus.BroadcastSink
	Metrics    eventbus.MetricsSink
	NowMS      func() int64
	TargetMode model.TargetMode

	// Capability establishes the driver/hardware traits the FSM starts
	// with (spec.md §9: "capability traits consumed by constructor
	// injection"). UPDATE_CAPABILITY only ever replaces this afterward in
	// TETHERED mode; a LOCAL_ONLY instance's capability is fixed for its
	// lifetime once constructed.
	Capability model.SoftApCapability

	// Bridger overrides the netlink-backed bridge wiring startup.New
	// otherwise defaults to (used by the dual-band/OWE bridge topology).
	// Nil means the real one; tests inject a fake in its place.
	Bridger startup.Bridger

	// VendorDB is an optional IEEE OUI database used to annotate dump()'s
	// roster listing with manufacturer names (SPEC_FULL.md §3). Nil is
	// legal and common in environments with no bundled oui.txt.
	VendorDB *ouidb.DB

	// ShutdownNotifier is the out-of-scope user-facing-notification
	// collaborator spec.md §1 excludes from implementation; fired just
	// before the DISABLING broadcast on an idle-timeout shutdown
	// (spec.md §8 scenario 1). Nil is legal.
	ShutdownNotifier func()
}

// New builds a Manager in the Idle state. It does not start the event loop;
// call Loop in its own goroutine.
func New(c Config) *Manager {
	bus := eventbus.New(c.Listener, c.Broadcast, c.Metrics)
	sequencer := startup.New(c.Driver, c.Logger, c.NowMS)
	if c.Bridger != nil {
		sequencer = startup.NewWithBridger(c.Driver, c.Bridger, c.Logger, c.NowMS)
	}
	m := &Manager{
		slog:           c.Logger,
		badTimeout:     aplog.GetThrottledLogger(c.Logger, time.Second, 30*time.Second),
		driver:         c.Driver,
		sequencer:      sequencer,
		bus:            bus,
		nowMS:          c.NowMS,
		shutdownNotify: c.ShutdownNotifier,
		vendorDB:       c.VendorDB,
		timer:          shutdowntimer.New(),
		mailbox:        make(chan Message, MailboxCapacity),
		stopped:        make(chan struct{}),
		closed:         abool.New(),
		targetMode:     c.TargetMode,
		cap:            c.Capability,
	}
	m.idleEntry()
	return m
}

// Loop runs the single-threaded event dispatch until Close closes the
// mailbox and the queued messages have drained. Intended to be run in its
// own goroutine from cmd/ap-softapd.
func (m *Manager) Loop() {
	for msg := range m.mailbox {
		m.dispatch(msg)
		if msg.Reply != nil {
			close(msg.Reply)
		}
	}
	close(m.stopped)
}

func (m *Manager) dispatch(msg Message) {
	m.logMsg(msg.Kind)
	switch m.state {
	case stateIdle:
		m.handleIdle(msg)
	case stateStarted:
		m.handleStarted(msg)
	}
}

func (m *Manager) logMsg(kind MsgKind) {
	m.fsmLog = append(m.fsmLog, kind.String())
	if len(m.fsmLog) > 64 {
		m.fsmLog = m.fsmLog[len(m.fsmLog)-64:]
	}
}

// enqueue performs the non-blocking send every external entry point uses
// (spec.md §5: "no lock is taken on Manager state outside this loop").
func (m *Manager) enqueue(msg Message) {
	if m.closed.IsSet() {
		m.slog.Errorf("mailbox closed, dropping message %s", msg.Kind)
		return
	}
	select {
	case m.mailbox <- msg:
	default:
		m.slog.Errorf("mailbox full, dropping message %s", msg.Kind)
	}
}

// enqueueWait enqueues and blocks until the handler has processed it —
// used by public methods that must behave synchronously (Stop, Dump) while
// still only ever touching Manager state from the Loop goroutine.
func (m *Manager) enqueueWait(msg Message) {
	if m.closed.IsSet() {
		m.slog.Errorf("mailbox closed, dropping message %s", msg.Kind)
		return
	}
	msg.Reply = make(chan struct{})
	m.mailbox <- msg
	<-msg.Reply
}

func (kind MsgKind) String() string {
	names := [...]string{
		"START", "UPDATE_CAPABILITY", "UPDATE_CONFIG",
		"ASSOCIATED_STATIONS_CHANGED", "CONNECTED_STATIONS", "DISCONNECTED_STATIONS",
		"SOFT_AP_CHANNEL_SWITCHED", "INTERFACE_STATUS_CHANGED", "NO_ASSOCIATED_STATIONS_TIMEOUT",
		"INTERFACE_DESTROYED", "DUAL_SAP_INTERFACE_DESTROYED", "FAILURE", "INTERFACE_DOWN",
		"STOP", "DUMP",
	}
	if int(kind) < len(names) {
		return names[kind]
	}
	return "UNKNOWN"
}
