package manager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/enodebd/internal/audit"
	"github.com/nerrad567/enodebd/internal/enodeb"
	"github.com/nerrad567/enodebd/internal/infrastructure/logging"
	sm "github.com/nerrad567/enodebd/internal/statemachine"
	"github.com/nerrad567/enodebd/internal/tr069"
	"github.com/nerrad567/enodebd/internal/trace"
)

// Profiles resolves a device type to its profile.
type Profiles interface {
	Lookup(deviceType string) (sm.Profile, error)
}

// Store persists device records and their transition history.
type Store interface {
	Upsert(ctx context.Context, rec *enodeb.Record) error
	RecordTransition(ctx context.Context, t *enodeb.Transition) error
}

// Publisher sends JSON payloads to a message broker.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// Metrics receives per-device counters.
type Metrics interface {
	WriteTransition(serial, deviceType, from, to string, at time.Time)
	WriteFault(serial, deviceType, state, reason string, at time.Time)
	WriteCountAnomaly(serial, deviceType, family string, reported, counted int, at time.Time)
	WriteReboot(serial, deviceType, phase string, at time.Time)
	WriteFleet(total, inSync, faulted int, at time.Time)
}

// Broadcaster pushes live events to connected UI clients.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// Tracer records every message of an exchange.
type Tracer interface {
	Write(rec trace.Record) error
	Release(serial string) error
}

// Auditor records operator actions.
type Auditor interface {
	Create(ctx context.Context, e *audit.Entry) error
}

// WebSocket channels the manager broadcasts on.
const (
	ChannelStatus = "enodeb.status"
	ChannelEvent  = "enodeb.event"
)

// Deps holds what the manager needs. Only Profiles and Logger are
// required; a nil backend is skipped.
type Deps struct {
	Profiles Profiles
	Settings sm.SettingsSource
	Timers   sm.Timers
	Clock    sm.Clock
	Logger   *logging.Logger

	Store     Store
	Publisher Publisher
	Metrics   Metrics
	Hub       Broadcaster
	Tracer    Tracer
	Audit     Auditor

	// IdleEviction drops machines that have not seen a message for this
	// long. Zero keeps them forever.
	IdleEviction time.Duration
}

type entry struct {
	// mu serialises turns of one device, including timer events.
	mu       sync.Mutex
	machine  *sm.Machine
	lastSeen time.Time
	stored   bool
}

// Manager routes messages to per-device state machines.
// All methods are safe for concurrent use.
type Manager struct {
	deps   Deps
	logger *logging.Logger
	clock  sm.Clock

	mu      sync.RWMutex
	entries map[string]*entry
}

// New creates a Manager.
func New(deps Deps) (*Manager, error) {
	if deps.Profiles == nil {
		return nil, errors.New("manager: profiles are required")
	}
	if deps.Logger == nil {
		return nil, errors.New("manager: logger is required")
	}
	if deps.Clock == nil {
		deps.Clock = sm.RealClock{}
	}
	return &Manager{
		deps:    deps,
		logger:  deps.Logger.With("component", "manager"),
		clock:   deps.Clock,
		entries: make(map[string]*entry),
	}, nil
}

// LookupOrCreate returns the machine of serial, creating it for deviceType
// when none exists. A device that comes back as another type gets a fresh
// machine.
func (m *Manager) LookupOrCreate(_ context.Context, deviceType, serial string) (*sm.Machine, error) {
	if serial == "" {
		return nil, ErrNoSerial
	}

	m.mu.RLock()
	e, ok := m.entries[serial]
	m.mu.RUnlock()
	if ok && e.machine.Profile().Name() == deviceType {
		return e.machine, nil
	}

	profile, err := m.deps.Profiles.Lookup(deviceType)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[serial]; ok {
		if e.machine.Profile().Name() == deviceType {
			return e.machine, nil
		}
		m.logger.Warn("device type changed, replacing machine",
			"serial", serial, "old_type", e.machine.Profile().Name(), "new_type", deviceType)
	}

	e = &entry{lastSeen: m.clock.Now()}
	machine, err := sm.New(sm.Options{
		Serial:   serial,
		Profile:  profile,
		Settings: m.deps.Settings,
		Clock:    m.clock,
		Timers:   m.deps.Timers,
		Logger:   m.deps.Logger.ForDevice(serial, deviceType),
		Post: func(_ *sm.Machine, msg tr069.Message) {
			m.post(e, msg)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating machine for %s: %w", serial, err)
	}
	e.machine = machine
	m.entries[serial] = e

	m.logger.Info("device registered", "serial", serial, "device_type", deviceType)
	return machine, nil
}

// Dispatch runs one turn of machine and returns the message to send back.
func (m *Manager) Dispatch(ctx context.Context, machine *sm.Machine, msg tr069.Message) (tr069.Message, error) {
	m.mu.RLock()
	e, ok := m.entries[machine.Serial()]
	m.mu.RUnlock()
	if !ok || e.machine != machine || !m.lockLive(e) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMachine, machine.Serial())
	}
	defer e.mu.Unlock()
	return m.turn(ctx, e, msg)
}

// lockLive takes e.mu and reports whether e is still the registered entry
// of its serial. e.mu is held only when it returns true.
func (m *Manager) lockLive(e *entry) bool {
	e.mu.Lock()
	m.mu.RLock()
	live := m.entries[e.machine.Serial()] == e
	m.mu.RUnlock()
	if !live {
		e.mu.Unlock()
	}
	return live
}

// post delivers a timer event through the device lock.
func (m *Manager) post(e *entry, msg tr069.Message) {
	if !m.lockLive(e) {
		return
	}
	defer e.mu.Unlock()
	if _, err := m.turn(context.Background(), e, msg); err != nil {
		m.logger.Error("timer event failed", "serial", e.machine.Serial(), "error", err)
	}
}

// turn must be called with e.mu held.
func (m *Manager) turn(ctx context.Context, e *entry, msg tr069.Message) (tr069.Message, error) {
	machine := e.machine
	if _, synthetic := msg.(*tr069.Timeout); !synthetic {
		e.lastSeen = m.clock.Now()
		m.trace(machine, trace.Inbound, msg)
	}

	out, err := machine.Handle(msg)
	if out != nil {
		m.trace(machine, trace.Outbound, out)
	}

	_, inform := msg.(*tr069.Inform)
	m.afterTurn(ctx, e, inform)
	return out, err
}

func (m *Manager) trace(machine *sm.Machine, dir trace.Direction, msg tr069.Message) {
	if m.deps.Tracer == nil {
		return
	}
	st := machine.Status()
	rec, err := trace.NewRecord(machine.Serial(), st.Session, st.State, dir, msg, m.clock.Now())
	if err != nil {
		m.logger.Warn("building trace record failed", "serial", machine.Serial(), "error", err)
		return
	}
	if err := m.deps.Tracer.Write(rec); err != nil {
		m.logger.Warn("trace write failed", "serial", machine.Serial(), "error", err)
	}
}

func (m *Manager) lookup(serial string) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[serial]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, serial)
	}
	return e, nil
}

// Machine returns the live machine of serial.
func (m *Manager) Machine(serial string) (*sm.Machine, error) {
	e, err := m.lookup(serial)
	if err != nil {
		return nil, err
	}
	return e.machine, nil
}

// Status returns the live status of serial.
func (m *Manager) Status(serial string) (sm.Status, error) {
	e, err := m.lookup(serial)
	if err != nil {
		return sm.Status{}, err
	}
	return e.machine.Status(), nil
}

// List returns the status of every live machine ordered by serial.
func (m *Manager) List() []sm.Status {
	m.mu.RLock()
	machines := make([]*sm.Machine, 0, len(m.entries))
	for _, e := range m.entries {
		machines = append(machines, e.machine)
	}
	m.mu.RUnlock()

	out := make([]sm.Status, 0, len(machines))
	for _, machine := range machines {
		out = append(out, machine.Status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Serial < out[j].Serial })
	return out
}

// Count returns the number of live machines.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
