package statemachine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/enodebd/internal/datamodel"
	"github.com/nerrad567/enodebd/internal/deviceconfig"
	"github.com/nerrad567/enodebd/internal/fleet"
	"github.com/nerrad567/enodebd/internal/reconcile"
	"github.com/nerrad567/enodebd/internal/tr069"
)

// Profile is a device type: its data model, its state table and the hooks
// that specialise the generic session.
type Profile interface {
	Name() string
	DataModel() *datamodel.Model

	// States returns a fresh table for one device.
	States(t Timers) Table

	DisconnectedState() string
	FaultState() string
	// RebootState is the entry point of a manual reboot, or "" when the
	// profile cannot reboot on request.
	RebootState() string

	// PostProcess edits the desired configuration once, right after it
	// is first built.
	PostProcess(desired, observed *deviceconfig.Store, settings fleet.Settings) error
}

// SettingsSource supplies the desired fleet settings for a serial number.
type SettingsSource interface {
	Lookup(serial string) fleet.Settings
}

// Options configures a Machine.
type Options struct {
	Serial   string
	Profile  Profile
	Settings SettingsSource
	Clock    Clock
	Timers   Timers
	Logger   Logger

	// Post delivers timer events back into the machine. It must serialise
	// with other messages for the device; the default calls Handle.
	Post func(m *Machine, msg tr069.Message)
}

// Machine is the session state machine of one device. All exported
// methods are safe for concurrent use; messages are handled one at a time.
type Machine struct {
	mu sync.Mutex

	serial   string
	profile  Profile
	model    *datamodel.Model
	table    Table
	settings SettingsSource
	clock    Clock
	timers   Timers
	logger   Logger
	post     func(m *Machine, msg tr069.Message)

	current  string
	observed *deviceconfig.Store
	desired  *deviceconfig.Store
	presence *datamodel.Presence

	invasiveApplied bool
	pending         string

	timer   Timer
	timerID uint64

	// inFlight holds the values of the outstanding SetParameterValues.
	inFlight reconcile.Changes
	paramKey uint64

	// firmwareAttempt is the firmware target last offered to the device.
	// It survives session resets so a failed upgrade is not retried
	// every session.
	firmwareAttempt string

	session   string
	deviceID  tr069.DeviceID
	lastError string
	updatedAt time.Time
	events    []Event
}

// New creates a machine in the profile's disconnected state.
func New(opts Options) (*Machine, error) {
	if opts.Profile == nil {
		return nil, ErrNoProfile
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Timers == (Timers{}) {
		opts.Timers = DefaultTimers()
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.Post == nil {
		opts.Post = func(m *Machine, msg tr069.Message) {
			if _, err := m.Handle(msg); err != nil {
				m.logger.Error("handling timer event failed", "serial", m.serial, "error", err)
			}
		}
	}

	p := opts.Profile
	table := p.States(opts.Timers)
	required := []string{p.DisconnectedState(), p.FaultState()}
	if p.RebootState() != "" {
		required = append(required, p.RebootState())
	}
	if err := table.Validate(required...); err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.Name(), err)
	}

	m := &Machine{
		serial:   opts.Serial,
		profile:  p,
		model:    p.DataModel(),
		table:    table,
		settings: opts.Settings,
		clock:    opts.Clock,
		timers:   opts.Timers,
		logger:   opts.Logger,
		post:     opts.Post,
		current:  p.DisconnectedState(),
	}
	m.reset()
	m.updatedAt = m.clock.Now()
	if en, ok := table[m.current].(Enterer); ok {
		en.Enter(m)
	}
	return m, nil
}

// Serial returns the device serial number.
func (m *Machine) Serial() string { return m.serial }

// Profile returns the device profile.
func (m *Machine) Profile() Profile { return m.profile }

// State returns the current state name.
func (m *Machine) State() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Handle processes one inbound message and returns the outbound message
// of the turn. Timer events return a nil message.
//
// Fatal session errors do not surface here: the machine moves to its fault
// state, records a fault event and answers from there. An error is returned
// only for a nil message or a broken state table.
func (m *Machine) Handle(msg tr069.Message) (tr069.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg == nil {
		return nil, tr069.ErrNilMessage
	}
	m.updatedAt = m.clock.Now()

	switch v := msg.(type) {
	case *tr069.TransferComplete:
		m.transferComplete(v)
		return &tr069.TransferCompleteResponse{}, nil
	case *tr069.Timeout:
		return nil, m.onTimeout(v)
	case *tr069.Inform:
		m.session = uuid.NewString()
		m.deviceID = v.DeviceID
	}

	if m.pending != "" && atTurnBoundary(msg) {
		next := m.pending
		m.pending = ""
		if err := m.transition(next, "queued"); err != nil {
			return nil, err
		}
	}

	out, err := m.step(msg)
	if err == nil {
		return out, nil
	}
	if errors.Is(err, ErrUnknownState) {
		return nil, err
	}

	m.fail(err)
	out, err = m.write(msg)
	if err != nil {
		if errors.Is(err, ErrUnknownState) {
			return nil, err
		}
		m.logger.Error("fault state could not answer", m.attrs("error", err)...)
		return &tr069.EmptyTurn{}, nil
	}
	return out, nil
}

// atTurnBoundary reports whether a queued transition may be applied before
// msg is read.
func atTurnBoundary(msg tr069.Message) bool {
	switch msg.(type) {
	case *tr069.Inform, *tr069.EmptyTurn:
		return true
	}
	return false
}

func (m *Machine) step(msg tr069.Message) (tr069.Message, error) {
	res, err := m.read(msg)
	if err != nil {
		return nil, err
	}

	if !res.Handled {
		switch v := msg.(type) {
		case *tr069.Inform:
			m.logger.Info("unexpected inform, resetting session", m.attrs()...)
			m.reset()
			if err := m.transition(m.profile.DisconnectedState(), "inform"); err != nil {
				return nil, err
			}
			if res, err = m.read(msg); err != nil {
				return nil, err
			}
			if !res.Handled {
				return nil, fmt.Errorf("%w: %s cannot read Inform", ErrProtocolViolation, m.current)
			}
		case *tr069.Fault:
			return nil, fmt.Errorf("%w: unexpected fault %d in %s: %s",
				ErrDeviceFault, v.FaultCode, m.current, v.FaultString)
		default:
			if _, stable := m.table[m.current].(Stable); stable {
				m.logger.Debug("ignoring message in stable state", m.attrs("kind", msg.Kind())...)
				return &tr069.EmptyTurn{}, nil
			}
			return nil, fmt.Errorf("%w: %s cannot read %s", ErrProtocolViolation, m.current, msg.Kind())
		}
	}

	if res.Next != "" {
		if err := m.transition(res.Next, string(msg.Kind())); err != nil {
			return nil, err
		}
		if res.Reread {
			if err := m.reread(msg); err != nil {
				return nil, err
			}
		}
	}
	return m.write(msg)
}

// reread hands msg to the state just entered.
func (m *Machine) reread(msg tr069.Message) error {
	res, err := m.read(msg)
	if err != nil {
		return err
	}
	if !res.Handled {
		return fmt.Errorf("%w: %s cannot read %s", ErrProtocolViolation, m.current, msg.Kind())
	}
	if res.Next != "" {
		return m.transition(res.Next, string(msg.Kind()))
	}
	return nil
}

func (m *Machine) read(msg tr069.Message) (ReadResult, error) {
	r, ok := m.table[m.current].(Reader)
	if !ok {
		return ReadResult{}, nil
	}
	return r.Read(m, msg)
}

func (m *Machine) write(msg tr069.Message) (tr069.Message, error) {
	for range len(m.table) {
		w, ok := m.table[m.current].(Writer)
		if !ok {
			return nil, fmt.Errorf("%w: %s cannot produce a message", ErrNoCapability, m.current)
		}
		res, err := w.Write(m, msg)
		if err != nil {
			return nil, err
		}
		if res.Next == "" {
			if res.Message == nil {
				return &tr069.EmptyTurn{}, nil
			}
			return res.Message, nil
		}
		reason := "sent"
		if res.Message == nil {
			reason = "nothing to send"
		}
		if err := m.transition(res.Next, reason); err != nil {
			return nil, err
		}
		if res.Message != nil {
			return res.Message, nil
		}
	}
	return nil, fmt.Errorf("%w: no state produced a message from %s", ErrProtocolViolation, m.current)
}

func (m *Machine) transition(next, reason string) error {
	st, ok := m.table[next]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownState, next)
	}
	prev := m.current
	if ex, ok := m.table[prev].(Exiter); ok {
		ex.Exit(m)
	}
	m.stopTimer()
	m.current = next
	if en, ok := st.(Enterer); ok {
		en.Enter(m)
	}

	m.logger.Debug("state transition", m.attrs("from", prev, "to", next, "reason", reason)...)
	m.emit(Event{Kind: EventTransition, From: prev, To: next, Detail: reason})
	return nil
}

// reportFault logs and records a fatal error without changing state.
func (m *Machine) reportFault(err error) {
	err = fatal(err)
	m.lastError = err.Error()
	m.logger.Error("session fault", m.attrs("error", err)...)
	m.emit(Event{Kind: EventFault, From: m.current, Detail: err.Error()})
}

func (m *Machine) fail(err error) {
	m.reportFault(err)
	if terr := m.transition(m.profile.FaultState(), "fault"); terr != nil {
		m.logger.Error("entering fault state failed", m.attrs("error", terr)...)
	}
}

func (m *Machine) anomaly(detail string, args ...any) {
	m.logger.Warn(detail, m.attrs(args...)...)
	e := Event{Kind: EventAnomaly, From: m.current, Detail: detail}
	if len(args) > 1 {
		e.Attrs = make(map[string]any, len(args)/2)
		for i := 0; i+1 < len(args); i += 2 {
			if k, ok := args[i].(string); ok {
				e.Attrs[k] = args[i+1]
			}
		}
	}
	m.emit(e)
}

func (m *Machine) attrs(args ...any) []any {
	return append([]any{"serial", m.serial, "device_type", m.profile.Name(), "state", m.current, "session", m.session}, args...)
}

// Reset discards what is known about the device and returns to the
// disconnected state.
func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	m.firmwareAttempt = ""
	return m.transition(m.profile.DisconnectedState(), "reset")
}

func (m *Machine) reset() {
	m.stopTimer()
	m.observed = deviceconfig.New(m.model)
	m.desired = nil
	m.presence = datamodel.NewPresence()
	m.invasiveApplied = true
	m.pending = ""
	m.inFlight = reconcile.Changes{}
	for _, st := range m.table {
		if r, ok := st.(Resetter); ok {
			r.Reset()
		}
	}
}

// QueueReboot requests a reboot at the next turn boundary.
func (m *Machine) QueueReboot() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := m.profile.RebootState()
	if name == "" {
		return fmt.Errorf("%w: %s cannot reboot on request", ErrNoCapability, m.profile.Name())
	}
	m.pending = name
	m.logger.Info("reboot queued", m.attrs()...)
	m.emit(Event{Kind: EventReboot, From: m.current, To: name, Detail: "queued"})
	return nil
}

// engine returns the reconciliation view of the current stores.
func (m *Machine) engine() *reconcile.Engine {
	return &reconcile.Engine{
		Model:    m.model,
		Observed: m.observed,
		Desired:  m.desired,
		Presence: m.presence,
	}
}

// ensureDesired builds the desired configuration once per reset.
func (m *Machine) ensureDesired() error {
	if m.desired != nil {
		return nil
	}
	var settings fleet.Settings
	if m.settings != nil {
		settings = m.settings.Lookup(m.serial)
	}
	desired, skipped, err := deviceconfig.BuildDesired(m.model, m.presence, settings)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDesired, err)
	}
	if len(skipped) > 0 {
		m.logger.Debug("desired settings skipped", m.attrs("names", skipped)...)
	}
	if err := m.profile.PostProcess(desired, m.observed, settings); err != nil {
		return fmt.Errorf("%w: post-process: %w", ErrInvalidDesired, err)
	}
	m.desired = desired
	m.checkFirmware(settings.FirmwareTarget)
	return nil
}

// checkFirmware reports a device that runs other software than the fleet
// expects. Profiles with a download flow also fetch the target image.
func (m *Machine) checkFirmware(target string) {
	if target == "" {
		return
	}
	running, ok := m.observed.Parameter(datamodel.NameSWVersion)
	if !ok || running == target {
		return
	}
	m.anomaly(AnomalyFirmwareMismatch, "running", running, "target", target)
}

func (m *Machine) startTimer(d time.Duration) {
	m.stopTimer()
	m.timerID++
	id := m.timerID
	m.timer = m.clock.AfterFunc(d, func() {
		m.post(m, &tr069.Timeout{TimerID: id})
	})
}

func (m *Machine) stopTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Machine) onTimeout(t *tr069.Timeout) error {
	if m.timer == nil || t.TimerID != m.timerID {
		m.logger.Debug("ignoring stale timer", m.attrs("timer_id", t.TimerID)...)
		return nil
	}
	m.timer = nil
	h, ok := m.table[m.current].(TimeoutHandler)
	if !ok {
		return nil
	}
	next, err := h.Timeout(m)
	if err != nil {
		m.fail(err)
		return nil
	}
	if next != "" {
		return m.transition(next, "timer")
	}
	return nil
}

// processInform records the parameters carried by an Inform.
func (m *Machine) processInform(inform *tr069.Inform) {
	m.absorb(inform.Parameters)
}

// absorb stores reported values for scalars and for members of instances
// already known in observed. Null values and unknown paths are skipped.
func (m *Machine) absorb(params []tr069.ParameterValue) {
	for _, pv := range params {
		if pv.Null {
			continue
		}
		name, ok := m.model.NameForPath(pv.Name)
		if !ok {
			m.logger.Debug("ignoring unknown path", m.attrs("path", pv.Name)...)
			continue
		}
		d, _ := m.model.Descriptor(name)
		if d.IsObject() {
			continue
		}
		if fam, idx, _, member := m.model.MemberOf(name); member {
			obj := fam.ObjectName(idx)
			if m.observed.HasObject(obj) {
				m.storeMember(obj, name, pv.Value)
			}
			continue
		}
		m.storeScalar(name, pv.Value)
	}
}

func (m *Machine) storeScalar(name datamodel.Name, raw string) {
	v, err := m.model.ToCanonical(name, raw)
	if err == nil {
		err = m.observed.SetParameter(name, v)
	}
	if err != nil {
		m.anomaly("ignoring reported value", "name", name, "value", raw, "error", err)
	}
}

func (m *Machine) storeMember(obj, name datamodel.Name, raw string) {
	v, err := m.model.ToCanonical(name, raw)
	if err == nil {
		err = m.observed.SetObjectParameter(obj, name, v)
	}
	if err != nil {
		m.anomaly("ignoring reported value", "name", name, "value", raw, "error", err)
	}
}

// getRequest builds a GetParameterValues for names.
func (m *Machine) getRequest(names []datamodel.Name) (*tr069.GetParameterValues, error) {
	req := &tr069.GetParameterValues{Names: make([]string, 0, len(names))}
	for _, n := range names {
		path, err := m.model.Path(n)
		if err != nil {
			return nil, err
		}
		req.Names = append(req.Names, path)
	}
	return req, nil
}
