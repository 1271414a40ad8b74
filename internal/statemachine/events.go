package statemachine

import "time"

// EventKind classifies a machine event.
type EventKind string

// Event kinds.
const (
	EventTransition EventKind = "transition"
	EventFault      EventKind = "fault"
	EventAnomaly    EventKind = "anomaly"
	EventReboot     EventKind = "reboot"
	EventInSync     EventKind = "in_sync"
	EventFirmware   EventKind = "firmware"
)

// Anomaly details the manager counts separately.
const (
	// AnomalyCountMismatch is raised when a device reports a different
	// number of object instances than it returns.
	AnomalyCountMismatch = "instance count mismatch"
	// AnomalyFirmwareMismatch is raised when a device runs other software
	// than its fleet entry names.
	AnomalyFirmwareMismatch = "firmware mismatch"
)

// Event is something the manager persists, publishes or counts. Events are
// collected during a turn and drained after it, outside the machine lock.
type Event struct {
	Kind       EventKind `json:"kind"`
	Serial     string    `json:"serial"`
	DeviceType string    `json:"device_type"`
	Session    string    `json:"session,omitempty"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`

	// Attrs carries the key/value pairs logged with an anomaly.
	Attrs map[string]any `json:"attrs,omitempty"`
}

// maxPendingEvents bounds the event buffer of a machine nobody drains.
const maxPendingEvents = 256

func (m *Machine) emit(e Event) {
	e.Serial = m.serial
	e.DeviceType = m.profile.Name()
	e.Session = m.session
	e.At = m.clock.Now()
	if len(m.events) >= maxPendingEvents {
		m.events = m.events[1:]
	}
	m.events = append(m.events, e)
}

// DrainEvents returns and clears the events collected so far.
func (m *Machine) DrainEvents() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.events
	m.events = nil
	return out
}
