package statemachine

import (
	"time"

	"github.com/nerrad567/enodebd/internal/datamodel"
	"github.com/nerrad567/enodebd/internal/deviceconfig"
	"github.com/nerrad567/enodebd/internal/tr069"
)

// Status is a point-in-time view of a machine for the API and persistence.
type Status struct {
	Serial          string                 `json:"serial"`
	DeviceType      string                 `json:"device_type"`
	DeviceID        tr069.DeviceID         `json:"device_id"`
	State           string                 `json:"state"`
	Description     string                 `json:"description"`
	Session         string                 `json:"session,omitempty"`
	InvasiveApplied bool                   `json:"invasive_applied"`
	Pending         string                 `json:"pending,omitempty"`
	InSync          bool                   `json:"in_sync"`
	LastError       string                 `json:"last_error,omitempty"`
	UpdatedAt       time.Time              `json:"updated_at"`
	Observed        deviceconfig.Snapshot  `json:"observed"`
	Desired         *deviceconfig.Snapshot `json:"desired,omitempty"`
	Presence        map[string]bool        `json:"presence,omitempty"`
}

// Status returns a copy of the machine's state.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{
		Serial:          m.serial,
		DeviceType:      m.profile.Name(),
		DeviceID:        m.deviceID,
		State:           m.current,
		Session:         m.session,
		InvasiveApplied: m.invasiveApplied,
		Pending:         m.pending,
		InSync:          m.engine().InSync(),
		LastError:       m.lastError,
		UpdatedAt:       m.updatedAt,
		Observed:        m.observed.Snapshot(),
	}
	if s, ok := m.table[m.current]; ok {
		st.Description = s.Describe()
	}
	if m.desired != nil {
		snap := m.desired.Snapshot()
		st.Desired = &snap
	}
	if p := m.presence.Snapshot(); len(p) > 0 {
		st.Presence = make(map[string]bool, len(p))
		for k, v := range p {
			st.Presence[string(k)] = v
		}
	}
	return st
}

// Observed returns the observed store. Callers must not modify it while
// the machine is handling messages.
func (m *Machine) Observed() *deviceconfig.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.observed
}

// Desired returns the desired store, or nil before it is built.
func (m *Machine) Desired() *deviceconfig.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.desired
}

// Presence returns the optional-parameter presence table.
func (m *Machine) Presence() *datamodel.Presence {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.presence
}

// InvasiveApplied reports whether every invasive change sent so far has
// taken effect.
func (m *Machine) InvasiveApplied() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invasiveApplied
}

// LastError returns the most recent fatal error message.
func (m *Machine) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}
