package manager

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/nerrad567/enodebd/internal/datamodel"
	"github.com/nerrad567/enodebd/internal/enodeb"
	"github.com/nerrad567/enodebd/internal/infrastructure/mqtt"
	sm "github.com/nerrad567/enodebd/internal/statemachine"
)

// storeTimeout bounds the persistence work done after a turn.
const storeTimeout = 5 * time.Second

// afterTurn drains the machine's events and hands them to the backends.
// The record is stored when something happened, when the device announced
// itself, and on the first turn. Must be called with e.mu held.
func (m *Manager) afterTurn(ctx context.Context, e *entry, inform bool) {
	events := e.machine.DrainEvents()
	if len(events) == 0 && !inform && e.stored {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	// Transitions reference the record, so it is stored first.
	st := e.machine.Status()
	if m.deps.Store != nil {
		rec := recordFromStatus(st, e.lastSeen)
		if err := m.deps.Store.Upsert(ctx, rec); err != nil {
			m.logger.Error("storing enodeb record failed", "serial", st.Serial, "error", err)
		} else {
			e.stored = true
		}
	}

	for _, ev := range events {
		m.handleEvent(ctx, ev)
	}

	m.publish(st.Serial, mqtt.Topics{}.DeviceStatus(st.Serial), NewStatusView(st), true)
	if m.deps.Hub != nil {
		m.deps.Hub.Broadcast(ChannelStatus, NewStatusView(st))
	}
}

func (m *Manager) handleEvent(ctx context.Context, ev sm.Event) {
	switch ev.Kind {
	case sm.EventTransition:
		if m.deps.Store != nil {
			t := &enodeb.Transition{
				Serial:    ev.Serial,
				From:      ev.From,
				To:        ev.To,
				Reason:    ev.Detail,
				SessionID: ev.Session,
				CreatedAt: ev.At,
			}
			if err := m.deps.Store.RecordTransition(ctx, t); err != nil {
				m.logger.Error("recording transition failed", "serial", ev.Serial, "error", err)
			}
		}
		if m.deps.Metrics != nil {
			m.deps.Metrics.WriteTransition(ev.Serial, ev.DeviceType, ev.From, ev.To, ev.At)
		}

	case sm.EventFault:
		if m.deps.Metrics != nil {
			m.deps.Metrics.WriteFault(ev.Serial, ev.DeviceType, ev.From, ev.Detail, ev.At)
		}

	case sm.EventReboot:
		if m.deps.Metrics != nil {
			m.deps.Metrics.WriteReboot(ev.Serial, ev.DeviceType, ev.Detail, ev.At)
		}

	case sm.EventAnomaly:
		if ev.Detail == sm.AnomalyCountMismatch && m.deps.Metrics != nil {
			m.deps.Metrics.WriteCountAnomaly(ev.Serial, ev.DeviceType,
				fmt.Sprint(ev.Attrs["family"]), toInt(ev.Attrs["reported"]), toInt(ev.Attrs["counted"]), ev.At)
		}
	}

	m.publish(ev.Serial, mqtt.Topics{}.DeviceEvents(ev.Serial), ev, false)
	if m.deps.Hub != nil {
		m.deps.Hub.Broadcast(ChannelEvent, ev)
	}
}

// publish skips serials that would change the topic's shape.
func (m *Manager) publish(serial, topic string, v any, retained bool) {
	if m.deps.Publisher == nil {
		return
	}
	if !mqtt.ValidSerial(serial) {
		m.logger.Debug("serial not usable as a topic level", "serial", serial)
		return
	}
	if err := m.deps.Publisher.PublishJSON(topic, v, retained); err != nil {
		m.logger.Debug("mqtt publish failed", "topic", topic, "error", err)
	}
}

// StatusView is the published form of a device status. It leaves out the
// full observed and desired configuration.
type StatusView struct {
	Serial          string    `json:"serial"`
	DeviceType      string    `json:"device_type"`
	State           string    `json:"state"`
	Description     string    `json:"description"`
	Session         string    `json:"session,omitempty"`
	InvasiveApplied bool      `json:"invasive_applied"`
	Pending         string    `json:"pending,omitempty"`
	InSync          bool      `json:"in_sync"`
	LastError       string    `json:"last_error,omitempty"`
	SWVersion       string    `json:"sw_version,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewStatusView summarises st.
func NewStatusView(st sm.Status) StatusView {
	return StatusView{
		Serial:          st.Serial,
		DeviceType:      st.DeviceType,
		State:           st.State,
		Description:     st.Description,
		Session:         st.Session,
		InvasiveApplied: st.InvasiveApplied,
		Pending:         st.Pending,
		InSync:          st.InSync,
		LastError:       st.LastError,
		SWVersion:       swVersion(st),
		UpdatedAt:       st.UpdatedAt,
	}
}

func recordFromStatus(st sm.Status, lastSeen time.Time) *enodeb.Record {
	return &enodeb.Record{
		Serial:           st.Serial,
		DeviceType:       st.DeviceType,
		State:            st.State,
		StateDescription: st.Description,
		SessionID:        st.Session,
		InvasiveApplied:  st.InvasiveApplied,
		LastError:        st.LastError,
		SWVersion:        swVersion(st),
		OUI:              st.DeviceID.OUI,
		Observed:         st.Observed,
		Desired:          st.Desired,
		LastSeen:         lastSeen,
		UpdatedAt:        st.UpdatedAt,
	}
}

func swVersion(st sm.Status) string {
	v, ok := st.Observed.Parameters[string(datamodel.NameSWVersion)]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint32:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}
