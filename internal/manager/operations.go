package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/enodebd/internal/audit"
	"github.com/nerrad567/enodebd/internal/infrastructure/mqtt"
	sm "github.com/nerrad567/enodebd/internal/statemachine"
)

// Reboot queues a reboot of serial for its next turn boundary and audits
// the request. operatorID may be empty for broker-issued commands.
func (m *Manager) Reboot(ctx context.Context, serial, operatorID, source string) error {
	e, err := m.lookup(serial)
	if err != nil {
		return err
	}
	if !m.lockLive(e) {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, serial)
	}
	err = e.machine.QueueReboot()
	if err == nil {
		m.afterTurn(ctx, e, false)
	}
	e.mu.Unlock()
	if err != nil {
		return err
	}

	m.audit(ctx, audit.ActionReboot, serial, operatorID, source, nil)
	return nil
}

// Reset discards what is known about serial and returns its machine to
// the disconnected state. It clears a device parked in the error state.
func (m *Manager) Reset(ctx context.Context, serial, operatorID, source string) error {
	e, err := m.lookup(serial)
	if err != nil {
		return err
	}
	if !m.lockLive(e) {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, serial)
	}
	from := e.machine.State()
	err = e.machine.Reset()
	if err == nil {
		m.afterTurn(ctx, e, false)
	}
	e.mu.Unlock()
	if err != nil {
		return err
	}

	m.audit(ctx, audit.ActionReset, serial, operatorID, source, map[string]any{"from": from})
	return nil
}

func (m *Manager) audit(ctx context.Context, action, serial, operatorID, source string, details map[string]any) {
	if m.deps.Audit == nil {
		return
	}
	entry := &audit.Entry{
		Action:     action,
		EntityType: audit.EntityEnodeb,
		EntityID:   serial,
		UserID:     operatorID,
		Source:     source,
		Details:    details,
	}
	if err := m.deps.Audit.Create(ctx, entry); err != nil {
		m.logger.Warn("audit write failed", "action", action, "serial", serial, "error", err)
	}
}

// commandPayload is the optional body of an MQTT command.
type commandPayload struct {
	RequestedBy string `json:"requested_by"`
}

// HandleCommand is the MQTT handler for enodebd/command/{serial}/{command}.
func (m *Manager) HandleCommand(topic string, payload []byte) error {
	serial, command, err := mqtt.ParseDeviceCommand(topic)
	if err != nil {
		return err
	}

	var p commandPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			m.logger.Debug("ignoring malformed command payload", "topic", topic, "error", err)
		}
	}

	ctx := context.Background()
	switch command {
	case mqtt.CommandReboot:
		err = m.Reboot(ctx, serial, p.RequestedBy, audit.SourceMQTT)
	case mqtt.CommandReset:
		err = m.Reset(ctx, serial, p.RequestedBy, audit.SourceMQTT)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
	if err != nil {
		m.logger.Warn("mqtt command failed", "serial", serial, "command", command, "error", err)
		return err
	}
	m.logger.Info("mqtt command accepted", "serial", serial, "command", command)
	return nil
}

// fleetInterval is how often fleet totals are written.
const fleetInterval = time.Minute

// Run evicts idle machines and writes fleet totals until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(fleetInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle()
			m.writeFleet()
		}
	}
}

// EvictIdle drops machines idle for longer than IdleEviction and returns
// how many were dropped. A device that comes back gets a fresh machine.
func (m *Manager) EvictIdle() int {
	if m.deps.IdleEviction <= 0 {
		return 0
	}
	cutoff := m.clock.Now().Add(-m.deps.IdleEviction)

	m.mu.Lock()
	var evicted []*entry
	for serial, e := range m.entries {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastSeen.Before(cutoff) {
			delete(m.entries, serial)
			evicted = append(evicted, e)
		}
		e.mu.Unlock()
	}
	m.mu.Unlock()

	for _, e := range evicted {
		serial := e.machine.Serial()
		e.mu.Lock()
		if err := e.machine.Reset(); err != nil {
			m.logger.Warn("resetting evicted machine failed", "serial", serial, "error", err)
		}
		e.machine.DrainEvents()
		e.mu.Unlock()
		if m.deps.Tracer != nil {
			if err := m.deps.Tracer.Release(serial); err != nil {
				m.logger.Warn("closing trace failed", "serial", serial, "error", err)
			}
		}
		m.logger.Info("evicted idle device", "serial", serial, "last_seen", e.lastSeen)
	}
	return len(evicted)
}

func (m *Manager) writeFleet() {
	if m.deps.Metrics == nil {
		return
	}
	m.mu.RLock()
	machines := make([]*sm.Machine, 0, len(m.entries))
	for _, e := range m.entries {
		machines = append(machines, e.machine)
	}
	m.mu.RUnlock()

	var inSync, faulted int
	for _, machine := range machines {
		st := machine.Status()
		if st.InSync {
			inSync++
		}
		if st.State == machine.Profile().FaultState() {
			faulted++
		}
	}
	m.deps.Metrics.WriteFleet(len(machines), inSync, faulted, m.clock.Now())
}
