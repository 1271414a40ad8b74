package statemachine

import (
	"fmt"
	"time"

	"github.com/nerrad567/enodebd/internal/tr069"
)

// SendReboot sends a Reboot. Entered at an Inform, it first acknowledges
// the Inform and sends the Reboot on the following empty turn.
type SendReboot struct {
	Done string
}

func (s *SendReboot) Describe() string  { return "Rebooting the device" }
func (s *SendReboot) Targets() []string { return []string{s.Done} }

func (s *SendReboot) Read(m *Machine, msg tr069.Message) (ReadResult, error) {
	switch v := msg.(type) {
	case *tr069.Inform:
		m.processInform(v)
		return ReadResult{Handled: true}, nil
	case *tr069.EmptyTurn:
		return ReadResult{Handled: true}, nil
	}
	return ReadResult{}, nil
}

func (s *SendReboot) Write(m *Machine, msg tr069.Message) (WriteResult, error) {
	if _, ok := msg.(*tr069.Inform); ok {
		return WriteResult{Message: &tr069.InformResponse{MaxEnvelopes: 1}}, nil
	}
	m.logger.Info("sending reboot", m.attrs()...)
	m.emit(Event{Kind: EventReboot, From: m.current, Detail: "sent"})
	return WriteResult{Message: &tr069.Reboot{}, Next: s.Done}, nil
}

// WaitRebootResponse waits for the device to accept the Reboot.
type WaitRebootResponse struct {
	Done string
}

func (s *WaitRebootResponse) Describe() string  { return "Waiting for the reboot response" }
func (s *WaitRebootResponse) Targets() []string { return []string{s.Done} }

func (s *WaitRebootResponse) Read(_ *Machine, msg tr069.Message) (ReadResult, error) {
	if _, ok := msg.(*tr069.RebootResponse); !ok {
		return ReadResult{}, nil
	}
	return ReadResult{Handled: true}, nil
}

func (s *WaitRebootResponse) Write(*Machine, tr069.Message) (WriteResult, error) {
	return WriteResult{Message: &tr069.EmptyTurn{}, Next: s.Done}, nil
}

// WaitPostRebootInform waits for the Inform a device sends once it is back
// up. Reboot changes count as applied from then on. If the device does not
// return in time the fault is recorded and the machine moves to the fault
// state.
type WaitPostRebootInform struct {
	Done  string
	Limit time.Duration
}

func (s *WaitPostRebootInform) Describe() string  { return "Waiting for the device to come back" }
func (s *WaitPostRebootInform) Stable()           {}
func (s *WaitPostRebootInform) Targets() []string { return []string{s.Done} }

func (s *WaitPostRebootInform) Enter(m *Machine) { m.startTimer(s.Limit) }

func (s *WaitPostRebootInform) Read(m *Machine, msg tr069.Message) (ReadResult, error) {
	inform, ok := msg.(*tr069.Inform)
	if !ok {
		return ReadResult{}, nil
	}
	if !inform.HasEvent(tr069.EventMReboot) {
		return ReadResult{}, fmt.Errorf("%w: Inform after reboot lacks %q", ErrProtocolViolation, tr069.EventMReboot)
	}
	m.processInform(inform)
	m.invasiveApplied = true
	return ReadResult{Handled: true}, nil
}

func (s *WaitPostRebootInform) Write(*Machine, tr069.Message) (WriteResult, error) {
	return WriteResult{Message: &tr069.InformResponse{MaxEnvelopes: 1}, Next: s.Done}, nil
}

func (s *WaitPostRebootInform) Timeout(m *Machine) (string, error) {
	m.reportFault(fmt.Errorf("%w after %s", ErrRebootTimeout, s.Limit))
	return m.profile.FaultState(), nil
}

// RebootDelay gives a rebooted device time to settle. Everything it sends
// is answered with an empty turn until the timer fires.
type RebootDelay struct {
	Done  string
	Delay time.Duration
}

func (s *RebootDelay) Describe() string  { return "Waiting after reboot" }
func (s *RebootDelay) Targets() []string { return []string{s.Done} }
func (s *RebootDelay) Enter(m *Machine)  { m.startTimer(s.Delay) }

func (s *RebootDelay) Read(m *Machine, msg tr069.Message) (ReadResult, error) {
	if inform, ok := msg.(*tr069.Inform); ok {
		m.processInform(inform)
	}
	return ReadResult{Handled: true}, nil
}

func (s *RebootDelay) Write(*Machine, tr069.Message) (WriteResult, error) {
	return WriteResult{Message: &tr069.EmptyTurn{}}, nil
}

func (s *RebootDelay) Timeout(*Machine) (string, error) { return s.Done, nil }
