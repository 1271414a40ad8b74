package statemachine

import (
	"time"

	"github.com/nerrad567/enodebd/internal/tr069"
)

// WaitInform waits for the Inform that opens a session and acknowledges
// it. A "1 BOOT" Inform moves to Boot without an acknowledgement when Boot
// is set.
type WaitInform struct {
	Done string
	Boot string
}

func (s *WaitInform) Describe() string  { return "Waiting for an Inform" }
func (s *WaitInform) Stable()           {}
func (s *WaitInform) Targets() []string { return []string{s.Done, s.Boot} }

func (s *WaitInform) Read(m *Machine, msg tr069.Message) (ReadResult, error) {
	inform, ok := msg.(*tr069.Inform)
	if !ok {
		return ReadResult{}, nil
	}
	m.processInform(inform)
	if s.Boot != "" && inform.HasEvent(tr069.EventBoot) {
		return ReadResult{Handled: true, Next: s.Boot}, nil
	}
	return ReadResult{Handled: true}, nil
}

func (s *WaitInform) Write(*Machine, tr069.Message) (WriteResult, error) {
	return WriteResult{Message: &tr069.InformResponse{MaxEnvelopes: 1}, Next: s.Done}, nil
}

// GetRPCMethods answers a device that asks for the ACS methods after its
// Inform. An empty turn instead means the device skipped the request.
type GetRPCMethods struct {
	Done string
	Skip string
}

func (s *GetRPCMethods) Describe() string  { return "Waiting for GetRPCMethods" }
func (s *GetRPCMethods) Targets() []string { return []string{s.Done, s.Skip} }

func (s *GetRPCMethods) Read(_ *Machine, msg tr069.Message) (ReadResult, error) {
	switch msg.(type) {
	case *tr069.EmptyTurn:
		return ReadResult{Handled: true, Next: s.Skip}, nil
	case *tr069.GetRPCMethods:
		return ReadResult{Handled: true}, nil
	}
	return ReadResult{}, nil
}

func (s *GetRPCMethods) Write(*Machine, tr069.Message) (WriteResult, error) {
	methods := append([]string(nil), tr069.ACSMethods...)
	return WriteResult{Message: &tr069.GetRPCMethodsResponse{Methods: methods}, Next: s.Done}, nil
}

// WaitEmpty waits for the empty turn a device sends after the Inform
// acknowledgement. Unresolved optional parameters divert to Probe.
type WaitEmpty struct {
	Done  string
	Probe string
}

func (s *WaitEmpty) Describe() string  { return "Waiting for an empty message" }
func (s *WaitEmpty) Targets() []string { return []string{s.Done, s.Probe} }

func (s *WaitEmpty) Read(m *Machine, msg tr069.Message) (ReadResult, error) {
	if _, ok := msg.(*tr069.EmptyTurn); !ok {
		return ReadResult{}, nil
	}
	if s.Probe != "" {
		if _, unresolved := m.engine().OptionalParamToProbe(); unresolved {
			return ReadResult{Handled: true, Next: s.Probe}, nil
		}
	}
	return ReadResult{Handled: true, Next: s.Done}, nil
}

// BootDelay holds configuration for a fixed time after a device boots.
// Informs are absorbed and answered with an empty turn until the timer
// fires.
type BootDelay struct {
	Done  string
	Delay time.Duration
}

func (s *BootDelay) Describe() string  { return "Waiting for the radio environment scan after boot" }
func (s *BootDelay) Targets() []string { return []string{s.Done} }
func (s *BootDelay) Enter(m *Machine)  { m.startTimer(s.Delay) }

func (s *BootDelay) Read(m *Machine, msg tr069.Message) (ReadResult, error) {
	inform, ok := msg.(*tr069.Inform)
	if !ok {
		return ReadResult{}, nil
	}
	m.processInform(inform)
	return ReadResult{Handled: true}, nil
}

func (s *BootDelay) Write(*Machine, tr069.Message) (WriteResult, error) {
	return WriteResult{Message: &tr069.EmptyTurn{}}, nil
}

func (s *BootDelay) Timeout(*Machine) (string, error) { return s.Done, nil }

// EndSession closes a session by echoing empty turns.
type EndSession struct{}

func (s *EndSession) Describe() string { return "Completed provisioning" }
func (s *EndSession) Stable()          {}

func (s *EndSession) Enter(m *Machine) {
	if m.engine().InSync() {
		m.emit(Event{Kind: EventInSync, From: m.current})
	}
}

func (s *EndSession) Read(_ *Machine, msg tr069.Message) (ReadResult, error) {
	if _, ok := msg.(*tr069.EmptyTurn); !ok {
		return ReadResult{}, nil
	}
	return ReadResult{Handled: true}, nil
}

func (s *EndSession) Write(*Machine, tr069.Message) (WriteResult, error) {
	return WriteResult{Message: &tr069.EmptyTurn{}}, nil
}

// Error is the fault state. It reads everything and answers with empty
// turns. With a Target, the next Inform moves the device there and is read
// and answered by that state, so a boot Inform still gets its boot handling.
type Error struct {
	Target string
}

func (s *Error) Describe() string {
	if s.Target == "" {
		return "Error: awaiting operator action"
	}
	return "Error: awaiting an Inform"
}

func (s *Error) Targets() []string { return []string{s.Target} }

func (s *Error) Read(_ *Machine, msg tr069.Message) (ReadResult, error) {
	if _, ok := msg.(*tr069.Inform); ok && s.Target != "" {
		return ReadResult{Handled: true, Next: s.Target, Reread: true}, nil
	}
	return ReadResult{Handled: true}, nil
}

func (s *Error) Write(*Machine, tr069.Message) (WriteResult, error) {
	return WriteResult{Message: &tr069.EmptyTurn{}}, nil
}
