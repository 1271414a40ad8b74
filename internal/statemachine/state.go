package statemachine

import (
	"fmt"
	"slices"

	"github.com/nerrad567/enodebd/internal/tr069"
)

// ReadResult is the outcome of a state reading an inbound message.
type ReadResult struct {
	// Handled is false when the state cannot read the message kind.
	Handled bool
	// Next names the state to transition to, or "" to stay.
	Next string
	// Reread passes the message on to Next, which reads it as well.
	Reread bool
}

// WriteResult is the outbound message of a state and an optional
// transition taken after it is produced. A nil Message with a Next hands
// the turn to Next, which writes in its place.
type WriteResult struct {
	Message tr069.Message
	Next    string
}

// State is one node of a device session.
type State interface {
	Describe() string
}

// Reader states consume inbound messages.
type Reader interface {
	Read(m *Machine, msg tr069.Message) (ReadResult, error)
}

// Writer states produce the outbound message of a turn.
type Writer interface {
	Write(m *Machine, msg tr069.Message) (WriteResult, error)
}

// Enterer states run a hook when they become current, typically to start
// a timer.
type Enterer interface {
	Enter(m *Machine)
}

// Exiter states run a hook when they stop being current. The active timer
// is always stopped on exit.
type Exiter interface {
	Exit(m *Machine)
}

// TimeoutHandler states react to their timer firing. The returned name is
// the next state, or "" to stay.
type TimeoutHandler interface {
	Timeout(m *Machine) (string, error)
}

// Resetter states clear per-device fields when the machine is reset.
type Resetter interface {
	Reset()
}

// Stable states are where a session rests between announcements. An
// unexpected message in a stable state ends the turn quietly.
type Stable interface {
	Stable()
}

// Linker states report the names they may transition to, so a table can be
// checked once at construction.
type Linker interface {
	Targets() []string
}

// Table maps state names to the state instances of one device.
type Table map[string]State

// Validate checks that every transition target of every state exists.
func (t Table) Validate(required ...string) error {
	for _, name := range required {
		if _, ok := t[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownState, name)
		}
	}
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		l, ok := t[name].(Linker)
		if !ok {
			continue
		}
		for _, target := range l.Targets() {
			if target == "" {
				continue
			}
			if _, ok := t[target]; !ok {
				return fmt.Errorf("%w: %q referenced by %q", ErrUnknownState, target, name)
			}
		}
	}
	return nil
}
