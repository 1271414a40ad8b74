package manager

import (
	"context"
	"fmt"

	"github.com/nerrad567/enodebd/internal/devices"
	sm "github.com/nerrad567/enodebd/internal/statemachine"
	"github.com/nerrad567/enodebd/internal/tr069"
)

// Exchange runs one turn for serial from a JSON envelope and returns the
// reply as an envelope. An Inform identifies the device type and creates
// the machine on first contact; any other message needs a live machine.
func (m *Manager) Exchange(ctx context.Context, serial string, env tr069.Envelope) (tr069.Envelope, error) {
	msg, err := tr069.Decode(env)
	if err != nil {
		return tr069.Envelope{}, err
	}

	machine, err := m.machineFor(ctx, serial, msg)
	if err != nil {
		return tr069.Envelope{}, err
	}

	out, err := m.Dispatch(ctx, machine, msg)
	if err != nil {
		return tr069.Envelope{}, err
	}
	if out == nil {
		out = &tr069.EmptyTurn{}
	}
	return tr069.Encode(out)
}

func (m *Manager) machineFor(ctx context.Context, serial string, msg tr069.Message) (*sm.Machine, error) {
	inform, ok := msg.(*tr069.Inform)
	if !ok {
		return m.Machine(serial)
	}

	if inform.DeviceID.SerialNumber == "" {
		return nil, ErrNoSerial
	}
	if inform.DeviceID.SerialNumber != serial {
		return nil, fmt.Errorf("%w: inform from %s on %s", ErrSerialMismatch, inform.DeviceID.SerialNumber, serial)
	}
	deviceType, err := devices.DeviceTypeFor(inform)
	if err != nil {
		return nil, err
	}
	return m.LookupOrCreate(ctx, deviceType, serial)
}
