package statemachine

import (
	"fmt"

	"github.com/nerrad567/enodebd/internal/datamodel"
	"github.com/nerrad567/enodebd/internal/reconcile"
	"github.com/nerrad567/enodebd/internal/tr069"
)

// SetValues sends every desired value that differs from the device in a
// single SetParameterValues. With ExcludeInvasive, values that force a
// reboot are held back.
type SetValues struct {
	Done            string
	ExcludeInvasive bool
}

func (s *SetValues) Describe() string  { return "Setting parameter values" }
func (s *SetValues) Targets() []string { return []string{s.Done} }

func (s *SetValues) Write(m *Machine, _ tr069.Message) (WriteResult, error) {
	ch := m.engine().ScalarsToSet(s.ExcludeInvasive)

	req := &tr069.SetParameterValues{}
	invasive := false
	add := func(name datamodel.Name, v any) error {
		d, _ := m.model.Descriptor(name)
		path, err := m.model.Path(name)
		if err != nil {
			return err
		}
		raw, err := m.model.ToDevice(name, v)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDesired, err)
		}
		req.Parameters = append(req.Parameters, tr069.ParameterValue{Name: path, Type: d.Type.XSD(), Value: raw})
		invasive = invasive || d.Invasive
		return nil
	}

	for _, name := range ch.Names()[:len(ch.Scalars)] {
		if err := add(name, ch.Scalars[name]); err != nil {
			return WriteResult{}, err
		}
	}
	for _, ov := range ch.Objects {
		if err := add(ov.Name, ov.Value); err != nil {
			return WriteResult{}, err
		}
	}

	m.paramKey++
	req.ParameterKey = fmt.Sprintf("SetParameter-%d", m.paramKey)
	m.inFlight = ch
	if invasive {
		m.invasiveApplied = false
	}
	m.logger.Info("setting parameters", m.attrs("count", len(req.Parameters), "invasive", invasive)...)
	return WriteResult{Message: req, Next: s.Done}, nil
}

// WaitSet waits for the SetParameterValues result. On success the sent
// values are recorded as observed; pending invasive changes divert to
// ApplyInvasive.
//
// A status of 1 means the device accepted the values but applies them
// later. It is a failure unless AllowNonZeroStatus is set.
type WaitSet struct {
	Done               string
	ApplyInvasive      string
	AllowNonZeroStatus bool
}

func (s *WaitSet) Describe() string  { return "Waiting for the SetParameterValues result" }
func (s *WaitSet) Targets() []string { return []string{s.Done, s.ApplyInvasive} }

func (s *WaitSet) Read(m *Machine, msg tr069.Message) (ReadResult, error) {
	switch v := msg.(type) {
	case *tr069.SetParameterValuesResponse:
		if v.Status != 0 && s.AllowNonZeroStatus {
			m.logger.Info("parameters accepted for later application", m.attrs("status", v.Status)...)
		} else if v.Status != 0 {
			m.inFlight = reconcile.Changes{}
			return ReadResult{}, fmt.Errorf("%w: SetParameterValues status %d", ErrDeviceFault, v.Status)
		}
	case *tr069.Fault:
		for _, pf := range v.SetParameterValuesFaults {
			m.logger.Warn("parameter rejected", m.attrs("path", pf.ParameterName, "fault_code", pf.FaultCode, "fault", pf.FaultString)...)
		}
		m.inFlight = reconcile.Changes{}
		return ReadResult{}, fmt.Errorf("%w: SetParameterValues fault %d: %s", ErrDeviceFault, v.FaultCode, v.FaultString)
	default:
		return ReadResult{}, nil
	}

	for name, val := range m.inFlight.Scalars {
		if err := m.observed.SetParameter(name, val); err != nil {
			m.anomaly("cannot record set value", "name", name, "error", err)
		}
	}
	for _, ov := range m.inFlight.Objects {
		if err := m.observed.SetObjectParameter(ov.Object, ov.Name, ov.Value); err != nil {
			m.anomaly("cannot record set value", "name", ov.Name, "error", err)
		}
	}
	m.inFlight = reconcile.Changes{}

	if !m.invasiveApplied && s.ApplyInvasive != "" {
		return ReadResult{Handled: true, Next: s.ApplyInvasive}, nil
	}
	return ReadResult{Handled: true, Next: s.Done}, nil
}
