package statemachine

import (
	"fmt"

	"github.com/nerrad567/enodebd/internal/datamodel"
	"github.com/nerrad567/enodebd/internal/tr069"
)

// DeleteObjects removes surplus instances one request at a time, then moves
// to Add when instances are missing or to Skip otherwise.
type DeleteObjects struct {
	Add  string
	Skip string

	target datamodel.Name
}

func (s *DeleteObjects) Describe() string  { return "Deleting objects" }
func (s *DeleteObjects) Targets() []string { return []string{s.Add, s.Skip} }
func (s *DeleteObjects) Reset()            { s.target = "" }
func (s *DeleteObjects) Enter(*Machine)    { s.target = "" }

func (s *DeleteObjects) Write(m *Machine, _ tr069.Message) (WriteResult, error) {
	pending := m.engine().ObjectsToDelete()
	if len(pending) == 0 {
		return WriteResult{}, fmt.Errorf("%w: no object to delete", ErrProtocolViolation)
	}
	path, err := m.model.Path(pending[0])
	if err != nil {
		return WriteResult{}, err
	}
	s.target = pending[0]
	return WriteResult{Message: &tr069.DeleteObject{ObjectName: path}}, nil
}

func (s *DeleteObjects) Read(m *Machine, msg tr069.Message) (ReadResult, error) {
	if s.target == "" {
		return ReadResult{}, nil
	}
	switch v := msg.(type) {
	case *tr069.DeleteObjectResponse:
		if v.Status != 0 {
			return ReadResult{}, fmt.Errorf("%w: DeleteObject %s status %d", ErrDeviceFault, s.target, v.Status)
		}
	case *tr069.Fault:
		return ReadResult{}, fmt.Errorf("%w: DeleteObject %s: fault %d: %s", ErrDeviceFault, s.target, v.FaultCode, v.FaultString)
	default:
		return ReadResult{}, nil
	}

	if err := m.observed.DeleteObject(s.target); err != nil {
		return ReadResult{}, err
	}
	m.logger.Info("deleted object", m.attrs("object", s.target)...)
	m.syncCount(s.target)
	s.target = ""

	e := m.engine()
	switch {
	case len(e.ObjectsToDelete()) > 0:
		return ReadResult{Handled: true}, nil
	case len(e.ObjectsToAdd()) > 0:
		return ReadResult{Handled: true, Next: s.Add}, nil
	}
	return ReadResult{Handled: true, Next: s.Skip}, nil
}

// AddObjects creates missing instances one request at a time. The request
// targets the parent path; the device chooses the instance index.
type AddObjects struct {
	Done string

	target datamodel.Name
}

func (s *AddObjects) Describe() string  { return "Adding objects" }
func (s *AddObjects) Targets() []string { return []string{s.Done} }
func (s *AddObjects) Reset()            { s.target = "" }
func (s *AddObjects) Enter(*Machine)    { s.target = "" }

func (s *AddObjects) Write(m *Machine, _ tr069.Message) (WriteResult, error) {
	pending := m.engine().ObjectsToAdd()
	if len(pending) == 0 {
		return WriteResult{}, fmt.Errorf("%w: no object to add", ErrProtocolViolation)
	}
	path, err := m.model.Path(pending[0])
	if err != nil {
		return WriteResult{}, err
	}
	s.target = pending[0]
	return WriteResult{Message: &tr069.AddObject{ObjectName: datamodel.StripIndex(path)}}, nil
}

func (s *AddObjects) Read(m *Machine, msg tr069.Message) (ReadResult, error) {
	if s.target == "" {
		return ReadResult{}, nil
	}
	var instance int
	switch v := msg.(type) {
	case *tr069.AddObjectResponse:
		if v.Status != 0 {
			return ReadResult{}, fmt.Errorf("%w: AddObject %s status %d", ErrDeviceFault, s.target, v.Status)
		}
		instance = v.InstanceNumber
	case *tr069.Fault:
		return ReadResult{}, fmt.Errorf("%w: AddObject %s: fault %d: %s", ErrDeviceFault, s.target, v.FaultCode, v.FaultString)
	default:
		return ReadResult{}, nil
	}

	added, err := s.register(m, instance)
	if err != nil {
		return ReadResult{}, err
	}
	m.logger.Info("added object", m.attrs("object", added)...)
	m.syncCount(added)
	s.target = ""

	if len(m.engine().ObjectsToAdd()) > 0 {
		return ReadResult{Handled: true}, nil
	}
	return ReadResult{Handled: true, Next: s.Done}, nil
}

// register records the instance the device created. When the device picks
// a different index than desired, the desired instance moves to it.
func (s *AddObjects) register(m *Machine, instance int) (datamodel.Name, error) {
	fam, want, ok := m.model.ObjectFamily(s.target)
	if !ok {
		return "", fmt.Errorf("%w: %s is not an object instance", ErrProtocolViolation, s.target)
	}
	if instance == 0 {
		instance = want
	}
	if instance < 1 || instance > fam.Count {
		return "", fmt.Errorf("%w: device created %s instance %d, model supports %d",
			ErrProtocolViolation, fam.Name, instance, fam.Count)
	}
	added := fam.ObjectName(instance)
	if instance != want {
		m.anomaly("device chose a different instance index", "wanted", s.target, "got", added)
		if err := m.desired.SwapObjects(fam, want, instance); err != nil {
			return "", fmt.Errorf("%w: %w", ErrProtocolViolation, err)
		}
	}
	if err := m.observed.AddObject(added); err != nil {
		return "", fmt.Errorf("%w: %w", ErrProtocolViolation, err)
	}
	return added, nil
}

// syncCount keeps the observed count parameter in line with the instances
// of the family of obj.
func (m *Machine) syncCount(obj datamodel.Name) {
	fam, _, ok := m.model.ObjectFamily(obj)
	if !ok || fam.CountParam == "" {
		return
	}
	n := len(m.observed.FamilyObjects(fam.Name))
	if err := m.observed.SetParameter(fam.CountParam, n); err != nil {
		m.anomaly("cannot record instance count", "family", fam.Name, "error", err)
	}
}
