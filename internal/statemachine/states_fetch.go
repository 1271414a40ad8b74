package statemachine

import (
	"fmt"

	"github.com/nerrad567/enodebd/internal/datamodel"
	"github.com/nerrad567/enodebd/internal/reconcile"
	"github.com/nerrad567/enodebd/internal/tr069"
)

// ProbeOptional asks for one optional parameter at a time. A Fault marks it
// absent, a value marks it present. It loops until none is unresolved.
type ProbeOptional struct {
	Done string

	probing datamodel.Name
}

func (s *ProbeOptional) Describe() string  { return "Checking for optional parameters" }
func (s *ProbeOptional) Targets() []string { return []string{s.Done} }
func (s *ProbeOptional) Reset()            { s.probing = "" }
func (s *ProbeOptional) Enter(*Machine)    { s.probing = "" }

func (s *ProbeOptional) Write(m *Machine, _ tr069.Message) (WriteResult, error) {
	name, ok := m.engine().OptionalParamToProbe()
	if !ok {
		return WriteResult{}, fmt.Errorf("%w: no optional parameter to probe", ErrProtocolViolation)
	}
	req, err := m.getRequest([]datamodel.Name{name})
	if err != nil {
		return WriteResult{}, err
	}
	s.probing = name
	return WriteResult{Message: req}, nil
}

func (s *ProbeOptional) Read(m *Machine, msg tr069.Message) (ReadResult, error) {
	if s.probing == "" {
		return ReadResult{}, nil
	}
	switch v := msg.(type) {
	case *tr069.Fault:
		m.logger.Debug("optional parameter absent", m.attrs("name", s.probing, "fault_code", v.FaultCode)...)
		m.presence.Set(s.probing, false)
	case *tr069.GetParameterValuesResponse:
		path, _ := m.model.Path(s.probing)
		present := false
		for _, pv := range v.Parameters {
			if pv.Name == path && !pv.Null {
				present = true
			}
		}
		m.presence.Set(s.probing, present)
		m.absorb(v.Parameters)
	default:
		return ReadResult{}, nil
	}
	s.probing = ""

	if _, more := m.engine().OptionalParamToProbe(); more {
		return ReadResult{Handled: true}, nil
	}
	return ReadResult{Handled: true, Next: s.Done}, nil
}

// getRound tracks a single request/response round trip of a combined
// state that may also open the turn with an empty message.
type getRound struct {
	sent bool
}

func (g *getRound) Reset()         { g.sent = false }
func (g *getRound) Enter(*Machine) { g.sent = false }

// accept classifies msg: an opening empty turn, the awaited response, or
// neither.
func (g *getRound) accept(msg tr069.Message) (opening bool, resp *tr069.GetParameterValuesResponse) {
	switch v := msg.(type) {
	case *tr069.EmptyTurn:
		return !g.sent, nil
	case *tr069.GetParameterValuesResponse:
		if g.sent {
			g.sent = false
			return false, v
		}
	}
	return false, nil
}

// GetTransient reads the status parameters of the device each session,
// then branches to the first step that has work.
type GetTransient struct {
	getRound

	Get       string
	GetObject string
	Delete    string
	Add       string
	Set       string
	Skip      string
}

func (s *GetTransient) Describe() string { return "Getting transient read-only parameters" }
func (s *GetTransient) Targets() []string {
	return []string{s.Get, s.GetObject, s.Delete, s.Add, s.Set, s.Skip}
}

func (s *GetTransient) Read(m *Machine, msg tr069.Message) (ReadResult, error) {
	opening, resp := s.accept(msg)
	if opening {
		return ReadResult{Handled: true}, nil
	}
	if resp == nil {
		return ReadResult{}, nil
	}
	m.absorb(resp.Parameters)
	return ReadResult{Handled: true, Next: s.branch(m)}, nil
}

func (s *GetTransient) Write(m *Machine, _ tr069.Message) (WriteResult, error) {
	names := m.engine().TransientToFetch()
	if len(names) == 0 {
		return WriteResult{Next: s.branch(m)}, nil
	}
	req, err := m.getRequest(names)
	if err != nil {
		return WriteResult{}, err
	}
	s.sent = true
	return WriteResult{Message: req}, nil
}

func (s *GetTransient) branch(m *Machine) string {
	e := m.engine()
	switch {
	case s.Get != "" && len(e.ParamsToFetch(false)) > 0:
		return s.Get
	case s.GetObject != "" && (m.desired == nil || len(e.ObjectParamsToFetch()) > 0):
		return s.GetObject
	case s.Delete != "" && len(e.ObjectsToDelete()) > 0:
		return s.Delete
	case s.Add != "" && len(e.ObjectsToAdd()) > 0:
		return s.Add
	case s.Set != "" && !e.ScalarsToSet(false).Empty():
		return s.Set
	}
	return s.Skip
}

// GetScalarValues fetches non-object parameters in one round trip. With
// FetchAll it re-reads every readable parameter.
type GetScalarValues struct {
	getRound

	Done     string
	FetchAll bool
}

func (s *GetScalarValues) Describe() string {
	if s.FetchAll {
		return "Re-reading all parameters"
	}
	return "Getting non-object parameters"
}

func (s *GetScalarValues) Targets() []string { return []string{s.Done} }

func (s *GetScalarValues) Read(m *Machine, msg tr069.Message) (ReadResult, error) {
	opening, resp := s.accept(msg)
	if opening {
		return ReadResult{Handled: true}, nil
	}
	if resp == nil {
		return ReadResult{}, nil
	}
	m.absorb(resp.Parameters)
	return ReadResult{Handled: true, Next: s.Done}, nil
}

func (s *GetScalarValues) Write(m *Machine, _ tr069.Message) (WriteResult, error) {
	names := m.engine().ParamsToFetch(s.FetchAll)
	if len(names) == 0 {
		return WriteResult{Next: s.Done}, nil
	}
	req, err := m.getRequest(names)
	if err != nil {
		return WriteResult{}, err
	}
	s.sent = true
	return WriteResult{Message: req}, nil
}

// GetObjectValues fetches members of numbered object instances, counts the
// instances that really exist, repairs a wrong reported count, builds the
// desired configuration and branches to delete, add, set or skip.
type GetObjectValues struct {
	getRound

	Delete string
	Add    string
	Set    string
	Skip   string

	requested map[datamodel.Name]bool
}

func (s *GetObjectValues) Describe() string { return "Getting object parameters" }
func (s *GetObjectValues) Targets() []string {
	return []string{s.Delete, s.Add, s.Set, s.Skip}
}

// Write skips the round trip when every member is already known and
// branches straight away.
func (s *GetObjectValues) Write(m *Machine, _ tr069.Message) (WriteResult, error) {
	names := m.engine().ObjectParamsToFetch()
	if len(names) == 0 {
		s.requested = nil
		next, err := s.settle(m, nil)
		if err != nil {
			return WriteResult{}, err
		}
		return WriteResult{Next: next}, nil
	}
	req, err := m.getRequest(names)
	if err != nil {
		return WriteResult{}, err
	}
	s.requested = make(map[datamodel.Name]bool, len(names))
	for _, n := range names {
		s.requested[n] = true
	}
	s.sent = true
	return WriteResult{Message: req}, nil
}

func (s *GetObjectValues) Read(m *Machine, msg tr069.Message) (ReadResult, error) {
	opening, resp := s.accept(msg)
	if opening {
		return ReadResult{Handled: true}, nil
	}
	if resp == nil {
		return ReadResult{}, nil
	}

	values := make(map[string]tr069.ParameterValue, len(resp.Parameters))
	for _, pv := range resp.Parameters {
		values[pv.Name] = pv
	}
	next, err := s.settle(m, values)
	if err != nil {
		return ReadResult{}, err
	}
	return ReadResult{Handled: true, Next: next}, nil
}

// settle counts the instances, builds desired and picks the next step.
func (s *GetObjectValues) settle(m *Machine, values map[string]tr069.ParameterValue) (string, error) {
	for _, f := range m.model.Families() {
		s.countInstances(m, f, values)
	}
	if err := m.ensureDesired(); err != nil {
		return "", err
	}
	return s.branch(m.engine()), nil
}

func (s *GetObjectValues) countInstances(m *Machine, f datamodel.Family, values map[string]tr069.ParameterValue) {
	counted := 0
	for i := 1; i <= f.Count; i++ {
		obj := f.ObjectName(i)
		members := f.MemberNames(i)

		asked, exists := false, false
		for _, name := range members {
			if !s.requested[name] {
				continue
			}
			asked = true
			path, _ := m.model.Path(name)
			if pv, ok := values[path]; ok && !pv.Null {
				exists = true
			}
		}
		if !asked {
			exists = m.observed.HasObject(obj)
		}

		if !exists {
			if m.observed.HasObject(obj) {
				_ = m.observed.DeleteObject(obj)
			}
			continue
		}
		counted++
		if !m.observed.HasObject(obj) {
			if err := m.observed.AddObject(obj); err != nil {
				m.anomaly("cannot record instance", "object", obj, "error", err)
				continue
			}
		}
		for _, name := range members {
			path, _ := m.model.Path(name)
			if pv, ok := values[path]; ok && !pv.Null {
				m.storeMember(obj, name, pv.Value)
			}
		}
	}

	if f.CountParam == "" {
		m.observed.MarkFamilyScanned(f.Name)
		return
	}
	if reported, ok := m.observed.Parameter(f.CountParam); ok && !datamodel.Equal(reported, countValue(reported, counted)) {
		m.anomaly(AnomalyCountMismatch, "family", f.Name, "reported", reported, "counted", counted)
	}
	if err := m.observed.SetParameter(f.CountParam, counted); err != nil {
		m.anomaly("cannot record instance count", "family", f.Name, "error", err)
	}
}

// countValue converts n to the canonical type of reported.
func countValue(reported any, n int) any {
	if _, ok := reported.(uint64); ok {
		return uint64(n)
	}
	return int64(n)
}

func (s *GetObjectValues) branch(e *reconcile.Engine) string {
	switch {
	case len(e.ObjectsToDelete()) > 0:
		return s.Delete
	case len(e.ObjectsToAdd()) > 0:
		return s.Add
	case !e.ScalarsToSet(false).Empty():
		return s.Set
	}
	return s.Skip
}
