package reconcile

import (
	"slices"

	"github.com/nerrad567/enodebd/internal/datamodel"
	"github.com/nerrad567/enodebd/internal/deviceconfig"
)

// Engine computes the difference between the observed and desired
// configuration of one device.
//
// Desired may be nil before it has been built; the diff functions then
// report nothing to delete, add or set.
type Engine struct {
	Model    *datamodel.Model
	Observed *deviceconfig.Store
	Desired  *deviceconfig.Store
	Presence *datamodel.Presence
}

// eligible reports whether name may be read from the device: it must be
// representable and, when optional, confirmed present.
func (e *Engine) eligible(d datamodel.Descriptor) bool {
	if !d.Representable() {
		return false
	}
	if d.Optional {
		return e.Presence != nil && e.Presence.Present(d.Name)
	}
	return true
}

// Readable reports whether name can be requested from the device.
func (e *Engine) Readable(name datamodel.Name) bool {
	d, ok := e.Model.Descriptor(name)
	return ok && !d.IsObject() && e.eligible(d)
}

// TransientToFetch returns the readable status parameters of the model.
func (e *Engine) TransientToFetch() []datamodel.Name {
	var names []datamodel.Name
	for _, n := range e.Model.Transient() {
		if e.Readable(n) {
			names = append(names, n)
		}
	}
	return names
}

// ParamsToFetch returns the scalar names whose value is not yet observed.
// With fetchAll every eligible scalar is returned.
func (e *Engine) ParamsToFetch(fetchAll bool) []datamodel.Name {
	var names []datamodel.Name
	for _, n := range e.Model.ScalarNames() {
		d, _ := e.Model.Descriptor(n)
		if !e.eligible(d) {
			continue
		}
		if fetchAll || !e.Observed.HasParameter(n) {
			names = append(names, n)
		}
	}
	return names
}

// ReportedCount returns how many instances of f the device has, as far as
// is known. Families without a count parameter use the supported count.
// The result is clamped to the supported count.
func (e *Engine) ReportedCount(f datamodel.Family) int {
	if f.CountParam == "" {
		return f.Count
	}
	v, ok := e.Observed.Parameter(f.CountParam)
	if !ok {
		return 0
	}
	var n int
	switch x := v.(type) {
	case int64:
		n = int(x)
	case uint64:
		n = int(x)
	}
	return max(0, min(n, f.Count))
}

// ObjectParamsToFetch returns the member names of every reported instance
// that are not yet known in observed. Reported instances missing from
// observed are added to it.
//
// Families without a count parameter are probed across the full supported
// range until they are marked scanned.
func (e *Engine) ObjectParamsToFetch() []datamodel.Name {
	var names []datamodel.Name
	for _, f := range e.Model.Families() {
		if f.CountParam == "" && e.Observed.FamilyScanned(f.Name) {
			for _, obj := range e.Observed.FamilyObjects(f.Name) {
				_, idx, _ := e.Model.ObjectFamily(obj)
				names = append(names, e.unknownMembers(f, obj, idx)...)
			}
			continue
		}
		for i := 1; i <= e.ReportedCount(f); i++ {
			obj := f.ObjectName(i)
			if !e.Observed.HasObject(obj) {
				// ObjectFamily is guaranteed for names built from the model.
				_ = e.Observed.AddObject(obj)
			}
			names = append(names, e.unknownMembers(f, obj, i)...)
		}
	}
	return names
}

func (e *Engine) unknownMembers(f datamodel.Family, obj datamodel.Name, idx int) []datamodel.Name {
	var names []datamodel.Name
	for _, m := range f.MemberNames(idx) {
		d, _ := e.Model.Descriptor(m)
		if !e.eligible(d) {
			continue
		}
		if _, ok := e.Observed.ObjectParameter(obj, m); !ok {
			names = append(names, m)
		}
	}
	return names
}

// ObjectsToDelete returns observed instances that are not desired, in
// family and index order.
func (e *Engine) ObjectsToDelete() []datamodel.Name {
	if e.Desired == nil {
		return nil
	}
	var out []datamodel.Name
	for _, obj := range e.Observed.ObjectNames() {
		if !e.Desired.HasObject(obj) {
			out = append(out, obj)
		}
	}
	return out
}

// ObjectsToAdd returns desired instances that are not observed, in family
// and index order.
func (e *Engine) ObjectsToAdd() []datamodel.Name {
	if e.Desired == nil {
		return nil
	}
	var out []datamodel.Name
	for _, obj := range e.Desired.ObjectNames() {
		if !e.Observed.HasObject(obj) {
			out = append(out, obj)
		}
	}
	return out
}

// ObjectValue is one member value to set on an instance.
type ObjectValue struct {
	Object datamodel.Name
	Name   datamodel.Name
	Value  any
}

// Changes is the set of values to write to the device.
type Changes struct {
	Scalars map[datamodel.Name]any
	Objects []ObjectValue
}

// Empty reports whether there is nothing to set.
func (c Changes) Empty() bool {
	return len(c.Scalars) == 0 && len(c.Objects) == 0
}

// Names returns every changed name: scalars sorted, then object members in
// instance order.
func (c Changes) Names() []datamodel.Name {
	names := make([]datamodel.Name, 0, len(c.Scalars)+len(c.Objects))
	for n := range c.Scalars {
		names = append(names, n)
	}
	slices.Sort(names)
	for _, ov := range c.Objects {
		names = append(names, ov.Name)
	}
	return names
}

// ScalarsToSet returns desired values that differ from or are missing in
// observed, including member values of instances that exist on both sides.
// With excludeInvasive, invasive descriptors are left out.
func (e *Engine) ScalarsToSet(excludeInvasive bool) Changes {
	ch := Changes{Scalars: make(map[datamodel.Name]any)}
	if e.Desired == nil {
		return ch
	}

	skip := func(name datamodel.Name) bool {
		d, ok := e.Model.Descriptor(name)
		if !ok || !d.Representable() {
			return true
		}
		return excludeInvasive && d.Invasive
	}

	for _, n := range e.Desired.ParameterNames() {
		if skip(n) {
			continue
		}
		want, _ := e.Desired.Parameter(n)
		have, ok := e.Observed.Parameter(n)
		if !ok || !datamodel.Equal(want, have) {
			ch.Scalars[n] = want
		}
	}

	for _, obj := range e.Desired.ObjectNames() {
		if !e.Observed.HasObject(obj) {
			continue
		}
		params := e.Desired.ObjectParameters(obj)
		members := make([]datamodel.Name, 0, len(params))
		for n := range params {
			members = append(members, n)
		}
		slices.Sort(members)
		for _, n := range members {
			if skip(n) {
				continue
			}
			have, ok := e.Observed.ObjectParameter(obj, n)
			if !ok || !datamodel.Equal(params[n], have) {
				ch.Objects = append(ch.Objects, ObjectValue{Object: obj, Name: n, Value: params[n]})
			}
		}
	}
	return ch
}

// OptionalParamToProbe returns the next optional, representable parameter
// whose presence is unknown.
func (e *Engine) OptionalParamToProbe() (datamodel.Name, bool) {
	for _, n := range e.Model.Names() {
		d, _ := e.Model.Descriptor(n)
		if !d.Optional || !d.Representable() {
			continue
		}
		if _, known := e.Presence.Lookup(n); !known {
			return n, true
		}
	}
	return "", false
}

// InSync reports whether nothing remains to delete, add or set.
func (e *Engine) InSync() bool {
	return e.Desired != nil &&
		len(e.ObjectsToDelete()) == 0 &&
		len(e.ObjectsToAdd()) == 0 &&
		e.ScalarsToSet(false).Empty()
}
