package deviceconfig

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/nerrad567/enodebd/internal/datamodel"
)

// Store holds scalar values and object instances for one device, either as
// observed on the device or as desired.
//
// Store is not safe for concurrent use; the owning session machine
// serialises access.
type Store struct {
	model   *datamodel.Model
	scalars map[datamodel.Name]any
	objects map[datamodel.Name]map[datamodel.Name]any
	scanned map[string]bool
}

// New returns an empty store bound to model.
func New(model *datamodel.Model) *Store {
	return &Store{
		model:   model,
		scalars: make(map[datamodel.Name]any),
		objects: make(map[datamodel.Name]map[datamodel.Name]any),
		scanned: make(map[string]bool),
	}
}

// Model returns the data model the store validates against.
func (s *Store) Model() *datamodel.Model { return s.model }

// SetParameter stores a scalar value, coerced to the descriptor type.
// Object names and family members are rejected.
func (s *Store) SetParameter(name datamodel.Name, v any) error {
	d, ok := s.model.Descriptor(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	if d.IsObject() {
		return fmt.Errorf("%w: %s", ErrObjectName, name)
	}
	if _, _, _, member := s.model.MemberOf(name); member {
		return fmt.Errorf("%w: %s", ErrFamilyMember, name)
	}
	c, err := datamodel.Coerce(d.Type, v)
	if err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}
	s.scalars[name] = c
	return nil
}

// Parameter returns a scalar value.
func (s *Store) Parameter(name datamodel.Name) (any, bool) {
	v, ok := s.scalars[name]
	return v, ok
}

// HasParameter reports whether a scalar value is stored.
func (s *Store) HasParameter(name datamodel.Name) bool {
	_, ok := s.scalars[name]
	return ok
}

// DeleteParameter removes a scalar value if present.
func (s *Store) DeleteParameter(name datamodel.Name) {
	delete(s.scalars, name)
}

// ParameterNames returns the stored scalar names, sorted.
func (s *Store) ParameterNames() []datamodel.Name {
	return slices.Sorted(maps.Keys(s.scalars))
}

// AddObject registers an object instance with no parameters.
func (s *Store) AddObject(object datamodel.Name) error {
	if _, _, ok := s.model.ObjectFamily(object); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownObject, object)
	}
	if _, exists := s.objects[object]; exists {
		return fmt.Errorf("%w: %s", ErrObjectExists, object)
	}
	s.objects[object] = make(map[datamodel.Name]any)
	return nil
}

// HasObject reports whether the instance exists.
func (s *Store) HasObject(object datamodel.Name) bool {
	_, ok := s.objects[object]
	return ok
}

// DeleteObject removes an instance and its parameters.
func (s *Store) DeleteObject(object datamodel.Name) error {
	if _, ok := s.objects[object]; !ok {
		return fmt.Errorf("%w: %s", ErrObjectMissing, object)
	}
	delete(s.objects, object)
	return nil
}

// SwapObjects exchanges instances i and j of a family, renaming member
// values to the new index. Either instance may be absent.
func (s *Store) SwapObjects(f datamodel.Family, i, j int) error {
	if i < 1 || j < 1 || i > f.Count || j > f.Count {
		return fmt.Errorf("%w: %s instance %d or %d", ErrUnknownObject, f.Name, i, j)
	}
	a, b := f.ObjectName(i), f.ObjectName(j)
	pa, okA := s.objects[a]
	pb, okB := s.objects[b]
	delete(s.objects, a)
	delete(s.objects, b)
	if okA {
		s.objects[b] = renumber(f, pa, i, j)
	}
	if okB {
		s.objects[a] = renumber(f, pb, j, i)
	}
	return nil
}

func renumber(f datamodel.Family, params map[datamodel.Name]any, from, to int) map[datamodel.Name]any {
	out := make(map[datamodel.Name]any, len(params))
	for _, m := range f.Members {
		old, _ := f.MemberName(m.Key, from)
		if v, ok := params[old]; ok {
			name, _ := f.MemberName(m.Key, to)
			out[name] = v
		}
	}
	return out
}

// ObjectNames returns the instances ordered by family, then index.
func (s *Store) ObjectNames() []datamodel.Name {
	names := slices.Collect(maps.Keys(s.objects))
	slices.SortFunc(names, func(a, b datamodel.Name) int {
		fa, ia, _ := s.model.ObjectFamily(a)
		fb, ib, _ := s.model.ObjectFamily(b)
		if c := cmp.Compare(fa.Name, fb.Name); c != 0 {
			return c
		}
		return cmp.Compare(ia, ib)
	})
	return names
}

// FamilyObjects returns the instances of one family, ordered by index.
func (s *Store) FamilyObjects(family string) []datamodel.Name {
	var out []datamodel.Name
	for _, n := range s.ObjectNames() {
		if f, _, _ := s.model.ObjectFamily(n); f.Name == family {
			out = append(out, n)
		}
	}
	return out
}

// SetObjectParameter stores a member value on an existing instance.
func (s *Store) SetObjectParameter(object, name datamodel.Name, v any) error {
	params, ok := s.objects[object]
	if !ok {
		return fmt.Errorf("%w: %s", ErrObjectMissing, object)
	}
	if err := s.checkMember(object, name); err != nil {
		return err
	}
	d, _ := s.model.Descriptor(name)
	c, err := datamodel.Coerce(d.Type, v)
	if err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}
	params[name] = c
	return nil
}

// ObjectParameter returns a member value of an instance.
func (s *Store) ObjectParameter(object, name datamodel.Name) (any, bool) {
	params, ok := s.objects[object]
	if !ok {
		return nil, false
	}
	v, ok := params[name]
	return v, ok
}

// ObjectParameters returns a copy of an instance's member values.
func (s *Store) ObjectParameters(object datamodel.Name) map[datamodel.Name]any {
	return maps.Clone(s.objects[object])
}

// DeleteObjectParameter removes a member value if present.
func (s *Store) DeleteObjectParameter(object, name datamodel.Name) {
	if params, ok := s.objects[object]; ok {
		delete(params, name)
	}
}

func (s *Store) checkMember(object, name datamodel.Name) error {
	of, oi, _ := s.model.ObjectFamily(object)
	mf, mi, _, ok := s.model.MemberOf(name)
	if !ok || mf.Name != of.Name || mi != oi {
		return fmt.Errorf("%w: %s is not a member of %s", ErrNotMember, name, object)
	}
	return nil
}

// MarkFamilyScanned records that every instance of a family without a
// count parameter has been discovered.
func (s *Store) MarkFamilyScanned(family string) {
	s.scanned[family] = true
}

// FamilyScanned reports whether MarkFamilyScanned was called for family.
func (s *Store) FamilyScanned(family string) bool {
	return s.scanned[family]
}

// Snapshot is a JSON-friendly copy of a store.
type Snapshot struct {
	Parameters map[string]any            `json:"parameters"`
	Objects    map[string]map[string]any `json:"objects"`
}

// Snapshot copies the store contents.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Parameters: make(map[string]any, len(s.scalars)),
		Objects:    make(map[string]map[string]any, len(s.objects)),
	}
	for k, v := range s.scalars {
		snap.Parameters[string(k)] = v
	}
	for obj, params := range s.objects {
		m := make(map[string]any, len(params))
		for k, v := range params {
			m[string(k)] = v
		}
		snap.Objects[string(obj)] = m
	}
	return snap
}
