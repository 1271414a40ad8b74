package datamodel

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Member is one parameter template of a numbered object family.
type Member struct {
	// Key is the family-relative name used in fleet configuration.
	Key string
	// Template is the logical name with one %d for the instance index.
	Template string
}

// Family is a numbered, multi-instance object such as a PLMN list entry.
type Family struct {
	Name string

	// Object is the logical name template of an instance, e.g. "PLMN %d".
	Object  string
	Members []Member

	// Count is the number of instances the device type supports.
	Count int

	// CountParam is the parameter through which the device reports how
	// many instances exist. Empty when the device does not report a count.
	CountParam Name
}

// ObjectName returns the logical name of instance i.
func (f Family) ObjectName(i int) Name {
	return Name(fmt.Sprintf(f.Object, i))
}

// MemberName returns the logical name of member key for instance i.
func (f Family) MemberName(key string, i int) (Name, bool) {
	for _, m := range f.Members {
		if m.Key == key {
			return Name(fmt.Sprintf(m.Template, i)), true
		}
	}
	return "", false
}

// MemberNames returns the ordered member parameter names of instance i.
func (f Family) MemberNames(i int) []Name {
	names := make([]Name, 0, len(f.Members))
	for _, m := range f.Members {
		names = append(names, Name(fmt.Sprintf(m.Template, i)))
	}
	return names
}

type instanceRef struct {
	family int
	index  int
	key    string
}

// Model is the immutable per-device-type catalog of parameters. It is safe
// for concurrent use once built.
type Model struct {
	name        string
	params      map[Name]Descriptor
	order       []Name
	byPath      map[string]Name
	families    []Family
	objects     map[Name]instanceRef
	members     map[Name]instanceRef
	transient   []Name
	toCanonical map[Name]Transform
	toDevice    map[Name]Transform
}

// Name returns the data model's name.
func (m *Model) Name() string { return m.name }

// Descriptor returns the descriptor for a logical name.
func (m *Model) Descriptor(name Name) (Descriptor, bool) {
	d, ok := m.params[name]
	return d, ok
}

// Names returns every logical name in declaration order.
func (m *Model) Names() []Name {
	return slices.Clone(m.order)
}

// ScalarNames returns the non-object names that are not family members, in
// declaration order.
func (m *Model) ScalarNames() []Name {
	out := make([]Name, 0, len(m.order))
	for _, n := range m.order {
		if m.params[n].IsObject() {
			continue
		}
		if _, ok := m.members[n]; ok {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Families returns the object families of the model.
func (m *Model) Families() []Family {
	return slices.Clone(m.families)
}

// Family returns the family with the given name.
func (m *Model) Family(name string) (Family, bool) {
	for _, f := range m.families {
		if f.Name == name {
			return f, true
		}
	}
	return Family{}, false
}

// ObjectFamily resolves an object instance name to its family and index.
func (m *Model) ObjectFamily(object Name) (Family, int, bool) {
	ref, ok := m.objects[object]
	if !ok {
		return Family{}, 0, false
	}
	return m.families[ref.family], ref.index, true
}

// MemberOf resolves a member parameter name to its family, instance index
// and member key.
func (m *Model) MemberOf(name Name) (Family, int, string, bool) {
	ref, ok := m.members[name]
	if !ok {
		return Family{}, 0, "", false
	}
	return m.families[ref.family], ref.index, ref.key, true
}

// NameForPath returns the logical name whose protocol path is path.
func (m *Model) NameForPath(path string) (Name, bool) {
	n, ok := m.byPath[path]
	return n, ok
}

// Path returns the protocol path for name.
func (m *Model) Path(name Name) (string, error) {
	d, ok := m.params[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownName, name)
	}
	if !d.Representable() {
		return "", fmt.Errorf("%w: %s", ErrNotRepresentable, name)
	}
	return d.Path, nil
}

// Transient returns the status parameters read at the start of a session.
func (m *Model) Transient() []Name {
	return slices.Clone(m.transient)
}

// ToCanonical converts a device-reported value to its canonical form.
func (m *Model) ToCanonical(name Name, raw string) (any, error) {
	d, ok := m.params[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownName, name)
	}
	var v any = raw
	if fn, ok := m.toCanonical[name]; ok {
		out, err := fn(raw)
		if err != nil {
			return nil, fmt.Errorf("transforming %s: %w", name, err)
		}
		v = out
	}
	return Coerce(d.Type, v)
}

// ToDevice converts a canonical value to the string sent to the device.
func (m *Model) ToDevice(name Name, v any) (string, error) {
	d, ok := m.params[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownName, name)
	}
	if fn, ok := m.toDevice[name]; ok {
		out, err := fn(v)
		if err != nil {
			return "", fmt.Errorf("transforming %s: %w", name, err)
		}
		v = out
	}
	return Format(d.Type, v)
}

// StripIndex removes the trailing instance index from an object path, so
// "X.PLMNList.3." becomes "X.PLMNList.". AddObject targets the parent.
func StripIndex(path string) string {
	trimmed := strings.TrimSuffix(path, ".")
	i := strings.LastIndex(trimmed, ".")
	if i < 0 {
		return path
	}
	if _, err := strconv.Atoi(trimmed[i+1:]); err != nil {
		return path
	}
	return trimmed[:i+1]
}

// Builder assembles a Model and validates it once.
type Builder struct {
	m    *Model
	errs []error
}

// NewBuilder starts a data model with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{m: &Model{
		name:        name,
		params:      make(map[Name]Descriptor),
		byPath:      make(map[string]Name),
		objects:     make(map[Name]instanceRef),
		members:     make(map[Name]instanceRef),
		toCanonical: make(map[Name]Transform),
		toDevice:    make(map[Name]Transform),
	}}
}

// Add registers a descriptor. Duplicate names or paths are build errors.
func (b *Builder) Add(d Descriptor) *Builder {
	if d.Name == "" {
		b.errs = append(b.errs, errors.New("descriptor with empty name"))
		return b
	}
	if _, dup := b.m.params[d.Name]; dup {
		b.errs = append(b.errs, fmt.Errorf("duplicate name %s", d.Name))
		return b
	}
	if d.Representable() {
		if prev, dup := b.m.byPath[d.Path]; dup {
			b.errs = append(b.errs, fmt.Errorf("path %s used by %s and %s", d.Path, prev, d.Name))
			return b
		}
		b.m.byPath[d.Path] = d.Name
	}
	b.m.params[d.Name] = d
	b.m.order = append(b.m.order, d.Name)
	return b
}

// Family registers a numbered object family. Its object and member
// descriptors must be added separately, for every index 1..Count.
func (b *Builder) Family(f Family) *Builder {
	b.m.families = append(b.m.families, f)
	return b
}

// Transient marks status parameters.
func (b *Builder) Transient(names ...Name) *Builder {
	b.m.transient = append(b.m.transient, names...)
	return b
}

// CanonicalTransform registers a device → canonical transform for name.
func (b *Builder) CanonicalTransform(name Name, fn Transform) *Builder {
	b.m.toCanonical[name] = fn
	return b
}

// DeviceTransform registers a canonical → device transform for name.
func (b *Builder) DeviceTransform(name Name, fn Transform) *Builder {
	b.m.toDevice[name] = fn
	return b
}

// Build validates the catalog and returns the model.
func (b *Builder) Build() (*Model, error) {
	errs := slices.Clone(b.errs)
	m := b.m

	for fi, f := range m.families {
		if f.Count < 0 {
			errs = append(errs, fmt.Errorf("family %s: negative count", f.Name))
		}
		if f.CountParam != "" {
			if d, ok := m.params[f.CountParam]; !ok || d.IsObject() {
				errs = append(errs, fmt.Errorf("family %s: count parameter %s missing", f.Name, f.CountParam))
			}
		}
		for i := 1; i <= f.Count; i++ {
			obj := f.ObjectName(i)
			if d, ok := m.params[obj]; !ok || !d.IsObject() {
				errs = append(errs, fmt.Errorf("family %s: object %s missing", f.Name, obj))
			}
			m.objects[obj] = instanceRef{family: fi, index: i}
			for _, mem := range f.Members {
				name := Name(fmt.Sprintf(mem.Template, i))
				d, ok := m.params[name]
				if !ok {
					errs = append(errs, fmt.Errorf("family %s: member %s missing", f.Name, name))
					continue
				}
				if d.IsObject() {
					errs = append(errs, fmt.Errorf("family %s: member %s is an object", f.Name, name))
				}
				m.members[name] = instanceRef{family: fi, index: i, key: mem.Key}
			}
		}
	}

	for _, n := range m.transient {
		if d, ok := m.params[n]; !ok || d.IsObject() {
			errs = append(errs, fmt.Errorf("transient parameter %s missing", n))
		}
	}
	for n := range m.toCanonical {
		if _, ok := m.params[n]; !ok {
			errs = append(errs, fmt.Errorf("transform for unknown name %s", n))
		}
	}
	for n := range m.toDevice {
		if _, ok := m.params[n]; !ok {
			errs = append(errs, fmt.Errorf("transform for unknown name %s", n))
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidModel, m.name, errors.Join(errs...))
	}
	return m, nil
}

// MustBuild is Build for package-level catalogs; a broken catalog is a
// programming error.
func (b *Builder) MustBuild() *Model {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}
