package deviceconfig

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/nerrad567/enodebd/internal/datamodel"
	"github.com/nerrad567/enodebd/internal/fleet"
)

// BuildDesired projects fleet settings onto a new desired store.
//
// Parameters the model does not know, cannot represent, or that are
// optional and confirmed absent on this device are skipped and returned.
// Invalid values and too many object instances are errors.
//
// Parameters:
//   - model: data model of the device type
//   - presence: optional-parameter presence of this device
//   - settings: merged fleet settings for the device
//
// Returns:
//   - *Store: the desired configuration
//   - []datamodel.Name: names that were skipped
//   - error: if any value is invalid
func BuildDesired(model *datamodel.Model, presence *datamodel.Presence, settings fleet.Settings) (*Store, []datamodel.Name, error) {
	desired := New(model)
	var skipped []datamodel.Name
	var errs []error

	usable := func(name datamodel.Name) bool {
		d, ok := model.Descriptor(name)
		if !ok || !d.Representable() {
			return false
		}
		if d.Optional && presence != nil {
			if present, known := presence.Lookup(name); known && !present {
				return false
			}
		}
		return true
	}

	for _, key := range slices.Sorted(maps.Keys(settings.Parameters)) {
		name := datamodel.Name(key)
		if !usable(name) {
			skipped = append(skipped, name)
			continue
		}
		if err := desired.SetParameter(name, settings.Parameters[key]); err != nil {
			errs = append(errs, err)
		}
	}

	for _, n := range settings.Enable {
		setFlag(desired, datamodel.Name(n), true, usable, &skipped, &errs)
	}
	for _, n := range settings.Disable {
		setFlag(desired, datamodel.Name(n), false, usable, &skipped, &errs)
	}

	for _, famName := range slices.Sorted(maps.Keys(settings.Objects)) {
		fam, ok := model.Family(famName)
		if !ok {
			skipped = append(skipped, datamodel.Name(famName))
			continue
		}
		instances := settings.Objects[famName]
		if len(instances) > fam.Count {
			errs = append(errs, fmt.Errorf("%w: %s wants %d, device supports %d",
				ErrTooManyInstances, famName, len(instances), fam.Count))
			instances = instances[:fam.Count]
		}
		for i, values := range instances {
			idx := i + 1
			obj := fam.ObjectName(idx)
			if !usable(obj) {
				skipped = append(skipped, obj)
				continue
			}
			if err := desired.AddObject(obj); err != nil {
				errs = append(errs, err)
				continue
			}
			for _, key := range slices.Sorted(maps.Keys(values)) {
				member, ok := fam.MemberName(key, idx)
				if !ok {
					errs = append(errs, fmt.Errorf("%w: %s has no member %q", ErrNotMember, famName, key))
					continue
				}
				if !usable(member) {
					skipped = append(skipped, member)
					continue
				}
				if err := desired.SetObjectParameter(obj, member, values[key]); err != nil {
					errs = append(errs, err)
				}
			}
		}
	}

	if len(errs) > 0 {
		return nil, skipped, errors.Join(errs...)
	}
	return desired, skipped, nil
}

func setFlag(s *Store, name datamodel.Name, v bool, usable func(datamodel.Name) bool, skipped *[]datamodel.Name, errs *[]error) {
	if !usable(name) {
		*skipped = append(*skipped, name)
		return
	}
	if err := s.SetParameter(name, v); err != nil {
		*errs = append(*errs, err)
	}
}
