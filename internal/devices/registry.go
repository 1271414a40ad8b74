package devices

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	sm "github.com/nerrad567/enodebd/internal/statemachine"
	"github.com/nerrad567/enodebd/internal/tr069"
)

// Manufacturer OUIs seen in the Inform DeviceId.
const (
	ouiBaicells = "48BF74"
	ouiSercomm  = "000E8F"
)

// Registry maps device type names to profiles. Profiles and their data
// models are shared by every device of that type and never modified.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]sm.Profile
}

// NewRegistry returns a registry holding the given profiles.
func NewRegistry(profiles ...sm.Profile) *Registry {
	r := &Registry{profiles: make(map[string]sm.Profile, len(profiles))}
	for _, p := range profiles {
		r.profiles[p.Name()] = p
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry of every built-in profile. Data models are
// built on first use; a malformed model panics here, at startup.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(NewBaicellsRTS(), NewBaicellsQAFB(), NewFreedomFiOne())
	})
	return defaultRegistry
}

// Register adds or replaces a profile.
func (r *Registry) Register(p sm.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.Name()] = p
}

// Lookup returns the profile for a device type.
func (r *Registry) Lookup(deviceType string) (sm.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[deviceType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDeviceType, deviceType)
	}
	return p, nil
}

// Names returns the registered device types in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DeviceTypeFor identifies the device type from an Inform. Baicells units
// share an OUI, so their firmware version decides.
func DeviceTypeFor(inform *tr069.Inform) (string, error) {
	if inform == nil {
		return "", ErrUnidentified
	}
	oui := strings.ToUpper(inform.DeviceID.OUI)
	switch oui {
	case ouiSercomm:
		return FreedomFiOne, nil
	case ouiBaicells:
		sw := softwareVersion(inform)
		switch {
		case strings.Contains(sw, "BaiBS_RTS"):
			return BaicellsRTS, nil
		case strings.Contains(sw, "BaiBS_QAFB"):
			return BaicellsQAFB, nil
		}
		return "", fmt.Errorf("%w: Baicells firmware %q", ErrUnidentified, sw)
	}
	return "", fmt.Errorf("%w: OUI %q", ErrUnidentified, inform.DeviceID.OUI)
}

func softwareVersion(inform *tr069.Inform) string {
	for _, p := range inform.Parameters {
		switch p.Name {
		case rtsDevice + "DeviceInfo.SoftwareVersion", qafbDevice + "DeviceInfo.SoftwareVersion":
			return p.Value
		}
	}
	return ""
}
