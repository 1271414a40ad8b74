package devices

import "errors"

var (
	// ErrUnknownDeviceType is returned when no profile is registered under
	// a device type name.
	ErrUnknownDeviceType = errors.New("devices: unknown device type")
	// ErrUnidentified is returned when an Inform matches no known device.
	ErrUnidentified = errors.New("devices: cannot identify device")
)
