package manager

import "errors"

var (
	// ErrUnknownDevice is returned for a serial with no live machine.
	ErrUnknownDevice = errors.New("manager: unknown device")

	// ErrUnknownMachine is returned when Dispatch is given a machine the
	// manager no longer owns, for example after eviction.
	ErrUnknownMachine = errors.New("manager: machine not managed")

	// ErrSerialMismatch is returned when an Inform names another device
	// than the exchange it arrived on.
	ErrSerialMismatch = errors.New("manager: serial mismatch")

	// ErrNoSerial is returned for an Inform without a serial number.
	ErrNoSerial = errors.New("manager: inform has no serial number")

	// ErrUnknownCommand is returned for MQTT commands other than reboot.
	ErrUnknownCommand = errors.New("manager: unknown command")
)
