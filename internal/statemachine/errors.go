package statemachine

import "errors"

var (
	// ErrFatal wraps every error that moves a device to its fault state.
	ErrFatal = errors.New("statemachine: fatal")

	// ErrProtocolViolation is returned when a message arrives that the
	// current state cannot read and no recovery rule applies.
	ErrProtocolViolation = errors.New("statemachine: protocol violation")

	// ErrNoCapability is returned when a state is asked to do something it
	// cannot, such as producing a message without being a Writer.
	ErrNoCapability = errors.New("statemachine: state lacks capability")

	// ErrDeviceFault is returned for a Fault or non-zero status in
	// response to a configuration request.
	ErrDeviceFault = errors.New("statemachine: device reported failure")

	// ErrRebootTimeout is returned when no post-reboot Inform arrives in
	// time.
	ErrRebootTimeout = errors.New("statemachine: reboot timed out")

	// ErrUnknownState is returned for a transition to a missing state.
	ErrUnknownState = errors.New("statemachine: unknown state")

	// ErrInvalidDesired is returned when fleet settings cannot be applied
	// to the device's data model.
	ErrInvalidDesired = errors.New("statemachine: invalid desired configuration")

	// ErrNoProfile is returned when a machine is created without a profile.
	ErrNoProfile = errors.New("statemachine: no device profile")
)

// fatalError marks err as fatal while keeping its own sentinel visible to
// errors.Is.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }

func (e *fatalError) Unwrap() []error { return []error{ErrFatal, e.err} }

func fatal(err error) error {
	if err == nil || errors.Is(err, ErrFatal) {
		return err
	}
	return &fatalError{err: err}
}
