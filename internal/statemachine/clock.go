package statemachine

import "time"

// Clock abstracts time for state timers. Production code uses RealClock;
// tests inject a fake that fires timers on demand.
type Clock interface {
	Now() time.Time

	// AfterFunc calls f in its own goroutine after d. Implementations must
	// never call f synchronously from AfterFunc.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable pending callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the
	// call stopped the timer.
	Stop() bool
}

// RealClock is the wall clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// AfterFunc wraps time.AfterFunc.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Timers holds the state timer durations shared by all profiles.
type Timers struct {
	// BootDelay holds configuration after a device boots while it runs
	// its radio environment scan.
	BootDelay time.Duration
	// RebootTimeout bounds the wait for the post-reboot Inform.
	RebootTimeout time.Duration
	// RebootDelay is the settle time after a reboot completes.
	RebootDelay time.Duration
}

// DefaultTimers returns the standard durations.
func DefaultTimers() Timers {
	return Timers{
		BootDelay:     600 * time.Second,
		RebootTimeout: 300 * time.Second,
		RebootDelay:   10 * time.Second,
	}
}
