// Package statemachine drives the TR-069 session of one eNodeB.
//
// A Machine owns the observed and desired configuration of a device and a
// table of named states supplied by the device profile. Each inbound
// message is read by the current state, which may move the machine, and
// the state that is current afterwards produces the reply. A state with
// nothing to send passes the turn on to its successor. Timer expiry
// arrives as a Timeout message through the same path.
//
// The generic states in this package cover the session shapes used by the
// supported device types:
//
//	wait_inform -> wait_empty -> get_transient_params -> get_params
//	    -> get_obj_params -> delete_objs / add_objs -> set_params
//	    -> wait_set_params -> check_get_params -> end_session
//
// with optional boot, reboot and firmware download detours. Fatal errors move the machine to
// the profile's fault state and are recorded as fault events.
package statemachine
