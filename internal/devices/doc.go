// Package devices holds the per-vendor eNodeB profiles.
//
// A profile couples a data model (logical parameter names mapped to the
// vendor's TR-181 or TR-098 paths), the state table that drives one device
// session, and a hook that adjusts the desired configuration once it is
// first built. Supported types:
//
//	Baicells RTS    TR-181, invasive changes trigger a reboot, firmware download
//	Baicells QAFB   TR-098, no PLMN count parameter
//	FreedomFi One   TR-181, nothing invasive, deferred set status accepted
//
// DeviceTypeFor picks the profile name from the first Inform of a device.
package devices
