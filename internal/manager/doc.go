// Package manager owns the state machines of every connected eNodeB.
//
// The transport hands each inbound CWMP message to the Manager, which finds
// or creates the device's machine, runs the turn under a per-device lock
// and returns the reply. After every turn the machine's events are drained
// and fanned out: transitions and records go to SQLite, status and events
// to MQTT and the WebSocket hub, counters to InfluxDB and every message to
// the protocol trace. Each backend is optional.
//
// Timer events posted by a machine take the same per-device lock as real
// messages, so a device never sees two turns at once.
package manager
