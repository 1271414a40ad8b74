// Package enodeb persists what enodebd knows about each eNodeB between
// restarts: the last session state, the observed and desired parameter
// snapshots, and the history of state transitions.
//
// Records are written by the manager after every turn that changes a
// device's state. Nothing is read back into a running machine; a restarted
// daemon rebuilds its view from the next Inform, and the stored records
// only serve the API until then.
package enodeb
