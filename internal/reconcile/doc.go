// Package reconcile diffs the desired configuration of an eNodeB against
// what the device reports.
//
// The session states call these functions in a fixed order: fetch missing
// values, fetch object members, delete surplus instances, add missing
// instances, then set values. Deletions always precede additions.
package reconcile
