// Package trace records every CWMP exchange step to per-device CBOR files.
//
// Each device gets one append-only file under the trace directory named
// after its serial number. Records are CBOR maps with integer keys, written
// back to back; with compression enabled each writer session appends a zstd
// frame, and readers accept the concatenation.
package trace
