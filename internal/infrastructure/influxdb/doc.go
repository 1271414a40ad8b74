// Package influxdb writes enodebd session metrics to InfluxDB v2.
//
// Per-device points carry serial and device_type tags. Measurements:
//
//	enodebd_transitions       from, to          count=1
//	enodebd_faults            state             count=1, reason
//	enodebd_count_anomalies   family            count=1, reported, counted
//	enodebd_reboots           phase             count=1
//	enodebd_devices           service           total, in_sync, faulted
//
// Writes are non-blocking and batched by the client library; failures
// are reported through SetOnError.
package influxdb
