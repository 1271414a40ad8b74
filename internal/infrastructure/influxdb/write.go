package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementTransitions    = "enodebd_transitions"
	MeasurementFaults         = "enodebd_faults"
	MeasurementCountAnomalies = "enodebd_count_anomalies"
	MeasurementReboots        = "enodebd_reboots"
	MeasurementDevices        = "enodebd_devices"
)

func deviceTags(serial, deviceType string) map[string]string {
	return map[string]string{"serial": serial, "device_type": deviceType}
}

func transitionPoint(serial, deviceType, from, to string, at time.Time) *write.Point {
	tags := deviceTags(serial, deviceType)
	tags["from"] = from
	tags["to"] = to
	return write.NewPoint(MeasurementTransitions, tags, map[string]any{"count": 1}, at)
}

func faultPoint(serial, deviceType, state, reason string, at time.Time) *write.Point {
	tags := deviceTags(serial, deviceType)
	tags["state"] = state
	return write.NewPoint(MeasurementFaults, tags, map[string]any{"count": 1, "reason": reason}, at)
}

func countAnomalyPoint(serial, deviceType, family string, reported, counted int, at time.Time) *write.Point {
	tags := deviceTags(serial, deviceType)
	tags["family"] = family
	return write.NewPoint(MeasurementCountAnomalies, tags,
		map[string]any{"count": 1, "reported": reported, "counted": counted}, at)
}

func rebootPoint(serial, deviceType, phase string, at time.Time) *write.Point {
	tags := deviceTags(serial, deviceType)
	tags["phase"] = phase
	return write.NewPoint(MeasurementReboots, tags, map[string]any{"count": 1}, at)
}

// The line protocol encoder leaves a stray comma on untagged points.
func fleetPoint(total, inSync, faulted int, at time.Time) *write.Point {
	return write.NewPoint(MeasurementDevices, map[string]string{"service": "enodebd"},
		map[string]any{"total": total, "in_sync": inSync, "faulted": faulted}, at)
}

func (c *Client) write(p *write.Point) {
	if c.IsConnected() {
		c.writeAPI.WritePoint(p)
	}
}

// WriteTransition records one state change.
func (c *Client) WriteTransition(serial, deviceType, from, to string, at time.Time) {
	c.write(transitionPoint(serial, deviceType, from, to, at))
}

// WriteFault records a session that ended in the fault state.
func (c *Client) WriteFault(serial, deviceType, state, reason string, at time.Time) {
	c.write(faultPoint(serial, deviceType, state, reason, at))
}

// WriteCountAnomaly records a device reporting a different number of
// object instances than it returned.
func (c *Client) WriteCountAnomaly(serial, deviceType, family string, reported, counted int, at time.Time) {
	c.write(countAnomalyPoint(serial, deviceType, family, reported, counted, at))
}

// WriteReboot records a reboot phase: queued, sent or completed.
func (c *Client) WriteReboot(serial, deviceType, phase string, at time.Time) {
	c.write(rebootPoint(serial, deviceType, phase, at))
}

// WriteFleet records fleet-wide gauges.
func (c *Client) WriteFleet(total, inSync, faulted int, at time.Time) {
	c.write(fleetPoint(total, inSync, faulted, at))
}
