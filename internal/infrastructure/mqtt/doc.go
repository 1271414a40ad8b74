// Package mqtt connects enodebd to an MQTT broker.
//
// The daemon publishes a retained status document per device, a stream of
// session events, and its own online/offline status (with a Last Will so a
// crash is visible). It subscribes to per-device command topics so reboot
// requests can arrive over MQTT as well as HTTP.
//
// Topic layout:
//
//	enodebd/system/status               retained daemon status
//	enodebd/status/{serial}             retained device status
//	enodebd/events/{serial}             transitions, faults, anomalies
//	enodebd/command/{serial}/{command}  inbound commands, e.g. reboot
//
// Subscriptions are remembered and restored after every reconnect.
package mqtt
