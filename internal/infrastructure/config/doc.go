// Package config loads and validates the enodebd daemon configuration.
//
// Values are resolved in three layers: built-in defaults, the YAML file,
// then ENODEBD_* environment variables. Validate reports every problem in
// one error so an operator can fix the file in a single pass.
//
// Secrets (MQTT password, InfluxDB token, JWT secret) should come from the
// environment, and the file should be mode 0600.
//
// Usage:
//
//	cfg, err := config.Load("configs/enodebd.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	timers := cfg.ACS.RebootTimeoutDuration()
//
// The desired device configuration lives in a separate fleet file, see
// package fleet.
package config
