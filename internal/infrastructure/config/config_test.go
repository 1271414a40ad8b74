package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validJWTSecret = "test-secret-key-at-least-32-chars!"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "enodebd.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
acs:
  fleet_file: "/etc/enodebd/fleet.yaml"
  reboot_timeout: 120
  trace:
    enabled: true
    dir: "/var/lib/enodebd/trace"
database:
  path: "/tmp/test.db"
mqtt:
  enabled: true
  broker:
    host: "broker.lab"
    port: 1883
  qos: 1
api:
  port: 8443
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ACS.FleetFile != "/etc/enodebd/fleet.yaml" {
		t.Errorf("ACS.FleetFile = %q", cfg.ACS.FleetFile)
	}
	if got := cfg.ACS.RebootTimeoutDuration(); got != 2*time.Minute {
		t.Errorf("RebootTimeoutDuration() = %v, want 2m", got)
	}
	// Unset timers keep their defaults.
	if got := cfg.ACS.BootDelayDuration(); got != 10*time.Minute {
		t.Errorf("BootDelayDuration() = %v, want 10m", got)
	}
	if !cfg.ACS.Trace.Enabled {
		t.Error("ACS.Trace.Enabled = false")
	}
	if cfg.MQTT.Broker.Host != "broker.lab" {
		t.Errorf("MQTT.Broker.Host = %q, want broker.lab", cfg.MQTT.Broker.Host)
	}
	if cfg.API.Port != 8443 {
		t.Errorf("API.Port = %d, want 8443", cfg.API.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/enodebd.yaml"); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "invalid: [yaml: content")); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationReportsEveryProblem(t *testing.T) {
	path := writeConfig(t, `
database:
  path: ""
api:
  port: 0
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
	for _, want := range []string{"database.path", "api.port", "security.jwt.secret"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Security.JWT.Secret = validJWTSecret
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(*Config) {}, false},
		{"missing fleet file", func(c *Config) { c.ACS.FleetFile = "" }, true},
		{"zero reboot timeout", func(c *Config) { c.ACS.RebootTimeout = 0 }, true},
		{"trace without dir", func(c *Config) { c.ACS.Trace = TraceConfig{Enabled: true} }, true},
		{"missing database path", func(c *Config) { c.Database.Path = "" }, true},
		{"invalid QoS", func(c *Config) { c.MQTT.QoS = 3 }, true},
		{"invalid port low", func(c *Config) { c.API.Port = 0 }, true},
		{"invalid port high", func(c *Config) { c.API.Port = 70000 }, true},
		{"influx without url", func(c *Config) { c.InfluxDB.Enabled = true }, true},
		{"missing JWT secret", func(c *Config) { c.Security.JWT.Secret = "" }, true},
		{"JWT secret too short", func(c *Config) { c.Security.JWT.Secret = "short" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("ENODEBD_FLEET_FILE", "/srv/fleet.yaml")
	t.Setenv("ENODEBD_TRACE_ENABLED", "true")
	t.Setenv("ENODEBD_DATABASE_PATH", "/custom/path.db")
	t.Setenv("ENODEBD_MQTT_HOST", "mqtt.example.com")
	t.Setenv("ENODEBD_MQTT_USERNAME", "testuser")
	t.Setenv("ENODEBD_MQTT_PASSWORD", "testpass")
	t.Setenv("ENODEBD_API_PORT", "9090")
	t.Setenv("ENODEBD_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("ENODEBD_JWT_SECRET", "jwt-secret")

	applyEnvOverrides(cfg)

	checks := []struct {
		field string
		got   any
		want  any
	}{
		{"ACS.FleetFile", cfg.ACS.FleetFile, "/srv/fleet.yaml"},
		{"ACS.Trace.Enabled", cfg.ACS.Trace.Enabled, true},
		{"Database.Path", cfg.Database.Path, "/custom/path.db"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"API.Port", cfg.API.Port, 9090},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
		{"Security.JWT.Secret", cfg.Security.JWT.Secret, "jwt-secret"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.field, c.got, c.want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}
	if cfg.ACS.RebootTimeout != 300 || cfg.ACS.RebootDelay != 10 || cfg.ACS.BootDelay != 600 {
		t.Errorf("defaultConfig ACS timers = %+v", cfg.ACS)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}
}
