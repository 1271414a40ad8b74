package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

const testSecret = "test-secret-key-at-least-32-characters-long"

// writeConfig writes a daemon config with MQTT and InfluxDB disabled and
// returns its path. fleetFile may be empty to leave it missing.
func writeConfig(t *testing.T, dbPath, fleetFile string, port int) string {
	t.Helper()
	dir := t.TempDir()
	if fleetFile == "" {
		fleetFile = filepath.Join(dir, "missing-fleet.yaml")
	}
	content := `
acs:
  fleet_file: "` + fleetFile + `"
  trace:
    enabled: true
    dir: "` + filepath.Join(dir, "trace") + `"
    compress: true

database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

mqtt:
  enabled: false

influxdb:
  enabled: false

logging:
  level: error
  format: text

api:
  host: "127.0.0.1"
  port: ` + strconv.Itoa(port) + `

security:
  jwt:
    secret: "` + testSecret + `"
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func writeFleet(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fleet.yaml")
	content := "defaults:\n  parameters:\n    TAC: 1\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing fleet: %v", err)
	}
	return path
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, "/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_MissingFleetFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "enodebd.db")
	path := writeConfig(t, dbPath, "", 8080)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, path); err == nil {
		t.Fatal("run() should fail without a fleet file")
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Errorf("database created before the fleet was loaded: %v", err)
	}
}

func TestRun_StartupAndShutdown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "enodebd.db")
	path := writeConfig(t, dbPath, writeFleet(t), freePort(t))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := run(ctx, path); err != nil {
		t.Fatalf("run() = %v, want clean shutdown", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database not created: %v", err)
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("ENODEBD_CONFIG", "")
	if got := resolveConfigPath(""); got != defaultConfigPath {
		t.Errorf("default = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("ENODEBD_CONFIG", "/etc/enodebd/config.yaml")
	if got := resolveConfigPath(""); got != "/etc/enodebd/config.yaml" {
		t.Errorf("env = %q", got)
	}
	if got := resolveConfigPath("flag.yaml"); got != "flag.yaml" {
		t.Errorf("flag = %q, want flag.yaml", got)
	}
}
