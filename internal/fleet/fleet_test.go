package fleet

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

const sampleFleet = `
defaults:
  parameters:
    EARFCNDL: 44590
    TAC: 1
  objects:
    PLMN:
      - {plmnid: "00101", enable: true}
  disable: [CellReserved]
  firmware_target: BaiBS_RTS_3.1.6
devices:
  SERIAL-A:
    parameters:
      PCI: 260
      TAC: 7
    enable: [CellReserved]
  SERIAL-B:
    objects:
      PLMN:
        - {plmnid: "00101"}
        - {plmnid: "00102"}
    firmware_target: BaiBS_RTS_3.1.7
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet.yaml")
	if err := os.WriteFile(path, []byte(sampleFleet), 0o600); err != nil {
		t.Fatalf("writing fleet file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Known("SERIAL-A") || cfg.Known("SERIAL-Z") {
		t.Error("Known() mismatch")
	}
}

func TestLookupMergesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sampleFleet))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	a := cfg.Lookup("SERIAL-A")
	if a.Parameters["TAC"] != 7 {
		t.Errorf("TAC = %v, want device override 7", a.Parameters["TAC"])
	}
	if a.Parameters["EARFCNDL"] != 44590 {
		t.Errorf("EARFCNDL = %v, want default", a.Parameters["EARFCNDL"])
	}
	if !slices.Contains(a.Enable, "CellReserved") || slices.Contains(a.Disable, "CellReserved") {
		t.Errorf("enable/disable = %v/%v, want device enable to win", a.Enable, a.Disable)
	}

	b := cfg.Lookup("SERIAL-B")
	if got := len(b.Objects["PLMN"]); got != 2 {
		t.Errorf("PLMN instances = %d, want 2", got)
	}
	if b.FirmwareTarget != "BaiBS_RTS_3.1.7" {
		t.Errorf("FirmwareTarget = %q", b.FirmwareTarget)
	}

	unknown := cfg.Lookup("SERIAL-Z")
	if unknown.Parameters["TAC"] != 1 {
		t.Errorf("unknown device TAC = %v, want default", unknown.Parameters["TAC"])
	}

	// Lookup must not alias the defaults.
	a.Parameters["TAC"] = 99
	if cfg.Lookup("SERIAL-Z").Parameters["TAC"] != 1 {
		t.Error("Lookup() result aliases defaults")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", "defaults:\n  paramz: {}\n", "parsing fleet file"},
		{"enable and disable", "defaults:\n  enable: [X]\n  disable: [X]\n", "both enabled and disabled"},
		{"firmware scheme", "defaults:\n  firmware_target: v2\n  firmware: {url: \"file:///tmp/fw.bin\"}\n", "scheme \"file\" not supported"},
		{"firmware host", "defaults:\n  firmware_target: v2\n  firmware: {url: \"https:///fw.bin\"}\n", "has no host"},
		{"firmware size", "defaults:\n  firmware_target: v2\n  firmware: {url: \"https://h/fw.bin\", file_size: -1}\n", "negative file_size"},
		{"firmware without target", "devices:\n  S1:\n    firmware: {url: \"https://h/fw.bin\"}\n", "S1: firmware url without firmware_target"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if s := cfg.Lookup("any"); len(s.Parameters) != 0 {
		t.Errorf("Lookup() = %v, want empty", s)
	}
}

func TestLookupFirmwareImage(t *testing.T) {
	cfg, err := Parse([]byte(`
defaults:
  firmware_target: v1
  firmware: {url: "https://files.example.net/v1.bin", username: acs, password: secret, file_size: 1024}
devices:
  S1:
    firmware_target: v2
    firmware: {url: "ftp://files.example.net/v2.bin", file_name: fw.bin}
  S2:
    parameters: {PCI: 1}
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	s1 := cfg.Lookup("S1")
	want := FirmwareImage{URL: "ftp://files.example.net/v2.bin", FileName: "fw.bin"}
	if s1.FirmwareTarget != "v2" || s1.Firmware != want {
		t.Errorf("Lookup(S1) firmware = %q %+v, want v2 %+v", s1.FirmwareTarget, s1.Firmware, want)
	}

	s2 := cfg.Lookup("S2")
	if s2.FirmwareTarget != "v1" || s2.Firmware.Username != "acs" || s2.Firmware.FileSize != 1024 {
		t.Errorf("Lookup(S2) firmware = %q %+v, want defaults", s2.FirmwareTarget, s2.Firmware)
	}
}
