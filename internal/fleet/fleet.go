// Package fleet loads the desired eNodeB configuration: fleet-wide defaults
// plus per-serial overrides, read from a YAML file.
//
//	defaults:
//	  parameters:
//	    EARFCNDL: 44590
//	    TAC: 1
//	  objects:
//	    PLMN:
//	      - {plmnid: "00101", enable: true, primary: true, cell_reserved: false}
//	devices:
//	  120200002618AGP0003:
//	    parameters: {PCI: 260}
//	    disable: [AdminState]
//	    firmware_target: BaiBS_RTS_3.1.6
//	    firmware: {url: "https://files.example.net/rts-3.1.6.bin", file_size: 52428800}
package fleet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/url"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings is the desired configuration for one device.
type Settings struct {
	// Parameters maps logical names to desired scalar values.
	Parameters map[string]any `yaml:"parameters"`

	// Objects maps a family name to its desired instances. Each instance
	// maps member keys to values; instance i becomes index i+1.
	Objects map[string][]map[string]any `yaml:"objects"`

	// Enable and Disable are boolean logical names forced true or false.
	Enable  []string `yaml:"enable"`
	Disable []string `yaml:"disable"`

	// FirmwareTarget is the expected software version, reported when the
	// device runs something else.
	FirmwareTarget string `yaml:"firmware_target"`

	// Firmware is where the device fetches FirmwareTarget from. Without a
	// URL a mismatch is only reported.
	Firmware FirmwareImage `yaml:"firmware"`
}

// FirmwareImage locates a firmware file for a Download.
type FirmwareImage struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	FileName string `yaml:"file_name"`
	FileSize int64  `yaml:"file_size"`
}

// Config is the whole fleet file.
type Config struct {
	Defaults Settings            `yaml:"defaults"`
	Devices  map[string]Settings `yaml:"devices"`
}

// Load reads and validates a fleet file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fleet file: %w", err)
	}
	return Parse(data)
}

// Parse decodes fleet YAML. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing fleet file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating fleet file: %w", err)
	}
	return cfg, nil
}

// Validate checks for contradictory settings.
func (c *Config) Validate() error {
	var errs []string
	check := func(scope string, s Settings) {
		for _, n := range s.Enable {
			if slices.Contains(s.Disable, n) {
				errs = append(errs, fmt.Sprintf("%s: %s is both enabled and disabled", scope, n))
			}
		}
		for name := range s.Parameters {
			if strings.TrimSpace(name) == "" {
				errs = append(errs, fmt.Sprintf("%s: empty parameter name", scope))
			}
		}
		if s.Firmware.URL != "" {
			if err := checkFirmwareURL(s.Firmware.URL); err != nil {
				errs = append(errs, fmt.Sprintf("%s: firmware: %v", scope, err))
			}
		}
		if s.Firmware.FileSize < 0 {
			errs = append(errs, fmt.Sprintf("%s: firmware: negative file_size", scope))
		}
	}
	check("defaults", c.Defaults)
	for _, serial := range slices.Sorted(maps.Keys(c.Devices)) {
		if serial == "" {
			errs = append(errs, "devices: empty serial number")
			continue
		}
		check(serial, c.Devices[serial])
		if merged := c.Lookup(serial); merged.Firmware.URL != "" && merged.FirmwareTarget == "" {
			errs = append(errs, fmt.Sprintf("%s: firmware url without firmware_target", serial))
		}
	}
	if c.Defaults.Firmware.URL != "" && c.Defaults.FirmwareTarget == "" {
		errs = append(errs, "defaults: firmware url without firmware_target")
	}
	if len(errs) > 0 {
		return fmt.Errorf("fleet errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Lookup merges the defaults with the settings for serial. Device values
// override defaults; a device's object list replaces the default list for
// that family.
func (c *Config) Lookup(serial string) Settings {
	if c == nil {
		return Settings{}
	}
	out := Settings{
		Parameters:     maps.Clone(c.Defaults.Parameters),
		Objects:        maps.Clone(c.Defaults.Objects),
		Enable:         slices.Clone(c.Defaults.Enable),
		Disable:        slices.Clone(c.Defaults.Disable),
		FirmwareTarget: c.Defaults.FirmwareTarget,
		Firmware:       c.Defaults.Firmware,
	}
	dev, ok := c.Devices[serial]
	if !ok {
		return out
	}
	if out.Parameters == nil {
		out.Parameters = make(map[string]any, len(dev.Parameters))
	}
	maps.Copy(out.Parameters, dev.Parameters)
	if out.Objects == nil {
		out.Objects = make(map[string][]map[string]any, len(dev.Objects))
	}
	maps.Copy(out.Objects, dev.Objects)

	// A device-level enable overrides a default disable and vice versa.
	out.Enable = slices.DeleteFunc(out.Enable, func(n string) bool { return slices.Contains(dev.Disable, n) })
	out.Disable = slices.DeleteFunc(out.Disable, func(n string) bool { return slices.Contains(dev.Enable, n) })
	out.Enable = appendUnique(out.Enable, dev.Enable...)
	out.Disable = appendUnique(out.Disable, dev.Disable...)

	if dev.FirmwareTarget != "" {
		out.FirmwareTarget = dev.FirmwareTarget
	}
	// The image is taken whole so credentials never mix across sources.
	if dev.Firmware.URL != "" {
		out.Firmware = dev.Firmware
	}
	return out
}

// Known reports whether serial has its own entry.
func (c *Config) Known(serial string) bool {
	if c == nil {
		return false
	}
	_, ok := c.Devices[serial]
	return ok
}

func checkFirmwareURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "http", "https", "ftp":
	default:
		return fmt.Errorf("url scheme %q not supported", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

func appendUnique(dst []string, names ...string) []string {
	for _, n := range names {
		if !slices.Contains(dst, n) {
			dst = append(dst, n)
		}
	}
	return dst
}
