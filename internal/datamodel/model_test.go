package datamodel

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

const testRoot = "Device.Services.FAPService.1.CellConfig.LTE.EPC."

func testBuilder(count int) *Builder {
	b := NewBuilder("test").
		Add(Descriptor{Name: NameEARFCNDL, Path: "Device.X.EARFCNDL", Type: TypeUnsignedInt, Invasive: true}).
		Add(Descriptor{Name: NamePCI, Path: "Device.X.PCI", Type: TypeUnsignedInt}).
		Add(Descriptor{Name: NameNumPLMNs, Path: testRoot + "PLMNListNumberOfEntries", Type: TypeInt}).
		Add(Descriptor{Name: NameGPSLat, Path: "Device.X.GPSLat", Type: TypeString, Optional: true})
	for i := 1; i <= count; i++ {
		prefix := fmt.Sprintf("%sPLMNList.%d.", testRoot, i)
		b.Add(Descriptor{Name: Name(fmt.Sprintf(PLMNObject, i)), Path: prefix, Type: TypeObject})
		b.Add(Descriptor{Name: Name(fmt.Sprintf(PLMNEnable, i)), Path: prefix + "Enable", Type: TypeBoolean})
		b.Add(Descriptor{Name: Name(fmt.Sprintf(PLMNID, i)), Path: prefix + "PLMNID", Type: TypeString})
	}
	return b.Family(Family{
		Name:   FamilyPLMN,
		Object: PLMNObject,
		Members: []Member{
			{Key: "enable", Template: PLMNEnable},
			{Key: "plmnid", Template: PLMNID},
		},
		Count:      count,
		CountParam: NameNumPLMNs,
	})
}

func TestBuildIndexesFamilies(t *testing.T) {
	m, err := testBuilder(2).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	fam, idx, ok := m.ObjectFamily("PLMN 2")
	if !ok || fam.Name != FamilyPLMN || idx != 2 {
		t.Errorf("ObjectFamily(PLMN 2) = %s, %d, %v", fam.Name, idx, ok)
	}

	_, idx, key, ok := m.MemberOf("PLMN 1 PLMNID")
	if !ok || idx != 1 || key != "plmnid" {
		t.Errorf("MemberOf(PLMN 1 PLMNID) = %d, %q, %v", idx, key, ok)
	}

	name, ok := m.NameForPath(testRoot + "PLMNList.2.Enable")
	if !ok || name != "PLMN 2 Enable" {
		t.Errorf("NameForPath() = %q, %v", name, ok)
	}

	scalars := m.ScalarNames()
	for _, n := range scalars {
		if strings.HasPrefix(string(n), "PLMN") {
			t.Errorf("ScalarNames() contains family name %s", n)
		}
	}
	if len(scalars) != 4 {
		t.Errorf("ScalarNames() = %v, want 4 names", scalars)
	}
}

func TestBuildRejectsMissingMember(t *testing.T) {
	b := testBuilder(1)
	b.Family(Family{
		Name:    "Neighbor",
		Object:  "Neighbor %d",
		Members: []Member{{Key: "pci", Template: "Neighbor %d PCI"}},
		Count:   1,
	})

	_, err := b.Build()
	if !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("Build() error = %v, want ErrInvalidModel", err)
	}
	if !strings.Contains(err.Error(), "Neighbor 1 PCI") {
		t.Errorf("Build() error = %v, want mention of missing member", err)
	}
}

func TestBuildRejectsDuplicates(t *testing.T) {
	b := testBuilder(0).
		Add(Descriptor{Name: NamePCI, Path: "Device.Other", Type: TypeInt}).
		Add(Descriptor{Name: NameTAC, Path: "Device.X.PCI", Type: TypeInt})

	if _, err := b.Build(); !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("Build() error = %v, want ErrInvalidModel", err)
	}
}

func TestToCanonicalAndDevice(t *testing.T) {
	m := testBuilder(1).
		Add(Descriptor{Name: NameDuplexModeCapability, Path: "Device.X.Duplex", Type: TypeString}).
		CanonicalTransform(NameDuplexModeCapability, func(v any) (any, error) {
			return strings.TrimSuffix(v.(string), "Mode"), nil
		}).
		MustBuild()

	got, err := m.ToCanonical(NameDuplexModeCapability, "TDDMode")
	if err != nil || got != "TDD" {
		t.Errorf("ToCanonical(duplex) = %v, %v, want TDD", got, err)
	}

	got, err = m.ToCanonical("PLMN 1 Enable", "true")
	if err != nil || got != true {
		t.Errorf("ToCanonical(enable) = %v, %v, want true", got, err)
	}

	s, err := m.ToDevice("PLMN 1 Enable", true)
	if err != nil || s != "1" {
		t.Errorf("ToDevice(enable) = %q, %v, want \"1\"", s, err)
	}

	if _, err := m.ToCanonical(NameTAC, "1"); !errors.Is(err, ErrUnknownName) {
		t.Errorf("ToCanonical(unknown) error = %v", err)
	}
}

func TestPathNotRepresentable(t *testing.T) {
	m := testBuilder(0).
		Add(Descriptor{Name: NameCellBarred, Path: PathNotRepresentable, Type: TypeBoolean}).
		MustBuild()

	if _, err := m.Path(NameCellBarred); !errors.Is(err, ErrNotRepresentable) {
		t.Errorf("Path() error = %v, want ErrNotRepresentable", err)
	}
}

func TestStripIndex(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"X.PLMNList.3.", "X.PLMNList."},
		{"X.PLMNList.12", "X.PLMNList."},
		{"X.PLMNList.", "X.PLMNList."},
		{"Device", "Device"},
	}
	for _, tt := range tests {
		if got := StripIndex(tt.in); got != tt.want {
			t.Errorf("StripIndex(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPresence(t *testing.T) {
	p := NewPresence()
	if _, known := p.Lookup(NameGPSLat); known {
		t.Fatal("Lookup() known before Set")
	}
	p.Set(NameGPSLat, false)
	if present, known := p.Lookup(NameGPSLat); !known || present {
		t.Errorf("Lookup() = %v, %v, want absent", present, known)
	}
	if p.Present(NameGPSLat) {
		t.Error("Present() = true for absent parameter")
	}
}
