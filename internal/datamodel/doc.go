// Package datamodel holds the per-device-type parameter catalog.
//
// A Model maps vendor-independent logical names (NameEARFCNDL, "PLMN 2 Enable")
// to protocol paths, value types and the invasive/optional flags that drive
// reconciliation. Numbered object families such as the PLMN list are declared
// once and expanded by the Builder, which validates that every member of every
// instance exists:
//
//	m := datamodel.NewBuilder("Baicells RTS").
//		Add(datamodel.Descriptor{Name: datamodel.NamePCI, Path: "...", Type: datamodel.TypeUnsignedInt}).
//		MustBuild()
//
// Models are immutable after Build and shared by every device of a type.
// Per-device state (Presence) lives alongside the session machine.
package datamodel
