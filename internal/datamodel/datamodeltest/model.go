// Package datamodeltest provides a small data model for tests.
package datamodeltest

import (
	"fmt"

	"github.com/nerrad567/enodebd/internal/datamodel"
)

// Root is the object path prefix used by Model.
const Root = "Device.Services.FAPService.1."

// PLMNCount is the number of PLMN instances Model supports.
const PLMNCount = 3

// Path returns the protocol path of a name in Model, or "" when unknown.
func Path(name datamodel.Name) string {
	p, err := Model().Path(name)
	if err != nil {
		return ""
	}
	return p
}

// Model returns a TR-181 style model with one invasive scalar (EARFCNDL),
// non-invasive scalars, an optional GPS parameter, a transient status
// parameter and a PLMN family with a reported count.
func Model() *datamodel.Model {
	b := datamodel.NewBuilder("test").
		Add(datamodel.Descriptor{Name: datamodel.NameDevice, Path: "Device.", Type: datamodel.TypeObject}).
		Add(datamodel.Descriptor{Name: datamodel.NameOpState, Path: Root + "FAPControl.LTE.OpState", Type: datamodel.TypeBoolean}).
		Add(datamodel.Descriptor{Name: datamodel.NameSWVersion, Path: "Device.DeviceInfo.SoftwareVersion", Type: datamodel.TypeString}).
		Add(datamodel.Descriptor{Name: datamodel.NameEARFCNDL, Path: Root + "CellConfig.LTE.RAN.RF.EARFCNDL", Type: datamodel.TypeUnsignedInt, Invasive: true}).
		Add(datamodel.Descriptor{Name: datamodel.NamePCI, Path: Root + "CellConfig.LTE.RAN.RF.PhyCellID", Type: datamodel.TypeUnsignedInt}).
		Add(datamodel.Descriptor{Name: datamodel.NameAdminState, Path: Root + "FAPControl.LTE.AdminState", Type: datamodel.TypeBoolean}).
		Add(datamodel.Descriptor{Name: datamodel.NameTAC, Path: Root + "CellConfig.LTE.EPC.TAC", Type: datamodel.TypeInt}).
		Add(datamodel.Descriptor{Name: datamodel.NameGPSLat, Path: "Device.FAP.GPS.LockedLatitude", Type: datamodel.TypeString, Optional: true}).
		Add(datamodel.Descriptor{Name: datamodel.NameCellBarred, Path: datamodel.PathNotRepresentable, Type: datamodel.TypeBoolean}).
		Add(datamodel.Descriptor{Name: datamodel.NameNumPLMNs, Path: Root + "CellConfig.LTE.EPC.PLMNListNumberOfEntries", Type: datamodel.TypeInt})

	for i := 1; i <= PLMNCount; i++ {
		prefix := fmt.Sprintf("%sCellConfig.LTE.EPC.PLMNList.%d.", Root, i)
		b.Add(datamodel.Descriptor{Name: datamodel.Name(fmt.Sprintf(datamodel.PLMNObject, i)), Path: prefix, Type: datamodel.TypeObject})
		b.Add(datamodel.Descriptor{Name: datamodel.Name(fmt.Sprintf(datamodel.PLMNCellReserved, i)), Path: prefix + "CellReservedForOperatorUse", Type: datamodel.TypeBoolean})
		b.Add(datamodel.Descriptor{Name: datamodel.Name(fmt.Sprintf(datamodel.PLMNEnable, i)), Path: prefix + "Enable", Type: datamodel.TypeBoolean})
		b.Add(datamodel.Descriptor{Name: datamodel.Name(fmt.Sprintf(datamodel.PLMNPrimary, i)), Path: prefix + "IsPrimary", Type: datamodel.TypeBoolean})
		b.Add(datamodel.Descriptor{Name: datamodel.Name(fmt.Sprintf(datamodel.PLMNID, i)), Path: prefix + "PLMNID", Type: datamodel.TypeString})
	}

	return b.Family(datamodel.Family{
		Name:       datamodel.FamilyPLMN,
		Object:     datamodel.PLMNObject,
		Members:    datamodel.PLMNMembers(),
		Count:      PLMNCount,
		CountParam: datamodel.NameNumPLMNs,
	}).
		Transient(datamodel.NameOpState).
		MustBuild()
}
