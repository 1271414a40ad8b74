package devices

import (
	"fmt"

	"github.com/nerrad567/enodebd/internal/datamodel"
	"github.com/nerrad567/enodebd/internal/deviceconfig"
	"github.com/nerrad567/enodebd/internal/fleet"
	sm "github.com/nerrad567/enodebd/internal/statemachine"
)

// BaicellsQAFB is the device type name of Qualcomm-based Baicells units.
const BaicellsQAFB = "Baicells QAFB"

const (
	qafbDevice = "InternetGatewayDevice."
	qafbFAP    = qafbDevice + "Services.FAPService.1."
	qafbBoard  = "boardconf.status.eepromInfo."

	qafbPLMNCount = 6
)

// The QAFB reports CellReservedForOperatorUse as a keyword, so the
// canonical value is the string "true" or "false".
func qafbPLMNMembers() []plmnMember {
	return []plmnMember{
		{datamodel.PLMNCellReserved, "CellReservedForOperatorUse", datamodel.TypeString},
		{datamodel.PLMNEnable, "Enable", datamodel.TypeBoolean},
		{datamodel.PLMNPrimary, "IsPrimary", datamodel.TypeBoolean},
		{datamodel.PLMNID, "PLMNID", datamodel.TypeString},
	}
}

func qafbModel() *datamodel.Model {
	b := datamodel.NewBuilder(BaicellsQAFB)
	addAll(b, []datamodel.Descriptor{
		{Name: datamodel.NameDevice, Path: qafbDevice, Type: datamodel.TypeObject, Invasive: true},
		{Name: datamodel.NameFAPService, Path: qafbFAP, Type: datamodel.TypeObject, Invasive: true},

		// OpState doubles as the MME and radio status on this unit.
		{Name: datamodel.NameOpState, Path: qafbFAP + "CellConfig.1.LTE.X_QUALCOMM_FAPControl.OpState", Type: datamodel.TypeBoolean, Invasive: true},
		{Name: datamodel.NameMMEStatus, Path: datamodel.PathNotRepresentable, Type: datamodel.TypeBoolean},
		{Name: datamodel.NameRFTxStatus, Path: datamodel.PathNotRepresentable, Type: datamodel.TypeBoolean},
		{Name: datamodel.NameGPSLat, Path: qafbDevice + "FAP.GPS.latitude", Type: datamodel.TypeString, Invasive: true},
		{Name: datamodel.NameGPSLong, Path: qafbDevice + "FAP.GPS.longitude", Type: datamodel.TypeString, Invasive: true},
		{Name: datamodel.NameSWVersion, Path: qafbDevice + "DeviceInfo.SoftwareVersion", Type: datamodel.TypeString, Invasive: true},
		{Name: datamodel.NameSerialNumber, Path: qafbDevice + "DeviceInfo.SerialNumber", Type: datamodel.TypeString, Invasive: true},

		{Name: datamodel.NameDuplexModeCapability, Path: qafbBoard + "div_multiple", Type: datamodel.TypeString, Invasive: true},
		{Name: datamodel.NameBandCapability, Path: qafbBoard + "work_mode", Type: datamodel.TypeString, Invasive: true},

		{Name: datamodel.NameEARFCNDL, Path: qafbFAP + "CellConfig.1.LTE.RAN.RF.EARFCNDL", Type: datamodel.TypeInt, Invasive: true},
		{Name: datamodel.NamePCI, Path: qafbFAP + "CellConfig.1.LTE.RAN.RF.PhyCellID", Type: datamodel.TypeInt, Invasive: true},
		{Name: datamodel.NameDLBandwidth, Path: qafbDevice + "Services.RfConfig.1.RfCarrierCommon.carrierBwMhz", Type: datamodel.TypeInt, Invasive: true},
		{Name: datamodel.NameSubframeAssignment, Path: qafbFAP + "CellConfig.1.LTE.RAN.PHY.TDDFrame.SubFrameAssignment", Type: datamodel.TypeInt, Invasive: true},
		{Name: datamodel.NameSpecialSubframePattern, Path: qafbFAP + "CellConfig.1.LTE.RAN.PHY.TDDFrame.SpecialSubframePatterns", Type: datamodel.TypeInt, Invasive: true},
		{Name: datamodel.NameCellID, Path: qafbFAP + "CellConfig.1.LTE.RAN.Common.CellIdentity", Type: datamodel.TypeUnsignedInt, Invasive: true},

		{Name: datamodel.NameAdminState, Path: qafbFAP + "CellConfig.1.LTE.X_QUALCOMM_FAPControl.AdminState", Type: datamodel.TypeString},

		{Name: datamodel.NameMMEIP, Path: qafbFAP + "FAPControl.LTE.Gateway.S1SigLinkServerList", Type: datamodel.TypeString, Invasive: true},
		{Name: datamodel.NameMMEPort, Path: qafbFAP + "FAPControl.LTE.Gateway.S1SigLinkPort", Type: datamodel.TypeInt, Invasive: true},
		{Name: datamodel.NameTAC, Path: qafbFAP + "CellConfig.1.LTE.EPC.TAC", Type: datamodel.TypeInt, Invasive: true},
		{Name: datamodel.NameIPSecEnable, Path: "boardconf.ipsec.ipsecConfig.onBoot", Type: datamodel.TypeBoolean},

		{Name: datamodel.NamePeriodicInformEnable, Path: qafbDevice + "ManagementServer.PeriodicInformEnable", Type: datamodel.TypeBoolean},
		{Name: datamodel.NamePeriodicInformInterval, Path: qafbDevice + "ManagementServer.PeriodicInformInterval", Type: datamodel.TypeInt},

		{Name: datamodel.NamePerfMgmtEnable, Path: qafbFAP + "CellConfig.1.X_QUALCOMM_PerfMgmt.Config.Enable", Type: datamodel.TypeBoolean},
		{Name: datamodel.NamePerfMgmtUploadInterval, Path: qafbDevice + "FAP.PerfMgmt.Config.PeriodicUploadInterval", Type: datamodel.TypeInt},
		{Name: datamodel.NamePerfMgmtUploadURL, Path: qafbDevice + "FAP.PerfMgmt.Config.URL", Type: datamodel.TypeString},
	})
	// The standard PLMNListNumberOfEntries node does not exist on the QAFB,
	// so instances are found by probing every index.
	addPLMNFamily(b, qafbFAP+"CellConfig.1.LTE.EPC.PLMNList.", qafbPLMNCount, "", true, qafbPLMNMembers())

	for i := 1; i <= qafbPLMNCount; i++ {
		name := datamodel.Name(fmt.Sprintf(datamodel.PLMNCellReserved, i))
		b.CanonicalTransform(name, cellReservedFromDevice)
		b.DeviceTransform(name, cellReservedToDevice)
	}

	return b.
		Transient(datamodel.NameOpState, datamodel.NameGPSLat, datamodel.NameGPSLong).
		MustBuild()
}

func qafbStates(t sm.Timers) sm.Table {
	return sm.Table{
		sm.StateWaitInform:    &sm.WaitInform{Done: sm.StateGetRPCMethods},
		sm.StateGetRPCMethods: &sm.GetRPCMethods{Done: sm.StateWaitEmpty, Skip: sm.StateGetTransientParams},
		sm.StateWaitEmpty:     &sm.WaitEmpty{Done: sm.StateGetTransientParams},
		sm.StateGetTransientParams: &sm.GetTransient{
			Get:       sm.StateGetParams,
			GetObject: sm.StateGetObjectParams,
			Delete:    sm.StateDeleteObjects,
			Add:       sm.StateAddObjects,
			Skip:      sm.StateEndSession,
		},
		sm.StateGetParams: &sm.GetScalarValues{Done: sm.StateGetObjectParams},
		sm.StateGetObjectParams: &sm.GetObjectValues{
			Delete: sm.StateDeleteObjects,
			Add:    sm.StateAddObjects,
			Set:    sm.StateSetParams,
			Skip:   sm.StateEndSession,
		},
		sm.StateDeleteObjects:  &sm.DeleteObjects{Add: sm.StateAddObjects, Skip: sm.StateSetParams},
		sm.StateAddObjects:     &sm.AddObjects{Done: sm.StateSetParams},
		sm.StateSetParams:      &sm.SetValues{Done: sm.StateWaitSetParams},
		sm.StateWaitSetParams:  &sm.WaitSet{Done: sm.StateCheckGetParams, ApplyInvasive: sm.StateCheckGetParams},
		sm.StateCheckGetParams: &sm.GetScalarValues{Done: sm.StateEndSession, FetchAll: true},
		sm.StateEndSession:     &sm.EndSession{},

		// Entered only on operator request.
		sm.StateReboot:               &sm.SendReboot{Done: sm.StateWaitReboot},
		sm.StateWaitReboot:           &sm.WaitRebootResponse{Done: sm.StateWaitPostRebootInform},
		sm.StateWaitPostRebootInform: &sm.WaitPostRebootInform{Done: sm.StateWaitEmpty, Limit: t.RebootTimeout},

		sm.StateUnexpectedFault: &sm.Error{Target: sm.StateWaitInform},
	}
}

// qafbPostProcess leaves the admin state to the device.
func qafbPostProcess(desired, _ *deviceconfig.Store, _ fleet.Settings) error {
	desired.DeleteParameter(datamodel.NameAdminState)
	return nil
}

// NewBaicellsQAFB returns the Baicells QAFB profile.
func NewBaicellsQAFB() sm.Profile {
	return &profile{
		name:   BaicellsQAFB,
		model:  qafbModel(),
		states: qafbStates,
		reboot: sm.StateReboot,
		post:   qafbPostProcess,
	}
}
