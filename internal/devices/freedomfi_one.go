package devices

import (
	"fmt"

	"github.com/nerrad567/enodebd/internal/datamodel"
	"github.com/nerrad567/enodebd/internal/deviceconfig"
	"github.com/nerrad567/enodebd/internal/fleet"
	sm "github.com/nerrad567/enodebd/internal/statemachine"
)

// FreedomFiOne is the device type name of FreedomFi One (Sercomm) units.
const FreedomFiOne = "FreedomFi One"

const (
	ffDevice  = "Device."
	ffFAP     = ffDevice + "Services.FAPService.1."
	ffControl = ffFAP + "FAPControl."
	ffStatus  = ffDevice + "X_000E8F_DeviceFeature.X_000E8F_NEStatus."

	ffPLMNCount = 1
)

// Nothing on the FreedomFi One needs a reboot to take effect.
func ffModel() *datamodel.Model {
	b := datamodel.NewBuilder(FreedomFiOne)
	addAll(b, []datamodel.Descriptor{
		{Name: datamodel.NameDevice, Path: ffDevice, Type: datamodel.TypeObject},
		{Name: datamodel.NameFAPService, Path: ffControl, Type: datamodel.TypeObject},

		{Name: datamodel.NameSWVersion, Path: ffDevice + "DeviceInfo.SoftwareVersion", Type: datamodel.TypeString},
		{Name: datamodel.NameSerialNumber, Path: ffDevice + "DeviceInfo.SerialNumber", Type: datamodel.TypeString},

		{Name: datamodel.NameDefaultGateway, Path: ffStatus + "X_000E8F_DEFGW_Status", Type: datamodel.TypeString},
		{Name: datamodel.NameSyncStatus, Path: ffStatus + "X_000E8F_Sync_Status", Type: datamodel.TypeString},
		{Name: datamodel.NameSASStatus, Path: ffStatus + "X_000E8F_SAS_Status", Type: datamodel.TypeString},
		{Name: datamodel.NameENBStatus, Path: ffStatus + "X_000E8F_eNB_Status", Type: datamodel.TypeString},
		{Name: datamodel.NameGPSScanStatus, Path: ffDevice + "FAP.GPS.ScanStatus", Type: datamodel.TypeString},
		{Name: datamodel.NameGPSLat, Path: ffDevice + "FAP.GPS.LockedLatitude", Type: datamodel.TypeString},
		{Name: datamodel.NameGPSLong, Path: ffDevice + "FAP.GPS.LockedLongitude", Type: datamodel.TypeString},

		{Name: datamodel.NameEARFCNDL, Path: ffFAP + "CellConfig.LTE.RAN.RF.EARFCNDL", Type: datamodel.TypeInt},
		{Name: datamodel.NameEARFCNUL, Path: ffFAP + "CellConfig.LTE.RAN.RF.EARFCNUL", Type: datamodel.TypeInt},
		{Name: datamodel.NameDLBandwidth, Path: ffFAP + "CellConfig.LTE.RAN.RF.DLBandwidth", Type: datamodel.TypeString},
		{Name: datamodel.NameULBandwidth, Path: ffFAP + "CellConfig.LTE.RAN.RF.ULBandwidth", Type: datamodel.TypeString},
		{Name: datamodel.NamePCI, Path: ffFAP + "CellConfig.LTE.RAN.RF.PhyCellID", Type: datamodel.TypeString},
		{Name: datamodel.NameSubframeAssignment, Path: ffFAP + "CellConfig.LTE.RAN.PHY.TDDFrame.SubFrameAssignment", Type: datamodel.TypeInt},
		{Name: datamodel.NameSpecialSubframePattern, Path: ffFAP + "CellConfig.LTE.RAN.PHY.TDDFrame.SpecialSubframePatterns", Type: datamodel.TypeInt},
		{Name: datamodel.NameCellID, Path: ffFAP + "CellConfig.LTE.RAN.Common.CellIdentity", Type: datamodel.TypeUnsignedInt},

		{Name: datamodel.NameAdminState, Path: ffControl + "LTE.AdminState", Type: datamodel.TypeBoolean},
		{Name: datamodel.NameGPSEnable, Path: ffDevice + "FAP.GPS.ScanOnBoot", Type: datamodel.TypeBoolean},

		{Name: datamodel.NameMMEIP, Path: ffControl + "LTE.Gateway.S1SigLinkServerList", Type: datamodel.TypeString},
		{Name: datamodel.NameMMEPort, Path: ffControl + "LTE.Gateway.S1SigLinkPort", Type: datamodel.TypeInt},
		{Name: datamodel.NameNumPLMNs, Path: ffFAP + "CellConfig.LTE.EPC.PLMNListNumberOfEntries", Type: datamodel.TypeInt},
		{Name: datamodel.NameTAC, Path: ffFAP + "CellConfig.LTE.EPC.TAC", Type: datamodel.TypeInt},

		{Name: datamodel.NamePeriodicInformEnable, Path: ffDevice + "ManagementServer.PeriodicInformEnable", Type: datamodel.TypeBoolean},
		{Name: datamodel.NamePeriodicInformInterval, Path: ffDevice + "ManagementServer.PeriodicInformInterval", Type: datamodel.TypeInt},

		{Name: datamodel.NamePerfMgmtEnable, Path: ffDevice + "FAP.PerfMgmt.Config.1.Enable", Type: datamodel.TypeBoolean},
		{Name: datamodel.NamePerfMgmtUploadInterval, Path: ffDevice + "FAP.PerfMgmt.Config.1.PeriodicUploadInterval", Type: datamodel.TypeInt},
		{Name: datamodel.NamePerfMgmtUploadURL, Path: ffDevice + "FAP.PerfMgmt.Config.1.URL", Type: datamodel.TypeString},
	})
	addPLMNFamily(b, ffFAP+"CellConfig.LTE.EPC.PLMNList.", ffPLMNCount, datamodel.NameNumPLMNs, false, standardPLMNMembers())

	return b.
		Transient(
			datamodel.NameDefaultGateway,
			datamodel.NameSyncStatus,
			datamodel.NameSASStatus,
			datamodel.NameENBStatus,
			datamodel.NameGPSScanStatus,
			datamodel.NameGPSLat,
			datamodel.NameGPSLong,
		).
		CanonicalTransform(datamodel.NameDLBandwidth, bandwidthFromDevice).
		CanonicalTransform(datamodel.NameULBandwidth, bandwidthFromDevice).
		DeviceTransform(datamodel.NameDLBandwidth, bandwidthToDevice).
		DeviceTransform(datamodel.NameULBandwidth, bandwidthToDevice).
		MustBuild()
}

// The unit sends either GetRPCMethods or an empty POST after the Inform;
// both lead straight to the status read.
func ffStates(t sm.Timers) sm.Table {
	return sm.Table{
		sm.StateWaitInform:    &sm.WaitInform{Done: sm.StateGetRPCMethods},
		sm.StateGetRPCMethods: &sm.GetRPCMethods{Done: sm.StateGetTransientParams, Skip: sm.StateGetTransientParams},
		sm.StateWaitEmpty:     &sm.WaitEmpty{Done: sm.StateGetTransientParams},
		sm.StateGetTransientParams: &sm.GetTransient{
			Get:       sm.StateGetParams,
			GetObject: sm.StateGetObjectParams,
			Delete:    sm.StateDeleteObjects,
			Add:       sm.StateAddObjects,
			Set:       sm.StateSetParams,
			Skip:      sm.StateEndSession,
		},
		sm.StateGetParams: &sm.GetScalarValues{Done: sm.StateGetObjectParams},
		sm.StateGetObjectParams: &sm.GetObjectValues{
			Delete: sm.StateDeleteObjects,
			Add:    sm.StateAddObjects,
			Set:    sm.StateSetParams,
			Skip:   sm.StateEndSession,
		},
		sm.StateDeleteObjects: &sm.DeleteObjects{Add: sm.StateAddObjects, Skip: sm.StateSetParams},
		sm.StateAddObjects:    &sm.AddObjects{Done: sm.StateSetParams},
		sm.StateSetParams:     &sm.SetValues{Done: sm.StateWaitSetParams, ExcludeInvasive: true},
		sm.StateWaitSetParams: &sm.WaitSet{
			Done:               sm.StateCheckGetParams,
			ApplyInvasive:      sm.StateCheckGetParams,
			AllowNonZeroStatus: true,
		},
		sm.StateCheckGetParams: &sm.GetScalarValues{Done: sm.StateEndSession, FetchAll: true},
		sm.StateEndSession:     &sm.EndSession{},

		// Entered only on operator request.
		sm.StateReboot:               &sm.SendReboot{Done: sm.StateWaitReboot},
		sm.StateWaitReboot:           &sm.WaitRebootResponse{Done: sm.StateWaitPostRebootInform},
		sm.StateWaitPostRebootInform: &sm.WaitPostRebootInform{Done: sm.StateWaitEmpty, Limit: t.RebootTimeout},

		sm.StateUnexpectedFault: &sm.Error{Target: sm.StateWaitInform},
	}
}

// ffPostProcess leaves spectrum to the unit's own SAS client and works
// around firmware that inverts CellReservedForOperatorUse: true keeps the
// PLMN open.
func ffPostProcess(desired, _ *deviceconfig.Store, _ fleet.Settings) error {
	desired.DeleteParameter(datamodel.NameEARFCNDL)
	desired.DeleteParameter(datamodel.NameDLBandwidth)
	desired.DeleteParameter(datamodel.NameULBandwidth)

	for i := 1; i <= ffPLMNCount; i++ {
		obj := datamodel.Name(fmt.Sprintf(datamodel.PLMNObject, i))
		if !desired.HasObject(obj) {
			continue
		}
		name := datamodel.Name(fmt.Sprintf(datamodel.PLMNCellReserved, i))
		if err := desired.SetObjectParameter(obj, name, true); err != nil {
			return err
		}
	}
	return nil
}

// NewFreedomFiOne returns the FreedomFi One profile.
func NewFreedomFiOne() sm.Profile {
	return &profile{
		name:   FreedomFiOne,
		model:  ffModel(),
		states: ffStates,
		reboot: sm.StateReboot,
		post:   ffPostProcess,
	}
}
