package devices

import (
	"github.com/nerrad567/enodebd/internal/datamodel"
	"github.com/nerrad567/enodebd/internal/deviceconfig"
	"github.com/nerrad567/enodebd/internal/fleet"
	sm "github.com/nerrad567/enodebd/internal/statemachine"
)

// BaicellsRTS is the device type name of Baicells units running BaiBS_RTS
// firmware.
const BaicellsRTS = "Baicells RTS"

const (
	rtsDevice = "Device."
	rtsFAP    = rtsDevice + "Services.FAPService.1."

	// rtsPLMNCount is how many PLMN list entries the RTS firmware holds.
	rtsPLMNCount = 6
)

func rtsModel() *datamodel.Model {
	b := datamodel.NewBuilder(BaicellsRTS)
	addAll(b, []datamodel.Descriptor{
		{Name: datamodel.NameDevice, Path: rtsDevice, Type: datamodel.TypeObject, Invasive: true},
		{Name: datamodel.NameFAPService, Path: rtsFAP, Type: datamodel.TypeObject, Invasive: true},

		{Name: datamodel.NameGPSStatus, Path: rtsDevice + "DeviceInfo.X_BAICELLS_COM_GPS_Status", Type: datamodel.TypeBoolean, Invasive: true},
		{Name: datamodel.NamePTPStatus, Path: rtsDevice + "DeviceInfo.X_BAICELLS_COM_1588_Status", Type: datamodel.TypeBoolean, Invasive: true},
		{Name: datamodel.NameMMEStatus, Path: rtsDevice + "DeviceInfo.X_BAICELLS_COM_MME_Status", Type: datamodel.TypeBoolean, Invasive: true},
		{Name: datamodel.NameREMStatus, Path: rtsFAP + "REM.X_BAICELLS_COM_REM_Status", Type: datamodel.TypeBoolean, Invasive: true},
		{Name: datamodel.NameLocalGatewayEnable, Path: rtsDevice + "DeviceInfo.X_BAICELLS_COM_LTE_LGW_Switch", Type: datamodel.TypeBoolean},
		// Some units lack the GPS nodes entirely.
		{Name: datamodel.NameGPSEnable, Path: rtsDevice + "DeviceInfo.X_BAICELLS_COM_GpsSyncEnable", Type: datamodel.TypeBoolean, Optional: true},
		{Name: datamodel.NameGPSLat, Path: rtsDevice + "FAP.GPS.LockedLatitude", Type: datamodel.TypeString, Invasive: true, Optional: true},
		{Name: datamodel.NameGPSLong, Path: rtsDevice + "FAP.GPS.LockedLongitude", Type: datamodel.TypeString, Invasive: true, Optional: true},
		{Name: datamodel.NameSWVersion, Path: rtsDevice + "DeviceInfo.SoftwareVersion", Type: datamodel.TypeString, Invasive: true},
		{Name: datamodel.NameSerialNumber, Path: rtsDevice + "DeviceInfo.SerialNumber", Type: datamodel.TypeString, Invasive: true},

		{Name: datamodel.NameDuplexModeCapability, Path: rtsFAP + "Capabilities.LTE.DuplexMode", Type: datamodel.TypeString, Invasive: true},
		{Name: datamodel.NameBandCapability, Path: rtsFAP + "Capabilities.LTE.BandsSupported", Type: datamodel.TypeString, Invasive: true},

		{Name: datamodel.NameEARFCNDL, Path: rtsFAP + "X_BAICELLS_COM_LTE.EARFCNDLInUse", Type: datamodel.TypeInt, Invasive: true},
		{Name: datamodel.NameEARFCNUL, Path: rtsFAP + "X_BAICELLS_COM_LTE.EARFCNULInUse", Type: datamodel.TypeInt, Invasive: true},
		{Name: datamodel.NameBand, Path: rtsFAP + "CellConfig.LTE.RAN.RF.FreqBandIndicator", Type: datamodel.TypeInt, Invasive: true},
		{Name: datamodel.NamePCI, Path: rtsFAP + "CellConfig.LTE.RAN.RF.PhyCellID", Type: datamodel.TypeInt},
		{Name: datamodel.NameDLBandwidth, Path: rtsFAP + "CellConfig.LTE.RAN.RF.DLBandwidth", Type: datamodel.TypeString, Invasive: true},
		{Name: datamodel.NameULBandwidth, Path: rtsFAP + "CellConfig.LTE.RAN.RF.ULBandwidth", Type: datamodel.TypeString, Invasive: true},
		{Name: datamodel.NameSubframeAssignment, Path: rtsFAP + "CellConfig.LTE.RAN.PHY.TDDFrame.SubFrameAssignment", Type: datamodel.TypeInt, Invasive: true},
		{Name: datamodel.NameSpecialSubframePattern, Path: rtsFAP + "CellConfig.LTE.RAN.PHY.TDDFrame.SpecialSubframePatterns", Type: datamodel.TypeInt, Invasive: true},
		{Name: datamodel.NameCellID, Path: rtsFAP + "CellConfig.LTE.RAN.Common.CellIdentity", Type: datamodel.TypeUnsignedInt, Invasive: true},

		{Name: datamodel.NameAdminState, Path: rtsFAP + "FAPControl.LTE.AdminState", Type: datamodel.TypeBoolean},
		{Name: datamodel.NameOpState, Path: rtsFAP + "FAPControl.LTE.OpState", Type: datamodel.TypeBoolean, Invasive: true},
		{Name: datamodel.NameRFTxStatus, Path: rtsFAP + "FAPControl.LTE.RFTxStatus", Type: datamodel.TypeBoolean, Invasive: true},

		{Name: datamodel.NameCellReserved, Path: rtsFAP + "CellConfig.LTE.RAN.CellRestriction.CellReservedForOperatorUse", Type: datamodel.TypeBoolean, Invasive: true},
		{Name: datamodel.NameCellBarred, Path: rtsFAP + "CellConfig.LTE.RAN.CellRestriction.CellBarred", Type: datamodel.TypeBoolean, Invasive: true},

		{Name: datamodel.NameMMEIP, Path: rtsFAP + "FAPControl.LTE.Gateway.S1SigLinkServerList", Type: datamodel.TypeString, Invasive: true},
		{Name: datamodel.NameMMEPort, Path: rtsFAP + "FAPControl.LTE.Gateway.S1SigLinkPort", Type: datamodel.TypeInt, Invasive: true},
		{Name: datamodel.NameNumPLMNs, Path: rtsFAP + "CellConfig.LTE.EPC.PLMNListNumberOfEntries", Type: datamodel.TypeInt, Invasive: true},
		{Name: datamodel.NameTAC, Path: rtsFAP + "CellConfig.LTE.EPC.TAC", Type: datamodel.TypeInt, Invasive: true},
		{Name: datamodel.NameIPSecEnable, Path: rtsDevice + "Services.FAPService.Ipsec.IPSEC_ENABLE", Type: datamodel.TypeBoolean},
		{Name: datamodel.NameMMEPoolEnable, Path: rtsFAP + "FAPControl.LTE.Gateway.X_BAICELLS_COM_MmePool.Enable", Type: datamodel.TypeBoolean, Invasive: true},

		{Name: datamodel.NamePeriodicInformEnable, Path: rtsDevice + "ManagementServer.PeriodicInformEnable", Type: datamodel.TypeBoolean},
		{Name: datamodel.NamePeriodicInformInterval, Path: rtsDevice + "ManagementServer.PeriodicInformInterval", Type: datamodel.TypeInt},

		{Name: datamodel.NamePerfMgmtEnable, Path: rtsDevice + "FAP.PerfMgmt.Config.1.Enable", Type: datamodel.TypeBoolean},
		{Name: datamodel.NamePerfMgmtUploadInterval, Path: rtsDevice + "FAP.PerfMgmt.Config.1.PeriodicUploadInterval", Type: datamodel.TypeInt},
		{Name: datamodel.NamePerfMgmtUploadURL, Path: rtsDevice + "FAP.PerfMgmt.Config.1.URL", Type: datamodel.TypeString},
	})
	addPLMNFamily(b, rtsFAP+"CellConfig.LTE.EPC.PLMNList.", rtsPLMNCount, datamodel.NameNumPLMNs, true, standardPLMNMembers())

	return b.
		Transient(
			datamodel.NameOpState,
			datamodel.NameRFTxStatus,
			datamodel.NameGPSStatus,
			datamodel.NamePTPStatus,
			datamodel.NameMMEStatus,
			datamodel.NameGPSLat,
			datamodel.NameGPSLong,
		).
		CanonicalTransform(datamodel.NameDLBandwidth, bandwidthFromDevice).
		CanonicalTransform(datamodel.NameULBandwidth, bandwidthFromDevice).
		CanonicalTransform(datamodel.NameGPSLat, gpsFromMicrodegrees).
		CanonicalTransform(datamodel.NameGPSLong, gpsFromMicrodegrees).
		DeviceTransform(datamodel.NameDLBandwidth, bandwidthToDevice).
		DeviceTransform(datamodel.NameULBandwidth, bandwidthToDevice).
		MustBuild()
}

func rtsStates(t sm.Timers) sm.Table {
	return sm.Table{
		sm.StateWaitInform: &sm.WaitInform{Done: sm.StateWaitEmpty, Boot: sm.StateBootDelay},
		sm.StateBootDelay:  &sm.BootDelay{Done: sm.StateWaitInform, Delay: t.BootDelay},
		sm.StateWaitEmpty:  &sm.WaitEmpty{Done: sm.StateCheckFirmware, Probe: sm.StateCheckOptionalParams},

		sm.StateCheckOptionalParams: &sm.ProbeOptional{Done: sm.StateCheckFirmware},
		sm.StateCheckFirmware:       &sm.CheckFirmware{Download: sm.StateDownload, Skip: sm.StateGetTransientParams},
		sm.StateDownload:            &sm.SendDownload{Done: sm.StateWaitDownload},
		sm.StateWaitDownload:        &sm.WaitDownloadResponse{Done: sm.StateGetTransientParams},
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
		sm.StateDeleteObjects:  &sm.DeleteObjects{Add: sm.StateAddObjects, Skip: sm.StateSetParams},
		sm.StateAddObjects:     &sm.AddObjects{Done: sm.StateSetParams},
		sm.StateSetParams:      &sm.SetValues{Done: sm.StateWaitSetParams},
		sm.StateWaitSetParams:  &sm.WaitSet{Done: sm.StateCheckGetParams, ApplyInvasive: sm.StateReboot},
		sm.StateCheckGetParams: &sm.GetScalarValues{Done: sm.StateEndSession, FetchAll: true},
		sm.StateEndSession:     &sm.EndSession{},

		sm.StateReboot:               &sm.SendReboot{Done: sm.StateWaitReboot},
		sm.StateWaitReboot:           &sm.WaitRebootResponse{Done: sm.StateWaitPostRebootInform},
		sm.StateWaitPostRebootInform: &sm.WaitPostRebootInform{Done: sm.StateWaitRebootDelay, Limit: t.RebootTimeout},
		sm.StateWaitRebootDelay:      &sm.RebootDelay{Done: sm.StateWaitInform, Delay: t.RebootDelay},

		sm.StateUnexpectedFault: &sm.Error{Target: sm.StateWaitInform},
	}
}

// rtsPostProcess keeps the cell unbarred whatever the fleet says.
func rtsPostProcess(desired, _ *deviceconfig.Store, _ fleet.Settings) error {
	return desired.SetParameter(datamodel.NameCellBarred, false)
}

// NewBaicellsRTS returns the Baicells RTS profile.
func NewBaicellsRTS() sm.Profile {
	return &profile{
		name:   BaicellsRTS,
		model:  rtsModel(),
		states: rtsStates,
		reboot: sm.StateReboot,
		post:   rtsPostProcess,
	}
}
