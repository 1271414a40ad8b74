package datamodel

// Logical parameter names shared by all device profiles.
const (
	// Top-level objects
	NameDevice     Name = "Device"
	NameFAPService Name = "FAPService"

	// Device info and status
	NameSerialNumber Name = "SerialNumber"
	NameSWVersion    Name = "SWVersion"
	NameOpState      Name = "OpState"
	NameRFTxStatus   Name = "RFTxStatus"
	NameGPSStatus    Name = "GPSStatus"
	NamePTPStatus    Name = "PTPStatus"
	NameMMEStatus    Name = "MMEStatus"
	NameREMStatus    Name = "REMStatus"
	NameGPSEnable    Name = "GPSEnable"
	NameGPSLat       Name = "GPSLat"
	NameGPSLong      Name = "GPSLong"

	// Vendor status nodes
	NameDefaultGateway Name = "DefaultGateway"
	NameSyncStatus     Name = "SyncStatus"
	NameSASStatus      Name = "SASStatus"
	NameENBStatus      Name = "ENBStatus"
	NameGPSScanStatus  Name = "GPSScanStatus"

	// Capabilities
	NameDuplexModeCapability Name = "DuplexModeCapability"
	NameBandCapability       Name = "BandCapability"

	// RF
	NameEARFCNDL               Name = "EARFCNDL"
	NameEARFCNUL               Name = "EARFCNUL"
	NameBand                   Name = "Band"
	NamePCI                    Name = "PCI"
	NameDLBandwidth            Name = "DLBandwidth"
	NameULBandwidth            Name = "ULBandwidth"
	NameSubframeAssignment     Name = "SubframeAssignment"
	NameSpecialSubframePattern Name = "SpecialSubframePattern"
	NameCellID                 Name = "CellID"

	// LTE control
	NameAdminState         Name = "AdminState"
	NameCellReserved       Name = "CellReserved"
	NameCellBarred         Name = "CellBarred"
	NameLocalGatewayEnable Name = "LocalGatewayEnable"

	// Core network
	NameMMEIP         Name = "MMEIP"
	NameMMEPort       Name = "MMEPort"
	NameMMEPoolEnable Name = "MMEPoolEnable"
	NameTAC           Name = "TAC"
	NameIPSecEnable   Name = "IPSecEnable"
	NameNumPLMNs      Name = "NumPLMNs"

	// Management server
	NamePeriodicInformEnable   Name = "PeriodicInformEnable"
	NamePeriodicInformInterval Name = "PeriodicInformInterval"

	// Performance management
	NamePerfMgmtEnable         Name = "PerfMgmtEnable"
	NamePerfMgmtUploadInterval Name = "PerfMgmtUploadInterval"
	NamePerfMgmtUploadURL      Name = "PerfMgmtUploadURL"
)

// PLMN object family templates. Instances are numbered from 1.
const (
	FamilyPLMN = "PLMN"

	PLMNObject       = "PLMN %d"
	PLMNCellReserved = "PLMN %d CellReserved"
	PLMNEnable       = "PLMN %d Enable"
	PLMNPrimary      = "PLMN %d Primary"
	PLMNID           = "PLMN %d PLMNID"
)

// PLMNMembers lists the PLMN member templates keyed by their fleet config key.
func PLMNMembers() []Member {
	return []Member{
		{Key: "cell_reserved", Template: PLMNCellReserved},
		{Key: "enable", Template: PLMNEnable},
		{Key: "primary", Template: PLMNPrimary},
		{Key: "plmnid", Template: PLMNID},
	}
}
