package tr069

import "slices"

// Kind identifies a CWMP message type.
type Kind string

// Message kinds exchanged between the ACS and a CPE.
const (
	KindInform                     Kind = "Inform"
	KindInformResponse             Kind = "InformResponse"
	KindEmptyTurn                  Kind = "EmptyTurn"
	KindGetParameterValues         Kind = "GetParameterValues"
	KindGetParameterValuesResponse Kind = "GetParameterValuesResponse"
	KindSetParameterValues         Kind = "SetParameterValues"
	KindSetParameterValuesResponse Kind = "SetParameterValuesResponse"
	KindAddObject                  Kind = "AddObject"
	KindAddObjectResponse          Kind = "AddObjectResponse"
	KindDeleteObject               Kind = "DeleteObject"
	KindDeleteObjectResponse       Kind = "DeleteObjectResponse"
	KindReboot                     Kind = "Reboot"
	KindRebootResponse             Kind = "RebootResponse"
	KindFault                      Kind = "Fault"
	KindGetRPCMethods              Kind = "GetRPCMethods"
	KindGetRPCMethodsResponse      Kind = "GetRPCMethodsResponse"
	KindTransferComplete           Kind = "TransferComplete"
	KindTransferCompleteResponse   Kind = "TransferCompleteResponse"
	KindDownload                   Kind = "Download"
	KindDownloadResponse           Kind = "DownloadResponse"
	KindTimeout                    Kind = "Timeout"
)

// Inform event codes tested by exact membership.
const (
	EventBootstrap   = "0 BOOTSTRAP"
	EventBoot        = "1 BOOT"
	EventPeriodic    = "2 PERIODIC"
	EventValueChange = "4 VALUE CHANGE"
	EventMReboot     = "M Reboot"
)

// FileTypeFirmware is the Download file type of a firmware image.
const FileTypeFirmware = "1 Firmware Upgrade Image"

// Value type names used in ParameterValue.Type.
const (
	TypeInt         = "xsd:int"
	TypeUnsignedInt = "xsd:unsignedInt"
	TypeString      = "xsd:string"
	TypeBoolean     = "xsd:boolean"
)

// ACSMethods are the RPC methods advertised in GetRPCMethodsResponse.
var ACSMethods = []string{"Inform", "GetRPCMethods", "TransferComplete"}

// Message is any parsed CWMP message.
type Message interface {
	Kind() Kind
}

// DeviceID identifies the CPE that sent an Inform.
type DeviceID struct {
	Manufacturer string `json:"manufacturer"`
	OUI          string `json:"oui"`
	ProductClass string `json:"product_class"`
	SerialNumber string `json:"serial_number"`
}

// ParameterValue is a single path/value pair.
//
// Null marks a value the device reported as absent. Some firmware does this
// instead of faulting on paths that are not in its data model.
type ParameterValue struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
	Null  bool   `json:"null,omitempty"`
}

// ParameterFault is a per-parameter fault inside a SetParameterValues Fault.
type ParameterFault struct {
	ParameterName string `json:"parameter_name"`
	FaultCode     int    `json:"fault_code"`
	FaultString   string `json:"fault_string"`
}

// Inform is the device announcement that opens every session.
type Inform struct {
	DeviceID     DeviceID         `json:"device_id"`
	Events       []string         `json:"events"`
	MaxEnvelopes int              `json:"max_envelopes,omitempty"`
	RetryCount   int              `json:"retry_count,omitempty"`
	Parameters   []ParameterValue `json:"parameters,omitempty"`
}

// HasEvent reports whether the Inform carries the given event code.
func (m *Inform) HasEvent(code string) bool {
	return slices.Contains(m.Events, code)
}

// InformResponse acknowledges an Inform.
type InformResponse struct {
	MaxEnvelopes int `json:"max_envelopes"`
}

// EmptyTurn is an empty HTTP body in either direction.
type EmptyTurn struct{}

// GetParameterValues requests values for a list of paths.
type GetParameterValues struct {
	Names []string `json:"names"`
}

// GetParameterValuesResponse carries the requested values.
type GetParameterValuesResponse struct {
	Parameters []ParameterValue `json:"parameters"`
}

// SetParameterValues writes typed values.
type SetParameterValues struct {
	Parameters   []ParameterValue `json:"parameters"`
	ParameterKey string           `json:"parameter_key,omitempty"`
}

// SetParameterValuesResponse reports the outcome of a set.
type SetParameterValuesResponse struct {
	Status int `json:"status"`
}

// AddObject creates a new instance under a multi-instance object path.
type AddObject struct {
	ObjectName   string `json:"object_name"`
	ParameterKey string `json:"parameter_key,omitempty"`
}

// AddObjectResponse returns the instance index chosen by the device.
type AddObjectResponse struct {
	InstanceNumber int `json:"instance_number"`
	Status         int `json:"status"`
}

// DeleteObject removes an object instance.
type DeleteObject struct {
	ObjectName   string `json:"object_name"`
	ParameterKey string `json:"parameter_key,omitempty"`
}

// DeleteObjectResponse reports the outcome of a delete.
type DeleteObjectResponse struct {
	Status int `json:"status"`
}

// Reboot asks the device to restart.
type Reboot struct {
	CommandKey string `json:"command_key"`
}

// RebootResponse acknowledges a Reboot.
type RebootResponse struct{}

// Fault is a device-reported protocol error.
type Fault struct {
	FaultCode                int              `json:"fault_code"`
	FaultString              string           `json:"fault_string"`
	SetParameterValuesFaults []ParameterFault `json:"set_parameter_values_faults,omitempty"`
}

// GetRPCMethods is sent by a device to learn the ACS methods.
type GetRPCMethods struct{}

// GetRPCMethodsResponse lists the ACS methods.
type GetRPCMethodsResponse struct {
	Methods []string `json:"methods"`
}

// Download asks the device to fetch a file. The device reports the end of
// the transfer with TransferComplete, in this session or a later one.
type Download struct {
	CommandKey     string `json:"command_key"`
	FileType       string `json:"file_type"`
	URL            string `json:"url"`
	Username       string `json:"username,omitempty"`
	Password       string `json:"password,omitempty"`
	FileSize       int64  `json:"file_size"`
	TargetFileName string `json:"target_file_name,omitempty"`
	DelaySeconds   int    `json:"delay_seconds"`
}

// DownloadResponse accepts a Download. Status 1 means the transfer has not
// finished yet.
type DownloadResponse struct {
	Status int `json:"status"`
}

// TransferComplete reports the end of a file transfer.
type TransferComplete struct {
	CommandKey  string `json:"command_key"`
	FaultCode   int    `json:"fault_code,omitempty"`
	FaultString string `json:"fault_string,omitempty"`
}

// TransferCompleteResponse acknowledges a TransferComplete.
type TransferCompleteResponse struct{}

// Timeout is a synthetic event posted by a state timer. It never crosses
// the transport.
type Timeout struct {
	TimerID uint64 `json:"timer_id"`
}

func (*Inform) Kind() Kind                     { return KindInform }
func (*InformResponse) Kind() Kind             { return KindInformResponse }
func (*EmptyTurn) Kind() Kind                  { return KindEmptyTurn }
func (*GetParameterValues) Kind() Kind         { return KindGetParameterValues }
func (*GetParameterValuesResponse) Kind() Kind { return KindGetParameterValuesResponse }
func (*SetParameterValues) Kind() Kind         { return KindSetParameterValues }
func (*SetParameterValuesResponse) Kind() Kind { return KindSetParameterValuesResponse }
func (*AddObject) Kind() Kind                  { return KindAddObject }
func (*AddObjectResponse) Kind() Kind          { return KindAddObjectResponse }
func (*DeleteObject) Kind() Kind               { return KindDeleteObject }
func (*DeleteObjectResponse) Kind() Kind       { return KindDeleteObjectResponse }
func (*Reboot) Kind() Kind                     { return KindReboot }
func (*RebootResponse) Kind() Kind             { return KindRebootResponse }
func (*Fault) Kind() Kind                      { return KindFault }
func (*GetRPCMethods) Kind() Kind              { return KindGetRPCMethods }
func (*GetRPCMethodsResponse) Kind() Kind      { return KindGetRPCMethodsResponse }
func (*Download) Kind() Kind                   { return KindDownload }
func (*DownloadResponse) Kind() Kind           { return KindDownloadResponse }
func (*TransferComplete) Kind() Kind           { return KindTransferComplete }
func (*TransferCompleteResponse) Kind() Kind   { return KindTransferCompleteResponse }
func (*Timeout) Kind() Kind                    { return KindTimeout }

// KindOf returns the kind of msg, or an empty Kind for nil.
func KindOf(msg Message) Kind {
	if msg == nil {
		return ""
	}
	return msg.Kind()
}
