package statemachine

// Conventional state names shared by the device profiles.
const (
	StateWaitInform           = "wait_inform"
	StateBootDelay            = "wait_rem"
	StateGetRPCMethods        = "get_rpc_methods"
	StateWaitEmpty            = "wait_empty"
	StateCheckOptionalParams  = "check_optional_params"
	StateCheckFirmware        = "check_fw_upgrade_download"
	StateDownload             = "fw_upgrade_download"
	StateWaitDownload         = "wait_fw_upgrade_download_response"
	StateGetTransientParams   = "get_transient_params"
	StateGetParams            = "get_params"
	StateGetObjectParams      = "get_obj_params"
	StateDeleteObjects        = "delete_objs"
	StateAddObjects           = "add_objs"
	StateSetParams            = "set_params"
	StateWaitSetParams        = "wait_set_params"
	StateCheckGetParams       = "check_get_params"
	StateEndSession           = "end_session"
	StateReboot               = "reboot"
	StateWaitReboot           = "wait_reboot"
	StateWaitPostRebootInform = "wait_post_reboot_inform"
	StateWaitRebootDelay      = "wait_reboot_delay"
	StateUnexpectedFault      = "unexpected_fault"
)
