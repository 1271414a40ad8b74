package statemachine

import (
	"github.com/nerrad567/enodebd/internal/datamodel"
	"github.com/nerrad567/enodebd/internal/fleet"
	"github.com/nerrad567/enodebd/internal/tr069"
)

// CheckFirmware branches to Download when the device runs other software
// than its fleet entry names and an image URL is configured, or to Skip.
// Each target is offered once until the machine is reset.
type CheckFirmware struct {
	Download string
	Skip     string
}

func (s *CheckFirmware) Describe() string  { return "Checking the firmware version" }
func (s *CheckFirmware) Targets() []string { return []string{s.Download, s.Skip} }

func (s *CheckFirmware) Write(m *Machine, _ tr069.Message) (WriteResult, error) {
	if _, _, due := m.firmwareDue(); due {
		return WriteResult{Next: s.Download}, nil
	}
	return WriteResult{Next: s.Skip}, nil
}

// SendDownload sends the Download for the fleet firmware image.
type SendDownload struct {
	Done string
}

func (s *SendDownload) Describe() string  { return "Sending the firmware download" }
func (s *SendDownload) Targets() []string { return []string{s.Done} }

func (s *SendDownload) Write(m *Machine, _ tr069.Message) (WriteResult, error) {
	target, image, due := m.firmwareDue()
	if !due {
		return WriteResult{Next: s.Done}, nil
	}
	m.firmwareAttempt = target
	req := &tr069.Download{
		CommandKey:     firmwareCommandKey(target),
		FileType:       tr069.FileTypeFirmware,
		URL:            image.URL,
		Username:       image.Username,
		Password:       image.Password,
		FileSize:       image.FileSize,
		TargetFileName: image.FileName,
	}
	m.logger.Info("sending firmware download", m.attrs("target", target, "url", image.URL)...)
	m.emit(Event{Kind: EventFirmware, From: m.current, Detail: "download sent", Attrs: map[string]any{"target": target}})
	return WriteResult{Message: req, Next: s.Done}, nil
}

// WaitDownloadResponse waits for the device to accept or refuse the
// Download. A refusal is reported and the session carries on.
type WaitDownloadResponse struct {
	Done string
}

func (s *WaitDownloadResponse) Describe() string  { return "Waiting for the download response" }
func (s *WaitDownloadResponse) Targets() []string { return []string{s.Done} }

func (s *WaitDownloadResponse) Read(m *Machine, msg tr069.Message) (ReadResult, error) {
	switch v := msg.(type) {
	case *tr069.DownloadResponse:
		m.logger.Info("firmware download accepted", m.attrs("status", v.Status)...)
	case *tr069.Fault:
		m.logger.Warn("firmware download refused", m.attrs("fault_code", v.FaultCode, "fault_string", v.FaultString)...)
		m.emit(Event{Kind: EventFirmware, From: m.current, Detail: "download refused",
			Attrs: map[string]any{"fault_code": v.FaultCode, "fault_string": v.FaultString}})
	default:
		return ReadResult{}, nil
	}
	return ReadResult{Handled: true, Next: s.Done}, nil
}

// firmwareDue reports the target and image of a download the device needs.
func (m *Machine) firmwareDue() (string, fleet.FirmwareImage, bool) {
	if m.settings == nil {
		return "", fleet.FirmwareImage{}, false
	}
	settings := m.settings.Lookup(m.serial)
	target, image := settings.FirmwareTarget, settings.Firmware
	if target == "" || image.URL == "" || target == m.firmwareAttempt {
		return "", fleet.FirmwareImage{}, false
	}
	running, ok := m.observed.Parameter(datamodel.NameSWVersion)
	if !ok || running == target {
		return "", fleet.FirmwareImage{}, false
	}
	return target, image, true
}

func firmwareCommandKey(target string) string { return "Firmware-" + target }

// transferComplete reports the end of a firmware transfer.
func (m *Machine) transferComplete(tc *tr069.TransferComplete) {
	attrs := map[string]any{"command_key": tc.CommandKey}
	detail := "transfer complete"
	if tc.FaultCode != 0 {
		detail = "transfer failed"
		attrs["fault_code"] = tc.FaultCode
		attrs["fault_string"] = tc.FaultString
		m.logger.Warn("transfer failed", m.attrs("command_key", tc.CommandKey, "fault_code", tc.FaultCode, "fault_string", tc.FaultString)...)
	} else {
		m.logger.Info("transfer complete", m.attrs("command_key", tc.CommandKey)...)
	}
	m.emit(Event{Kind: EventFirmware, From: m.current, Detail: detail, Attrs: attrs})
}
