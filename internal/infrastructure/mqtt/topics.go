package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every enodebd topic.
const TopicPrefix = "enodebd"

// Command segments accepted under enodebd/command/{serial}/.
const (
	CommandReboot = "reboot"
	CommandReset  = "reset"
)

// Topics builds enodebd topic names.
type Topics struct{}

// SystemStatus is the retained daemon status topic.
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// DeviceStatus is the retained status topic of one device.
func (Topics) DeviceStatus(serial string) string {
	return fmt.Sprintf("%s/status/%s", TopicPrefix, serial)
}

// DeviceEvents carries the session events of one device.
func (Topics) DeviceEvents(serial string) string {
	return fmt.Sprintf("%s/events/%s", TopicPrefix, serial)
}

// DeviceCommand is where a command for one device is sent.
func (Topics) DeviceCommand(serial, command string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, serial, command)
}

// AllDeviceCommands matches every command for every device.
func (Topics) AllDeviceCommands() string {
	return TopicPrefix + "/command/+/+"
}

// ParseDeviceCommand splits a command topic into serial and command.
func ParseDeviceCommand(topic string) (serial, command string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != TopicPrefix || parts[1] != "command" || parts[2] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("%w: %q is not a command topic", ErrInvalidTopic, topic)
	}
	return parts[2], parts[3], nil
}

// ValidSerial reports whether serial can be used as a topic level.
func ValidSerial(serial string) bool {
	return serial != "" && !strings.ContainsAny(serial, "/+#")
}
