package enodeb

import (
	"time"

	"github.com/nerrad567/enodebd/internal/deviceconfig"
)

// Record is the stored view of one device.
type Record struct {
	Serial           string                 `json:"serial"`
	DeviceType       string                 `json:"device_type"`
	State            string                 `json:"state"`
	StateDescription string                 `json:"state_description"`
	SessionID        string                 `json:"session_id,omitempty"`
	InvasiveApplied  bool                   `json:"invasive_applied"`
	LastError        string                 `json:"last_error,omitempty"`
	SWVersion        string                 `json:"sw_version,omitempty"`
	OUI              string                 `json:"oui,omitempty"`
	Observed         deviceconfig.Snapshot  `json:"observed"`
	Desired          *deviceconfig.Snapshot `json:"desired,omitempty"`
	FirstSeen        time.Time              `json:"first_seen"`
	LastSeen         time.Time              `json:"last_seen"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// Transition is one state change of a device.
type Transition struct {
	ID        int64     `json:"id"`
	Serial    string    `json:"serial"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Reason    string    `json:"reason,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
