package enodeb

import "errors"

var (
	ErrNotFound      = errors.New("enodeb: device not found")
	ErrSerialMissing = errors.New("enodeb: serial number is required")
)
