package trace

import "errors"

var (
	// ErrClosed is returned by Write after Close.
	ErrClosed = errors.New("trace: writer closed")

	// ErrInvalidSerial is returned for serials that cannot name a file.
	ErrInvalidSerial = errors.New("trace: invalid serial")
)
