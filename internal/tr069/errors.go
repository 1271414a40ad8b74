package tr069

import "errors"

var (
	// ErrUnknownKind is returned when decoding an envelope of an unknown kind.
	ErrUnknownKind = errors.New("tr069: unknown message kind")

	// ErrMalformed is returned when an envelope body does not match its kind.
	ErrMalformed = errors.New("tr069: malformed message")

	// ErrNilMessage is returned when encoding a nil message.
	ErrNilMessage = errors.New("tr069: nil message")
)
