package datamodel

import "errors"

var (
	// ErrUnknownName is returned for a logical name not in the model.
	ErrUnknownName = errors.New("datamodel: unknown parameter")

	// ErrNotRepresentable is returned when a parameter has no protocol path
	// for this device type.
	ErrNotRepresentable = errors.New("datamodel: parameter not representable")

	// ErrInvalidValue is returned when a value cannot be converted to the
	// parameter's type.
	ErrInvalidValue = errors.New("datamodel: invalid value")

	// ErrInvalidModel is returned by Build when the catalog is inconsistent.
	ErrInvalidModel = errors.New("datamodel: invalid model")
)
