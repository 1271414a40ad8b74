package datamodel

import "github.com/nerrad567/enodebd/internal/tr069"

// Name is a vendor-independent logical parameter name.
type Name string

// Type is the value type of a parameter.
type Type int

// Parameter value types.
const (
	TypeInt Type = iota + 1
	TypeUnsignedInt
	TypeString
	TypeBoolean
	TypeObject
)

// String returns the TR-069 spelling of the type.
func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeUnsignedInt:
		return "unsignedInt"
	case TypeString:
		return "string"
	case TypeBoolean:
		return "boolean"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// XSD returns the xsd type used in SetParameterValues.
func (t Type) XSD() string {
	switch t {
	case TypeInt:
		return tr069.TypeInt
	case TypeUnsignedInt:
		return tr069.TypeUnsignedInt
	case TypeBoolean:
		return tr069.TypeBoolean
	default:
		return tr069.TypeString
	}
}

// PathNotRepresentable marks a descriptor that the device type cannot
// express in its data model.
const PathNotRepresentable = ""

// Descriptor describes one logical parameter for a device type.
type Descriptor struct {
	Name Name
	Path string
	Type Type

	// Invasive parameters take effect only after a reboot.
	Invasive bool

	// Optional parameters may be missing from the device; presence is
	// probed once per device.
	Optional bool
}

// Representable reports whether the descriptor has a protocol path.
func (d Descriptor) Representable() bool {
	return d.Path != PathNotRepresentable
}

// IsObject reports whether the descriptor is a container path.
func (d Descriptor) IsObject() bool {
	return d.Type == TypeObject
}

// Transform converts a value between device and canonical form.
type Transform func(v any) (any, error)
