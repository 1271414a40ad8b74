package deviceconfig

import "errors"

var (
	ErrUnknownParameter = errors.New("deviceconfig: unknown parameter")
	ErrObjectName       = errors.New("deviceconfig: name is an object")
	ErrFamilyMember     = errors.New("deviceconfig: name is an object member")
	ErrUnknownObject    = errors.New("deviceconfig: unknown object")
	ErrObjectExists     = errors.New("deviceconfig: object already exists")
	ErrObjectMissing    = errors.New("deviceconfig: object does not exist")
	ErrNotMember        = errors.New("deviceconfig: parameter not in object")
	ErrTooManyInstances = errors.New("deviceconfig: more instances than the device supports")
)
