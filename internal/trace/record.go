package trace

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/nerrad567/enodebd/internal/tr069"
)

// Direction tells whether a message came from the device or went to it.
type Direction uint8

const (
	// Inbound messages were sent by the device.
	Inbound Direction = 1
	// Outbound messages were sent by the ACS.
	Outbound Direction = 2
)

func (d Direction) String() string {
	switch d {
	case Inbound:
		return "in"
	case Outbound:
		return "out"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// Record is one traced message.
type Record struct {
	Serial    string     `cbor:"1,keyasint"`
	Session   string     `cbor:"2,keyasint,omitempty"`
	Direction Direction  `cbor:"3,keyasint"`
	Kind      tr069.Kind `cbor:"4,keyasint"`
	State     string     `cbor:"5,keyasint,omitempty"`
	Body      []byte     `cbor:"6,keyasint,omitempty"` // JSON message body
	Error     string     `cbor:"7,keyasint,omitempty"`
	Time      time.Time  `cbor:"8,keyasint"`
}

// Message decodes the traced body back into a message.
func (r Record) Message() (tr069.Message, error) {
	return tr069.Decode(tr069.Envelope{Kind: r.Kind, Body: r.Body})
}

// NewRecord builds a record for msg. A nil msg yields a record with no kind,
// used when a turn failed before producing a reply.
func NewRecord(serial, session, state string, dir Direction, msg tr069.Message, at time.Time) (Record, error) {
	rec := Record{
		Serial:    serial,
		Session:   session,
		Direction: dir,
		State:     state,
		Time:      at.UTC(),
	}
	if msg == nil {
		return rec, nil
	}
	env, err := tr069.Encode(msg)
	if err != nil {
		return Record{}, err
	}
	rec.Kind = env.Kind
	rec.Body = env.Body
	return rec, nil
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace: cbor encoder mode: %v", err))
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("trace: cbor decoder mode: %v", err))
	}
}

func newEncoder(w io.Writer) *cbor.Encoder { return encMode.NewEncoder(w) }

func newDecoder(r io.Reader) *cbor.Decoder { return decMode.NewDecoder(r) }
