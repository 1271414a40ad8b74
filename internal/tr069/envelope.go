package tr069

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the JSON form of a message used by the HTTP message bridge
// and by tests. The body is the message struct itself.
type Envelope struct {
	Kind Kind            `json:"kind"`
	Body json.RawMessage `json:"body,omitempty"`
}

// newMessage returns a zero value of the message type for kind.
func newMessage(kind Kind) (Message, error) {
	switch kind {
	case KindInform:
		return &Inform{}, nil
	case KindInformResponse:
		return &InformResponse{}, nil
	case KindEmptyTurn:
		return &EmptyTurn{}, nil
	case KindGetParameterValues:
		return &GetParameterValues{}, nil
	case KindGetParameterValuesResponse:
		return &GetParameterValuesResponse{}, nil
	case KindSetParameterValues:
		return &SetParameterValues{}, nil
	case KindSetParameterValuesResponse:
		return &SetParameterValuesResponse{}, nil
	case KindAddObject:
		return &AddObject{}, nil
	case KindAddObjectResponse:
		return &AddObjectResponse{}, nil
	case KindDeleteObject:
		return &DeleteObject{}, nil
	case KindDeleteObjectResponse:
		return &DeleteObjectResponse{}, nil
	case KindReboot:
		return &Reboot{}, nil
	case KindRebootResponse:
		return &RebootResponse{}, nil
	case KindFault:
		return &Fault{}, nil
	case KindGetRPCMethods:
		return &GetRPCMethods{}, nil
	case KindGetRPCMethodsResponse:
		return &GetRPCMethodsResponse{}, nil
	case KindDownload:
		return &Download{}, nil
	case KindDownloadResponse:
		return &DownloadResponse{}, nil
	case KindTransferComplete:
		return &TransferComplete{}, nil
	case KindTransferCompleteResponse:
		return &TransferCompleteResponse{}, nil
	default:
		// Timeout is deliberately absent: it is internal only.
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Encode wraps msg in an Envelope.
func Encode(msg Message) (Envelope, error) {
	if msg == nil {
		return Envelope{}, ErrNilMessage
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshalling %s: %w", msg.Kind(), err)
	}
	return Envelope{Kind: msg.Kind(), Body: body}, nil
}

// Decode unwraps an Envelope into its message. An empty body decodes to the
// zero message of the kind.
func Decode(env Envelope) (Message, error) {
	msg, err := newMessage(env.Kind)
	if err != nil {
		return nil, err
	}
	body := bytes.TrimSpace(env.Body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return msg, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Kind, err)
	}
	return msg, nil
}
