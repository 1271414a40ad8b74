package tr069

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeInform(t *testing.T) {
	raw := `{"kind":"Inform","body":{"device_id":{"oui":"48BF74","serial_number":"120200002618AGP0003"},"events":["1 BOOT","M Reboot"],"parameters":[{"name":"Device.DeviceInfo.SoftwareVersion","value":"BaiBS_RTS_3.1.6"}]}}`

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	msg, err := Decode(env)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	inform, ok := msg.(*Inform)
	if !ok {
		t.Fatalf("Decode() type = %T, want *Inform", msg)
	}
	if inform.DeviceID.SerialNumber != "120200002618AGP0003" {
		t.Errorf("SerialNumber = %q", inform.DeviceID.SerialNumber)
	}
	if !inform.HasEvent(EventBoot) || !inform.HasEvent(EventMReboot) {
		t.Errorf("HasEvent() missing boot events: %v", inform.Events)
	}
	if inform.HasEvent(EventPeriodic) {
		t.Error("HasEvent(periodic) = true, want false")
	}
}

func TestDecodeEmptyBody(t *testing.T) {
	msg, err := Decode(Envelope{Kind: KindEmptyTurn})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if _, ok := msg.(*EmptyTurn); !ok {
		t.Fatalf("Decode() type = %T, want *EmptyTurn", msg)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
		want error
	}{
		{"unknown kind", Envelope{Kind: "ScheduleInform"}, ErrUnknownKind},
		{"timeout is internal", Envelope{Kind: KindTimeout}, ErrUnknownKind},
		{"unknown field", Envelope{Kind: KindAddObjectResponse, Body: json.RawMessage(`{"instance":3}`)}, ErrMalformed},
		{"wrong type", Envelope{Kind: KindSetParameterValuesResponse, Body: json.RawMessage(`{"status":"zero"}`)}, ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.env)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncodeKeepsKind(t *testing.T) {
	env, err := Encode(&AddObject{ObjectName: "Device.Services.FAPService.1.CellConfig.LTE.EPC.PLMNList."})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if env.Kind != KindAddObject {
		t.Errorf("Kind = %q, want %q", env.Kind, KindAddObject)
	}

	if _, err := Encode(nil); !errors.Is(err, ErrNilMessage) {
		t.Errorf("Encode(nil) error = %v, want ErrNilMessage", err)
	}
}

func TestDecodeDownloadResponse(t *testing.T) {
	msg, err := Decode(Envelope{Kind: KindDownloadResponse, Body: json.RawMessage(`{"status":1}`)})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	resp, ok := msg.(*DownloadResponse)
	if !ok {
		t.Fatalf("Decode() type = %T, want *DownloadResponse", msg)
	}
	if resp.Status != 1 {
		t.Errorf("Status = %d, want 1", resp.Status)
	}
}
