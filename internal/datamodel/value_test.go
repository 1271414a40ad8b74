package datamodel

import (
	"errors"
	"testing"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		in      any
		want    any
		wantErr bool
	}{
		{"int from string", TypeInt, "-5", int64(-5), false},
		{"int from yaml int", TypeInt, 42, int64(42), false},
		{"int from json float", TypeInt, float64(7), int64(7), false},
		{"int rejects fraction", TypeInt, 1.5, nil, true},
		{"uint from int", TypeUnsignedInt, 100, uint64(100), false},
		{"uint rejects negative", TypeUnsignedInt, -1, nil, true},
		{"bool from 1", TypeBoolean, "1", true, false},
		{"bool from False", TypeBoolean, "False", false, false},
		{"bool rejects yes", TypeBoolean, "yes", nil, true},
		{"string from int", TypeString, 3, "3", false},
		{"object has no value", TypeObject, "x", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.typ, tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidValue) {
					t.Errorf("Coerce() error = %v, want ErrInvalidValue", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Coerce() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Coerce() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		typ  Type
		in   any
		want string
	}{
		{TypeBoolean, true, "1"},
		{TypeBoolean, false, "0"},
		{TypeInt, int64(-3), "-3"},
		{TypeUnsignedInt, 9600, "9600"},
		{TypeString, "00101", "00101"},
	}
	for _, tt := range tests {
		got, err := Format(tt.typ, tt.in)
		if err != nil {
			t.Fatalf("Format(%v) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
