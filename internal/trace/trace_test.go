package trace

import (
	"errors"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/nerrad567/enodebd/internal/tr069"
)

var testTime = time.Date(2026, 10, 19, 9, 30, 0, 123456789, time.UTC)

func writeExchange(t *testing.T, w *Writer, serial string) {
	t.Helper()
	steps := []struct {
		dir Direction
		msg tr069.Message
	}{
		{Inbound, &tr069.Inform{DeviceID: tr069.DeviceID{OUI: "48BF74", SerialNumber: serial}, Events: []string{tr069.EventBoot}}},
		{Outbound, &tr069.InformResponse{MaxEnvelopes: 1}},
		{Inbound, &tr069.EmptyTurn{}},
		{Outbound, &tr069.GetParameterValues{Names: []string{"Device.DeviceInfo.SoftwareVersion"}}},
	}
	for i, s := range steps {
		rec, err := NewRecord(serial, "sess-1", "wait_inform", s.dir, s.msg, testTime.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("NewRecord: %v", err)
		}
		if err := w.Write(rec); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
}

func readAll(t *testing.T, path string) []Record {
	t.Helper()
	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	recs, err := r.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	return recs
}

func TestWriterRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "zstd"
		}
		t.Run(name, func(t *testing.T) {
			w, err := NewWriter(t.TempDir(), compress)
			if err != nil {
				t.Fatalf("NewWriter: %v", err)
			}
			writeExchange(t, w, "120200002618AGP0003")
			if err := w.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			recs := readAll(t, w.Path("120200002618AGP0003"))
			if len(recs) != 4 {
				t.Fatalf("got %d records, want 4", len(recs))
			}
			kinds := make([]tr069.Kind, len(recs))
			for i, r := range recs {
				kinds[i] = r.Kind
			}
			want := []tr069.Kind{tr069.KindInform, tr069.KindInformResponse, tr069.KindEmptyTurn, tr069.KindGetParameterValues}
			if !slices.Equal(kinds, want) {
				t.Errorf("kinds = %v, want %v", kinds, want)
			}
			if recs[1].Direction != Outbound || recs[0].Direction != Inbound {
				t.Errorf("directions = %v, %v", recs[0].Direction, recs[1].Direction)
			}
			if !recs[0].Time.Equal(testTime) {
				t.Errorf("time = %v, want %v", recs[0].Time, testTime)
			}

			msg, err := recs[3].Message()
			if err != nil {
				t.Fatalf("Message: %v", err)
			}
			gpv, ok := msg.(*tr069.GetParameterValues)
			if !ok || len(gpv.Names) != 1 {
				t.Errorf("decoded %#v", msg)
			}
		})
	}
}

func TestWriterAppendsAcrossReopen(t *testing.T) {
	for _, compress := range []bool{false, true} {
		dir := t.TempDir()
		for range 2 {
			w, err := NewWriter(dir, compress)
			if err != nil {
				t.Fatalf("NewWriter: %v", err)
			}
			writeExchange(t, w, "SN1")
			if err := w.Release("SN1"); err != nil {
				t.Fatalf("Release: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
		}
		w, _ := NewWriter(dir, compress)
		if got := len(readAll(t, w.Path("SN1"))); got != 8 {
			t.Errorf("compress=%v: got %d records, want 8", compress, got)
		}
	}
}

func TestWriterRejectsUnsafeSerials(t *testing.T) {
	w, err := NewWriter(t.TempDir(), false)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	for _, serial := range []string{"", "..", "a/b", `a\b`} {
		err := w.Write(Record{Serial: serial})
		if !errors.Is(err, ErrInvalidSerial) {
			t.Errorf("Write(%q) err = %v, want ErrInvalidSerial", serial, err)
		}
	}
}

func TestWriteAfterClose(t *testing.T) {
	w, err := NewWriter(t.TempDir(), false)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := w.Write(Record{Serial: "SN1"}); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
	if _, err := os.Stat(w.Path("SN1")); !os.IsNotExist(err) {
		t.Errorf("file created after close: %v", err)
	}
}

func TestNewRecordWithoutMessage(t *testing.T) {
	rec, err := NewRecord("SN1", "", "error", Outbound, nil, testTime)
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	if rec.Kind != "" || rec.Body != nil {
		t.Errorf("record = %+v, want empty kind and body", rec)
	}
}
