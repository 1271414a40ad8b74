package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

const (
	fileExt     = ".cbor"
	zstdExt     = ".zst"
	filePerm    = 0o644
	dirPerm     = 0o755
	maxSerialLn = 64
)

type deviceFile struct {
	file *os.File
	zw   *zstd.Encoder
	enc  *cbor.Encoder
}

func (d *deviceFile) close() error {
	var errs []error
	if d.zw != nil {
		errs = append(errs, d.zw.Close())
	}
	errs = append(errs, d.file.Close())
	return errors.Join(errs...)
}

// Writer appends records to one file per device. It is safe for
// concurrent use.
type Writer struct {
	dir      string
	compress bool

	mu     sync.Mutex
	files  map[string]*deviceFile
	closed bool
}

// NewWriter creates dir if needed and returns a writer into it.
func NewWriter(dir string, compress bool) (*Writer, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("creating trace dir: %w", err)
	}
	return &Writer{
		dir:      dir,
		compress: compress,
		files:    make(map[string]*deviceFile),
	}, nil
}

// Path returns the file that records for serial are written to.
func (w *Writer) Path(serial string) string {
	name := serial + fileExt
	if w.compress {
		name += zstdExt
	}
	return filepath.Join(w.dir, name)
}

// Write appends rec to its device's file, opening it on first use.
func (w *Writer) Write(rec Record) error {
	if !validSerial(rec.Serial) {
		return fmt.Errorf("%w: %q", ErrInvalidSerial, rec.Serial)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	df, err := w.open(rec.Serial)
	if err != nil {
		return err
	}
	if err := df.enc.Encode(rec); err != nil {
		return fmt.Errorf("encoding trace record: %w", err)
	}
	if df.zw != nil {
		if err := df.zw.Flush(); err != nil {
			return fmt.Errorf("flushing trace: %w", err)
		}
	}
	return nil
}

func (w *Writer) open(serial string) (*deviceFile, error) {
	if df, ok := w.files[serial]; ok {
		return df, nil
	}
	f, err := os.OpenFile(w.Path(serial), os.O_CREATE|os.O_APPEND|os.O_WRONLY, filePerm)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}

	df := &deviceFile{file: f}
	var out io.Writer = f
	if w.compress {
		zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("creating zstd writer: %w", err)
		}
		df.zw = zw
		out = zw
	}
	df.enc = newEncoder(out)
	w.files[serial] = df
	return df, nil
}

// Release closes the file for serial. A later Write reopens it.
func (w *Writer) Release(serial string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	df, ok := w.files[serial]
	if !ok {
		return nil
	}
	delete(w.files, serial)
	return df.close()
}

// Close closes every open file. It is safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	for serial, df := range w.files {
		errs = append(errs, df.close())
		delete(w.files, serial)
	}
	return errors.Join(errs...)
}

func validSerial(s string) bool {
	if s == "" || len(s) > maxSerialLn || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`+"\x00")
}
