// Package binary provides bounds-checked binary primitives for tag parsing and writing.
package binary

import (
	"encoding/binary"
	"fmt"
	"io"
)

// SafeReader bounds-checks every read against a fixed size so a lying
// length field becomes an error instead of a panic.
type SafeReader struct {
	r    io.ReaderAt
	name string
	size int64
}

// NewSafeReader creates a new SafeReader.
//
// name is only used to give error messages some context ("upload.mp3",
// "<buffer>", ...).
func NewSafeReader(r io.ReaderAt, size int64, name string) *SafeReader {
	return &SafeReader{r: r, name: name, size: size}
}

// Name returns the label used in error messages.
func (sr *SafeReader) Name() string {
	return sr.name
}

// Size returns the number of readable bytes.
func (sr *SafeReader) Size() int64 {
	return sr.size
}

// ReadAt fills b from off. what names the field being read.
func (sr *SafeReader) ReadAt(b []byte, off int64, what string) error {
	if off < 0 || off >= sr.size {
		return fmt.Errorf("%s: offset %d out of bounds (size: %d) while reading %s",
			sr.name, off, sr.size, what)
	}

	if off+int64(len(b)) > sr.size {
		return fmt.Errorf("%s: read of %d bytes at offset %d would exceed size %d while reading %s",
			sr.name, len(b), off, sr.size, what)
	}

	n, err := sr.r.ReadAt(b, off)
	if err != nil && err != io.EOF {
		return fmt.Errorf("%s: failed to read %s at offset %d: %w", sr.name, what, off, err)
	}

	if n < len(b) {
		return fmt.Errorf("%s: short read for %s at offset %d: got %d bytes, expected %d",
			sr.name, what, off, n, len(b))
	}

	return nil
}

// Bytes reads n bytes at off into a freshly allocated slice.
func (sr *SafeReader) Bytes(off int64, n int, what string) ([]byte, error) {
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if err := sr.ReadAt(buf, off, what); err != nil {
		return nil, err
	}
	return buf, nil
}

// Read decodes a big-endian T stored at off.
func Read[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string) (T, error) {
	var val T
	var scratch [8]byte
	buf := scratch[:sizeOf(val)]
	if err := sr.ReadAt(buf, off, what); err != nil {
		return val, err
	}
	switch p := any(&val).(type) {
	case *uint8:
		*p = buf[0]
	case *uint16:
		*p = binary.BigEndian.Uint16(buf)
	case *uint32:
		*p = binary.BigEndian.Uint32(buf)
	case *uint64:
		*p = binary.BigEndian.Uint64(buf)
	}
	return val, nil
}

func sizeOf(v any) int {
	switch v.(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	}
	return 8
}
