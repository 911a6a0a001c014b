package binary

import (
	"encoding/binary"
	"io"
)

// SafeWriter tracks how many bytes reached the underlying writer and
// remembers the first write error. Once an error is recorded every later
// write is dropped and returns the same error.
type SafeWriter struct {
	w      io.Writer
	offset int64
	err    error
}

// NewSafeWriter creates a new SafeWriter.
func NewSafeWriter(w io.Writer) *SafeWriter {
	return &SafeWriter{w: w}
}

// Offset returns the number of bytes written so far.
func (sw *SafeWriter) Offset() int64 {
	return sw.offset
}

// Err returns the first error seen, if any.
func (sw *SafeWriter) Err() error {
	return sw.err
}

// WriteBytes writes b unless an earlier write failed.
func (sw *SafeWriter) WriteBytes(b []byte) error {
	if sw.err != nil {
		return sw.err
	}
	n, err := sw.w.Write(b)
	sw.offset += int64(n)
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	sw.err = err
	return err
}

// WriteString writes the raw bytes of s.
func (sw *SafeWriter) WriteString(s string) error {
	return sw.WriteBytes([]byte(s))
}

// WriteSynchsafe writes v as a 4-byte synchsafe integer.
func (sw *SafeWriter) WriteSynchsafe(v uint32) error {
	if sw.err != nil {
		return sw.err
	}
	b, err := EncodeSynchsafe(v)
	if err != nil {
		sw.err = err
		return err
	}
	return sw.WriteBytes(b[:])
}

// Write appends val to sw in big-endian order.
func Write[T uint8 | uint16 | uint32 | uint64](sw *SafeWriter, val T) error {
	var scratch [8]byte
	var out []byte
	switch v := any(val).(type) {
	case uint8:
		out = append(scratch[:0], v)
	case uint16:
		out = binary.BigEndian.AppendUint16(scratch[:0], v)
	case uint32:
		out = binary.BigEndian.AppendUint32(scratch[:0], v)
	case uint64:
		out = binary.BigEndian.AppendUint64(scratch[:0], v)
	}
	return sw.WriteBytes(out)
}
