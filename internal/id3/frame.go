package id3

import (
	"bytes"
	"fmt"

	binutil "github.com/simonhull/tagedit/internal/binary"
)

// FrameHeaderSize is the size of a v2.3/v2.4 frame header.
const FrameHeaderSize = 10

// Frame format flags (second flag byte).
const (
	v3FlagCompression = 0x0080
	v3FlagEncryption  = 0x0040
	v3FlagGrouping    = 0x0020

	v4FlagGrouping       = 0x0040
	v4FlagCompression    = 0x0008
	v4FlagEncryption     = 0x0004
	v4FlagUnsynchronised = 0x0002
	v4FlagDataLength     = 0x0001
)

// RawFrame is one undecoded frame of a tag.
type RawFrame struct {
	ID      string // 4-character frame ID, [A-Z0-9]
	Flags   uint16
	Payload []byte
}

// ValidID reports whether id is a well-formed v2.3/v2.4 frame ID.
func ValidID(id string) bool {
	if len(id) != 4 {
		return false
	}
	for i := range 4 {
		c := id[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// Size returns the encoded size of the frame, header included.
func (f RawFrame) Size() int {
	return FrameHeaderSize + len(f.Payload)
}

func (f RawFrame) String() string {
	return fmt.Sprintf("%s (%d bytes, flags %#04x)", f.ID, len(f.Payload), f.Flags)
}

// writeTo serialises the frame in v2.3 layout: plain big-endian size.
func (f RawFrame) writeTo(sw *binutil.SafeWriter) error {
	if !ValidID(f.ID) {
		return fmt.Errorf("invalid frame ID %q", f.ID)
	}
	if uint64(len(f.Payload)) > binutil.MaxSynchsafe {
		return fmt.Errorf("frame %s: payload of %d bytes too large", f.ID, len(f.Payload))
	}
	if err := sw.WriteString(f.ID); err != nil {
		return err
	}
	if err := binutil.Write(sw, uint32(len(f.Payload))); err != nil {
		return err
	}
	if err := binutil.Write(sw, f.Flags); err != nil {
		return err
	}
	return sw.WriteBytes(f.Payload)
}

// Bytes returns the v2.3 encoding of the frame.
func (f RawFrame) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(f.Size())
	if err := f.writeTo(binutil.NewSafeWriter(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unsupportedEncoding reports why a frame's payload cannot be decoded as
// stored, or "" when it can.
func unsupportedEncoding(version byte, flags uint16) string {
	if version == 4 {
		switch {
		case flags&v4FlagCompression != 0:
			return "compressed"
		case flags&v4FlagEncryption != 0:
			return "encrypted"
		case flags&v4FlagUnsynchronised != 0:
			return "unsynchronised"
		}
		return ""
	}
	switch {
	case flags&v3FlagCompression != 0:
		return "compressed"
	case flags&v3FlagEncryption != 0:
		return "encrypted"
	}
	return ""
}

// payloadPrefix returns how many leading payload bytes are frame header
// extensions (group id, data length indicator) rather than content.
func payloadPrefix(version byte, flags uint16) int {
	n := 0
	if version == 4 {
		if flags&v4FlagGrouping != 0 {
			n++
		}
		if flags&v4FlagDataLength != 0 {
			n += 4
		}
		return n
	}
	if flags&v3FlagGrouping != 0 {
		n++
	}
	return n
}
