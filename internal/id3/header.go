// Package id3 reads and writes ID3v2 tags at the start of an MP3 buffer.
//
// The reader accepts ID3v2.3 and ID3v2.4 tags and never fails: malformed
// input degrades to a partial or empty TagRecord plus warnings. The writer
// always emits ID3v2.3 with plain big-endian frame sizes and no padding.
package id3

import (
	"encoding/binary"

	binutil "github.com/simonhull/tagedit/internal/binary"
)

// HeaderSize is the size of the tag header, and of a v2.4 footer.
const HeaderSize = 10

// Header flag bits.
const (
	flagUnsynchronisation = 0x80
	flagExtendedHeader    = 0x40
	flagFooter            = 0x10
)

// Header is the fixed 10-byte ID3v2 tag header.
type Header struct {
	Version  byte // Major version (3 or 4)
	Revision byte
	Flags    byte
	Size     uint32 // Tag size excluding header (and footer)

	// SizeOK is false when the size field had a bit 7 set.
	SizeOK bool
}

// ParseHeader decodes the header at the start of buf. ok is false when buf
// does not start with an "ID3" identifier.
func ParseHeader(buf []byte) (Header, bool) {
	if len(buf) < HeaderSize || string(buf[0:3]) != "ID3" {
		return Header{}, false
	}
	size, sizeOK := binutil.DecodeSynchsafe(buf[6:10])
	return Header{
		Version:  buf[3],
		Revision: buf[4],
		Flags:    buf[5],
		Size:     size,
		SizeOK:   sizeOK,
	}, true
}

// Supported reports whether frames of this tag version can be walked.
func (h Header) Supported() bool {
	return h.Version == 3 || h.Version == 4
}

// HasFooter reports whether a v2.4 footer follows the frames.
func (h Header) HasFooter() bool {
	return h.Version == 4 && h.Flags&flagFooter != 0
}

// TotalSize is the number of bytes the tag occupies, header and footer
// included.
func (h Header) TotalSize() int64 {
	n := int64(HeaderSize) + int64(h.Size)
	if h.HasFooter() {
		n += HeaderSize
	}
	return n
}

// frameSize decodes a frame size field for this tag version.
func (h Header) frameSize(b []byte) (uint32, bool) {
	if h.Version == 4 {
		return binutil.DecodeSynchsafe(b)
	}
	return binary.BigEndian.Uint32(b), true
}

// TagLength returns how many leading bytes of buf belong to an ID3v2 tag,
// 0 when there is none. A declared size past the end of buf covers the
// whole buffer.
func TagLength(buf []byte) int {
	h, ok := ParseHeader(buf)
	if !ok {
		return 0
	}
	return int(min(h.TotalSize(), int64(len(buf))))
}

// Strip returns the audio payload of buf, the bytes after any leading tag.
// The returned slice aliases buf.
func Strip(buf []byte) []byte {
	return buf[TagLength(buf):]
}
