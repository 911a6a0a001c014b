package id3

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// fakeAudio looks like the start of an MPEG-1 Layer III stream.
var fakeAudio = []byte{0xFF, 0xFB, 0x90, 0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}

// v3Frame builds a v2.3 frame with a plain big-endian size.
func v3Frame(id string, payload []byte) []byte {
	b := make([]byte, 10, 10+len(payload))
	copy(b, id)
	binary.BigEndian.PutUint32(b[4:8], uint32(len(payload)))
	return append(b, payload...)
}

// v4Frame builds a v2.4 frame with a synchsafe size.
func v4Frame(id string, flags uint16, payload []byte) []byte {
	b := make([]byte, 10, 10+len(payload))
	copy(b, id)
	n := len(payload)
	b[4], b[5], b[6], b[7] = byte(n>>21)&0x7F, byte(n>>14)&0x7F, byte(n>>7)&0x7F, byte(n)&0x7F
	binary.BigEndian.PutUint16(b[8:10], flags)
	return append(b, payload...)
}

// latin1 builds a text frame payload with encoding 0.
func latin1(s string) []byte {
	return append([]byte{0}, s...)
}

// buildTag wraps frames in a tag header of the given version, declaring
// the frames plus padding bytes.
func buildTag(version byte, flags byte, padding int, frames ...[]byte) []byte {
	body := bytes.Join(frames, nil)
	body = append(body, make([]byte, padding)...)
	n := len(body)
	header := []byte{'I', 'D', '3', version, 0, flags,
		byte(n>>21) & 0x7F, byte(n>>14) & 0x7F, byte(n>>7) & 0x7F, byte(n) & 0x7F}
	return append(header, body...)
}

func withAudio(tag []byte) []byte {
	return append(append([]byte{}, tag...), fakeAudio...)
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 40), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
