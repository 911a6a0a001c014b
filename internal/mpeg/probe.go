// Package mpeg locates and decodes MPEG audio frame headers.
//
// It is used to sanity-check the audio payload behind an ID3v2 tag and to
// report technical details (bitrate, sample rate, duration) for uploads and
// the dump tool. Only Layer III streams are recognised.
package mpeg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	binutil "github.com/simonhull/tagedit/internal/binary"
)

// ErrNoFrame is returned when no Layer III frame header could be found.
var ErrNoFrame = errors.New("no MPEG audio frame found")

// Info describes the first audio frame of a stream.
type Info struct {
	Offset     int64 // Offset of the first frame header
	Version    Version
	Bitrate    int // bits per second (nominal for VBR)
	SampleRate int // Hz
	Channels   int
	VBR        bool
	Frames     uint32 // from the Xing/VBRI header, 0 when unknown
	Duration   time.Duration
}

// Version is the MPEG audio version.
type Version byte

const (
	Version25 Version = 0 // MPEG-2.5 (unofficial extension)
	Version2  Version = 2
	Version1  Version = 3
)

func (v Version) String() string {
	switch v {
	case Version1:
		return "MPEG-1"
	case Version2:
		return "MPEG-2"
	case Version25:
		return "MPEG-2.5"
	default:
		return "reserved"
	}
}

// Layer III bitrate tables in kbps.
var (
	bitrateV1 = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	bitrateV2 = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}
)

// Sample rate tables in Hz, indexed by version then rate index.
var sampleRates = map[Version][4]int{
	Version1:  {44100, 48000, 32000, 0},
	Version2:  {22050, 24000, 16000, 0},
	Version25: {11025, 12000, 8000, 0},
}

// Probe scans buf from offset for the first valid Layer III frame header
// and decodes it.
func Probe(buf []byte, offset int64) (Info, error) {
	if offset < 0 {
		offset = 0
	}
	sr := binutil.NewSafeReader(bytes.NewReader(buf), int64(len(buf)), "audio")
	size := sr.Size()

	for pos := offset; pos+4 <= size; pos++ {
		// Skip straight to the next candidate sync byte
		next := bytes.IndexByte(buf[pos:], 0xFF)
		if next < 0 {
			break
		}
		pos += int64(next)

		header, err := binutil.Read[uint32](sr, pos, "MPEG frame header")
		if err != nil {
			break
		}

		info, ok := decodeHeader(header)
		if !ok {
			continue
		}
		info.Offset = pos

		if frames, ok := readVBRFrames(sr, pos, info); ok {
			info.VBR = true
			info.Frames = frames
			info.Duration = durationFromFrames(frames, info)
		} else {
			info.Duration = estimateCBRDuration(info.Bitrate, size-pos)
		}
		return info, nil
	}

	return Info{}, fmt.Errorf("scanning from offset %d: %w", offset, ErrNoFrame)
}

// decodeHeader validates a 32-bit frame header and extracts its fields.
func decodeHeader(h uint32) (Info, bool) {
	// Frame sync: 11 bits set
	if h&0xFFE00000 != 0xFFE00000 {
		return Info{}, false
	}

	version := Version((h >> 19) & 0x3)
	layer := (h >> 17) & 0x3
	if version == 1 || layer != 1 { // reserved version, or not Layer III
		return Info{}, false
	}

	bitrateIdx := (h >> 12) & 0xF
	rateIdx := (h >> 10) & 0x3
	if bitrateIdx == 0 || bitrateIdx == 15 || rateIdx == 3 {
		return Info{}, false
	}

	table := bitrateV2
	if version == Version1 {
		table = bitrateV1
	}

	channels := 2
	if (h>>6)&0x3 == 3 {
		channels = 1
	}

	return Info{
		Version:    version,
		Bitrate:    table[bitrateIdx] * 1000,
		SampleRate: sampleRates[version][rateIdx],
		Channels:   channels,
	}, true
}

// sideInfoSize returns the Layer III side information length, which is
// where a Xing/Info header starts relative to the end of the frame header.
func sideInfoSize(info Info) int64 {
	if info.Version == Version1 {
		if info.Channels == 1 {
			return 17
		}
		return 32
	}
	if info.Channels == 1 {
		return 9
	}
	return 17
}

func samplesPerFrame(info Info) int {
	if info.Version == Version1 {
		return 1152
	}
	return 576
}

// readVBRFrames checks for a Xing/Info or VBRI header and returns the
// frame count it declares.
func readVBRFrames(sr *binutil.SafeReader, frameOffset int64, info Info) (uint32, bool) {
	xingOffset := frameOffset + 4 + sideInfoSize(info)
	if buf, err := sr.Bytes(xingOffset, 12, "Xing header"); err == nil {
		marker := string(buf[0:4])
		if marker == "Xing" || marker == "Info" {
			flags := binary.BigEndian.Uint32(buf[4:8])
			// Frames field is present if bit 0 is set
			if flags&0x0001 != 0 {
				return binary.BigEndian.Uint32(buf[8:12]), marker == "Xing"
			}
			return 0, false
		}
	}

	// VBRI always sits 32 bytes after the frame header
	if buf, err := sr.Bytes(frameOffset+4+32, 18, "VBRI header"); err == nil {
		if string(buf[0:4]) == "VBRI" {
			return binary.BigEndian.Uint32(buf[14:18]), true
		}
	}

	return 0, false
}

func durationFromFrames(frames uint32, info Info) time.Duration {
	if info.SampleRate == 0 {
		return 0
	}
	totalSamples := uint64(frames) * uint64(samplesPerFrame(info))
	seconds := float64(totalSamples) / float64(info.SampleRate)
	return time.Duration(seconds * float64(time.Second))
}

// estimateCBRDuration estimates duration for constant bitrate streams.
func estimateCBRDuration(bitrate int, audioSize int64) time.Duration {
	if bitrate == 0 || audioSize <= 0 {
		return 0
	}
	seconds := float64(audioSize*8) / float64(bitrate)
	return time.Duration(seconds * float64(time.Second))
}
