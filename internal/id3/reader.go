package id3

import (
	"bytes"
	"encoding/binary"
	"fmt"

	binutil "github.com/simonhull/tagedit/internal/binary"
	"github.com/simonhull/tagedit/internal/types"
)

const stageID3 = "id3"

// ReadOption configures Read.
type ReadOption func(*readConfig)

type readConfig struct {
	maxCoverSize int
	skipCover    bool
}

// WithMaxCoverSize skips APIC frames whose payload is larger than n bytes.
// A warning is recorded for each skipped picture. n <= 0 means no limit.
func WithMaxCoverSize(n int) ReadOption {
	return func(c *readConfig) {
		c.maxCoverSize = n
	}
}

// WithoutCover skips APIC decoding entirely.
func WithoutCover() ReadOption {
	return func(c *readConfig) {
		c.skipCover = true
	}
}

// Tag is the frame-level view of a parsed tag.
type Tag struct {
	Header   Header
	Present  bool       // an ID3 header was found
	Frames   []RawFrame // frames in file order
	Offsets  []int64    // buffer offset of each frame header
	Size     int64      // bytes occupied by the tag, clipped to the buffer
	Warnings []types.Warning
}

// ReadResult is the outcome of Read.
type ReadResult struct {
	Tags     types.TagRecord
	Version  byte  // major version, 0 when no tag was found
	TagSize  int64 // bytes occupied by the tag at offset 0
	Warnings []types.Warning
}

// Parse walks the frames of the tag at the start of buf.
func Parse(buf []byte) *Tag {
	return parse(buf, readConfig{})
}

func (t *Tag) warn(offset int64, format string, args ...any) {
	t.Warnings = append(t.Warnings, types.Warning{
		Stage:   stageID3,
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
	})
}

func parse(buf []byte, cfg readConfig) *Tag {
	tag := &Tag{}

	header, ok := ParseHeader(buf)
	if !ok {
		return tag
	}
	tag.Header = header
	tag.Present = true
	tag.Size = int64(TagLength(buf))

	if !header.Supported() {
		tag.warn(3, "unsupported ID3v2 version 2.%d", header.Version)
		return tag
	}
	if !header.SizeOK {
		tag.warn(6, "tag size is not a valid synchsafe integer")
	}
	if header.Flags&flagUnsynchronisation != 0 {
		tag.warn(5, "tag-level unsynchronisation is not supported; frames may decode incorrectly")
	}

	sr := binutil.NewSafeReader(bytes.NewReader(buf), int64(len(buf)), "tag")

	tagEnd := int64(HeaderSize) + int64(header.Size)
	if tagEnd > sr.Size() {
		tag.warn(6, "declared tag size %d exceeds buffer (%d bytes)", header.Size, sr.Size()-HeaderSize)
		tagEnd = sr.Size()
	}

	offset := int64(HeaderSize)
	if header.Flags&flagExtendedHeader != 0 {
		offset = skipExtendedHeader(sr, header, offset)
		if offset > tagEnd {
			tag.warn(HeaderSize, "extended header runs past tag end")
			return tag
		}
	}

	for tagEnd-offset >= FrameHeaderSize {
		fh, err := sr.Bytes(offset, FrameHeaderSize, "frame header")
		if err != nil {
			tag.warn(offset, "%v", err)
			break
		}

		// Padding (null bytes indicate end of frames)
		if bytes.Equal(fh[0:4], []byte{0, 0, 0, 0}) {
			break
		}

		id := string(fh[0:4])
		if !ValidID(id) {
			tag.warn(offset, "invalid frame ID %q, stopping", id)
			break
		}

		size, sizeOK := header.frameSize(fh[4:8])
		if !sizeOK {
			tag.warn(offset+4, "frame %s size is not a valid synchsafe integer", id)
		}
		flags := binary.BigEndian.Uint16(fh[8:10])

		dataOffset := offset + FrameHeaderSize
		if int64(size) > tagEnd-dataOffset {
			tag.warn(offset, "frame %s (%d bytes) runs past tag end", id, size)
			break
		}
		next := dataOffset + int64(size)

		if reason := unsupportedEncoding(header.Version, flags); reason != "" {
			tag.warn(offset, "skipping %s frame %s", reason, id)
			offset = next
			continue
		}

		if id == idPicture {
			if cfg.skipCover {
				offset = next
				continue
			}
			if cfg.maxCoverSize > 0 && int(size) > cfg.maxCoverSize {
				tag.warn(offset, "skipping %d byte picture (limit %d)", size, cfg.maxCoverSize)
				offset = next
				continue
			}
		}

		payload, err := sr.Bytes(dataOffset, int(size), fmt.Sprintf("frame %s data", id))
		if err != nil {
			tag.warn(offset, "%v", err)
			break
		}
		if prefix := payloadPrefix(header.Version, flags); prefix > 0 {
			if prefix > len(payload) {
				tag.warn(offset, "frame %s too short for its header extensions", id)
				offset = next
				continue
			}
			payload = payload[prefix:]
		}

		tag.Frames = append(tag.Frames, RawFrame{ID: id, Flags: flags, Payload: payload})
		tag.Offsets = append(tag.Offsets, offset)
		offset = next
	}

	return tag
}

// skipExtendedHeader returns the offset of the first frame after an
// extended header starting at offset.
func skipExtendedHeader(sr *binutil.SafeReader, header Header, offset int64) int64 {
	raw, err := sr.Bytes(offset, 4, "extended header size")
	if err != nil {
		return sr.Size() + 1
	}
	if header.Version == 4 {
		// v2.4: synchsafe size including the size field itself
		size, _ := binutil.DecodeSynchsafe(raw)
		return offset + int64(size)
	}
	// v2.3: plain size excluding the size field
	return offset + 4 + int64(binary.BigEndian.Uint32(raw))
}

// Read decodes the tag at the start of buf into a TagRecord. It never
// fails: problems are reported as warnings and whatever decoded before
// them is kept.
func Read(buf []byte, opts ...ReadOption) *ReadResult {
	var cfg readConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	tag := parse(buf, cfg)
	result := &ReadResult{
		Version:  tag.Header.Version,
		TagSize:  tag.Size,
		Warnings: tag.Warnings,
	}
	if !tag.Present {
		return result
	}

	var (
		rec          types.TagRecord
		seen         = make(map[types.Field]bool)
		comment      *Comment
		recording    string
		cover        *types.Cover
		coverIsFront bool
	)

	for i, f := range tag.Frames {
		switch {
		case f.ID == idPicture:
			if coverIsFront {
				continue
			}
			pic, err := DecodePicture(f.Payload)
			if err != nil {
				result.warn(tag.Offsets[i], "%v", err)
				continue
			}
			if cover == nil || pic.PictureType == types.PictureFrontCover {
				cover = pic
				coverIsFront = pic.PictureType == types.PictureFrontCover
			}

		case f.ID == idRecordingTime:
			if recording == "" {
				recording = leadingYear(DecodeText(f))
			}

		case f.ID == "COMM":
			c, err := DecodeComment(f.Payload)
			if err != nil {
				result.warn(tag.Offsets[i], "%v", err)
				continue
			}
			// Prefer the comment without a description
			if comment == nil || (comment.Description != "" && c.Description == "") {
				comment = &c
			}

		default:
			entry, ok := specByID[f.ID]
			if !ok || seen[entry.Field] {
				continue
			}
			seen[entry.Field] = true
			rec = rec.With(entry.Field, DecodeText(f))
		}
	}

	if comment != nil {
		rec = rec.With(types.FieldComment, comment.Text)
	}
	if rec.Year == "" && recording != "" {
		rec = rec.With(types.FieldYear, recording)
	}
	result.Tags = rec.WithCover(cover)
	return result
}

func (r *ReadResult) warn(offset int64, format string, args ...any) {
	r.Warnings = append(r.Warnings, types.Warning{
		Stage:   stageID3,
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
	})
}
