package id3

import (
	"bytes"
	"errors"
	"fmt"

	binutil "github.com/simonhull/tagedit/internal/binary"
	"github.com/simonhull/tagedit/internal/mpeg"
	"github.com/simonhull/tagedit/internal/types"
)

// WriteOption configures Write.
type WriteOption func(*writeConfig)

type writeConfig struct {
	strictCover bool
	audioCheck  bool
}

// WithStrictCover makes an invalid cover fail the write with
// *types.InvalidCoverError instead of omitting the APIC frame.
func WithStrictCover() WriteOption {
	return func(c *writeConfig) {
		c.strictCover = true
	}
}

// WithAudioCheck requires an MPEG audio frame in the payload behind the
// tag. Without one the write fails with *types.CorruptedFileError.
func WithAudioCheck() WriteOption {
	return func(c *writeConfig) {
		c.audioCheck = true
	}
}

// WriteResult is the outcome of Write.
type WriteResult struct {
	Data     []byte // header + frames + original audio
	TagSize  int    // bytes of Data occupied by the new tag
	Frames   []string
	Warnings []types.Warning
}

// Write replaces the tag at the start of buf with a fresh ID3v2.3 tag built
// from tags and cover. Every byte after the old tag is copied unchanged.
//
// Only the cover argument produces an APIC frame; tags.Cover is ignored, so
// a picture is dropped unless it is passed again.
func Write(buf []byte, tags types.TagRecord, cover *types.Cover, opts ...WriteOption) (*WriteResult, error) {
	var cfg writeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	audio := Strip(buf)
	result := &WriteResult{}

	if cfg.audioCheck {
		if _, err := mpeg.Probe(audio, 0); err != nil {
			return nil, &types.CorruptedFileError{
				Name:   "audio",
				Reason: err.Error(),
				Offset: int64(len(buf) - len(audio)),
			}
		}
	}

	frames, err := buildFrames(tags)
	if err != nil {
		return nil, err
	}

	if cover != nil {
		pic, err := coverFrame(buf, cover)
		var coverErr *types.InvalidCoverError
		switch {
		case errors.As(err, &coverErr) && !cfg.strictCover:
			result.Warnings = append(result.Warnings, types.Warning{
				Stage:   "cover",
				Message: "cover omitted: " + coverErr.Error(),
			})
		case err != nil:
			return nil, err
		default:
			frames = append(frames, pic)
		}
	}

	var body int64
	for _, f := range frames {
		body += int64(f.Size())
	}
	if body > binutil.MaxSynchsafe {
		return nil, &types.TagTooLargeError{Size: body}
	}

	out := bytes.NewBuffer(make([]byte, 0, HeaderSize+int(body)+len(audio)))
	sw := binutil.NewSafeWriter(out)
	if err := writeHeader(sw, uint32(body)); err != nil {
		return nil, err
	}
	for _, f := range frames {
		if err := f.writeTo(sw); err != nil {
			return nil, fmt.Errorf("writing frame %s: %w", f.ID, err)
		}
		result.Frames = append(result.Frames, f.ID)
	}
	result.TagSize = int(sw.Offset())
	if err := sw.WriteBytes(audio); err != nil {
		return nil, err
	}

	result.Data = out.Bytes()
	return result, nil
}

// buildFrames emits one frame per non-blank field, in table order.
func buildFrames(tags types.TagRecord) ([]RawFrame, error) {
	frames := make([]RawFrame, 0, len(frameTable)+1)
	for _, entry := range frameTable {
		value := types.NormalizeText(tags.Get(entry.Field))
		if types.IsBlank(value) {
			continue
		}

		var (
			f   RawFrame
			err error
		)
		switch entry.Kind {
		case kindComment:
			f, err = CommentFrame(Comment{Language: DefaultLanguage, Text: value})
		default:
			f, err = TextFrame(entry.ID, value)
		}
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", entry.Field, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// coverFrame validates cover and builds its APIC frame. A cover whose
// bytes already sit in buf's tag is re-emitted without validation.
func coverFrame(buf []byte, cover *types.Cover) (RawFrame, error) {
	if err := cover.Validate(); err != nil && !hasPicture(buf, cover.Data) {
		return RawFrame{}, err
	}
	return PictureFrame(cover)
}

// hasPicture reports whether buf's existing tag holds an APIC with data.
func hasPicture(buf, data []byte) bool {
	if len(data) == 0 {
		return false
	}
	for _, f := range parse(buf, readConfig{}).Frames {
		if f.ID != idPicture {
			continue
		}
		if pic, err := DecodePicture(f.Payload); err == nil && bytes.Equal(pic.Data, data) {
			return true
		}
	}
	return false
}

// writeHeader writes "ID3", version 3.0, no flags, synchsafe size.
func writeHeader(sw *binutil.SafeWriter, size uint32) error {
	if size > binutil.MaxSynchsafe {
		return &types.TagTooLargeError{Size: int64(size)}
	}
	if err := sw.WriteBytes([]byte{'I', 'D', '3', 3, 0, 0}); err != nil {
		return err
	}
	return sw.WriteSynchsafe(size)
}
