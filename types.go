package tagedit

import (
	"github.com/simonhull/tagedit/internal/mpeg"
	"github.com/simonhull/tagedit/internal/types"
)

// TagRecord is an alias to types.TagRecord.
// Re-exporting from internal/types to maintain public API.
type TagRecord = types.TagRecord

// Field is an alias to types.Field.
type Field = types.Field

// Re-export all field constants
const (
	FieldTitle       = types.FieldTitle
	FieldArtist      = types.FieldArtist
	FieldAlbum       = types.FieldAlbum
	FieldGenre       = types.FieldGenre
	FieldYear        = types.FieldYear
	FieldAlbumArtist = types.FieldAlbumArtist
	FieldComposer    = types.FieldComposer
	FieldTrack       = types.FieldTrack
	FieldComment     = types.FieldComment
	FieldCopyright   = types.FieldCopyright
)

// Fields returns an iterator over all text fields in frame order.
var Fields = types.Fields

// ParseField looks a field up by its JSON key.
var ParseField = types.ParseField

// Cover is an alias to types.Cover.
type Cover = types.Cover

// PictureType is an alias to types.PictureType.
type PictureType = types.PictureType

// Re-export the picture types used by the writer
const (
	PictureOther      = types.PictureOther
	PictureFrontCover = types.PictureFrontCover
	PictureBackCover  = types.PictureBackCover
)

// NewCover builds a front cover from image bytes, sniffing the MIME type
// when mimeType is empty.
func NewCover(data []byte, mimeType string) *Cover {
	return types.NewCover(data, mimeType)
}

// AudioInfo is an alias to mpeg.Info.
type AudioInfo = mpeg.Info

// ProbeAudio decodes the first MPEG audio frame after the tag in buf.
func ProbeAudio(buf []byte) (AudioInfo, error) {
	return mpeg.Probe(buf, int64(TagLength(buf)))
}
