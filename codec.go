package tagedit

import (
	"github.com/simonhull/tagedit/internal/id3"
)

// ReadResult is the outcome of Inspect: the record plus tag version, tag
// size and warnings.
type ReadResult = id3.ReadResult

// WriteResult is the outcome of WriteTagsDetailed.
type WriteResult = id3.WriteResult

// ReadTags decodes the ID3v2 tag at the start of buf.
//
// ReadTags never fails. A buffer without a tag yields an empty record; a
// damaged tag yields the fields decoded before the damage.
func ReadTags(buf []byte) TagRecord {
	return id3.Read(buf).Tags
}

// Inspect is ReadTags with options and diagnostics.
//
// Example:
//
//	res := tagedit.Inspect(data, tagedit.WithMaxCoverSize(5<<20))
//	fmt.Printf("ID3v2.%d, %d bytes, %d warnings\n", res.Version, res.TagSize, len(res.Warnings))
func Inspect(buf []byte, opts ...ReadOption) *ReadResult {
	return id3.Read(buf, opts...)
}

// WriteTags returns a copy of buf with its leading tag replaced by a fresh
// ID3v2.3 tag built from tags and cover.
//
// One frame is written per non-blank field. cover, when not nil, becomes
// the APIC frame; tags.Cover is not consulted. Bytes after the old tag are
// copied unchanged.
func WriteTags(buf []byte, tags TagRecord, cover *Cover, opts ...WriteOption) ([]byte, error) {
	res, err := id3.Write(buf, tags, cover, opts...)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// WriteTagsDetailed is WriteTags returning the frames written and any
// warnings, such as an omitted invalid cover.
func WriteTagsDetailed(buf []byte, tags TagRecord, cover *Cover, opts ...WriteOption) (*WriteResult, error) {
	return id3.Write(buf, tags, cover, opts...)
}

// TagLength returns how many leading bytes of buf belong to an ID3v2 tag.
func TagLength(buf []byte) int {
	return id3.TagLength(buf)
}

// StripTags returns the audio payload of buf without its leading tag.
func StripTags(buf []byte) []byte {
	return id3.Strip(buf)
}
