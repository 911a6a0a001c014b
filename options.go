package tagedit

import "github.com/simonhull/tagedit/internal/id3"

// ReadOption configures Inspect and ReadFile.
//
// Example:
//
//	res := tagedit.Inspect(data,
//	    tagedit.WithMaxCoverSize(10*1024*1024),
//	)
type ReadOption = id3.ReadOption

// WithMaxCoverSize sets a maximum size limit for embedded pictures.
//
// A picture larger than this (in bytes) is skipped with a warning. This
// protects against excessively large embedded images.
//
// Default is 0 (no limit).
func WithMaxCoverSize(bytes int) ReadOption {
	return id3.WithMaxCoverSize(bytes)
}

// WithoutCover skips picture decoding entirely.
//
// Use this when only the text fields are needed, for example when listing
// a large library.
func WithoutCover() ReadOption {
	return id3.WithoutCover()
}

// WriteOption configures WriteTags and WriteTagsDetailed.
type WriteOption = id3.WriteOption

// WithStrictCover rejects an invalid cover with *InvalidCoverError.
//
// By default an invalid cover is left out of the tag and a warning is
// recorded, so the text fields are still written.
func WithStrictCover() WriteOption {
	return id3.WithStrictCover()
}

// WithAudioCheck requires an MPEG audio frame after the tag.
//
// Without one the write fails with *CorruptedFileError. Off by default.
func WithAudioCheck() WriteOption {
	return id3.WithAudioCheck()
}
