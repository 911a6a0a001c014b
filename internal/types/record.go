// Package types provides the core data structures shared by the tag codec,
// the blob store and the HTTP layer.
//
// This package defines TagRecord, Cover and the error and warning types
// reported while reading or writing ID3v2 tags.
package types

import (
	"bytes"
	"iter"
	"strings"
)

// TagRecord is the normalized, editor-facing view of an MP3's metadata.
//
// Every text field is always present; an empty string means "no value".
// TagRecord has value semantics: the With* methods return a modified copy
// and never touch the receiver.
type TagRecord struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	AlbumArtist string `json:"albumArtist"`
	Composer    string `json:"composer"`
	Genre       string `json:"genre"`
	Year        string `json:"year"`
	Track       string `json:"track"`
	Comment     string `json:"comment"`
	Copyright   string `json:"copyright"`

	// Cover is the embedded picture, nil when there is none.
	Cover *Cover `json:"-"`
}

// Field identifies one text field of a TagRecord.
//
// Fields are declared in the order the writer emits their frames.
type Field int

const (
	FieldTitle       Field = iota // title
	FieldArtist                   // artist
	FieldAlbum                    // album
	FieldGenre                    // genre
	FieldYear                     // year
	FieldAlbumArtist              // albumArtist
	FieldComposer                 // composer
	FieldTrack                    // track
	FieldComment                  // comment
	FieldCopyright                // copyright

	fieldCount
)

var fieldNames = [fieldCount]string{
	"title", "artist", "album", "genre", "year",
	"albumArtist", "composer", "track", "comment", "copyright",
}

// String returns the JSON key of the field.
func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return "unknown"
	}
	return fieldNames[f]
}

// ParseField looks a field up by its JSON key (case-insensitive).
func ParseField(name string) (Field, bool) {
	for i, n := range fieldNames {
		if strings.EqualFold(n, name) {
			return Field(i), true
		}
	}
	return 0, false
}

// Fields returns an iterator over all text fields in frame order.
func Fields() iter.Seq[Field] {
	return func(yield func(Field) bool) {
		for f := range fieldCount {
			if !yield(f) {
				return
			}
		}
	}
}

// Get returns the value of field f.
func (r TagRecord) Get(f Field) string {
	if p := r.ptr(f); p != nil {
		return *p
	}
	return ""
}

// With returns a copy of r with field f set to value.
func (r TagRecord) With(f Field, value string) TagRecord {
	if p := r.ptr(f); p != nil {
		*p = value
	}
	return r
}

// WithCover returns a copy of r carrying cover.
func (r TagRecord) WithCover(cover *Cover) TagRecord {
	r.Cover = cover
	return r
}

// ptr returns a pointer into the receiver's own copy.
func (r *TagRecord) ptr(f Field) *string {
	switch f {
	case FieldTitle:
		return &r.Title
	case FieldArtist:
		return &r.Artist
	case FieldAlbum:
		return &r.Album
	case FieldGenre:
		return &r.Genre
	case FieldYear:
		return &r.Year
	case FieldAlbumArtist:
		return &r.AlbumArtist
	case FieldComposer:
		return &r.Composer
	case FieldTrack:
		return &r.Track
	case FieldComment:
		return &r.Comment
	case FieldCopyright:
		return &r.Copyright
	default:
		return nil
	}
}

// All returns an iterator over the non-blank text fields.
//
// Example:
//
//	for field, value := range rec.All() {
//		fmt.Printf("%s: %s\n", field, value)
//	}
func (r TagRecord) All() iter.Seq2[Field, string] {
	return func(yield func(Field, string) bool) {
		for f := range Fields() {
			v := r.Get(f)
			if IsBlank(v) {
				continue
			}
			if !yield(f, v) {
				return
			}
		}
	}
}

// IsEmpty reports whether r carries no text and no cover.
func (r TagRecord) IsEmpty() bool {
	for range r.All() {
		return false
	}
	return r.Cover == nil
}

// Equal reports whether two records hold the same text and cover bytes.
//
// Blank and empty values compare equal, matching what survives a
// write/read cycle.
func (r TagRecord) Equal(other TagRecord) bool {
	for f := range Fields() {
		a, b := r.Get(f), other.Get(f)
		if IsBlank(a) && IsBlank(b) {
			continue
		}
		if a != b {
			return false
		}
	}
	if (r.Cover == nil) != (other.Cover == nil) {
		return false
	}
	if r.Cover == nil {
		return true
	}
	return r.Cover.MIMEType == other.Cover.MIMEType && bytes.Equal(r.Cover.Data, other.Cover.Data)
}

// Branded returns a copy with suffix appended to the title (once) and every
// other blank text field set to fill. Empty suffix or fill disable the
// respective step.
func (r TagRecord) Branded(suffix, fill string) TagRecord {
	if suffix != "" && !strings.HasSuffix(r.Title, suffix) {
		r.Title += suffix
	}
	if fill == "" {
		return r
	}
	for f := range Fields() {
		if f == FieldTitle {
			continue
		}
		if IsBlank(r.Get(f)) {
			r = r.With(f, fill)
		}
	}
	return r
}

// NormalizeText removes the characters a tag cannot carry inside a value:
// NUL, which ID3 uses as a terminator and multi-value separator, and
// U+FEFF, which readers treat as a byte order mark.
func NormalizeText(s string) string {
	if !strings.ContainsAny(s, "\x00\ufeff") {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == 0 || r == '\ufeff' {
			return -1
		}
		return r
	}, s)
}

// IsBlank reports whether s is empty or only whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
