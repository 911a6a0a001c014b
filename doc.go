// Package tagedit reads and writes ID3v2 tags on MP3 byte buffers.
//
// The codec works on in-memory buffers and has no global state, so every
// call is independent and safe for concurrent use. The reader never fails:
// a damaged tag yields whatever could be decoded plus warnings. The writer
// replaces the leading tag with a fresh ID3v2.3 tag and copies the audio
// payload byte for byte.
//
// # Quick Start
//
// Reading tags:
//
//	data, _ := os.ReadFile("song.mp3")
//	rec := tagedit.ReadTags(data)
//	fmt.Printf("%s - %s\n", rec.Artist, rec.Title)
//
// Writing tags:
//
//	rec = rec.With(tagedit.FieldTitle, "New Title")
//	out, err := tagedit.WriteTags(data, rec, rec.Cover)
//	if err != nil {
//		return err
//	}
//	os.WriteFile("song.mp3", out, 0o644)
//
// # Records
//
// TagRecord holds ten text fields (title, artist, album, album artist,
// composer, genre, year, track, comment, copyright) and an optional Cover.
// Every field is always present; an empty string means "no value". Records
// are values: With, WithCover and Branded return modified copies.
//
// # Covers
//
// WriteTags only embeds the cover passed as its third argument. Passing nil
// drops any picture the file had. Covers are validated first; an invalid
// one is left out with a warning, or rejected with WithStrictCover:
//
//	res, err := tagedit.WriteTagsDetailed(data, rec, cover, tagedit.WithStrictCover())
//	var coverErr *tagedit.InvalidCoverError
//	if errors.As(err, &coverErr) {
//		log.Printf("bad cover: %s", coverErr.Reason)
//	}
//
// # Files
//
// ReadFile and WriteFile wrap the codec for paths on disk. WriteFile is
// atomic: it writes a temporary file in the same directory and renames it
// over the target. TagMany tags many files concurrently:
//
//	err := tagedit.TagMany(ctx,
//		tagedit.Job{Path: "a.mp3", Tags: recA},
//		tagedit.Job{Path: "b.mp3", Tags: recB, Cover: cover},
//	)
//
// # Warnings
//
// Inspect returns the record together with the tag version, its size and
// any non-fatal problems met while reading:
//
//	res := tagedit.Inspect(data)
//	for _, w := range res.Warnings {
//		log.Printf("warning: %s", w)
//	}
//
// # Scope
//
// Only ID3v2.3 is written; ID3v2.3 and ID3v2.4 are read. ID3v1, ID3v2.2,
// unsynchronisation, compression and encryption are not supported.
package tagedit
