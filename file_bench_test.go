package tagedit_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/simonhull/tagedit"
)

// benchmarkMP3 returns a tagged buffer with a cover and ~1MB of audio.
func benchmarkMP3(b *testing.B) []byte {
	b.Helper()

	audio := append([]byte{0xFF, 0xFB, 0x90, 0x00}, bytes.Repeat([]byte{0xAA}, 1<<20)...)
	rec := tagedit.TagRecord{
		Title:   "Benchmark Title",
		Artist:  "Benchmark Artist",
		Album:   "Benchmark Album",
		Year:    "2024",
		Comment: "A comment that is a little longer than the rest",
	}

	out, err := tagedit.WriteTags(audio, rec, tagedit.NewCover(testJPEG(b), ""))
	if err != nil {
		b.Fatal(err)
	}
	return out
}

// BenchmarkReadTags measures decoding a tag with a cover.
func BenchmarkReadTags(b *testing.B) {
	data := benchmarkMP3(b)

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		rec := tagedit.ReadTags(data)
		if rec.Title == "" {
			b.Fatal("empty title")
		}
	}
}

// BenchmarkReadTags_WithoutCover measures the text-only path.
func BenchmarkReadTags_WithoutCover(b *testing.B) {
	data := benchmarkMP3(b)

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		tagedit.Inspect(data, tagedit.WithoutCover())
	}
}

// BenchmarkWriteTags measures re-tagging a 1MB buffer.
func BenchmarkWriteTags(b *testing.B) {
	data := benchmarkMP3(b)
	rec := tagedit.ReadTags(data).With(tagedit.FieldTitle, "Retitled")

	b.ResetTimer()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	for b.Loop() {
		if _, err := tagedit.WriteTags(data, rec, rec.Cover); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkTagMany measures concurrent file tagging.
func BenchmarkTagMany(b *testing.B) {
	dir := b.TempDir()
	data := benchmarkMP3(b)

	jobs := make([]tagedit.Job, 16)
	for i := range jobs {
		path := filepath.Join(dir, "bench"+string(rune('a'+i))+".mp3")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			b.Fatal(err)
		}
		jobs[i] = tagedit.Job{Path: path, Tags: tagedit.TagRecord{Title: "Bench"}}
	}
	ctx := context.Background()

	b.ResetTimer()

	for b.Loop() {
		if err := tagedit.TagMany(ctx, jobs...); err != nil {
			b.Fatal(err)
		}
	}
}
