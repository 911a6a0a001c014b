package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/tagedit/internal/types"
)

// mp3Bytes is an ID3-prefixed MPEG frame that mimetype sniffs as
// audio/mpeg.
func mp3Bytes() []byte {
	data := []byte{'I', 'D', '3', 3, 0, 0, 0, 0, 0, 0}
	frame := make([]byte, 417)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0x00})
	return append(data, frame...)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type countingRecorder map[string]int64

func (r countingRecorder) RecordStored(kind string, n int64) { r[kind] += n }

func newStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := New(t.TempDir(), opts...)
	require.NoError(t, err)
	return s
}

func TestNew_CreatesLayout(t *testing.T) {
	s := newStore(t)
	for _, dir := range []string{"mp3", "covers", "data"} {
		info, err := os.Stat(filepath.Join(s.Root(), dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	assert.Equal(t, int64(DefaultMaxSize), s.MaxSize())
}

func TestPut(t *testing.T) {
	rec := countingRecorder{}
	s := newStore(t, WithPublicURL("https://files.example.com/"), WithRecorder(rec))
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }

	tags := types.TagRecord{Title: "Song", Artist: "Band"}
	entry, err := s.Put(context.Background(), Upload{
		Filename:      "My Song (live).mp3",
		Audio:         mp3Bytes(),
		Cover:         pngBytes(t),
		CoverFilename: "art.PNG",
		Tags:          tags,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(entry.Filename, "My_Song__live__"), entry.Filename)
	assert.True(t, strings.HasSuffix(entry.Filename, ".mp3"))
	assert.Equal(t, strings.TrimSuffix(entry.Filename, ".mp3"), entry.ID)
	assert.Equal(t, "https://files.example.com/uploads/mp3/"+entry.Filename, entry.URL)
	assert.Equal(t, "https://files.example.com/uploads/covers/cover_"+entry.ID+".png", entry.CoverURL)
	assert.Equal(t, "2024-05-01 12:30:00", entry.UploadDate)

	sidecar, err := os.ReadFile(filepath.Join(s.Root(), "data", entry.ID+".json"))
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(sidecar, &raw))
	assert.Equal(t, "Song", raw["title"])
	assert.Equal(t, "Band", raw["artist"])
	assert.Equal(t, entry.Filename, raw["filename"])
	assert.Equal(t, entry.CoverURL, raw["coverUrl"])
	assert.Equal(t, "2024-05-01 12:30:00", raw["uploadDate"])
	assert.NotContains(t, raw, "id")

	assert.Equal(t, int64(len(mp3Bytes())), rec["mp3"])
	assert.Positive(t, rec["covers"])
	assert.Positive(t, rec["data"])
}

func TestPut_CoverWithoutExtension(t *testing.T) {
	s := newStore(t)
	entry, err := s.Put(context.Background(), Upload{Filename: "a.mp3", Audio: mp3Bytes(), Cover: pngBytes(t)})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/covers/cover_"+entry.ID+".jpg", entry.CoverURL)
}

func TestPut_DropsNonImageCover(t *testing.T) {
	s := newStore(t)
	entry, err := s.Put(context.Background(), Upload{
		Filename:      "a.mp3",
		Audio:         mp3Bytes(),
		Cover:         []byte("definitely not an image"),
		CoverFilename: "cover.jpg",
	})
	require.NoError(t, err)
	assert.Empty(t, entry.CoverURL)

	covers, err := os.ReadDir(filepath.Join(s.Root(), "covers"))
	require.NoError(t, err)
	assert.Empty(t, covers)
}

func TestPut_Rejects(t *testing.T) {
	s := newStore(t, WithMaxSize(64))

	tests := []struct {
		name string
		up   Upload
		want error
	}{
		{"too large", Upload{Filename: "a.mp3", Audio: make([]byte, 65)}, ErrTooLarge},
		{"empty", Upload{Filename: "a.mp3"}, ErrInvalidType},
		{"not audio", Upload{Filename: "notes.txt", Audio: []byte("hello world")}, ErrInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Put(context.Background(), tt.up)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	files, err := os.ReadDir(filepath.Join(s.Root(), "mp3"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestPut_SniffsAudioWithoutExtension(t *testing.T) {
	s := newStore(t)
	entry, err := s.Put(context.Background(), Upload{Filename: "upload.bin", Audio: mp3Bytes()})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(entry.Filename, "upload_"))
}

func TestPut_Cancelled(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Put(ctx, Upload{Filename: "a.mp3", Audio: mp3Bytes()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestList_NewestFirst(t *testing.T) {
	s := newStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i, name := range []string{"first.mp3", "second.mp3", "third.mp3"} {
		s.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		e, err := s.Put(context.Background(), Upload{Filename: name, Audio: mp3Bytes()})
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}

	entries, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, ids[2], entries[0].ID)
	assert.Equal(t, ids[1], entries[1].ID)
	assert.Equal(t, ids[0], entries[2].ID)
}

func TestList_SkipsOrphans(t *testing.T) {
	s := newStore(t)
	kept, err := s.Put(context.Background(), Upload{Filename: "kept.mp3", Audio: mp3Bytes()})
	require.NoError(t, err)
	gone, err := s.Put(context.Background(), Upload{Filename: "gone.mp3", Audio: mp3Bytes()})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(s.Root(), "mp3", gone.Filename)))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "data", "broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "data", "README.txt"), []byte("x"), 0o644))

	entries, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, kept.ID, entries[0].ID)
}

func TestDelete(t *testing.T) {
	s := newStore(t)
	entry, err := s.Put(context.Background(), Upload{
		Filename: "a.mp3", Audio: mp3Bytes(), Cover: pngBytes(t), CoverFilename: "c.png",
	})
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), entry.ID))

	for _, dir := range []string{"mp3", "covers", "data"} {
		files, err := os.ReadDir(filepath.Join(s.Root(), dir))
		require.NoError(t, err)
		assert.Empty(t, files, dir)
	}

	err = s.Delete(context.Background(), entry.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_InvalidID(t *testing.T) {
	s := newStore(t)
	for _, id := range []string{"", "..", "../data/x", `a\b`, "a/b"} {
		err := s.Delete(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
	}
}

func TestGet(t *testing.T) {
	s := newStore(t)
	entry, err := s.Put(context.Background(), Upload{Filename: "a.mp3", Audio: mp3Bytes(), Tags: types.TagRecord{Album: "LP"}})
	require.NoError(t, err)

	got, err := s.Get(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "LP", got.Album)
	assert.Equal(t, entry.ID, got.ID)

	_, err = s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen(t *testing.T) {
	s := newStore(t)
	entry, err := s.Put(context.Background(), Upload{Filename: "a.mp3", Audio: mp3Bytes()})
	require.NoError(t, err)

	f, err := s.Open(KindAudio, entry.Filename)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, f.Close())
	require.NoError(t, err)
	assert.Equal(t, mp3Bytes(), data)

	_, err = s.Open(KindAudio, "missing.mp3")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Open(KindAudio, "../data/x.json")
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = s.Open(kindData, entry.ID+".json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSanitize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"simple", "simple"},
		{"with space", "with_space"},
		{"ümlaut", "__mlaut"},
		{"a.b-c_d", "a.b-c_d"},
		{"", "audio"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitize(tt.in), tt.in)
	}
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "song", baseName("song.mp3"))
	assert.Equal(t, "song", baseName(`C:\music\song.mp3`))
	assert.Equal(t, "song", baseName("/tmp/song.mp3"))
	assert.Equal(t, "", baseName(""))
}
