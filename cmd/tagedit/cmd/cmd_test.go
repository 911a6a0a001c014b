package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/tagedit"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeMP3(t *testing.T) string {
	t.Helper()
	audio := make([]byte, 417)
	copy(audio, []byte{0xFF, 0xFB, 0x90, 0x00})
	data, err := tagedit.WriteTags(audio, tagedit.TagRecord{Title: "Old", Album: "Kept"}, nil)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "song.mp3")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestFieldFlag(t *testing.T) {
	assert.Equal(t, "title", fieldFlag(tagedit.FieldTitle))
	assert.Equal(t, "album-artist", fieldFlag(tagedit.FieldAlbumArtist))
	assert.Equal(t, "copyright", fieldFlag(tagedit.FieldCopyright))
}

func TestWriteThenRead(t *testing.T) {
	path := writeMP3(t)

	out, err := run(t, "write", "--title", "New", "--album-artist", "Various", path)
	require.NoError(t, err)
	assert.Contains(t, out, "tagged")

	res, err := tagedit.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "New", res.Tags.Title)
	assert.Equal(t, "Various", res.Tags.AlbumArtist)
	assert.Equal(t, "Kept", res.Tags.Album)

	out, err = run(t, "read", "--json", path)
	require.NoError(t, err)
	var got readOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 3, got.Version)
	assert.Equal(t, "New", got.Tags.Title)
	assert.Contains(t, got.Audio, "128 kbps")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version", "-o", "json")
	require.NoError(t, err)
	var info tagedit.VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, tagedit.Version, info.Version)

	_, err = run(t, "version", "-o", "xml")
	assert.Error(t, err)
	_, err = run(t, "version", "-o", "text")
	require.NoError(t, err)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tagedit.yaml")

	_, err := run(t, "config", "init", path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = run(t, "config", "init", path)
	assert.Error(t, err)

	_, err = run(t, "config", "init", "--force", path)
	assert.NoError(t, err)
}
