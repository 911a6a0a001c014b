package tagedit

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/simonhull/tagedit/internal/types"
)

// WriteFile replaces the tag of the MP3 file at path.
//
// This is an atomic operation: the new content is written to a temporary
// file in the same directory, synced, then renamed over path. If any step
// fails, the original file remains unchanged.
//
// Options can be provided to customize save behavior:
//
//	err := tagedit.WriteFile("song.mp3", rec, cover,
//	    tagedit.WithBackup(".bak"),
//	    tagedit.WithValidation(),
//	)
func WriteFile(path string, tags TagRecord, cover *Cover, opts ...SaveOption) error { //nolint:gocyclo // Atomic file operations require sequential steps
	// Apply options
	options := defaultSaveOptions()
	for _, opt := range opts {
		opt(options)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	original, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	res, err := WriteTagsDetailed(original, tags, cover, options.writeOptions...)
	if err != nil {
		return fmt.Errorf("write tags: %w", err)
	}
	tagged := res.Data

	// Create temp file in same directory as output (for atomic rename)
	tempFile, err := os.CreateTemp(filepath.Dir(path), ".tagedit-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	// Ensure cleanup on any error
	success := false
	defer func() {
		if !success {
			_ = tempFile.Close()    //nolint:errcheck // Best effort cleanup
			_ = os.Remove(tempPath) //nolint:errcheck // Best effort cleanup
		}
	}()

	if _, err := tempFile.Write(tagged); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	// Keep the original permissions rather than CreateTemp's 0600
	if err := tempFile.Chmod(info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	// Sync temp file (fsync) to ensure data is on disk
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	// Close temp file before rename
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Handle backup option (rename original to backup before replace)
	if options.backupSuffix != "" {
		if err := os.Rename(path, path+options.backupSuffix); err != nil {
			return fmt.Errorf("create backup: %w", err)
		}
	}

	// Atomic rename temp -> output
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("rename temp to output: %w", err)
	}

	// Mark success so defer doesn't clean up
	success = true

	if options.preserveModTime {
		_ = os.Chtimes(path, time.Now(), info.ModTime()) //nolint:errcheck // Non-fatal: file was written successfully
	}

	if options.onWarnings != nil && len(res.Warnings) > 0 {
		options.onWarnings(path, res.Warnings)
	}

	if options.validate {
		if err := validateWrittenFile(path, tags); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	return nil
}

// validateWrittenFile re-reads the file and compares every text field.
func validateWrittenFile(path string, want TagRecord) error {
	res, err := ReadFile(path)
	if err != nil {
		return fmt.Errorf("re-read: %w", err)
	}

	for field := range Fields() {
		got, expected := res.Tags.Get(field), types.NormalizeText(want.Get(field))
		if types.IsBlank(got) && types.IsBlank(expected) {
			continue
		}
		if got != expected {
			return fmt.Errorf("%s mismatch: got %q, want %q", field, got, expected)
		}
	}
	return nil
}
