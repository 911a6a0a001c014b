package tagedit

import (
	"github.com/simonhull/tagedit/internal/types"
)

// CorruptedFileError is an alias to types.CorruptedFileError.
// Re-exporting from internal/types to maintain public API.
type CorruptedFileError = types.CorruptedFileError

// InvalidCoverError is an alias to types.InvalidCoverError.
// Re-exporting from internal/types to maintain public API.
type InvalidCoverError = types.InvalidCoverError

// TagTooLargeError is an alias to types.TagTooLargeError.
// Re-exporting from internal/types to maintain public API.
type TagTooLargeError = types.TagTooLargeError

// Warning is an alias to types.Warning.
// Re-exporting from internal/types to maintain public API.
type Warning = types.Warning
