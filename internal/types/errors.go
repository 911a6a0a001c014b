package types

import "fmt"

// CorruptedFileError is returned when a buffer violates a structural
// precondition (for example no MPEG audio frame where one is required).
type CorruptedFileError struct {
	Name   string
	Reason string
	Offset int64
}

func (e *CorruptedFileError) Error() string {
	return fmt.Sprintf("%s: corrupted file at offset %d: %s", e.Name, e.Offset, e.Reason)
}

// InvalidCoverError is reported when a cover payload is not a decodable
// still image.
type InvalidCoverError struct {
	MIMEType string
	Reason   string
}

func (e *InvalidCoverError) Error() string {
	if e.MIMEType != "" {
		return fmt.Sprintf("invalid cover (%s): %s", e.MIMEType, e.Reason)
	}
	return fmt.Sprintf("invalid cover: %s", e.Reason)
}

// TagTooLargeError is returned when the frames of a tag exceed what a
// synchsafe header size can describe.
type TagTooLargeError struct {
	Size int64
}

func (e *TagTooLargeError) Error() string {
	return fmt.Sprintf("tag too large: %d bytes exceeds the 256MB synchsafe limit", e.Size)
}

// Warning represents a non-fatal issue encountered while reading or writing.
//
// Warnings indicate problems that don't prevent tag processing but
// may indicate corrupted or unusual data. Examples include:
//   - Truncated frames
//   - Unsupported tag versions
//   - Undecodable cover images
type Warning struct {
	// Stage where the warning occurred
	Stage string // "id3", "cover", "audio"

	// Warning message
	Message string

	// Buffer offset where the issue occurred (0 if not applicable)
	Offset int64
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("%s (at offset %d): %s", w.Stage, w.Offset, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}
