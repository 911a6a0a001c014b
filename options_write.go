package tagedit

// SaveOption configures WriteFile.
//
//	err := tagedit.WriteFile("song.mp3", rec, cover,
//	    tagedit.WithBackup(".bak"),
//	    tagedit.WithWriteOptions(tagedit.WithStrictCover()),
//	)
type SaveOption func(*saveOptions)

type saveOptions struct {
	backupSuffix    string
	validate        bool
	preserveModTime bool
	writeOptions    []WriteOption
	onWarnings      func(path string, warnings []Warning)
}

func defaultSaveOptions() *saveOptions {
	return &saveOptions{}
}

// WithBackup renames the original file to path+suffix before the rewritten
// file takes its place. An existing backup is replaced.
func WithBackup(suffix string) SaveOption {
	return func(o *saveOptions) { o.backupSuffix = suffix }
}

// WithValidation reads the file back after the rename and fails if any
// text field differs from the record that was written.
func WithValidation() SaveOption {
	return func(o *saveOptions) { o.validate = true }
}

// WithPreserveModTime restores the original modification time.
func WithPreserveModTime() SaveOption {
	return func(o *saveOptions) { o.preserveModTime = true }
}

// WithWriteOptions forwards codec options to WriteTags. Repeated calls
// accumulate.
func WithWriteOptions(opts ...WriteOption) SaveOption {
	return func(o *saveOptions) { o.writeOptions = append(o.writeOptions, opts...) }
}

// WithWarningHandler calls fn after a successful write that produced
// warnings, such as a cover left out of the tag. With TagMany, fn runs on
// the worker goroutines and must be safe for concurrent use.
func WithWarningHandler(fn func(path string, warnings []Warning)) SaveOption {
	return func(o *saveOptions) { o.onWarnings = fn }
}
