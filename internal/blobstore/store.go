// Package blobstore keeps uploaded MP3 files, their covers and a JSON
// sidecar of their tags in a flat directory tree:
//
//	<root>/mp3/     audio files
//	<root>/covers/  cover images
//	<root>/data/    one <id>.json sidecar per upload
//
// The sidecar is the index: an upload exists while its sidecar and audio
// file both exist.
package blobstore

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/segmentio/ksuid"
	log "github.com/sirupsen/logrus"

	"github.com/simonhull/tagedit/internal/types"
)

// Kind names one of the served directories.
type Kind string

const (
	KindAudio Kind = "mp3"
	KindCover Kind = "covers"
	kindData  Kind = "data"
)

// DefaultMaxSize is the upload limit applied when none is configured.
const DefaultMaxSize = 50 << 20

// DateLayout is the format of Entry.UploadDate.
const DateLayout = "2006-01-02 15:04:05"

var (
	ErrNotFound    = errors.New("blobstore: not found")
	ErrTooLarge    = errors.New("blobstore: file too large")
	ErrInvalidType = errors.New("blobstore: invalid file type")
	ErrInvalidID   = errors.New("blobstore: invalid id")
)

// Upload is one file handed to Put.
type Upload struct {
	Filename      string
	Audio         []byte
	Cover         []byte
	CoverFilename string
	Tags          types.TagRecord
}

// Entry describes a stored upload. It is also the sidecar format.
type Entry struct {
	ID string `json:"id,omitempty"`
	types.TagRecord
	Filename   string `json:"filename"`
	URL        string `json:"url"`
	CoverURL   string `json:"coverUrl"`
	UploadDate string `json:"uploadDate"`
}

// Recorder receives the byte count of every file written.
type Recorder interface {
	RecordStored(kind string, n int64)
}

// Store is a directory-backed upload store. It is safe for concurrent use
// within one process.
type Store struct {
	root      string
	publicURL string
	maxSize   int64
	logger    log.FieldLogger
	recorder  Recorder
	now       func() time.Time

	mu sync.RWMutex
}

// Option configures a Store.
type Option func(*Store)

// WithMaxSize sets the per-file size limit in bytes.
func WithMaxSize(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// WithPublicURL sets the prefix of returned URLs. Empty yields
// root-relative URLs such as /uploads/mp3/x.mp3.
func WithPublicURL(u string) Option {
	return func(s *Store) { s.publicURL = strings.TrimRight(u, "/") }
}

// WithLogger sets the logger used for dropped covers and skipped sidecars.
func WithLogger(l log.FieldLogger) Option {
	return func(s *Store) { s.logger = l }
}

// WithRecorder reports written bytes to r.
func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// New opens (creating if needed) a store rooted at root.
func New(root string, opts ...Option) (*Store, error) {
	s := &Store{
		root:    root,
		maxSize: DefaultMaxSize,
		logger:  log.StandardLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, k := range []Kind{KindAudio, KindCover, kindData} {
		if err := os.MkdirAll(filepath.Join(root, string(k)), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", k, err)
		}
	}
	return s, nil
}

// Root returns the store directory.
func (s *Store) Root() string { return s.root }

// MaxSize returns the per-file size limit.
func (s *Store) MaxSize() int64 { return s.maxSize }

// Put stores an upload and its sidecar.
func (s *Store) Put(ctx context.Context, up Upload) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if int64(len(up.Audio)) > s.maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(up.Audio), s.maxSize)
	}
	if len(up.Audio) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidType)
	}
	if !isMP3(up.Filename, up.Audio) {
		return nil, fmt.Errorf("%w: only MP3 files are supported", ErrInvalidType)
	}

	id := ksuid.New()
	stem := sanitize(baseName(up.Filename)) + "_" + id.String()
	audioName := stem + ".mp3"

	entry := &Entry{
		TagRecord:  up.Tags.WithCover(nil),
		Filename:   audioName,
		URL:        s.url(KindAudio, audioName),
		UploadDate: s.now().Format(DateLayout),
	}

	coverName := ""
	if len(up.Cover) > 0 {
		coverName = s.coverName(stem, up)
		if coverName != "" {
			entry.CoverURL = s.url(KindCover, coverName)
		}
	}

	sidecar, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode sidecar: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeFile(KindAudio, audioName, up.Audio); err != nil {
		return nil, err
	}
	if coverName != "" {
		if err := s.writeFile(KindCover, coverName, up.Cover); err != nil {
			s.remove(KindAudio, audioName)
			return nil, err
		}
	}
	if err := s.writeFile(kindData, stem+".json", sidecar); err != nil {
		s.remove(KindAudio, audioName)
		if coverName != "" {
			s.remove(KindCover, coverName)
		}
		return nil, err
	}

	entry.ID = stem
	return entry, nil
}

// coverName validates the cover of up and returns its file name, or "" if
// the cover is dropped.
func (s *Store) coverName(stem string, up Upload) string {
	if int64(len(up.Cover)) > s.maxSize {
		s.logger.WithField("size", len(up.Cover)).Warn("Cover exceeds size limit, dropping")
		return ""
	}
	mt := mimetype.Detect(up.Cover)
	if !strings.HasPrefix(mt.String(), "image/") {
		s.logger.WithField("mime", mt.String()).Warn("Cover is not an image, dropping")
		return ""
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(up.CoverFilename), "."))
	if ext == "" {
		ext = "jpg"
	}
	ext = sanitize(ext)
	return "cover_" + stem + "." + ext
}

// List returns every complete upload, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Join(s.root, string(kindData))
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list sidecars: %w", err)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if item.IsDir() || filepath.Ext(item.Name()) != ".json" {
			continue
		}
		id := strings.TrimSuffix(item.Name(), ".json")
		entry, err := s.readSidecar(id)
		if err != nil {
			s.logger.WithError(err).WithField("id", id).Warn("Skipping unreadable sidecar")
			continue
		}
		if !s.exists(KindAudio, entry.Filename) {
			continue
		}
		entries = append(entries, *entry)
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.UploadDate, a.UploadDate); c != 0 {
			return c
		}
		return compareIDs(b.ID, a.ID)
	})
	return entries, nil
}

// Get returns the entry with the given id.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateName(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readSidecar(id)
}

// Delete removes the audio file, cover and sidecar of id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateName(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.readSidecar(id)
	if err != nil {
		return err
	}
	if validateName(entry.Filename) == nil {
		s.remove(KindAudio, entry.Filename)
	}
	if entry.CoverURL != "" {
		if name := path.Base(entry.CoverURL); validateName(name) == nil {
			s.remove(KindCover, name)
		}
	}
	if err := os.Remove(s.path(kindData, id+".json")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete sidecar: %w", err)
	}
	return nil
}

// Open opens a stored audio file or cover for serving.
func (s *Store) Open(kind Kind, name string) (*os.File, error) {
	if kind != KindAudio && kind != KindCover {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrNotFound, kind)
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path(kind, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, kind, name)
	}
	return f, err
}

func (s *Store) readSidecar(id string) (*Entry, error) {
	data, err := os.ReadFile(s.path(kindData, id+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sidecar: %w", err)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode sidecar %s: %w", id, err)
	}
	entry.ID = id
	return &entry, nil
}

// writeFile writes data through a temp file and rename so readers never
// see a partial file.
func (s *Store) writeFile(kind Kind, name string, data []byte) error {
	dir := filepath.Join(s.root, string(kind))
	tmp, err := os.CreateTemp(dir, ".upload-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to store %s: %w", name, err)
	}

	if s.recorder != nil {
		s.recorder.RecordStored(string(kind), int64(len(data)))
	}
	return nil
}

func (s *Store) remove(kind Kind, name string) {
	if err := os.Remove(s.path(kind, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.WithError(err).WithField("file", name).Warn("Failed to remove file")
	}
}

func (s *Store) exists(kind Kind, name string) bool {
	if validateName(name) != nil {
		return false
	}
	_, err := os.Stat(s.path(kind, name))
	return err == nil
}

func (s *Store) path(kind Kind, name string) string {
	return filepath.Join(s.root, string(kind), name)
}

func (s *Store) url(kind Kind, name string) string {
	return s.publicURL + "/uploads/" + string(kind) + "/" + name
}

// isMP3 accepts a sniffed audio/mpeg payload or a .mp3 file name.
func isMP3(filename string, data []byte) bool {
	if strings.EqualFold(path.Ext(filename), ".mp3") {
		return true
	}
	return mimetype.Detect(data).Is("audio/mpeg")
}

// baseName strips any directory and the extension from an uploaded file
// name.
func baseName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.TrimSuffix(name, path.Ext(name))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// sanitize replaces every byte outside [A-Za-z0-9._-] with '_'.
func sanitize(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "audio"
	}
	return b.String()
}

// validateName rejects ids and file names that could escape their
// directory.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidID, name)
	}
	return nil
}

// compareIDs orders ids by their trailing ksuid, falling back to the raw
// strings.
func compareIDs(a, b string) int {
	ka, errA := ksuid.Parse(a[strings.LastIndexByte(a, '_')+1:])
	kb, errB := ksuid.Parse(b[strings.LastIndexByte(b, '_')+1:])
	if errA == nil && errB == nil {
		return ksuid.Compare(ka, kb)
	}
	return strings.Compare(a, b)
}
