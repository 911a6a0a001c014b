// Package transcode converts arbitrary audio to MP3 by running ffmpeg.
//
// The ffmpeg binary is a process-wide resource: a Manager resolves it once
// on first use and hands out the same Transcoder afterwards.
package transcode

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultBitrate is the MP3 bitrate used when none is configured.
const DefaultBitrate = "192k"

// ErrUnavailable is returned by Acquire when the ffmpeg binary cannot be
// found.
var ErrUnavailable = errors.New("transcode: ffmpeg not available")

// Manager owns the lazily resolved ffmpeg binary.
type Manager struct {
	binary   string
	bitrate  string
	logger   log.FieldLogger
	lookPath func(string) (string, error)

	mu sync.Mutex
	t  *Transcoder
}

// Option configures a Manager.
type Option func(*Manager)

// WithBitrate sets the ffmpeg -b:a value.
func WithBitrate(b string) Option {
	return func(m *Manager) {
		if b != "" {
			m.bitrate = b
		}
	}
}

// WithLogger sets the logger used for job diagnostics.
func WithLogger(l log.FieldLogger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager returns a Manager for binary, a name looked up in PATH or a
// path to an executable. Nothing is resolved until Acquire.
func NewManager(binary string, opts ...Option) *Manager {
	if binary == "" {
		binary = "ffmpeg"
	}
	m := &Manager{
		binary:   binary,
		bitrate:  DefaultBitrate,
		logger:   log.StandardLogger(),
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire resolves the binary on first call and returns the shared
// Transcoder. A failed lookup is not cached; the next call retries.
func (m *Manager) Acquire(ctx context.Context) (*Transcoder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.t != nil {
		return m.t, nil
	}
	path, err := m.lookPath(m.binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.logger.WithField("path", path).Info("Resolved ffmpeg binary")
	m.t = &Transcoder{path: path, bitrate: m.bitrate, logger: m.logger}
	return m.t, nil
}

// IsLoaded reports whether Acquire has succeeded.
func (m *Manager) IsLoaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t != nil
}

// Transcoder runs conversions. It holds no per-call state and is safe for
// concurrent use.
type Transcoder struct {
	path    string
	bitrate string
	logger  log.FieldLogger
}

// Path returns the resolved ffmpeg binary.
func (t *Transcoder) Path() string { return t.path }

// maxStderr bounds how much ffmpeg diagnostic output is kept for errors.
const maxStderr = 4 << 10

// ToMP3 converts src to MP3. ext is the extension of the source file name
// and helps ffmpeg pick a demuxer. onProgress, if not nil, receives values
// in [0, 1] as the conversion advances. Cancelling ctx kills ffmpeg.
func (t *Transcoder) ToMP3(ctx context.Context, src []byte, ext string, onProgress func(float64)) ([]byte, error) {
	dir, err := os.MkdirTemp("", "tagedit-transcode-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			t.logger.WithError(err).Warn("Failed to remove transcode directory")
		}
	}()

	in := filepath.Join(dir, "input"+cleanExt(ext))
	out := filepath.Join(dir, "output.mp3")
	if err := os.WriteFile(in, src, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write input: %w", err)
	}

	cmd := exec.CommandContext(ctx, t.path,
		"-hide_banner", "-nostdin", "-y",
		"-i", in,
		"-vn",
		"-b:a", t.bitrate,
		"-progress", "pipe:1", "-nostats",
		out,
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	p := newProgress(onProgress)
	var diag tailBuffer
	var g errgroup.Group
	g.Go(func() error { return scanLines(stdout, p.feed) })
	g.Go(func() error {
		return scanLines(stderr, func(line string) {
			p.feed(line)
			diag.WriteLine(line)
		})
	})
	readErr := g.Wait()
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if waitErr != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w: %s", waitErr, diag.String())
	}
	if readErr != nil {
		return nil, fmt.Errorf("reading ffmpeg output: %w", readErr)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read output: %w", err)
	}
	p.finish()

	t.logger.WithFields(log.Fields{
		"input_bytes":  len(src),
		"output_bytes": len(data),
		"bitrate":      t.bitrate,
	}).Debug("Transcode finished")
	return data, nil
}

// maxLine caps a single scanned line; longer runs are delivered in pieces
// so the scanner never stops with bufio.ErrTooLong.
const maxLine = 32 << 10

// scanLines feeds fn every line of r. r is drained to EOF even when reading
// fails, so the writing process never blocks on a full pipe.
func scanLines(r io.Reader, fn func(string)) error {
	sc := bufio.NewScanner(r)
	sc.Split(scanCRLF)
	for sc.Scan() {
		fn(sc.Text())
	}
	if err := sc.Err(); err != nil {
		_, _ = io.Copy(io.Discard, r)
		return err
	}
	return nil
}

// scanCRLF splits on \n or \r; ffmpeg rewrites status lines with \r.
func scanCRLF(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF || len(data) >= maxLine {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// cleanExt keeps a short alphanumeric extension and drops anything else.
func cleanExt(ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" || len(ext) > 8 {
		return ""
	}
	for _, c := range ext {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return "." + ext
}

// tailBuffer keeps the last maxStderr bytes of written lines.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *tailBuffer) WriteLine(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, line...)
	b.buf = append(b.buf, '\n')
	if over := len(b.buf) - maxStderr; over > 0 {
		b.buf = b.buf[over:]
	}
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(string(b.buf))
}
