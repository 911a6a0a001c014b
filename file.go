package tagedit

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ReadFile reads the file at path and decodes its tag.
//
// Only I/O problems are returned as errors; tag problems are reported in
// ReadResult.Warnings.
//
// Example:
//
//	res, err := tagedit.ReadFile("song.mp3")
//	if err != nil {
//		return err
//	}
//	fmt.Printf("%s - %s\n", res.Tags.Artist, res.Tags.Title)
func ReadFile(path string, opts ...ReadOption) (*ReadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Inspect(data, opts...), nil
}

// ReadFileContext is ReadFile with a cancellation check before starting.
func ReadFileContext(ctx context.Context, path string, opts ...ReadOption) (*ReadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadFile(path, opts...)
}

// Job describes one file for TagMany.
type Job struct {
	Path  string
	Tags  TagRecord
	Cover *Cover // nil drops any existing picture
}

// TagMany writes tags to many files concurrently.
//
// Files are written in parallel using up to runtime.NumCPU() goroutines,
// each through WriteFile with opts. The first failure cancels jobs that
// have not started yet and is returned. Files already written stay
// written; each individual write is atomic.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//
//	err := tagedit.TagMany(ctx, jobs...)
func TagMany(ctx context.Context, jobs ...Job) error {
	return TagManyWithOptions(ctx, jobs)
}

// TagManyWithOptions is TagMany with save options applied to every job.
func TagManyWithOptions(ctx context.Context, jobs []Job, opts ...SaveOption) error {
	if len(jobs) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU()) // Limit concurrent operations

	for _, job := range jobs {
		g.Go(func() error {
			// Check for cancellation
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err := WriteFile(job.Path, job.Tags, job.Cover, opts...); err != nil {
				return fmt.Errorf("%s: %w", job.Path, err)
			}
			return nil
		})
	}

	return g.Wait()
}
