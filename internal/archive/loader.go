// Package archive loads HAR files from disk or stdin.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/usestring/har-extractor/internal/schema"
	"github.com/usestring/har-extractor/pkg/har"
)

// StdinName is the path argument that reads the archive from stdin.
const StdinName = "-"

// Source is a decoded archive and the path it was read from.
type Source struct {
	Name    string
	Archive *har.Archive
}

// Loader reads and decodes archives, optionally validating them first.
type Loader struct {
	validator *schema.Validator
	workers   int
	stdin     io.Reader
}

// Option is a functional option for configuring the Loader.
type Option func(*Loader)

// WithValidator validates every document against v before decoding.
func WithValidator(v *schema.Validator) Option {
	return func(l *Loader) {
		l.validator = v
	}
}

// WithWorkers sets how many files are read concurrently.
func WithWorkers(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithStdin sets the reader used for the "-" path. A nil reader keeps
// os.Stdin.
func WithStdin(r io.Reader) Option {
	return func(l *Loader) {
		if r != nil {
			l.stdin = r
		}
	}
}

// New creates a Loader. By default it does not validate, reads one file at
// a time and takes "-" from os.Stdin.
func New(opts ...Option) *Loader {
	l := &Loader{
		workers: 1,
		stdin:   os.Stdin,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads all paths concurrently and returns the archives in argument
// order. The first failure cancels the remaining reads.
func (l *Loader) Load(ctx context.Context, paths []string) ([]*Source, error) {
	if countStdin(paths) > 1 {
		return nil, errors.New("stdin (-) can only be read once")
	}

	sources := make([]*Source, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	for i, path := range paths {
		g.Go(func() error {
			src, err := l.LoadOne(ctx, path)
			if err != nil {
				return err
			}
			sources[i] = src
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sources, nil
}

// LoadOne reads, validates and decodes a single archive.
func (l *Loader) LoadOne(ctx context.Context, path string) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	data, err := l.read(path)
	if err != nil {
		return nil, err
	}

	if l.validator != nil {
		if err := l.validator.Validate(data); err != nil {
			return nil, fmt.Errorf("%s: %w", displayName(path), err)
		}
	}

	archive, err := har.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", displayName(path), err)
	}

	slog.Debug("loaded archive",
		slog.String("path", displayName(path)),
		slog.Int("bytes", len(data)),
		slog.Int("entries", len(archive.Log.Entries)),
		slog.Bool("validated", l.validator != nil),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return &Source{Name: displayName(path), Archive: archive}, nil
}

func (l *Loader) read(path string) ([]byte, error) {
	if path == StdinName {
		data, err := io.ReadAll(l.stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	return data, nil
}

func displayName(path string) string {
	if path == StdinName {
		return "<stdin>"
	}
	return path
}

func countStdin(paths []string) int {
	n := 0
	for _, p := range paths {
		if p == StdinName {
			n++
		}
	}
	return n
}
