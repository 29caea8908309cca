// Package extract writes the response bodies of an HTTP archive to a
// directory tree, one file per entry.
package extract

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/usestring/har-extractor/internal/cache"
	"github.com/usestring/har-extractor/pkg/contenttype"
	"github.com/usestring/har-extractor/pkg/har"
	"github.com/usestring/har-extractor/pkg/pathname"
)

// Options configures one extraction run.
type Options struct {
	OutputDir         string    // Root all output paths are joined under
	Verbose           bool      // Trace each output path to Trace
	DryRun            bool      // Compute paths without touching the filesystem
	RemoveQueryString bool      // Drop "?..." from URLs before deriving paths
	Trace             io.Writer // Destination of verbose lines, default os.Stdout
	DirCacheSize      int       // Directories remembered per run, default cache.DefaultDirCacheSize
}

// run holds the state of one Extract call. None of it outlives the call.
type run struct {
	opts       Options
	trace      io.Writer
	collisions *collisionTable
	dirs       *cache.DirCache
	stats      stats
}

type stats struct {
	written    int
	skipped    int
	collisions int
	bytes      int64
	categories map[contenttype.Category]int
}

// Extract writes every entry of archive that carries a response body under
// opts.OutputDir, in archive order.
//
// Entries without body text are skipped. Two entries deriving the same path
// are kept apart with a numeric suffix (foo.json, foo-1.json, foo-2.json).
// Existing files at an output path are overwritten.
//
// The first decoding or filesystem error stops the run; files written
// before it stay on disk.
func Extract(archive *har.Archive, opts Options) error {
	r, err := newRun(opts)
	if err != nil {
		return err
	}

	for i := range archive.Log.Entries {
		if err := r.extractEntry(i, &archive.Log.Entries[i]); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	r.logSummary()
	return nil
}

func newRun(opts Options) (*run, error) {
	dirs, err := cache.NewDirCache(opts.DirCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating directory cache: %w", err)
	}

	trace := opts.Trace
	if trace == nil {
		trace = os.Stdout
	}

	return &run{
		opts:       opts,
		trace:      trace,
		collisions: newCollisionTable(),
		dirs:       dirs,
		stats:      stats{categories: make(map[contenttype.Category]int)},
	}, nil
}

func (r *run) extractEntry(index int, entry *har.Entry) error {
	content := entry.Response.Content
	body, err := content.Decode()
	if err != nil {
		return err
	}
	if body == nil {
		r.stats.skipped++
		slog.Debug("skipping entry without body",
			slog.Int("index", index),
			slog.String("url", entry.Request.URL),
		)
		return nil
	}

	rel := pathname.FromEntry(entry, r.opts.RemoveQueryString)
	outputPath, n := r.collisions.resolve(filepath.Join(r.opts.OutputDir, filepath.FromSlash(rel)))
	if n > 0 {
		r.stats.collisions++
	}

	if !r.opts.DryRun {
		if err := r.write(outputPath, body); err != nil {
			return err
		}
	}

	if r.opts.Verbose {
		fmt.Fprintln(r.trace, outputPath)
	}

	category := contenttype.Classify(content.MimeType)
	r.stats.written++
	r.stats.bytes += int64(len(body))
	r.stats.categories[category]++

	slog.Debug("extracted entry",
		slog.Int("index", index),
		slog.String("url", entry.Request.URL),
		slog.String("path", outputPath),
		slog.String("category", string(category)),
		slog.Int("bytes", len(body)),
		slog.Bool("dry_run", r.opts.DryRun),
	)
	return nil
}

func (r *run) write(outputPath string, body []byte) error {
	dir := filepath.Dir(outputPath)
	if !r.dirs.Has(dir) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
		r.dirs.Add(dir)
	}

	if err := os.WriteFile(outputPath, body, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}
	return nil
}

func (r *run) logSummary() {
	attrs := []any{
		slog.String("output_dir", r.opts.OutputDir),
		slog.Int("written", r.stats.written),
		slog.Int("skipped", r.stats.skipped),
		slog.Int("collisions", r.stats.collisions),
		slog.Int64("bytes", r.stats.bytes),
		slog.Bool("dry_run", r.opts.DryRun),
	}
	for _, category := range slices.Sorted(maps.Keys(r.stats.categories)) {
		attrs = append(attrs, slog.Int("category_"+string(category), r.stats.categories[category]))
	}
	slog.Info("extraction complete", attrs...)
}
