// har-extractor writes the response bodies captured in HAR files to a
// directory tree, one file per entry, named after the request URL.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/usestring/har-extractor/internal/archive"
	"github.com/usestring/har-extractor/internal/config"
	"github.com/usestring/har-extractor/internal/extract"
	"github.com/usestring/har-extractor/internal/logging"
	"github.com/usestring/har-extractor/internal/query"
	"github.com/usestring/har-extractor/internal/schema"
	"github.com/usestring/har-extractor/pkg/pathname"
)

// errUsage marks command-line mistakes; main exits with status 2 for them.
var errUsage = errors.New("usage error")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type cliOptions struct {
	extract.Options
	filter   string
	validate bool
	workers  int
	inputs   []string
}

func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (*cliOptions, error) {
	opts := &cliOptions{}

	flagSet := pflag.NewFlagSet("har-extractor", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.OutputDir, "output", "o", cfg.OutputDir, "output directory (env HAR_OUTPUT_DIR)")
	flagSet.BoolVarP(&opts.Verbose, "verbose", "v", cfg.Verbose, "print each output path")
	flagSet.BoolVarP(&opts.DryRun, "dry-run", "n", cfg.DryRun, "compute output paths without writing files")
	flagSet.BoolVarP(&opts.RemoveQueryString, "remove-query-string", "r", cfg.RemoveQueryString, "drop the query string from URLs before naming files")
	flagSet.StringVarP(&opts.filter, "filter", "f", "", "jq expression; only entries for which it yields a truthy value are extracted")
	flagSet.BoolVar(&opts.validate, "validate", cfg.Validate, "validate input against the HAR schema before extracting")
	flagSet.IntVar(&opts.workers, "workers", cfg.LoadWorkers, "number of input files read concurrently")
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}

	opts.inputs = flagSet.Args()
	if len(opts.inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one HAR file (or - for stdin) is required", errUsage)
	}
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("%w: --output is required", errUsage)
	}
	opts.DirCacheSize = cfg.DirCacheMaxItems
	return opts, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	cfg := config.Load()

	opts, err := parseFlags(args, cfg, os.Stderr)
	if err != nil {
		return err
	}

	cleanup, err := logging.Setup(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		FilePath:   cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer cleanup()

	var selector *query.Selector
	if opts.filter != "" {
		if selector, err = query.Compile(opts.filter); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
	}

	loaderOpts := []archive.Option{archive.WithWorkers(opts.workers), archive.WithStdin(stdin)}
	if opts.validate {
		validator, err := schema.NewHARValidator()
		if err != nil {
			return fmt.Errorf("building HAR validator: %w", err)
		}
		loaderOpts = append(loaderOpts, archive.WithValidator(validator))
	}

	sources, err := archive.New(loaderOpts...).Load(ctx, opts.inputs)
	if err != nil {
		return err
	}

	outputDirs := outputDirsFor(opts.OutputDir, sources)
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc := src.Archive
		if selector != nil {
			if doc, err = selector.Filter(ctx, doc); err != nil {
				return fmt.Errorf("%s: filtering entries: %w", src.Name, err)
			}
		}

		runOpts := opts.Options
		runOpts.OutputDir = outputDirs[i]
		runOpts.Trace = stdout

		slog.Info("extracting archive",
			slog.String("source", src.Name),
			slog.String("output_dir", runOpts.OutputDir),
			slog.Int("entries", len(doc.Log.Entries)),
		)
		if err := extract.Extract(doc, runOpts); err != nil {
			return fmt.Errorf("%s: %w", src.Name, err)
		}
	}
	return nil
}

// outputDirsFor gives each source its own directory when there are several,
// so that archives never overwrite each other. A single source is extracted
// straight into root.
func outputDirsFor(root string, sources []*archive.Source) []string {
	dirs := make([]string, len(sources))
	if len(sources) == 1 {
		dirs[0] = root
		return dirs
	}

	used := make(map[string]int)
	for i, src := range sources {
		name := "stdin"
		if src.Name != "<stdin>" {
			base := filepath.Base(src.Name)
			name = pathname.SanitizeSegment(strings.TrimSuffix(base, filepath.Ext(base)))
		}
		if name == "" {
			name = "archive"
		}

		if n := used[name]; n > 0 {
			used[name] = n + 1
			name += "-" + strconv.Itoa(n)
		} else {
			used[name] = 1
		}
		dirs[i] = filepath.Join(root, name)
	}
	return dirs
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `har-extractor writes the response bodies of HAR files to a directory tree.

Each entry with a response body becomes one file whose path is derived from
the request URL. HTML documents at extensionless URLs are written as
<path>/index.html and JSON responses as <path>.json. Entries that map to the
same path are numbered: data.json, data-1.json, data-2.json.

With several input files, each archive is extracted into its own
subdirectory of --output named after the file.

Usage:
  har-extractor [flags] <file.har>...

Examples:
  # Extract a capture
  har-extractor -o ./site capture.har

  # Preview the file names without writing anything
  har-extractor -o ./site --dry-run --verbose capture.har

  # Only successful JSON responses, read from stdin
  cat capture.har | har-extractor -o ./api -f '.response.status == 200 and .response.content.mimeType == "application/json"' -

Flags:
`)
	flagSet.PrintDefaults()
}
