// Package query selects archive entries with jq predicates.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/itchyny/gojq"

	"github.com/usestring/har-extractor/pkg/har"
)

// Selector evaluates a compiled jq expression against each archive entry.
// An entry is selected when the expression yields at least one value other
// than null or false, so both `.response.status == 200` and
// `select(.response.status == 200)` work.
type Selector struct {
	expression string
	code       *gojq.Code
}

// Compile parses and compiles a jq expression.
func Compile(expression string) (*Selector, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}

	return &Selector{expression: expression, code: code}, nil
}

// String returns the source expression.
func (s *Selector) String() string {
	return s.expression
}

// Select returns the indices of the entries matching the expression.
// An entry whose evaluation fails is not selected; the failure is logged.
func (s *Selector) Select(ctx context.Context, entries []har.Entry) (*roaring.Bitmap, error) {
	selected := roaring.New()

	for i := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		input, err := toValue(&entries[i])
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		match, err := s.matches(ctx, input)
		if err != nil {
			slog.Warn("jq filter failed on entry",
				slog.Int("index", i),
				slog.String("url", entries[i].Request.URL),
				slog.String("error", formatJQError(err)),
			)
			continue
		}
		if match {
			selected.Add(uint32(i))
		}
	}

	return selected, nil
}

// Filter returns a new archive holding only the matching entries, in their
// original order. The input archive is not modified.
func (s *Selector) Filter(ctx context.Context, archive *har.Archive) (*har.Archive, error) {
	selected, err := s.Select(ctx, archive.Log.Entries)
	if err != nil {
		return nil, err
	}

	filtered := &har.Archive{Log: archive.Log}
	filtered.Log.Entries = make([]har.Entry, 0, selected.GetCardinality())
	it := selected.Iterator()
	for it.HasNext() {
		filtered.Log.Entries = append(filtered.Log.Entries, archive.Log.Entries[it.Next()])
	}

	slog.Debug("applied jq filter",
		slog.String("expression", s.expression),
		slog.Int("total", len(archive.Log.Entries)),
		slog.Int("selected", len(filtered.Log.Entries)),
	)
	return filtered, nil
}

func (s *Selector) matches(ctx context.Context, input any) (bool, error) {
	iter := s.code.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			return false, nil
		}
		if err, isErr := v.(error); isErr {
			var haltErr *gojq.HaltError
			if errors.As(err, &haltErr) && haltErr.Value() == nil {
				return false, nil
			}
			return false, err
		}
		if truthy(v) {
			return true, nil
		}
	}
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	}
	return true
}

// toValue converts an entry into the plain JSON value tree gojq operates on.
func toValue(entry *har.Entry) (any, error) {
	b, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("encoding entry: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decoding entry: %w", err)
	}
	return out, nil
}

// formatJQError adds hints to common gojq runtime errors.
//
// Runtime errors like "cannot iterate over: null" are plain errors without
// typed wrappers in gojq, so string matching is the only option here.
func formatJQError(err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		return fmt.Sprintf("query halted with: %v", haltErr.Value())
	}

	errStr := err.Error()
	var hint string
	switch {
	case strings.Contains(errStr, "cannot iterate over: null"):
		hint = " (the path may not exist in this entry)"
	case strings.Contains(errStr, "cannot index") && strings.Contains(errStr, "with"):
		hint = " (field not found or wrong type)"
	}
	return errStr + hint
}
