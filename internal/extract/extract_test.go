package extract

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/har-extractor/pkg/har"
)

func strPtr(s string) *string { return &s }

func entry(url, mimeType string, text *string, encoding string) har.Entry {
	return har.Entry{
		Request: har.Request{Method: "GET", URL: url},
		Response: har.Response{
			Status: 200,
			Content: har.Content{
				MimeType: mimeType,
				Text:     text,
				Encoding: encoding,
			},
		},
	}
}

func archiveOf(entries ...har.Entry) *har.Archive {
	return &har.Archive{Log: har.Log{Version: "1.2", Entries: entries}}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func traceLines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
}

func TestExtract_WritesBodies(t *testing.T) {
	out := t.TempDir()
	png := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}

	archive := archiveOf(
		entry("http://x.com/blog/post", "text/html; charset=utf-8", strPtr("<html/>"), ""),
		entry("http://x.com/api/users", "application/json", strPtr(`[{"id":1}]`), ""),
		entry("http://x.com/img/logo.png", "image/png", strPtr(base64.StdEncoding.EncodeToString(png)), "base64"),
	)

	require.NoError(t, Extract(archive, Options{OutputDir: out}))

	assert.Equal(t, "<html/>", readFile(t, filepath.Join(out, "x.com", "blog", "post", "index.html")))
	assert.Equal(t, `[{"id":1}]`, readFile(t, filepath.Join(out, "x.com", "api", "users.json")))
	assert.Equal(t, string(png), readFile(t, filepath.Join(out, "x.com", "img", "logo.png")))
}

func TestExtract_SkipsEntriesWithoutText(t *testing.T) {
	out := t.TempDir()
	var trace bytes.Buffer

	archive := archiveOf(
		entry("http://x.com/empty", "text/html", nil, ""),
		entry("http://x.com/redirect", "", nil, "base64"),
	)

	require.NoError(t, Extract(archive, Options{OutputDir: out, Verbose: true, Trace: &trace}))

	files, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Empty(t, trace.String())
}

func TestExtract_EmptyTextIsWritten(t *testing.T) {
	out := t.TempDir()
	archive := archiveOf(entry("http://x.com/empty.txt", "text/plain", strPtr(""), ""))

	require.NoError(t, Extract(archive, Options{OutputDir: out}))
	assert.Equal(t, "", readFile(t, filepath.Join(out, "x.com", "empty.txt")))
}

func TestExtract_Collisions(t *testing.T) {
	out := t.TempDir()
	var trace bytes.Buffer

	archive := archiveOf(
		entry("http://x.com/a/b", "application/json", strPtr("1"), ""),
		entry("http://x.com/a/b", "application/json", strPtr("2"), ""),
		entry("http://x.com/a/b.json", "application/json", strPtr("3"), ""),
	)

	require.NoError(t, Extract(archive, Options{OutputDir: out, Verbose: true, Trace: &trace}))

	dir := filepath.Join(out, "x.com", "a")
	assert.Equal(t, []string{
		filepath.Join(dir, "b.json"),
		filepath.Join(dir, "b-1.json"),
		filepath.Join(dir, "b-2.json"),
	}, traceLines(&trace))
	assert.Equal(t, "1", readFile(t, filepath.Join(dir, "b.json")))
	assert.Equal(t, "2", readFile(t, filepath.Join(dir, "b-1.json")))
	assert.Equal(t, "3", readFile(t, filepath.Join(dir, "b-2.json")))
}

func TestExtract_RemoveQueryString(t *testing.T) {
	out := t.TempDir()
	var trace bytes.Buffer

	archive := archiveOf(
		entry("http://x.com/a?page=1", "", strPtr("one"), ""),
		entry("http://x.com/a?page=2", "", strPtr("two"), ""),
	)

	opts := Options{OutputDir: out, Verbose: true, RemoveQueryString: true, Trace: &trace}
	require.NoError(t, Extract(archive, opts))

	assert.Equal(t, []string{
		filepath.Join(out, "x.com", "a"),
		filepath.Join(out, "x.com", "a-1"),
	}, traceLines(&trace))
	assert.Equal(t, "one", readFile(t, filepath.Join(out, "x.com", "a")))
	assert.Equal(t, "two", readFile(t, filepath.Join(out, "x.com", "a-1")))
}

func TestExtract_DryRun(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	archive := archiveOf(
		entry("http://x.com/blog/post", "text/html", strPtr("<html/>"), ""),
		entry("http://x.com/api/users", "application/json", strPtr("[]"), ""),
		entry("http://x.com/api/users", "application/json", strPtr("[]"), ""),
	)

	var dryTrace bytes.Buffer
	require.NoError(t, Extract(archive, Options{OutputDir: out, Verbose: true, DryRun: true, Trace: &dryTrace}))

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "dry run must not create the output directory")

	var realTrace bytes.Buffer
	require.NoError(t, Extract(archive, Options{OutputDir: out, Verbose: true, Trace: &realTrace}))

	assert.Equal(t, realTrace.String(), dryTrace.String())
	assert.Len(t, traceLines(&dryTrace), 3)
}

func TestExtract_Idempotent(t *testing.T) {
	out := t.TempDir()
	archive := archiveOf(
		entry("http://x.com/a", "application/json", strPtr(`{"a":1}`), ""),
		entry("http://x.com/a", "application/json", strPtr(`{"a":2}`), ""),
	)

	require.NoError(t, Extract(archive, Options{OutputDir: out}))
	first := readFile(t, filepath.Join(out, "x.com", "a-1.json"))

	require.NoError(t, Extract(archive, Options{OutputDir: out}))
	assert.Equal(t, first, readFile(t, filepath.Join(out, "x.com", "a-1.json")))
	assert.Equal(t, `{"a":1}`, readFile(t, filepath.Join(out, "x.com", "a.json")))

	_, err := os.Stat(filepath.Join(out, "x.com", "a-2.json"))
	assert.True(t, os.IsNotExist(err), "collision numbering must restart on each run")
}

func TestExtract_OverwritesExistingFile(t *testing.T) {
	out := t.TempDir()
	target := filepath.Join(out, "x.com", "data.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("stale content"), 0o644))

	archive := archiveOf(entry("http://x.com/data.txt", "text/plain", strPtr("fresh"), ""))
	require.NoError(t, Extract(archive, Options{OutputDir: out}))

	assert.Equal(t, "fresh", readFile(t, target))
}

func TestExtract_DecodeErrorAborts(t *testing.T) {
	out := t.TempDir()
	archive := archiveOf(
		entry("http://x.com/first.txt", "text/plain", strPtr("ok"), ""),
		entry("http://x.com/broken.bin", "", strPtr("%%% not base64 %%%"), "base64"),
		entry("http://x.com/last.txt", "text/plain", strPtr("never"), ""),
	)

	err := Extract(archive, Options{OutputDir: out})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 1")

	assert.Equal(t, "ok", readFile(t, filepath.Join(out, "x.com", "first.txt")))
	_, statErr := os.Stat(filepath.Join(out, "x.com", "last.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtract_FilesystemErrorAborts(t *testing.T) {
	out := t.TempDir()
	archive := archiveOf(
		entry("http://x.com/a", "text/plain", strPtr("file named a"), ""),
		entry("http://x.com/a/b.txt", "text/plain", strPtr("needs a as directory"), ""),
		entry("http://x.com/c.txt", "text/plain", strPtr("never"), ""),
	)

	err := Extract(archive, Options{OutputDir: out})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 1")
	assert.Contains(t, err.Error(), "creating directory")

	assert.Equal(t, "file named a", readFile(t, filepath.Join(out, "x.com", "a")))
	_, statErr := os.Stat(filepath.Join(out, "x.com", "c.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtract_SmallDirCache(t *testing.T) {
	out := t.TempDir()
	archive := archiveOf(
		entry("http://x.com/a/1.txt", "", strPtr("1"), ""),
		entry("http://x.com/b/2.txt", "", strPtr("2"), ""),
		entry("http://x.com/c/3.txt", "", strPtr("3"), ""),
		entry("http://x.com/a/4.txt", "", strPtr("4"), ""),
	)

	require.NoError(t, Extract(archive, Options{OutputDir: out, DirCacheSize: 1}))
	assert.Equal(t, "4", readFile(t, filepath.Join(out, "x.com", "a", "4.txt")))
}
