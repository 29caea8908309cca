// Package pathname derives filesystem paths for archived HTTP responses.
//
// A request URL is humanized, split into segments, and each segment is
// sanitized into a legal filename. When the URL carries no extension, one is
// inferred from the response MIME type: HTML documents land at
// <path>/index.html and JSON documents at <path>.json.
package pathname

import (
	"strings"

	"github.com/usestring/har-extractor/pkg/contenttype"
	"github.com/usestring/har-extractor/pkg/har"
)

// IndexName is the stem used when a URL names a directory rather than a file.
const IndexName = "index"

// FromEntry returns the slash-separated relative path the entry's response
// body is written to. The result depends only on the entry's URL and MIME
// type, never on other entries.
func FromEntry(entry *har.Entry, removeQueryString bool) string {
	rawURL := entry.Request.URL
	if removeQueryString {
		rawURL, _, _ = strings.Cut(rawURL, "?")
	}
	segments := Segments(rawURL)
	return strings.Join(withExtension(segments, entry.Response.Content.MimeType), "/")
}

// Segments humanizes rawURL and sanitizes each "/"-separated segment.
// Empty segments are kept.
func Segments(rawURL string) []string {
	parts := strings.Split(HumanizeURL(rawURL), "/")
	for i, part := range parts {
		parts[i] = SanitizeSegment(part)
	}
	return parts
}

func withExtension(segments []string, mimeType string) []string {
	last := len(segments) - 1
	name := segments[last]
	isHTML := contenttype.IsHTML(mimeType)
	isJSON := contenttype.IsExactJSON(mimeType)

	switch {
	case name == "":
		segments[last] = IndexName + inferredExt(isHTML, isJSON)
	case isHTML && !strings.Contains(name, ".html") && (!strings.Contains(name, ".") || last == 0):
		// A bare host is always a directory, even though it contains dots.
		segments = append(segments, IndexName+".html")
	case isJSON && !strings.Contains(name, "."):
		segments[last] = name + ".json"
	}
	return segments
}

func inferredExt(isHTML, isJSON bool) string {
	switch {
	case isHTML:
		return ".html"
	case isJSON:
		return ".json"
	}
	return ""
}
