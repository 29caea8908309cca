// Package contenttype classifies MIME types recorded in HTTP archives.
package contenttype

import (
	"mime"
	"strings"
)

// Category represents a broad content-type classification.
type Category string

const (
	JSON       Category = "json"
	XML        Category = "xml"
	HTML       Category = "html"
	CSS        Category = "css"
	JavaScript Category = "javascript"
	Image      Category = "image"
	Font       Category = "font"
	Text       Category = "text"
	Binary     Category = "binary"
)

// Classify returns the broad content category for a MIME type.
// Parameters (charset, boundary, etc.) are ignored. Returns Binary for empty
// or unrecognized values.
func Classify(mimeType string) Category {
	mediaType := mediaType(mimeType)
	if mediaType == "" {
		return Binary
	}

	switch {
	case strings.Contains(mediaType, "json"):
		return JSON
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return HTML
	case strings.Contains(mediaType, "xml"):
		return XML
	case mediaType == "text/css":
		return CSS
	case strings.Contains(mediaType, "javascript") || strings.Contains(mediaType, "ecmascript"):
		return JavaScript
	case strings.HasPrefix(mediaType, "image/"):
		return Image
	case strings.HasPrefix(mediaType, "font/") || strings.Contains(mediaType, "font-"):
		return Font
	case strings.HasPrefix(mediaType, "text/"):
		return Text
	}
	return Binary
}

// IsHTML reports whether mimeType mentions text/html anywhere, so
// "text/html; charset=utf-8" qualifies. The match is case-sensitive, as
// archives record the header verbatim.
func IsHTML(mimeType string) bool {
	return strings.Contains(mimeType, "text/html")
}

// IsExactJSON reports whether mimeType is exactly "application/json",
// with no parameters.
func IsExactJSON(mimeType string) bool {
	return mimeType == "application/json"
}

func mediaType(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mt, _, _ = strings.Cut(mimeType, ";")
		return strings.ToLower(strings.TrimSpace(mt))
	}
	return mt
}
