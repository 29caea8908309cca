package har

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Content encodings
const (
	EncodingIdentity = ""
	EncodingBase64   = "base64"
)

// Archive is the top-level HAR document.
type Archive struct {
	Log Log `json:"log"`
}

// Log holds the capture metadata and the ordered list of entries.
type Log struct {
	Version string  `json:"version,omitempty"`
	Creator *Agent  `json:"creator,omitempty"`
	Browser *Agent  `json:"browser,omitempty"`
	Entries []Entry `json:"entries"`
}

// Agent identifies the tool or browser that produced the archive.
type Agent struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// Header is a single name/value header pair.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Headers is an ordered list of headers.
type Headers []Header

// Get returns the first value for the given header name (case-insensitive).
// Returns an empty string if the header is not found.
func (h Headers) Get(name string) string {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return hdr.Value
		}
	}
	return ""
}

// Entry represents one captured request/response pair.
type Entry struct {
	StartedDateTime string   `json:"startedDateTime,omitempty"`
	Time            float64  `json:"time,omitempty"`
	Request         Request  `json:"request"`
	Response        Response `json:"response"`
	ServerIPAddress string   `json:"serverIPAddress,omitempty"`
	Connection      string   `json:"connection,omitempty"`
}

// Request is the request half of an entry.
type Request struct {
	Method      string  `json:"method,omitempty"`
	URL         string  `json:"url"`
	HTTPVersion string  `json:"httpVersion,omitempty"`
	Headers     Headers `json:"headers,omitempty"`
}

// Response is the response half of an entry.
type Response struct {
	Status      int     `json:"status,omitempty"`
	StatusText  string  `json:"statusText,omitempty"`
	HTTPVersion string  `json:"httpVersion,omitempty"`
	Headers     Headers `json:"headers,omitempty"`
	Content     Content `json:"content"`
	RedirectURL string  `json:"redirectURL,omitempty"`
}

// Content describes the response body.
type Content struct {
	Size     int64   `json:"size,omitempty"`
	MimeType string  `json:"mimeType,omitempty"`
	Text     *string `json:"text,omitempty" jsonschema:"nullable"`
	Encoding string  `json:"encoding,omitempty"`
}

// Decode returns the raw body bytes.
// Returns nil, nil when the content carries no text.
// Base64 text is decoded; any other encoding is taken verbatim.
func (c Content) Decode() ([]byte, error) {
	if c.Text == nil {
		return nil, nil
	}
	if c.Encoding != EncodingBase64 {
		return []byte(*c.Text), nil
	}

	decoded, err := base64.StdEncoding.DecodeString(*c.Text)
	if err == nil {
		return decoded, nil
	}
	// Some capture tools drop the padding.
	if raw, rawErr := base64.RawStdEncoding.DecodeString(*c.Text); rawErr == nil {
		return raw, nil
	}
	return nil, fmt.Errorf("decoding base64 body: %w", err)
}
