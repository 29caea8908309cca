// Package har models the HTTP Archive (HAR) format produced by browser
// devtools and capture proxies.
//
// Only the parts of the format that describe a request/response pair are
// modelled. Unknown fields are ignored when decoding.
//
// # Parsing
//
// Decode an archive from any reader:
//
//	archive, err := har.Parse(f)
//
// # Working with Bodies
//
// Response bodies are stored as text, optionally base64-encoded. Use
// Content.Decode to get the raw bytes:
//
//	body, err := entry.Response.Content.Decode()
//
// A nil body with a nil error means the entry carries no body text.
//
// # Working with Headers
//
// Headers are a list of name/value pairs. The Headers type provides
// case-insensitive lookup:
//
//	contentType := entry.Response.Headers.Get("Content-Type")
package har
