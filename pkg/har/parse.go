package har

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// utf8BOM is written by some Windows capture tools ahead of the JSON document.
var utf8BOM = []byte("\xef\xbb\xbf")

// Parse decodes a HAR document from r.
func Parse(r io.Reader) (*Archive, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading HAR: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes decodes a HAR document held in memory.
func ParseBytes(data []byte) (*Archive, error) {
	var archive Archive
	if err := json.Unmarshal(StripBOM(data), &archive); err != nil {
		return nil, fmt.Errorf("decoding HAR: %w", err)
	}
	return &archive, nil
}

// StripBOM removes a leading UTF-8 byte order mark, if any.
func StripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}
