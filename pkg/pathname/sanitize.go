package pathname

import (
	"path"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxSegmentBytes is the filename length ceiling shared by common filesystems.
	MaxSegmentBytes = 255

	// Replacement stands in for characters that cannot appear in a filename.
	Replacement = '!'

	maxPreservedExt = 16
)

// illegalChars are rejected by Windows, and "/" by every POSIX filesystem.
const illegalChars = `<>:"/\|?*`

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SanitizeSegment turns s into a single filename that is legal on Windows and
// POSIX filesystems.
//
//   - The input is NFC-normalized.
//   - Each character in <>:"/\|?* and each C0/C1 control character becomes
//     Replacement; adjacent replacements collapse into one.
//   - A leading run of dots becomes a single Replacement, so "." and ".."
//     can never walk the tree.
//   - Trailing spaces and dots are removed.
//   - Windows device names (CON, NUL, COM1, ...) get Replacement appended to
//     their stem.
//   - The result is cut to MaxSegmentBytes at a rune boundary, keeping a short
//     extension intact.
//
// Empty input yields "". Input that is already legal is returned unchanged.
// Input made only of dots and spaces may sanitize to "".
func SanitizeSegment(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	replaced := false
	for _, r := range s {
		if isIllegal(r) {
			if !replaced {
				b.WriteRune(Replacement)
			}
			replaced = true
			continue
		}
		b.WriteRune(r)
		replaced = false
	}
	out := b.String()

	if trimmed := strings.TrimLeft(out, "."); len(trimmed) != len(out) {
		out = string(Replacement) + strings.TrimLeft(trimmed, string(Replacement))
	}
	out = strings.TrimRight(out, " .")

	stem, rest, _ := strings.Cut(out, ".")
	if reservedNames[strings.ToUpper(stem)] {
		out = stem + string(Replacement)
		if rest != "" {
			out += "." + rest
		}
	}

	return truncate(out, MaxSegmentBytes)
}

func isIllegal(r rune) bool {
	return r < 0x20 || (r >= 0x7f && r <= 0x9f) || strings.ContainsRune(illegalChars, r)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	ext := path.Ext(s)
	if len(ext) > maxPreservedExt {
		ext = ""
	}
	stem := s[:len(s)-len(ext)]

	cut := limit - len(ext)
	for cut > 0 && !utf8.RuneStart(stem[cut]) {
		cut--
	}
	return strings.TrimRight(stem[:cut], " .") + ext
}
