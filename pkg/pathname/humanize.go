package pathname

import (
	"net/url"
	"sort"
	"strings"
)

var defaultPorts = map[string]string{
	"http":  "80",
	"ws":    "80",
	"https": "443",
	"wss":   "443",
}

// HumanizeURL reduces a URL to a readable, path-like string of the form
// host/path[?query].
//
// The scheme, userinfo, fragment, a leading "www." and the scheme's default
// port are removed. The host is lower-cased and trailing slashes are dropped.
// Query parameters are sorted by key so equivalent URLs humanize identically.
// Path segments are percent-decoded, except that an encoded "/" stays encoded
// so it never introduces a new segment.
//
// Input that does not parse as an absolute URL only has its scheme prefix,
// fragment and trailing slashes removed. Empty input yields "".
func HumanizeURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return stripScheme(raw)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := u.Port(); port != "" && port != defaultPorts[strings.ToLower(u.Scheme)] {
		host += ":" + port
	}

	out := host + humanizePath(u.EscapedPath())
	if q := sortQuery(u.RawQuery); q != "" {
		out += "?" + q
	}
	return out
}

func stripScheme(raw string) string {
	if i := strings.Index(raw, "://"); i >= 0 {
		raw = raw[i+len("://"):]
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimRight(raw, "/")
}

func humanizePath(escaped string) string {
	escaped = strings.TrimRight(escaped, "/")
	if escaped == "" {
		return ""
	}

	parts := strings.Split(escaped, "/")
	for i, part := range parts {
		decoded, err := url.PathUnescape(part)
		if err != nil {
			continue
		}
		parts[i] = strings.ReplaceAll(decoded, "/", "%2F")
	}
	return strings.Join(parts, "/")
}

// sortQuery orders query parameters by key, keeping the original encoding
// and the relative order of repeated keys.
func sortQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	var params []string
	for _, p := range strings.Split(rawQuery, "&") {
		if p != "" {
			params = append(params, p)
		}
	}
	sort.SliceStable(params, func(i, j int) bool {
		return queryKey(params[i]) < queryKey(params[j])
	})
	return strings.Join(params, "&")
}

func queryKey(param string) string {
	key, _, _ := strings.Cut(param, "=")
	return key
}
