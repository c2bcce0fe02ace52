package store

import (
	"net/url"
	"strings"
)

// Tracking parameters stripped during normalization. Their presence never
// changes which document a URL points at.
var trackingParams = map[string]bool{
	"gclid":  true,
	"fbclid": true,
	"ref":    true,
}

// NormalizeURL canonicalizes a URL so trivially different spellings of the
// same address share one citation index. The function is idempotent:
// applying it twice yields the same string as applying it once.
//
// Rules: scheme and host are lowercased, default ports are dropped, the
// fragment is removed, tracking query parameters (utm_*, gclid, fbclid,
// ref) are stripped, remaining query parameters are sorted, and a trailing
// slash is removed. Inputs that do not parse as absolute URLs are returned
// trimmed but otherwise untouched, so an insert never fails outright.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	switch {
	case u.Scheme == "http" && strings.HasSuffix(u.Host, ":80"):
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(u.Host, ":443"):
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	if u.RawQuery != "" {
		if values, err := url.ParseQuery(u.RawQuery); err == nil {
			for key := range values {
				if trackingParams[key] || strings.HasPrefix(key, "utm_") {
					values.Del(key)
				}
			}
			u.RawQuery = values.Encode()
		}
	}

	u.Path = strings.TrimRight(u.Path, "/")

	return u.String()
}
