// Package aggregate implements the result aggregator: URL canonicalization,
// cross-query dedup, per-query capping, ranking, and tiering of search hits
// into writer-facing evidence.
package aggregate

import (
	"net/url"
	"strings"
)

// trackingQueryKeys are query-string parameters stripped during
// canonicalization because they vary per click without changing the
// resource a URL identifies.
var trackingQueryKeys = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"utm_id":       true,
	"gclid":        true,
	"fbclid":       true,
	"ref":          true,
	"ref_src":      true,
	"mc_cid":       true,
	"mc_eid":       true,
}

// CanonicalizeURL normalizes a source URL for deduplication: lowercase
// scheme+host, strip the path's trailing slash, remove tracking query
// keys, drop the fragment. Malformed or relative URLs (no scheme/host) are
// returned unchanged.
//
// Idempotent by construction: every transformation here is already a
// fixed point of itself (lowercasing, stripping a trailing slash that is
// no longer there, re-encoding a query that no longer carries tracking
// keys, dropping an already-empty fragment).
func CanonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.Fragment = ""

	if u.RawQuery != "" {
		values := u.Query()
		for key := range values {
			if trackingQueryKeys[key] {
				values.Del(key)
			}
		}
		u.RawQuery = values.Encode()
	}

	return u.String()
}
