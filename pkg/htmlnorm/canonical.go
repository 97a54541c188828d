// Package htmlnorm turns raw HTML pages into the normalized Page fields:
// canonical URLs, title, breadcrumb, chrome-stripped body text and the
// intra-domain link set.
package htmlnorm

import (
	"fmt"
	"net/url"
	"strings"
)

// discardedSchemes are hrefs that never resolve to a crawlable document.
var discardedSchemes = map[string]bool{
	"mailto":     true,
	"javascript": true,
	"tel":        true,
}

// CanonicalizeURL lowercases the scheme and host, drops the query and
// fragment, and strips a single trailing slash from the path. It returns an
// error for URLs that cannot be parsed or that aren't http(s).
func CanonicalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}

	return canonicalize(u)
}

// ResolveAndCanonicalize resolves href against base and canonicalizes the
// result. ok is false when href is not an http(s) link (including
// anchor-only, mailto:, javascript: and tel: hrefs).
func ResolveAndCanonicalize(base, href string) (resolved string, ok bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", false
	}

	refURL, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	if refURL.Scheme != "" && discardedSchemes[strings.ToLower(refURL.Scheme)] {
		return "", false
	}

	abs := baseURL.ResolveReference(refURL)

	scheme := strings.ToLower(abs.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}

	canon, err := canonicalize(abs)
	if err != nil {
		return "", false
	}

	return canon, true
}

func canonicalize(u *url.URL) (string, error) {
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("canonicalize: unsupported scheme %q", u.Scheme)
	}

	out := &url.URL{
		Scheme: scheme,
		Host:   strings.ToLower(u.Host),
		Path:   u.Path,
	}

	out.Path = strings.TrimSuffix(out.Path, "/")

	return out.String(), nil
}

// SameDomain reports whether two URLs share the same (lowercased) host.
func SameDomain(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}

	ub, err := url.Parse(b)
	if err != nil {
		return false
	}

	return strings.EqualFold(ua.Hostname(), ub.Hostname())
}

// Domain returns the lowercased host of a URL.
func Domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	return strings.ToLower(u.Hostname())
}

// PathOf returns the path component of a URL, or "" if it cannot be parsed.
func PathOf(raw string) string {
	return pathOf(raw)
}
