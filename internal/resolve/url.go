package resolve

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL standardizes a URL so equivalent spellings compare equal.
// It lowercases the scheme and host, removes default ports, and sorts query
// parameters. It also removes fragments.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	// Lowercase scheme and host
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	// Remove default ports
	if u.Scheme == "http" && strings.HasSuffix(u.Host, ":80") {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" && strings.HasSuffix(u.Host, ":443") {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	// Remove fragment
	u.Fragment = ""

	// Sort query parameters
	q := u.Query()
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// hostOf extracts the lowercase hostname from a URL, stripping a leading
// "www.". Returns "" when the URL cannot be parsed.
func hostOf(rawURL string) string {
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// onDomain reports whether a result URL belongs to the target domain.
func onDomain(rawURL, domain string) bool {
	host := hostOf(rawURL)
	return host != "" && strings.Contains(host, strings.TrimPrefix(strings.ToLower(domain), "www."))
}

var searchEngineHosts = []string{
	"google.",
	"bing.",
	"duckduckgo.",
	"search.yahoo.",
	"baidu.",
	"yandex.",
}

// IsSearchEngineURL reports whether a URL points at a general web search
// engine. Resolved and fallback URLs must always target the subject's own
// domain, so these are rejected wherever a URL enters the pipeline.
func IsSearchEngineURL(rawURL string) bool {
	host := hostOf(rawURL)
	if host == "" {
		return false
	}
	for _, prefix := range searchEngineHosts {
		if strings.HasPrefix(host, prefix) {
			return true
		}
	}
	return false
}
