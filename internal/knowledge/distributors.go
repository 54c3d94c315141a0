package knowledge

import (
	"fmt"
	"net/url"
	"strings"
)

// DistributorEntry describes a well-known distributor domain.
type DistributorEntry struct {
	Domain string
	// DirectlyAddressable means the distributor serves product-detail pages
	// at predictable identifier-keyed URLs.
	DirectlyAddressable bool
	Note                string
}

// distributorRegistry lists the distributors with known URL behavior.
// Slice order is the match order for substring lookups.
var distributorRegistry = []DistributorEntry{
	{"digikey.com", true, "detail pages at /en/products/detail/<mfr>/<part>/<id>"},
	{"mouser.com", true, "detail pages at /ProductDetail/<mfr>/<part>"},
	{"arrow.com", true, "detail pages at /en/products/<part>/<mfr>"},
	{"newark.com", false, "keyword search only; no stable detail URL pattern"},
	{"rs-online.com", false, "keyword search only; regional storefronts vary"},
	{"grainger.com", false, "keyword search only"},
	{"mscdirect.com", false, "keyword search only"},
	{"alliedelec.com", false, "keyword search only"},
	{"galco.com", true, "catalog pages at /buy/<mfr>/<part>"},
}

// UnknownDistributorNote is attached to channels whose domain is absent
// from the registry.
const UnknownDistributorNote = "unknown URL pattern; will resolve via search"

// LookupDistributor finds the registry entry whose domain's first label
// (e.g. "digikey" from "digikey.com") appears in the given domain.
func LookupDistributor(domain string) (DistributorEntry, bool) {
	d := strings.ToLower(strings.TrimSpace(domain))
	if d == "" {
		return DistributorEntry{}, false
	}
	for _, entry := range distributorRegistry {
		label, _, _ := strings.Cut(entry.Domain, ".")
		if strings.Contains(d, label) {
			return entry, true
		}
	}
	return DistributorEntry{}, false
}

// DistributorFallbackURL builds a search-style URL on the distributor's own
// domain for a part identifier. A general web-search-engine URL is never
// produced: unknown domains get a generic on-domain search path.
func DistributorFallbackURL(domain, manufacturer, partNumber string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	pn := url.QueryEscape(partNumber)
	switch {
	case strings.Contains(d, "digikey"):
		return "https://www.digikey.com/en/products/filter?keywords=" + pn
	case strings.Contains(d, "mouser"):
		return "https://www.mouser.com/Search/Refine?Keyword=" + pn
	case strings.Contains(d, "arrow"):
		return "https://www.arrow.com/en/products/search?q=" + pn
	case strings.Contains(d, "newark"):
		return "https://www.newark.com/search?st=" + pn
	case strings.Contains(d, "rs-online"):
		return "https://www.rs-online.com/web/c/?searchTerm=" + pn
	case strings.Contains(d, "grainger"):
		return "https://www.grainger.com/search?searchQuery=" + pn
	case strings.Contains(d, "msc"):
		return "https://www.mscdirect.com/browse/tn/?searchterm=" + pn
	case strings.Contains(d, "allied"):
		return "https://www.alliedelec.com/search/?q=" + pn
	case strings.Contains(d, "galco"):
		return fmt.Sprintf("https://www.galco.com/buy/%s/%s",
			url.PathEscape(NormalizeName(manufacturer)), url.PathEscape(partNumber))
	default:
		host := strings.TrimPrefix(d, "www.")
		return fmt.Sprintf("https://%s/search?q=%s", host, pn)
	}
}
