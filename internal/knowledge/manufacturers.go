// Package knowledge holds the static registries that map manufacturer and
// distributor names to canonical domains and URL-construction rules, plus
// the pure classifier that labels channels as directly addressable. No I/O.
package knowledge

import (
	"fmt"
	"net/url"
	"strings"
)

// URLBuilder produces a product-page or search URL for a part identifier.
type URLBuilder func(partNumber string) string

// manufacturerRule pairs a normalized name fragment with its URL builder.
// Rules are held in a slice, not a map, so substring matching is
// deterministic: first match in declaration order wins.
type manufacturerRule struct {
	key   string
	build URLBuilder
}

// minFragmentLen guards substring matching: fragments shorter than this are
// only usable via exact match, so a name like "TeraWidgets" can never be
// claimed by the "te" rule.
const minFragmentLen = 4

var manufacturerRules = []manufacturerRule{
	{"belden", func(pn string) string {
		return "https://www.belden.com/products/" + url.PathEscape(pn)
	}},
	{"amphenol", func(pn string) string {
		return "https://www.amphenol.com/product/" + url.PathEscape(pn)
	}},
	{"molex", func(pn string) string {
		return "https://www.molex.com/en-us/products/part-detail/" + url.PathEscape(pn)
	}},
	{"phoenix", func(pn string) string {
		return "https://www.phoenixcontact.com/en-us/products/" + url.PathEscape(pn)
	}},
	{"wago", func(pn string) string {
		return "https://www.wago.com/global/search?text=" + url.QueryEscape(pn)
	}},
	{"siemens", func(pn string) string {
		return "https://mall.industry.siemens.com/mall/en/us/Catalog/product/?mlfb=" + url.QueryEscape(pn)
	}},
	{"parker", func(pn string) string {
		return "https://www.parker.com/portal/site/PARKER/menuitem.search/?q=" + url.QueryEscape(pn)
	}},
	{"honeywell", func(pn string) string {
		return "https://sps.honeywell.com/us/en/search#q=" + url.QueryEscape(pn)
	}},
	{"teconnectivity", func(pn string) string {
		return "https://www.te.com/en/search.html#q=" + url.QueryEscape(pn)
	}},
	{"te", func(pn string) string {
		return "https://www.te.com/en/search.html#q=" + url.QueryEscape(pn)
	}},
	{"omron", func(pn string) string {
		return "https://www.ia.omron.com/search/keyword/?q=" + url.QueryEscape(pn)
	}},
	{"schneider", func(pn string) string {
		return "https://www.se.com/us/en/product/search/#q=" + url.QueryEscape(pn)
	}},
	{"eaton", func(pn string) string {
		return "https://www.eaton.com/us/en-us/catalog/search.html?q=" + url.QueryEscape(pn)
	}},
	{"panduit", func(pn string) string {
		return "https://www.panduit.com/en/search.html#q=" + url.QueryEscape(pn)
	}},
	{"corning", func(pn string) string {
		return "https://www.corning.com/optical-communications/worldwide/en/home/products/search.html#q=" + url.QueryEscape(pn)
	}},
	{"3m", func(pn string) string {
		return "https://www.3m.com/3M/en_US/company-us/search/#q=" + url.QueryEscape(pn)
	}},
	{"leviton", func(pn string) string {
		return "https://www.leviton.com/en/search#q=" + url.QueryEscape(pn)
	}},
	{"hubbell", func(pn string) string {
		return "https://www.hubbell.com/hubbell/en/search?q=" + url.QueryEscape(pn)
	}},
	{"commscope", func(pn string) string {
		return "https://www.commscope.com/product-type/search/?q=" + url.QueryEscape(pn)
	}},
	{"fluke", func(pn string) string {
		return "https://www.fluke.com/en-us/search#q=" + url.QueryEscape(pn)
	}},
}

// NormalizeName lowercases a display name and strips whitespace, producing
// the form used as a table key and as a synthesized domain label.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "")
}

// ManufacturerURL returns the best-known product-page URL for a
// manufacturer and part identifier. Exact normalized-name matches win;
// otherwise the first rule whose key (length >= 4) is a substring of the
// normalized name applies. Without a rule a generic on-domain search URL is
// synthesized from the normalized name. Matching is a best-effort
// heuristic, not an identity guarantee.
func ManufacturerURL(manufacturer, partNumber string) string {
	normalized := NormalizeName(manufacturer)
	for _, rule := range manufacturerRules {
		if rule.key == normalized {
			return rule.build(partNumber)
		}
	}
	for _, rule := range manufacturerRules {
		if len(rule.key) < minFragmentLen {
			continue
		}
		if strings.Contains(normalized, rule.key) {
			return rule.build(partNumber)
		}
	}
	return fmt.Sprintf("https://www.%s.com/search?q=%s", normalized, url.QueryEscape(partNumber))
}
