package pipeline

import "fmt"

// discoveredChannelCount is how many channels discovery asks for. It must
// exceed the five the caller later selects so there is room to choose.
const discoveredChannelCount = 8

func buildCandidatePrompt(manufacturer, category string) string {
	return fmt.Sprintf(`You are a product intelligence expert with deep knowledge of B2B manufacturing, electronic components, and industrial distribution.

Identify the top 5 best-selling or most widely distributed parts from manufacturer %q in the category %q.

Criteria: high distributor catalog breadth, industry-standard, high volume, broad cross-references.

For each part construct realistic direct product page URLs using known URL patterns:
- Digi-Key: https://www.digikey.com/en/products/detail/[mfr-slug]/[part]/[id]
- Mouser: https://www.mouser.com/ProductDetail/[mfr]/[part]
- Arrow: https://www.arrow.com/en/products/[part]/[mfr]
- Manufacturer: use their known domain + product path

Leave URL as empty string if not confident. Do NOT fabricate URLs.

Respond with ONLY a raw JSON array, no markdown, starting with [ and ending with ]:
[{"partNumber":"","name":"","confidence":"high|medium|low","sources":[],"manufacturerUrl":"","digikeyUrl":"","mouserUrl":"","arrowUrl":"","reason":""}]`, manufacturer, category)
}

func buildChannelPrompt(manufacturer, category string) string {
	return fmt.Sprintf(`You are a B2B distribution channel expert.

Identify the top %d distributors for manufacturer %q in the category %q.

Evaluate based on: authorized agreements, SKU breadth, inventory depth, channel priority, vertical fit.

Known distributor URL patterns:
- Digi-Key: https://www.digikey.com/en/products/filter?keywords=[mfr]
- Mouser: https://www.mouser.com/c/?m=[mfr]
- Arrow: https://www.arrow.com/en/manufacturers/[mfr-slug]
- Newark: https://www.newark.com/search?st=[mfr]
- RS Components: https://www.rs-online.com/web/c/?searchTerm=[mfr]
- Grainger: https://www.grainger.com/search?searchQuery=[mfr]
- MSC: https://www.mscdirect.com/browse/tn/?searchterm=[mfr]
- Allied: https://www.alliedelec.com/search/?q=[mfr]
- Galco: https://www.galco.com/buy/[mfr]

Respond with ONLY a raw JSON array, no markdown, starting with [ ending with ]:
[{"name":"","confidence":"high|medium|low","relationship":"authorized|authorized-preferred|broad-catalog|regional","verticalFit":"","searchUrl":"","domain":""}]`, discoveredChannelCount, manufacturer, category)
}
