package knowledge

import "github.com/partsignal/content-audit/internal/catalog"

// ClassifyChannels enriches discovered channels with the registry's
// directly-addressable flag and note, plus an on-domain fallback URL for
// the given part identifier. Pure lookup; no network access. The input
// slice is not mutated.
func ClassifyChannels(channels []catalog.Channel, manufacturer, partNumber string) []catalog.Channel {
	out := make([]catalog.Channel, len(channels))
	for i, ch := range channels {
		out[i] = ClassifyChannel(ch, manufacturer, partNumber)
	}
	return out
}

// ClassifyChannel classifies a single channel against the distributor
// registry, matching on the registry domain's first label.
func ClassifyChannel(ch catalog.Channel, manufacturer, partNumber string) catalog.Channel {
	if entry, ok := LookupDistributor(ch.Domain); ok {
		ch.DirectlyAddressable = entry.DirectlyAddressable
		ch.Note = entry.Note
	} else {
		ch.DirectlyAddressable = false
		ch.Note = UnknownDistributorNote
	}
	if partNumber != "" {
		ch.FallbackURL = DistributorFallbackURL(ch.Domain, manufacturer, partNumber)
	}
	return ch
}
