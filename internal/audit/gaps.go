package audit

// GapRecord marks one distributor falling short of the manufacturer on a
// shared field.
type GapRecord struct {
	Field       FieldKey `json:"field"`
	Distributor string   `json:"distributor"`
	Score       Score    `json:"score"`
	Notes       string   `json:"notes,omitempty"`
}

// Gaps diffs the manufacturer's field scores against each distributor's.
// A field appears only when the manufacturer scores high and a distributor
// scores low or medium; distributor-only fields are excluded by
// construction, and blocked results contribute nothing. The result is
// derived on demand, never stored. An empty map means no content drift.
func Gaps(manufacturer Result, distributors []Result) map[FieldKey][]GapRecord {
	gaps := make(map[FieldKey][]GapRecord)
	if manufacturer.Blocked() {
		return gaps
	}
	for _, def := range SharedFields {
		mfr, ok := manufacturer.Fields[def.Key]
		if !ok || mfr.Score != ScoreHigh {
			continue
		}
		for _, dist := range distributors {
			if dist.Blocked() {
				continue
			}
			fa, ok := dist.Fields[def.Key]
			if !ok {
				continue
			}
			if fa.Score == ScoreLow || fa.Score == ScoreMedium {
				gaps[def.Key] = append(gaps[def.Key], GapRecord{
					Field:       def.Key,
					Distributor: dist.SiteName,
					Score:       fa.Score,
					Notes:       fa.Notes,
				})
			}
		}
	}
	return gaps
}
