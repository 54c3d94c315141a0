package audit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func liveResult(site string, role Role, fields map[FieldKey]FieldAssessment) Result {
	score := 0
	return Result{
		SiteName:      site,
		Role:          role,
		URL:           "https://" + site + ".example/p",
		ContentSource: SourceLive,
		OverallScore:  &score,
		Fields:        fields,
	}
}

func TestGapsOnlyManufacturerHighFields(t *testing.T) {
	t.Parallel()

	mfr := liveResult("belden", RoleManufacturer, map[FieldKey]FieldAssessment{
		FieldDescription: {Value: "full copy", Score: ScoreHigh},
		FieldVideos:      {Value: "MISSING", Score: ScoreLow},
	})
	dist := liveResult("digikey", RoleDistributor, map[FieldKey]FieldAssessment{
		FieldDescription: {Value: "one line", Score: ScoreMedium, Notes: "truncated copy"},
		FieldVideos:      {Value: "MISSING", Score: ScoreLow},
	})

	gaps := Gaps(mfr, []Result{dist})

	require.Len(t, gaps, 1)
	require.NotContains(t, gaps, FieldVideos, "manufacturer scored low, so no baseline to fall short of")
	require.Equal(t, []GapRecord{{
		Field:       FieldDescription,
		Distributor: "digikey",
		Score:       ScoreMedium,
		Notes:       "truncated copy",
	}}, gaps[FieldDescription])
}

func TestGapsExcludeDistributorOnlyFields(t *testing.T) {
	t.Parallel()

	// A manufacturer result should never carry price, but even if one did,
	// the diff walks the shared rubric only.
	mfr := liveResult("belden", RoleManufacturer, map[FieldKey]FieldAssessment{
		FieldPrice: {Value: "$10", Score: ScoreHigh},
	})
	dist := liveResult("digikey", RoleDistributor, map[FieldKey]FieldAssessment{
		FieldPrice: {Value: "MISSING", Score: ScoreLow},
	})

	require.Empty(t, Gaps(mfr, []Result{dist}))
}

func TestGapsSkipBlockedResults(t *testing.T) {
	t.Parallel()

	mfr := liveResult("belden", RoleManufacturer, map[FieldKey]FieldAssessment{
		FieldSpecifications: {Value: "38 rows", Score: ScoreHigh},
	})
	blocked := Result{SiteName: "grainger", Role: RoleDistributor, ContentSource: SourceBlocked}
	live := liveResult("mouser", RoleDistributor, map[FieldKey]FieldAssessment{
		FieldSpecifications: {Value: "8 rows", Score: ScoreMedium},
	})

	gaps := Gaps(mfr, []Result{blocked, live})

	require.Len(t, gaps[FieldSpecifications], 1)
	require.Equal(t, "mouser", gaps[FieldSpecifications][0].Distributor)
}

func TestGapsBlockedManufacturerYieldsNothing(t *testing.T) {
	t.Parallel()

	mfr := Result{SiteName: "belden", Role: RoleManufacturer, ContentSource: SourceBlocked}
	dist := liveResult("digikey", RoleDistributor, map[FieldKey]FieldAssessment{
		FieldDescription: {Value: "MISSING", Score: ScoreLow},
	})

	require.Empty(t, Gaps(mfr, []Result{dist}))
}

func TestGapsAcrossDistributors(t *testing.T) {
	t.Parallel()

	mfr := liveResult("belden", RoleManufacturer, map[FieldKey]FieldAssessment{
		FieldDescription: {Value: "full copy", Score: ScoreHigh},
		FieldDocuments:   {Value: "3 datasheets", Score: ScoreHigh},
	})
	distributors := []Result{
		liveResult("digikey", RoleDistributor, map[FieldKey]FieldAssessment{
			FieldDescription: {Value: "full copy", Score: ScoreHigh},
			FieldDocuments:   {Value: "1 datasheet", Score: ScoreMedium},
		}),
		liveResult("mouser", RoleDistributor, map[FieldKey]FieldAssessment{
			FieldDescription: {Value: "MISSING", Score: ScoreLow},
			FieldDocuments:   {Value: "MISSING", Score: ScoreLow},
		}),
		liveResult("arrow", RoleDistributor, map[FieldKey]FieldAssessment{
			FieldDescription: {Value: "one line", Score: ScoreMedium},
		}),
	}

	gaps := Gaps(mfr, distributors)

	require.Len(t, gaps[FieldDescription], 2, "digikey matches the baseline")
	require.Len(t, gaps[FieldDocuments], 2, "arrow did not assess documents at all")
}

func TestResultValidateBlockedInvariant(t *testing.T) {
	t.Parallel()

	score := 80
	bad := Result{SiteName: "digikey", ContentSource: SourceBlocked, OverallScore: &score}
	require.Error(t, bad.Validate())

	bad = Result{SiteName: "digikey", ContentSource: SourceBlocked, Summary: "looks fine"}
	require.Error(t, bad.Validate())

	ok := Result{SiteName: "digikey", ContentSource: SourceBlocked}
	require.NoError(t, ok.Validate())

	live := Result{SiteName: "digikey", ContentSource: SourceLive}
	require.Error(t, live.Validate(), "live result needs a score")
}
