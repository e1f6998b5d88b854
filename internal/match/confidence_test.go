package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestScorePerfectMatch(t *testing.T) {
	c := Score(
		Candidate{Title: "The Matrix", Year: intp(1999), Director: "Lana Wachowski"},
		Candidate{Title: "The Matrix", Year: intp(1999), Director: "Lana Wachowski"},
	)
	assert.Equal(t, 100, c.Score)
	assert.Empty(t, c.Reasons)
	assert.False(t, c.LowConfidence())
}

func TestScoreTitleMismatch(t *testing.T) {
	// "mtrix" vs "the matrix" has similarity 0.5 → title score 30.
	c := Score(
		Candidate{Title: "Mtrix", Year: intp(1999)},
		Candidate{Title: "The Matrix", Year: intp(1999)},
	)
	assert.Equal(t, 50, c.Score)
	assert.Equal(t, []string{"Title mismatch"}, c.Reasons)
	assert.True(t, c.LowConfidence())
}

func TestScoreYearOffByOne(t *testing.T) {
	c := Score(
		Candidate{Title: "Parasite", Year: intp(2019)},
		Candidate{Title: "Parasite", Year: intp(2020)},
	)
	assert.Equal(t, 75, c.Score)
	assert.Equal(t, []string{"Year off by 1"}, c.Reasons)
	assert.False(t, c.LowConfidence())
}

func TestScoreYearMismatch(t *testing.T) {
	c := Score(
		Candidate{Title: "Parasite", Year: intp(2019)},
		Candidate{Title: "Parasite", Year: intp(2023)},
	)
	assert.Equal(t, 60, c.Score)
	assert.Equal(t, []string{"Year mismatch (4 years)"}, c.Reasons)
	assert.True(t, c.LowConfidence())
}

func TestScoreTitleCaseInsensitive(t *testing.T) {
	c := Score(
		Candidate{Title: "THE MATRIX"},
		Candidate{Title: "the matrix"},
	)
	assert.Equal(t, 60, c.Score)
	assert.Empty(t, c.Reasons)
}

func TestScoreMissingYearIsNeutral(t *testing.T) {
	for _, tc := range []struct {
		name     string
		src, cnd *int
	}{
		{"both absent", nil, nil},
		{"source absent", nil, intp(1999)},
		{"candidate absent", intp(1999), nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := Score(
				Candidate{Title: "Heat", Year: tc.src},
				Candidate{Title: "Heat", Year: tc.cnd},
			)
			assert.Equal(t, 60, c.Score)
			assert.Empty(t, c.Reasons)
		})
	}
}

func TestScoreMissingDirectorIsNeutral(t *testing.T) {
	for _, tc := range []struct {
		name     string
		src, cnd string
	}{
		{"both absent", "", ""},
		{"source absent", "", "Michael Mann"},
		{"candidate absent", "Michael Mann", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := Score(
				Candidate{Title: "Heat", Year: intp(1995), Director: tc.src},
				Candidate{Title: "Heat", Year: intp(1995), Director: tc.cnd},
			)
			assert.Equal(t, 80, c.Score)
			assert.NotContains(t, c.Reasons, "Director mismatch")
			assert.Empty(t, c.Reasons)
		})
	}
}

func TestScoreDirectorMismatch(t *testing.T) {
	c := Score(
		Candidate{Title: "Heat", Year: intp(1995), Director: "Michael Mann"},
		Candidate{Title: "Heat", Year: intp(1995), Director: "Paul Verhoeven"},
	)
	assert.Contains(t, c.Reasons, "Director mismatch")
	assert.True(t, c.Score < 95)
}

func TestScoreReasonOrdering(t *testing.T) {
	// All three components mismatch: reasons must come back in
	// title → year → director order regardless of magnitude.
	c := Score(
		Candidate{Title: "Aaaaaaaa", Year: intp(1990), Director: "Bbbbbbbb"},
		Candidate{Title: "Zzzzzzzz", Year: intp(2000), Director: "Qqqqqqqq"},
	)
	require.Equal(t, []string{"Title mismatch", "Year mismatch (10 years)", "Director mismatch"}, c.Reasons)
	assert.True(t, c.LowConfidence())
}

func TestScoreBounds(t *testing.T) {
	cands := []Candidate{
		{Title: ""},
		{Title: "x"},
		{Title: "The Matrix", Year: intp(1999), Director: "Lana Wachowski"},
		{Title: "completely unrelated title here", Year: intp(1950), Director: "nobody"},
	}
	for _, src := range cands {
		for _, cnd := range cands {
			c := Score(src, cnd)
			assert.GreaterOrEqual(t, c.Score, 0, "src=%+v cand=%+v", src, cnd)
			assert.LessOrEqual(t, c.Score, 100, "src=%+v cand=%+v", src, cnd)
		}
	}
}

func TestScoreYearPenaltyMonotonic(t *testing.T) {
	score := func(delta int) int {
		y := 2000 + delta
		return Score(
			Candidate{Title: "Parasite", Year: intp(2000)},
			Candidate{Title: "Parasite", Year: &y},
		).Score
	}
	assert.GreaterOrEqual(t, score(0), score(1))
	assert.GreaterOrEqual(t, score(1), score(2))
	assert.Equal(t, score(2), score(10))
}

func TestLowConfidenceExactlyAtThreshold(t *testing.T) {
	assert.False(t, Confidence{Score: 70}.LowConfidence())
	assert.True(t, Confidence{Score: 69}.LowConfidence())
	assert.True(t, Confidence{Score: 0}.LowConfidence())
	assert.False(t, Confidence{Score: 100}.LowConfidence())
}

func TestSeverityBuckets(t *testing.T) {
	tests := []struct {
		score int
		want  ReviewSeverity
	}{
		{0, SeverityHigh},
		{39, SeverityHigh},
		{40, SeverityMedium},
		{69, SeverityMedium},
		{70, SeverityLow},
		{100, SeverityLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Severity(tt.score), "score %d", tt.score)
	}
}
