package match

import (
	"fmt"
	"math"
	"strings"
)

// Point allocation for the three comparison components. Title dominates
// because it is the only field guaranteed to be present on both sides.
const (
	titleMax    = 60
	yearMax     = 20
	directorMax = 20

	titleMismatchBelow    = 40
	directorMismatchBelow = 15

	// LowConfidenceThreshold is the score below which a match is routed to
	// the manual approval queue instead of being applied automatically.
	LowConfidenceThreshold = 70
)

// Candidate is one side of a comparison: either the record parsed from a CSV
// row or a search result fetched from TMDB. Year and Director are optional;
// a nil year or empty director means the information is not available, not
// that it is wrong.
type Candidate struct {
	Title    string
	Year     *int
	Director string
}

// Confidence is the outcome of comparing a source record against a TMDB
// candidate. It is a plain value: computed once, never stored or mutated.
type Confidence struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// LowConfidence reports whether the match should be held for human review.
func (c Confidence) LowConfidence() bool {
	return c.Score < LowConfidenceThreshold
}

// Score compares a source record against a candidate and returns a 0–100
// confidence with human-readable mismatch reasons. Reasons are appended in a
// fixed title → year → director order; the approval dashboard renders them in
// that order, so it is part of the contract.
//
// Missing optional fields contribute zero silently. A row with no director in
// the source data should not be penalized as if the director were wrong.
func Score(src, cand Candidate) Confidence {
	var conf Confidence

	titleScore := roundHalfUp(Similarity(strings.ToLower(src.Title), strings.ToLower(cand.Title)) * titleMax)
	conf.Score += titleScore
	if titleScore < titleMismatchBelow {
		conf.Reasons = append(conf.Reasons, "Title mismatch")
	}

	if src.Year != nil && cand.Year != nil {
		diff := *src.Year - *cand.Year
		if diff < 0 {
			diff = -diff
		}
		switch diff {
		case 0:
			conf.Score += yearMax
		case 1:
			conf.Score += 15
			conf.Reasons = append(conf.Reasons, "Year off by 1")
		default:
			conf.Reasons = append(conf.Reasons, fmt.Sprintf("Year mismatch (%d years)", diff))
		}
	}

	if src.Director != "" && cand.Director != "" {
		dirScore := roundHalfUp(Similarity(strings.ToLower(src.Director), strings.ToLower(cand.Director)) * directorMax)
		conf.Score += dirScore
		if dirScore < directorMismatchBelow {
			conf.Reasons = append(conf.Reasons, "Director mismatch")
		}
	}

	return conf
}

// roundHalfUp rounds to the nearest integer with .5 rounding away from zero,
// so sub-scores are reproducible across ports of this scorer.
func roundHalfUp(f float64) int {
	return int(math.Round(f))
}

// ──────────────────── Severity ────────────────────

// ReviewSeverity buckets a confidence score into a review priority for the
// approval dashboard.
type ReviewSeverity string

const (
	SeverityHigh   ReviewSeverity = "high"   // likely wrong, review first
	SeverityMedium ReviewSeverity = "medium" // plausible, needs a look
	SeverityLow    ReviewSeverity = "low"    // confident, auto-applied
)

// Severity classifies a 0–100 confidence score. Scores at or above the
// low-confidence threshold never reach the review queue, so "low" severity
// rows only appear when an admin lowers the auto-apply threshold.
func Severity(score int) ReviewSeverity {
	switch {
	case score < titleMismatchBelow:
		return SeverityHigh
	case score < LowConfidenceThreshold:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
