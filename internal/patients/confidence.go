package patients

// Level is the qualitative confidence bucket shown to reviewers.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Classification thresholds. ReviewThreshold is intentionally distinct from
// the high/medium split; the review predicate and the display level answer
// different questions.
const (
	HighThreshold   = 0.8
	MediumThreshold = 0.5
	ReviewThreshold = 0.75
)

// Classify maps a confidence score to its qualitative level.
func Classify(confidence float64) Level {
	switch {
	case confidence >= HighThreshold:
		return LevelHigh
	case confidence >= MediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// NeedsReview reports whether a confidence score requires human verification.
func NeedsReview(confidence float64) bool {
	return confidence < ReviewThreshold
}
