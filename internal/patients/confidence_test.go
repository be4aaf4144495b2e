package patients

import "testing"

func TestClassifyPartition(t *testing.T) {
	cases := []struct {
		confidence float64
		want       Level
	}{
		{0.0, LevelLow},
		{0.49, LevelLow},
		{0.4999, LevelLow},
		{0.5, LevelMedium},
		{0.6, LevelMedium},
		{0.75, LevelMedium},
		{0.7999, LevelMedium},
		{0.8, LevelHigh},
		{0.9, LevelHigh},
		{1.0, LevelHigh},
	}
	for _, tc := range cases {
		if got := Classify(tc.confidence); got != tc.want {
			t.Errorf("Classify(%v) = %v, want %v", tc.confidence, got, tc.want)
		}
	}
}

func TestNeedsReviewUsesOwnThreshold(t *testing.T) {
	cases := []struct {
		confidence float64
		want       bool
	}{
		{0.0, true},
		{0.5, true},
		{0.7, true},
		{0.7499, true},
		{0.75, false},
		{0.8, false},
		{1.0, false},
	}
	for _, tc := range cases {
		if got := NeedsReview(tc.confidence); got != tc.want {
			t.Errorf("NeedsReview(%v) = %v, want %v", tc.confidence, got, tc.want)
		}
	}

	// A field can sit at medium level and still be flagged.
	if Classify(0.7) != LevelMedium || !NeedsReview(0.7) {
		t.Errorf("expected 0.7 to be medium yet flagged for review")
	}
}

func TestClassifyIsPure(t *testing.T) {
	for _, c := range []float64{0.0, 0.3, 0.5, 0.75, 0.8, 1.0} {
		if Classify(c) != Classify(c) {
			t.Fatalf("Classify(%v) not stable", c)
		}
		if NeedsReview(c) != NeedsReview(c) {
			t.Fatalf("NeedsReview(%v) not stable", c)
		}
	}
}
