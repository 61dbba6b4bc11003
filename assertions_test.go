package l3pressure

import (
	"math"
	"testing"
)

// assertWithin verifies got is within tolerance (a fraction) of want.
func assertWithin(t *testing.T, what string, got, want, tolerance float64) {
	t.Helper()

	if want == 0 {
		t.Fatalf("%s: zero reference value", what)
	}
	deviation := math.Abs(got-want) / want
	if deviation > tolerance {
		t.Errorf("%s: got %.2f, want %.2f ± %.2f%% (off by %.3f%%)",
			what, got, want, tolerance*100, deviation*100)
	}
}

// assertUniform runs a chi-square goodness-of-fit test against the uniform
// distribution. The statistic must stay within five standard deviations of
// its expectation (df), which a biased generator exceeds quickly.
func assertUniform(t *testing.T, counts []int) {
	t.Helper()

	var total int
	for _, c := range counts {
		total += c
	}
	if total == 0 || len(counts) < 2 {
		t.Fatalf("need at least 2 buckets and 1 sample, got %d buckets, %d samples", len(counts), total)
	}

	expected := float64(total) / float64(len(counts))
	var chi2 float64
	for _, c := range counts {
		diff := float64(c) - expected
		chi2 += diff * diff / expected
	}

	df := float64(len(counts) - 1)
	limit := df + 5*math.Sqrt(2*df)
	if chi2 > limit {
		t.Errorf("Distribution not uniform: χ² = %.2f over %d buckets (limit: %.2f)",
			chi2, len(counts), limit)
	}
}
