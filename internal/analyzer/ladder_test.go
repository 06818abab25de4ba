package analyzer

import "testing"

func TestLadderClassifyBucketsByThreshold(t *testing.T) {
	ladder := NewLadder("ABOVE",
		Rung[string]{Threshold: 4, Status: "LOW"},
		Rung[string]{Threshold: 10, Status: "MID"},
		Rung[string]{Threshold: 18, Status: "HIGH"},
	)

	cases := []struct {
		value float64
		want  string
	}{
		{value: -5, want: "LOW"},
		{value: 3.99, want: "LOW"},
		{value: 4, want: "MID"},
		{value: 9.99, want: "MID"},
		{value: 18, want: "ABOVE"},
		{value: 1000, want: "ABOVE"},
	}

	for _, c := range cases {
		if got := ladder.Classify(c.value); got != c.want {
			t.Errorf("Classify(%v) = %q, want %q", c.value, got, c.want)
		}
	}
}

func TestLadderWithNoRungsAlwaysReturnsAbove(t *testing.T) {
	ladder := NewLadder(42)
	if got := ladder.Classify(-1000); got != 42 {
		t.Errorf("Classify = %v, want 42", got)
	}
}
