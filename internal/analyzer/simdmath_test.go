package analyzer

import "testing"

func TestSumFloat64(t *testing.T) {
	cases := []struct {
		data []float64
		want float64
	}{
		{data: nil, want: 0},
		{data: []float64{}, want: 0},
		{data: []float64{1, 2, 3}, want: 6},
		{data: []float64{-1.5, 1.5}, want: 0},
	}
	for _, c := range cases {
		if got := sumFloat64(c.data); got != c.want {
			t.Errorf("sumFloat64(%v) = %v, want %v", c.data, got, c.want)
		}
	}
}

func TestScalarSumMatchesSumFloat64(t *testing.T) {
	data := []float64{1.1, 2.2, 3.3, -4.4}
	if got, want := scalarSum(data), sumFloat64(data); got != want {
		t.Errorf("scalarSum = %v, sumFloat64 = %v, want equal", got, want)
	}
}

func TestMeanFloat64(t *testing.T) {
	if got := meanFloat64(nil); got != 0 {
		t.Errorf("meanFloat64(nil) = %v, want 0", got)
	}
	if got, want := meanFloat64([]float64{2, 4, 6}), 4.0; got != want {
		t.Errorf("meanFloat64 = %v, want %v", got, want)
	}
}
