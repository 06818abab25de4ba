package analyzer

import "testing"

func TestSeriesBufferAddAndValuesPreserveOrder(t *testing.T) {
	buf := NewSeriesBuffer()
	for _, v := range []float64{1, 2, 3} {
		buf.Add(v)
	}

	got := buf.Values()
	want := []float64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("Values() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Values()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSeriesBufferValuesIsNonDestructive(t *testing.T) {
	buf := NewSeriesBuffer()
	buf.Add(42)

	first := buf.Values()
	second := buf.Values()
	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Fatalf("repeated Values() calls diverged: %v vs %v", first, second)
	}
}

func TestSeriesBufferEvictsOldestWhenFull(t *testing.T) {
	buf := NewSeriesBuffer()
	for i := 0; i < seriesCapacity+10; i++ {
		buf.Add(float64(i))
	}

	if got := buf.Len(); got != seriesCapacity {
		t.Fatalf("Len() = %d, want %d", got, seriesCapacity)
	}

	values := buf.Values()
	if values[0] != 10 {
		t.Errorf("oldest retained sample = %v, want 10 (first 10 evicted)", values[0])
	}
	if values[len(values)-1] != float64(seriesCapacity+9) {
		t.Errorf("newest sample = %v, want %v", values[len(values)-1], seriesCapacity+9)
	}
}

func TestSeriesBufferLenStartsAtZero(t *testing.T) {
	buf := NewSeriesBuffer()
	if got := buf.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}
