package invoker

import "testing"

const timeSeriesFixture = `
t: 0.1    M: -70.0 S: -70.0   I: -70.0
t: 0.5    M: -30.2 S: -35.1   I: -40.0
t: 1.0    M: -14.1 S: -16.0   I: -15.2
garbage line with t: not a number M: nope S: nope
t: 0.8    M: -20.0 S: -20.0   I: -20.0
`

func TestParseTimeSeriesOrdersAndDropsOutOfOrder(t *testing.T) {
	points := ParseTimeSeries(timeSeriesFixture)

	if len(points) != 3 {
		t.Fatalf("expected 3 valid, non-decreasing points, got %d: %+v", len(points), points)
	}
	for i := 1; i < len(points); i++ {
		if points[i].T < points[i-1].T {
			t.Errorf("points not monotonically non-decreasing at index %d: %+v", i, points)
		}
	}
	if points[2].M != -14.1 || points[2].S != -16.0 {
		t.Errorf("unexpected final point: %+v", points[2])
	}
}

func TestParseTimeSeriesEmptyInput(t *testing.T) {
	if points := ParseTimeSeries(""); len(points) != 0 {
		t.Errorf("expected no points for empty input, got %d", len(points))
	}
}
