package curve_test

import (
	"math"
	"testing"

	"github.com/arable/foodbalance/cube"
	"github.com/arable/foodbalance/curve"
)

func seriesValues(t *testing.T, tab *cube.Table) []float64 {
	t.Helper()
	vals, err := tab.ElementValues(curve.Element)
	if err != nil {
		t.Fatalf("series element: %v", err)
	}
	return vals
}

func wantSeries(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-7 {
			t.Errorf("year %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLinearSeries(t *testing.T) {
	// GIVEN: a transition window [2005, 2010) inside 2000-2015
	tab, err := curve.Linear(2000, 2005, 2010, 2015, 0, 10)
	if err != nil {
		t.Fatalf("linear: %v", err)
	}

	// THEN: constant plateaus around a constant-slope ramp
	wantSeries(t, seriesValues(t, tab), []float64{
		0, 0, 0, 0, 0,
		0, 2, 4, 6, 8,
		10, 10, 10, 10, 10, 10,
	})
}

func TestLogisticSeries(t *testing.T) {
	tab, err := curve.Logistic(2000, 2005, 2010, 2015, 0, 10)
	if err != nil {
		t.Fatalf("logistic: %v", err)
	}

	wantSeries(t, seriesValues(t, tab), []float64{
		0, 0, 0, 0, 0,
		0.06692851, 0.47425873, 2.68941421, 7.31058579, 9.52574127,
		10, 10, 10, 10, 10, 10,
	})
}

func TestCollapsedWindowIsInstantStep(t *testing.T) {
	// GIVEN: y1 == y2
	for _, shape := range []curve.Shape{curve.ShapeLinear, curve.ShapeLogistic} {
		tab, err := shape.Series(2000, 2005, 2005, 2010, 0, 10)
		if err != nil {
			t.Fatalf("%s: %v", shape, err)
		}

		// THEN: the factor steps straight to cEnd at the transition year
		wantSeries(t, seriesValues(t, tab), []float64{
			0, 0, 0, 0, 0,
			10, 10, 10, 10, 10, 10,
		})
	}
}

func TestSeriesAxisIsYears(t *testing.T) {
	tab, err := curve.Linear(2020, 2021, 2022, 2023, 1, 2)
	if err != nil {
		t.Fatalf("linear: %v", err)
	}
	coords, err := tab.AxisCoords("Year")
	if err != nil {
		t.Fatalf("year axis: %v", err)
	}
	if len(coords) != 4 || coords[0] != "2020" || coords[3] != "2023" {
		t.Fatalf("unexpected years %v", coords)
	}
}

func TestInvalidRangesAndShapes(t *testing.T) {
	if _, err := curve.Linear(2010, 2011, 2012, 2005, 0, 1); err == nil {
		t.Fatal("expected error when final year precedes initial year")
	}
	if _, err := curve.Shape("exponential").Series(2020, 2021, 2022, 2023, 0, 1); err == nil {
		t.Fatal("expected error for unknown shape")
	}
}

func TestDefaultShapeIsLogistic(t *testing.T) {
	got, err := curve.Shape("").Series(2000, 2005, 2010, 2015, 0, 10)
	if err != nil {
		t.Fatalf("default shape: %v", err)
	}
	want, err := curve.Logistic(2000, 2005, 2010, 2015, 0, 10)
	if err != nil {
		t.Fatalf("logistic: %v", err)
	}
	wantSeries(t, seriesValues(t, got), seriesValues(t, want))
}
