package land_test

import (
	"math"
	"testing"

	"github.com/arable/foodbalance/cube"
	"github.com/arable/foodbalance/land"
)

func TestMaturationRampsToOne(t *testing.T) {
	// GIVEN: woodland planted 2025, mature 2045, over 2020-2050
	mat, err := land.Maturation(2025, 2045, 2020, 2050)
	if err != nil {
		t.Fatalf("maturation: %v", err)
	}

	at := func(year int) float64 {
		v, err := mat.Value("scale", map[string]cube.Coord{"Year": cube.Year(year)})
		if err != nil {
			t.Fatalf("value %d: %v", year, err)
		}
		return v
	}

	// THEN: zero before planting, one at maturity, monotone in between
	if at(2020) != 0 {
		t.Errorf("2020: got %v, want 0", at(2020))
	}
	if at(2045) != 1 || at(2050) != 1 {
		t.Errorf("mature years: got %v / %v, want 1", at(2045), at(2050))
	}
	mid := at(2035)
	if math.Abs(mid-0.5) > 1e-9 {
		t.Errorf("midpoint: got %v, want 0.5", mid)
	}
	prev := at(2025)
	for year := 2026; year <= 2045; year++ {
		if at(year) < prev {
			t.Fatalf("ramp not monotone at %d", year)
		}
		prev = at(year)
	}
}

func TestAdditionalSequestration(t *testing.T) {
	// GIVEN: two categories, pasture 10% converted, cropland untouched
	areas := cube.NewTable(cube.MustAxis("Category", "Pasture", "Cropland"))
	if err := areas.SetElement("area", []float64{1000, 500}); err != nil {
		t.Fatalf("areas: %v", err)
	}
	opt := land.Options{
		Fractions: map[cube.Coord]float64{"Pasture": 0.1, "Cropland": 0},
		Rate:      2,
		FirstYear: 2020,
		LastYear:  2030,
		Timescale: 0, // instant maturity: step to the full rate
	}

	// WHEN: computing the total series
	got, err := land.Additional(areas, opt)
	if err != nil {
		t.Fatalf("additional: %v", err)
	}

	// THEN: the Category axis is collapsed and the mature total is
	// 1000 * 0.1 * 2 = 200 from the first year on
	if got.HasAxis("Category") {
		t.Fatal("expected total output without Category axis")
	}
	for _, year := range []int{2020, 2030} {
		v, err := got.Value("area", map[string]cube.Coord{"Year": cube.Year(year)})
		if err != nil {
			t.Fatalf("value %d: %v", year, err)
		}
		if v != 200 {
			t.Errorf("year %d: got %v, want 200", year, v)
		}
	}

	// AND: per-category output keeps the axis
	opt.PerCategory = true
	got, err = land.Additional(areas, opt)
	if err != nil {
		t.Fatalf("additional per category: %v", err)
	}
	v, err := got.Value("area", map[string]cube.Coord{
		"Category": "Cropland", "Year": cube.Year(2030),
	})
	if err != nil {
		t.Fatalf("cropland value: %v", err)
	}
	if v != 0 {
		t.Errorf("cropland: got %v, want 0", v)
	}
}

func TestAdditionalRejectsBadFraction(t *testing.T) {
	areas := cube.NewTable(cube.MustAxis("Category", "Pasture"))
	if err := areas.SetElement("area", []float64{100}); err != nil {
		t.Fatalf("areas: %v", err)
	}
	_, err := land.Additional(areas, land.Options{
		Fractions: map[cube.Coord]float64{"Pasture": 1.5},
		Rate:      1,
		FirstYear: 2020,
		LastYear:  2021,
	})
	if err == nil {
		t.Fatal("expected error for fraction above 1")
	}
}

func TestSequestrationShapesAreaByMaturation(t *testing.T) {
	// GIVEN: a collapsed window so the stand matures instantly in 2022
	mat, err := land.Maturation(2022, 2022, 2020, 2023)
	if err != nil {
		t.Fatalf("maturation: %v", err)
	}
	areas := cube.NewTable(
		cube.MustAxis("Category", "Broadleaf"),
		cube.MustAxis("Year", cube.Years(2020, 2023)...),
	)
	if err := areas.SetElement("area", []float64{100, 100, 100, 100}); err != nil {
		t.Fatalf("areas: %v", err)
	}

	got, err := land.Sequestration(areas, 2.5, mat)
	if err != nil {
		t.Fatalf("sequestration: %v", err)
	}

	want := map[int]float64{2020: 0, 2021: 0, 2022: 250, 2023: 250}
	for year, w := range want {
		v, err := got.Value("area", map[string]cube.Coord{
			"Category": "Broadleaf", "Year": cube.Year(year),
		})
		if err != nil {
			t.Fatalf("value %d: %v", year, err)
		}
		if v != w {
			t.Errorf("year %d: got %v, want %v", year, v, w)
		}
	}
}
