/*
Package curve generates adoption-curve multipliers for consumption shifts.

PURPOSE:
  An adoption curve models the gradual transition of a scaling factor
  between two steady states: constant at cInit before the transition
  window, constant at cEnd after it, and either linear or logistic in
  between. The result is a single-element table on a Year axis, ready to
  broadcast over a balance sheet.

SHAPE:
  Given breakpoints y0 <= y1 <= y2 <= y3 (only y0 <= y3 is enforced; the
  window may be degenerate):

    years <  y1 : cInit
    [y1, y2)    : transition
    years >= y2 : cEnd

  A collapsed window (y1 == y2) is an instantaneous step at y1 for both
  shapes.

USAGE:
  s := curve.Logistic(2020, 2025, 2035, 2050, 1, 0.5)
  scaled, _ := sheet.Table().ElementTable("food")
  scaled, _ = scaled.Mul(s)
*/
package curve

import (
	"fmt"
	"math"

	"github.com/arable/foodbalance/cube"
)

// Element is the element name carried by generated series.
const Element = "scale"

// steepness controls how sharply the logistic transitions around its
// midpoint. Fixed, not configurable.
const steepness = 10.0

// Shape selects an adoption curve family by name.
type Shape string

const (
	ShapeLinear   Shape = "linear"
	ShapeLogistic Shape = "logistic"
)

// Series generates the curve for the shape.
func (s Shape) Series(y0, y1, y2, y3 int, cInit, cEnd float64) (*cube.Table, error) {
	switch s {
	case ShapeLinear:
		return Linear(y0, y1, y2, y3, cInit, cEnd)
	case ShapeLogistic, "":
		return Logistic(y0, y1, y2, y3, cInit, cEnd)
	default:
		return nil, fmt.Errorf("unknown adoption shape %q", string(s))
	}
}

// Linear returns a Year-axis series constant at cInit before y1, varying
// with constant slope on [y1, y2), and constant at cEnd from y2 on.
func Linear(y0, y1, y2, y3 int, cInit, cEnd float64) (*cube.Table, error) {
	years, values, err := plateaus(y0, y1, y2, y3, cInit, cEnd)
	if err != nil {
		return nil, err
	}
	slope := cEnd - cInit
	if y2 != y1 {
		slope = (cEnd - cInit) / float64(y2-y1)
	}
	for i, y := range years {
		if y >= y1 && y < y2 {
			values[i] = cInit + slope*float64(y-y1)
		}
	}
	return series(years, values)
}

// Logistic returns a Year-axis series with a logistic transition on
// [y1, y2): the normalized progress t spans [0, 1) over the window and the
// value is cInit + (cEnd-cInit)/(1+exp(-steepness*(t-0.5))). A collapsed
// window steps straight to cEnd at y1.
func Logistic(y0, y1, y2, y3 int, cInit, cEnd float64) (*cube.Table, error) {
	years, values, err := plateaus(y0, y1, y2, y3, cInit, cEnd)
	if err != nil {
		return nil, err
	}
	if y2 != y1 {
		span := float64(y2 - y1)
		for i, y := range years {
			if y >= y1 && y < y2 {
				t := float64(y-y1) / span
				values[i] = cInit + (cEnd-cInit)/(1+math.Exp(-steepness*(t-0.5)))
			}
		}
	}
	return series(years, values)
}

// plateaus builds the inclusive year range with both constant segments set.
func plateaus(y0, y1, y2, y3 int, cInit, cEnd float64) ([]int, []float64, error) {
	if y3 < y0 {
		return nil, nil, fmt.Errorf("final year %d precedes initial year %d", y3, y0)
	}
	years := make([]int, 0, y3-y0+1)
	values := make([]float64, 0, y3-y0+1)
	for y := y0; y <= y3; y++ {
		years = append(years, y)
		if y >= y2 {
			values = append(values, cEnd)
		} else {
			values = append(values, cInit)
		}
	}
	return years, values, nil
}

func series(years []int, values []float64) (*cube.Table, error) {
	coords := make([]cube.Coord, len(years))
	for i, y := range years {
		coords[i] = cube.Year(y)
	}
	axis, err := cube.NewAxis("Year", coords...)
	if err != nil {
		return nil, err
	}
	t := cube.NewTable(axis)
	if err := t.SetElement(Element, values); err != nil {
		return nil, err
	}
	return t, nil
}
