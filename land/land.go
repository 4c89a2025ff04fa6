/*
Package land estimates carbon sequestration from land-use change.

PURPOSE:
  Converting land to woodland (or similar) does not sequester at the
  mature rate from year one; uptake ramps up as the stand grows. The model
  combines per-category land areas with the fraction of each category
  being converted, a mature sequestration rate per area unit, and a
  linear or logistic growth curve on the Year axis.

USAGE:
  seq, _ := land.Additional(areas, land.Options{
      Fractions: map[cube.Coord]float64{"Pasture": 0.1},
      Rate:      12.5,
      FirstYear: 2020,
      LastYear:  2050,
      Timescale: 20,
  })
*/
package land

import (
	"fmt"

	"github.com/arable/foodbalance/cube"
	"github.com/arable/foodbalance/curve"
)

// AxisCategory is the axis name area tables carry their land categories on.
const AxisCategory = "Category"

// Options configures the additional-sequestration model.
type Options struct {
	// Fractions is the converted fraction per category, each in [0, 1].
	// Categories absent from the map count as fully converted.
	Fractions map[cube.Coord]float64

	// Rate is the mature sequestration per area unit per year.
	Rate float64

	// FirstYear and LastYear bound the inclusive output year range.
	FirstYear, LastYear int

	// Timescale is the number of years to reach the mature rate, counted
	// from FirstYear.
	Timescale int

	// Shape selects the growth curve; empty defaults to logistic.
	Shape curve.Shape

	// PerCategory keeps the Category axis instead of summing over it.
	PerCategory bool
}

// Maturation returns a Year-axis factor series ramping logistically from 0
// (newly planted) to 1 (mature) over [planted, mature), spanning the
// inclusive year range [first, last].
func Maturation(planted, mature, first, last int) (*cube.Table, error) {
	return curve.Logistic(first, planted, mature, last, 0, 1)
}

// Sequestration returns annual sequestration: area times the mature
// per-area rate, shaped by the maturation series. The series broadcasts
// over the area table's remaining axes.
func Sequestration(areas *cube.Table, ratePerArea float64, maturation *cube.Table) (*cube.Table, error) {
	out, err := areas.Mul(maturation)
	if err != nil {
		return nil, err
	}
	return out.MulScalar(ratePerArea), nil
}

// Additional computes annual additional sequestration from land-use
// change. Areas must carry a Category axis; the result is a Year-axis
// series, per category when opt.PerCategory is set.
func Additional(areas *cube.Table, opt Options) (*cube.Table, error) {
	converted, err := convertible(areas, opt.Fractions)
	if err != nil {
		return nil, err
	}

	growth, err := opt.Shape.Series(
		opt.FirstYear, opt.FirstYear, opt.FirstYear+opt.Timescale, opt.LastYear, 0, 1)
	if err != nil {
		return nil, err
	}

	seq, err := Sequestration(converted, opt.Rate, growth)
	if err != nil {
		return nil, err
	}
	if opt.PerCategory {
		return seq, nil
	}
	return seq.SumOver(AxisCategory)
}

// convertible scales each category's area by its converted fraction.
func convertible(areas *cube.Table, fractions map[cube.Coord]float64) (*cube.Table, error) {
	cats, err := areas.AxisCoords(AxisCategory)
	if err != nil {
		return nil, err
	}
	for cat, f := range fractions {
		if f < 0 || f > 1 {
			return nil, fmt.Errorf("fraction for category %s must be between 0 and 1, got %v", cat, f)
		}
	}
	vals := make([]float64, len(cats))
	for i, cat := range cats {
		vals[i] = 1
		if f, ok := fractions[cat]; ok {
			vals[i] = f
		}
	}
	factor := cube.NewTable(cube.MustAxis(AxisCategory, cats...))
	if err := factor.SetElement("fraction", vals); err != nil {
		return nil, err
	}
	return areas.Mul(factor)
}
