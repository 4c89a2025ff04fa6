/*
Package impact converts balance-sheet quantities into environmental
impacts.

PURPOSE:
  An impact is a quantity table (per-capita or national consumption)
  multiplied by a per-unit factor table (emissions, land use, water per
  quantity unit), matched item by item. Factors typically carry only an
  Item axis and broadcast over years and regions.

USAGE:
  em, _ := impact.Total(food, factors, impact.TotalOptions{
      Population: 67e6,
      SumOver:    []string{"Item"},
  })
*/
package impact

import "github.com/arable/foodbalance/cube"

// TotalOptions shapes an impact computation.
type TotalOptions struct {
	// Population multiplies the result, converting per-capita quantities
	// into national totals. Zero means no population scaling.
	Population float64

	// SumOver lists axes to collapse in the result, in order.
	SumOver []string
}

// Total returns quantities times per-unit factors, aligned by coordinate,
// optionally scaled by population and reduced over axes. Quantity cells
// with no matching factor come out unknown.
func Total(quantities, factors *cube.Table, opt TotalOptions) (*cube.Table, error) {
	out, err := quantities.Mul(factors)
	if err != nil {
		return nil, err
	}
	if opt.Population > 0 {
		out = out.MulScalar(opt.Population)
	}
	for _, axis := range opt.SumOver {
		out, err = out.SumOver(axis)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
