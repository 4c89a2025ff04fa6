/*
audit.go - Exact supply=use identity audit

PURPOSE:
  Verifies the accounting identity of a sheet cell by cell:

    production + imports - exports  =  food (+ further use terms)

  Float arithmetic is fine for the engine, but an audit asserting equality
  must not raise false alarms from accumulated rounding, so all audit sums
  run on exact decimals. Unknown cells are excluded from the terms they
  appear in.
*/
package food

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/arable/foodbalance/cube"
)

// Term is one element contributing to a side of the identity, optionally
// with negative sign.
type Term struct {
	Element  string
	Subtract bool
}

// AuditOptions configures the identity being checked. Zero-value sides
// default to the core identity: supply production+imports-exports, use
// food.
type AuditOptions struct {
	Supply []Term
	Use    []Term

	// Tolerance is the largest absolute per-cell difference still counted
	// as balanced. Zero demands exact equality.
	Tolerance decimal.Decimal
}

// Residual is one cell where the identity does not hold.
type Residual struct {
	Coords map[string]cube.Coord
	Supply decimal.Decimal
	Use    decimal.Decimal
	Diff   decimal.Decimal // supply minus use
}

// AuditReport summarizes an audit run.
type AuditReport struct {
	Checked     int
	Balanced    bool
	Residuals   []Residual
	TotalSupply decimal.Decimal
	TotalUse    decimal.Decimal
}

func defaultTerms(terms []Term, fallback []Term) []Term {
	if terms != nil {
		return terms
	}
	return fallback
}

// Audit checks the supply=use identity on every cell and reports the
// residuals.
func (s *Sheet) Audit(opt AuditOptions) (*AuditReport, error) {
	supplyTerms := defaultTerms(opt.Supply, []Term{
		{Element: ElemProduction},
		{Element: ElemImports},
		{Element: ElemExports, Subtract: true},
	})
	useTerms := defaultTerms(opt.Use, []Term{{Element: ElemFood}})

	for _, t := range append(append([]Term(nil), supplyTerms...), useTerms...) {
		if !s.tab.HasElement(t.Element) {
			return nil, &cube.ElementError{Element: t.Element}
		}
	}

	axes := s.tab.Axes()
	coords := make([][]cube.Coord, len(axes))
	for i, name := range axes {
		cs, err := s.tab.AxisCoords(name)
		if err != nil {
			return nil, err
		}
		coords[i] = cs
	}

	side := func(terms []Term, at map[string]cube.Coord) (decimal.Decimal, error) {
		sum := decimal.Zero
		for _, t := range terms {
			v, err := s.tab.Value(t.Element, at)
			if err != nil {
				return decimal.Zero, err
			}
			if math.IsNaN(v) {
				continue
			}
			d := decimal.NewFromFloat(v)
			if t.Subtract {
				sum = sum.Sub(d)
			} else {
				sum = sum.Add(d)
			}
		}
		return sum, nil
	}

	rep := &AuditReport{
		Balanced:    true,
		TotalSupply: decimal.Zero,
		TotalUse:    decimal.Zero,
	}
	odo := make([]int, len(axes))
	cells := 1
	for _, cs := range coords {
		cells *= len(cs)
	}
	for cell := 0; cell < cells; cell++ {
		at := make(map[string]cube.Coord, len(axes))
		for i, name := range axes {
			at[name] = coords[i][odo[i]]
		}
		supply, err := side(supplyTerms, at)
		if err != nil {
			return nil, err
		}
		use, err := side(useTerms, at)
		if err != nil {
			return nil, err
		}
		rep.Checked++
		rep.TotalSupply = rep.TotalSupply.Add(supply)
		rep.TotalUse = rep.TotalUse.Add(use)
		diff := supply.Sub(use)
		if diff.Abs().GreaterThan(opt.Tolerance) {
			rep.Balanced = false
			rep.Residuals = append(rep.Residuals, Residual{
				Coords: at,
				Supply: supply,
				Use:    use,
				Diff:   diff,
			})
		}

		// Row-major odometer over axis coordinates.
		for i := len(odo) - 1; i >= 0; i-- {
			odo[i]++
			if odo[i] < len(coords[i]) {
				break
			}
			odo[i] = 0
		}
	}
	return rep, nil
}
