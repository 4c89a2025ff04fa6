/*
ratios.go - Derived self-sufficiency and import-dependency ratios

PURPOSE:
  The standard balance-sheet indicators:

    SSR = production / (production + imports - exports)
    IDR = imports    / (production + imports - exports)

  By default both are computed per year over all items (element totals
  first, then the ratio). An item subset restricts the totals; PerItem
  skips the aggregation and yields one ratio per item.

DIVISION:
  The denominator is the domestic supply. Ratios follow IEEE float
  semantics: a zero denominator yields +/-Inf and 0/0 is unknown.
*/
package food

import "github.com/arable/foodbalance/cube"

// RatioOptions restricts and shapes a ratio computation.
type RatioOptions struct {
	// Items restricts the computation to an item subset; nil means all.
	Items []cube.Coord

	// PerItem keeps the Item axis instead of aggregating over it.
	PerItem bool
}

// SSR returns the self-sufficiency ratio as a single-element table named
// "ssr".
func (s *Sheet) SSR(opt RatioOptions) (*cube.Table, error) {
	return s.ratio(ElemProduction, "ssr", opt)
}

// IDR returns the import-dependency ratio as a single-element table named
// "idr".
func (s *Sheet) IDR(opt RatioOptions) (*cube.Table, error) {
	return s.ratio(ElemImports, "idr", opt)
}

func (s *Sheet) ratio(numerator, name string, opt RatioOptions) (*cube.Table, error) {
	t := s.tab
	if opt.Items != nil {
		var err error
		t, err = t.Select(AxisItem, opt.Items...)
		if err != nil {
			return nil, err
		}
	}

	pick := func(element string) (*cube.Table, error) {
		e, err := t.ElementTable(element)
		if err != nil {
			return nil, err
		}
		if opt.PerItem {
			return e, nil
		}
		return e.SumOver(AxisItem)
	}

	prod, err := pick(ElemProduction)
	if err != nil {
		return nil, err
	}
	imports, err := pick(ElemImports)
	if err != nil {
		return nil, err
	}
	exports, err := pick(ElemExports)
	if err != nil {
		return nil, err
	}
	num, err := pick(numerator)
	if err != nil {
		return nil, err
	}

	supply, err := prod.Add(imports)
	if err != nil {
		return nil, err
	}
	supply, err = supply.Sub(exports)
	if err != nil {
		return nil, err
	}
	out, err := num.Div(supply)
	if err != nil {
		return nil, err
	}
	return out.RenameElement(numerator, name)
}
