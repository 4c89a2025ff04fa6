/*
scale.go - Consumption scaling factors and element scaling

PURPOSE:
  Scale is the multiplicative factor applied to an element: either a single
  uniform number or a year-aligned series (typically an adoption curve from
  the curve package). ScaleElement applies a Scale to selected items of one
  element; ScaleAdd additionally books the resulting delta into another
  element, keeping the sheet total unchanged.

SEE ALSO:
  - rebalance.go: the full redistribution engine built on these primitives
  - curve:        adoption-curve series generation
*/
package food

import (
	"fmt"

	"github.com/arable/foodbalance/cube"
)

// =============================================================================
// SCALE
// =============================================================================

// Scale is a multiplicative factor for an element: a uniform scalar or a
// single-element factor table. The zero value is invalid and surfaces as
// ErrScaleRequired when used.
type Scale struct {
	set     bool
	uniform float64
	series  *cube.Table
}

// Uniform is a constant factor applied to every cell.
func Uniform(f float64) Scale {
	return Scale{set: true, uniform: f}
}

// FromSeries wraps a single-element factor table. A table with a Year axis
// must cover every year of the sheet it is applied to.
func FromSeries(t *cube.Table) Scale {
	return Scale{set: true, series: t}
}

// factor materializes the scale as a table ready to broadcast over a sheet
// with the given Year coordinates.
func (sc Scale) factor(years []cube.Coord) (*cube.Table, error) {
	if !sc.set {
		return nil, ErrScaleRequired
	}
	if sc.series == nil {
		t := cube.NewTable()
		if err := t.SetElement("scale", []float64{sc.uniform}); err != nil {
			return nil, err
		}
		return t, nil
	}
	if n := len(sc.series.Elements()); n != 1 {
		return nil, fmt.Errorf("scale series must hold exactly one element, has %d", n)
	}
	if sc.series.HasAxis(AxisYear) {
		return sc.series.Select(AxisYear, years...)
	}
	return sc.series.Clone(), nil
}

// =============================================================================
// ELEMENT SCALING
// =============================================================================

// itemMask builds a 1/0 indicator over the sheet's Item axis: 1 for the
// given items, 0 elsewhere. Unknown items are a coordinate error.
func (s *Sheet) itemMask(items []cube.Coord) (*cube.Table, error) {
	coords := s.Items()
	have := make(map[cube.Coord]int, len(coords))
	for i, c := range coords {
		have[c] = i
	}
	vals := make([]float64, len(coords))
	for _, c := range items {
		p, ok := have[c]
		if !ok {
			return nil, &cube.CoordError{Axis: AxisItem, Coord: c}
		}
		vals[p] = 1
	}
	axis, err := cube.NewAxis(AxisItem, coords...)
	if err != nil {
		return nil, err
	}
	t := cube.NewTable(axis)
	if err := t.SetElement("mask", vals); err != nil {
		return nil, err
	}
	return t, nil
}

// ScaleElement multiplies the selected items of an element by the scale,
// leaving every other item untouched. A nil item list selects all items.
// Unknown cells stay unknown.
func (s *Sheet) ScaleElement(element string, items []cube.Coord, scale Scale) (*Sheet, error) {
	if !s.tab.HasElement(element) {
		return nil, &cube.ElementError{Element: element}
	}
	if items == nil {
		items = s.Items()
	}
	mask, err := s.itemMask(items)
	if err != nil {
		return nil, err
	}
	f, err := scale.factor(s.YearCoords())
	if err != nil {
		return nil, err
	}

	// Per-cell factor: scale where the item is selected, 1 elsewhere.
	adj, err := f.AddScalar(-1).Mul(mask)
	if err != nil {
		return nil, err
	}
	adj = adj.AddScalar(1)

	old, err := s.tab.ElementTable(element)
	if err != nil {
		return nil, err
	}
	scaled, err := old.Mul(adj)
	if err != nil {
		return nil, err
	}
	t, err := s.tab.WithElement(element, scaled)
	if err != nil {
		return nil, err
	}
	return s.wrap(t), nil
}

// ScaleAdd scales the selected items of an element and books the resulting
// delta into another element, so the element pair's total is preserved.
// subtract books the delta with inverted sign (scaling food up pulls
// exports down, for example). Unknown deltas count as zero.
func (s *Sheet) ScaleAdd(element string, items []cube.Coord, scale Scale, into string, subtract bool) (*Sheet, error) {
	if !s.tab.HasElement(into) {
		return nil, &cube.ElementError{Element: into}
	}
	old, err := s.tab.ElementTable(element)
	if err != nil {
		return nil, err
	}
	scaled, err := s.ScaleElement(element, items, scale)
	if err != nil {
		return nil, err
	}
	newElem, err := scaled.tab.ElementTable(element)
	if err != nil {
		return nil, err
	}
	delta, err := newElem.FillNA(0).Sub(old.FillNA(0))
	if err != nil {
		return nil, err
	}

	cur, err := scaled.tab.ElementTable(into)
	if err != nil {
		return nil, err
	}
	var next *cube.Table
	if subtract {
		next, err = cur.Sub(delta)
	} else {
		next, err = cur.Add(delta)
	}
	if err != nil {
		return nil, err
	}
	t, err := scaled.tab.WithElement(into, next)
	if err != nil {
		return nil, err
	}
	return s.wrap(t), nil
}
