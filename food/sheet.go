/*
Package food provides the food balance sheet domain model and the
balance-preserving rescale engine.

PURPOSE:
  A food balance sheet is a per-item, per-year (and optionally per-region)
  accounting of production, trade and utilization of food categories,
  constrained by a supply=use identity. This package wraps the generic cube
  with balance-sheet semantics: required elements, item/year/region
  extension, consumption scaling with balanced redistribution, and the
  standard derived ratios.

KEY CONCEPTS:
  - Sheet:      a validated cube with the required balance elements
  - Scale:      a scalar or year-aligned multiplicative factor
  - Rebalance:  scale consumption of selected items and redistribute the
                delta into origin elements (see rebalance.go)
  - SSR / IDR:  self-sufficiency and import-dependency ratios (ratios.go)

DESIGN PRINCIPLES:
  1. Sheets are never mutated: every operation returns a new Sheet, so the
     caller always holds the pre-image for delta comparisons.
  2. Structural problems are errors; policy problems are warnings on the
     result and the engine degrades to a best-effort answer, which suits
     exploratory scenario modelling better than refusing to answer.

SEE ALSO:
  - rebalance.go: the rescale engine
  - ratios.go:    SSR and IDR
  - audit.go:     supply=use identity audit
*/
package food

import (
	"sort"

	"github.com/arable/foodbalance/cube"
)

// =============================================================================
// AXIS AND ELEMENT NAMES
// =============================================================================

const (
	AxisItem   = "Item"
	AxisYear   = "Year"
	AxisRegion = "Region"
)

const (
	ElemProduction = "production"
	ElemImports    = "imports"
	ElemExports    = "exports"
	ElemFood       = "food"
)

// RequiredElements are the elements every balance sheet must carry.
var RequiredElements = []string{ElemProduction, ElemImports, ElemExports, ElemFood}

// =============================================================================
// SHEET
// =============================================================================

// Sheet is a food balance sheet: a cube with an Item and a Year axis (and
// optionally Region) carrying at least the required elements.
type Sheet struct {
	tab *cube.Table
}

// NewSheet validates and wraps a table. The table is cloned; the caller's
// copy stays untouched.
func NewSheet(t *cube.Table) (*Sheet, error) {
	if !t.HasAxis(AxisItem) || !t.HasAxis(AxisYear) {
		return nil, ErrMissingAxis
	}
	var missing []string
	for _, name := range RequiredElements {
		if !t.HasElement(name) {
			missing = append(missing, name)
		}
	}
	if missing != nil {
		return nil, &MissingElementsError{Missing: missing}
	}
	return &Sheet{tab: t.Clone()}, nil
}

// Table returns the underlying cube (a copy; sheets stay immutable).
func (s *Sheet) Table() *cube.Table {
	return s.tab.Clone()
}

// Items returns the Item axis coordinates.
func (s *Sheet) Items() []cube.Coord {
	coords, _ := s.tab.AxisCoords(AxisItem)
	return coords
}

// YearCoords returns the Year axis coordinates.
func (s *Sheet) YearCoords() []cube.Coord {
	coords, _ := s.tab.AxisCoords(AxisYear)
	return coords
}

// yearSpan parses the first and last Year coordinates as integers.
func (s *Sheet) yearSpan() (int, int, error) {
	coords := s.YearCoords()
	first, err := coords[0].Year()
	if err != nil {
		return 0, 0, err
	}
	last, err := coords[len(coords)-1].Year()
	if err != nil {
		return 0, 0, err
	}
	return first, last, nil
}

// wrap rewraps an already-validated derived table without recloning.
func (s *Sheet) wrap(t *cube.Table) *Sheet {
	return &Sheet{tab: t}
}

// =============================================================================
// LONG-FORMAT CONSTRUCTOR
// =============================================================================

// SupplyInput is the long-format input: one row per observation, with the
// coordinate slices parallel to each element's quantity slice. Regions is
// optional; when present it must be parallel too.
type SupplyInput struct {
	Items    []cube.Coord
	Years    []cube.Coord
	Regions  []cube.Coord
	Elements map[string][]float64
}

// Supply builds a sheet from long-format data. Coordinates are
// deduplicated and sorted per axis; combinations with no observation stay
// unknown.
func Supply(in SupplyInput) (*Sheet, error) {
	rows := len(in.Items)
	if len(in.Years) != rows {
		return nil, &cube.ShapeError{Element: AxisYear, Want: rows, Got: len(in.Years)}
	}
	withRegion := in.Regions != nil
	if withRegion && len(in.Regions) != rows {
		return nil, &cube.ShapeError{Element: AxisRegion, Want: rows, Got: len(in.Regions)}
	}

	axisNames := []string{AxisItem, AxisYear}
	if withRegion {
		axisNames = append(axisNames, AxisRegion)
	}

	names := make([]string, 0, len(in.Elements))
	for name := range in.Elements {
		names = append(names, name)
	}
	sort.Strings(names)

	var points []cube.Point
	for _, name := range names {
		vals := in.Elements[name]
		if len(vals) != rows {
			return nil, &cube.ShapeError{Element: name, Want: rows, Got: len(vals)}
		}
		for r := 0; r < rows; r++ {
			coords := []cube.Coord{in.Items[r], in.Years[r]}
			if withRegion {
				coords = append(coords, in.Regions[r])
			}
			points = append(points, cube.Point{Element: name, Coords: coords, Value: vals[r]})
		}
	}

	t, err := cube.FromLong(axisNames, points)
	if err != nil {
		return nil, err
	}
	return NewSheet(t)
}

// =============================================================================
// AXIS EXTENSION
// =============================================================================

// AddItems appends item categories. copyFrom, when given, names the
// existing item whose slice seeds each new one; otherwise the new slices
// are unknown.
func (s *Sheet) AddItems(items []cube.Coord, copyFrom []cube.Coord) (*Sheet, error) {
	t, err := s.tab.ExtendAxis(AxisItem, items, cube.Extension{CopyFrom: copyFrom})
	if err != nil {
		return nil, err
	}
	return s.wrap(t), nil
}

// AddRegions appends regions, mirroring AddItems.
func (s *Sheet) AddRegions(regions []cube.Coord, copyFrom []cube.Coord) (*Sheet, error) {
	t, err := s.tab.ExtendAxis(AxisRegion, regions, cube.Extension{CopyFrom: copyFrom})
	if err != nil {
		return nil, err
	}
	return s.wrap(t), nil
}

// AddYears appends years with projection semantics: cube.Empty leaves the
// new years unknown, cube.Constant repeats the last year, and
// cube.Scaled projects the last year by per-year factors.
func (s *Sheet) AddYears(years []cube.Coord, fill cube.Projection) (*Sheet, error) {
	t, err := s.tab.ExtendAxis(AxisYear, years, cube.Extension{Fill: fill})
	if err != nil {
		return nil, err
	}
	return s.wrap(t), nil
}

// WithItemLabel attaches a grouping label to the Item axis (one label per
// item), for use with GroupSum.
func (s *Sheet) WithItemLabel(label string, values []cube.Coord) (*Sheet, error) {
	t, err := s.tab.WithAxisLabel(AxisItem, label, values)
	if err != nil {
		return nil, err
	}
	return s.wrap(t), nil
}

// GroupSum collapses an axis by an attached label coordinate, summing group
// members. The grouped result is returned as a bare table because group
// totals are no longer a per-item balance sheet.
func (s *Sheet) GroupSum(label, rename string) (*cube.Table, error) {
	return s.tab.GroupSum(label, rename)
}
