/*
Package cube provides the labeled accounting table underlying the engine.

PURPOSE:
  This package contains the domain-agnostic N-dimensional container used by
  every balance-sheet computation: a rectangular cube of float64 cells
  addressed by named axes (Item, Year, Region, ...) holding one or more named
  numeric elements (production, imports, food, ...).

KEY CONCEPTS IN THIS FILE (types.go):
  - Coord: A coordinate value on an axis (a label, never a position)
  - Axis:  A named, ordered set of unique coordinate values
  - Table: The cube itself; a set of elements sharing the same axes

DESIGN PRINCIPLES:
  1. Alignment by label: all cross-table operations match coordinate VALUES,
     never positions. Two tables with the same coordinates in different
     order combine identically.
  2. Unknown sentinel: a missing cell holds NaN, which is distinct from
     zero. Constructors leave unrepresented combinations as NaN.
  3. Functional updates: operations return new tables. The only mutating
     calls (SetElement, WithAxisLabel) are construction-time builders.

USAGE:
  items, _ := cube.NewAxis("Item", "Beef", "Apples")
  years, _ := cube.NewAxis("Year", cube.Years(2020, 2021)...)
  t := cube.NewTable(items, years)
  _ = t.SetElement("production", []float64{50, 70, 60, 80})

SEE ALSO:
  - ops.go:   selection, axis extension, group reductions
  - arith.go: element-wise arithmetic, broadcasting, axis reductions
  - errors.go: sentinel and structured errors
*/
package cube

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// =============================================================================
// COORD - A coordinate value on an axis
// =============================================================================

// Coord is a coordinate label. Integer-valued coordinates (years, category
// IDs) are stored in their decimal string form; Year and the Coord.Year
// helper convert back and forth.
type Coord string

// Year returns the Coord form of an integer year.
func Year(y int) Coord {
	return Coord(strconv.Itoa(y))
}

// Years returns the inclusive coordinate range [from, to].
func Years(from, to int) []Coord {
	if to < from {
		return nil
	}
	out := make([]Coord, 0, to-from+1)
	for y := from; y <= to; y++ {
		out = append(out, Year(y))
	}
	return out
}

// Year parses the coordinate as an integer year.
func (c Coord) Year() (int, error) {
	y, err := strconv.Atoi(string(c))
	if err != nil {
		return 0, fmt.Errorf("coordinate %q is not a year: %w", string(c), err)
	}
	return y, nil
}

// =============================================================================
// AXIS - Named, ordered set of unique coordinates
// =============================================================================

// Axis is a named dimension of a table. Coordinate order is construction
// order and carries no semantics beyond iteration/presentation.
type Axis struct {
	name   string
	coords []Coord
	index  map[Coord]int
	labels map[string][]Coord
}

// NewAxis builds an axis. Duplicate coordinates are an error.
func NewAxis(name string, coords ...Coord) (Axis, error) {
	a := Axis{
		name:   name,
		coords: append([]Coord(nil), coords...),
		index:  make(map[Coord]int, len(coords)),
	}
	for i, c := range coords {
		if _, dup := a.index[c]; dup {
			return Axis{}, &DuplicateCoordError{Axis: name, Coord: c}
		}
		a.index[c] = i
	}
	return a, nil
}

// MustAxis is NewAxis for static coordinate lists; panics on duplicates.
func MustAxis(name string, coords ...Coord) Axis {
	a, err := NewAxis(name, coords...)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Axis) Name() string { return a.name }
func (a Axis) Len() int     { return len(a.coords) }

// Coords returns a copy of the coordinate list.
func (a Axis) Coords() []Coord {
	return append([]Coord(nil), a.coords...)
}

// Has reports whether the coordinate exists on the axis.
func (a Axis) Has(c Coord) bool {
	_, ok := a.index[c]
	return ok
}

func (a *Axis) clone() *Axis {
	cl := &Axis{
		name:   a.name,
		coords: append([]Coord(nil), a.coords...),
		index:  make(map[Coord]int, len(a.coords)),
	}
	for c, i := range a.index {
		cl.index[c] = i
	}
	if a.labels != nil {
		cl.labels = make(map[string][]Coord, len(a.labels))
		for k, v := range a.labels {
			cl.labels[k] = append([]Coord(nil), v...)
		}
	}
	return cl
}

// =============================================================================
// TABLE - The cube
// =============================================================================

// Table is a rectangular cube of float64 cells over a shared axis set, with
// one flat row-major slice per element. NaN marks an unknown cell.
type Table struct {
	axes  []*Axis
	order []string
	elems map[string][]float64
}

// NewTable builds an empty table over the given axes. Axis order is the
// argument order.
func NewTable(axes ...Axis) *Table {
	t := &Table{elems: make(map[string][]float64)}
	for i := range axes {
		a := axes[i]
		t.axes = append(t.axes, a.clone())
	}
	return t
}

// size is the number of cells per element.
func (t *Table) size() int {
	n := 1
	for _, a := range t.axes {
		n *= len(a.coords)
	}
	return n
}

// strides returns row-major strides (first axis slowest).
func (t *Table) strides() []int {
	s := make([]int, len(t.axes))
	acc := 1
	for i := len(t.axes) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= len(t.axes[i].coords)
	}
	return s
}

func (t *Table) axisPos(name string) int {
	for i, a := range t.axes {
		if a.name == name {
			return i
		}
	}
	return -1
}

// SetElement adds or replaces an element. values is row-major over the axes
// in table order (first axis slowest); nil fills the element with NaN.
func (t *Table) SetElement(name string, values []float64) error {
	n := t.size()
	dst := make([]float64, n)
	switch {
	case values == nil:
		for i := range dst {
			dst[i] = math.NaN()
		}
	case len(values) != n:
		return &ShapeError{Element: name, Want: n, Got: len(values)}
	default:
		copy(dst, values)
	}
	if _, exists := t.elems[name]; !exists {
		t.order = append(t.order, name)
	}
	t.elems[name] = dst
	return nil
}

// Elements returns the element names in insertion order.
func (t *Table) Elements() []string {
	return append([]string(nil), t.order...)
}

// HasElement reports whether the named element exists.
func (t *Table) HasElement(name string) bool {
	_, ok := t.elems[name]
	return ok
}

// Axes returns the axis names in table order.
func (t *Table) Axes() []string {
	out := make([]string, len(t.axes))
	for i, a := range t.axes {
		out[i] = a.name
	}
	return out
}

// AxisCoords returns the coordinates of the named axis.
func (t *Table) AxisCoords(name string) ([]Coord, error) {
	i := t.axisPos(name)
	if i < 0 {
		return nil, &AxisError{Axis: name}
	}
	return t.axes[i].Coords(), nil
}

// HasAxis reports whether the named axis exists.
func (t *Table) HasAxis(name string) bool {
	return t.axisPos(name) >= 0
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	cl := &Table{
		order: append([]string(nil), t.order...),
		elems: make(map[string][]float64, len(t.elems)),
	}
	for _, a := range t.axes {
		cl.axes = append(cl.axes, a.clone())
	}
	for name, vals := range t.elems {
		cl.elems[name] = append([]float64(nil), vals...)
	}
	return cl
}

// Value returns the cell of an element at the given coordinates, one per
// axis keyed by axis name.
func (t *Table) Value(element string, at map[string]Coord) (float64, error) {
	vals, ok := t.elems[element]
	if !ok {
		return 0, &ElementError{Element: element}
	}
	if len(at) != len(t.axes) {
		return 0, fmt.Errorf("need one coordinate per axis (%d), got %d", len(t.axes), len(at))
	}
	idx := 0
	strides := t.strides()
	for i, a := range t.axes {
		c, ok := at[a.name]
		if !ok {
			return 0, &AxisError{Axis: a.name}
		}
		p, ok := a.index[c]
		if !ok {
			return 0, &CoordError{Axis: a.name, Coord: c}
		}
		idx += p * strides[i]
	}
	return vals[idx], nil
}

// ElementValues returns a row-major copy of an element's cells.
func (t *Table) ElementValues(name string) ([]float64, error) {
	vals, ok := t.elems[name]
	if !ok {
		return nil, &ElementError{Element: name}
	}
	return append([]float64(nil), vals...), nil
}

// ElementTable returns a single-element copy of the table.
func (t *Table) ElementTable(name string) (*Table, error) {
	vals, ok := t.elems[name]
	if !ok {
		return nil, &ElementError{Element: name}
	}
	out := &Table{
		order: []string{name},
		elems: map[string][]float64{name: append([]float64(nil), vals...)},
	}
	for _, a := range t.axes {
		out.axes = append(out.axes, a.clone())
	}
	return out, nil
}

// WithElement returns a copy of the table with the named element replaced
// (or added) from a single-element source table. The source must span the
// same axes and coordinate sets; cells are matched by coordinate value.
func (t *Table) WithElement(name string, src *Table) (*Table, error) {
	if len(src.order) != 1 {
		return nil, fmt.Errorf("source must hold exactly one element, has %d", len(src.order))
	}
	if len(src.axes) != len(t.axes) {
		return nil, &ShapeError{Element: name, Want: len(t.axes), Got: len(src.axes)}
	}
	out := t.Clone()
	srcVals := src.elems[src.order[0]]

	// Per destination axis, map destination coordinate position to source
	// position. Every destination coordinate must exist in the source.
	maps := make([][]int, len(t.axes))
	srcStrides := src.strides()
	strideByAxis := make([]int, len(t.axes))
	for i, a := range t.axes {
		j := src.axisPos(a.name)
		if j < 0 {
			return nil, &AxisError{Axis: a.name}
		}
		if len(src.axes[j].coords) != len(a.coords) {
			return nil, &ShapeError{Element: name, Want: len(a.coords), Got: len(src.axes[j].coords)}
		}
		m := make([]int, len(a.coords))
		for p, c := range a.coords {
			sp, ok := src.axes[j].index[c]
			if !ok {
				return nil, &CoordError{Axis: a.name, Coord: c}
			}
			m[p] = sp
		}
		maps[i] = m
		strideByAxis[i] = srcStrides[j]
	}

	dst := make([]float64, t.size())
	odo := make([]int, len(t.axes))
	for flat := range dst {
		srcIdx := 0
		for i := range odo {
			srcIdx += maps[i][odo[i]] * strideByAxis[i]
		}
		dst[flat] = srcVals[srcIdx]
		advance(odo, t.axes)
	}
	if _, exists := out.elems[name]; !exists {
		out.order = append(out.order, name)
	}
	out.elems[name] = dst
	return out, nil
}

// RenameElement returns a copy with one element renamed in place (same
// position in element order).
func (t *Table) RenameElement(old, new string) (*Table, error) {
	if !t.HasElement(old) {
		return nil, &ElementError{Element: old}
	}
	if old == new {
		return t.Clone(), nil
	}
	if t.HasElement(new) {
		return nil, fmt.Errorf("element %q already exists", new)
	}
	out := t.Clone()
	out.elems[new] = out.elems[old]
	delete(out.elems, old)
	for i, name := range out.order {
		if name == old {
			out.order[i] = new
		}
	}
	return out, nil
}

// advance increments a row-major odometer over the axis sizes.
func advance(odo []int, axes []*Axis) {
	for i := len(odo) - 1; i >= 0; i-- {
		odo[i]++
		if odo[i] < len(axes[i].coords) {
			return
		}
		odo[i] = 0
	}
}

// =============================================================================
// LONG-FORMAT CONSTRUCTOR
// =============================================================================

// Point is one long-format observation: an element value at one coordinate
// per axis (parallel to the axis-name list passed to FromLong).
type Point struct {
	Element string
	Coords  []Coord
	Value   float64
}

// FromLong builds a table from long-format points. Coordinate sets are
// deduplicated and sorted per axis; combinations with no point stay NaN.
// A later point for the same cell overwrites an earlier one.
func FromLong(axisNames []string, points []Point) (*Table, error) {
	if len(axisNames) == 0 {
		return nil, fmt.Errorf("at least one axis is required")
	}
	seen := make([]map[Coord]bool, len(axisNames))
	for i := range seen {
		seen[i] = make(map[Coord]bool)
	}
	var elemOrder []string
	elemSeen := make(map[string]bool)
	for _, p := range points {
		if len(p.Coords) != len(axisNames) {
			return nil, &ShapeError{Element: p.Element, Want: len(axisNames), Got: len(p.Coords)}
		}
		for i, c := range p.Coords {
			seen[i][c] = true
		}
		if !elemSeen[p.Element] {
			elemSeen[p.Element] = true
			elemOrder = append(elemOrder, p.Element)
		}
	}

	axes := make([]Axis, len(axisNames))
	for i, name := range axisNames {
		coords := make([]Coord, 0, len(seen[i]))
		for c := range seen[i] {
			coords = append(coords, c)
		}
		sort.Slice(coords, func(a, b int) bool { return coordLess(coords[a], coords[b]) })
		a, err := NewAxis(name, coords...)
		if err != nil {
			return nil, err
		}
		axes[i] = a
	}

	t := NewTable(axes...)
	for _, name := range elemOrder {
		if err := t.SetElement(name, nil); err != nil {
			return nil, err
		}
	}
	strides := t.strides()
	for _, p := range points {
		idx := 0
		for i, c := range p.Coords {
			idx += t.axes[i].index[c] * strides[i]
		}
		t.elems[p.Element][idx] = p.Value
	}
	return t, nil
}

// coordLess orders coordinates that both parse as years numerically and
// everything else lexically, so year axes sort chronologically regardless
// of digit width.
func coordLess(a, b Coord) bool {
	ai, aerr := a.Year()
	bi, berr := b.Year()
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

// FromWide builds a table from pre-shaped row-major element slices spanning
// the full cross-product of the given axes. A nil slice leaves the element
// unknown everywhere.
func FromWide(axes []Axis, elements map[string][]float64) (*Table, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("at least one axis is required")
	}
	t := NewTable(axes...)
	names := make([]string, 0, len(elements))
	for name := range elements {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := t.SetElement(name, elements[name]); err != nil {
			return nil, err
		}
	}
	return t, nil
}
