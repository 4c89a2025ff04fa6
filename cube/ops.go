/*
ops.go - Selection, axis extension and group reductions

PURPOSE:
  Coordinate-level operations on tables: restricting an axis to a subset,
  appending new coordinates (with copy/projection fill semantics), attaching
  group labels to an axis and collapsing it by label.

EXTENSION SEMANTICS:
  New coordinates are deduplicated FIRST-SEEN (stable by first occurrence,
  not by natural order) before insertion; this keeps results reproducible
  when callers assemble coordinate lists from multiple sources. A new
  coordinate that already exists on the axis is an error.

  The new slices are filled from a pivot:
    CopyFrom  - per-new-coordinate existing pivot coordinates
    Empty     - all cells unknown (NaN); the default
    Constant  - copy of the slice at the LAST existing coordinate
    Scaled    - last existing slice times a per-new-coordinate factor
                (year-extension "projection")

SEE ALSO:
  - types.go: Table internals
  - arith.go: element-wise arithmetic and axis reductions
*/
package cube

import (
	"fmt"
	"math"
)

// =============================================================================
// SELECT
// =============================================================================

// Select restricts an axis to the given coordinate subset, in the given
// order. Every coordinate must exist on the axis.
func (t *Table) Select(axis string, coords ...Coord) (*Table, error) {
	ai := t.axisPos(axis)
	if ai < 0 {
		return nil, &AxisError{Axis: axis}
	}
	src := t.axes[ai]
	picks := make([]int, len(coords))
	for i, c := range coords {
		p, ok := src.index[c]
		if !ok {
			return nil, &CoordError{Axis: axis, Coord: c}
		}
		picks[i] = p
	}

	newAxis, err := NewAxis(axis, coords...)
	if err != nil {
		return nil, err
	}
	if src.labels != nil {
		newAxis.labels = make(map[string][]Coord, len(src.labels))
		for name, vals := range src.labels {
			sub := make([]Coord, len(picks))
			for i, p := range picks {
				sub[i] = vals[p]
			}
			newAxis.labels[name] = sub
		}
	}

	out := &Table{elems: make(map[string][]float64, len(t.elems))}
	for i, a := range t.axes {
		if i == ai {
			out.axes = append(out.axes, newAxis.clone())
		} else {
			out.axes = append(out.axes, a.clone())
		}
	}
	out.order = append([]string(nil), t.order...)

	srcStrides := t.strides()
	for name, vals := range t.elems {
		dst := make([]float64, out.size())
		odo := make([]int, len(out.axes))
		for flat := range dst {
			srcIdx := 0
			for i := range odo {
				p := odo[i]
				if i == ai {
					p = picks[p]
				}
				srcIdx += p * srcStrides[i]
			}
			dst[flat] = vals[srcIdx]
			advance(odo, out.axes)
		}
		out.elems[name] = dst
	}
	return out, nil
}

// =============================================================================
// AXIS EXTENSION
// =============================================================================

type fillMode int

const (
	fillEmpty fillMode = iota
	fillConstant
	fillScaled
)

// Projection describes how new slices are filled when no CopyFrom pivot is
// given. The zero value is Empty.
type Projection struct {
	mode    fillMode
	factors []float64
}

// Empty fills new slices with the unknown sentinel.
func Empty() Projection { return Projection{} }

// Constant repeats the slice at the last existing coordinate.
func Constant() Projection { return Projection{mode: fillConstant} }

// Scaled fills each new slice with the last existing slice times the
// corresponding factor (one factor per deduplicated new coordinate).
func Scaled(factors ...float64) Projection {
	return Projection{mode: fillScaled, factors: append([]float64(nil), factors...)}
}

// Extension configures ExtendAxis. CopyFrom takes precedence over Fill.
type Extension struct {
	CopyFrom []Coord
	Fill     Projection
}

// ExtendAxis appends new coordinates to an axis. The new coordinate list is
// deduplicated first-seen; coordinates already on the axis are an error.
// Existing group labels on the axis are padded with empty labels for the
// new coordinates.
func (t *Table) ExtendAxis(axis string, coords []Coord, ext Extension) (*Table, error) {
	ai := t.axisPos(axis)
	if ai < 0 {
		return nil, &AxisError{Axis: axis}
	}
	src := t.axes[ai]

	// First-seen dedup.
	added := make([]Coord, 0, len(coords))
	seen := make(map[Coord]bool, len(coords))
	for _, c := range coords {
		if seen[c] {
			continue
		}
		seen[c] = true
		if src.Has(c) {
			return nil, &DuplicateCoordError{Axis: axis, Coord: c}
		}
		added = append(added, c)
	}

	// Resolve per-new-coordinate pivot positions and fill factors.
	oldLen := len(src.coords)
	if oldLen == 0 {
		return nil, fmt.Errorf("%w: cannot extend axis %q", ErrEmptyAxis, axis)
	}
	pivots := make([]int, len(added))
	factors := make([]float64, len(added))
	switch {
	case ext.CopyFrom != nil:
		if len(ext.CopyFrom) != len(added) {
			return nil, &ShapeError{Element: axis, Want: len(added), Got: len(ext.CopyFrom)}
		}
		for i, c := range ext.CopyFrom {
			p, ok := src.index[c]
			if !ok {
				return nil, &CoordError{Axis: axis, Coord: c}
			}
			pivots[i] = p
			factors[i] = 1
		}
	case ext.Fill.mode == fillScaled:
		if len(ext.Fill.factors) != len(added) {
			return nil, &ShapeError{Element: axis, Want: len(added), Got: len(ext.Fill.factors)}
		}
		for i := range added {
			pivots[i] = oldLen - 1
			factors[i] = ext.Fill.factors[i]
		}
	case ext.Fill.mode == fillConstant:
		for i := range added {
			pivots[i] = oldLen - 1
			factors[i] = 1
		}
	default: // Empty
		for i := range added {
			pivots[i] = oldLen - 1
			factors[i] = math.NaN()
		}
	}

	newAxis, err := NewAxis(axis, append(src.Coords(), added...)...)
	if err != nil {
		return nil, err
	}
	if src.labels != nil {
		newAxis.labels = make(map[string][]Coord, len(src.labels))
		for name, vals := range src.labels {
			padded := append(append([]Coord(nil), vals...), make([]Coord, len(added))...)
			newAxis.labels[name] = padded
		}
	}

	out := &Table{elems: make(map[string][]float64, len(t.elems))}
	for i, a := range t.axes {
		if i == ai {
			out.axes = append(out.axes, newAxis.clone())
		} else {
			out.axes = append(out.axes, a.clone())
		}
	}
	out.order = append([]string(nil), t.order...)

	srcStrides := t.strides()
	for name, vals := range t.elems {
		dst := make([]float64, out.size())
		odo := make([]int, len(out.axes))
		for flat := range dst {
			p := odo[ai]
			factor := 1.0
			if p >= oldLen {
				factor = factors[p-oldLen]
				p = pivots[p-oldLen]
			}
			srcIdx := 0
			for i := range odo {
				q := odo[i]
				if i == ai {
					q = p
				}
				srcIdx += q * srcStrides[i]
			}
			dst[flat] = vals[srcIdx] * factor
			advance(odo, out.axes)
		}
		out.elems[name] = dst
	}
	return out, nil
}

// =============================================================================
// GROUP LABELS
// =============================================================================

// WithAxisLabel attaches a label coordinate to an axis (one label value per
// axis coordinate) and returns the updated table.
func (t *Table) WithAxisLabel(axis, label string, values []Coord) (*Table, error) {
	ai := t.axisPos(axis)
	if ai < 0 {
		return nil, &AxisError{Axis: axis}
	}
	if len(values) != len(t.axes[ai].coords) {
		return nil, &ShapeError{Element: label, Want: len(t.axes[ai].coords), Got: len(values)}
	}
	out := t.Clone()
	a := out.axes[ai]
	if a.labels == nil {
		a.labels = make(map[string][]Coord)
	}
	a.labels[label] = append([]Coord(nil), values...)
	return out, nil
}

// GroupSum collapses the axis carrying the given label coordinate: cells
// with equal label values are summed (unknowns skipped; an all-unknown
// group sums to zero) and the distinct labels, in first-seen order, become
// the new axis coordinates. rename overrides the new axis name; when empty
// the axis takes the label's name. Passing an axis name instead of a label
// returns the table with that axis renamed only.
func (t *Table) GroupSum(label, rename string) (*Table, error) {
	if ai := t.axisPos(label); ai >= 0 {
		out := t.Clone()
		if rename != "" {
			out.axes[ai].name = rename
		}
		return out, nil
	}

	ai := -1
	var labelVals []Coord
	for i, a := range t.axes {
		if vals, ok := a.labels[label]; ok {
			ai, labelVals = i, vals
			break
		}
	}
	if ai < 0 {
		return nil, &LabelError{Label: label}
	}

	// Distinct labels in first-seen order, and member positions per group.
	var groups []Coord
	members := make(map[Coord][]int)
	for p, lv := range labelVals {
		if _, ok := members[lv]; !ok {
			groups = append(groups, lv)
		}
		members[lv] = append(members[lv], p)
	}

	newName := label
	if rename != "" {
		newName = rename
	}
	newAxis, err := NewAxis(newName, groups...)
	if err != nil {
		return nil, err
	}

	out := &Table{elems: make(map[string][]float64, len(t.elems))}
	for i, a := range t.axes {
		if i == ai {
			out.axes = append(out.axes, newAxis.clone())
		} else {
			out.axes = append(out.axes, a.clone())
		}
	}
	out.order = append([]string(nil), t.order...)

	srcStrides := t.strides()
	for name, vals := range t.elems {
		dst := make([]float64, out.size())
		odo := make([]int, len(out.axes))
		for flat := range dst {
			sum := 0.0
			for _, p := range members[groups[odo[ai]]] {
				srcIdx := 0
				for i := range odo {
					q := odo[i]
					if i == ai {
						q = p
					}
					srcIdx += q * srcStrides[i]
				}
				if v := vals[srcIdx]; !math.IsNaN(v) {
					sum += v
				}
			}
			dst[flat] = sum
			advance(odo, out.axes)
		}
		out.elems[name] = dst
	}
	return out, nil
}
