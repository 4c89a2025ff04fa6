/*
arith.go - Element-wise arithmetic, broadcasting and axis reductions

PURPOSE:
  Implements the alignment rules every consumer of the cube relies on:

  OUTER-JOIN ALIGNMENT:
    Binary operations align cells by coordinate VALUE on every shared axis.
    The result spans the union of both coordinate sets; positions present in
    only one operand come out as the unknown sentinel (NaN), never as an
    exception and never reindexed by position.

  BROADCASTING:
    An operand missing one or more of the other operand's axes is repeated
    along them (a per-Year factor multiplies every Item the same way).

  ELEMENT PAIRING:
    A single-element operand applies to every element of the other operand.
    Two multi-element operands must carry identical element sets and are
    matched by name.

  REDUCTIONS:
    SumOver collapses one axis, skipping unknown cells; a run with no known
    cell reduces to zero.

SEE ALSO:
  - types.go: Table internals and the unknown sentinel
*/
package cube

import "math"

// =============================================================================
// BINARY OPERATIONS
// =============================================================================

// Add returns t + o with outer-join alignment and broadcasting.
func (t *Table) Add(o *Table) (*Table, error) {
	return combine(t, o, func(x, y float64) float64 { return x + y })
}

// Sub returns t - o.
func (t *Table) Sub(o *Table) (*Table, error) {
	return combine(t, o, func(x, y float64) float64 { return x - y })
}

// Mul returns t * o.
func (t *Table) Mul(o *Table) (*Table, error) {
	return combine(t, o, func(x, y float64) float64 { return x * y })
}

// Div returns t / o. Division follows IEEE float semantics: x/0 is ±Inf and
// 0/0 is the unknown sentinel.
func (t *Table) Div(o *Table) (*Table, error) {
	return combine(t, o, func(x, y float64) float64 { return x / y })
}

// =============================================================================
// SCALAR AND POINTWISE OPERATIONS
// =============================================================================

// MapValues applies fn to every cell of every element.
func (t *Table) MapValues(fn func(float64) float64) *Table {
	out := t.Clone()
	for _, vals := range out.elems {
		for i, v := range vals {
			vals[i] = fn(v)
		}
	}
	return out
}

// AddScalar returns t with f added to every cell.
func (t *Table) AddScalar(f float64) *Table {
	return t.MapValues(func(v float64) float64 { return v + f })
}

// MulScalar returns t with every cell multiplied by f.
func (t *Table) MulScalar(f float64) *Table {
	return t.MapValues(func(v float64) float64 { return v * f })
}

// FillNA replaces every unknown cell with v.
func (t *Table) FillNA(v float64) *Table {
	return t.MapValues(func(x float64) float64 {
		if math.IsNaN(x) {
			return v
		}
		return x
	})
}

// =============================================================================
// REDUCTIONS
// =============================================================================

// SumOver collapses the named axis by summation. Unknown cells are skipped;
// a run with no known cell sums to zero.
func (t *Table) SumOver(axis string) (*Table, error) {
	ai := t.axisPos(axis)
	if ai < 0 {
		return nil, &AxisError{Axis: axis}
	}

	out := &Table{elems: make(map[string][]float64, len(t.elems))}
	for i, a := range t.axes {
		if i != ai {
			out.axes = append(out.axes, a.clone())
		}
	}
	out.order = append([]string(nil), t.order...)

	srcStrides := t.strides()
	axisLen := len(t.axes[ai].coords)
	for name, vals := range t.elems {
		dst := make([]float64, out.size())
		odo := make([]int, len(out.axes))
		for flat := range dst {
			sum := 0.0
			for p := 0; p < axisLen; p++ {
				srcIdx := p * srcStrides[ai]
				oi := 0
				for i := range t.axes {
					if i == ai {
						continue
					}
					srcIdx += odo[oi] * srcStrides[i]
					oi++
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

// =============================================================================
// ALIGNMENT ENGINE
// =============================================================================

// pairing resolves which element of each operand feeds each result element.
type pairing struct {
	name  string
	left  string
	right string
}

func pairElements(a, b *Table) ([]pairing, error) {
	switch {
	case len(a.order) == 1 && len(b.order) == 1:
		return []pairing{{name: a.order[0], left: a.order[0], right: b.order[0]}}, nil
	case len(b.order) == 1:
		out := make([]pairing, len(a.order))
		for i, name := range a.order {
			out[i] = pairing{name: name, left: name, right: b.order[0]}
		}
		return out, nil
	case len(a.order) == 1:
		out := make([]pairing, len(b.order))
		for i, name := range b.order {
			out[i] = pairing{name: name, left: a.order[0], right: name}
		}
		return out, nil
	default:
		if len(a.order) != len(b.order) {
			return nil, ErrElementMismatch
		}
		out := make([]pairing, len(a.order))
		for i, name := range a.order {
			if !b.HasElement(name) {
				return nil, ErrElementMismatch
			}
			out[i] = pairing{name: name, left: name, right: name}
		}
		return out, nil
	}
}

// operandView maps result cell positions back into one operand.
type operandView struct {
	// Per result axis: result coordinate position -> operand position, -1
	// when the coordinate is absent from the operand. nil means the operand
	// lacks the axis entirely (broadcast).
	maps    [][]int
	strides []int // operand stride per result axis (0 when broadcast)
}

func viewFor(x *Table, axes []*Axis) operandView {
	v := operandView{
		maps:    make([][]int, len(axes)),
		strides: make([]int, len(axes)),
	}
	xStrides := x.strides()
	for i, ra := range axes {
		xi := x.axisPos(ra.name)
		if xi < 0 {
			continue // broadcast
		}
		m := make([]int, len(ra.coords))
		for p, c := range ra.coords {
			if xp, ok := x.axes[xi].index[c]; ok {
				m[p] = xp
			} else {
				m[p] = -1
			}
		}
		v.maps[i] = m
		v.strides[i] = xStrides[xi]
	}
	return v
}

func (v operandView) value(vals []float64, odo []int) float64 {
	idx := 0
	for i, m := range v.maps {
		if m == nil {
			continue
		}
		p := m[odo[i]]
		if p < 0 {
			return math.NaN()
		}
		idx += p * v.strides[i]
	}
	return vals[idx]
}

func combine(a, b *Table, op func(x, y float64) float64) (*Table, error) {
	pairs, err := pairElements(a, b)
	if err != nil {
		return nil, err
	}

	// Result axes: a's axes (coords unioned with b's on shared axes, a's
	// order first), then b-only axes.
	var axes []*Axis
	for _, aa := range a.axes {
		coords := aa.Coords()
		extended := false
		if bi := b.axisPos(aa.name); bi >= 0 {
			for _, c := range b.axes[bi].coords {
				if !aa.Has(c) {
					coords = append(coords, c)
					extended = true
				}
			}
		}
		na, err := NewAxis(aa.name, coords...)
		if err != nil {
			return nil, err
		}
		if !extended && aa.labels != nil {
			na.labels = make(map[string][]Coord, len(aa.labels))
			for k, vals := range aa.labels {
				na.labels[k] = append([]Coord(nil), vals...)
			}
		}
		axes = append(axes, na.clone())
	}
	for _, ba := range b.axes {
		if a.axisPos(ba.name) < 0 {
			axes = append(axes, ba.clone())
		}
	}

	out := &Table{axes: axes, elems: make(map[string][]float64, len(pairs))}
	av := viewFor(a, axes)
	bv := viewFor(b, axes)
	n := out.size()
	for _, pr := range pairs {
		leftVals := a.elems[pr.left]
		rightVals := b.elems[pr.right]
		dst := make([]float64, n)
		odo := make([]int, len(axes))
		for flat := range dst {
			dst[flat] = op(av.value(leftVals, odo), bv.value(rightVals, odo))
			advance(odo, axes)
		}
		out.order = append(out.order, pr.name)
		out.elems[pr.name] = dst
	}
	return out, nil
}
