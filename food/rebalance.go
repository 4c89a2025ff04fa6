/*
rebalance.go - Balance-preserving consumption rescale engine

PURPOSE:
  Rebalance scales the consumption of selected items and redistributes the
  resulting quantity delta so the sheet stays coherent:

    1. Scale the target element of the selected items.
    2. Optionally hold total consumption constant by counter-scaling the
       non-selected items with a single per-year compensation factor.
    3. Book the combined delta into the origin elements (imports,
       production, ...) split by elasticity weight, with the sign each
       origin declares.
    4. Clamp origins that would go negative to zero and push the residual
       into their fallback element.

  Policy conditions (nothing left to compensate with, negative
  compensation factors, fallback engaged) do not fail the run; they are
  reported as warnings on the Result and the engine returns the
  best-effort sheet.

SEE ALSO:
  - scale.go: Scale and the element-scaling primitives
  - curve:    adoption-curve generation for BalancedScaling
*/
package food

import (
	"fmt"
	"math"

	"github.com/arable/foodbalance/cube"
	"github.com/arable/foodbalance/curve"
)

// =============================================================================
// OPTIONS
// =============================================================================

// CompensationPolicy governs what happens when holding total consumption
// constant would drive non-selected items negative.
type CompensationPolicy int

const (
	// CompensationAllowNegative keeps the computed factor even when it is
	// negative, and warns. The default.
	CompensationAllowNegative CompensationPolicy = iota

	// CompensationClampZero floors the factor at zero, and warns. The sheet
	// total is then not fully preserved.
	CompensationClampZero
)

// Fallback names the element that absorbs the residual when an origin is
// clamped at zero. Subtract books the residual with inverted sign.
type Fallback struct {
	Element  string
	Subtract bool
}

// Origin is one element absorbing part of the consumption delta.
// Elasticity is the relative share weight (zero means 1). Subtract books
// the delta with inverted sign: an origin that shrinks when consumption
// grows. Fallback, when set, catches the clamped residual.
type Origin struct {
	Element    string
	Subtract   bool
	Elasticity float64
	Fallback   *Fallback
}

func (o Origin) weight() float64 {
	if o.Elasticity == 0 {
		return 1
	}
	return o.Elasticity
}

// Options configures a Rebalance run.
type Options struct {
	// Element is the consumption element to scale; defaults to "food".
	Element string

	// Items selects which items are scaled. nil means all items.
	Items []cube.Coord

	// Scale is the multiplicative factor (required).
	Scale Scale

	// Origins receive the consumption delta, split by elasticity weight.
	// At least one is required.
	Origins []Origin

	// HoldConstant counter-scales the non-selected items so the per-year
	// total of Element is unchanged.
	HoldConstant bool

	// Compensation picks the negative-factor policy for HoldConstant.
	Compensation CompensationPolicy
}

// =============================================================================
// RESULT AND WARNINGS
// =============================================================================

// WarningCode identifies a policy condition the engine degraded through.
type WarningCode string

const (
	WarnHoldConstantDisabled WarningCode = "hold_constant_disabled"
	WarnNegativeCompensation WarningCode = "negative_compensation"
	WarnOriginFallback       WarningCode = "origin_fallback"
	WarnOriginNegative       WarningCode = "origin_negative"
)

// Warning is a non-fatal condition encountered during a run.
type Warning struct {
	Code    WarningCode
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", string(w.Code), w.Message)
}

// Result is the outcome of a rebalance run: the new sheet plus the policy
// warnings raised while producing it.
type Result struct {
	Sheet    *Sheet
	Warnings []Warning
}

func (r *Result) warnf(code WarningCode, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{Code: code, Message: fmt.Sprintf(format, args...)})
}

// =============================================================================
// ENGINE
// =============================================================================

// Rebalance runs the rescale engine. The receiver is untouched.
func (s *Sheet) Rebalance(opt Options) (*Result, error) {
	element := opt.Element
	if element == "" {
		element = ElemFood
	}
	if !s.tab.HasElement(element) {
		return nil, &cube.ElementError{Element: element}
	}
	if len(opt.Origins) == 0 {
		return nil, ErrNoOrigins
	}
	for _, o := range opt.Origins {
		if !s.tab.HasElement(o.Element) {
			return nil, &cube.ElementError{Element: o.Element}
		}
		if o.Fallback != nil && !s.tab.HasElement(o.Fallback.Element) {
			return nil, &cube.ElementError{Element: o.Fallback.Element}
		}
	}

	items := opt.Items
	if items == nil {
		items = s.Items()
	}
	selected := make(map[cube.Coord]bool, len(items))
	for _, c := range items {
		selected[c] = true
	}
	var nonSel []cube.Coord
	for _, c := range s.Items() {
		if !selected[c] {
			nonSel = append(nonSel, c)
		}
	}

	res := &Result{}
	holdConstant := opt.HoldConstant
	if holdConstant && len(nonSel) == 0 {
		holdConstant = false
		res.warnf(WarnHoldConstantDisabled,
			"every item is selected; no items remain to compensate with")
	}

	oldElem, err := s.tab.ElementTable(element)
	if err != nil {
		return nil, err
	}

	// Step 1: scale the selected items.
	scaled, err := s.ScaleElement(element, items, opt.Scale)
	if err != nil {
		return nil, err
	}
	scaledElem, err := scaled.tab.ElementTable(element)
	if err != nil {
		return nil, err
	}
	delta, err := scaledElem.FillNA(0).Sub(oldElem.FillNA(0))
	if err != nil {
		return nil, err
	}

	work := scaled.tab
	totalDelta := delta

	// Step 2: counter-scale the non-selected items.
	if holdConstant {
		nonSelOld, err := oldElem.Select(AxisItem, nonSel...)
		if err != nil {
			return nil, err
		}
		nonSelTotal, err := nonSelOld.FillNA(0).SumOver(AxisItem)
		if err != nil {
			return nil, err
		}
		deltaTotal, err := delta.SumOver(AxisItem)
		if err != nil {
			return nil, err
		}
		comp, err := nonSelTotal.Sub(deltaTotal)
		if err != nil {
			return nil, err
		}
		comp, err = comp.Div(nonSelTotal)
		if err != nil {
			return nil, err
		}

		if anyNegative(comp) {
			switch opt.Compensation {
			case CompensationClampZero:
				comp = comp.MapValues(func(v float64) float64 {
					if v < 0 {
						return 0
					}
					return v
				})
				res.warnf(WarnNegativeCompensation,
					"compensation factor clamped at zero; %s total is not preserved", element)
			default:
				res.warnf(WarnNegativeCompensation,
					"compensation drives non-selected %s negative", element)
			}
		}

		mask, err := s.itemMask(nonSel)
		if err != nil {
			return nil, err
		}
		compAdj, err := comp.AddScalar(-1).Mul(mask)
		if err != nil {
			return nil, err
		}
		newElem, err := scaledElem.Mul(compAdj.AddScalar(1))
		if err != nil {
			return nil, err
		}
		compDelta, err := newElem.FillNA(0).Sub(scaledElem.FillNA(0))
		if err != nil {
			return nil, err
		}
		totalDelta, err = delta.Add(compDelta)
		if err != nil {
			return nil, err
		}
		work, err = work.WithElement(element, newElem)
		if err != nil {
			return nil, err
		}
	}

	// Step 3: split the delta across origins by elasticity weight.
	norm := 0.0
	for _, o := range opt.Origins {
		norm += o.weight()
	}
	for _, o := range opt.Origins {
		originDelta := totalDelta.MulScalar(o.weight() / norm)
		cur, err := work.ElementTable(o.Element)
		if err != nil {
			return nil, err
		}
		var next *cube.Table
		if o.Subtract {
			next, err = cur.Sub(originDelta)
		} else {
			next, err = cur.Add(originDelta)
		}
		if err != nil {
			return nil, err
		}

		// Step 4: clamp negatives to zero, residual into the fallback.
		if o.Fallback != nil {
			residual := next.MapValues(func(v float64) float64 {
				if math.IsNaN(v) || v >= 0 {
					return 0
				}
				return v
			})
			if anyNegative(residual) {
				res.warnf(WarnOriginFallback,
					"%s clamped at zero; residual moved to %s", o.Element, o.Fallback.Element)
				next = next.MapValues(func(v float64) float64 {
					if v < 0 {
						return 0
					}
					return v
				})
				fb, err := work.ElementTable(o.Fallback.Element)
				if err != nil {
					return nil, err
				}
				if o.Fallback.Subtract {
					fb, err = fb.Sub(residual)
				} else {
					fb, err = fb.Add(residual)
				}
				if err != nil {
					return nil, err
				}
				work, err = work.WithElement(o.Fallback.Element, fb)
				if err != nil {
					return nil, err
				}
			}
		} else if anyNegative(next) {
			res.warnf(WarnOriginNegative,
				"%s driven negative with no fallback configured", o.Element)
		}
		work, err = work.WithElement(o.Element, next)
		if err != nil {
			return nil, err
		}
	}

	res.Sheet = s.wrap(work)
	return res, nil
}

func anyNegative(t *cube.Table) bool {
	for _, name := range t.Elements() {
		vals, err := t.ElementValues(name)
		if err != nil {
			continue
		}
		for _, v := range vals {
			if v < 0 {
				return true
			}
		}
	}
	return false
}

// =============================================================================
// BALANCED SCALING
// =============================================================================

// BalancedOptions configures the adoption-curve convenience wrapper.
type BalancedOptions struct {
	// Items to scale; nil means all.
	Items []cube.Coord

	// Scale is the factor reached at the end of the transition window.
	Scale float64

	// StartYear opens the transition window; Timescale is its length in
	// years (the window is [StartYear, StartYear+Timescale)).
	StartYear int
	Timescale int

	// Shape picks the adoption curve; the zero value is logistic.
	Shape curve.Shape

	// Element defaults to "food"; Origins default to imports with an
	// exports fallback.
	Element      string
	Origins      []Origin
	HoldConstant bool
	Compensation CompensationPolicy
}

// BalancedScaling scales consumption along an adoption curve spanning the
// sheet's year range, starting from factor 1 and reaching opt.Scale, then
// rebalances the delta through the origins.
func (s *Sheet) BalancedScaling(opt BalancedOptions) (*Result, error) {
	first, last, err := s.yearSpan()
	if err != nil {
		return nil, err
	}
	series, err := opt.Shape.Series(first, opt.StartYear, opt.StartYear+opt.Timescale, last, 1, opt.Scale)
	if err != nil {
		return nil, err
	}
	origins := opt.Origins
	if origins == nil {
		origins = []Origin{{
			Element:  ElemImports,
			Fallback: &Fallback{Element: ElemExports, Subtract: true},
		}}
	}
	return s.Rebalance(Options{
		Element:      opt.Element,
		Items:        opt.Items,
		Scale:        FromSeries(series),
		Origins:      origins,
		HoldConstant: opt.HoldConstant,
		Compensation: opt.Compensation,
	})
}
