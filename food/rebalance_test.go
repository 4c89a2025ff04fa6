package food_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arable/foodbalance/cube"
	"github.com/arable/foodbalance/curve"
	"github.com/arable/foodbalance/food"
)

func TestRebalanceRoutesDeltaThroughOrigins(t *testing.T) {
	// GIVEN: beef consumption doubled, imports absorbing the delta
	sheet := newTestSheet(t)

	res, err := sheet.Rebalance(food.Options{
		Items:   []cube.Coord{"Beef"},
		Scale:   food.Uniform(2),
		Origins: []food.Origin{{Element: food.ElemImports}},
	})
	require.NoError(t, err)
	require.Empty(t, res.Warnings)

	// THEN: imports grew by the consumption delta and the identity holds
	got := res.Sheet
	assert.Equal(t, 22.0, val(t, got, food.ElemFood, "Beef", 2020))
	assert.Equal(t, 13.0, val(t, got, food.ElemImports, "Beef", 2020))
	assert.Equal(t, 4.0, val(t, got, food.ElemImports, "Apples", 2020))

	rep, err := got.Audit(food.AuditOptions{})
	require.NoError(t, err)
	assert.True(t, rep.Balanced)
}

func TestRebalanceClampsOriginIntoFallback(t *testing.T) {
	// GIVEN: beef consumption halved; the delta would push imports negative
	sheet := newTestSheet(t)

	res, err := sheet.Rebalance(food.Options{
		Items: []cube.Coord{"Beef"},
		Scale: food.Uniform(0.5),
		Origins: []food.Origin{{
			Element:  food.ElemImports,
			Fallback: &food.Fallback{Element: food.ElemExports, Subtract: true},
		}},
	})
	require.NoError(t, err)
	assert.Contains(t, warningCodes(res.Warnings), food.WarnOriginFallback)

	// THEN: imports floor at zero and the residual raises exports
	got := res.Sheet
	assert.Equal(t, 5.5, val(t, got, food.ElemFood, "Beef", 2020))
	assert.Equal(t, 0.0, val(t, got, food.ElemImports, "Beef", 2020))
	assert.Equal(t, 4.5, val(t, got, food.ElemExports, "Beef", 2020))
	assert.Equal(t, 0.0, val(t, got, food.ElemImports, "Beef", 2021))
	assert.Equal(t, 5.5, val(t, got, food.ElemExports, "Beef", 2021))

	// AND: untouched items keep their trade figures
	assert.Equal(t, 4.0, val(t, got, food.ElemImports, "Apples", 2020))

	// AND: the identity still holds cell by cell
	rep, err := got.Audit(food.AuditOptions{})
	require.NoError(t, err)
	assert.True(t, rep.Balanced)
}

func TestRebalanceHoldConstantPreservesTotals(t *testing.T) {
	// GIVEN: beef halved with total consumption held constant
	sheet := newTestSheet(t)

	res, err := sheet.Rebalance(food.Options{
		Items:        []cube.Coord{"Beef"},
		Scale:        food.Uniform(0.5),
		Origins:      []food.Origin{{Element: food.ElemImports}},
		HoldConstant: true,
	})
	require.NoError(t, err)

	got := res.Sheet

	// THEN: the non-selected item was counter-scaled
	assert.InDelta(t, 19.5, val(t, got, food.ElemFood, "Apples", 2020), 1e-9)
	assert.InDelta(t, 28.5, val(t, got, food.ElemFood, "Apples", 2021), 1e-9)

	// AND: the per-year food total is unchanged
	total, err := got.Table().SumOver(food.AxisItem)
	require.NoError(t, err)
	for year, want := range map[int]float64{2020: 25, 2021: 37} {
		v, err := total.Value(food.ElemFood, map[string]cube.Coord{food.AxisYear: cube.Year(year)})
		require.NoError(t, err)
		assert.InDelta(t, want, v, 1e-9)
	}

	// AND: the compensation delta flowed into the origin too
	assert.InDelta(t, 9.5, val(t, got, food.ElemImports, "Apples", 2020), 1e-9)
}

func TestRebalanceHoldConstantDisabledWhenAllItemsSelected(t *testing.T) {
	sheet := newTestSheet(t)

	res, err := sheet.Rebalance(food.Options{
		Scale:        food.Uniform(0.9),
		Origins:      []food.Origin{{Element: food.ElemImports}},
		HoldConstant: true,
	})
	require.NoError(t, err)
	assert.Contains(t, warningCodes(res.Warnings), food.WarnHoldConstantDisabled)

	// Every item was scaled; nothing was compensated.
	assert.InDelta(t, 9.9, val(t, res.Sheet, food.ElemFood, "Beef", 2020), 1e-9)
	assert.InDelta(t, 12.6, val(t, res.Sheet, food.ElemFood, "Apples", 2020), 1e-9)
}

func TestRebalanceNegativeCompensationPolicies(t *testing.T) {
	// GIVEN: beef tripled; compensation would drive apples negative
	sheet := newTestSheet(t)
	base := food.Options{
		Items:        []cube.Coord{"Beef"},
		Scale:        food.Uniform(3),
		Origins:      []food.Origin{{Element: food.ElemImports}},
		HoldConstant: true,
	}

	// Default policy: keep the negative factor and warn.
	res, err := sheet.Rebalance(base)
	require.NoError(t, err)
	assert.Contains(t, warningCodes(res.Warnings), food.WarnNegativeCompensation)
	assert.InDelta(t, -8, val(t, res.Sheet, food.ElemFood, "Apples", 2020), 1e-9)
	assert.InDelta(t, -14, val(t, res.Sheet, food.ElemFood, "Apples", 2021), 1e-9)

	// Clamp policy: floor the factor at zero and warn.
	base.Compensation = food.CompensationClampZero
	res, err = sheet.Rebalance(base)
	require.NoError(t, err)
	assert.Contains(t, warningCodes(res.Warnings), food.WarnNegativeCompensation)
	assert.Equal(t, 0.0, val(t, res.Sheet, food.ElemFood, "Apples", 2020))
}

func TestRebalanceSplitsDeltaByElasticity(t *testing.T) {
	// GIVEN: production takes a quarter of the delta, imports the rest
	sheet := newTestSheet(t)

	res, err := sheet.Rebalance(food.Options{
		Items: []cube.Coord{"Beef"},
		Scale: food.Uniform(2),
		Origins: []food.Origin{
			{Element: food.ElemProduction, Elasticity: 1},
			{Element: food.ElemImports, Elasticity: 3},
		},
	})
	require.NoError(t, err)

	got := res.Sheet
	assert.InDelta(t, 12.75, val(t, got, food.ElemProduction, "Beef", 2020), 1e-9)
	assert.InDelta(t, 10.25, val(t, got, food.ElemImports, "Beef", 2020), 1e-9)
	assert.InDelta(t, 18.25, val(t, got, food.ElemProduction, "Beef", 2021), 1e-9)
	assert.InDelta(t, 18.75, val(t, got, food.ElemImports, "Beef", 2021), 1e-9)
}

func TestRebalanceElasticityIsRelativeShare(t *testing.T) {
	// GIVEN: a lone origin whose elasticity does not sum to 1
	sheet := newTestSheet(t)

	res, err := sheet.Rebalance(food.Options{
		Items:   []cube.Coord{"Beef"},
		Scale:   food.Uniform(2),
		Origins: []food.Origin{{Element: food.ElemImports, Elasticity: 0.5}},
	})
	require.NoError(t, err)

	// THEN: the origin still absorbs the FULL delta; elasticities are
	// split ratios, not absolute multipliers, so nothing goes unbooked
	got := res.Sheet
	assert.Equal(t, 13.0, val(t, got, food.ElemImports, "Beef", 2020))
	assert.Equal(t, 23.0, val(t, got, food.ElemImports, "Beef", 2021))

	rep, err := got.Audit(food.AuditOptions{})
	require.NoError(t, err)
	assert.True(t, rep.Balanced)

	// AND: weights 0.5 and 1.5 split 25/75, same as 1 and 3 would
	res, err = sheet.Rebalance(food.Options{
		Items: []cube.Coord{"Beef"},
		Scale: food.Uniform(2),
		Origins: []food.Origin{
			{Element: food.ElemProduction, Elasticity: 0.5},
			{Element: food.ElemImports, Elasticity: 1.5},
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 12.75, val(t, res.Sheet, food.ElemProduction, "Beef", 2020), 1e-9)
	assert.InDelta(t, 10.25, val(t, res.Sheet, food.ElemImports, "Beef", 2020), 1e-9)
}

func TestRebalanceSubtractOrigin(t *testing.T) {
	// GIVEN: exports shrink when consumption grows
	sheet := newTestSheet(t)

	res, err := sheet.Rebalance(food.Options{
		Items:   []cube.Coord{"Beef"},
		Scale:   food.Uniform(1.5),
		Origins: []food.Origin{{Element: food.ElemExports, Subtract: true}},
	})
	require.NoError(t, err)

	// delta 2020 = +5.5; exports 1 - 5.5 = -4.5 (no fallback, stays
	// negative, but the result says so)
	assert.InDelta(t, -4.5, val(t, res.Sheet, food.ElemExports, "Beef", 2020), 1e-9)
	assert.Contains(t, warningCodes(res.Warnings), food.WarnOriginNegative)
}

func TestRebalanceValidation(t *testing.T) {
	sheet := newTestSheet(t)

	_, err := sheet.Rebalance(food.Options{Scale: food.Uniform(2)})
	require.ErrorIs(t, err, food.ErrNoOrigins)

	_, err = sheet.Rebalance(food.Options{
		Scale:   food.Uniform(2),
		Origins: []food.Origin{{Element: "feed"}},
	})
	require.ErrorIs(t, err, cube.ErrElementNotFound)

	_, err = sheet.Rebalance(food.Options{
		Origins: []food.Origin{{Element: food.ElemImports}},
	})
	require.ErrorIs(t, err, food.ErrScaleRequired)
}

func TestBalancedScalingStepCurve(t *testing.T) {
	// GIVEN: a collapsed transition window starting in 2021
	sheet := newTestSheet(t)

	res, err := sheet.BalancedScaling(food.BalancedOptions{
		Items:     []cube.Coord{"Beef"},
		Scale:     0.5,
		StartYear: 2021,
		Timescale: 0,
		Shape:     curve.ShapeLinear,
	})
	require.NoError(t, err)

	// THEN: 2020 is untouched and 2021 carries the full factor
	got := res.Sheet
	assert.Equal(t, 11.0, val(t, got, food.ElemFood, "Beef", 2020))
	assert.Equal(t, 8.5, val(t, got, food.ElemFood, "Beef", 2021))

	// AND: the default origin chain kicked in (imports with exports fallback)
	assert.Equal(t, 2.0, val(t, got, food.ElemImports, "Beef", 2020))
	assert.Equal(t, 0.0, val(t, got, food.ElemImports, "Beef", 2021))
	assert.Equal(t, 5.5, val(t, got, food.ElemExports, "Beef", 2021))
}
