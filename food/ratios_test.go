package food_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arable/foodbalance/cube"
	"github.com/arable/foodbalance/food"
)

func ratioAt(t *testing.T, tab *cube.Table, element string, year int) float64 {
	t.Helper()
	v, err := tab.Value(element, map[string]cube.Coord{food.AxisYear: cube.Year(year)})
	require.NoError(t, err)
	return v
}

func TestSSRAggregate(t *testing.T) {
	// 2020: 22 / (22 + 6 - 3) = 0.88    2021: 30 / 37
	sheet := newTestSheet(t)

	got, err := sheet.SSR(food.RatioOptions{})
	require.NoError(t, err)

	assert.False(t, got.HasAxis(food.AxisItem))
	assert.InDelta(t, 0.88, ratioAt(t, got, "ssr", 2020), 1e-9)
	assert.InDelta(t, 30.0/37.0, ratioAt(t, got, "ssr", 2021), 1e-9)
}

func TestIDRAggregate(t *testing.T) {
	sheet := newTestSheet(t)

	got, err := sheet.IDR(food.RatioOptions{})
	require.NoError(t, err)

	assert.InDelta(t, 0.24, ratioAt(t, got, "idr", 2020), 1e-9)
	assert.InDelta(t, 14.0/37.0, ratioAt(t, got, "idr", 2021), 1e-9)
}

func TestSSRPerItem(t *testing.T) {
	sheet := newTestSheet(t)

	got, err := sheet.SSR(food.RatioOptions{PerItem: true})
	require.NoError(t, err)
	require.True(t, got.HasAxis(food.AxisItem))

	at := func(item string, year int) float64 {
		v, err := got.Value("ssr", map[string]cube.Coord{
			food.AxisItem: cube.Coord(item),
			food.AxisYear: cube.Year(year),
		})
		require.NoError(t, err)
		return v
	}
	assert.InDelta(t, 10.0/11.0, at("Beef", 2020), 1e-9)
	assert.InDelta(t, 14.0/17.0, at("Beef", 2021), 1e-9)
	assert.InDelta(t, 12.0/14.0, at("Apples", 2020), 1e-9)
	assert.InDelta(t, 0.8, at("Apples", 2021), 1e-9)
}

func TestSSRItemSubset(t *testing.T) {
	sheet := newTestSheet(t)

	got, err := sheet.SSR(food.RatioOptions{Items: []cube.Coord{"Beef"}})
	require.NoError(t, err)

	// Only beef contributes to the totals.
	assert.InDelta(t, 10.0/11.0, ratioAt(t, got, "ssr", 2020), 1e-9)

	_, err = sheet.SSR(food.RatioOptions{Items: []cube.Coord{"Tofu"}})
	require.ErrorIs(t, err, cube.ErrCoordNotFound)
}

func TestAuditBalancedSheet(t *testing.T) {
	sheet := newTestSheet(t)

	rep, err := sheet.Audit(food.AuditOptions{})
	require.NoError(t, err)

	assert.True(t, rep.Balanced)
	assert.Equal(t, 4, rep.Checked)
	assert.Empty(t, rep.Residuals)
	assert.Equal(t, "62", rep.TotalSupply.String())
	assert.Equal(t, "62", rep.TotalUse.String())
}

func TestAuditFlagsResidualCells(t *testing.T) {
	// GIVEN: a sheet whose beef 2020 consumption exceeds supply by one
	items := cube.MustAxis(food.AxisItem, "Beef", "Apples")
	years := cube.MustAxis(food.AxisYear, cube.Years(2020, 2021)...)
	tab := cube.NewTable(items, years)
	require.NoError(t, tab.SetElement(food.ElemProduction, []float64{10, 14, 12, 16}))
	require.NoError(t, tab.SetElement(food.ElemImports, []float64{2, 6, 4, 8}))
	require.NoError(t, tab.SetElement(food.ElemExports, []float64{1, 3, 2, 4}))
	require.NoError(t, tab.SetElement(food.ElemFood, []float64{12, 17, 14, 20}))
	sheet, err := food.NewSheet(tab)
	require.NoError(t, err)

	rep, err := sheet.Audit(food.AuditOptions{})
	require.NoError(t, err)

	assert.False(t, rep.Balanced)
	require.Len(t, rep.Residuals, 1)
	r := rep.Residuals[0]
	assert.Equal(t, cube.Coord("Beef"), r.Coords[food.AxisItem])
	assert.Equal(t, cube.Year(2020), r.Coords[food.AxisYear])
	assert.Equal(t, "-1", r.Diff.String())
}

func TestAuditUnknownElement(t *testing.T) {
	sheet := newTestSheet(t)
	_, err := sheet.Audit(food.AuditOptions{
		Use: []food.Term{{Element: "feed"}},
	})
	require.ErrorIs(t, err, cube.ErrElementNotFound)
}
