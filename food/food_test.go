package food_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arable/foodbalance/cube"
	"github.com/arable/foodbalance/food"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// newTestSheet builds a two-item, two-year sheet whose supply=use identity
// holds exactly:
//
//	          production  imports  exports  food
//	Beef      10 / 14      2 / 6    1 / 3   11 / 17   (2020 / 2021)
//	Apples    12 / 16      4 / 8    2 / 4   14 / 20
func newTestSheet(t *testing.T) *food.Sheet {
	t.Helper()
	items := cube.MustAxis(food.AxisItem, "Beef", "Apples")
	years := cube.MustAxis(food.AxisYear, cube.Years(2020, 2021)...)
	tab := cube.NewTable(items, years)
	require.NoError(t, tab.SetElement(food.ElemProduction, []float64{10, 14, 12, 16}))
	require.NoError(t, tab.SetElement(food.ElemImports, []float64{2, 6, 4, 8}))
	require.NoError(t, tab.SetElement(food.ElemExports, []float64{1, 3, 2, 4}))
	require.NoError(t, tab.SetElement(food.ElemFood, []float64{11, 17, 14, 20}))

	sheet, err := food.NewSheet(tab)
	require.NoError(t, err)
	return sheet
}

func val(t *testing.T, s *food.Sheet, element, item string, year int) float64 {
	t.Helper()
	v, err := s.Table().Value(element, map[string]cube.Coord{
		food.AxisItem: cube.Coord(item),
		food.AxisYear: cube.Year(year),
	})
	require.NoError(t, err)
	return v
}

func warningCodes(ws []food.Warning) []food.WarningCode {
	out := make([]food.WarningCode, len(ws))
	for i, w := range ws {
		out[i] = w.Code
	}
	return out
}

// =============================================================================
// SHEET CONSTRUCTION
// =============================================================================

func TestNewSheetValidatesRequiredElements(t *testing.T) {
	items := cube.MustAxis(food.AxisItem, "Beef")
	years := cube.MustAxis(food.AxisYear, "2020")
	tab := cube.NewTable(items, years)
	require.NoError(t, tab.SetElement(food.ElemProduction, []float64{1}))

	_, err := food.NewSheet(tab)
	require.ErrorIs(t, err, food.ErrMissingElements)

	var missing *food.MissingElementsError
	require.ErrorAs(t, err, &missing)
	assert.ElementsMatch(t, []string{food.ElemImports, food.ElemExports, food.ElemFood}, missing.Missing)
}

func TestNewSheetValidatesAxes(t *testing.T) {
	years := cube.MustAxis(food.AxisYear, "2020")
	tab := cube.NewTable(years)

	_, err := food.NewSheet(tab)
	require.ErrorIs(t, err, food.ErrMissingAxis)
}

func TestSupplyLongFormat(t *testing.T) {
	sheet, err := food.Supply(food.SupplyInput{
		Items: []cube.Coord{"Beef", "Beef", "Apples"},
		Years: []cube.Coord{"2020", "2021", "2020"},
		Elements: map[string][]float64{
			food.ElemProduction: {10, 14, 12},
			food.ElemImports:    {2, 6, 4},
			food.ElemExports:    {1, 3, 2},
			food.ElemFood:       {11, 17, 14},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 10.0, val(t, sheet, food.ElemProduction, "Beef", 2020))
	assert.Equal(t, 14.0, val(t, sheet, food.ElemFood, "Apples", 2020))

	// Apples has no 2021 observation: unknown, not zero.
	assert.True(t, math.IsNaN(val(t, sheet, food.ElemFood, "Apples", 2021)))
}

func TestSupplyRejectsRaggedInput(t *testing.T) {
	_, err := food.Supply(food.SupplyInput{
		Items: []cube.Coord{"Beef", "Apples"},
		Years: []cube.Coord{"2020"},
		Elements: map[string][]float64{
			food.ElemProduction: {1, 2},
			food.ElemImports:    {1, 2},
			food.ElemExports:    {1, 2},
			food.ElemFood:       {1, 2},
		},
	})
	require.ErrorIs(t, err, cube.ErrShapeMismatch)
}

func TestSupplyWithRegions(t *testing.T) {
	sheet, err := food.Supply(food.SupplyInput{
		Items:   []cube.Coord{"Beef", "Beef"},
		Years:   []cube.Coord{"2020", "2020"},
		Regions: []cube.Coord{"England", "Wales"},
		Elements: map[string][]float64{
			food.ElemProduction: {10, 3},
			food.ElemImports:    {2, 1},
			food.ElemExports:    {1, 0},
			food.ElemFood:       {11, 4},
		},
	})
	require.NoError(t, err)
	assert.True(t, sheet.Table().HasAxis(food.AxisRegion))
}

// =============================================================================
// AXIS EXTENSION
// =============================================================================

func TestAddItemsCopyFrom(t *testing.T) {
	sheet := newTestSheet(t)

	got, err := sheet.AddItems([]cube.Coord{"Tofu"}, []cube.Coord{"Beef"})
	require.NoError(t, err)

	assert.Equal(t, 10.0, val(t, got, food.ElemProduction, "Tofu", 2020))
	assert.Equal(t, 17.0, val(t, got, food.ElemFood, "Tofu", 2021))

	// The source sheet is untouched.
	assert.Len(t, sheet.Items(), 2)
}

func TestAddItemsRejectsExisting(t *testing.T) {
	sheet := newTestSheet(t)
	_, err := sheet.AddItems([]cube.Coord{"Beef"}, nil)
	require.ErrorIs(t, err, cube.ErrDuplicateCoord)
}

func TestAddYearsProjections(t *testing.T) {
	sheet := newTestSheet(t)

	got, err := sheet.AddYears(cube.Years(2022, 2023), cube.Constant())
	require.NoError(t, err)
	assert.Equal(t, 17.0, val(t, got, food.ElemFood, "Beef", 2023))

	got, err = sheet.AddYears([]cube.Coord{"2022"}, cube.Scaled(2))
	require.NoError(t, err)
	assert.Equal(t, 34.0, val(t, got, food.ElemFood, "Beef", 2022))

	got, err = sheet.AddYears([]cube.Coord{"2022"}, cube.Empty())
	require.NoError(t, err)
	assert.True(t, math.IsNaN(val(t, got, food.ElemFood, "Beef", 2022)))
}

func TestGroupSumByItemLabel(t *testing.T) {
	sheet := newTestSheet(t)
	labeled, err := sheet.WithItemLabel("Group", []cube.Coord{"Animal", "Plant"})
	require.NoError(t, err)

	got, err := labeled.GroupSum("Group", "")
	require.NoError(t, err)

	v, err := got.Value(food.ElemFood, map[string]cube.Coord{
		"Group": "Animal", food.AxisYear: "2020",
	})
	require.NoError(t, err)
	assert.Equal(t, 11.0, v)
}

// =============================================================================
// SCALING
// =============================================================================

func TestScaleElementUniform(t *testing.T) {
	sheet := newTestSheet(t)

	got, err := sheet.ScaleElement(food.ElemFood, []cube.Coord{"Beef"}, food.Uniform(0.5))
	require.NoError(t, err)

	assert.Equal(t, 5.5, val(t, got, food.ElemFood, "Beef", 2020))
	assert.Equal(t, 8.5, val(t, got, food.ElemFood, "Beef", 2021))
	assert.Equal(t, 14.0, val(t, got, food.ElemFood, "Apples", 2020))

	// Immutability of the receiver.
	assert.Equal(t, 11.0, val(t, sheet, food.ElemFood, "Beef", 2020))
}

func TestScaleElementYearSeries(t *testing.T) {
	sheet := newTestSheet(t)

	ya := cube.MustAxis(food.AxisYear, cube.Years(2020, 2021)...)
	series := cube.NewTable(ya)
	require.NoError(t, series.SetElement("scale", []float64{1, 2}))

	got, err := sheet.ScaleElement(food.ElemFood, nil, food.FromSeries(series))
	require.NoError(t, err)

	assert.Equal(t, 11.0, val(t, got, food.ElemFood, "Beef", 2020))
	assert.Equal(t, 34.0, val(t, got, food.ElemFood, "Beef", 2021))
	assert.Equal(t, 40.0, val(t, got, food.ElemFood, "Apples", 2021))
}

func TestScaleZeroValueIsRejected(t *testing.T) {
	sheet := newTestSheet(t)
	_, err := sheet.ScaleElement(food.ElemFood, nil, food.Scale{})
	require.ErrorIs(t, err, food.ErrScaleRequired)
}

func TestScaleElementUnknownItem(t *testing.T) {
	sheet := newTestSheet(t)
	_, err := sheet.ScaleElement(food.ElemFood, []cube.Coord{"Tofu"}, food.Uniform(2))
	require.ErrorIs(t, err, cube.ErrCoordNotFound)
}

func TestScaleAddKeepsIdentity(t *testing.T) {
	sheet := newTestSheet(t)

	got, err := sheet.ScaleAdd(food.ElemFood, []cube.Coord{"Beef"}, food.Uniform(2), food.ElemImports, false)
	require.NoError(t, err)

	// Consumption doubled; the delta landed on imports.
	assert.Equal(t, 22.0, val(t, got, food.ElemFood, "Beef", 2020))
	assert.Equal(t, 13.0, val(t, got, food.ElemImports, "Beef", 2020))
	assert.Equal(t, 23.0, val(t, got, food.ElemImports, "Beef", 2021))

	rep, err := got.Audit(food.AuditOptions{})
	require.NoError(t, err)
	assert.True(t, rep.Balanced)
}

func TestScaleAddSubtract(t *testing.T) {
	sheet := newTestSheet(t)

	got, err := sheet.ScaleAdd(food.ElemFood, []cube.Coord{"Beef"}, food.Uniform(2), food.ElemExports, true)
	require.NoError(t, err)

	// Exports move opposite to the consumption delta.
	assert.Equal(t, -10.0, val(t, got, food.ElemExports, "Beef", 2020))
	assert.Equal(t, 2.0, val(t, got, food.ElemExports, "Apples", 2020))
}
