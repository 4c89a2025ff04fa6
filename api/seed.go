/*
seed.go - Demo dataset loader for testing and demonstrations

PURPOSE:
  Populates the database with a realistic national balance sheet so the
  API can be exercised without importing real data first. The sheet
  satisfies the supply=use identity exactly, so the audit endpoint reports
  balanced, and spans 2020-2050 so every preset scenario window fits.

NOTE:
  Seeding resets the database. Only use in development/demo environments.

USAGE VIA API:
  POST /api/admin/seed

SEE ALSO:
  - handlers.go: the endpoints this data feeds
  - scenario: the presets designed around these item names
*/
package api

import (
	"net/http"
	"time"

	"github.com/arable/foodbalance/cube"
	"github.com/arable/foodbalance/dataset"
	"github.com/arable/foodbalance/food"
)

// DemoDatasetID is the id the seeded dataset is stored under.
const DemoDatasetID = "uk-demo"

// demoItems are per-item base-year quantities (thousand tonnes):
// production, imports, exports. food is derived so the identity holds.
var demoItems = []struct {
	name       string
	production float64
	imports    float64
	exports    float64
}{
	{"Beef", 900, 300, 100},
	{"Lamb", 280, 70, 90},
	{"Milk", 15000, 1200, 800},
	{"Cheese", 470, 520, 180},
	{"Apples", 200, 450, 20},
	{"Vegetables", 2600, 2200, 150},
	{"Cereals", 22000, 7500, 3800},
}

// DemoSheet builds the demo balance sheet: base year 2020, carried
// forward unchanged to 2050.
func DemoSheet() (*food.Sheet, error) {
	in := food.SupplyInput{
		Elements: map[string][]float64{
			food.ElemProduction: {},
			food.ElemImports:    {},
			food.ElemExports:    {},
			food.ElemFood:       {},
		},
	}
	for _, it := range demoItems {
		in.Items = append(in.Items, cube.Coord(it.name))
		in.Years = append(in.Years, cube.Year(2020))
		in.Elements[food.ElemProduction] = append(in.Elements[food.ElemProduction], it.production)
		in.Elements[food.ElemImports] = append(in.Elements[food.ElemImports], it.imports)
		in.Elements[food.ElemExports] = append(in.Elements[food.ElemExports], it.exports)
		in.Elements[food.ElemFood] = append(in.Elements[food.ElemFood], it.production+it.imports-it.exports)
	}
	sheet, err := food.Supply(in)
	if err != nil {
		return nil, err
	}
	return sheet.AddYears(cube.Years(2021, 2050), cube.Constant())
}

// SeedDemo resets the database and loads the demo dataset.
// POST /api/admin/seed
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	sheet, err := DemoSheet()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build demo sheet", err)
		return
	}
	d := dataset.Dataset{
		ID:          DemoDatasetID,
		Name:        "UK demo balance sheet",
		Description: "Synthetic national balance sheet, 2020 base year carried to 2050",
		CreatedAt:   time.Now().UTC(),
		Sheet:       sheet,
	}
	if err := h.Store.SaveDataset(ctx, d); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save demo dataset", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "seeded", "dataset": DemoDatasetID})
}
