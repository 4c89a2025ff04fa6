/*
Package scenario turns declarative YAML definitions into rebalance runs.

PURPOSE:
  A scenario is a named, shareable description of a consumption shift
  ("halve ruminant meat by 2050 along a logistic curve, compensate with
  plant proteins, absorb the delta through imports"). Definitions are
  plain YAML so analysts can version and exchange them without touching
  Go code.

DEFINITION FORMAT:

  id: ruminant-halving
  name: Ruminant halving
  element: food
  items: [Beef, Lamb]
  scale: 0.5
  start_year: 2025
  timescale: 25
  shape: logistic
  hold_constant: true
  origins:
    - element: imports
      fallback: {element: exports, subtract: true}

ADDING NEW PRESETS:
 1. Add a Definition to the presets slice
 2. Pick a unique id; it becomes the API identifier

SEE ALSO:
  - food/rebalance.go: the engine a definition drives
  - api: scenario listing and execution endpoints
*/
package scenario

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/arable/foodbalance/cube"
	"github.com/arable/foodbalance/curve"
	"github.com/arable/foodbalance/food"
)

// =============================================================================
// DEFINITION
// =============================================================================

// FallbackDef mirrors food.Fallback in YAML form.
type FallbackDef struct {
	Element  string `yaml:"element"`
	Subtract bool   `yaml:"subtract"`
}

// OriginDef mirrors food.Origin in YAML form.
type OriginDef struct {
	Element    string       `yaml:"element"`
	Subtract   bool         `yaml:"subtract"`
	Elasticity float64      `yaml:"elasticity"`
	Fallback   *FallbackDef `yaml:"fallback"`
}

// Definition is one declarative rebalance scenario.
type Definition struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Element      string      `yaml:"element"`
	Items        []string    `yaml:"items"`
	Scale        float64     `yaml:"scale"`
	StartYear    int         `yaml:"start_year"`
	Timescale    int         `yaml:"timescale"`
	Shape        string      `yaml:"shape"`
	HoldConstant bool        `yaml:"hold_constant"`
	Compensation string      `yaml:"compensation"`
	Origins      []OriginDef `yaml:"origins"`
}

// Parse decodes a single definition. Unknown fields are an error so typos
// in hand-written YAML fail loudly.
func Parse(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var d Definition
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decoding scenario: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseBytes is Parse over a byte slice.
func ParseBytes(b []byte) (*Definition, error) {
	return Parse(bytes.NewReader(b))
}

// Marshal renders the definition back to YAML.
func (d *Definition) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// Validate checks the fields that cannot wait until execution.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("scenario id is required")
	}
	if d.Scale == 0 {
		return fmt.Errorf("scenario %s: scale is required and cannot be 0", d.ID)
	}
	if d.Scale < 0 {
		return fmt.Errorf("scenario %s: scale must be positive, got %v", d.ID, d.Scale)
	}
	if d.StartYear == 0 {
		return fmt.Errorf("scenario %s: start_year is required", d.ID)
	}
	if d.Timescale < 0 {
		return fmt.Errorf("scenario %s: timescale cannot be negative", d.ID)
	}
	switch curve.Shape(d.Shape) {
	case curve.ShapeLinear, curve.ShapeLogistic, "":
	default:
		return fmt.Errorf("scenario %s: unknown shape %q", d.ID, d.Shape)
	}
	switch d.Compensation {
	case "", "allow_negative", "clamp_zero":
	default:
		return fmt.Errorf("scenario %s: unknown compensation policy %q", d.ID, d.Compensation)
	}
	for _, o := range d.Origins {
		if o.Element == "" {
			return fmt.Errorf("scenario %s: origin element is required", d.ID)
		}
		if o.Elasticity < 0 {
			return fmt.Errorf("scenario %s: origin %s: elasticity cannot be negative", d.ID, o.Element)
		}
		if o.Fallback != nil && o.Fallback.Element == "" {
			return fmt.Errorf("scenario %s: origin %s: fallback element is required", d.ID, o.Element)
		}
	}
	return nil
}

// Options translates the definition into engine options.
func (d *Definition) Options() (food.BalancedOptions, error) {
	if err := d.Validate(); err != nil {
		return food.BalancedOptions{}, err
	}
	var items []cube.Coord
	for _, it := range d.Items {
		items = append(items, cube.Coord(it))
	}
	var origins []food.Origin
	for _, o := range d.Origins {
		fo := food.Origin{
			Element:    o.Element,
			Subtract:   o.Subtract,
			Elasticity: o.Elasticity,
		}
		if o.Fallback != nil {
			fo.Fallback = &food.Fallback{
				Element:  o.Fallback.Element,
				Subtract: o.Fallback.Subtract,
			}
		}
		origins = append(origins, fo)
	}
	comp := food.CompensationAllowNegative
	if d.Compensation == "clamp_zero" {
		comp = food.CompensationClampZero
	}
	return food.BalancedOptions{
		Items:        items,
		Scale:        d.Scale,
		StartYear:    d.StartYear,
		Timescale:    d.Timescale,
		Shape:        curve.Shape(d.Shape),
		Element:      d.Element,
		Origins:      origins,
		HoldConstant: d.HoldConstant,
		Compensation: comp,
	}, nil
}

// Apply runs the scenario against a sheet.
func (d *Definition) Apply(s *food.Sheet) (*food.Result, error) {
	opt, err := d.Options()
	if err != nil {
		return nil, err
	}
	return s.BalancedScaling(opt)
}

// =============================================================================
// PRESETS
// =============================================================================

var presets = []Definition{
	{
		ID:           "ruminant-halving",
		Name:         "Ruminant halving",
		Description:  "Halve beef and lamb consumption by mid-century, plant proteins take up the slack, imports absorb the delta",
		Items:        []string{"Beef", "Lamb"},
		Scale:        0.5,
		StartYear:    2025,
		Timescale:    25,
		Shape:        "logistic",
		HoldConstant: true,
		Origins: []OriginDef{{
			Element:  food.ElemImports,
			Fallback: &FallbackDef{Element: food.ElemExports, Subtract: true},
		}},
	},
	{
		ID:          "dairy-reduction",
		Name:        "Dairy reduction",
		Description: "Reduce dairy consumption by 20% over a decade, delta absorbed by imports",
		Items:       []string{"Milk", "Cheese"},
		Scale:       0.8,
		StartYear:   2026,
		Timescale:   10,
		Shape:       "linear",
		Origins: []OriginDef{{
			Element:  food.ElemImports,
			Fallback: &FallbackDef{Element: food.ElemExports, Subtract: true},
		}},
	},
	{
		ID:          "fruit-veg-increase",
		Name:        "Fruit and vegetable increase",
		Description: "Grow fruit and vegetable consumption by 30%, split between domestic production and imports",
		Items:       []string{"Apples", "Vegetables"},
		Scale:       1.3,
		StartYear:   2025,
		Timescale:   15,
		Shape:       "logistic",
		Origins: []OriginDef{
			{Element: food.ElemProduction, Elasticity: 2},
			{Element: food.ElemImports, Elasticity: 1},
		},
	},
}

// Presets returns the built-in scenario definitions.
func Presets() []Definition {
	return append([]Definition(nil), presets...)
}

// Preset looks up a built-in definition by id.
func Preset(id string) (*Definition, bool) {
	for i := range presets {
		if presets[i].ID == id {
			d := presets[i]
			return &d, true
		}
	}
	return nil, false
}
