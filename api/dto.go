/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

UNKNOWN CELLS:
  JSON has no NaN, so unknown cells travel as null. Element values are
  pointer slices: nil entry = unknown cell.

SEE ALSO:
  - handlers.go: Uses these types
  - scenario: the YAML definition RunRequest can inline
*/
package api

import (
	"math"

	"github.com/arable/foodbalance/cube"
	"github.com/arable/foodbalance/dataset"
	"github.com/arable/foodbalance/food"
	"github.com/arable/foodbalance/scenario"
)

// =============================================================================
// TABLES AND SHEETS
// =============================================================================

// AxisDTO is one named axis with its coordinates in table order.
type AxisDTO struct {
	Name   string   `json:"name"`
	Coords []string `json:"coords"`
}

// TableDTO is the wire form of a cube: axes in order plus one row-major
// value slice per element. Null entries are unknown cells.
type TableDTO struct {
	Axes     []AxisDTO             `json:"axes"`
	Elements map[string][]*float64 `json:"elements"`
}

// DatasetDTO represents a dataset in API responses. Sheet is only
// populated on single-dataset reads.
type DatasetDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   string    `json:"created_at,omitempty"`
	Sheet       *TableDTO `json:"sheet,omitempty"`
}

// CreateDatasetRequest carries a sheet in long format: the coordinate
// slices are parallel to each element's value slice.
type CreateDatasetRequest struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Items       []string             `json:"items"`
	Years       []int                `json:"years"`
	Regions     []string             `json:"regions,omitempty"`
	Elements    map[string][]float64 `json:"elements"`
}

// =============================================================================
// RUNS AND SCENARIOS
// =============================================================================

// ScenarioDTO represents a scenario definition in API responses.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Definition  string `json:"definition"`
}

// RunRequest starts a scenario run against a dataset: either the id of a
// preset scenario or an inline YAML definition.
type RunRequest struct {
	RunID      string `json:"run_id"`
	ScenarioID string `json:"scenario_id,omitempty"`
	Definition string `json:"definition,omitempty"`
}

// WarningDTO is one engine warning.
type WarningDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RunDTO represents a scenario run. Result is only populated on
// single-run reads.
type RunDTO struct {
	ID         string       `json:"id"`
	DatasetID  string       `json:"dataset_id"`
	ScenarioID string       `json:"scenario_id,omitempty"`
	Definition string       `json:"definition,omitempty"`
	Warnings   []WarningDTO `json:"warnings"`
	CreatedAt  string       `json:"created_at,omitempty"`
	Result     *TableDTO    `json:"result,omitempty"`
}

// =============================================================================
// AUDIT
// =============================================================================

// ResidualDTO is one cell failing the supply=use identity.
type ResidualDTO struct {
	Coords map[string]string `json:"coords"`
	Supply string            `json:"supply"`
	Use    string            `json:"use"`
	Diff   string            `json:"diff"`
}

// AuditDTO summarizes an identity audit.
type AuditDTO struct {
	Checked     int           `json:"checked"`
	Balanced    bool          `json:"balanced"`
	TotalSupply string        `json:"total_supply"`
	TotalUse    string        `json:"total_use"`
	Residuals   []ResidualDTO `json:"residuals,omitempty"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toTableDTO(t *cube.Table) TableDTO {
	dto := TableDTO{Elements: make(map[string][]*float64)}
	for _, name := range t.Axes() {
		coords, _ := t.AxisCoords(name)
		strs := make([]string, len(coords))
		for i, c := range coords {
			strs[i] = string(c)
		}
		dto.Axes = append(dto.Axes, AxisDTO{Name: name, Coords: strs})
	}
	for _, element := range t.Elements() {
		vals, _ := t.ElementValues(element)
		out := make([]*float64, len(vals))
		for i, v := range vals {
			if math.IsNaN(v) {
				continue
			}
			v := v
			out[i] = &v
		}
		dto.Elements[element] = out
	}
	return dto
}

func toDatasetDTO(d dataset.Dataset, withSheet bool) DatasetDTO {
	dto := DatasetDTO{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
	}
	if !d.CreatedAt.IsZero() {
		dto.CreatedAt = d.CreatedAt.Format(timeFormat)
	}
	if withSheet && d.Sheet != nil {
		t := toTableDTO(d.Sheet.Table())
		dto.Sheet = &t
	}
	return dto
}

func toRunDTO(r dataset.Run, withResult bool) RunDTO {
	dto := RunDTO{
		ID:         r.ID,
		DatasetID:  r.DatasetID,
		ScenarioID: r.ScenarioID,
		Definition: r.Definition,
		Warnings:   toWarningDTOs(r.Warnings),
	}
	if !r.CreatedAt.IsZero() {
		dto.CreatedAt = r.CreatedAt.Format(timeFormat)
	}
	if withResult && r.Result != nil {
		t := toTableDTO(r.Result.Table())
		dto.Result = &t
	}
	return dto
}

func toWarningDTOs(ws []food.Warning) []WarningDTO {
	out := make([]WarningDTO, len(ws))
	for i, w := range ws {
		out[i] = WarningDTO{Code: string(w.Code), Message: w.Message}
	}
	return out
}

func toScenarioDTO(d scenario.Definition) ScenarioDTO {
	raw, _ := d.Marshal()
	return ScenarioDTO{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Definition:  string(raw),
	}
}

func toAuditDTO(rep *food.AuditReport) AuditDTO {
	dto := AuditDTO{
		Checked:     rep.Checked,
		Balanced:    rep.Balanced,
		TotalSupply: rep.TotalSupply.String(),
		TotalUse:    rep.TotalUse.String(),
	}
	for _, res := range rep.Residuals {
		coords := make(map[string]string, len(res.Coords))
		for axis, c := range res.Coords {
			coords[axis] = string(c)
		}
		dto.Residuals = append(dto.Residuals, ResidualDTO{
			Coords: coords,
			Supply: res.Supply.String(),
			Use:    res.Use.String(),
			Diff:   res.Diff.String(),
		})
	}
	return dto
}
