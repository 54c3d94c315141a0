package pipeline

import (
	"github.com/google/uuid"

	"github.com/partsignal/content-audit/internal/audit"
)

// MatrixCell is one site's assessment of one field.
type MatrixCell struct {
	Score   audit.Score `json:"score,omitempty"`
	Value   string      `json:"value,omitempty"`
	Notes   string      `json:"notes,omitempty"`
	Blocked bool        `json:"blocked,omitempty"`
}

// MatrixRow is one rubric field across every audited site.
type MatrixRow struct {
	Field audit.FieldKey        `json:"field"`
	Label string                `json:"label"`
	Cells map[string]MatrixCell `json:"cells"`
}

// Matrix lays the current result set out field-by-site: shared fields
// first, then the distributor-only fields, in rubric order. A blocked site
// contributes a blocked cell to every row; a site missing a field
// contributes no cell.
func (o *Orchestrator) Matrix(id uuid.UUID) ([]MatrixRow, error) {
	session, err := o.session(id)
	if err != nil {
		return nil, err
	}
	results := session.orderedResults()
	if len(results) == 0 {
		return nil, validationErrorf("no audit results yet")
	}

	defs := make([]audit.FieldDef, 0, len(audit.SharedFields)+len(audit.DistributorOnlyFields))
	defs = append(defs, audit.SharedFields...)
	defs = append(defs, audit.DistributorOnlyFields...)

	rows := make([]MatrixRow, 0, len(defs))
	for _, def := range defs {
		row := MatrixRow{
			Field: def.Key,
			Label: def.Label,
			Cells: make(map[string]MatrixCell, len(results)),
		}
		for _, r := range results {
			if r.Blocked() {
				row.Cells[r.SiteName] = MatrixCell{Blocked: true}
				continue
			}
			fa, ok := r.Fields[def.Key]
			if !ok {
				continue
			}
			row.Cells[r.SiteName] = MatrixCell{
				Score: fa.Score,
				Value: fa.Value,
				Notes: fa.Notes,
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
