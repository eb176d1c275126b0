// =============================================================================
// Suenlace Generator - Spreadsheet Row Extractor
// =============================================================================
//
// This module reads the data rows of an .xlsx workbook and binds them to the
// semantic names of a template mapping:
//
//   mapping:
//     first_row: 2                 # 1-based first data row
//     ignore_cond: "F=ANULADA"     # skip rows whose column F equals ANULADA
//     generic_account_cond: "G=X"  # post these rows to the generic account
//     columns:
//       Fecha: A
//       Concepto: B
//       Importe: D
//
// Cells are read raw (no number formats applied), so amounts keep their
// full precision and date cells arrive as Excel serial numbers, which are
// converted to YYYY-MM-DD for the date keys.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ginjaninja78/suenlace/internal/logger"
	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/types"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// EXTRACTION
// =============================================================================

// Extract opens the workbook at path and returns the mapped rows of sheet.
// An empty sheet name selects the first sheet.
//
// Errors:
//   - ErrIO when the workbook cannot be opened or read
//   - ErrMappingMissing when the sheet does not exist or a column letter is malformed
func Extract(path, sheet string, m models.Mapping) ([]types.Row, error) {
	plan, err := Compile(m)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, types.NewError("open workbook", types.ErrIO, err.Error())
	}
	defer f.Close()

	return ExtractFile(f, sheet, plan)
}

// ExtractFile reads rows from an already opened workbook.
func ExtractFile(f *excelize.File, sheet string, plan *Plan) ([]types.Row, error) {
	name, err := resolveSheet(f, sheet)
	if err != nil {
		return nil, err
	}

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, types.NewError("read sheet", types.ErrIO, fmt.Sprintf("%s: %v", name, err))
	}

	lines := make([]int, 0, len(raw))
	cells := make([][]string, 0, len(raw))
	for i, row := range raw {
		// Empty rows carry nothing for any mapping.
		if isRowEmpty(row) {
			continue
		}
		lines = append(lines, i+1)
		cells = append(cells, row)
	}

	rows := plan.Apply(lines, cells)
	log := logger.WithComponent("xlsxparser")
	log.Debug().
		Str("sheet", name).
		Int("raw_rows", len(raw)).
		Int("rows", len(rows)).
		Msg("sheet extracted")
	return rows, nil
}

// SheetNames lists the sheets of the workbook at path.
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, types.NewError("open workbook", types.ErrIO, err.Error())
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func resolveSheet(f *excelize.File, sheet string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", types.NewError("resolve sheet", types.ErrIO, "workbook has no sheets")
	}
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		return sheets[0], nil
	}
	if !slices.Contains(sheets, sheet) {
		return "", types.NewError("resolve sheet", types.ErrMappingMissing,
			fmt.Sprintf("sheet %q not found (have %s)", sheet, strings.Join(sheets, ", ")))
	}
	return sheet, nil
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
