package enrich

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// readXLSX reads the first sheet of an XLSX workbook as a header row plus
// data rows.
func readXLSX(path string) ([]string, [][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrapf(ErrFormat, "open side table %s: %v", path, err)
	}
	if len(f.Sheets) == 0 {
		return nil, nil, eris.Wrapf(ErrFormat, "workbook %s has no sheets", path)
	}
	sheet := f.Sheets[0]

	var header []string
	var rows [][]string
	for i, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if i == 0 {
			header = cells
			continue
		}
		rows = append(rows, cells)
	}
	if header == nil {
		return nil, nil, eris.Wrapf(ErrFormat, "workbook %s has no header row", path)
	}
	return header, rows, nil
}
