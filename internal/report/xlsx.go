package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	records "agristack/internal/records/models"
)

// WriteXLSX writes one sheet named after the report title, with the same
// projection as the PDF. Numeric fields stay numeric.
func (r *Renderer) WriteXLSX(w io.Writer, doc Document) error {
	if len(doc.Records) == 0 {
		return errNoData()
	}
	cols := Columns(doc.Type, doc.Records[0])
	cells := r.cells()

	f := excelize.NewFile()
	defer f.Close()

	sheet := doc.Title()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.Header
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for n, rec := range doc.Records {
		fields := records.FieldMap(rec)
		row := make([]any, len(cols))
		for i, c := range cols {
			v := c.extract(rec, fields)
			switch v.(type) {
			case int, int64, float64:
				row[i] = v
			default:
				row[i] = cells.Format(c.Key, v)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", n+1, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(cols))
	if err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#28A745"}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", style); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	if err := f.AutoFilter(sheet, fmt.Sprintf("A1:%s%d", lastCol, len(doc.Records)+1), nil); err != nil {
		return err
	}
	return f.Write(w)
}
