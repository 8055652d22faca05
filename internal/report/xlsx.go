package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Assessment"

// XLSX renders the report as a single-sheet workbook.
func XLSX(d Data) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	row := 1
	if err := setRow(f, row, "Stroke Risk Assessment Report", "", titleStyle); err != nil {
		return nil, err
	}
	row++
	if err := setRow(f, row, "Generated", d.GeneratedAt.Format("2006-01-02 15:04:05"), 0); err != nil {
		return nil, err
	}
	row += 2

	for _, s := range sections(d) {
		if err := setRow(f, row, s.title, "", headerStyle); err != nil {
			return nil, err
		}
		row++
		for _, r := range s.rows {
			if err := setRow(f, row, r[0], r[1], 0); err != nil {
				return nil, err
			}
			row++
		}
		for _, l := range s.lines {
			if err := setRow(f, row, "", l, 0); err != nil {
				return nil, err
			}
			row++
		}
		row++
	}
	if err := setRow(f, row, "Disclaimer", Disclaimer, 0); err != nil {
		return nil, err
	}

	if err := f.SetColWidth(sheetName, "A", "A", 28); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(sheetName, "B", "B", 90); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, label, value string, style int) error {
	a, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	b, err := excelize.CoordinatesToCellName(2, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheetName, a, label); err != nil {
		return fmt.Errorf("set cell %s: %w", a, err)
	}
	if value != "" {
		if err := f.SetCellValue(sheetName, b, value); err != nil {
			return fmt.Errorf("set cell %s: %w", b, err)
		}
	}
	if style != 0 {
		if err := f.SetCellStyle(sheetName, a, b, style); err != nil {
			return fmt.Errorf("set style %s: %w", a, err)
		}
	}
	return nil
}
