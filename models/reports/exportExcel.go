package reports

import (
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

// ExportExcel writes series as one row per budget: name, one column per
// bucket label and a Total column. Labels are taken from the first series.
func ExportExcel(w io.Writer, title string, series []BudgetSeries) error {
	f := excelize.NewFile()
	defer f.Close()

	labels := make([]string, 0)
	if len(series) > 0 {
		for _, a := range series[0].Amounts {
			labels = append(labels, a.Label)
		}
	}

	row := 1
	if title != "" {
		if err := setCell(f, 1, row, title); err != nil {
			return err
		}
		row++
	}

	// Add headers
	headings := append([]string{"Budget"}, labels...)
	headings = append(headings, "Total")
	for i, h := range headings {
		if err := setCell(f, i+1, row, h); err != nil {
			return err
		}
	}
	row++

	// Add data
	for _, s := range series {
		if err := setCell(f, 1, row, s.Budget.Name); err != nil {
			return err
		}
		for i, label := range labels {
			if err := setCell(f, i+2, row, s.AmountFor(label).InexactFloat64()); err != nil {
				return err
			}
		}
		if err := setCell(f, len(labels)+2, row, s.Total().InexactFloat64()); err != nil {
			return err
		}
		row++
	}

	if len(series) > 0 {
		if err := setCell(f, 1, row, "Total"); err != nil {
			return err
		}
		if err := setCell(f, len(labels)+2, row, SeriesTotal(series).InexactFloat64()); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func setCell(f *excelize.File, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheetName, cell, value)
}
