package output

import (
	"fmt"
	"io"

	"github.com/iwvelando/setaside/internal/allocation"
	"github.com/xuri/excelize/v2"
)

const (
	allocationSheet = "Allocation"
	datesSheet      = "Installment Dates"
)

// XlsxFormat writes the report as a workbook with one sheet per part.
func XlsxFormat(w io.Writer, report Report) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := 0
	if report.Allocation != nil {
		if err := writeAllocationSheet(f, report); err != nil {
			return err
		}
		sheets++
	}
	if report.Series != nil {
		if _, err := f.NewSheet(datesSheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", datesSheet, err)
		}
		rows := [][]any{{"Value", "Label"}}
		for _, opt := range report.Series.Options {
			rows = append(rows, []any{opt.Value, opt.Label})
		}
		if err := writeRows(f, datesSheet, rows); err != nil {
			return err
		}
		sheets++
	}
	if sheets > 0 {
		// Drop the default sheet excelize creates.
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("delete default sheet: %w", err)
		}
		f.SetActiveSheet(0)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeAllocationSheet(f *excelize.File, report Report) error {
	if _, err := f.NewSheet(allocationSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", allocationSheet, err)
	}

	caps := report.Input.Capacities()
	rows := [][]any{{"Bucket", "Capacity", "Amount"}}
	for i, amount := range report.Allocation.Float64s() {
		var capacity any
		if i < len(caps) {
			capacity = caps[i].InexactFloat64()
		}
		rows = append(rows, []any{BucketLabel(allocation.Buckets[i]), capacity, amount})
	}
	rows = append(rows, []any{"Total", report.Input.CapacityTotal().InexactFloat64(), report.Allocation.Total().InexactFloat64()})

	if err := writeRows(f, allocationSheet, rows); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("create currency style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(3, len(rows))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(allocationSheet, "B2", last, style); err != nil {
		return fmt.Errorf("style amounts: %w", err)
	}
	return f.SetColWidth(allocationSheet, "A", "A", 36)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
