package core

import (
	"fmt"
	"log/slog"
	"strconv"

	"jaguar-gen/config"

	"github.com/xuri/excelize/v2"
)

// DateFormat is the display format applied to date columns in free generation.
const DateFormat = "yyyy-mm-dd"

// PopulateWorkbook writes every dataset to a sheet of its own, in order. The first
// sheet takes the configured prefix as its name; later sheets append their position.
func PopulateWorkbook(doc Document, data Datasets, opts config.Options) error {
	prefix := opts.DefaultSheetName()
	header := opts.HeaderEnabled()

	for i, current := range data {
		name := prefix
		if i > 0 {
			name = prefix + strconv.Itoa(i+1)
		}
		if err := doc.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
		if err := writeSheet(doc, name, current, header); err != nil {
			return fmt.Errorf("sheet %s: %w", name, err)
		}
		slog.Debug("Sheet populated", "sheet", name, "dataset", current.Name, "rows", current.GetRowCount())
	}
	return nil
}

func writeSheet(doc Document, sheet string, current *Dataset, header bool) error {
	rowIndex := 1
	if header && len(current.Columns) > 0 {
		for i, column := range current.Columns {
			colName, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				return err
			}
			if err := doc.SetCellValue(sheet, colName+"1", column.Name); err != nil {
				return err
			}
			if column.Type == ColumnDate {
				if err := doc.SetColStyle(sheet, colName, Style{NumFmt: DateFormat}); err != nil {
					return err
				}
			}
		}
		if err := doc.SetRowStyle(sheet, 1, Style{Bold: true}); err != nil {
			return err
		}
		rowIndex++
	}

	for _, row := range current.Rows {
		for i, column := range current.Columns {
			cell, err := excelize.CoordinatesToCellName(i+1, rowIndex)
			if err != nil {
				return err
			}
			raw, _ := row.Get(column.Name)
			if err := doc.SetCellValue(sheet, cell, cellValue(column, raw)); err != nil {
				return err
			}
		}
		rowIndex++
	}
	return nil
}
