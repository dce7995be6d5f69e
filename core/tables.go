package core

import (
	"fmt"
	"log/slog"
	"strings"

	"jaguar-gen/config"

	"github.com/xuri/excelize/v2"
)

const (
	// OptionalPrefix marks table columns that are neither required nor filled.
	OptionalPrefix = "_"

	protectionPassword = "HuchimIsAlive"

	missingColumnsMessage = "The query does not return every field the table requires. " +
		"Prefix optional columns with an underscore."
)

// ExpandTables fills every table on the first sheet with the dataset of the same
// name. Body rows are inserted one per data row at the first body row, pushing the
// template's sample rows (and everything below) down; the sample rows are removed
// afterwards. A dataset without rows leaves one blank body row, as a table cannot
// exist without one. Tables are processed in the order the document reports them,
// and each one's bounds are read again right before it is processed.
func ExpandTables(doc Document, data Datasets, opts config.Options) error {
	sheets := doc.GetSheetList()
	if len(sheets) == 0 {
		return nil
	}
	sheet := sheets[0]

	tables, err := doc.GetTables(sheet)
	if err != nil {
		return fmt.Errorf("list tables on %s: %w", sheet, err)
	}

	for _, t := range tables {
		current, ok, err := lookupTable(doc, sheet, t.Name)
		if err != nil {
			return err
		}
		if !ok {
			slog.Warn("Table disappeared before expansion", "table", t.Name)
			continue
		}
		if err := expandTable(doc, current, data.Find(current.Name), opts); err != nil {
			return fmt.Errorf("table %s: %w", current.Name, err)
		}
	}
	return nil
}

func lookupTable(doc Document, sheet, name string) (TableRef, bool, error) {
	tables, err := doc.GetTables(sheet)
	if err != nil {
		return TableRef{}, false, err
	}
	for _, t := range tables {
		if t.Name == name {
			return t, true, nil
		}
	}
	return TableRef{}, false, nil
}

func expandTable(doc Document, t TableRef, current *Dataset, opts config.Options) error {
	sheet := t.Sheet
	rowIndex := t.StartRow
	if t.ShowHeader {
		rowIndex++
	}
	colIndex := t.StartCol
	maxColIndex := t.EndCol
	// body rows in the template; equals end-start when the header is shown
	templateRowCount := t.EndRow - rowIndex + 1

	if opts.ReadOnly() {
		if err := doc.ProtectSheet(sheet, SheetProtection{
			Password:         protectionPassword,
			AllowSort:        true,
			AllowFormatCells: true,
			AllowFormatRows:  true,
			AllowFormatCols:  true,
			AllowAutoFilter:  true,
		}); err != nil {
			return err
		}
	}

	if current != nil {
		if missing := missingColumns(t.Columns, current); len(missing) > 0 {
			slog.Warn("Table requires columns the dataset lacks", "table", t.Name, "missing", missing)
			cell, _ := excelize.CoordinatesToCellName(colIndex, rowIndex)
			return doc.SetCellValue(sheet, cell, missingColumnsMessage)
		}

		for _, row := range current.Rows {
			if err := doc.InsertRows(sheet, rowIndex, 1); err != nil {
				return err
			}
			for offset, name := range t.Columns {
				if strings.HasPrefix(name, OptionalPrefix) {
					continue
				}
				column, _ := current.Column(name)
				raw, _ := row.Get(name)
				cell, _ := excelize.CoordinatesToCellName(colIndex+offset, rowIndex)
				if err := doc.SetCellValue(sheet, cell, cellValue(column, raw)); err != nil {
					return err
				}
			}
			rowIndex++
		}

		rows := current.GetRowCount()
		if !t.ShowHeader && rows > 0 {
			// the rows went in at the table's first row, which pushed the whole table down
			if err := doc.ResizeTable(sheet, t.Name, t.StartRow, t.EndRow+rows); err != nil {
				return err
			}
		}
		stale := templateRowCount
		if rows == 0 && stale > 0 {
			// a table keeps at least one body row; the first sample row is blanked instead
			if err := clearRow(doc, sheet, rowIndex, colIndex, maxColIndex); err != nil {
				return err
			}
			rowIndex++
			stale--
		}
		if stale > 0 {
			if err := doc.RemoveRows(sheet, rowIndex, stale); err != nil {
				return err
			}
		}
		slog.Debug("Table expanded", "table", t.Name, "rows", current.GetRowCount(), "templateRows", templateRowCount)
	} else {
		slog.Debug("Table has no dataset, leaving template rows", "table", t.Name)
	}

	if t.ShowHeader {
		for i := colIndex; i <= maxColIndex; i++ {
			cell, _ := excelize.CoordinatesToCellName(i, t.StartRow)
			name, err := doc.GetCellValue(sheet, cell)
			if err != nil {
				return err
			}
			alias := opts.ColumnAlias(name)
			if alias != "" && alias != name {
				if err := doc.SetCellValue(sheet, cell, alias); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func clearRow(doc Document, sheet string, row, fromCol, toCol int) error {
	for col := fromCol; col <= toCol; col++ {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		if err := doc.SetCellValue(sheet, cell, nil); err != nil {
			return err
		}
	}
	return nil
}

// missingColumns returns the required table columns the dataset does not provide.
func missingColumns(columns []string, data *Dataset) []string {
	var missing []string
	for _, name := range columns {
		if strings.HasPrefix(name, OptionalPrefix) {
			continue
		}
		if !data.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}
