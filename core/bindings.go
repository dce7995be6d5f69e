package core

import (
	"fmt"
	"log/slog"
	"strings"
)

// BindDataCells resolves single-cell defined names of the form table.column to the
// value of that column in the first row of the named dataset. Unresolvable names
// receive a visible ##table.column##NotFound marker; names that do not split into
// exactly two parts are not bindings and are skipped.
func BindDataCells(doc Document, data Datasets) error {
	for _, name := range doc.GetDefinedNames() {
		if !strings.Contains(name.Name, ".") || !name.IsSingleCell() {
			continue
		}
		tableName, columnName, ok := splitBinding(name.Name)
		if !ok {
			continue
		}

		cell := name.Cell()
		var value interface{}
		table := data.FindWithColumn(tableName, columnName)
		switch {
		case table == nil:
			slog.Warn("Bound cell has no matching dataset", "name", name.Name)
			value = notFoundMarker(tableName, columnName)
		case table.GetRowCount() > 0:
			column, _ := table.Column(columnName)
			raw, _ := table.Rows[0].Get(columnName)
			value = cellValue(column, raw)
		}
		if err := doc.SetCellValue(name.Sheet, cell, value); err != nil {
			return fmt.Errorf("bind %s: %w", name.Name, err)
		}
	}
	return nil
}

func splitBinding(name string) (table, column string, ok bool) {
	var parts []string
	for _, p := range strings.Split(name, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func notFoundMarker(table, column string) string {
	return fmt.Sprintf("##%s.%s##NotFound", table, column)
}

// cellValue prepares a dataset value for writing into a cell of the given column.
func cellValue(c Column, v interface{}) interface{} {
	switch vv := v.(type) {
	case []byte:
		v = string(vv)
	}
	return ConvertValue(c.Type, v)
}
