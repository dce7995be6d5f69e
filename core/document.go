package core

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Document abstracts workbook operations to decouple the generation passes from excelize.
// Rows and columns are 1-based; cells are addressed by name ("B3").
type Document interface {
	Close() error
	GetSheetList() []string
	NewSheet(name string) error
	GetDefinedNames() []NamedRange
	GetTables(sheet string) ([]TableRef, error)
	GetCellValue(sheet, cell string) (string, error)
	SetCellValue(sheet, cell string, value interface{}) error
	InsertRows(sheet string, row, rows int) error
	RemoveRows(sheet string, row, rows int) error
	// ResizeTable moves the first and last row of a table, keeping its columns.
	ResizeTable(sheet, name string, startRow, endRow int) error
	SetRowStyle(sheet string, row int, style Style) error
	SetColStyle(sheet, col string, style Style) error
	ProtectSheet(sheet string, protection SheetProtection) error
	SetDocProps(props DocProps) error
	WriteTo(w io.Writer) (int64, error)
}

// NamedRange is a defined name resolved to a rectangle on one sheet.
type NamedRange struct {
	Name     string
	Sheet    string
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// IsSingleCell reports whether the range spans exactly one row and one column.
func (n NamedRange) IsSingleCell() bool {
	return n.StartCol == n.EndCol && n.StartRow == n.EndRow
}

// Cell returns the name of the top-left cell.
func (n NamedRange) Cell() string {
	cell, _ := excelize.CoordinatesToCellName(n.StartCol, n.StartRow)
	return cell
}

// TableRef is a structured table region.
type TableRef struct {
	Name       string
	Sheet      string
	StartCol   int
	StartRow   int
	EndCol     int
	EndRow     int
	ShowHeader bool
	Columns    []string
}

// Ref returns the range in A1:B2 notation.
func (t TableRef) Ref() string {
	start, _ := excelize.CoordinatesToCellName(t.StartCol, t.StartRow)
	end, _ := excelize.CoordinatesToCellName(t.EndCol, t.EndRow)
	return start + ":" + end
}

// Style is the subset of cell formatting the generator authors.
type Style struct {
	Bold   bool
	NumFmt string
}

// SheetProtection lists the actions still allowed on a protected sheet.
type SheetProtection struct {
	Password         string
	AllowSort        bool
	AllowFormatCells bool
	AllowFormatRows  bool
	AllowFormatCols  bool
	AllowAutoFilter  bool
}

// DocProps is the document metadata written on every generation.
type DocProps struct {
	Title    string
	Subject  string
	Comments string
	Author   string
	Keywords string
}

// shiftSpan moves the inclusive span [start, end] after rows were inserted
// (delta > 0) or removed (delta < 0) at row at:
//   - insert n at k: every bound >= k moves down by n.
//   - remove n at k: rows k..k+n-1 disappear; bounds below move up by n,
//     bounds inside the removed block collapse onto its edge.
//
// ok is false when the whole span was removed. Both documents move tables with
// it and drop a table left with nothing but its header row. MemoryDocument also
// moves defined names with it; ExcelizeDocument leaves those to excelize.
func shiftSpan(start, end, at, delta int) (newStart, newEnd int, ok bool) {
	if delta >= 0 {
		if start >= at {
			start += delta
		}
		if end >= at {
			end += delta
		}
		return start, end, true
	}

	n := -delta
	last := at + n - 1
	switch {
	case start > last:
		start -= n
	case start >= at:
		start = at
	}
	switch {
	case end > last:
		end -= n
	case end >= at:
		end = at - 1
	}
	if end < start {
		return start, end, false
	}
	return start, end, true
}

// parseRangeRef parses "A1:B3", "$A$1" or "Sheet!$A$1:$B$3" into coordinates.
func parseRangeRef(ref string) (sheet string, startCol, startRow, endCol, endRow int, err error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "=")
	if idx := strings.LastIndex(ref, "!"); idx >= 0 {
		sheet = ref[:idx]
		if len(sheet) >= 2 && sheet[0] == '\'' && sheet[len(sheet)-1] == '\'' {
			sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
		}
		ref = ref[idx+1:]
	}
	ref = strings.ReplaceAll(ref, "$", "")

	parts := strings.Split(ref, ":")
	startCol, startRow, err = excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return "", 0, 0, 0, 0, err
	}
	endCol, endRow = startCol, startRow
	if len(parts) == 2 {
		endCol, endRow, err = excelize.CellNameToCoordinates(parts[1])
		if err != nil {
			return "", 0, 0, 0, 0, err
		}
	}
	return sheet, startCol, startRow, endCol, endRow, nil
}
