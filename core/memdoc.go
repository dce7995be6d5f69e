package core

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"
)

// MemoryDocument is a Document kept as plain Go values. Each sheet's rows form an
// arena addressed by index (row n is rows[n-1]); InsertRows and RemoveRows splice
// the arena and move tables and defined names through shiftSpan.
type MemoryDocument struct {
	sheets []*memSheet
	names  []NamedRange
	props  DocProps
}

type memSheet struct {
	name       string
	rows       []memRow
	tables     []*TableRef
	colStyles  map[int]Style
	protection *SheetProtection
}

type memRow struct {
	cells map[int]interface{}
	style *Style
}

// NewMemoryDocument creates an empty document.
func NewMemoryDocument() *MemoryDocument {
	return &MemoryDocument{}
}

func (m *MemoryDocument) sheet(name string) (*memSheet, error) {
	for _, s := range m.sheets {
		if s.name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("sheet %s does not exist", name)
}

func (m *MemoryDocument) Close() error { return nil }

func (m *MemoryDocument) GetSheetList() []string {
	out := make([]string, len(m.sheets))
	for i, s := range m.sheets {
		out[i] = s.name
	}
	return out
}

func (m *MemoryDocument) NewSheet(name string) error {
	if _, err := m.sheet(name); err == nil {
		return fmt.Errorf("sheet %s already exists", name)
	}
	m.sheets = append(m.sheets, &memSheet{name: name, colStyles: map[int]Style{}})
	return nil
}

// AddTable registers a table region.
func (m *MemoryDocument) AddTable(t TableRef) error {
	s, err := m.sheet(t.Sheet)
	if err != nil {
		return err
	}
	if len(t.Columns) != t.EndCol-t.StartCol+1 {
		return fmt.Errorf("table %s: %d columns for a %d wide range", t.Name, len(t.Columns), t.EndCol-t.StartCol+1)
	}
	ref := t
	ref.Columns = append([]string(nil), t.Columns...)
	s.tables = append(s.tables, &ref)
	return nil
}

// SetDefinedName registers a defined name.
func (m *MemoryDocument) SetDefinedName(n NamedRange) error {
	if _, err := m.sheet(n.Sheet); err != nil {
		return err
	}
	m.names = append(m.names, n)
	return nil
}

func (m *MemoryDocument) GetDefinedNames() []NamedRange {
	return append([]NamedRange(nil), m.names...)
}

func (m *MemoryDocument) GetTables(sheet string) ([]TableRef, error) {
	s, err := m.sheet(sheet)
	if err != nil {
		return nil, err
	}
	out := make([]TableRef, len(s.tables))
	for i, t := range s.tables {
		out[i] = *t
	}
	return out, nil
}

// Protection returns the sheet's protection, nil when unprotected.
func (m *MemoryDocument) Protection(sheet string) *SheetProtection {
	s, err := m.sheet(sheet)
	if err != nil {
		return nil
	}
	return s.protection
}

// RowCount returns the number of rows in the sheet's arena.
func (m *MemoryDocument) RowCount(sheet string) int {
	s, err := m.sheet(sheet)
	if err != nil {
		return 0
	}
	return len(s.rows)
}

// RowStyle returns the style set on a row.
func (m *MemoryDocument) RowStyle(sheet string, row int) (Style, bool) {
	s, err := m.sheet(sheet)
	if err != nil || row < 1 || row > len(s.rows) || s.rows[row-1].style == nil {
		return Style{}, false
	}
	return *s.rows[row-1].style, true
}

// ColStyle returns the style set on a column (1-based).
func (m *MemoryDocument) ColStyle(sheet string, col int) (Style, bool) {
	s, err := m.sheet(sheet)
	if err != nil {
		return Style{}, false
	}
	st, ok := s.colStyles[col]
	return st, ok
}

// Props returns the document metadata.
func (m *MemoryDocument) Props() DocProps { return m.props }

// Value returns the raw value stored in a cell.
func (m *MemoryDocument) Value(sheet, cell string) interface{} {
	s, err := m.sheet(sheet)
	if err != nil {
		return nil
	}
	col, row, err := excelize.CellNameToCoordinates(cell)
	if err != nil || row > len(s.rows) {
		return nil
	}
	return s.rows[row-1].cells[col]
}

func (m *MemoryDocument) GetCellValue(sheet, cell string) (string, error) {
	s, err := m.sheet(sheet)
	if err != nil {
		return "", err
	}
	col, row, err := excelize.CellNameToCoordinates(cell)
	if err != nil {
		return "", err
	}
	if row > len(s.rows) {
		return "", nil
	}
	return toString(s.rows[row-1].cells[col]), nil
}

func (m *MemoryDocument) SetCellValue(sheet, cell string, value interface{}) error {
	s, err := m.sheet(sheet)
	if err != nil {
		return err
	}
	col, row, err := excelize.CellNameToCoordinates(cell)
	if err != nil {
		return err
	}
	s.grow(row)
	r := &s.rows[row-1]
	if r.cells == nil {
		r.cells = map[int]interface{}{}
	}
	if value == nil {
		delete(r.cells, col)
		return nil
	}
	r.cells[col] = value
	return nil
}

func (s *memSheet) grow(row int) {
	for len(s.rows) < row {
		s.rows = append(s.rows, memRow{})
	}
}

func (m *MemoryDocument) InsertRows(sheet string, row, rows int) error {
	s, err := m.sheet(sheet)
	if err != nil {
		return err
	}
	if row < 1 || rows < 1 {
		return fmt.Errorf("invalid row insertion at %d of %d rows", row, rows)
	}
	if row <= len(s.rows) {
		blank := make([]memRow, rows)
		s.rows = append(s.rows[:row-1], append(blank, s.rows[row-1:]...)...)
	}
	m.shift(s, row, rows)
	return nil
}

func (m *MemoryDocument) RemoveRows(sheet string, row, rows int) error {
	s, err := m.sheet(sheet)
	if err != nil {
		return err
	}
	if row < 1 || rows < 1 {
		return fmt.Errorf("invalid row removal at %d of %d rows", row, rows)
	}
	if row <= len(s.rows) {
		end := row - 1 + rows
		if end > len(s.rows) {
			end = len(s.rows)
		}
		s.rows = append(s.rows[:row-1], s.rows[end:]...)
	}
	m.shift(s, row, -rows)
	return nil
}

// shift adjusts every table and defined name on the sheet; regions that were
// removed entirely are dropped, and so are tables left with only a header row.
func (m *MemoryDocument) shift(s *memSheet, at, delta int) {
	tables := s.tables[:0]
	for _, t := range s.tables {
		start, end, ok := shiftSpan(t.StartRow, t.EndRow, at, delta)
		if !ok || (t.ShowHeader && start == end) {
			continue
		}
		t.StartRow, t.EndRow = start, end
		tables = append(tables, t)
	}
	s.tables = tables

	names := m.names[:0]
	for _, n := range m.names {
		if n.Sheet == s.name {
			start, end, ok := shiftSpan(n.StartRow, n.EndRow, at, delta)
			if !ok {
				continue
			}
			n.StartRow, n.EndRow = start, end
		}
		names = append(names, n)
	}
	m.names = names
}

func (m *MemoryDocument) ResizeTable(sheet, name string, startRow, endRow int) error {
	s, err := m.sheet(sheet)
	if err != nil {
		return err
	}
	if startRow < 1 || endRow < startRow {
		return fmt.Errorf("table %s: invalid rows %d..%d", name, startRow, endRow)
	}
	for _, t := range s.tables {
		if t.Name == name {
			t.StartRow, t.EndRow = startRow, endRow
			return nil
		}
	}
	return fmt.Errorf("table %s does not exist on %s", name, sheet)
}

func (m *MemoryDocument) SetRowStyle(sheet string, row int, style Style) error {
	s, err := m.sheet(sheet)
	if err != nil {
		return err
	}
	s.grow(row)
	st := style
	s.rows[row-1].style = &st
	return nil
}

func (m *MemoryDocument) SetColStyle(sheet, col string, style Style) error {
	s, err := m.sheet(sheet)
	if err != nil {
		return err
	}
	n, err := excelize.ColumnNameToNumber(col)
	if err != nil {
		return err
	}
	s.colStyles[n] = style
	return nil
}

func (m *MemoryDocument) ProtectSheet(sheet string, p SheetProtection) error {
	s, err := m.sheet(sheet)
	if err != nil {
		return err
	}
	prot := p
	s.protection = &prot
	return nil
}

func (m *MemoryDocument) SetDocProps(p DocProps) error {
	m.props = p
	return nil
}

// WriteTo serializes the document as an xlsx package through excelize.
func (m *MemoryDocument) WriteTo(w io.Writer) (int64, error) {
	out := NewExcelizeDocument()
	defer out.Close()

	if err := out.SetDocProps(m.props); err != nil {
		return 0, err
	}
	for _, s := range m.sheets {
		if err := out.NewSheet(s.name); err != nil {
			return 0, err
		}
		cols := make([]int, 0, len(s.colStyles))
		for c := range s.colStyles {
			cols = append(cols, c)
		}
		sort.Ints(cols)
		for _, c := range cols {
			name, _ := excelize.ColumnNumberToName(c)
			if err := out.SetColStyle(s.name, name, s.colStyles[c]); err != nil {
				return 0, err
			}
		}
		for i, r := range s.rows {
			keys := make([]int, 0, len(r.cells))
			for c := range r.cells {
				keys = append(keys, c)
			}
			sort.Ints(keys)
			for _, c := range keys {
				cell, _ := excelize.CoordinatesToCellName(c, i+1)
				if err := out.SetCellValue(s.name, cell, r.cells[c]); err != nil {
					return 0, err
				}
			}
			if r.style != nil {
				if err := out.SetRowStyle(s.name, i+1, *r.style); err != nil {
					return 0, err
				}
			}
		}
		for _, t := range s.tables {
			if err := out.addTable(s.name, excelize.Table{Name: t.Name}, t.StartCol, t.StartRow, t.EndCol, t.EndRow, t.ShowHeader); err != nil {
				return 0, err
			}
		}
		if s.protection != nil {
			if err := out.ProtectSheet(s.name, *s.protection); err != nil {
				return 0, err
			}
		}
	}
	for _, n := range m.names {
		ref := fmt.Sprintf("'%s'!%s", n.Sheet, absRef(n))
		if err := out.file.SetDefinedName(&excelize.DefinedName{Name: n.Name, RefersTo: ref}); err != nil {
			return 0, err
		}
	}
	return out.WriteTo(w)
}

func absRef(n NamedRange) string {
	start, _ := excelize.CoordinatesToCellName(n.StartCol, n.StartRow, true)
	if n.IsSingleCell() {
		return start
	}
	end, _ := excelize.CoordinatesToCellName(n.EndCol, n.EndRow, true)
	return start + ":" + end
}
