package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/xuri/excelize/v2"
)

// ExcelizeDocument implements Document on top of excelize.
type ExcelizeDocument struct {
	file *excelize.File
	// table name -> definition, read from the package's table parts
	parts  map[string]tablePart
	styles map[Style]int
	// a new workbook still carries excelize's default sheet, which the first NewSheet renames
	pristine bool
}

// NewExcelizeDocument creates an empty workbook.
func NewExcelizeDocument() *ExcelizeDocument {
	return &ExcelizeDocument{
		file:     excelize.NewFile(),
		parts:    map[string]tablePart{},
		styles:   map[Style]int{},
		pristine: true,
	}
}

// OpenExcelizeDocument opens a workbook from its serialized bytes.
func OpenExcelizeDocument(data []byte) (*ExcelizeDocument, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	parts, err := readTableParts(data)
	if err != nil {
		slog.Warn("Could not read table parts, falling back to header cells", "error", err)
		parts = map[string]tablePart{}
	}
	return &ExcelizeDocument{file: file, parts: parts, styles: map[Style]int{}}, nil
}

// openTemplate reads the template into memory so the file on disk is never written.
func openTemplate(path string) (*ExcelizeDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return OpenExcelizeDocument(data)
}

func (e *ExcelizeDocument) Close() error {
	return e.file.Close()
}

func (e *ExcelizeDocument) GetSheetList() []string {
	return e.file.GetSheetList()
}

func (e *ExcelizeDocument) NewSheet(name string) error {
	if e.pristine {
		e.pristine = false
		sheets := e.file.GetSheetList()
		if len(sheets) == 1 {
			return e.file.SetSheetName(sheets[0], name)
		}
	}
	_, err := e.file.NewSheet(name)
	return err
}

func (e *ExcelizeDocument) GetDefinedNames() []NamedRange {
	var out []NamedRange
	for _, dn := range e.file.GetDefinedName() {
		sheet, sc, sr, ec, er, err := parseRangeRef(dn.RefersTo)
		if err != nil || sheet == "" {
			// formulas, constants and #REF! targets are not cell bindings
			continue
		}
		out = append(out, NamedRange{
			Name:     dn.Name,
			Sheet:    sheet,
			StartCol: sc,
			StartRow: sr,
			EndCol:   ec,
			EndRow:   er,
		})
	}
	return out
}

func (e *ExcelizeDocument) GetTables(sheet string) ([]TableRef, error) {
	tables, err := e.file.GetTables(sheet)
	if err != nil {
		return nil, err
	}
	out := make([]TableRef, 0, len(tables))
	for _, t := range tables {
		_, sc, sr, ec, er, err := parseRangeRef(t.Range)
		if err != nil {
			return nil, fmt.Errorf("table %s: invalid range %q: %w", t.Name, t.Range, err)
		}
		ref := TableRef{
			Name:       t.Name,
			Sheet:      sheet,
			StartCol:   sc,
			StartRow:   sr,
			EndCol:     ec,
			EndRow:     er,
			ShowHeader: t.ShowHeaderRow == nil || *t.ShowHeaderRow,
		}
		part, known := e.parts[t.Name]
		if known {
			ref.ShowHeader = part.ShowHeader
		}
		if known && len(part.Columns) == ec-sc+1 {
			ref.Columns = part.Columns
		} else if ref.ShowHeader {
			for col := sc; col <= ec; col++ {
				cell, _ := excelize.CoordinatesToCellName(col, sr)
				v, err := e.file.GetCellValue(sheet, cell)
				if err != nil {
					return nil, err
				}
				ref.Columns = append(ref.Columns, v)
			}
		}
		out = append(out, ref)
	}
	return out, nil
}

func (e *ExcelizeDocument) GetCellValue(sheet, cell string) (string, error) {
	return e.file.GetCellValue(sheet, cell)
}

func (e *ExcelizeDocument) SetCellValue(sheet, cell string, value interface{}) error {
	return e.file.SetCellValue(sheet, cell, value)
}

func (e *ExcelizeDocument) InsertRows(sheet string, row, rows int) error {
	return e.shiftRows(sheet, row, rows, func() error {
		return e.file.InsertRows(sheet, row, rows)
	})
}

func (e *ExcelizeDocument) RemoveRows(sheet string, row, rows int) error {
	return e.shiftRows(sheet, row, -rows, func() error {
		for i := 0; i < rows; i++ {
			if err := e.file.RemoveRow(sheet, row); err != nil {
				return err
			}
		}
		return nil
	})
}

// shiftRows runs a row mutation with the sheet's tables detached and adds them
// back where shiftSpan puts them. excelize's own adjustment compares the row
// number with a table's first column when removing rows, drops tables left with
// a single row and rewrites the header cells of tables that have none.
func (e *ExcelizeDocument) shiftRows(sheet string, at, delta int, mutate func() error) error {
	tables, err := e.file.GetTables(sheet)
	if err != nil {
		return err
	}
	for _, t := range tables {
		if err := e.file.DeleteTable(t.Name); err != nil {
			return fmt.Errorf("table %s: %w", t.Name, err)
		}
	}

	errs := []error{mutate()}
	if errs[0] != nil {
		// put the tables back where they were
		at, delta = 0, 0
	}
	for _, t := range tables {
		_, sc, sr, ec, er, err := parseRangeRef(t.Range)
		if err != nil {
			errs = append(errs, fmt.Errorf("table %s: invalid range %q: %w", t.Name, t.Range, err))
			continue
		}
		header := e.showsHeader(t.Name)
		start, end, ok := shiftSpan(sr, er, at, delta)
		if !ok || (header && start == end) {
			slog.Warn("Table removed with its rows", "table", t.Name, "range", t.Range)
			continue
		}
		if err := e.addTable(sheet, t, sc, start, ec, end, header); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *ExcelizeDocument) ResizeTable(sheet, name string, startRow, endRow int) error {
	if startRow < 1 || endRow < startRow {
		return fmt.Errorf("table %s: invalid rows %d..%d", name, startRow, endRow)
	}
	tables, err := e.file.GetTables(sheet)
	if err != nil {
		return err
	}
	for _, t := range tables {
		if t.Name != name {
			continue
		}
		_, sc, _, ec, _, err := parseRangeRef(t.Range)
		if err != nil {
			return fmt.Errorf("table %s: invalid range %q: %w", t.Name, t.Range, err)
		}
		if err := e.file.DeleteTable(name); err != nil {
			return fmt.Errorf("table %s: %w", name, err)
		}
		return e.addTable(sheet, t, sc, startRow, ec, endRow, e.showsHeader(name))
	}
	return fmt.Errorf("table %s does not exist on %s", name, sheet)
}

func (e *ExcelizeDocument) showsHeader(name string) bool {
	if part, ok := e.parts[name]; ok {
		return part.ShowHeader
	}
	return true
}

// addTable recreates t over the given bounds with its style. excelize adds a table
// without a header row from a range that still includes the (hidden) row above.
func (e *ExcelizeDocument) addTable(sheet string, t excelize.Table, sc, sr, ec, er int, header bool) error {
	first := sr
	if !header {
		if sr == 1 {
			return fmt.Errorf("table %s: a table without header row cannot be placed on row 1", t.Name)
		}
		first = sr - 1
	}
	from, err := excelize.CoordinatesToCellName(sc, first)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(ec, er)
	if err != nil {
		return err
	}
	if err := e.file.AddTable(sheet, &excelize.Table{
		Range:             from + ":" + to,
		Name:              t.Name,
		StyleName:         t.StyleName,
		ShowColumnStripes: t.ShowColumnStripes,
		ShowFirstColumn:   t.ShowFirstColumn,
		ShowHeaderRow:     &header,
		ShowLastColumn:    t.ShowLastColumn,
		ShowRowStripes:    t.ShowRowStripes,
	}); err != nil {
		return fmt.Errorf("table %s: %w", t.Name, err)
	}
	if _, ok := e.parts[t.Name]; !ok {
		e.parts[t.Name] = tablePart{ShowHeader: header}
	}
	return nil
}

func (e *ExcelizeDocument) SetRowStyle(sheet string, row int, style Style) error {
	id, err := e.styleID(style)
	if err != nil {
		return err
	}
	return e.file.SetRowStyle(sheet, row, row, id)
}

func (e *ExcelizeDocument) SetColStyle(sheet, col string, style Style) error {
	id, err := e.styleID(style)
	if err != nil {
		return err
	}
	return e.file.SetColStyle(sheet, col, id)
}

func (e *ExcelizeDocument) styleID(style Style) (int, error) {
	if id, ok := e.styles[style]; ok {
		return id, nil
	}
	s := &excelize.Style{}
	if style.Bold {
		s.Font = &excelize.Font{Bold: true}
	}
	if style.NumFmt != "" {
		numFmt := style.NumFmt
		s.CustomNumFmt = &numFmt
	}
	id, err := e.file.NewStyle(s)
	if err != nil {
		return 0, err
	}
	e.styles[style] = id
	return id, nil
}

// ProtectSheet uses the legacy password hash: it carries no random salt, so the
// same input always serializes to the same bytes.
func (e *ExcelizeDocument) ProtectSheet(sheet string, p SheetProtection) error {
	return e.file.ProtectSheet(sheet, &excelize.SheetProtectionOptions{
		Password:            p.Password,
		Sort:                p.AllowSort,
		FormatCells:         p.AllowFormatCells,
		FormatRows:          p.AllowFormatRows,
		FormatColumns:       p.AllowFormatCols,
		AutoFilter:          p.AllowAutoFilter,
		SelectLockedCells:   true,
		SelectUnlockedCells: true,
	})
}

func (e *ExcelizeDocument) SetDocProps(p DocProps) error {
	return e.file.SetDocProps(&excelize.DocProperties{
		Title:       p.Title,
		Subject:     p.Subject,
		Description: p.Comments,
		Creator:     p.Author,
		Keywords:    p.Keywords,
	})
}

func (e *ExcelizeDocument) WriteTo(w io.Writer) (int64, error) {
	if err := e.syncTableHeaders(); err != nil {
		return 0, err
	}
	return e.file.WriteTo(w)
}

// syncTableHeaders recreates tables whose header cells no longer match the column
// names stored in the table part; spreadsheet applications reject such files.
// AddTable takes the column names from the header cells.
func (e *ExcelizeDocument) syncTableHeaders() error {
	for _, sheet := range e.file.GetSheetList() {
		tables, err := e.file.GetTables(sheet)
		if err != nil {
			return err
		}
		for _, t := range tables {
			part, ok := e.parts[t.Name]
			if !ok || !part.ShowHeader {
				continue
			}
			_, sc, sr, ec, er, err := parseRangeRef(t.Range)
			if err != nil || len(part.Columns) != ec-sc+1 {
				continue
			}
			changed := false
			for i, name := range part.Columns {
				cell, _ := excelize.CoordinatesToCellName(sc+i, sr)
				if v, _ := e.file.GetCellValue(sheet, cell); v != name {
					changed = true
					break
				}
			}
			if !changed {
				continue
			}
			if err := e.file.DeleteTable(t.Name); err != nil {
				return fmt.Errorf("table %s: %w", t.Name, err)
			}
			if err := e.addTable(sheet, t, sc, sr, ec, er, true); err != nil {
				return err
			}
			slog.Debug("Table recreated after header relabel", "table", t.Name)
		}
	}
	return nil
}
