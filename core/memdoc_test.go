package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSampleDocument lays out a sheet with a title, a two-row table at A3:B5 and a
// footer at A7, with defined names on the title and the footer.
func newSampleDocument(t *testing.T) *MemoryDocument {
	t.Helper()
	doc := NewMemoryDocument()
	require.NoError(t, doc.NewSheet("Data"))
	cells := map[string]interface{}{
		"A1": "Title",
		"A3": "Name", "B3": "Total",
		"A4": "sample", "B4": 1,
		"A5": "sample", "B5": 2,
		"A7": "Footer",
	}
	for cell, v := range cells {
		require.NoError(t, doc.SetCellValue("Data", cell, v))
	}
	require.NoError(t, doc.AddTable(TableRef{
		Name: "Orders", Sheet: "Data", StartCol: 1, StartRow: 3, EndCol: 2, EndRow: 5,
		ShowHeader: true, Columns: []string{"Name", "Total"},
	}))
	require.NoError(t, doc.SetDefinedName(NamedRange{Name: "_title", Sheet: "Data", StartCol: 1, StartRow: 1, EndCol: 1, EndRow: 1}))
	require.NoError(t, doc.SetDefinedName(NamedRange{Name: "_footer", Sheet: "Data", StartCol: 1, StartRow: 7, EndCol: 1, EndRow: 7}))
	return doc
}

func TestMemoryDocument_InsertRows(t *testing.T) {
	doc := newSampleDocument(t)

	require.NoError(t, doc.InsertRows("Data", 4, 2))

	assert.Equal(t, 9, doc.RowCount("Data"))
	assert.Nil(t, doc.Value("Data", "A4"))
	assert.Nil(t, doc.Value("Data", "A5"))
	assert.Equal(t, "sample", doc.Value("Data", "A6"))
	assert.Equal(t, "Footer", doc.Value("Data", "A9"))
	assert.Equal(t, "Title", doc.Value("Data", "A1"))

	tables, err := doc.GetTables("Data")
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "A3:B7", tables[0].Ref())

	names := doc.GetDefinedNames()
	assert.Equal(t, 1, names[0].StartRow)
	assert.Equal(t, 9, names[1].StartRow)
}

func TestMemoryDocument_RemoveRows(t *testing.T) {
	doc := newSampleDocument(t)

	require.NoError(t, doc.RemoveRows("Data", 4, 2))

	assert.Equal(t, 5, doc.RowCount("Data"))
	assert.Equal(t, "Footer", doc.Value("Data", "A5"))

	tables, err := doc.GetTables("Data")
	require.NoError(t, err)
	assert.Empty(t, tables, "a table left with only its header row is dropped")
	assert.Equal(t, 5, doc.GetDefinedNames()[1].StartRow)
}

func TestMemoryDocument_RemoveRowsKeepsHeaderlessRow(t *testing.T) {
	doc := newSampleDocument(t)
	require.NoError(t, doc.AddTable(TableRef{
		Name: "Notes", Sheet: "Data", StartCol: 4, StartRow: 4, EndCol: 4, EndRow: 5, Columns: []string{"Note"},
	}))

	require.NoError(t, doc.RemoveRows("Data", 5, 1))

	tables, err := doc.GetTables("Data")
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "A3:B4", tables[0].Ref())
	assert.Equal(t, "D4:D4", tables[1].Ref())
}

func TestMemoryDocument_ResizeTable(t *testing.T) {
	doc := newSampleDocument(t)

	require.NoError(t, doc.ResizeTable("Data", "Orders", 3, 8))

	tables, err := doc.GetTables("Data")
	require.NoError(t, err)
	assert.Equal(t, "A3:B8", tables[0].Ref())
	assert.Error(t, doc.ResizeTable("Data", "Missing", 1, 2))
	assert.Error(t, doc.ResizeTable("Data", "Orders", 5, 4))
}

func TestMemoryDocument_RemoveRowsDropsRegions(t *testing.T) {
	doc := newSampleDocument(t)

	require.NoError(t, doc.RemoveRows("Data", 3, 5))

	tables, err := doc.GetTables("Data")
	require.NoError(t, err)
	assert.Empty(t, tables)
	names := doc.GetDefinedNames()
	require.Len(t, names, 1)
	assert.Equal(t, "_title", names[0].Name)
}

func TestMemoryDocument_Errors(t *testing.T) {
	doc := newSampleDocument(t)

	assert.Error(t, doc.NewSheet("Data"))
	assert.Error(t, doc.SetCellValue("Missing", "A1", 1))
	assert.Error(t, doc.InsertRows("Data", 0, 1))
	assert.Error(t, doc.RemoveRows("Data", 1, 0))
	assert.Error(t, doc.AddTable(TableRef{Name: "Bad", Sheet: "Data", StartCol: 1, EndCol: 3, Columns: []string{"A"}}))
}

func TestMemoryDocument_WriteTo(t *testing.T) {
	doc := newSampleDocument(t)
	require.NoError(t, doc.SetRowStyle("Data", 3, Style{Bold: true}))
	require.NoError(t, doc.ProtectSheet("Data", SheetProtection{Password: "secret", AllowSort: true}))
	require.NoError(t, doc.SetDocProps(DocProps{Title: "Sample"}))

	var buf bytes.Buffer
	_, err := doc.WriteTo(&buf)
	require.NoError(t, err)

	out, err := OpenExcelizeDocument(buf.Bytes())
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, []string{"Data"}, out.GetSheetList())
	v, err := out.GetCellValue("Data", "B5")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	tables, err := out.GetTables("Data")
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "Orders", tables[0].Name)
	assert.Equal(t, []string{"Name", "Total"}, tables[0].Columns)

	names := out.GetDefinedNames()
	require.Len(t, names, 2)
	assert.Equal(t, "A1", names[0].Cell())
	assert.Equal(t, "A7", names[1].Cell())
}
