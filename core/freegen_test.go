package core

import (
	"testing"
	"time"

	"jaguar-gen/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customersDataset(t *testing.T) *Dataset {
	t.Helper()
	ds := NewDataset("Customers", Column{Name: "Name", Type: ColumnText}, Column{Name: "Since", Type: ColumnDate})
	require.NoError(t, ds.AddRow("Ana", "2024-01-01"))
	require.NoError(t, ds.AddRow("Bo", "2023-06-15"))
	return ds
}

func TestPopulateWorkbook_HeaderAndDates(t *testing.T) {
	doc := NewMemoryDocument()

	require.NoError(t, PopulateWorkbook(doc, Datasets{customersDataset(t)}, nil))

	require.Equal(t, []string{"Sheet"}, doc.GetSheetList())
	assert.Equal(t, "Name", doc.Value("Sheet", "A1"))
	assert.Equal(t, "Since", doc.Value("Sheet", "B1"))
	style, ok := doc.RowStyle("Sheet", 1)
	assert.True(t, ok)
	assert.True(t, style.Bold)
	colStyle, ok := doc.ColStyle("Sheet", 2)
	assert.True(t, ok)
	assert.Equal(t, DateFormat, colStyle.NumFmt)
	_, ok = doc.ColStyle("Sheet", 1)
	assert.False(t, ok, "text column gets no date format")

	assert.Equal(t, "Ana", doc.Value("Sheet", "A2"))
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), doc.Value("Sheet", "B2"))
	assert.Equal(t, "Bo", doc.Value("Sheet", "A3"))
	assert.Equal(t, 3, doc.RowCount("Sheet"))
}

func TestPopulateWorkbook_HeaderDisabled(t *testing.T) {
	doc := NewMemoryDocument()
	opts := config.Options{"excel.defaults.header": false}

	require.NoError(t, PopulateWorkbook(doc, Datasets{customersDataset(t)}, opts))

	assert.Equal(t, "Ana", doc.Value("Sheet", "A1"))
	assert.Equal(t, "Bo", doc.Value("Sheet", "A2"))
	assert.Equal(t, 2, doc.RowCount("Sheet"))
	_, ok := doc.RowStyle("Sheet", 1)
	assert.False(t, ok)
	_, ok = doc.ColStyle("Sheet", 2)
	assert.False(t, ok)
}

func TestPopulateWorkbook_SheetNames(t *testing.T) {
	doc := NewMemoryDocument()
	opts := config.Options{"excel.defaults.sheetname": "Hoja"}
	data := Datasets{
		customersDataset(t),
		NewDataset("NoColumns"),
		NewDataset("Orders", Column{Name: "Id"}),
	}

	require.NoError(t, PopulateWorkbook(doc, data, opts))

	assert.Equal(t, []string{"Hoja", "Hoja2", "Hoja3"}, doc.GetSheetList())
	assert.Equal(t, 0, doc.RowCount("Hoja2"), "no header without columns")
	assert.Equal(t, "Id", doc.Value("Hoja3", "A1"))
}

func TestPopulateWorkbook_Excelize(t *testing.T) {
	doc := NewExcelizeDocument()
	defer doc.Close()

	require.NoError(t, PopulateWorkbook(doc, Datasets{customersDataset(t)}, nil))

	f := reopen(t, doc)
	assert.Equal(t, []string{"Sheet"}, f.GetSheetList())
	rows, err := f.GetRows("Sheet")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Name", "Since"}, {"Ana", "2024-01-01"}, {"Bo", "2023-06-15"}}, rows)
}

func TestPopulateWorkbook_EmptySheetName(t *testing.T) {
	doc := NewExcelizeDocument()
	defer doc.Close()
	opts := config.Options{"excel.defaults.sheetname": ""}
	data := Datasets{customersDataset(t), NewDataset("Orders", Column{Name: "Id"})}

	require.NoError(t, PopulateWorkbook(doc, data, opts))

	assert.Equal(t, []string{"Sheet", "Sheet2"}, doc.GetSheetList())
}
