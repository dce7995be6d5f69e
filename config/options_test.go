package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Defaults(t *testing.T) {
	opts := Options{}

	assert.False(t, opts.IsTemplating())
	assert.Equal(t, "", opts.TemplatePath())
	assert.True(t, opts.HeaderEnabled())
	assert.False(t, opts.ReadOnly())
	assert.Equal(t, "Sheet", opts.DefaultSheetName())
	assert.Equal(t, "Amount", opts.ColumnAlias("Amount"))
}

func TestOptions_NonBooleanFallsBack(t *testing.T) {
	opts := Options{
		OptionHeader:  "no",
		OptionProtect: "yes",
	}
	assert.True(t, opts.HeaderEnabled(), "non-boolean header value is treated as true")
	assert.False(t, opts.ReadOnly(), "non-boolean protect value is treated as false")

	opts = Options{OptionHeader: false, OptionProtect: true}
	assert.False(t, opts.HeaderEnabled())
	assert.True(t, opts.ReadOnly())
}

func TestOptions_DefaultSheetName(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"configured", "Hoja", "Hoja"},
		{"empty", "", DefaultSheetName},
		{"blank", "   ", DefaultSheetName},
		{"nil", nil, DefaultSheetName},
		{"number", 7, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{OptionSheetName: tt.value}
			assert.Equal(t, tt.want, opts.DefaultSheetName())
		})
	}
}

func TestOptions_ColumnAlias(t *testing.T) {
	opts := Options{
		"excel.headings.Name":  "Customer",
		"excel.headings.Total": 5,
	}
	assert.Equal(t, "Customer", opts.ColumnAlias("Name"))
	assert.Equal(t, "", opts.ColumnAlias("Total"), "non-string alias resolves to empty")
	assert.Equal(t, "Since", opts.ColumnAlias("Since"))
}

func TestOptions_TemplateFile(t *testing.T) {
	opts := Options{OptionTemplate: "templates/tpl.xlsx"}
	require.True(t, opts.IsTemplating())

	path, err := opts.TemplateFile("/work")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/work", "templates/tpl.xlsx"), path)

	_, err = Options{OptionTemplate: 12}.TemplateFile("/work")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidOption))

	path, err = Options{OptionTemplate: ""}.TemplateFile("/work")
	require.NoError(t, err)
	assert.Equal(t, "", path)
}
