package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"jaguar-gen/config"

	"github.com/expr-lang/expr"
)

// ColumnType is the declared type of a dataset column.
type ColumnType int

const (
	ColumnText ColumnType = iota
	ColumnNumber
	ColumnDate
	ColumnBoolean
	ColumnOther
)

func (t ColumnType) String() string {
	switch t {
	case ColumnText:
		return "text"
	case ColumnNumber:
		return "number"
	case ColumnDate:
		return "date"
	case ColumnBoolean:
		return "boolean"
	default:
		return "other"
	}
}

// ParseColumnType maps a configured type name onto a ColumnType. Empty means text.
func ParseColumnType(s string) ColumnType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "string":
		return ColumnText
	case "number", "numeric":
		return ColumnNumber
	case "date", "datetime":
		return ColumnDate
	case "boolean", "bool":
		return ColumnBoolean
	default:
		return ColumnOther
	}
}

type Column struct {
	Name string
	Type ColumnType
}

// Field is one value of a row, named after the column at the same position.
type Field struct {
	Name  string
	Value interface{}
}

type Row []Field

// Get returns the value of the named field.
func (r Row) Get(name string) (interface{}, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Dataset is a named, row-oriented table handed to the generator.
type Dataset struct {
	Name    string
	Columns []Column
	Rows    []Row
}

// NewDataset creates an empty dataset with the given columns.
func NewDataset(name string, columns ...Column) *Dataset {
	return &Dataset{Name: name, Columns: columns}
}

// AddRow appends a row; values align positionally with Columns.
func (d *Dataset) AddRow(values ...interface{}) error {
	if len(values) != len(d.Columns) {
		return fmt.Errorf("dataset %s: row has %d values, want %d", d.Name, len(values), len(d.Columns))
	}
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = Field{Name: d.Columns[i].Name, Value: v}
	}
	d.Rows = append(d.Rows, row)
	return nil
}

// HasColumn reports whether the dataset declares a column with that name.
func (d *Dataset) HasColumn(name string) bool {
	return d.ColumnIndex(name) >= 0
}

func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the column definition by name.
func (d *Dataset) Column(name string) (Column, bool) {
	if i := d.ColumnIndex(name); i >= 0 {
		return d.Columns[i], true
	}
	return Column{}, false
}

// GetRowCount returns the number of rows.
func (d *Dataset) GetRowCount() int {
	return len(d.Rows)
}

// Filter keeps the rows whose columns match every parameter that names a column.
// Parameters that do not name a column are ignored.
func (d *Dataset) Filter(params map[string]string) *Dataset {
	if len(params) == 0 {
		return d
	}

	out := &Dataset{Name: d.Name, Columns: d.Columns}
	for _, row := range d.Rows {
		match := true
		for key, want := range params {
			if !d.HasColumn(key) {
				continue
			}
			v, _ := row.Get(key)
			if toString(v) != want {
				match = false
				break
			}
		}
		if match {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Where keeps the rows for which the expression evaluates to true. The expression
// sees each column as a variable.
func (d *Dataset) Where(expression string) (*Dataset, error) {
	if strings.TrimSpace(expression) == "" {
		return d, nil
	}

	env := make(map[string]interface{}, len(d.Columns))
	for _, c := range d.Columns {
		env[c.Name] = nil
	}
	program, err := expr.Compile(expression, expr.Env(env), expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("dataset %s: compile filter: %w", d.Name, err)
	}

	out := &Dataset{Name: d.Name, Columns: d.Columns}
	for i, row := range d.Rows {
		for _, f := range row {
			env[f.Name] = f.Value
		}
		res, err := expr.Run(program, env)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: filter row %d: %w", d.Name, i, err)
		}
		if ok, _ := res.(bool); ok {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

// Datasets is the ordered collection handed to a generation call.
type Datasets []*Dataset

// Find returns the first dataset with the given name.
func (ds Datasets) Find(name string) *Dataset {
	for _, d := range ds {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// FindWithColumn returns the first dataset named table that declares column.
func (ds Datasets) FindWithColumn(table, column string) *Dataset {
	for _, d := range ds {
		if d.Name == table && d.HasColumn(column) {
			return d
		}
	}
	return nil
}

// ColumnsFromConfig converts declared columns.
func ColumnsFromConfig(cols []config.ColumnConfig) []Column {
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[i] = Column{Name: c.Name, Type: ParseColumnType(c.Type)}
	}
	return out
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
}

// ConvertValue coerces a raw value (typically text from CSV) into the Go type
// matching the column type. Values that cannot be converted are returned as is.
func ConvertValue(t ColumnType, v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if t != ColumnText && s == "" {
		return nil
	}
	switch t {
	case ColumnNumber:
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n
		}
	case ColumnDate:
		for _, layout := range dateLayouts {
			if tm, err := time.Parse(layout, s); err == nil {
				return tm
			}
		}
	case ColumnBoolean:
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return s
}

func toString(v interface{}) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case []byte:
		return string(vv)
	case float64:
		if vv == float64(int64(vv)) {
			return strconv.FormatInt(int64(vv), 10)
		}
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case float32:
		return toString(float64(vv))
	case bool:
		if vv {
			return "true"
		}
		return "false"
	case time.Time:
		if vv.Hour() == 0 && vv.Minute() == 0 && vv.Second() == 0 && vv.Nanosecond() == 0 {
			return vv.Format("2006-01-02")
		}
		return vv.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", vv)
	}
}
