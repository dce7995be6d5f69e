package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"jaguar-gen/config"
)

// SQLDataFetcher reads datasets from a MySQL or PostgreSQL database.
type SQLDataFetcher struct {
	DB         *sql.DB
	DriverName string // "mysql" or "postgres"
}

// NewSQLDataFetcher creates a new fetcher.
func NewSQLDataFetcher(db *sql.DB, driverName string) *SQLDataFetcher {
	return &SQLDataFetcher{
		DB:         db,
		DriverName: driverName,
	}
}

var (
	paramPattern   = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)\}`)
	integerPattern = regexp.MustCompile(`^(UNSIGNED )?(TINY|SMALL|MEDIUM|BIG)?INT(EGER|2|4|8)?$`)
)

// bindQuery turns ${name} references into driver placeholders bound to params.
func (f *SQLDataFetcher) bindQuery(query string, params map[string]string) (string, []interface{}, error) {
	var args []interface{}
	var missing []string
	bound := paramPattern.ReplaceAllStringFunc(query, func(m string) string {
		name := paramPattern.FindStringSubmatch(m)[1]
		v, ok := params[name]
		if !ok {
			missing = append(missing, name)
		}
		args = append(args, v)
		if f.DriverName == "postgres" {
			return fmt.Sprintf("$%d", len(args))
		}
		return "?"
	})
	if len(missing) > 0 {
		return "", nil, fmt.Errorf("query references undefined parameters: %s", strings.Join(missing, ", "))
	}
	return bound, args, nil
}

// Fetch runs the dataset's query, or selects the whole table when none is given.
// Declared column types win over the types the driver reports.
func (f *SQLDataFetcher) Fetch(ctx context.Context, def *config.DatasetConfig, params map[string]string) (ds *Dataset, err error) {
	query := def.Sql
	if query == "" {
		query = fmt.Sprintf("SELECT * FROM %s", def.TableName())
	}
	query, args, err := f.bindQuery(query, params)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", def.Name, err)
	}

	rows, err := f.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	declared := ColumnsFromConfig(def.Columns)
	columns := make([]Column, len(types))
	for i, ct := range types {
		columns[i] = Column{Name: ct.Name(), Type: sqlColumnType(ct.DatabaseTypeName())}
		for _, c := range declared {
			if c.Name == ct.Name() {
				columns[i].Type = c.Type
			}
		}
	}

	ds = NewDataset(def.Name, columns...)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		for i, c := range columns {
			values[i] = cellValue(c, values[i])
		}
		if err := ds.AddRow(values...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return ds, nil
}

// sqlColumnType maps driver type names (MySQL and PostgreSQL spellings) onto column types.
func sqlColumnType(dbType string) ColumnType {
	t := strings.ToUpper(dbType)
	switch {
	case t == "BOOL" || t == "BOOLEAN":
		return ColumnBoolean
	case integerPattern.MatchString(t), strings.Contains(t, "DECIMAL"), strings.Contains(t, "NUMERIC"),
		strings.Contains(t, "FLOAT"), strings.Contains(t, "DOUBLE"), t == "REAL", t == "MONEY":
		return ColumnNumber
	case strings.Contains(t, "DATE"), strings.Contains(t, "TIMESTAMP"):
		return ColumnDate
	case strings.Contains(t, "CHAR"), strings.Contains(t, "TEXT"), t == "UUID", t == "JSON", t == "JSONB":
		return ColumnText
	default:
		return ColumnOther
	}
}
