package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"jaguar-gen/config"
)

// CsvDataFetcher reads <RootDir>/<table>.csv. The first record is the header.
type CsvDataFetcher struct {
	RootDir string
}

func NewCsvDataFetcher(rootDir string) *CsvDataFetcher {
	return &CsvDataFetcher{RootDir: rootDir}
}

// Fetch reads the file named after the dataset's table. Declared columns select
// and type the CSV columns; without a declaration every column is read as text.
func (f *CsvDataFetcher) Fetch(ctx context.Context, def *config.DatasetConfig, _ map[string]string) (ds *Dataset, err error) {
	filePath := filepath.Join(f.RootDir, def.TableName()+".csv")

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file %s: %w", filePath, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return NewDataset(def.Name, ColumnsFromConfig(def.Columns)...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := ColumnsFromConfig(def.Columns)
	if len(columns) == 0 {
		for _, name := range header {
			columns = append(columns, Column{Name: name, Type: ColumnText})
		}
	}
	positions := make([]int, len(columns))
	for i, c := range columns {
		positions[i] = -1
		for j, name := range header {
			if name == c.Name {
				positions[i] = j
				break
			}
		}
		if positions[i] < 0 {
			return nil, fmt.Errorf("csv file %s has no column %s", filePath, c.Name)
		}
	}

	ds = NewDataset(def.Name, columns...)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv content: %w", err)
		}
		values := make([]interface{}, len(columns))
		for i, c := range columns {
			values[i] = ConvertValue(c.Type, record[positions[i]])
		}
		if err := ds.AddRow(values...); err != nil {
			return nil, err
		}
	}
	return ds, nil
}
