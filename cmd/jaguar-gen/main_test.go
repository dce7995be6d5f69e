package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const customersCSV = "Name,Age,Since\nAna,34,2024-01-01\nLuis,41,2023-06-15\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	outputDir := filepath.Join(dir, "output")
	writeFile(t, filepath.Join(dataDir, "customers.csv"), customersCSV)

	configPath := filepath.Join(dir, "report.yaml")
	writeFile(t, configPath, `report:
  id: "customers"
  label: "Customers"
  version: "1.0"
  output: "customers-${month}"
  options:
    excel.defaults.sheetname: "Data"
  variables:
    - name: "month"
      value: "dec"
  datasets:
    - name: "Customers"
      table: "customers"
      columns:
        - name: "Name"
        - name: "Age"
          type: "number"
        - name: "Since"
          type: "date"
`)

	var logs bytes.Buffer
	if err := run(&logs, []string{
		"--config", configPath,
		"--data-dir", dataDir,
		"--output", outputDir,
		"--var", "month=jan",
	}); err != nil {
		t.Fatalf("run error: %v\n%s", err, logs.String())
	}

	outputPath := filepath.Join(outputDir, "customers-jan.xlsx")
	f, err := excelize.OpenFile(outputPath)
	if err != nil {
		t.Fatalf("expected output file, got error: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Data")
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 data rows, got %v", rows)
	}
	if got := strings.Join(rows[0], ","); got != "Name,Age,Since" {
		t.Errorf("header = %q", got)
	}
	if rows[1][0] != "Ana" || rows[2][0] != "Luis" {
		t.Errorf("unexpected data rows %v", rows[1:])
	}
	if !strings.Contains(logs.String(), "Successfully generated") {
		t.Errorf("expected generation log, got:\n%s", logs.String())
	}
}

func TestRunTemplate(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	outputDir := filepath.Join(dir, "output")
	writeFile(t, filepath.Join(dataDir, "customers.csv"), customersCSV)

	tpl := excelize.NewFile()
	sheet := tpl.GetSheetName(0)
	for cell, v := range map[string]string{"A1": "%title%", "A3": "Name", "B3": "Age", "A4": "x", "B4": "0", "A6": "End"} {
		if err := tpl.SetCellValue(sheet, cell, v); err != nil {
			t.Fatalf("set %s: %v", cell, err)
		}
	}
	if err := tpl.SetDefinedName(&excelize.DefinedName{Name: "_title", RefersTo: "'" + sheet + "'!$A$1"}); err != nil {
		t.Fatalf("define name: %v", err)
	}
	if err := tpl.AddTable(sheet, &excelize.Table{Range: "A3:B4", Name: "Customers"}); err != nil {
		t.Fatalf("add table: %v", err)
	}
	if err := tpl.SaveAs(filepath.Join(dir, "template.xlsx")); err != nil {
		t.Fatalf("save template: %v", err)
	}

	configPath := filepath.Join(dir, "report.yaml")
	writeFile(t, configPath, `report:
  id: "customers"
  label: "Customers"
  options:
    excel.template: "template.xlsx"
  variables:
    - name: "title"
      value: "Customer list"
  datasets:
    - name: "Customers"
      table: "customers"
`)

	var logs bytes.Buffer
	if err := run(&logs, []string{
		"--config", configPath,
		"--data-dir", dataDir,
		"--output", outputDir,
	}); err != nil {
		t.Fatalf("run error: %v\n%s", err, logs.String())
	}

	f, err := excelize.OpenFile(filepath.Join(outputDir, "customers.xlsx"))
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	cases := map[string]string{
		"A1": "Customer list",
		"A4": "Ana",
		"B5": "41",
		"A7": "End",
	}
	for cell, want := range cases {
		got, err := f.GetCellValue(sheet, cell)
		if err != nil {
			t.Fatalf("get %s: %v", cell, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "report.yaml")
	writeFile(t, configPath, `report:
  id: "orders"
  label: "Orders"
  datasets:
    - name: "Orders"
      source: "sql"
      dataSource: "warehouse"
`)
	dataSourcePath := filepath.Join(dir, "datasources.yaml")
	writeFile(t, dataSourcePath, `dataSources:
  - name: "warehouse"
    driver: "mysql"
    dsn: "root:pass@tcp(localhost:3306)/db"
`)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing config",
			args:    []string{"--config", filepath.Join(dir, "nope.yaml")},
			wantErr: "failed to read report config file",
		},
		{
			name:    "unknown data source",
			args:    []string{"--config", configPath},
			wantErr: "unknown DataSource 'warehouse'",
		},
		{
			name:    "unknown fetcher",
			args:    []string{"--config", configPath, "--datasources", dataSourcePath, "--fetcher", "ftp"},
			wantErr: `unknown fetcher "ftp"`,
		},
		{
			name:    "sql fetcher without dsn",
			args:    []string{"--config", configPath, "--datasources", dataSourcePath, "--fetcher", "postgres"},
			wantErr: "db-dsn is required for postgres fetcher",
		},
		{
			name:    "unexpected argument",
			args:    []string{"report.yaml"},
			wantErr: "unknown command",
		},
		{
			name:    "unknown flag",
			args:    []string{"--templates", dir},
			wantErr: "unknown flag: --templates",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			err := run(&logs, tt.args)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
