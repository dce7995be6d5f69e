package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"jaguar-gen/config"
)

type countingFetcher struct {
	mu    sync.Mutex
	calls int
	data  map[string]*Dataset
}

func (f *countingFetcher) Fetch(_ context.Context, def *config.DatasetConfig, _ map[string]string) (*Dataset, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if ds, ok := f.data[def.TableName()]; ok {
		return ds, nil
	}
	return nil, errors.New("no table " + def.TableName())
}

var fixedNow = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)

func TestNewGenerationContext_MergeVariables(t *testing.T) {
	report := &config.ReportConfig{
		Id: "r",
		Variables: []config.VariableConfig{
			{Name: "env", Value: "prod"},
			{Name: "region", Value: "us"},
			{Name: "asOf", Value: "$date:day:day:-1"},
		},
	}

	ctx := NewGenerationContext(report, nil, nil, map[string]string{
		"zeta":  "last",
		"env":   "dev",
		"alpha": "first",
	}, fixedNow)

	want := map[string]string{"env": "dev", "region": "us", "asOf": "2024-05-14", "alpha": "first", "zeta": "last"}
	for k, v := range want {
		if ctx.Parameters[k] != v {
			t.Errorf("Parameters[%s] = %q, want %q", k, ctx.Parameters[k], v)
		}
	}

	var order []string
	ctx.Variables.Each(func(key string, _ interface{}) { order = append(order, key) })
	wantOrder := []string{"env", "region", "asOf", "alpha", "zeta"}
	if len(order) != len(wantOrder) {
		t.Fatalf("variables = %v, want %v", order, wantOrder)
	}
	for i := range wantOrder {
		if order[i] != wantOrder[i] {
			t.Errorf("variable %d = %s, want %s", i, order[i], wantOrder[i])
		}
	}
}

func TestNewGenerationContext_BadDateKeepsValue(t *testing.T) {
	report := &config.ReportConfig{Variables: []config.VariableConfig{{Name: "d", Value: "$date:day:hour:1"}}}
	ctx := NewGenerationContext(report, nil, nil, nil, fixedNow)
	if ctx.Parameters["d"] != "$date:day:hour:1" {
		t.Errorf("d = %q, want the raw expression", ctx.Parameters["d"])
	}
}

func TestGenerationContext_LoadDatasets(t *testing.T) {
	orders := NewDataset("orders_raw", Column{Name: "region"}, Column{Name: "total", Type: ColumnNumber})
	for _, r := range [][]interface{}{{"EU", 10.0}, {"EU", 500.0}, {"US", 20.0}} {
		if err := orders.AddRow(r...); err != nil {
			t.Fatalf("AddRow: %v", err)
		}
	}
	customers := NewDataset("Customers", Column{Name: "Name"})
	_ = customers.AddRow("Ana")

	datasets := []config.DatasetConfig{
		{Name: "Orders", Table: "orders_raw", Filter: "total < 100"},
		{Name: "Customers"},
	}
	report := &config.ReportConfig{Id: "r", Datasets: datasets}
	fetcher := &countingFetcher{data: map[string]*Dataset{"orders_raw": orders, "Customers": customers}}
	registry := config.NewMemoryConfigRegistry(datasets, nil)

	ctx := NewGenerationContext(report, registry, fetcher, map[string]string{"region": "EU"}, fixedNow)
	got, err := ctx.LoadDatasets(context.Background())
	if err != nil {
		t.Fatalf("LoadDatasets error: %v", err)
	}

	if len(got) != 2 || got[0].Name != "Orders" || got[1].Name != "Customers" {
		t.Fatalf("datasets = %v", got)
	}
	if got[0].GetRowCount() != 1 {
		t.Errorf("Orders rows = %d, want 1 (filter then region=EU)", got[0].GetRowCount())
	}
	if orders.Name != "orders_raw" {
		t.Errorf("fetched dataset was renamed in place: %s", orders.Name)
	}

	if _, err := ctx.GetDataset(context.Background(), "Orders"); err != nil {
		t.Fatalf("GetDataset error: %v", err)
	}
	if fetcher.calls != 2 {
		t.Errorf("fetcher calls = %d, want 2", fetcher.calls)
	}
}

func TestGenerationContext_LoadDatasetsErrors(t *testing.T) {
	datasets := []config.DatasetConfig{{Name: "Missing"}, {Name: "Bad", Filter: "total >"}}
	bad := NewDataset("Bad", Column{Name: "total"})

	tests := []struct {
		name string
		defs []config.DatasetConfig
	}{
		{name: "fetch failure", defs: datasets[:1]},
		{name: "filter failure", defs: datasets[1:]},
		{name: "undeclared dataset", defs: []config.DatasetConfig{{Name: "Ghost"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := &config.ReportConfig{Id: "r", Datasets: tt.defs}
			registry := config.NewMemoryConfigRegistry(datasets, nil)
			fetcher := &MockDataFetcher{Data: map[string]*Dataset{"Bad": bad}}
			ctx := NewGenerationContext(report, registry, fetcher, nil, fixedNow)
			if _, err := ctx.LoadDatasets(context.Background()); err == nil {
				t.Fatal("LoadDatasets succeeded, want error")
			}
		})
	}
}
