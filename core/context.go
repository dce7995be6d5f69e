package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"jaguar-gen/config"

	"golang.org/x/sync/errgroup"
)

// fetchConcurrency bounds the datasets fetched at the same time.
const fetchConcurrency = 4

// DataFetcher loads the rows of one dataset.
type DataFetcher interface {
	Fetch(ctx context.Context, def *config.DatasetConfig, params map[string]string) (*Dataset, error)
}

// GenerationContext holds the state of one generation call.
type GenerationContext struct {
	Report     *config.ReportConfig
	Options    config.Options
	Parameters map[string]string
	Variables  *Variables
	Fetcher    DataFetcher
	Provider   config.Provider

	mu     sync.Mutex
	loaded map[string]*Dataset
}

// NewGenerationContext merges the report's variables with the caller's parameters.
// Report variables keep their declared order; parameters override them by name and
// parameters that are not report variables follow in key order. Values written as
// $date expressions are resolved against now.
func NewGenerationContext(report *config.ReportConfig, provider config.Provider, fetcher DataFetcher, params map[string]string, now time.Time) *GenerationContext {
	vars := NewVariables()
	merged := make(map[string]string, len(params)+len(report.Variables))

	resolve := func(key, value string) string {
		resolved, err := ResolveDynamicDate(value, now)
		if err != nil {
			slog.Warn("Could not resolve date expression", "variable", key, "value", value, "error", err)
			return value
		}
		return resolved
	}

	for _, v := range report.Variables {
		value := v.Value
		if override, ok := params[v.Name]; ok {
			value = override
		}
		value = resolve(v.Name, value)
		vars.Set(v.Name, value)
		merged[v.Name] = value
	}

	extra := make([]string, 0, len(params))
	for k := range params {
		if _, ok := merged[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		value := resolve(k, params[k])
		vars.Set(k, value)
		merged[k] = value
	}

	return &GenerationContext{
		Report:     report,
		Options:    config.Options(report.Options),
		Parameters: merged,
		Variables:  vars,
		Fetcher:    fetcher,
		Provider:   provider,
		loaded:     make(map[string]*Dataset),
	}
}

// GetDataset fetches a dataset once per call and applies its configured filter
// followed by the parameter filter.
func (c *GenerationContext) GetDataset(ctx context.Context, name string) (*Dataset, error) {
	c.mu.Lock()
	ds, ok := c.loaded[name]
	c.mu.Unlock()
	if ok {
		return ds, nil
	}

	ds, err := c.fetchDataset(ctx, name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.loaded[name] = ds
	c.mu.Unlock()
	return ds, nil
}

func (c *GenerationContext) fetchDataset(ctx context.Context, name string) (*Dataset, error) {
	def, err := c.Provider.GetDatasetConfig(name)
	if err != nil {
		return nil, err
	}
	ds, err := c.Fetcher.Fetch(ctx, def, c.Parameters)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset %s: %w", name, err)
	}
	if ds.Name != def.Name {
		named := *ds
		named.Name = def.Name
		ds = &named
	}

	ds, err = ds.Where(def.Filter)
	if err != nil {
		return nil, err
	}
	ds = ds.Filter(c.Parameters)

	slog.Debug("Dataset loaded", "dataset", name, "columns", len(ds.Columns), "rows", ds.GetRowCount())
	return ds, nil
}

// LoadDatasets fetches every dataset the report declares. Fetches run concurrently;
// the result keeps declaration order.
func (c *GenerationContext) LoadDatasets(ctx context.Context) (Datasets, error) {
	out := make(Datasets, len(c.Report.Datasets))

	grp, subCtx := errgroup.WithContext(ctx)
	grp.SetLimit(fetchConcurrency)
	for i, def := range c.Report.Datasets {
		grp.Go(func() error {
			ds, err := c.GetDataset(subCtx, def.Name)
			if err != nil {
				return err
			}
			out[i] = ds
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// MockDataFetcher serves fixed datasets by name.
type MockDataFetcher struct {
	Data map[string]*Dataset
}

func (m *MockDataFetcher) Fetch(_ context.Context, def *config.DatasetConfig, _ map[string]string) (*Dataset, error) {
	if ds, ok := m.Data[def.Name]; ok {
		return ds, nil
	}
	return nil, fmt.Errorf("dataset not found: %s", def.Name)
}
