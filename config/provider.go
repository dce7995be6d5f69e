package config

import "fmt"

// Provider defines the interface for retrieving configurations.
type Provider interface {
	GetDatasetConfig(name string) (*DatasetConfig, error)
	GetDataSourceConfig(name string) (*DataSourceConfig, error)
}

// MemoryConfigRegistry implements Provider using in-memory maps.
type MemoryConfigRegistry struct {
	datasets    map[string]*DatasetConfig
	dataSources map[string]*DataSourceConfig
}

// NewMemoryConfigRegistry creates a new registry with the given configurations.
func NewMemoryConfigRegistry(datasets []DatasetConfig, dataSources map[string]*DataSourceConfig) *MemoryConfigRegistry {
	byName := make(map[string]*DatasetConfig, len(datasets))
	for i := range datasets {
		byName[datasets[i].Name] = &datasets[i]
	}
	return &MemoryConfigRegistry{
		datasets:    byName,
		dataSources: dataSources,
	}
}

// GetDatasetConfig retrieves a DatasetConfig by name.
func (r *MemoryConfigRegistry) GetDatasetConfig(name string) (*DatasetConfig, error) {
	if conf, ok := r.datasets[name]; ok {
		return conf, nil
	}
	return nil, fmt.Errorf("dataset config not found: %s", name)
}

// GetDataSourceConfig retrieves a DataSourceConfig by name.
func (r *MemoryConfigRegistry) GetDataSourceConfig(name string) (*DataSourceConfig, error) {
	if conf, ok := r.dataSources[name]; ok {
		return conf, nil
	}
	return nil, fmt.Errorf("data source config not found: %s", name)
}
