package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadReportConfig loads a report bundle from a YAML file and validates it.
func LoadReportConfig(path string) (*ReportConfig, map[string]*DataSourceConfig, error) {
	return LoadReportConfigWithDataSources(path, nil)
}

// LoadReportConfigWithDataSources loads a report bundle whose datasets may also
// reference data sources defined elsewhere. Sources in the bundle take precedence.
func LoadReportConfigWithDataSources(path string, external map[string]*DataSourceConfig) (*ReportConfig, map[string]*DataSourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read report config file: %w", err)
	}

	var bundle Bundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, nil, fmt.Errorf("failed to parse report config: %w", err)
	}

	dataSources := make(map[string]*DataSourceConfig, len(bundle.DataSources)+len(external))
	for name, ds := range external {
		dataSources[name] = ds
	}
	for i := range bundle.DataSources {
		ds := &bundle.DataSources[i]
		dataSources[ds.Name] = ds
	}

	validator := NewValidator(NewMemoryConfigRegistry(bundle.Report.Datasets, dataSources))
	if err := validator.ValidateReport(&bundle.Report); err != nil {
		return nil, nil, fmt.Errorf("invalid report config %s: %w", path, err)
	}
	for _, ds := range dataSources {
		if err := validator.ValidateDataSource(ds); err != nil {
			return nil, nil, fmt.Errorf("invalid report config %s: %w", path, err)
		}
	}

	return &bundle.Report, dataSources, nil
}

// LoadDataSourcesBundle loads data source definitions from a separate YAML file.
func LoadDataSourcesBundle(path string) (map[string]*DataSourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data source config file: %w", err)
	}

	var bundle struct {
		DataSources []DataSourceConfig `yaml:"dataSources"`
	}
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("failed to parse data source config: %w", err)
	}

	validator := NewValidator(nil)
	result := make(map[string]*DataSourceConfig, len(bundle.DataSources))
	for i := range bundle.DataSources {
		ds := &bundle.DataSources[i]
		if err := validator.ValidateDataSource(ds); err != nil {
			return nil, err
		}
		result[ds.Name] = ds
	}
	return result, nil
}
