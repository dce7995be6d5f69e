package config

import (
	"fmt"
	"strings"
)

// Validator validates the configuration objects.
type Validator struct {
	Provider Provider
}

// NewValidator creates a new Validator.
func NewValidator(provider Provider) *Validator {
	return &Validator{Provider: provider}
}

// ValidateReport validates the ReportConfig.
func (v *Validator) ValidateReport(r *ReportConfig) error {
	if r.Id == "" {
		return fmt.Errorf("report id is required")
	}
	if r.Label == "" {
		return fmt.Errorf("report label is required")
	}

	seen := make(map[string]struct{}, len(r.Datasets))
	for i := range r.Datasets {
		ds := &r.Datasets[i]
		if err := v.ValidateDataset(ds); err != nil {
			return fmt.Errorf("dataset %d error: %w", i, err)
		}
		if _, dup := seen[ds.Name]; dup {
			return fmt.Errorf("dataset '%s' is declared twice", ds.Name)
		}
		seen[ds.Name] = struct{}{}
	}

	for i, variable := range r.Variables {
		if variable.Name == "" {
			return fmt.Errorf("variable %d name is required", i)
		}
	}

	if err := Options(r.Options).Validate(); err != nil {
		return err
	}
	return nil
}

// ValidateDataset validates the DatasetConfig.
func (v *Validator) ValidateDataset(ds *DatasetConfig) error {
	if ds.Name == "" {
		return fmt.Errorf("dataset name is required")
	}
	if strings.Contains(ds.Name, ".") {
		return fmt.Errorf("dataset '%s' name must not contain '.'", ds.Name)
	}

	switch ds.Source {
	case SourceCSV, SourceDynamoDB, "":
		// OK
	case SourceSQL:
		if ds.DataSource == "" {
			return fmt.Errorf("sql dataset '%s' requires a DataSource", ds.Name)
		}
		if v.Provider != nil {
			if _, err := v.Provider.GetDataSourceConfig(ds.DataSource); err != nil {
				return fmt.Errorf("dataset '%s' references unknown DataSource '%s'", ds.Name, ds.DataSource)
			}
		}
	default:
		return fmt.Errorf("dataset '%s' has invalid source '%s'", ds.Name, ds.Source)
	}

	for i, col := range ds.Columns {
		if col.Name == "" {
			return fmt.Errorf("dataset '%s' column %d name is required", ds.Name, i)
		}
		switch strings.ToLower(col.Type) {
		case "", "text", "string", "number", "numeric", "date", "datetime", "boolean", "bool", "other":
		default:
			return fmt.Errorf("dataset '%s' column '%s' has invalid type '%s'", ds.Name, col.Name, col.Type)
		}
	}
	return nil
}

// ValidateDataSource validates the DataSourceConfig.
func (v *Validator) ValidateDataSource(ds *DataSourceConfig) error {
	if ds.Name == "" {
		return fmt.Errorf("data source name is required")
	}
	if ds.Driver == "" {
		return fmt.Errorf("data source '%s' driver is required", ds.Name)
	}
	if ds.DSN == "" {
		return fmt.Errorf("data source '%s' DSN is required", ds.Name)
	}
	return nil
}
