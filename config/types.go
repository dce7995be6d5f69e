package config

type SourceType string

const (
	SourceCSV      SourceType = "csv"
	SourceSQL      SourceType = "sql"
	SourceDynamoDB SourceType = "dynamodb"
)

// DataSourceConfig：datasource config
type DataSourceConfig struct {
	Name   string `json:"name"   yaml:"name"`
	Driver string `json:"driver" yaml:"driver"` // "mysql", "postgres"
	DSN    string `json:"dsn"    yaml:"dsn"`
}

// ColumnConfig declares a dataset column and its type.
type ColumnConfig struct {
	Name string `json:"name"           yaml:"name"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"` // text, number, date, boolean
}

// DatasetConfig：a named dataset the report consumes
type DatasetConfig struct {
	Name       string         `json:"name"                 yaml:"name"`
	Source     SourceType     `json:"source,omitempty"     yaml:"source,omitempty"`
	DataSource string         `json:"dataSource,omitempty" yaml:"dataSource,omitempty"`
	Table      string         `json:"table,omitempty"      yaml:"table,omitempty"`
	Sql        string         `json:"sql,omitempty"        yaml:"sql,omitempty"`
	Filter     string         `json:"filter,omitempty"     yaml:"filter,omitempty"` // expr-lang predicate
	Columns    []ColumnConfig `json:"columns,omitempty"    yaml:"columns,omitempty"`
}

// TableName returns the physical table (or file) the dataset is read from.
func (d *DatasetConfig) TableName() string {
	if d.Table != "" {
		return d.Table
	}
	return d.Name
}

// VariableConfig：a substitution variable; order is significant
type VariableConfig struct {
	Name  string `json:"name"  yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// ReportConfig：report descriptor
type ReportConfig struct {
	Id          string                 `json:"id"                    yaml:"id"`
	Label       string                 `json:"label"                 yaml:"label"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string                 `json:"version,omitempty"     yaml:"version,omitempty"`
	Private     bool                   `json:"private,omitempty"     yaml:"private,omitempty"`
	Authors     []string               `json:"authors,omitempty"     yaml:"authors,omitempty"`
	Keywords    []string               `json:"keywords,omitempty"    yaml:"keywords,omitempty"`
	WorkDir     string                 `json:"workDir,omitempty"     yaml:"workDir,omitempty"`
	Output      string                 `json:"output,omitempty"      yaml:"output,omitempty"` // file name, may hold ${param}
	Options     map[string]interface{} `json:"options,omitempty"     yaml:"options,omitempty"`
	Variables   []VariableConfig       `json:"variables,omitempty"   yaml:"variables,omitempty"`
	Datasets    []DatasetConfig        `json:"datasets"              yaml:"datasets"`
}

// Bundle is the on-disk layout of a report file.
type Bundle struct {
	Report      ReportConfig       `json:"report"                yaml:"report"`
	DataSources []DataSourceConfig `json:"dataSources,omitempty" yaml:"dataSources,omitempty"`
}
