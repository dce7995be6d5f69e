package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Recognised option keys.
const (
	OptionTemplate   = "excel.template"
	OptionHeader     = "excel.defaults.header"
	OptionProtect    = "excel.defaults.protect"
	OptionSheetName  = "excel.defaults.sheetname"
	OptionHeadingPfx = "excel.headings."

	DefaultSheetName = "Sheet"
)

// ErrInvalidOption is returned when an option holds a value of the wrong shape.
var ErrInvalidOption = errors.New("invalid option")

// Options is the untyped option mapping of a report, read through typed accessors.
type Options map[string]interface{}

func (o Options) text(key string) (string, bool) {
	v, ok := o[key]
	if !ok || v == nil {
		return "", false
	}
	return fmt.Sprintf("%v", v), true
}

// IsTemplating reports whether a non-empty template path is configured.
func (o Options) IsTemplating() bool {
	s, ok := o.text(OptionTemplate)
	return ok && s != ""
}

// TemplatePath returns the configured template path, empty when free generation applies.
func (o Options) TemplatePath() string {
	s, _ := o.text(OptionTemplate)
	return s
}

// TemplateFile resolves the template path against workDir. A template option that is
// set but does not hold a string is a configuration error.
func (o Options) TemplateFile(workDir string) (string, error) {
	if !o.IsTemplating() {
		return "", nil
	}
	path, ok := o[OptionTemplate].(string)
	if !ok || path == "" {
		return "", fmt.Errorf("%w: %s must be a non-empty string", ErrInvalidOption, OptionTemplate)
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Join(workDir, path), nil
}

// HeaderEnabled defaults to true; a non-boolean value is treated as true.
func (o Options) HeaderEnabled() bool {
	return o.boolOr(OptionHeader, true)
}

// ReadOnly defaults to false; a non-boolean value is treated as false.
func (o Options) ReadOnly() bool {
	return o.boolOr(OptionProtect, false)
}

func (o Options) boolOr(key string, def bool) bool {
	if s, ok := o.text(key); !ok || s == "" {
		return def
	}
	if b, ok := o[key].(bool); ok {
		return b
	}
	return def
}

// DefaultSheetName returns the prefix used for sheets created in free generation.
// A blank setting falls back to DefaultSheetName.
func (o Options) DefaultSheetName() string {
	if s, ok := o.text(OptionSheetName); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return DefaultSheetName
}

// ColumnAlias returns the configured heading for columnName. Without an entry the
// name is returned unchanged; an entry that is not a string yields "".
func (o Options) ColumnAlias(columnName string) string {
	v, ok := o[OptionHeadingPfx+columnName]
	if !ok {
		return columnName
	}
	s, _ := v.(string)
	return s
}

// Validate checks the options that have a fixed shape.
func (o Options) Validate() error {
	if v, ok := o[OptionTemplate]; ok && v != nil {
		if _, isString := v.(string); !isString {
			return fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidOption, OptionTemplate, v)
		}
	}
	for key := range o {
		if strings.HasPrefix(key, OptionHeadingPfx) && len(key) == len(OptionHeadingPfx) {
			return fmt.Errorf("%w: %s requires a column name", ErrInvalidOption, key)
		}
	}
	return nil
}
