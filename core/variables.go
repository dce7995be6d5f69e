package core

import (
	"log/slog"
	"strings"
)

// VariablePrefix marks defined names whose cell text is a substitution template.
const VariablePrefix = "_"

// Variables is an insertion-ordered variable map. Substitution walks it in order,
// so a value containing another key's token is expanded only if that key comes later.
type Variables struct {
	keys   []string
	values map[string]interface{}
}

func NewVariables() *Variables {
	return &Variables{values: map[string]interface{}{}}
}

// Set adds a variable or overwrites its value, keeping its original position.
func (v *Variables) Set(key string, value interface{}) {
	if _, ok := v.values[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.values[key] = value
}

func (v *Variables) Get(key string) (interface{}, bool) {
	val, ok := v.values[key]
	return val, ok
}

func (v *Variables) Len() int {
	if v == nil {
		return 0
	}
	return len(v.keys)
}

// Each calls fn for every variable in insertion order.
func (v *Variables) Each(fn func(key string, value interface{})) {
	if v == nil {
		return
	}
	for _, k := range v.keys {
		fn(k, v.values[k])
	}
}

// Expand replaces every %key% token in s.
func (v *Variables) Expand(s string) string {
	v.Each(func(key string, value interface{}) {
		s = strings.ReplaceAll(s, "%"+key+"%", toString(value))
	})
	return s
}

// ReplaceVariables rewrites every single-cell defined name starting with
// VariablePrefix, expanding %key% tokens in its current text. Empty cells are
// left alone.
func ReplaceVariables(doc Document, vars *Variables) error {
	for _, name := range doc.GetDefinedNames() {
		if !strings.HasPrefix(name.Name, VariablePrefix) || !name.IsSingleCell() {
			continue
		}
		cell := name.Cell()
		value, err := doc.GetCellValue(name.Sheet, cell)
		if err != nil {
			return err
		}
		if value == "" {
			continue
		}
		expanded := vars.Expand(value)
		if expanded == value {
			continue
		}
		slog.Debug("Variable cell replaced", "name", name.Name, "cell", cell)
		if err := doc.SetCellValue(name.Sheet, cell, expanded); err != nil {
			return err
		}
	}
	return nil
}
