package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	FileExtension = ".xlsx"
	MimeType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Output is a generated workbook ready for transport.
type Output struct {
	Data      []byte
	Extension string
	MimeType  string
}

type Generator struct {
	Context *GenerationContext
}

func NewGenerator(ctx *GenerationContext) *Generator {
	return &Generator{Context: ctx}
}

// Generate loads the report's datasets and renders them, into the configured
// template when there is one and into a new workbook otherwise.
func (g *Generator) Generate(ctx context.Context) (*Output, error) {
	data, err := g.Context.LoadDatasets(ctx)
	if err != nil {
		return nil, err
	}
	return g.Render(data)
}

// Render builds the workbook from already loaded datasets. The document is opened,
// mutated and serialized within the call and always closed.
func (g *Generator) Render(data Datasets) (out *Output, err error) {
	opts := g.Context.Options
	templating := opts.IsTemplating()

	doc, err := g.openDocument()
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := doc.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close workbook: %w", closeErr))
			out = nil
		}
	}()

	if err := doc.SetDocProps(g.metadata()); err != nil {
		return nil, fmt.Errorf("set document properties: %w", err)
	}

	if templating {
		if err := ReplaceVariables(doc, g.Context.Variables); err != nil {
			return nil, fmt.Errorf("replace variables: %w", err)
		}
		if err := BindDataCells(doc, data); err != nil {
			return nil, fmt.Errorf("bind data cells: %w", err)
		}
		if err := ExpandTables(doc, data, opts); err != nil {
			return nil, fmt.Errorf("expand tables: %w", err)
		}
	} else {
		if err := PopulateWorkbook(doc, data, opts); err != nil {
			return nil, fmt.Errorf("populate workbook: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}

	slog.Info("Workbook generated",
		"report", g.Context.Report.Id,
		"templated", templating,
		"datasets", len(data),
		"bytes", buf.Len(),
	)
	return &Output{Data: buf.Bytes(), Extension: FileExtension, MimeType: MimeType}, nil
}

func (g *Generator) openDocument() (Document, error) {
	opts := g.Context.Options
	if !opts.IsTemplating() {
		return NewExcelizeDocument(), nil
	}

	path, err := opts.TemplateFile(g.Context.Report.WorkDir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &TemplateError{Path: path, Err: ErrResourceNotFound}
		}
		return nil, &TemplateError{Path: path, Err: err}
	}
	doc, err := openTemplate(path)
	if err != nil {
		return nil, &TemplateError{Path: path, Err: err}
	}
	return doc, nil
}

func (g *Generator) metadata() DocProps {
	r := g.Context.Report
	return DocProps{
		Title:    r.Label,
		Subject:  r.Description,
		Comments: fmt.Sprintf("Report v%s. Private: %t", r.Version, r.Private),
		Author:   strings.Join(r.Authors, ", "),
		Keywords: strings.Join(r.Keywords, ","),
	}
}

// GenerateFile renders the report and writes it below outputDir. The file name is
// the report's output setting (or its id) with ${param} placeholders replaced.
func (g *Generator) GenerateFile(ctx context.Context, outputDir string) (string, *Output, error) {
	out, err := g.Generate(ctx)
	if err != nil {
		return "", nil, err
	}

	name := g.Context.Report.Output
	if name == "" {
		name = g.Context.Report.Id
	}
	name = replacePlaceholders(name, g.Context.Parameters)
	if filepath.Ext(name) == "" {
		name += out.Extension
	}
	path := filepath.Join(outputDir, name)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, out.Data, 0644); err != nil {
		return "", nil, fmt.Errorf("failed to save output: %w", err)
	}
	return path, out, nil
}

func replacePlaceholders(input string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	output := input
	for _, k := range keys {
		output = strings.ReplaceAll(output, "${"+k+"}", params[k])
	}
	return output
}
