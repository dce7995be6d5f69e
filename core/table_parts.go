package core

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path"
	"strings"
)

type xlsxTablePart struct {
	Name           string `xml:"name,attr"`
	DisplayName    string `xml:"displayName,attr"`
	HeaderRowCount *int   `xml:"headerRowCount,attr"`
	Columns        []struct {
		Name string `xml:"name,attr"`
	} `xml:"tableColumns>tableColumn"`
}

// tablePart is what the generator needs from a table definition beyond its range.
type tablePart struct {
	Columns    []string
	ShowHeader bool
}

// readTableParts collects the declared columns and header visibility of every
// table part in an xlsx package. excelize does not expose the columns, and tables
// without a header row have no cells to read them from.
func readTableParts(data []byte) (map[string]tablePart, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	result := make(map[string]tablePart)
	for _, f := range r.File {
		if path.Dir(f.Name) != "xl/tables" || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		content, err := readZipEntry(f)
		if err != nil {
			return nil, err
		}
		var part xlsxTablePart
		if err := xml.Unmarshal(content, &part); err != nil {
			return nil, err
		}
		info := tablePart{
			Columns:    make([]string, len(part.Columns)),
			ShowHeader: part.HeaderRowCount == nil || *part.HeaderRowCount != 0,
		}
		for i, c := range part.Columns {
			info.Columns[i] = c.Name
		}
		result[part.Name] = info
		if part.DisplayName != "" {
			result[part.DisplayName] = info
		}
	}
	return result, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
