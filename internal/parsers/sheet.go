package parsers

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/mariellemanlulu/irida-uploader/internal/model"
)

// SampleSheet is the raw section structure of an Illumina-style sample
// sheet: a sequence of `[Name]` sections each holding CSV rows.
type SampleSheet struct {
	Path     string
	Sections []SheetSection
}

// SheetSection is one `[Name]` block of a sample sheet. RowLines holds the
// 1-based file line of each row so parse errors can point at their source.
type SheetSection struct {
	Name     string
	Line     int
	Rows     [][]string
	RowLines []int
}

// Section returns the named section, or nil when absent. Section names are
// matched case-insensitively.
func (s *SampleSheet) Section(name string) *SheetSection {
	for i := range s.Sections {
		if strings.EqualFold(s.Sections[i].Name, name) {
			return &s.Sections[i]
		}
	}
	return nil
}

// KeyValues interprets a section's rows as key/value pairs (first column
// key, second column value), the layout of `[Header]` style sections.
func (sec *SheetSection) KeyValues() map[string]string {
	kv := make(map[string]string, len(sec.Rows))
	for _, row := range sec.Rows {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		value := ""
		if len(row) > 1 {
			value = row[1]
		}
		kv[strings.TrimSpace(row[0])] = strings.TrimSpace(value)
	}
	return kv
}

// ReadSampleSheet reads a sample sheet into its section structure. Rows
// outside any section and fully empty rows are skipped.
func ReadSampleSheet(path string) (*SampleSheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &model.SampleSheetError{
			Sheet:   path,
			Message: "cannot open sample sheet: " + err.Error(),
		}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	sheet := &SampleSheet{Path: path}
	var current *SheetSection

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &model.SampleSheetError{
				Sheet:   path,
				Message: "malformed CSV: " + err.Error(),
			}
		}
		line, _ := reader.FieldPos(0)

		first := ""
		if len(record) > 0 {
			first = strings.TrimSpace(record[0])
		}

		if strings.HasPrefix(first, "[") && strings.HasSuffix(first, "]") {
			sheet.Sections = append(sheet.Sections, SheetSection{
				Name: strings.Trim(first, "[]"),
				Line: line,
			})
			current = &sheet.Sections[len(sheet.Sections)-1]
			continue
		}

		if current == nil || emptyRow(record) {
			continue
		}

		current.Rows = append(current.Rows, trimRow(record))
		current.RowLines = append(current.RowLines, line)
	}

	return sheet, nil
}

func emptyRow(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func trimRow(record []string) []string {
	out := make([]string, len(record))
	for i, field := range record {
		out[i] = strings.TrimSpace(field)
	}
	return out
}
