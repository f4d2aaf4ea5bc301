// Package directory parses generic run directories: a SampleList.csv whose
// [Data] table names each sample's forward and reverse files explicitly,
// with the files sitting next to the sheet. It is the platform of choice
// for hand-assembled runs and for instruments without a dedicated parser.
package directory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mariellemanlulu/irida-uploader/internal/model"
	"github.com/mariellemanlulu/irida-uploader/internal/parsers"
)

const sampleSheetName = "SampleList.csv"

const (
	columnSampleName  = "Sample_Name"
	columnProjectID   = "Project_ID"
	columnFileForward = "File_Forward"
	columnFileReverse = "File_Reverse"
)

// Parser implements the parsers.Parser contract for generic directories.
type Parser struct{}

// NewParser returns a directory parser.
func NewParser() *Parser {
	return &Parser{}
}

// Name returns the configuration token for this platform.
func (*Parser) Name() string { return "directory" }

// SampleSheetName returns the expected sheet filename.
func (*Parser) SampleSheetName() string { return sampleSheetName }

// RequiredFiles returns the files a generic run directory must contain.
// There is no instrument sentinel; the sheet alone marks a run.
func (*Parser) RequiredFiles() []string {
	return []string{sampleSheetName}
}

// RequiredSections returns the sheet sections a sample list must carry.
func (*Parser) RequiredSections() []string {
	return []string{"Data"}
}

// RelativeDataDirectory returns ".": files live beside the sheet.
func (*Parser) RelativeDataDirectory() string { return "." }

// FindSampleSheet locates SampleList.csv inside a run directory.
func (p *Parser) FindSampleSheet(directory string) (string, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return "", &model.DirectoryError{
			Directory: directory,
			Message:   "directory is not accessible, cannot parse samples",
			Err:       err,
		}
	}

	for _, entry := range entries {
		if !entry.IsDir() && entry.Name() == sampleSheetName {
			return filepath.Join(directory, sampleSheetName), nil
		}
	}

	return "", &model.DirectoryError{
		Directory: directory,
		Message:   "no sample list with the name " + sampleSheetName,
	}
}

// ParseMetadata derives run metadata for a generic directory. A [Header]
// section is optional; the run name falls back to the directory name and
// the layout is paired-end when any row declares a reverse file.
func (p *Parser) ParseMetadata(sheet string) (model.Metadata, error) {
	parsed, err := parsers.ReadSampleSheet(sheet)
	if err != nil {
		return model.Metadata{}, err
	}

	md := model.Metadata{
		RunName:    filepath.Base(filepath.Dir(sheet)),
		LayoutType: "SINGLE_END",
	}

	if header := parsed.Section("Header"); header != nil {
		kv := header.KeyValues()
		if name := kv["Run Name"]; name != "" {
			md.RunName = name
		}
		md.Extra = kv
	}

	table, columns, err := dataTable(parsed, sheet)
	if err != nil {
		return model.Metadata{}, err
	}
	for _, row := range table.Rows[1:] {
		if field(row, columns[columnFileReverse]) != "" {
			md.LayoutType = "PAIRED_END"
			break
		}
	}

	return md, nil
}

// ParseSamples parses the [Data] table. Files are resolved relative to the
// sheet directory against the filesystem, or verified against the supplied
// listing when data is non-nil.
func (p *Parser) ParseSamples(sheet string, data *parsers.DataDirectory) ([]model.Sample, model.ValidationResult, error) {
	var result model.ValidationResult

	parsed, err := parsers.ReadSampleSheet(sheet)
	if err != nil {
		return nil, result, err
	}

	table, columns, err := dataTable(parsed, sheet)
	if err != nil {
		return nil, result, err
	}

	dir := filepath.Dir(sheet)
	var samples []model.Sample
	for i, row := range table.Rows[1:] {
		line := table.RowLines[i+1]

		name := field(row, columns[columnSampleName])
		project := field(row, columns[columnProjectID])
		if name == "" || project == "" {
			result.AddError(model.ValidationError{
				Kind:    model.KindSampleSheet,
				Entity:  fmt.Sprintf("%s:%d", sheet, line),
				Message: "sample row is missing its name or project",
			})
			continue
		}

		forward := field(row, columns[columnFileForward])
		reverse := field(row, columns[columnFileReverse])
		if forward == "" {
			result.AddError(model.ValidationError{
				Kind:    model.KindSequenceFile,
				Entity:  name,
				Message: "sample row declares no forward file",
			})
			continue
		}

		var files []model.SequenceFile
		ok := true
		for _, ref := range []struct {
			name string
			read int
		}{{forward, 1}, {reverse, 2}} {
			if ref.name == "" {
				continue
			}
			path, err := resolveFile(dir, name, ref.name, data)
			if err != nil {
				result.AddError(model.ValidationError{
					Kind:    model.KindSequenceFile,
					Entity:  name,
					Message: err.Error(),
				})
				ok = false
				continue
			}
			files = append(files, model.SequenceFile{Path: path, ReadNumber: ref.read})
		}
		if !ok {
			continue
		}

		samples = append(samples, model.Sample{
			Name:      name,
			ProjectID: project,
			Files:     files,
		})
	}

	return samples, result, nil
}

func dataTable(parsed *parsers.SampleSheet, sheet string) (*parsers.SheetSection, map[string]int, error) {
	table := parsed.Section("Data")
	if table == nil {
		return nil, nil, &model.SampleSheetError{
			Sheet:   sheet,
			Message: "missing [Data] section",
		}
	}
	if len(table.Rows) == 0 {
		return nil, nil, &model.SampleSheetError{
			Sheet:   sheet,
			Line:    table.Line,
			Message: "[Data] section has no sample rows",
		}
	}

	columns := map[string]int{}
	for i, name := range table.Rows[0] {
		columns[name] = i
	}
	for _, required := range []string{columnSampleName, columnProjectID, columnFileForward, columnFileReverse} {
		if _, ok := columns[required]; !ok {
			return nil, nil, &model.SampleSheetError{
				Sheet:   sheet,
				Line:    table.RowLines[0],
				Message: "[Data] section is missing the " + required + " column",
			}
		}
	}

	return table, columns, nil
}

func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// resolveFile checks that a referenced sequence file exists, either in the
// supplied listing or on disk relative to the sheet directory.
func resolveFile(dir, sample, name string, data *parsers.DataDirectory) (string, error) {
	if data != nil {
		if listing, ok := data.Project(""); ok {
			for _, f := range listing {
				if f == name {
					return filepath.Join(data.Path, name), nil
				}
			}
		}
		return "", &model.SequenceFileError{
			Sample:  sample,
			Message: fmt.Sprintf("file %q not present in data listing", name),
		}
	}

	path := filepath.Join(dir, name)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return "", &model.SequenceFileError{
			Sample:  sample,
			Message: fmt.Sprintf("file %q not found beside the sample list", name),
		}
	}
	return path, nil
}
