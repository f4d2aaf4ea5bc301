package nextseq

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/mariellemanlulu/irida-uploader/internal/model"
	"github.com/mariellemanlulu/irida-uploader/internal/parsers"
)

// [Data] section columns the uploader needs.
const (
	columnSampleName    = "Sample_Name"
	columnSampleProject = "Sample_Project"
	columnDescription   = "Description"
)

// ParseSamples parses the [Data] table and resolves each sample's fastq
// files against the data directory. When data is nil the
// Data/Intensities/BaseCalls tree next to the sheet is walked once; cloud
// deployments pass a listing built from their object store instead.
//
// Resolution failures (zero matches, missing read pair, ambiguous matches)
// are accumulated per sample in the returned ValidationResult; every
// resolvable sample is still returned.
func (p *Parser) ParseSamples(sheet string, data *parsers.DataDirectory) ([]model.Sample, model.ValidationResult, error) {
	var result model.ValidationResult

	parsed, err := parsers.ReadSampleSheet(sheet)
	if err != nil {
		return nil, result, err
	}

	table := parsed.Section("Data")
	if table == nil {
		return nil, result, &model.SampleSheetError{
			Sheet:   sheet,
			Message: "missing [Data] section",
		}
	}
	if len(table.Rows) == 0 {
		return nil, result, &model.SampleSheetError{
			Sheet:   sheet,
			Line:    table.Line,
			Message: "[Data] section has no sample rows",
		}
	}

	columns := map[string]int{}
	for i, name := range table.Rows[0] {
		columns[name] = i
	}
	for _, required := range []string{columnSampleName, columnSampleProject} {
		if _, ok := columns[required]; !ok {
			return nil, result, &model.SampleSheetError{
				Sheet:   sheet,
				Line:    table.RowLines[0],
				Message: "[Data] section is missing the " + required + " column",
			}
		}
	}

	if data == nil {
		dataDir := filepath.Join(filepath.Dir(sheet), p.RelativeDataDirectory())
		data, err = parsers.BuildDataDirectory(dataDir)
		if err != nil {
			return nil, result, err
		}
	}

	// A two-entry [Reads] section means every sample needs both read
	// files; a lone forward file is a resolution error, not a
	// single-end sample.
	paired := false
	if reads := parsed.Section("Reads"); reads != nil {
		paired = readCount(reads) == 2
	}

	var samples []model.Sample
	for i, row := range table.Rows[1:] {
		line := table.RowLines[i+1]

		name := field(row, columns[columnSampleName])
		project := field(row, columns[columnSampleProject])
		if name == "" || project == "" {
			result.AddError(model.ValidationError{
				Kind:    model.KindSampleSheet,
				Entity:  fmt.Sprintf("%s:%d", sheet, line),
				Message: "sample row is missing its name or project",
			})
			continue
		}

		files, err := resolveSampleFiles(data, project, name, paired)
		if err != nil {
			result.AddError(model.ValidationError{
				Kind:    model.KindSequenceFile,
				Entity:  name,
				Message: err.Error(),
			})
			continue
		}

		sample := model.Sample{
			Name:      name,
			ProjectID: project,
			Files:     files,
		}
		if col, ok := columns[columnDescription]; ok {
			sample.Description = field(row, col)
		}
		samples = append(samples, sample)
	}

	return samples, result, nil
}

func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// resolveSampleFiles matches a sample against the Illumina fastq naming
// convention <name>_S<n>[_L<nnn>]_R<1|2>_<nnn>.fastq[.gz] inside its
// project directory. When paired is set, a missing reverse file is an
// error rather than a single-file sample.
func resolveSampleFiles(data *parsers.DataDirectory, project, name string, paired bool) ([]model.SequenceFile, error) {
	listing, ok := data.Project(project)
	if !ok {
		return nil, &model.SequenceFileError{
			Sample:  name,
			Message: fmt.Sprintf("project directory %q not found under %s", project, data.Path),
		}
	}

	pattern := regexp.MustCompile(
		"^" + regexp.QuoteMeta(name) + `_S\d+(_L\d{3})?_R([12])_\d{3}\.fastq(\.gz)?$`)

	var forward, reverse []string
	for _, f := range listing {
		m := pattern.FindStringSubmatch(f)
		if m == nil {
			continue
		}
		if m[2] == "1" {
			forward = append(forward, f)
		} else {
			reverse = append(reverse, f)
		}
	}

	switch {
	case len(forward) == 0 && len(reverse) == 0:
		return nil, &model.SequenceFileError{
			Sample:  name,
			Message: fmt.Sprintf("no sequence files found in project %q", project),
		}
	case len(forward) == 0:
		return nil, &model.SequenceFileError{
			Sample:  name,
			Message: "reverse reads found but forward read file is missing",
		}
	case paired && len(reverse) == 0:
		return nil, &model.SequenceFileError{
			Sample:  name,
			Message: "run declares paired-end reads but the reverse read file is missing",
		}
	case len(forward) > 1 || len(reverse) > 1:
		return nil, &model.SequenceFileError{
			Sample:  name,
			Message: fmt.Sprintf("ambiguous sequence file matches (%d forward, %d reverse)", len(forward), len(reverse)),
		}
	}

	files := []model.SequenceFile{
		{Path: filepath.Join(data.Path, project, forward[0]), ReadNumber: 1},
	}
	if len(reverse) == 1 {
		files = append(files, model.SequenceFile{
			Path:       filepath.Join(data.Path, project, reverse[0]),
			ReadNumber: 2,
		})
	}

	return files, nil
}
