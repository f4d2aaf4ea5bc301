// Package nextseq parses Illumina NextSeq run directories: SampleSheet.csv
// alongside an RTAComplete.txt sentinel, with demultiplexed fastq files laid
// out per project under Data/Intensities/BaseCalls.
package nextseq

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/mariellemanlulu/irida-uploader/internal/model"
	"github.com/mariellemanlulu/irida-uploader/internal/parsers"
)

const (
	sampleSheetName    = "SampleSheet.csv"
	uploadCompleteName = "RTAComplete.txt"
)

// Parser implements the parsers.Parser contract for NextSeq runs.
type Parser struct{}

// NewParser returns a NextSeq parser.
func NewParser() *Parser {
	return &Parser{}
}

// Name returns the configuration token for this platform.
func (*Parser) Name() string { return "nextseq" }

// SampleSheetName returns the expected sheet filename.
func (*Parser) SampleSheetName() string { return sampleSheetName }

// RequiredFiles returns the files a NextSeq run directory must contain.
// RTAComplete.txt is written by the instrument when base calling finishes;
// without it the run may still be mid-write.
func (*Parser) RequiredFiles() []string {
	return []string{sampleSheetName, uploadCompleteName}
}

// RequiredSections returns the sheet sections a NextSeq sheet must carry.
func (*Parser) RequiredSections() []string {
	return []string{"Header", "Reads", "Data"}
}

// RelativeDataDirectory returns the fastq directory relative to the sheet.
func (*Parser) RelativeDataDirectory() string {
	return filepath.Join("Data", "Intensities", "BaseCalls")
}

// FindSampleSheet locates SampleSheet.csv inside a run directory.
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
		Message:   "no sample sheet in the NextSeq format with the name " + sampleSheetName,
	}
}

// ParseMetadata parses the [Header] and [Reads] sections into run metadata.
func (p *Parser) ParseMetadata(sheet string) (model.Metadata, error) {
	parsed, err := parsers.ReadSampleSheet(sheet)
	if err != nil {
		return model.Metadata{}, err
	}

	header := parsed.Section("Header")
	if header == nil {
		return model.Metadata{}, &model.SampleSheetError{
			Sheet:   sheet,
			Message: "missing [Header] section",
		}
	}

	kv := header.KeyValues()
	runName, ok := kv["Experiment Name"]
	if !ok || runName == "" {
		return model.Metadata{}, &model.SampleSheetError{
			Sheet:   sheet,
			Line:    header.Line,
			Message: "[Header] section has no Experiment Name",
		}
	}

	reads := parsed.Section("Reads")
	if reads == nil {
		return model.Metadata{}, &model.SampleSheetError{
			Sheet:   sheet,
			Message: "missing [Reads] section",
		}
	}

	layout := ""
	switch readCount(reads) {
	case 1:
		layout = "SINGLE_END"
	case 2:
		layout = "PAIRED_END"
	default:
		return model.Metadata{}, &model.SampleSheetError{
			Sheet:   sheet,
			Line:    reads.Line,
			Message: "[Reads] section must declare one or two read lengths",
		}
	}

	return model.Metadata{
		RunName:    runName,
		LayoutType: layout,
		Extra:      kv,
	}, nil
}

// readCount counts the read-length entries of a [Reads] section, ignoring
// rows that do not carry a positive integer.
func readCount(reads *parsers.SheetSection) int {
	n := 0
	for _, row := range reads.Rows {
		if len(row) == 0 {
			continue
		}
		if v, err := strconv.Atoi(row[0]); err == nil && v > 0 {
			n++
		}
	}
	return n
}
