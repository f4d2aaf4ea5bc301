// Package parsers defines the platform parser contract and the shared
// machinery for locating run directories, reading sample sheets and
// resolving sequence data directories.
package parsers

import (
	"fmt"

	"github.com/mariellemanlulu/irida-uploader/internal/model"
)

// Parser converts a platform-specific run directory into samples and run
// metadata. Platforms differ in directory layout and sheet schema but share
// this contract, keeping the upload orchestrator platform-agnostic.
//
// Implementations are selected by configuration at startup; see core.NewParser.
type Parser interface {
	// Name is the configuration token identifying the platform.
	Name() string

	// SampleSheetName is the expected sheet filename inside a run directory.
	SampleSheetName() string

	// RequiredFiles lists the files a run directory must contain before it
	// is considered a candidate for upload (the sheet plus any platform
	// sentinel such as a run-complete marker).
	RequiredFiles() []string

	// RequiredSections lists the sheet sections this platform's sheets
	// must contain. The offline validator checks them before any field
	// level parsing happens.
	RequiredSections() []string

	// RelativeDataDirectory is the path of the sequence data directory
	// relative to the sample sheet. Cloud deployments use it to derive the
	// object prefix that stands in for the local data directory.
	RelativeDataDirectory() string

	// FindSampleSheet locates the sample sheet inside a run directory. It
	// fails with a *model.DirectoryError when the directory is unreadable
	// or the sheet is absent.
	FindSampleSheet(directory string) (string, error)

	// ParseMetadata parses the sheet header section into run metadata. It
	// fails with a *model.SampleSheetError on malformed or incomplete
	// header rows.
	ParseMetadata(sheet string) (model.Metadata, error)

	// ParseSamples parses the per-sample table rows and resolves each
	// sample's sequence files, either against the supplied data directory
	// listing or by querying the filesystem when data is nil. A sample
	// whose files cannot be resolved is recorded in the returned
	// ValidationResult and skipped; parsing of the remaining rows
	// continues. The error return is reserved for structural failures
	// (unreadable sheet, missing table section).
	ParseSamples(sheet string, data *DataDirectory) ([]model.Sample, model.ValidationResult, error)
}

// ValidationError aborts a parsing stage once its accumulated validation
// result turns out non-empty. It carries the full result so every problem
// can be reported together.
type ValidationError struct {
	Message string
	Result  model.ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (%d validation errors)", e.Message, e.Result.ErrorCount())
}
