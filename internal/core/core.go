// Package core sequences the upload pipeline: locate, parse and validate a
// run directory, then hand the resulting run model to the remote service.
package core

import (
	"fmt"

	"github.com/mariellemanlulu/irida-uploader/internal/model"
	"github.com/mariellemanlulu/irida-uploader/internal/parsers"
	"github.com/mariellemanlulu/irida-uploader/internal/parsers/directory"
	"github.com/mariellemanlulu/irida-uploader/internal/parsers/nextseq"
	"github.com/mariellemanlulu/irida-uploader/internal/validation"
)

// NewParser returns the platform parser for a configuration token. The set
// of platforms is closed; an unknown token is a configuration error.
func NewParser(name string) (parsers.Parser, error) {
	switch name {
	case "nextseq":
		return nextseq.NewParser(), nil
	case "directory":
		return directory.NewParser(), nil
	default:
		return nil, fmt.Errorf("unknown parser %q (supported: nextseq, directory)", name)
	}
}

// ParseAndValidate runs the offline half of the pipeline against a run
// directory: locate the sheet, check its sections, parse metadata and
// samples, validate the sample set, and build the run model.
//
// Row-level problems accumulate; the stage only stops once a whole phase
// has finished with a non-empty result, returning a *parsers.ValidationError
// carrying every accumulated entry. Structural failures (unreadable
// directory, malformed sheet) surface as their typed errors directly.
//
// data may carry a pre-built listing of the sequence data directory; nil
// means resolve files against the local filesystem.
func ParseAndValidate(p parsers.Parser, dir string, data *parsers.DataDirectory) (*model.SequencingRun, error) {
	sheetPath, err := p.FindSampleSheet(dir)
	if err != nil {
		return nil, err
	}

	sheet, err := parsers.ReadSampleSheet(sheetPath)
	if err != nil {
		return nil, err
	}

	if result := validation.ValidateSheet(sheet, p.RequiredSections()); !result.IsValid() {
		return nil, &parsers.ValidationError{
			Message: fmt.Sprintf("sample sheet %s is missing required sections", sheetPath),
			Result:  result,
		}
	}

	metadata, err := p.ParseMetadata(sheetPath)
	if err != nil {
		return nil, err
	}

	samples, resolution, err := p.ParseSamples(sheetPath, data)
	if err != nil {
		return nil, err
	}

	result := resolution
	result.Merge(validation.ValidateSamples(samples))
	if !result.IsValid() {
		return nil, &parsers.ValidationError{
			Message: fmt.Sprintf("run in %s failed validation", dir),
			Result:  result,
		}
	}

	run, err := model.BuildSequencingRun(samples, metadata)
	if err != nil {
		return nil, err
	}
	return run, nil
}
