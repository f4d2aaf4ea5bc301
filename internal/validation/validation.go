// Package validation runs the offline structural checks on parsed sample
// sheets and sample lists. Checks never short-circuit: every row is
// inspected and every problem appended, so one pass reports everything.
package validation

import (
	"fmt"

	"github.com/mariellemanlulu/irida-uploader/internal/model"
	"github.com/mariellemanlulu/irida-uploader/internal/parsers"
)

// ValidateSheet checks that every platform-required section is present in
// the sample sheet.
func ValidateSheet(sheet *parsers.SampleSheet, requiredSections []string) model.ValidationResult {
	var result model.ValidationResult

	for _, name := range requiredSections {
		if sheet.Section(name) == nil {
			result.AddError(model.ValidationError{
				Kind:    model.KindSampleSheet,
				Entity:  sheet.Path,
				Message: fmt.Sprintf("required section [%s] is missing", name),
			})
		}
	}

	return result
}

// ValidateSamples checks the parsed sample list: no duplicate sample names
// within one project and at least one sequence file per sample.
//
// Duplicate names across different projects are allowed. Within a project
// every occurrence after the first is flagged, so N duplicates of one name
// yield exactly N errors and the first occurrence is never flagged.
func ValidateSamples(samples []model.Sample) model.ValidationResult {
	var result model.ValidationResult

	seen := make(map[string]bool, len(samples))
	for _, s := range samples {
		key := s.ProjectID + "\x00" + s.Name
		if seen[key] {
			result.AddError(model.ValidationError{
				Kind:    model.KindDuplicateSample,
				Entity:  s.Name,
				Message: fmt.Sprintf("sample name %q appears more than once in project %s", s.Name, s.ProjectID),
			})
		}
		seen[key] = true

		if len(s.Files) == 0 {
			result.AddError(model.ValidationError{
				Kind:    model.KindSequenceFile,
				Entity:  s.Name,
				Message: "sample has no resolvable sequence files",
			})
		}
	}

	return result
}
