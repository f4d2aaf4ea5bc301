package model

import "fmt"

// ErrorKind classifies a single validation failure.
type ErrorKind string

const (
	KindDirectory       ErrorKind = "directory"
	KindSampleSheet     ErrorKind = "sample-sheet"
	KindSequenceFile    ErrorKind = "sequence-file"
	KindDuplicateSample ErrorKind = "duplicate-sample"
	KindRemote          ErrorKind = "remote"
)

// ValidationError is a single problem discovered during validation. Entity
// names the offending object (a sample, a sheet section, a project) so the
// failure can be diagnosed without re-running the parse.
type ValidationError struct {
	Kind    ErrorKind
	Entity  string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Entity, e.Message)
}

// ValidationResult accumulates validation errors across a stage. Checks
// append every problem they find rather than stopping at the first; callers
// consult IsValid only once the stage has finished.
type ValidationResult struct {
	errors []ValidationError
}

// AddError appends a validation error to the result.
func (r *ValidationResult) AddError(e ValidationError) {
	r.errors = append(r.errors, e)
}

// Merge appends every error from other onto r. Results from multiple stages
// are concatenated, never replaced.
func (r *ValidationResult) Merge(other ValidationResult) {
	r.errors = append(r.errors, other.errors...)
}

// IsValid reports whether no errors have been recorded.
func (r *ValidationResult) IsValid() bool {
	return len(r.errors) == 0
}

// ErrorCount returns the number of recorded errors.
func (r *ValidationResult) ErrorCount() int {
	return len(r.errors)
}

// Errors returns a copy of the recorded errors in the order they were added.
func (r *ValidationResult) Errors() []ValidationError {
	out := make([]ValidationError, len(r.errors))
	copy(out, r.errors)
	return out
}
