package model

import "fmt"

// DirectoryError indicates a run directory that is missing, unreadable, or
// not writable.
type DirectoryError struct {
	Directory string
	Message   string
	Err       error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("directory %s: %s", e.Directory, e.Message)
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}

// SampleSheetError indicates a malformed metadata section in a sample sheet.
// Line is 1-based and 0 when the offending line is unknown.
type SampleSheetError struct {
	Sheet   string
	Line    int
	Message string
}

func (e *SampleSheetError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("sample sheet %s:%d: %s", e.Sheet, e.Line, e.Message)
	}
	return fmt.Sprintf("sample sheet %s: %s", e.Sheet, e.Message)
}

// SequenceFileError indicates that a sample's sequence files could not be
// resolved on disk (zero matches, a missing read pair, or ambiguous matches).
type SequenceFileError struct {
	Sample  string
	Message string
}

func (e *SequenceFileError) Error() string {
	return fmt.Sprintf("sample %s: %s", e.Sample, e.Message)
}
