// Package model defines the sequencing run domain types shared by the
// parsers, the validators and the upload orchestrator.
package model

// SequenceFile is one sequence data file belonging to a sample. ReadNumber
// tags the read direction for paired-end data: 1 for the forward read, 2 for
// the reverse read.
type SequenceFile struct {
	Path       string
	ReadNumber int
}

// Sample is one logical unit within a run. Name is unique within its
// project; ProjectID references the remote project the sample uploads into.
type Sample struct {
	Name        string
	ProjectID   string
	Description string
	Files       []SequenceFile
}

// Project groups the samples destined for one remote project.
type Project struct {
	ID      string
	Samples []Sample
}

// Metadata holds the run-level key/value metadata extracted from the sample
// sheet header section. Extra carries instrument-specific fields the core
// does not interpret.
type Metadata struct {
	RunName    string
	LayoutType string // "PAIRED_END" or "SINGLE_END"
	Extra      map[string]string
}

// SequencingRun is the validated aggregate handed to the uploader. It is
// built once by BuildSequencingRun after validation succeeds and must not be
// mutated afterwards; it is discarded after the upload attempt.
type SequencingRun struct {
	Metadata Metadata
	Projects []Project
}

// SampleCount returns the total number of samples across all projects.
func (r *SequencingRun) SampleCount() int {
	n := 0
	for _, p := range r.Projects {
		n += len(p.Samples)
	}
	return n
}

// FileCount returns the total number of sequence files across all samples.
func (r *SequencingRun) FileCount() int {
	n := 0
	for _, p := range r.Projects {
		for _, s := range p.Samples {
			n += len(s.Files)
		}
	}
	return n
}

// BuildSequencingRun assembles validated samples into an immutable run
// model. Projects are ordered by first appearance in the sample list and
// samples keep their sheet order within each project. A sample with zero
// files means the parser returned an inconsistent result; that defect is
// reported as a SequenceFileError rather than silently uploaded.
func BuildSequencingRun(samples []Sample, metadata Metadata) (*SequencingRun, error) {
	run := &SequencingRun{Metadata: metadata}
	index := make(map[string]int)

	for _, s := range samples {
		if len(s.Files) == 0 {
			return nil, &SequenceFileError{
				Sample:  s.Name,
				Message: "sample has no sequence files after parsing",
			}
		}

		i, ok := index[s.ProjectID]
		if !ok {
			run.Projects = append(run.Projects, Project{ID: s.ProjectID})
			i = len(run.Projects) - 1
			index[s.ProjectID] = i
		}

		copied := s
		copied.Files = make([]SequenceFile, len(s.Files))
		copy(copied.Files, s.Files)
		run.Projects[i].Samples = append(run.Projects[i].Samples, copied)
	}

	return run, nil
}
