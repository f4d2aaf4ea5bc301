package parsers

import (
	"os"
	"path/filepath"

	"github.com/mariellemanlulu/irida-uploader/internal/model"
	"github.com/mariellemanlulu/irida-uploader/internal/status"
)

// RunDirectory is one candidate run directory found by a scan, classified
// by required-file presence and stored upload status.
type RunDirectory struct {
	Path         string
	Status       status.DirectoryStatus
	MissingFiles []string
}

// HasRequiredFiles reports whether every platform-required file is present.
func (r RunDirectory) HasRequiredFiles() bool {
	return len(r.MissingFiles) == 0
}

// DirectoryStatusOf classifies a single run directory. A directory lacking
// any required file is Invalid regardless of its marker; the marker on disk
// is left untouched. Otherwise the persisted status (or New) is returned.
func DirectoryStatusOf(directory string, required []string) (RunDirectory, error) {
	run := RunDirectory{Path: directory}

	for _, name := range required {
		if _, err := os.Stat(filepath.Join(directory, name)); err != nil {
			run.MissingFiles = append(run.MissingFiles, name)
		}
	}
	if len(run.MissingFiles) > 0 {
		run.Status = status.Invalid
		return run, nil
	}

	st, err := status.Read(directory)
	if err != nil {
		return run, err
	}
	run.Status = st
	return run, nil
}

// FindRuns classifies every immediate child directory of root. Invalid
// directories are still reported so callers can surface them for
// diagnostics; they are never uploaded.
func FindRuns(root string, p Parser) ([]RunDirectory, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &model.DirectoryError{
			Directory: root,
			Message:   "cannot read run root directory",
			Err:       err,
		}
	}

	required := p.RequiredFiles()
	var runs []RunDirectory
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		run, err := DirectoryStatusOf(filepath.Join(root, entry.Name()), required)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, nil
}

// FindFirstNewRun returns the first child directory of root that has every
// required file and a New status. An empty result is not an error: the
// second return is false when no new run exists.
func FindFirstNewRun(root string, p Parser) (RunDirectory, bool, error) {
	runs, err := FindRuns(root, p)
	if err != nil {
		return RunDirectory{}, false, err
	}

	for _, run := range runs {
		if run.Status == status.New && run.HasRequiredFiles() {
			return run, true, nil
		}
	}
	return RunDirectory{}, false, nil
}
