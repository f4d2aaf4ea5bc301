package parsers

import (
	"os"
	"path/filepath"

	"github.com/mariellemanlulu/irida-uploader/internal/model"
)

// DataDirectory is a materialized "project directory -> file list" view of
// a run's sequence data. Parsers resolve sample files against it instead of
// touching the filesystem row by row, and non-filesystem backends (object
// stores) can supply one built from a listing.
type DataDirectory struct {
	Path     string
	Projects []ProjectFiles
}

// ProjectFiles is the file listing of one project directory. The empty
// project name holds files that sit directly in the data directory root.
type ProjectFiles struct {
	Name  string
	Files []string
}

// Project returns the file list for a project directory.
func (d *DataDirectory) Project(name string) ([]string, bool) {
	for _, p := range d.Projects {
		if p.Name == name {
			return p.Files, true
		}
	}
	return nil, false
}

// BuildDataDirectory walks a local data directory once and materializes the
// project structure. Each immediate subdirectory becomes a project entry;
// loose files at the root are collected under the empty project name.
func BuildDataDirectory(dataDir string) (*DataDirectory, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, &model.DirectoryError{
			Directory: dataDir,
			Message:   "cannot read data directory",
			Err:       err,
		}
	}

	dd := &DataDirectory{Path: dataDir}
	var loose []string

	for _, entry := range entries {
		if !entry.IsDir() {
			loose = append(loose, entry.Name())
			continue
		}

		sub, err := os.ReadDir(filepath.Join(dataDir, entry.Name()))
		if err != nil {
			return nil, &model.DirectoryError{
				Directory: filepath.Join(dataDir, entry.Name()),
				Message:   "cannot read project directory",
				Err:       err,
			}
		}

		pf := ProjectFiles{Name: entry.Name()}
		for _, s := range sub {
			if !s.IsDir() {
				pf.Files = append(pf.Files, s.Name())
			}
		}
		dd.Projects = append(dd.Projects, pf)
	}

	if len(loose) > 0 {
		dd.Projects = append(dd.Projects, ProjectFiles{Files: loose})
	}

	return dd, nil
}
