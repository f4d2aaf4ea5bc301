// Package status persists the per-directory upload status marker that makes
// uploads idempotent and resumable across process restarts.
package status

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mariellemanlulu/irida-uploader/internal/model"
)

// DirectoryStatus is the last known upload outcome for a run directory.
type DirectoryStatus string

const (
	// New means no upload has been attempted (no marker file present).
	New DirectoryStatus = "NEW"
	// Partial means an upload started but has not finished.
	Partial DirectoryStatus = "PARTIAL"
	// Complete means the run uploaded successfully.
	Complete DirectoryStatus = "COMPLETE"
	// Error means the last upload attempt failed.
	Error DirectoryStatus = "ERROR"
	// Invalid is derived when required files are missing. It is never
	// written to disk and never overwrites a persisted status.
	Invalid DirectoryStatus = "INVALID"
)

// FileName is the marker file written inside each run directory.
const FileName = "irida_uploader_status.info"

// Write persists the status marker for a run directory. The marker is
// written to a temp file and renamed into place so a crash mid-write never
// leaves a valid-looking partial token behind.
func Write(directory string, s DirectoryStatus) error {
	info, err := os.Stat(directory)
	if err != nil {
		return &model.DirectoryError{
			Directory: directory,
			Message:   "cannot stat directory for status write",
			Err:       err,
		}
	}
	if !info.IsDir() {
		return &model.DirectoryError{
			Directory: directory,
			Message:   "status target is not a directory",
		}
	}

	tmp, err := os.CreateTemp(directory, FileName+".tmp*")
	if err != nil {
		return &model.DirectoryError{
			Directory: directory,
			Message:   "directory is not writable",
			Err:       err,
		}
	}
	tmpName := tmp.Name()

	if _, err := fmt.Fprintln(tmp, string(s)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &model.DirectoryError{
			Directory: directory,
			Message:   "failed to write status marker",
			Err:       err,
		}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &model.DirectoryError{
			Directory: directory,
			Message:   "failed to close status marker",
			Err:       err,
		}
	}

	if err := os.Rename(tmpName, filepath.Join(directory, FileName)); err != nil {
		os.Remove(tmpName)
		return &model.DirectoryError{
			Directory: directory,
			Message:   "failed to move status marker into place",
			Err:       err,
		}
	}

	return nil
}

// Read returns the persisted status for a run directory. A missing marker
// means the directory is New. An unreadable or unrecognized marker is a
// DirectoryError: guessing a status here could skip or re-upload a run.
func Read(directory string) (DirectoryStatus, error) {
	data, err := os.ReadFile(filepath.Join(directory, FileName))
	if os.IsNotExist(err) {
		return New, nil
	}
	if err != nil {
		return "", &model.DirectoryError{
			Directory: directory,
			Message:   "cannot read status marker",
			Err:       err,
		}
	}

	token := DirectoryStatus(strings.TrimSpace(string(data)))
	switch token {
	case New, Partial, Complete, Error:
		return token, nil
	}
	return "", &model.DirectoryError{
		Directory: directory,
		Message:   fmt.Sprintf("unrecognized status token %q", token),
	}
}
