// Package cloud builds run data listings from object stores.
//
// Instruments that drop their output straight into a bucket have no local
// Data/Intensities/BaseCalls tree to walk, so parsers accept a listing
// built here instead and resolve sample files against it.
package cloud

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mariellemanlulu/irida-uploader/internal/config"
	"github.com/mariellemanlulu/irida-uploader/internal/parsers"
)

// Lister produces the project directory structure of a run's sequence data
// from a remote backend.
type Lister interface {
	// ListRunData returns the project/file listing under the backend's
	// configured prefix joined with runPrefix.
	ListRunData(ctx context.Context, runPrefix string) (*parsers.DataDirectory, error)
}

// NewLister creates the listing backend selected by the configuration.
// The "none" backend returns a nil Lister: callers fall back to walking
// the local filesystem.
func NewLister(ctx context.Context, cfg *config.Config) (Lister, error) {
	switch cfg.Cloud.Backend {
	case config.CloudBackendNone, "":
		return nil, nil
	case config.CloudBackendS3:
		return NewS3Lister(ctx, cfg.Cloud)
	case config.CloudBackendAzure:
		return NewAzureLister(cfg.Cloud)
	default:
		return nil, fmt.Errorf("unknown cloud backend %q", cfg.Cloud.Backend)
	}
}

// buildListing turns a flat set of object keys, already relative to the run
// prefix, into the project directory structure. The first path segment is
// the project directory; keys without a separator are loose root files.
// Keys nested deeper than one directory are ignored, matching the local
// walk which only descends one level.
func buildListing(root string, keys []string) *parsers.DataDirectory {
	byProject := make(map[string][]string)
	var order []string

	for _, key := range keys {
		key = strings.TrimPrefix(key, "/")
		if key == "" || strings.HasSuffix(key, "/") {
			continue
		}

		parts := strings.Split(key, "/")
		var project, file string
		switch len(parts) {
		case 1:
			project, file = "", parts[0]
		case 2:
			project, file = parts[0], parts[1]
		default:
			continue
		}

		if _, seen := byProject[project]; !seen {
			order = append(order, project)
		}
		byProject[project] = append(byProject[project], file)
	}

	// Named projects first in listing order, loose root files last, the
	// same shape BuildDataDirectory produces for a local walk.
	sort.SliceStable(order, func(i, j int) bool {
		return order[i] != "" && order[j] == ""
	})

	dd := &parsers.DataDirectory{Path: root}
	for _, name := range order {
		dd.Projects = append(dd.Projects, parsers.ProjectFiles{
			Name:  name,
			Files: byProject[name],
		})
	}
	return dd
}

// joinPrefix joins a configured base prefix with a run prefix using single
// slashes, returning "" when both are empty.
func joinPrefix(base, run string) string {
	base = strings.Trim(base, "/")
	run = strings.Trim(run, "/")
	switch {
	case base == "":
		return run
	case run == "":
		return base
	default:
		return base + "/" + run
	}
}
