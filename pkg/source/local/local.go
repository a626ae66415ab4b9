// Package local serves projects from a JSON file holding the backend's
// project list, as written by "archview projects --save".
package local

import (
	"context"
	"encoding/json"
	"os"

	apperr "github.com/matzehuels/archview/pkg/errors"
	"github.com/matzehuels/archview/pkg/source"
)

// Store is a read-only [source.Source] over a saved project list.
type Store struct {
	path     string
	projects []source.Project
}

// Open loads the project list at path.
func Open(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.Wrap(apperr.ErrCodeFileNotFound, err, "project file %s", path)
		}
		return nil, err
	}
	var projects []source.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "decode %s", path)
	}
	return &Store{path: path, projects: projects}, nil
}

// Save writes projects to path in the format [Open] reads.
func Save(path string, projects []source.Project) error {
	data, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Path returns the file the store was loaded from.
func (s *Store) Path() string { return s.path }

// Projects returns every project in the file.
func (s *Store) Projects(context.Context) ([]source.Project, error) {
	return s.projects, nil
}

// Project returns the project with the given id.
func (s *Store) Project(_ context.Context, id string) (*source.Project, error) {
	return source.Find(s.projects, id)
}

var _ source.Source = (*Store)(nil)
