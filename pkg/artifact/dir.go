package artifact

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sort"
)

// DirStore keeps artifacts under root/<project>/<name>.
type DirStore struct {
	root string
}

// NewDirStore creates root if needed.
func NewDirStore(root string) (*DirStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &DirStore{root: abs}, nil
}

// Root returns the absolute storage directory.
func (d *DirStore) Root() string { return d.root }

func (d *DirStore) Put(_ context.Context, project, name string, data []byte) error {
	if err := validate(project, name); err != nil {
		return err
	}
	dir := filepath.Join(d.root, project)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

func (d *DirStore) Get(_ context.Context, project, name string) ([]byte, error) {
	if err := validate(project, name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(d.root, project, name))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, err
}

func (d *DirStore) List(_ context.Context, project string) ([]string, error) {
	if err := validate(project, "x"); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(d.root, project))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// URL returns a file:// link to the artifact.
func (d *DirStore) URL(_ context.Context, project, name string) (string, error) {
	if err := validate(project, name); err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(d.root, project, name))}
	return u.String(), nil
}

var _ Store = (*DirStore)(nil)
