// Package artifact publishes rendered diagrams.
//
// Artifacts are addressed by project id and a flat file name such as
// "architecture.svg". [S3Store] keeps them in an S3-compatible bucket and
// hands out presigned links; [DirStore] writes them below a local
// directory.
package artifact

import (
	"context"
	"errors"
	"mime"
	"path/filepath"

	apperr "github.com/matzehuels/archview/pkg/errors"
)

// ErrNotFound is returned when an artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// Store persists artifacts per project.
type Store interface {
	Put(ctx context.Context, project, name string, data []byte) error
	Get(ctx context.Context, project, name string) ([]byte, error)
	List(ctx context.Context, project string) ([]string, error)
	// URL returns a link a browser can open to fetch the artifact.
	URL(ctx context.Context, project, name string) (string, error)
}

func validate(project, name string) error {
	if err := apperr.ValidateProjectID(project); err != nil {
		return err
	}
	return apperr.ValidateArtifactName(name)
}

// ContentType guesses the MIME type of an artifact from its name.
func ContentType(name string) string {
	switch ext := filepath.Ext(name); ext {
	case ".mmd":
		return "text/vnd.mermaid; charset=utf-8"
	case ".dot":
		return "text/vnd.graphviz; charset=utf-8"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return "application/octet-stream"
	}
}
