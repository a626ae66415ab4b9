// Package source defines where project documents come from.
//
// A [Source] lists the projects visible to the caller and returns single
// projects by id. Three implementations exist:
//
//   - backend.Client: the requirements-analysis backend over HTTP
//   - mongostore.Store: read-only access to the backend's MongoDB
//   - local.Store: a saved project list on disk, for offline use
//
// [Diagram] extracts and decodes a project's architecture diagram from any
// of them.
package source

import (
	"context"
	"time"

	apperr "github.com/matzehuels/archview/pkg/errors"
	"github.com/matzehuels/archview/pkg/graph"
)

// Source provides project documents.
type Source interface {
	Projects(ctx context.Context) ([]Project, error)
	Project(ctx context.Context, id string) (*Project, error)
}

// Project is a project document as served by the backend.
// String fields holding generated artifacts are empty until the backend
// pipeline has produced them.
type Project struct {
	ID            string    `json:"_id" bson:"_id"`
	Name          string    `json:"name" bson:"name"`
	Requirements  []string  `json:"requirements,omitempty" bson:"requirements,omitempty"`
	CreatedBy     string    `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	UpdatedBy     string    `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
	AssignedUsers []User    `json:"assignedUsers,omitempty" bson:"-"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt,omitzero" bson:"updatedAt,omitempty"`
	Revision      int       `json:"__v" bson:"__v"`
	Versions      []Version `json:"versions,omitempty" bson:"versions,omitempty"`

	TechStacks          string `json:"techStacks,omitempty" bson:"techStacks,omitempty"`
	ArchitectureDiagram string `json:"architectureDiagram,omitempty" bson:"architectureDiagram,omitempty"`
	UserPersona         string `json:"userPersona,omitempty" bson:"userPersona,omitempty"`
	EffortEstimationURL string `json:"effortEstimationUrl,omitempty" bson:"effortEstimationUrl,omitempty"`
	Wireframe           string `json:"wireframe,omitempty" bson:"wireframe,omitempty"`
}

// User is a project member.
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Version records one revision of the project's requirements.
type Version struct {
	Version   string    `json:"version" bson:"version"`
	UpdatedBy string    `json:"updatedBy" bson:"updatedBy"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// HasDiagram reports whether the backend has generated a diagram.
func (p *Project) HasDiagram() bool {
	return p != nil && p.ArchitectureDiagram != ""
}

// Find returns the project with the given id from a list.
func Find(projects []Project, id string) (*Project, error) {
	for i := range projects {
		if projects[i].ID == id {
			return &projects[i], nil
		}
	}
	return nil, apperr.New(apperr.ErrCodeProjectNotFound, "project %s not found", id)
}

// Diagram fetches a project and decodes its architecture diagram.
// A project without a diagram yields a NO_DIAGRAM error.
func Diagram(ctx context.Context, src Source, id string, shape graph.Shape) (*graph.Graph, *Project, error) {
	if err := apperr.ValidateProjectID(id); err != nil {
		return nil, nil, err
	}
	p, err := src.Project(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !p.HasDiagram() {
		return nil, p, apperr.New(apperr.ErrCodeNoDiagram, "project %q has no architecture diagram yet", p.Name)
	}
	g, err := graph.DecodeString(p.ArchitectureDiagram, shape)
	if err != nil {
		return nil, p, err
	}
	return g, p, nil
}
