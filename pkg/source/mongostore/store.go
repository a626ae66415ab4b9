// Package mongostore reads project documents straight from the backend's
// MongoDB database. It is meant for operators running next to the database;
// it never writes.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	apperr "github.com/matzehuels/archview/pkg/errors"
	"github.com/matzehuels/archview/pkg/source"
)

// DefaultCollection is the collection the backend stores projects in.
const DefaultCollection = "projects"

// Config configures a [Store].
type Config struct {
	URI        string
	Database   string
	Collection string
	// Member restricts listings to projects assigned to this user id.
	Member string
	// Timeout bounds connecting and each query. Zero means 10s.
	Timeout time.Duration
}

// Store is a read-only [source.Source] over MongoDB.
type Store struct {
	client  *mongo.Client
	coll    *mongo.Collection
	member  string
	timeout time.Duration
}

// Open connects to MongoDB and verifies the connection with a ping.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" || cfg.Database == "" {
		return nil, apperr.New(apperr.ErrCodeInvalidInput, "mongo uri and database are required")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeNetwork, err, "connect mongo")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, apperr.Wrap(apperr.ErrCodeNetwork, err, "ping mongo")
	}

	return &Store{
		client:  client,
		coll:    client.Database(cfg.Database).Collection(cfg.Collection),
		member:  cfg.Member,
		timeout: cfg.Timeout,
	}, nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Projects lists projects, newest first.
func (s *Store) Projects(ctx context.Context) ([]source.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.coll.Find(ctx, listFilter(s.member), opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeNetwork, err, "list projects")
	}
	projects := []source.Project{}
	if err := cur.All(ctx, &projects); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInternal, err, "decode projects")
	}
	return projects, nil
}

// Project returns one project by id.
func (s *Store) Project(ctx context.Context, id string) (*source.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var p source.Project
	err := s.coll.FindOne(ctx, idFilter(id)).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.New(apperr.ErrCodeProjectNotFound, "project %s not found", id)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeNetwork, err, "get project %s", id)
	}
	return &p, nil
}

// idFilter matches _id as an ObjectID when id is hex, else as a string.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": oid}
	}
	return bson.M{"_id": id}
}

func listFilter(member string) bson.M {
	if member == "" {
		return bson.M{}
	}
	if oid, err := primitive.ObjectIDFromHex(member); err == nil {
		return bson.M{"assignedUsers": oid}
	}
	return bson.M{"assignedUsers": member}
}

var _ source.Source = (*Store)(nil)
