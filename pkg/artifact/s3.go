package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config configures an [S3Store].
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Prefix is prepended to every object key, e.g. "archview/".
	Prefix string
	// LinkTTL is the lifetime of presigned links. Zero means one hour.
	LinkTTL time.Duration
}

// S3Store stores artifacts in an S3-compatible bucket. The bucket is
// created on first use if missing.
type S3Store struct {
	client  *minio.Client
	bucket  string
	region  string
	prefix  string
	linkTTL time.Duration

	initOnce sync.Once
	initErr  error
}

// NewS3Store validates cfg and creates the client. No request is made
// until the first operation.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	ttl := cfg.LinkTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3Store{
		client:  client,
		bucket:  bucket,
		region:  region,
		prefix:  cfg.Prefix,
		linkTTL: ttl,
	}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Put uploads an artifact, replacing any previous version.
func (s *S3Store) Put(ctx context.Context, project, name string, data []byte) error {
	if err := validate(project, name); err != nil {
		return err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	_, err := s.client.PutObject(ctx, s.bucket, s.key(project, name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: ContentType(name),
	})
	return err
}

// Get downloads an artifact.
func (s *S3Store) Get(ctx context.Context, project, name string) ([]byte, error) {
	if err := validate(project, name); err != nil {
		return nil, err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, s.key(project, name), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// List returns the artifact names stored for project, sorted.
func (s *S3Store) List(ctx context.Context, project string) ([]string, error) {
	if err := validate(project, "x"); err != nil {
		return nil, err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	prefix := s.key(project, "")
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if name := strings.TrimPrefix(obj.Key, prefix); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// URL returns a presigned GET link valid for the configured LinkTTL.
func (s *S3Store) URL(ctx context.Context, project, name string) (string, error) {
	if err := validate(project, name); err != nil {
		return "", err
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, s.key(project, name), s.linkTTL, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (s *S3Store) key(project, name string) string {
	return objectKey(s.prefix, project, name)
}

func objectKey(prefix, project, name string) string {
	return prefix + strings.TrimSpace(project) + "/" + strings.TrimLeft(strings.TrimSpace(name), "/")
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket"
}

var _ Store = (*S3Store)(nil)
