// Package s3 implements objectstore.Store on S3-compatible storage
// (AWS S3, MinIO, R2) with minio-go.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/poiesic/docingest/objectstore"
)

var (
	// ErrEndpointRequired is returned when Config has no endpoint.
	ErrEndpointRequired = errors.New("s3 endpoint is required")

	// ErrBucketRequired is returned when Config has no bucket.
	ErrBucketRequired = errors.New("s3 bucket is required")
)

// Config locates the bucket and carries credentials.
type Config struct {
	// Endpoint is host[:port] without scheme, e.g. "s3.amazonaws.com".
	Endpoint     string
	Bucket       string
	AccessKey    string
	SecretKey    string
	SessionToken string
	Region       string
	Secure       bool
}

// Store is an objectstore.Store backed by one bucket.
type Store struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// Option is a functional option for configuring a Store.
type Option func(*Store) error

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "s3-store")
		return nil
	}
}

// New connects to the endpoint described by cfg. No request is made until
// the first operation.
func New(cfg Config, opts ...Option) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, ErrEndpointRequired
	}
	if cfg.Bucket == "" {
		return nil, ErrBucketRequired
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	s := &Store{
		client: client,
		bucket: cfg.Bucket,
		logger: slog.Default().With("component", "s3-store"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// EnsureBucket creates the bucket when it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	s.logger.Info("creating bucket", "bucket", s.bucket)
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
}

// Get downloads key with its user metadata.
func (s *Store) Get(ctx context.Context, key string) (*objectstore.Object, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapError(key, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, s.mapError(key, err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapError(key, err)
	}

	return &objectstore.Object{
		Key:         key,
		Data:        data,
		ContentType: info.ContentType,
		Metadata:    info.UserMetadata,
	}, nil
}

// Put uploads data under key.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType:  contentType,
			UserMetadata: metadata,
		})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	s.logger.Debug("stored object", "key", key, "bytes", len(data))
	return nil
}

// Delete removes key. S3 reports success for missing keys.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Presign returns a GET URL for key valid for ttl. Signing happens locally.
func (s *Store) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

// List returns every key under prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, info.Err)
		}
		keys = append(keys, info.Key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) mapError(key string, err error) error {
	if minio.ToErrorResponse(err).Code == minio.NoSuchKey {
		return fmt.Errorf("%w: %s", objectstore.ErrObjectNotFound, key)
	}
	return fmt.Errorf("get %s: %w", key, err)
}

var _ objectstore.Store = (*Store)(nil)
