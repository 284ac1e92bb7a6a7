// Package gcs implements a key-value store on a Google Cloud Storage
// bucket, one object per key.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/kv"
)

// Config selects the bucket. CredentialsFile points at a service
// account key; when empty the ambient application-default credentials
// are used.
type Config struct {
	Bucket          string
	Prefix          string
	CredentialsFile string
}

type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ kv.Backend = (*Store)(nil)
var _ kv.Closer = (*Store)(nil)

func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs store: empty bucket")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) object(key string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.prefix + key)
}

func (s *Store) GetString(ctx context.Context, key string) (string, error) {
	r, err := s.object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return "", fmt.Errorf("get %q: %w", key, kv.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", key, err)
	}
	return string(data), nil
}

func (s *Store) SetString(ctx context.Context, key, value string) error {
	w := s.object(key).NewWriter(ctx)
	if _, err := w.Write([]byte(value)); err != nil {
		w.Close()
		return fmt.Errorf("write %q: %w", key, err)
	}
	// GCS uploads commit on Close; errors surface here.
	if err := w.Close(); err != nil {
		return fmt.Errorf("commit %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}
