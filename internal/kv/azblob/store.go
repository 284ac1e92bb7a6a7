// Package azblob implements a key-value store on an Azure Blob Storage
// container, one blob per key.
package azblob

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/kv"
)

// Config selects the container. The connection string carries both the
// account endpoint and its credentials.
type Config struct {
	ConnectionString string
	Container        string
	Prefix           string
}

type Store struct {
	client    *azblob.Client
	container string
	prefix    string
}

var _ kv.Backend = (*Store)(nil)

func NewStore(cfg Config) (*Store, error) {
	if cfg.ConnectionString == "" {
		return nil, fmt.Errorf("azblob store: empty connection string")
	}
	if cfg.Container == "" {
		return nil, fmt.Errorf("azblob store: empty container")
	}
	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create azblob client: %w", err)
	}
	return &Store{client: client, container: cfg.Container, prefix: cfg.Prefix}, nil
}

func (s *Store) GetString(ctx context.Context, key string) (string, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, s.prefix+key, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return "", fmt.Errorf("get %q: %w", key, kv.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", key, err)
	}
	return string(data), nil
}

func (s *Store) SetString(ctx context.Context, key, value string) error {
	_, err := s.client.UploadBuffer(ctx, s.container, s.prefix+key, []byte(value), nil)
	if err != nil {
		return fmt.Errorf("upload %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteBlob(ctx, s.container, s.prefix+key, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}
