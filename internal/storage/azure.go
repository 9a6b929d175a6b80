package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// BlobStore keeps objects as block blobs in a single Azure container.
type BlobStore struct {
	client    *azblob.Client
	container string
}

var _ Store = (*BlobStore)(nil)

func NewBlobStore(accountName, accountKey, container string) (*BlobStore, error) {
	if accountName == "" || accountKey == "" {
		return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT_NAME and AZURE_STORAGE_PRIMARY_ACCOUNT_KEY")
	}

	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(fmt.Sprintf("https://%s.blob.core.windows.net/", accountName), cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}

	return &BlobStore{client: client, container: container}, nil
}

func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	stream, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("download blob %s: %w", key, err)
	}
	defer stream.Body.Close()

	data, err := io.ReadAll(stream.Body)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}
	return data, nil
}

func (s *BlobStore) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.client.UploadStream(ctx, s.container, key, bytes.NewReader(value), nil); err != nil {
		return fmt.Errorf("upload blob %s: %w", key, err)
	}
	return nil
}
