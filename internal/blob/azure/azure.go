// Package azure is an Azure Blob Storage implementation of blob interface.
package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	azureblob "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/Decentr-net/odyssey/internal/blob"
)

// Store ...
type Store struct {
	client *azblob.Client
}

// Open builds a client from the connection string. It doesn't touch the network.
func Open(raw string) (*Store, error) {
	cs, err := ParseConnectionString(raw)
	if err != nil {
		return nil, err
	}

	cred, err := azblob.NewSharedKeyCredential(cs.AccountName, cs.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid account key", blob.ErrConfiguration)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(cs.ServiceURL(), cred, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create client: %v", blob.ErrConfiguration, err)
	}

	return &Store{client: client}, nil
}

// Opener returns blob.Opener resolving the connection string on use.
func Opener(raw string) blob.Opener {
	return blob.Lazy(func(_ context.Context) (blob.Store, error) {
		s, err := Open(raw)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// EnsureContainer ...
func (s *Store) EnsureContainer(ctx context.Context, container string) error {
	if _, err := s.client.CreateContainer(ctx, container, nil); err != nil {
		if bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			return nil
		}
		return fmt.Errorf("%w: failed to create container %s: %w", blob.ErrUnavailable, container, err)
	}

	return nil
}

// Put ...
func (s *Store) Put(ctx context.Context, container, name string, data []byte, contentType string) (string, error) {
	if _, err := s.client.UploadBuffer(ctx, container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &azureblob.HTTPHeaders{
			BlobContentType: to.Ptr(contentType),
		},
	}); err != nil {
		return "", fmt.Errorf("%w: failed to upload %s: %w", blob.ErrUnavailable, name, err)
	}

	return s.url(container, name), nil
}

// Ping ...
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.ServiceClient().GetProperties(ctx, nil); err != nil {
		return fmt.Errorf("%w: %w", blob.ErrUnavailable, err)
	}

	return nil
}

func (s *Store) url(container, name string) string {
	return s.client.ServiceClient().NewContainerClient(container).NewBlockBlobClient(name).URL()
}
