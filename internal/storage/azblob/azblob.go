// Package azblob stores snapshots in Azure Blob Storage.
package azblob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	blobsdk "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/mmynk/splitledger/internal/storage"
)

var _ storage.Store = (*Store)(nil)

const (
	// Standard Azurite account name and key
	azuriteAccountName = "devstoreaccount1"
	azuriteAccountKey  = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
)

// blobClient is the subset of *azblob.Client the store uses.
type blobClient interface {
	CreateContainer(ctx context.Context, containerName string, o *blobsdk.CreateContainerOptions) (blobsdk.CreateContainerResponse, error)
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *blobsdk.UploadBufferOptions) (blobsdk.UploadBufferResponse, error)
	DownloadStream(ctx context.Context, containerName, blobName string, o *blobsdk.DownloadStreamOptions) (blobsdk.DownloadStreamResponse, error)
}

// Store keeps each key as a JSON blob in one container.
type Store struct {
	client    blobClient
	container string
}

// New connects to the blob service at serviceURL. http endpoints are
// treated as Azurite and use its shared key; anything else authenticates
// with DefaultAzureCredential.
func New(ctx context.Context, serviceURL, container string) (*Store, error) {
	if serviceURL == "" {
		return nil, fmt.Errorf("blob service URL is required")
	}

	slog.Info("initializing blob store", "blob_url", serviceURL, "container", container)
	var (
		client *blobsdk.Client
		err    error
	)
	if isLocal(serviceURL) {
		slog.Info("using Azurite shared key credentials for blob store")
		cred, credErr := blobsdk.NewSharedKeyCredential(azuriteAccountName, azuriteAccountKey)
		if credErr != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", credErr)
		}
		client, err = blobsdk.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	} else {
		var cred azcore.TokenCredential
		cred, err = azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = blobsdk.NewClient(serviceURL, cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return newStore(ctx, client, container)
}

func newStore(ctx context.Context, client blobClient, container string) (*Store, error) {
	_, err := client.CreateContainer(ctx, container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("failed to create container %s: %w", container, err)
	}
	return &Store{client: client, container: container}, nil
}

// isLocal checks if the service URL indicates a local environment.
func isLocal(serviceURL string) bool {
	return strings.HasPrefix(serviceURL, "http://")
}

func blobName(key string) string {
	return key + ".json"
}

// Load downloads the blob for key.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, blobName(key), nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to download blob %s/%s: %w", s.container, blobName(key), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob content: %w", err)
	}
	slog.Debug("downloaded blob", "container", s.container, "blob_name", blobName(key), "size_bytes", len(data))
	return data, nil
}

// Save uploads data as the blob for key.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	contentType := "application/json"
	_, err := s.client.UploadBuffer(ctx, s.container, blobName(key), data, &blobsdk.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("failed to upload blob %s/%s: %w", s.container, blobName(key), err)
	}
	slog.Debug("uploaded blob", "container", s.container, "blob_name", blobName(key), "size_bytes", len(data))
	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *Store) Close() error {
	return nil
}
