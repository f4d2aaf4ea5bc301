package cloud

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/mariellemanlulu/irida-uploader/internal/config"
	"github.com/mariellemanlulu/irida-uploader/internal/parsers"
)

// AzureLister lists run data from an Azure blob container.
type AzureLister struct {
	client    *azblob.Client
	container string
	prefix    string
}

// NewAzureLister creates an Azure-backed lister from a storage account
// connection string.
func NewAzureLister(cfg config.CloudConfig) (*AzureLister, error) {
	if cfg.AzureContainer == "" {
		return nil, fmt.Errorf("azure backend requires azure_container")
	}
	if cfg.AzureConnectionString == "" {
		return nil, fmt.Errorf("azure backend requires azure_connection_string")
	}

	client, err := azblob.NewClientFromConnectionString(cfg.AzureConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
	}

	return &AzureLister{
		client:    client,
		container: cfg.AzureContainer,
		prefix:    cfg.AzurePrefix,
	}, nil
}

// ListRunData performs a flat listing under the run prefix and materializes
// the project directory structure from the blob names.
func (l *AzureLister) ListRunData(ctx context.Context, runPrefix string) (*parsers.DataDirectory, error) {
	prefix := joinPrefix(l.prefix, runPrefix)
	listPrefix := prefix
	if listPrefix != "" {
		listPrefix += "/"
	}

	pager := l.client.NewListBlobsFlatPager(l.container, &azblob.ListBlobsFlatOptions{
		Prefix: &listPrefix,
	})

	var keys []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list container %s prefix %s: %w",
				l.container, listPrefix, err)
		}
		for _, blob := range page.Segment.BlobItems {
			if blob.Name == nil {
				continue
			}
			keys = append(keys, strings.TrimPrefix(*blob.Name, listPrefix))
		}
	}

	root := fmt.Sprintf("azure://%s/%s", l.container, prefix)
	return buildListing(root, keys), nil
}
