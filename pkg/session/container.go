package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"

	"github.com/pay-theory/cosmorm/pkg/core"
	customerrors "github.com/pay-theory/cosmorm/pkg/errors"
)

// itemClient is the subset of *azcosmos.ContainerClient used by Container
type itemClient interface {
	CreateItem(ctx context.Context, partitionKey azcosmos.PartitionKey, item []byte, o *azcosmos.ItemOptions) (azcosmos.ItemResponse, error)
	ReadItem(ctx context.Context, partitionKey azcosmos.PartitionKey, itemID string, o *azcosmos.ItemOptions) (azcosmos.ItemResponse, error)
	ReplaceItem(ctx context.Context, partitionKey azcosmos.PartitionKey, itemID string, item []byte, o *azcosmos.ItemOptions) (azcosmos.ItemResponse, error)
	DeleteItem(ctx context.Context, partitionKey azcosmos.PartitionKey, itemID string, o *azcosmos.ItemOptions) (azcosmos.ItemResponse, error)
	NewQueryItemsPager(query string, partitionKey azcosmos.PartitionKey, o *azcosmos.QueryOptions) *runtime.Pager[azcosmos.QueryItemsResponse]
}

// Container adapts an azcosmos container client to core.Container
type Container struct {
	client itemClient
}

var _ core.Container = (*Container)(nil)

// NewContainer wraps a container client
func NewContainer(client *azcosmos.ContainerClient) *Container {
	return &Container{client: client}
}

// CreateItem stores a new document and returns the stored version
func (c *Container) CreateItem(ctx context.Context, partitionKey string, item []byte) ([]byte, error) {
	resp, err := c.client.CreateItem(ctx, azcosmos.NewPartitionKeyString(partitionKey), item, writeOptions())
	if err != nil {
		return nil, translateError(err)
	}
	return resp.Value, nil
}

// ReadItem returns a document by id
func (c *Container) ReadItem(ctx context.Context, id, partitionKey string) ([]byte, error) {
	resp, err := c.client.ReadItem(ctx, azcosmos.NewPartitionKeyString(partitionKey), id, nil)
	if err != nil {
		return nil, translateError(err)
	}
	return resp.Value, nil
}

// ReplaceItem overwrites a document and returns the stored version
func (c *Container) ReplaceItem(ctx context.Context, id, partitionKey string, item []byte) ([]byte, error) {
	resp, err := c.client.ReplaceItem(ctx, azcosmos.NewPartitionKeyString(partitionKey), id, item, writeOptions())
	if err != nil {
		return nil, translateError(err)
	}
	return resp.Value, nil
}

// DeleteItem removes a document
func (c *Container) DeleteItem(ctx context.Context, id, partitionKey string) error {
	if _, err := c.client.DeleteItem(ctx, azcosmos.NewPartitionKeyString(partitionKey), id, nil); err != nil {
		return translateError(err)
	}
	return nil
}

// QueryItems runs a query and drains every page. Statements without a
// partition key run across partitions, where the gateway only serves simple
// projections and filters.
func (c *Container) QueryItems(ctx context.Context, stmt core.Statement) ([][]byte, error) {
	params := make([]azcosmos.QueryParameter, len(stmt.Parameters))
	for i, p := range stmt.Parameters {
		params[i] = azcosmos.QueryParameter{Name: p.Name, Value: p.Value}
	}

	pk := azcosmos.NewPartitionKey()
	if stmt.PartitionKey != "" {
		pk = azcosmos.NewPartitionKeyString(stmt.PartitionKey)
	}

	pager := c.client.NewQueryItemsPager(stmt.Query, pk, &azcosmos.QueryOptions{
		QueryParameters: params,
	})

	items := make([][]byte, 0)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, translateError(err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

func writeOptions() *azcosmos.ItemOptions {
	return &azcosmos.ItemOptions{EnableContentResponseOnWrite: true}
}

// translateError maps Cosmos DB status codes onto the repository sentinels.
// The original error stays in the chain.
func translateError(err error) error {
	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		return err
	}

	switch respErr.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", customerrors.ErrItemNotFound, err)
	case http.StatusConflict:
		return fmt.Errorf("%w: %w", customerrors.ErrItemExists, err)
	default:
		return err
	}
}
