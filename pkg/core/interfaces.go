// Package core defines the core interfaces and types for CosmORM
package core

import (
	"context"

	"github.com/pay-theory/cosmorm/pkg/condition"
)

// Container is the document store boundary. Items travel as JSON documents;
// the repository never executes anything itself.
type Container interface {
	// CreateItem stores a new document and returns the stored version
	CreateItem(ctx context.Context, partitionKey string, item []byte) ([]byte, error)

	// ReadItem returns a document by id. Missing documents yield errors.ErrItemNotFound.
	ReadItem(ctx context.Context, id, partitionKey string) ([]byte, error)

	// ReplaceItem overwrites a document and returns the stored version
	ReplaceItem(ctx context.Context, id, partitionKey string, item []byte) ([]byte, error)

	// DeleteItem removes a document
	DeleteItem(ctx context.Context, id, partitionKey string) error

	// QueryItems runs a parameterized statement and returns every result, one
	// JSON value per element. Statements without a partition key fan out
	// across partitions.
	QueryItems(ctx context.Context, stmt Statement) ([][]byte, error)
}

// Statement is a complete query ready for execution. PartitionKey targets a
// single logical partition; aggregates and ORDER BY / OFFSET queries need one
// on multi-partition containers.
type Statement struct {
	Query        string                `json:"query"`
	Parameters   []condition.Parameter `json:"parameters"`
	PartitionKey string                `json:"partitionKey,omitempty"`
}

// QueryOptions controls ordering, paging and projection of list queries.
// Zero values fall back to the defaults below.
type QueryOptions struct {
	Select         []string
	OrderBy        string
	OrderDirection string
	Limit          int
	Offset         int

	// PartitionKey pins the query to one partition and takes precedence
	// over a scoped partition key
	PartitionKey string
}

// Query option defaults
const (
	DefaultLimit          = 20
	DefaultOrderBy        = "createdAt"
	DefaultOrderDirection = "desc"
)

// WithDefaults returns a copy of the options with unset values filled in.
// A nil receiver yields the defaults.
func (o *QueryOptions) WithDefaults() QueryOptions {
	var opts QueryOptions
	if o != nil {
		opts = *o
	}
	if opts.Limit == 0 {
		opts.Limit = DefaultLimit
	}
	if opts.OrderBy == "" {
		opts.OrderBy = DefaultOrderBy
	}
	if opts.OrderDirection == "" {
		opts.OrderDirection = DefaultOrderDirection
	}
	return opts
}

// Pagination describes the page returned by a paginated query
type Pagination struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// PaginationResult contains one page of items and its metadata
type PaginationResult[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// ItemKey identifies a single document
type ItemKey struct {
	ID           string
	PartitionKey string
}
