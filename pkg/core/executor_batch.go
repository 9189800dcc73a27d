package core

import (
	"context"
	"fmt"
)

// DefaultBatchSize is the number of deletes issued before the context is rechecked
const DefaultBatchSize = 25

// BatchDeleteResult represents the result of a batch delete operation
type BatchDeleteResult struct {
	UnprocessedKeys []ItemKey
	Errors          []error
	Succeeded       int
	Failed          int
}

// BatchDeleteExecutor deletes documents by key in fixed-size batches
type BatchDeleteExecutor struct {
	container Container
	batchSize int
}

// NewBatchDeleteExecutor creates a new batch delete executor. A batchSize
// below one uses DefaultBatchSize.
func NewBatchDeleteExecutor(container Container, batchSize int) *BatchDeleteExecutor {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &BatchDeleteExecutor{
		container: container,
		batchSize: batchSize,
	}
}

// BatchDeleteWithResult deletes every key and reports per-key outcomes.
// A failed delete does not stop the batch. When ctx is done, the keys not
// yet attempted are reported as unprocessed and the context error is returned.
func (e *BatchDeleteExecutor) BatchDeleteWithResult(ctx context.Context, keys []ItemKey) (*BatchDeleteResult, error) {
	result := &BatchDeleteResult{
		Errors: make([]error, 0),
	}
	if len(keys) == 0 {
		return result, nil
	}

	for i := 0; i < len(keys); i += e.batchSize {
		if err := ctx.Err(); err != nil {
			result.UnprocessedKeys = append(result.UnprocessedKeys, keys[i:]...)
			result.Failed += len(keys) - i
			return result, err
		}

		end := i + e.batchSize
		if end > len(keys) {
			end = len(keys)
		}

		for _, key := range keys[i:end] {
			if err := e.container.DeleteItem(ctx, key.ID, key.PartitionKey); err != nil {
				result.Failed++
				result.UnprocessedKeys = append(result.UnprocessedKeys, key)
				result.Errors = append(result.Errors, fmt.Errorf("failed to delete item %s: %w", key.ID, err))
				continue
			}
			result.Succeeded++
		}
	}

	return result, nil
}
