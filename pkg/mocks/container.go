// Package mocks provides mock implementations for CosmORM interfaces.
// These mocks are designed to be used with github.com/stretchr/testify/mock
// for unit testing applications that use CosmORM.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pay-theory/cosmorm/pkg/core"
)

// MockContainer is a mock implementation of the core.Container interface.
//
// Example usage:
//
//	container := new(mocks.MockContainer)
//	container.On("ReadItem", mock.Anything, "u-1", "u-1").Return([]byte(`{"id":"u-1"}`), nil)
type MockContainer struct {
	mock.Mock
}

var _ core.Container = (*MockContainer)(nil)

// CreateItem stores a new document
func (m *MockContainer) CreateItem(ctx context.Context, partitionKey string, item []byte) ([]byte, error) {
	args := m.Called(ctx, partitionKey, item)
	return bytesArg(args, 0), args.Error(1)
}

// ReadItem returns a document by id
func (m *MockContainer) ReadItem(ctx context.Context, id, partitionKey string) ([]byte, error) {
	args := m.Called(ctx, id, partitionKey)
	return bytesArg(args, 0), args.Error(1)
}

// ReplaceItem overwrites a document
func (m *MockContainer) ReplaceItem(ctx context.Context, id, partitionKey string, item []byte) ([]byte, error) {
	args := m.Called(ctx, id, partitionKey, item)
	return bytesArg(args, 0), args.Error(1)
}

// DeleteItem removes a document
func (m *MockContainer) DeleteItem(ctx context.Context, id, partitionKey string) error {
	args := m.Called(ctx, id, partitionKey)
	return args.Error(0)
}

// QueryItems runs a statement
func (m *MockContainer) QueryItems(ctx context.Context, stmt core.Statement) ([][]byte, error) {
	args := m.Called(ctx, stmt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]byte), args.Error(1)
}

func bytesArg(args mock.Arguments, index int) []byte {
	if args.Get(index) == nil {
		return nil
	}
	return args.Get(index).([]byte)
}
