// Package mocks provides mock implementations for CosmORM interfaces.
//
// Repositories depend on a single store boundary, core.Container, so one mock
// covers every repository operation.
//
// # Basic Usage
//
//	func TestUserService(t *testing.T) {
//	    container := new(mocks.MockContainer)
//	    container.On("QueryItems", mock.Anything, mock.Anything).
//	        Return([][]byte{[]byte(`{"id":"u-1","name":"Alice"}`)}, nil)
//
//	    repo := cosmorm.New[User](container, cosmorm.DefaultConfig())
//	    users, err := repo.Find(ctx, condition.Eq("name", "Alice"))
//
//	    container.AssertExpectations(t)
//	}
//
// # Matching Statements
//
// Use mock.MatchedBy to assert on the compiled query:
//
//	container.On("QueryItems", mock.Anything, mock.MatchedBy(func(s core.Statement) bool {
//	    return strings.HasPrefix(s.Query, "SELECT VALUE COUNT(1)")
//	})).Return([][]byte{[]byte("3")}, nil)
//
// # Error Handling
//
//	container.On("ReadItem", mock.Anything, "missing", "missing").
//	    Return(nil, customerrors.ErrItemNotFound)
package mocks

// Container is an alias for MockContainer to allow shorter declarations
type Container = MockContainer
