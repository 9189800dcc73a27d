package cosmorm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pay-theory/cosmorm/pkg/condition"
	"github.com/pay-theory/cosmorm/pkg/core"
	customerrors "github.com/pay-theory/cosmorm/pkg/errors"
	"github.com/pay-theory/cosmorm/pkg/mocks"
)

type User struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenantId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Slug      string `json:"slug,omitempty"`
	Age       int    `json:"age,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	DeletedAt string `json:"deletedAt,omitempty"`
}

var fixedNow = time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

const nowText = "2026-03-01T12:30:00.000Z"

func newTestRepo(t *testing.T, cfg Config) (*Repository[User], *mocks.MockContainer) {
	t.Helper()
	container := new(mocks.MockContainer)
	repo := New[User](container, cfg)
	repo.now = func() time.Time { return fixedNow }
	repo.newID = func() string { return "uuid-1" }
	t.Cleanup(func() { container.AssertExpectations(t) })
	return repo, container
}

// statementFor matches a statement by query text and parameter values in order
func statementFor(query string, values ...any) any {
	return mock.MatchedBy(func(s core.Statement) bool {
		if s.Query != query || len(s.Parameters) != len(values) {
			return false
		}
		for i, v := range values {
			if s.Parameters[i].Value != v {
				return false
			}
		}
		return true
	})
}

// inPartition matches a statement by query text and target partition
func inPartition(query, partitionKey string) any {
	return mock.MatchedBy(func(s core.Statement) bool {
		return s.Query == query && s.PartitionKey == partitionKey
	})
}

func captureBody(t *testing.T, index int, into *map[string]any) func(mock.Arguments) {
	return func(args mock.Arguments) {
		require.NoError(t, json.Unmarshal(args.Get(index).([]byte), into))
	}
}

func TestNew_Defaults(t *testing.T) {
	repo := New[User](new(mocks.MockContainer), Config{})
	assert.Equal(t, "User", repo.model)
	assert.NotNil(t, repo.logger)

	named := New[*User](nil, Config{ModelName: "Account"})
	assert.Equal(t, "Account", named.model)

	cfg := DefaultConfig()
	assert.Equal(t, 100*time.Millisecond, cfg.DeadlineBuffer)
	assert.Equal(t, condition.NestOr, cfg.MergePolicy)
}

func TestNew_CopiesScope(t *testing.T) {
	scope := map[string]any{"tenantId": "t-1"}
	repo := New[User](nil, Config{Scope: scope})
	scope["tenantId"] = "t-2"
	assert.Equal(t, "t-1", repo.scope["tenantId"])
}

func TestCompileAndBuildSelect(t *testing.T) {
	text, params, err := Compile(condition.Eq("status", "active"))
	require.NoError(t, err)
	assert.Equal(t, "c.status = @param0", text)
	assert.Equal(t, []condition.Parameter{{Name: "@param0", Value: "active"}}, params)

	text, params, err = Compile(nil)
	require.NoError(t, err)
	assert.Equal(t, "1=1", text)
	assert.Empty(t, params)

	_, _, err = Compile(condition.Eq("a;b", 1))
	assert.ErrorIs(t, err, customerrors.ErrInvalidField)

	sel, err := BuildSelect("id", "email")
	require.NoError(t, err)
	assert.Equal(t, "c.id, c.email", sel)

	sel, err = BuildSelect()
	require.NoError(t, err)
	assert.Equal(t, "*", sel)
}

func TestRepository_Count(t *testing.T) {
	repo, container := newTestRepo(t, Config{Scope: map[string]any{"tenantId": "t-1"}})
	container.On("QueryItems", mock.Anything,
		statementFor("SELECT VALUE COUNT(1) FROM c WHERE (c.tenantId = @param0 AND c.status = @param1)", "t-1", "active"),
	).Return([][]byte{[]byte("42")}, nil).Once()

	n, err := repo.Count(context.Background(), condition.Eq("status", "active"))
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)
}

func TestRepository_CountEmptyResult(t *testing.T) {
	repo, container := newTestRepo(t, Config{})
	container.On("QueryItems", mock.Anything, statementFor("SELECT VALUE COUNT(1) FROM c WHERE 1=1")).
		Return([][]byte{}, nil).Once()

	n, err := repo.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRepository_QueriesTargetScopedPartition(t *testing.T) {
	t.Run("ScopeOnPartitionKey", func(t *testing.T) {
		repo, container := newTestRepo(t, Config{
			PartitionKeyField: "tenantId",
			Scope:             map[string]any{"tenantId": "t-1"},
		})
		container.On("QueryItems", mock.Anything,
			inPartition("SELECT VALUE COUNT(1) FROM c WHERE (c.tenantId = @param0)", "t-1"),
		).Return([][]byte{[]byte("3")}, nil).Once()
		container.On("QueryItems", mock.Anything,
			inPartition("SELECT * FROM c WHERE (c.tenantId = @param0) ORDER BY c.createdAt DESC OFFSET 0 LIMIT 20", "t-1"),
		).Return([][]byte{}, nil).Once()
		container.On("QueryItems", mock.Anything,
			inPartition("SELECT VALUE COUNT(1) FROM c WHERE (c.tenantId = @param0)", "t-1"),
		).Return([][]byte{[]byte("0")}, nil).Once()

		n, err := repo.Count(context.Background(), nil)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)

		_, err = repo.FindWithPagination(context.Background(), nil, nil)
		require.NoError(t, err)
	})

	t.Run("OptionsOverrideScope", func(t *testing.T) {
		repo, container := newTestRepo(t, Config{
			PartitionKeyField: "tenantId",
			Scope:             map[string]any{"tenantId": "t-1"},
		})
		container.On("QueryItems", mock.Anything,
			inPartition("SELECT * FROM c WHERE (c.tenantId = @param0) ORDER BY c.createdAt DESC OFFSET 0 LIMIT 1", "t-2"),
		).Return([][]byte{[]byte(`{"id":"u-1"}`)}, nil).Once()

		_, err := repo.FindFirst(context.Background(), nil, &core.QueryOptions{PartitionKey: "t-2"})
		require.NoError(t, err)
	})

	t.Run("ScopeOnOtherProperty", func(t *testing.T) {
		repo, container := newTestRepo(t, Config{
			PartitionKeyField: "tenantId",
			Scope:             map[string]any{"region": "eu"},
		})
		container.On("QueryItems", mock.Anything,
			inPartition("SELECT VALUE COUNT(1) FROM c WHERE (c.region = @param0)", ""),
		).Return([][]byte{[]byte("1")}, nil).Once()

		_, err := repo.Count(context.Background(), nil)
		require.NoError(t, err)
	})

	t.Run("ExplicitPaginationKey", func(t *testing.T) {
		repo, container := newTestRepo(t, Config{})
		container.On("QueryItems", mock.Anything,
			inPartition("SELECT * FROM c WHERE 1=1 ORDER BY c.createdAt DESC OFFSET 0 LIMIT 20", "u-1"),
		).Return([][]byte{}, nil).Once()
		container.On("QueryItems", mock.Anything,
			inPartition("SELECT VALUE COUNT(1) FROM c WHERE 1=1", "u-1"),
		).Return([][]byte{[]byte("0")}, nil).Once()

		_, err := repo.FindWithPagination(context.Background(), nil, &core.QueryOptions{PartitionKey: "u-1"})
		require.NoError(t, err)
	})
}

func TestRepository_InvalidFilterNeverReachesStore(t *testing.T) {
	repo, _ := newTestRepo(t, Config{})
	ctx := context.Background()

	_, err := repo.Count(ctx, condition.Where("name", condition.Operator("DROP"), 1))
	assert.ErrorIs(t, err, customerrors.ErrInvalidOperator)
	assert.True(t, customerrors.IsBadRequest(err))

	_, err = repo.Find(ctx, condition.Eq("name", "x"), "id; DROP")
	assert.ErrorIs(t, err, customerrors.ErrInvalidField)

	_, err = repo.FindWithPagination(ctx, nil, &core.QueryOptions{OrderDirection: "sideways"})
	assert.ErrorIs(t, err, customerrors.ErrInvalidOptions)

	_, err = repo.FindFirst(ctx, nil, &core.QueryOptions{OrderBy: "created at"})
	assert.ErrorIs(t, err, customerrors.ErrInvalidField)

	var ormErr *customerrors.CosmORMError
	require.True(t, errors.As(err, &ormErr))
	assert.Equal(t, "find_first", ormErr.Op)
	assert.Equal(t, "User", ormErr.Model)
}

func TestRepository_FindByID(t *testing.T) {
	repo, container := newTestRepo(t, Config{})
	ctx := context.Background()

	container.On("ReadItem", mock.Anything, "u-1", "u-1").
		Return([]byte(`{"id":"u-1","email":"a@example.com","age":30}`), nil).Once()
	container.On("ReadItem", mock.Anything, "u-2", "t-1").
		Return(nil, fmt.Errorf("%w: 404", customerrors.ErrItemNotFound)).Once()

	user, err := repo.FindByID(ctx, "u-1", "")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", user.Email)
	assert.Equal(t, 30, user.Age)

	_, err = repo.FindByID(ctx, "u-2", "t-1")
	assert.True(t, customerrors.IsNotFound(err))
}

func TestRepository_Find(t *testing.T) {
	repo, container := newTestRepo(t, Config{ExcludeSoftDeleted: true})
	container.On("QueryItems", mock.Anything,
		statementFor("SELECT c.id, c.email FROM c WHERE (c.status = @param0 AND NOT IS_DEFINED(c.deletedAt))", "active"),
	).Return([][]byte{[]byte(`{"id":"u-1","email":"a@example.com"}`), []byte(`{"id":"u-2"}`)}, nil).Once()

	users, err := repo.Find(context.Background(), condition.Eq("status", "active"), "id", "email")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u-1", users[0].ID)
	assert.Equal(t, "u-2", users[1].ID)
}

func TestRepository_FindStoreFailure(t *testing.T) {
	repo, container := newTestRepo(t, Config{})
	boom := errors.New("service unavailable")
	container.On("QueryItems", mock.Anything, mock.Anything).Return(nil, boom).Once()

	_, err := repo.Find(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
	assert.False(t, customerrors.IsBadRequest(err))
}

func TestRepository_FindFirst(t *testing.T) {
	t.Run("NaturalOrder", func(t *testing.T) {
		repo, container := newTestRepo(t, Config{})
		container.On("QueryItems", mock.Anything, statementFor("SELECT TOP 1 * FROM c WHERE c.email = @param0", "a@example.com")).
			Return([][]byte{[]byte(`{"id":"u-1"}`)}, nil).Once()

		user, err := repo.FindFirst(context.Background(), condition.Eq("email", "a@example.com"), nil)
		require.NoError(t, err)
		assert.Equal(t, "u-1", user.ID)
	})

	t.Run("OrderedLimitOne", func(t *testing.T) {
		repo, container := newTestRepo(t, Config{})
		opts := &core.QueryOptions{OrderBy: "age", OrderDirection: "asc", Limit: 50, Offset: 3}
		container.On("QueryItems", mock.Anything,
			statementFor("SELECT * FROM c WHERE 1=1 ORDER BY c.age ASC OFFSET 3 LIMIT 1"),
		).Return([][]byte{[]byte(`{"id":"u-4"}`)}, nil).Once()

		user, err := repo.FindFirst(context.Background(), nil, opts)
		require.NoError(t, err)
		assert.Equal(t, "u-4", user.ID)
		assert.Equal(t, 50, opts.Limit, "caller options are not modified")
	})

	t.Run("NoMatch", func(t *testing.T) {
		repo, container := newTestRepo(t, Config{})
		container.On("QueryItems", mock.Anything, mock.Anything).Return([][]byte{}, nil).Once()

		_, err := repo.FindFirst(context.Background(), nil, nil)
		assert.True(t, customerrors.IsNotFound(err))
	})
}

func TestRepository_FindWithPagination(t *testing.T) {
	repo, container := newTestRepo(t, Config{Scope: map[string]any{"tenantId": "t-1"}})
	container.On("QueryItems", mock.Anything,
		statementFor("SELECT * FROM c WHERE (c.tenantId = @param0) ORDER BY c.createdAt DESC OFFSET 0 LIMIT 20", "t-1"),
	).Return([][]byte{[]byte(`{"id":"u-1"}`), []byte(`{"id":"u-2"}`)}, nil).Once()
	container.On("QueryItems", mock.Anything,
		statementFor("SELECT VALUE COUNT(1) FROM c WHERE (c.tenantId = @param0)", "t-1"),
	).Return([][]byte{[]byte("57")}, nil).Once()

	page, err := repo.FindWithPagination(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, core.Pagination{Total: 57, Limit: 20, Offset: 0}, page.Pagination)
}

func TestRepository_FindWithPaginationOrOrderedScope(t *testing.T) {
	repo, container := newTestRepo(t, Config{Scope: map[string]any{"tenantId": "t-1"}})
	filter := condition.Any(condition.Eq("status", "active"), condition.Eq("status", "pending"))
	opts := &core.QueryOptions{Select: []string{"id"}, OrderBy: "name", OrderDirection: "ASC", Limit: 5, Offset: 10}

	container.On("QueryItems", mock.Anything, statementFor(
		"SELECT c.id FROM c WHERE (c.tenantId = @param0 AND (c.status = @param1 OR c.status = @param2)) ORDER BY c.name ASC OFFSET 10 LIMIT 5",
		"t-1", "active", "pending",
	)).Return([][]byte{[]byte(`{"id":"u-1"}`)}, nil).Once()
	container.On("QueryItems", mock.Anything, statementFor(
		"SELECT VALUE COUNT(1) FROM c WHERE (c.tenantId = @param0 AND (c.status = @param1 OR c.status = @param2))",
		"t-1", "active", "pending",
	)).Return([][]byte{[]byte("11")}, nil).Once()

	page, err := repo.FindWithPagination(context.Background(), filter, opts)
	require.NoError(t, err)
	assert.Equal(t, core.Pagination{Total: 11, Limit: 5, Offset: 10}, page.Pagination)
}

func TestRepository_Create(t *testing.T) {
	repo, container := newTestRepo(t, Config{})
	var stored map[string]any
	container.On("CreateItem", mock.Anything, "usr-uuid-1", mock.Anything).
		Run(captureBody(t, 2, &stored)).
		Return(nil, nil).Once()

	user, err := repo.Create(context.Background(), User{
		Email: "a@example.com",
		Slug:  "{id}@{now}",
		Name:  "{unknown}",
		Age:   30,
	}, CreateOptions{PrefixID: "usr"})
	require.NoError(t, err)

	assert.Equal(t, "usr-uuid-1", user.ID)
	assert.Equal(t, "usr-uuid-1@"+nowText, user.Slug)
	assert.Equal(t, "{unknown}", user.Name)
	assert.Equal(t, nowText, user.CreatedAt)
	assert.Equal(t, nowText, user.UpdatedAt)
	assert.Equal(t, 30, user.Age)

	assert.Equal(t, "usr-uuid-1", stored["id"])
	assert.Equal(t, nowText, stored["createdAt"])
	assert.EqualValues(t, 30, stored["age"])
}

func TestRepository_CreateKeepsOwnIDAndUsesPartitionKeyField(t *testing.T) {
	repo, container := newTestRepo(t, Config{PartitionKeyField: "tenantId"})
	container.On("CreateItem", mock.Anything, "t-1", mock.Anything).
		Return([]byte(`{"id":"u-1","tenantId":"t-1","slug":"u-1","createdAt":"`+nowText+`"}`), nil).Once()

	user, err := repo.Create(context.Background(), User{ID: "u-1", TenantID: "t-1", Slug: "{id}"}, CreateOptions{PrefixID: "usr"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, "u-1", user.Slug)
}

func TestRepository_CreatePartitionKeyFallsBackToID(t *testing.T) {
	repo, container := newTestRepo(t, Config{PartitionKeyField: "tenantId"})
	container.On("CreateItem", mock.Anything, "uuid-1", mock.Anything).Return(nil, nil).Once()

	_, err := repo.Create(context.Background(), User{Email: "a@example.com"}, CreateOptions{})
	require.NoError(t, err)
}

func TestRepository_CreateRejectsNonStringPartitionKey(t *testing.T) {
	type Ledger struct {
		ID     string `json:"id"`
		Region int    `json:"region"`
	}
	container := new(mocks.MockContainer)
	repo := New[Ledger](container, Config{PartitionKeyField: "region"})

	_, err := repo.Create(context.Background(), Ledger{Region: 7}, CreateOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, customerrors.ErrInvalidModel)
	assert.Contains(t, err.Error(), "partition key region")
	container.AssertNotCalled(t, "CreateItem", mock.Anything, mock.Anything, mock.Anything)
}

func TestRepository_CreateCheckForExisting(t *testing.T) {
	t.Run("Exists", func(t *testing.T) {
		repo, container := newTestRepo(t, Config{Scope: map[string]any{"tenantId": "t-1"}})
		container.On("QueryItems", mock.Anything,
			statementFor("SELECT c.id FROM c WHERE (c.tenantId = @param0 AND c.email = @param1)", "t-1", "a@example.com"),
		).Return([][]byte{[]byte(`{"id":"u-9"}`)}, nil).Once()

		_, err := repo.Create(context.Background(), User{Email: "a@example.com"}, CreateOptions{CheckForExisting: []string{"email", "phone"}})
		require.Error(t, err)
		assert.True(t, customerrors.IsExists(err))
		container.AssertNotCalled(t, "CreateItem", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Absent", func(t *testing.T) {
		repo, container := newTestRepo(t, Config{})
		container.On("QueryItems", mock.Anything,
			statementFor("SELECT c.id FROM c WHERE (c.email = @param0 AND c.name = @param1)", "a@example.com", "Ann"),
		).Return([][]byte{}, nil).Once()
		container.On("CreateItem", mock.Anything, "uuid-1", mock.Anything).Return(nil, nil).Once()

		_, err := repo.Create(context.Background(), User{Email: "a@example.com", Name: "Ann"}, CreateOptions{CheckForExisting: []string{"email", "name"}})
		require.NoError(t, err)
	})

	t.Run("NoKeysPresent", func(t *testing.T) {
		repo, container := newTestRepo(t, Config{})
		container.On("CreateItem", mock.Anything, "uuid-1", mock.Anything).Return(nil, nil).Once()

		_, err := repo.Create(context.Background(), User{}, CreateOptions{CheckForExisting: []string{"phone"}})
		require.NoError(t, err)
	})
}

func TestRepository_CreateInvalidModel(t *testing.T) {
	container := new(mocks.MockContainer)
	repo := New[[]string](container, Config{})

	_, err := repo.Create(context.Background(), []string{"a"}, CreateOptions{})
	assert.ErrorIs(t, err, customerrors.ErrInvalidModel)

	var nilUser *User
	ptrRepo := New[*User](container, Config{})
	_, err = ptrRepo.Create(context.Background(), nilUser, CreateOptions{})
	assert.ErrorIs(t, err, customerrors.ErrInvalidModel)
}

func TestRepository_Update(t *testing.T) {
	repo, container := newTestRepo(t, Config{})
	var stored map[string]any
	container.On("ReadItem", mock.Anything, "u-1", "u-1").
		Return([]byte(`{"id":"u-1","email":"a@example.com","age":30,"createdAt":"2020-01-01T00:00:00.000Z"}`), nil).Once()
	container.On("ReplaceItem", mock.Anything, "u-1", "u-1", mock.Anything).
		Run(captureBody(t, 3, &stored)).
		Return(nil, nil).Once()

	name := "Bob"
	user, err := repo.Update(context.Background(), "u-1", "", map[string]any{
		"name":      &name,
		"age":       31,
		"id":        "hijack",
		"createdAt": "never",
	})
	require.NoError(t, err)

	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, "Bob", user.Name)
	assert.Equal(t, 31, user.Age)
	assert.Equal(t, "2020-01-01T00:00:00.000Z", user.CreatedAt)
	assert.Equal(t, nowText, user.UpdatedAt)
	assert.Equal(t, "a@example.com", stored["email"])
}

func TestRepository_UpdateNotFound(t *testing.T) {
	repo, container := newTestRepo(t, Config{})
	container.On("ReadItem", mock.Anything, "u-1", "t-1").
		Return(nil, customerrors.ErrItemNotFound).Once()

	_, err := repo.Update(context.Background(), "u-1", "t-1", map[string]any{"name": "x"})
	assert.True(t, customerrors.IsNotFound(err))
	container.AssertNotCalled(t, "ReplaceItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRepository_SoftDelete(t *testing.T) {
	repo, container := newTestRepo(t, Config{})
	var stored map[string]any
	container.On("ReadItem", mock.Anything, "u-1", "t-1").
		Return([]byte(`{"id":"u-1","tenantId":"t-1"}`), nil).Once()
	container.On("ReplaceItem", mock.Anything, "u-1", "t-1", mock.Anything).
		Run(captureBody(t, 3, &stored)).
		Return(nil, nil).Once()

	user, err := repo.SoftDelete(context.Background(), "u-1", "t-1")
	require.NoError(t, err)
	assert.Equal(t, nowText, user.DeletedAt)
	assert.Equal(t, nowText, stored["deletedAt"])
	assert.Equal(t, nowText, stored["updatedAt"])
}

func TestRepository_ModifyRejectsNullDocument(t *testing.T) {
	repo, container := newTestRepo(t, Config{})
	container.On("ReadItem", mock.Anything, "u-1", "u-1").Return([]byte(`null`), nil).Once()

	_, err := repo.SoftDelete(context.Background(), "u-1", "")
	assert.ErrorIs(t, err, customerrors.ErrInvalidModel)
}

func TestRepository_Delete(t *testing.T) {
	repo, container := newTestRepo(t, Config{})
	container.On("DeleteItem", mock.Anything, "u-1", "u-1").Return(nil).Once()
	container.On("DeleteItem", mock.Anything, "u-2", "t-1").Return(customerrors.ErrItemNotFound).Once()

	require.NoError(t, repo.Delete(context.Background(), "u-1", ""))
	assert.True(t, customerrors.IsNotFound(repo.Delete(context.Background(), "u-2", "t-1")))
}

func TestRepository_DeleteMany(t *testing.T) {
	repo, container := newTestRepo(t, Config{})
	boom := errors.New("throttled")
	container.On("DeleteItem", mock.Anything, "u-1", "u-1").Return(nil).Once()
	container.On("DeleteItem", mock.Anything, "u-2", "p").Return(boom).Once()
	container.On("DeleteItem", mock.Anything, "u-3", "u-3").Return(nil).Once()

	result, err := repo.DeleteMany(context.Background(), []core.ItemKey{
		{ID: "u-1"},
		{ID: "u-2", PartitionKey: "p"},
		{ID: "u-3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []core.ItemKey{{ID: "u-2", PartitionKey: "p"}}, result.UnprocessedKeys)
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0], boom)
}

func TestRepository_Deadline(t *testing.T) {
	t.Run("TooCloseToDeadline", func(t *testing.T) {
		repo, _ := newTestRepo(t, DefaultConfig())
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := repo.Count(ctx, nil)
		assert.ErrorIs(t, err, customerrors.ErrDeadlineExceeded)
	})

	t.Run("ExpiredContext", func(t *testing.T) {
		repo, _ := newTestRepo(t, DefaultConfig())
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()

		err := repo.Delete(ctx, "u-1", "")
		assert.ErrorIs(t, err, customerrors.ErrDeadlineExceeded)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Canceled", func(t *testing.T) {
		repo, _ := newTestRepo(t, DefaultConfig())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := repo.FindByID(ctx, "u-1", "")
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, customerrors.ErrDeadlineExceeded)
	})

	t.Run("EnoughTime", func(t *testing.T) {
		repo, container := newTestRepo(t, DefaultConfig())
		container.On("DeleteItem", mock.Anything, "u-1", "u-1").Return(nil).Once()
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		assert.NoError(t, repo.Delete(ctx, "u-1", ""))
	})
}

func TestSubstitute(t *testing.T) {
	values := map[string]string{"id": "u-1", "now": nowText}
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "{id}", want: "u-1"},
		{in: "user/{id}/at/{now}", want: "user/u-1/at/" + nowText},
		{in: "{other} {id}", want: "{other} u-1"},
		{in: "{ id }", want: "{ id }"},
		{in: "{{id}}", want: "{u-1}"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, substitute(tt.in, values))
		})
	}
}
