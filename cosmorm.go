// Package cosmorm provides a generic repository for Azure Cosmos DB (SQL API)
// built on an injection-safe condition compiler.
//
// Filters are condition trees (see pkg/condition). They are compiled into
// parameterized statements whose field names are validated against a strict
// identifier pattern and whose values are always bound as parameters.
package cosmorm

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pay-theory/cosmorm/internal/expr"
	"github.com/pay-theory/cosmorm/pkg/condition"
	"github.com/pay-theory/cosmorm/pkg/core"
	customerrors "github.com/pay-theory/cosmorm/pkg/errors"
)

// Document property names maintained by the repository
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldDeletedAt = "deletedAt"
)

// Config holds repository configuration
type Config struct {
	// Logger receives statement and failure logs. Nil disables logging.
	Logger *zap.Logger

	// Events receives an ItemEvent after every successful write. Optional.
	Events *events.TypedEventBus[ItemEvent]

	// Scope holds equality constraints added to every filter, e.g. a tenant id
	Scope map[string]any

	// ModelName is used in errors and logs. Defaults to the item type name.
	ModelName string

	// PartitionKeyField names the document property holding the partition key.
	// Empty means the container is partitioned by id.
	PartitionKeyField string

	// DeadlineBuffer is the minimum time that must remain on the context
	// deadline for a request to start
	DeadlineBuffer time.Duration

	// MergePolicy controls how Scope is merged into OR-rooted filters
	MergePolicy condition.MergePolicy

	// ExcludeSoftDeleted hides documents carrying a deletedAt property from queries
	ExcludeSoftDeleted bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		DeadlineBuffer: 100 * time.Millisecond,
		MergePolicy:    condition.NestOr,
	}
}

// Repository provides typed access to the documents of one container.
// It holds no per-call state and is safe for concurrent use.
type Repository[T any] struct {
	container          core.Container
	logger             *zap.Logger
	events             *events.TypedEventBus[ItemEvent]
	scope              map[string]any
	now                func() time.Time
	newID              func() string
	lambdaDeadline     time.Time
	model              string
	partitionKeyField  string
	deadlineBuffer     time.Duration
	mergePolicy        condition.MergePolicy
	excludeSoftDeleted bool
}

// New creates a repository over the given container
func New[T any](container core.Container, cfg Config) *Repository[T] {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	model := cfg.ModelName
	if model == "" {
		model = typeName[T]()
	}

	scope := make(map[string]any, len(cfg.Scope))
	for k, v := range cfg.Scope {
		scope[k] = v
	}

	return &Repository[T]{
		container:          container,
		logger:             logger.With(zap.String("model", model)),
		events:             cfg.Events,
		scope:              scope,
		now:                time.Now,
		newID:              uuid.NewString,
		model:              model,
		partitionKeyField:  cfg.PartitionKeyField,
		deadlineBuffer:     cfg.DeadlineBuffer,
		mergePolicy:        cfg.MergePolicy,
		excludeSoftDeleted: cfg.ExcludeSoftDeleted,
	}
}

// Container returns the underlying store
func (r *Repository[T]) Container() core.Container {
	return r.container
}

// Compile renders a filter into a WHERE fragment and its parameters.
// A nil filter yields "1=1".
func Compile(filter condition.Condition) (string, []condition.Parameter, error) {
	frag, err := expr.Where(filter)
	if err != nil {
		return "", nil, err
	}
	return frag.Text, frag.Parameters, nil
}

// BuildSelect renders a projection list. No fields selects the whole document.
func BuildSelect(fields ...string) (string, error) {
	return expr.SelectClause(fields)
}

// scoped applies the repository scope and soft-delete visibility to a filter
func (r *Repository[T]) scoped(filter condition.Condition) condition.Condition {
	if r.excludeSoftDeleted {
		visible := condition.Where(FieldDeletedAt, condition.OpIsNotDefined, nil)
		if filter == nil {
			filter = visible
		} else {
			filter = condition.All(filter, visible)
		}
	}
	if len(r.scope) == 0 {
		return filter
	}
	return condition.AppendConditionWithPolicy(filter, r.scope, r.mergePolicy)
}

// checkDeadline fails fast when the context is done or too close to its deadline
func (r *Repository[T]) checkDeadline(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", customerrors.ErrDeadlineExceeded, err)
		}
		return err
	}

	deadline, ok := ctx.Deadline()
	if !r.lambdaDeadline.IsZero() && (!ok || r.lambdaDeadline.Before(deadline)) {
		deadline, ok = r.lambdaDeadline, true
	}
	if !ok {
		return nil
	}

	remaining := time.Until(deadline)
	if remaining <= 0 {
		return fmt.Errorf("%w: deadline passed", customerrors.ErrDeadlineExceeded)
	}
	if remaining < r.deadlineBuffer {
		return fmt.Errorf("%w: only %v remaining", customerrors.ErrDeadlineExceeded, remaining)
	}
	return nil
}

// fail wraps err for callers and logs store failures. Caller-input errors
// are logged at debug level only.
func (r *Repository[T]) fail(ctx context.Context, op string, err error, fields ...zap.Field) error {
	log := r.log(ctx).With(zap.String("op", op))
	switch {
	case customerrors.IsBadRequest(err), customerrors.IsNotFound(err), customerrors.IsExists(err):
		log.Debug("operation rejected", append(fields, zap.Error(err))...)
	default:
		log.Error("operation failed", append(fields, zap.Error(err))...)
	}
	return customerrors.NewError(op, r.model, err)
}

func (r *Repository[T]) log(ctx context.Context) *zap.Logger {
	logger := r.logger
	if id := RequestID(ctx); id != "" {
		logger = logger.With(zap.String("request_id", id))
	}
	if partner := GetPartnerFromContext(ctx); partner != "" {
		logger = logger.With(zap.String("partner", partner))
	}
	return logger
}

func (r *Repository[T]) logStatement(ctx context.Context, op string, stmt core.Statement) {
	r.log(ctx).Debug("executing statement",
		zap.String("op", op),
		zap.String("query", stmt.Query),
		zap.Int("params", len(stmt.Parameters)),
		zap.Bool("cross_partition", stmt.PartitionKey == ""),
	)
}

func typeName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
