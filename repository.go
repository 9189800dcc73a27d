package cosmorm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pay-theory/cosmorm/internal/expr"
	"github.com/pay-theory/cosmorm/pkg/condition"
	"github.com/pay-theory/cosmorm/pkg/core"
	customerrors "github.com/pay-theory/cosmorm/pkg/errors"
)

// placeholderPattern matches {name} tokens in string properties of new items
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// CreateOptions controls Create
type CreateOptions struct {
	// PrefixID is prepended to generated ids as "<prefix>-<uuid>"
	PrefixID string

	// CheckForExisting lists properties that must not match an existing document.
	// Properties absent from the item are ignored.
	CheckForExisting []string
}

// Count returns the number of documents matching filter. A nil filter counts
// everything in scope. Counting a multi-partition container needs a scope on
// the partition key property.
func (r *Repository[T]) Count(ctx context.Context, filter condition.Condition) (int64, error) {
	const op = "count"
	if err := r.checkDeadline(ctx); err != nil {
		return 0, r.fail(ctx, op, err)
	}

	stmt, err := expr.CountStatement(r.scoped(filter))
	if err != nil {
		return 0, r.fail(ctx, op, err)
	}

	rows, err := r.query(ctx, op, stmt)
	if err != nil {
		return 0, r.fail(ctx, op, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	var total int64
	if err := json.Unmarshal(rows[0], &total); err != nil {
		return 0, r.fail(ctx, op, fmt.Errorf("failed to decode count: %w", err))
	}
	return total, nil
}

// FindByID reads a single document. An empty partition key uses the id.
func (r *Repository[T]) FindByID(ctx context.Context, id, partitionKey string) (*T, error) {
	const op = "find_by_id"
	if err := r.checkDeadline(ctx); err != nil {
		return nil, r.fail(ctx, op, err)
	}

	data, err := r.container.ReadItem(ctx, id, keyFor(id, partitionKey))
	if err != nil {
		return nil, r.fail(ctx, op, err, zap.String("id", id))
	}

	item, err := decodeItem[T](data)
	if err != nil {
		return nil, r.fail(ctx, op, err, zap.String("id", id))
	}
	return item, nil
}

// Find returns every document matching filter, optionally projected to fields
func (r *Repository[T]) Find(ctx context.Context, filter condition.Condition, fields ...string) ([]T, error) {
	const op = "find"
	if err := r.checkDeadline(ctx); err != nil {
		return nil, r.fail(ctx, op, err)
	}

	stmt, err := expr.SelectStatement(r.scoped(filter), fields)
	if err != nil {
		return nil, r.fail(ctx, op, err)
	}

	items, err := r.queryItems(ctx, op, stmt)
	if err != nil {
		return nil, r.fail(ctx, op, err)
	}
	return items, nil
}

// FindFirst returns the first document matching filter. With nil opts the
// store's natural order is used; otherwise opts ordering and offset apply and
// the limit is forced to one. No match yields ErrItemNotFound.
func (r *Repository[T]) FindFirst(ctx context.Context, filter condition.Condition, opts *core.QueryOptions) (*T, error) {
	const op = "find_first"
	if err := r.checkDeadline(ctx); err != nil {
		return nil, r.fail(ctx, op, err)
	}

	var (
		stmt core.Statement
		err  error
	)
	if opts == nil {
		stmt, err = expr.FirstStatement(r.scoped(filter))
	} else {
		first := *opts
		first.Limit = 1
		stmt, err = expr.PageStatement(r.scoped(filter), &first)
		stmt.PartitionKey = opts.PartitionKey
	}
	if err != nil {
		return nil, r.fail(ctx, op, err)
	}

	items, err := r.queryItems(ctx, op, stmt)
	if err != nil {
		return nil, r.fail(ctx, op, err)
	}
	if len(items) == 0 {
		return nil, r.fail(ctx, op, customerrors.ErrItemNotFound)
	}
	return &items[0], nil
}

// FindWithPagination returns one page of matching documents and the total match count.
// Unset options default to limit 20, offset 0, ordered by createdAt descending.
// On multi-partition containers the query needs a partition key, either from
// opts or from a scope on the partition key property.
func (r *Repository[T]) FindWithPagination(ctx context.Context, filter condition.Condition, opts *core.QueryOptions) (*core.PaginationResult[T], error) {
	const op = "find_with_pagination"
	if err := r.checkDeadline(ctx); err != nil {
		return nil, r.fail(ctx, op, err)
	}

	o := opts.WithDefaults()
	scoped := r.scoped(filter)

	pageStmt, err := expr.PageStatement(scoped, &o)
	if err != nil {
		return nil, r.fail(ctx, op, err)
	}
	countStmt, err := expr.CountStatement(scoped)
	if err != nil {
		return nil, r.fail(ctx, op, err)
	}
	pageStmt.PartitionKey = o.PartitionKey
	countStmt.PartitionKey = o.PartitionKey

	items, err := r.queryItems(ctx, op, pageStmt)
	if err != nil {
		return nil, r.fail(ctx, op, err)
	}

	rows, err := r.query(ctx, op, countStmt)
	if err != nil {
		return nil, r.fail(ctx, op, err)
	}
	var total int64
	if len(rows) > 0 {
		if err := json.Unmarshal(rows[0], &total); err != nil {
			return nil, r.fail(ctx, op, fmt.Errorf("failed to decode count: %w", err))
		}
	}

	return &core.PaginationResult[T]{
		Items: items,
		Pagination: core.Pagination{
			Total:  total,
			Limit:  o.Limit,
			Offset: o.Offset,
		},
	}, nil
}

// Create stores a new document built from item.
//
// The id is the item's own id when set, otherwise "<prefix>-<uuid>". The
// tokens {id} and {now} in top-level string properties are replaced with the
// final id and the creation timestamp; other tokens are left as they are.
// createdAt and updatedAt are always set to the creation timestamp.
func (r *Repository[T]) Create(ctx context.Context, item T, opts CreateOptions) (*T, error) {
	const op = "create"
	if err := r.checkDeadline(ctx); err != nil {
		return nil, r.fail(ctx, op, err)
	}

	doc, err := toDocument(item)
	if err != nil {
		return nil, r.fail(ctx, op, err)
	}

	if len(opts.CheckForExisting) > 0 {
		if err := r.ensureAbsent(ctx, doc, opts.CheckForExisting); err != nil {
			return nil, r.fail(ctx, op, err)
		}
	}

	id, _ := doc[FieldID].(string)
	if id == "" {
		id = r.generateID(opts.PrefixID)
	}
	now := expr.FormatTime(r.now())

	for k, v := range doc {
		if s, ok := v.(string); ok {
			doc[k] = substitute(s, map[string]string{"id": id, "now": now})
		}
	}
	doc[FieldID] = id
	doc[FieldCreatedAt] = now
	doc[FieldUpdatedAt] = now

	pk, err := r.partitionKeyOf(doc, id)
	if err != nil {
		return nil, r.fail(ctx, op, err, zap.String("id", id))
	}
	created, err := r.write(ctx, op, doc, func(body []byte) ([]byte, error) {
		return r.container.CreateItem(ctx, pk, body)
	})
	if err != nil {
		return nil, r.fail(ctx, op, err, zap.String("id", id))
	}

	r.emit(ctx, EventCreated, id, pk)
	return created, nil
}

// Update merges changes into the stored document and bumps updatedAt.
// The id and createdAt properties cannot be changed.
func (r *Repository[T]) Update(ctx context.Context, id, partitionKey string, changes map[string]any) (*T, error) {
	const op = "update"
	return r.modify(ctx, op, EventUpdated, id, partitionKey, func(doc map[string]any, _ string) {
		for k, v := range changes {
			if k == FieldID || k == FieldCreatedAt {
				continue
			}
			doc[k] = expr.ConvertValue(v)
		}
	})
}

// SoftDelete marks the document deleted by setting deletedAt
func (r *Repository[T]) SoftDelete(ctx context.Context, id, partitionKey string) (*T, error) {
	const op = "soft_delete"
	return r.modify(ctx, op, EventSoftDeleted, id, partitionKey, func(doc map[string]any, now string) {
		doc[FieldDeletedAt] = now
	})
}

// Delete removes a document
func (r *Repository[T]) Delete(ctx context.Context, id, partitionKey string) error {
	const op = "delete"
	if err := r.checkDeadline(ctx); err != nil {
		return r.fail(ctx, op, err)
	}

	pk := keyFor(id, partitionKey)
	if err := r.container.DeleteItem(ctx, id, pk); err != nil {
		return r.fail(ctx, op, err, zap.String("id", id))
	}

	r.emit(ctx, EventDeleted, id, pk)
	return nil
}

// DeleteMany removes documents by key. Individual failures are reported in
// the result and do not stop the remaining deletes.
func (r *Repository[T]) DeleteMany(ctx context.Context, keys []core.ItemKey) (*core.BatchDeleteResult, error) {
	const op = "delete_many"
	if err := r.checkDeadline(ctx); err != nil {
		return nil, r.fail(ctx, op, err)
	}

	resolved := make([]core.ItemKey, len(keys))
	for i, key := range keys {
		resolved[i] = core.ItemKey{ID: key.ID, PartitionKey: keyFor(key.ID, key.PartitionKey)}
	}

	result, err := core.NewBatchDeleteExecutor(r.container, core.DefaultBatchSize).BatchDeleteWithResult(ctx, resolved)

	unprocessed := make(map[core.ItemKey]bool, len(result.UnprocessedKeys))
	for _, key := range result.UnprocessedKeys {
		unprocessed[key] = true
	}
	for _, key := range resolved {
		if !unprocessed[key] {
			r.emit(ctx, EventDeleted, key.ID, key.PartitionKey)
		}
	}

	if result.Failed > 0 {
		r.log(ctx).Warn("batch delete incomplete",
			zap.Int("succeeded", result.Succeeded),
			zap.Int("failed", result.Failed),
		)
	}
	if err != nil {
		return result, r.fail(ctx, op, err)
	}
	return result, nil
}

// modify runs a read-change-replace cycle on one document
func (r *Repository[T]) modify(ctx context.Context, op string, event EventType, id, partitionKey string, change func(doc map[string]any, now string)) (*T, error) {
	if err := r.checkDeadline(ctx); err != nil {
		return nil, r.fail(ctx, op, err)
	}

	pk := keyFor(id, partitionKey)
	data, err := r.container.ReadItem(ctx, id, pk)
	if err != nil {
		return nil, r.fail(ctx, op, err, zap.String("id", id))
	}

	doc, err := decodeDocument(data)
	if err != nil {
		return nil, r.fail(ctx, op, err, zap.String("id", id))
	}

	now := expr.FormatTime(r.now())
	change(doc, now)
	doc[FieldUpdatedAt] = now

	updated, err := r.write(ctx, op, doc, func(body []byte) ([]byte, error) {
		return r.container.ReplaceItem(ctx, id, pk, body)
	})
	if err != nil {
		return nil, r.fail(ctx, op, err, zap.String("id", id))
	}

	r.emit(ctx, event, id, pk)
	return updated, nil
}

// write encodes doc, hands it to store and decodes the stored version.
// Stores that return no body yield the document as sent.
func (r *Repository[T]) write(ctx context.Context, op string, doc map[string]any, store func([]byte) ([]byte, error)) (*T, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", customerrors.ErrInvalidModel, err)
	}

	r.log(ctx).Debug("writing document", zap.String("op", op), zap.Int("bytes", len(body)))

	stored, err := store(body)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		stored = body
	}
	return decodeItem[T](stored)
}

// ensureAbsent fails with ErrItemExists when a document shares the given property values
func (r *Repository[T]) ensureAbsent(ctx context.Context, doc map[string]any, keys []string) error {
	entries := make([]condition.Entry, 0, len(keys))
	for _, key := range keys {
		if v, ok := doc[key]; ok {
			entries = append(entries, condition.Entry{Field: key, Value: v})
		}
	}
	if len(entries) == 0 {
		return nil
	}

	filter, err := condition.NormalizeEntries(entries...)
	if err != nil {
		return err
	}
	stmt, err := expr.SelectStatement(r.scoped(filter), []string{FieldID})
	if err != nil {
		return err
	}

	rows, err := r.query(ctx, "create", stmt)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return fmt.Errorf("%w: matching %s", customerrors.ErrItemExists, strings.Join(keys, ", "))
	}
	return nil
}

// query runs stmt, pinned to the scoped partition unless it names one
func (r *Repository[T]) query(ctx context.Context, op string, stmt core.Statement) ([][]byte, error) {
	if stmt.PartitionKey == "" {
		stmt.PartitionKey = r.scopedPartitionKey()
	}
	r.logStatement(ctx, op, stmt)
	return r.container.QueryItems(ctx, stmt)
}

func (r *Repository[T]) queryItems(ctx context.Context, op string, stmt core.Statement) ([]T, error) {
	rows, err := r.query(ctx, op, stmt)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(rows))
	for _, row := range rows {
		var item T
		if err := json.Unmarshal(row, &item); err != nil {
			return nil, fmt.Errorf("failed to decode item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository[T]) generateID(prefix string) string {
	if prefix == "" {
		return r.newID()
	}
	return prefix + "-" + r.newID()
}

// partitionKeyOf reads the partition key property of doc, falling back to id.
// Only string partition keys are supported.
func (r *Repository[T]) partitionKeyOf(doc map[string]any, id string) (string, error) {
	if r.partitionKeyField == "" {
		return id, nil
	}
	switch v := doc[r.partitionKeyField].(type) {
	case nil:
		return id, nil
	case string:
		if v == "" {
			return id, nil
		}
		return v, nil
	default:
		return "", fmt.Errorf("%w: partition key %s must be a string, got %T",
			customerrors.ErrInvalidModel, r.partitionKeyField, v)
	}
}

// scopedPartitionKey returns the scope value of the partition key property,
// if the scope pins one
func (r *Repository[T]) scopedPartitionKey() string {
	if r.partitionKeyField == "" {
		return ""
	}
	pk, _ := r.scope[r.partitionKeyField].(string)
	return pk
}

func keyFor(id, partitionKey string) string {
	if partitionKey == "" {
		return id
	}
	return partitionKey
}

// substitute replaces known {name} tokens and leaves unknown ones intact
func substitute(s string, values map[string]string) string {
	if !strings.Contains(s, "{") {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(token string) string {
		if v, ok := values[token[1:len(token)-1]]; ok {
			return v
		}
		return token
	})
}

// toDocument converts an item to its JSON object form. Numbers keep their
// literal representation.
func toDocument(item any) (map[string]any, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", customerrors.ErrInvalidModel, err)
	}
	return decodeDocument(data)
}

func decodeDocument(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: document is not a JSON object: %w", customerrors.ErrInvalidModel, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document is null", customerrors.ErrInvalidModel)
	}
	return doc, nil
}

func decodeItem[T any](data []byte) (*T, error) {
	item := new(T)
	if err := json.Unmarshal(data, item); err != nil {
		return nil, fmt.Errorf("failed to decode item: %w", err)
	}
	return item, nil
}
