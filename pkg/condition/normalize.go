package condition

import (
	"fmt"
	"sort"

	customerrors "github.com/pay-theory/cosmorm/pkg/errors"
)

// Entry is one field=value pair of a plain filter
type Entry struct {
	Value any
	Field string
}

// MergePolicy decides how AppendConditionWithPolicy treats an OR-rooted group
type MergePolicy int

const (
	// NestOr keeps an OR group intact as a single child of the new AND group
	NestOr MergePolicy = iota
	// FlattenOr hoists the OR group's children into the new AND group.
	// This changes the meaning of the filter and exists for callers that
	// depend on that older behavior.
	FlattenOr
)

// Normalize converts a plain field=value filter into a condition. A single
// entry yields a *Simple equality, several entries an AND group. Go maps have
// no order, so entries are emitted in ascending field order.
func Normalize(filter map[string]any) (Condition, error) {
	return NormalizeEntries(sortedEntries(filter)...)
}

// NormalizeEntries is Normalize for an ordered list of pairs; the order is kept.
func NormalizeEntries(entries ...Entry) (Condition, error) {
	switch len(entries) {
	case 0:
		return nil, fmt.Errorf("%w: filter has no entries", customerrors.ErrEmptyFilter)
	case 1:
		return Eq(entries[0].Field, entries[0].Value), nil
	default:
		return All(equalities(entries)...), nil
	}
}

// AppendCondition adds equality constraints in front of an existing filter
// using the NestOr policy.
func AppendCondition(existing Condition, extra map[string]any) Condition {
	return AppendConditionWithPolicy(existing, extra, NestOr)
}

// AppendConditionWithPolicy adds equality constraints in front of an existing
// filter. The result is always a new AND group; existing is never modified.
//
//   - nil existing: the group holds only the new equalities
//   - AND group: the new equalities are prepended to its children
//   - OR group: nested as one child (NestOr) or flattened (FlattenOr)
//   - single predicate: kept as the last child
//
// With no extra entries existing is returned unchanged.
func AppendConditionWithPolicy(existing Condition, extra map[string]any, policy MergePolicy) Condition {
	added := equalities(sortedEntries(extra))
	if len(added) == 0 && existing != nil {
		return existing
	}

	switch c := existing.(type) {
	case nil:
		return All(added...)
	case *Compound:
		if c == nil {
			return All(added...)
		}
		if c.Logic == And || policy == FlattenOr {
			children := make([]Condition, 0, len(added)+len(c.Conditions))
			children = append(children, added...)
			children = append(children, c.Conditions...)
			return All(children...)
		}
		return All(append(added, c)...)
	case *Simple:
		if c == nil {
			return All(added...)
		}
		return All(append(added, c)...)
	default:
		return All(append(added, existing)...)
	}
}

func sortedEntries(filter map[string]any) []Entry {
	fields := make([]string, 0, len(filter))
	for field := range filter {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	entries := make([]Entry, len(fields))
	for i, field := range fields {
		entries[i] = Entry{Field: field, Value: filter[field]}
	}
	return entries
}

func equalities(entries []Entry) []Condition {
	conditions := make([]Condition, len(entries))
	for i, e := range entries {
		conditions[i] = Eq(e.Field, e.Value)
	}
	return conditions
}
