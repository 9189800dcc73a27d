package condition

// Builder constructs a condition tree from a chain of Where / AndWhere /
// OrWhere calls without explicit grouping.
//
// The most recent run of conditions sharing a connective binds tighter than
// the run before it:
//
//	NewBuilder().
//		Where("a", OpEqual, 1).
//		OrWhere("b", OpEqual, 2).
//		AndWhere("c", OpEqual, 3).
//		Build()
//
// yields a OR (b AND c).
//
// A Builder is mutated in place and is not safe for concurrent use.
type Builder struct {
	root    *Compound
	current *Compound
}

// NewBuilder creates a builder whose root is an empty AND group
func NewBuilder() *Builder {
	root := &Compound{Logic: And, Conditions: []Condition{}}
	return &Builder{root: root, current: root}
}

// Where adds a condition joined with AND.
//
// value is optional: type predicates take none, a single value is used as
// is, and several values are collected into a list (for IN / NOT IN).
func (b *Builder) Where(field string, op Operator, value ...any) *Builder {
	return b.addCondition(field, op, value, And)
}

// AndWhere adds a condition joined with AND
func (b *Builder) AndWhere(field string, op Operator, value ...any) *Builder {
	return b.addCondition(field, op, value, And)
}

// OrWhere adds a condition joined with OR
func (b *Builder) OrWhere(field string, op Operator, value ...any) *Builder {
	return b.addCondition(field, op, value, Or)
}

// Build returns the root group. It does not reset the builder and may be
// called any number of times.
func (b *Builder) Build() *Compound {
	return b.root
}

func (b *Builder) addCondition(field string, op Operator, values []any, logic Logic) *Builder {
	cond := &Simple{Field: field, Operator: op, Value: collapse(values)}
	group := b.current

	if len(group.Conditions) == 0 || group.Logic == logic {
		group.Conditions = append(group.Conditions, cond)
		return b
	}

	// Connective switch: the last sibling moves into a new group with the
	// new connective, which takes its slot and becomes the current group.
	last := len(group.Conditions) - 1
	wrapped := &Compound{Logic: logic, Conditions: []Condition{group.Conditions[last], cond}}
	group.Conditions[last] = wrapped
	b.current = wrapped

	return b
}

func collapse(values []any) any {
	switch len(values) {
	case 0:
		return nil
	case 1:
		return values[0]
	default:
		return values
	}
}
