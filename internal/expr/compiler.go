// Package expr compiles condition trees into parameterized Cosmos DB SQL.
package expr

import (
	"fmt"
	"strings"

	"github.com/pay-theory/cosmorm/pkg/condition"
	customerrors "github.com/pay-theory/cosmorm/pkg/errors"
	"github.com/pay-theory/cosmorm/pkg/validation"
)

// DocumentAlias is the alias the root document is bound to in every statement
const DocumentAlias = "c"

const parameterPrefix = "@param"

// Fragments rendered for membership tests against an empty list
const (
	alwaysFalse = "(1=0)"
	alwaysTrue  = "(1=1)"
)

// Fragment is a compiled filter: query text plus the parameters it references,
// in the order they were allocated.
type Fragment struct {
	Text       string
	Parameters []condition.Parameter
}

// compilation is the accumulator for a single Compile call
type compilation struct {
	reserved map[string]bool
	params   []condition.Parameter
	counter  int
}

// Compile renders a condition tree depth-first, left to right. Field names,
// operators and literal lengths are validated as the tree is walked and the
// first failure aborts the whole compilation.
//
// Generated parameters are named @param0, @param1, ... and IN / NOT IN lists
// use @paramN_0, @paramN_1, ... for their elements. Names supplied by
// subqueries are kept verbatim and never generated.
func Compile(root condition.Condition) (*Fragment, error) {
	if isNil(root) {
		return nil, fmt.Errorf("%w: no condition to compile", customerrors.ErrEmptyFilter)
	}

	c := &compilation{
		reserved: make(map[string]bool),
		params:   []condition.Parameter{},
	}
	if err := c.reserveSubqueryNames(root); err != nil {
		return nil, err
	}

	text, err := c.render(root)
	if err != nil {
		return nil, err
	}

	return &Fragment{Text: text, Parameters: c.params}, nil
}

func (c *compilation) render(node condition.Condition) (string, error) {
	switch n := node.(type) {
	case *condition.Compound:
		return c.renderCompound(n)
	case *condition.Simple:
		return c.renderSimple(n)
	default:
		return "", fmt.Errorf("%w: unsupported condition type %T", customerrors.ErrInvalidOperator, node)
	}
}

func (c *compilation) renderCompound(group *condition.Compound) (string, error) {
	if group == nil || len(group.Conditions) == 0 {
		return "", customerrors.ErrEmptyGroup
	}
	if !group.Logic.Valid() {
		return "", fmt.Errorf("%w: %q", customerrors.ErrInvalidOperator, group.Logic)
	}

	parts := make([]string, 0, len(group.Conditions))
	for _, child := range group.Conditions {
		if isNil(child) {
			return "", fmt.Errorf("%w: nil child condition", customerrors.ErrEmptyGroup)
		}
		part, err := c.render(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}

	return joinGroup(group.Logic, parts), nil
}

func (c *compilation) renderSimple(s *condition.Simple) (string, error) {
	if s == nil {
		return "", fmt.Errorf("%w: nil condition", customerrors.ErrEmptyFilter)
	}
	if err := validation.ValidateFieldName(s.Field); err != nil {
		return "", err
	}
	if !s.Operator.Valid() {
		return "", fmt.Errorf("%w: %q", customerrors.ErrInvalidOperator, s.Operator)
	}

	field := FieldRef(s.Field)

	if s.Operator.IsTypePredicate() {
		function, negated := s.Operator.Predicate()
		tokens := []string{function + "(" + field + ")"}
		if negated {
			tokens = append([]string{"NOT"}, tokens...)
		}
		return strings.Join(tokens, " "), nil
	}

	if s.Operator.IsMembership() {
		return c.renderMembership(s, field)
	}

	value := ConvertValue(s.Value)
	if err := validation.ValidateValue(s.Field, value); err != nil {
		return "", err
	}
	name := c.allocate(0)
	c.bind(name, value)

	return strings.Join([]string{field, string(s.Operator), name}, " "), nil
}

func (c *compilation) renderMembership(s *condition.Simple, field string) (string, error) {
	if sq, ok := asSubquery(s.Value); ok {
		if strings.TrimSpace(sq.Text) == "" {
			return "", fmt.Errorf("%w: subquery for field %s has no text", customerrors.ErrInvalidMembershipValue, s.Field)
		}
		c.params = append(c.params, sq.Parameters...)
		return strings.Join([]string{field, string(s.Operator), "(" + sq.Text + ")"}, " "), nil
	}

	values, ok := convertToList(s.Value)
	if !ok {
		return "", fmt.Errorf("%w: field %s got %T", customerrors.ErrInvalidMembershipValue, s.Field, s.Value)
	}

	if len(values) == 0 {
		if s.Operator == condition.OpNotIn {
			return alwaysTrue, nil
		}
		return alwaysFalse, nil
	}

	converted := make([]any, len(values))
	for i, v := range values {
		converted[i] = ConvertValue(v)
		if err := validation.ValidateValue(s.Field, converted[i]); err != nil {
			return "", err
		}
	}

	base := c.allocate(len(converted))
	refs := make([]string, len(converted))
	for i, v := range converted {
		refs[i] = elementName(base, i)
		c.bind(refs[i], v)
	}

	return strings.Join([]string{field, string(s.Operator), memberList(refs)}, " "), nil
}

// allocate returns the next generated parameter name. When elements > 0 the
// name is a list base and every element name derived from it must be free too.
func (c *compilation) allocate(elements int) string {
	for {
		name := fmt.Sprintf("%s%d", parameterPrefix, c.counter)
		c.counter++
		if c.free(name, elements) {
			return name
		}
	}
}

func (c *compilation) free(name string, elements int) bool {
	if c.reserved[name] {
		return false
	}
	for i := 0; i < elements; i++ {
		if c.reserved[elementName(name, i)] {
			return false
		}
	}
	return true
}

func (c *compilation) bind(name string, value any) {
	c.params = append(c.params, condition.Parameter{Name: name, Value: value})
}

// reserveSubqueryNames records every parameter name supplied by a subquery
// in the tree before anything is rendered, so generated names can avoid them
// regardless of where the subquery sits.
func (c *compilation) reserveSubqueryNames(node condition.Condition) error {
	switch n := node.(type) {
	case *condition.Compound:
		if n == nil {
			return nil
		}
		for _, child := range n.Conditions {
			if err := c.reserveSubqueryNames(child); err != nil {
				return err
			}
		}
	case *condition.Simple:
		if n == nil || !n.Operator.IsMembership() {
			return nil
		}
		sq, ok := asSubquery(n.Value)
		if !ok {
			return nil
		}
		for _, p := range sq.Parameters {
			if c.reserved[p.Name] {
				return fmt.Errorf("%w: %s", customerrors.ErrDuplicateParameter, p.Name)
			}
			c.reserved[p.Name] = true
		}
	}
	return nil
}

// joinGroup renders the children of a group joined by its connective
func joinGroup(logic condition.Logic, parts []string) string {
	return "(" + strings.Join(parts, " "+string(logic)+" ") + ")"
}

// memberList renders a parenthesized, comma-separated list of parameter references
func memberList(refs []string) string {
	return "(" + strings.Join(refs, ", ") + ")"
}

// FieldRef renders a property of the root document. The name must already be validated.
func FieldRef(field string) string {
	return DocumentAlias + "." + field
}

func elementName(base string, i int) string {
	return fmt.Sprintf("%s_%d", base, i)
}

func asSubquery(value any) (condition.Subquery, bool) {
	switch v := value.(type) {
	case condition.Subquery:
		return v, true
	case *condition.Subquery:
		if v == nil {
			return condition.Subquery{}, false
		}
		return *v, true
	default:
		return condition.Subquery{}, false
	}
}

func isNil(node condition.Condition) bool {
	switch n := node.(type) {
	case nil:
		return true
	case *condition.Simple:
		return n == nil
	case *condition.Compound:
		return n == nil
	default:
		return false
	}
}
