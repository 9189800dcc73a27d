// Package condition defines the boolean filter model consumed by the query
// compiler: single-field predicates, AND/OR groups, subqueries and the named
// parameters they carry.
//
// Conditions are plain data. Nothing is validated when a tree is built;
// field names, operators and literal lengths are checked when the tree is
// compiled.
package condition

import "strings"

// Operator is a comparison or type-predicate tag
type Operator string

// Value operators bind one parameter (IN / NOT IN bind one per element)
const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "!="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpIn             Operator = "IN"
	OpNotIn          Operator = "NOT IN"
	OpLike           Operator = "LIKE"
)

// Type-predicate operators bind no parameter
const (
	OpIsNull            Operator = "IS_NULL"
	OpIsNotNull         Operator = "IS_NOT_NULL"
	OpIsDefined         Operator = "IS_DEFINED"
	OpIsNotDefined      Operator = "IS_NOT_DEFINED"
	OpIsString          Operator = "IS_STRING"
	OpIsNotString       Operator = "IS_NOT_STRING"
	OpIsNumber          Operator = "IS_NUMBER"
	OpIsNotNumber       Operator = "IS_NOT_NUMBER"
	OpIsBool            Operator = "IS_BOOL"
	OpIsNotBool         Operator = "IS_NOT_BOOL"
	OpIsArray           Operator = "IS_ARRAY"
	OpIsNotArray        Operator = "IS_NOT_ARRAY"
	OpIsObject          Operator = "IS_OBJECT"
	OpIsNotObject       Operator = "IS_NOT_OBJECT"
	OpIsInteger         Operator = "IS_INTEGER"
	OpIsNotInteger      Operator = "IS_NOT_INTEGER"
	OpIsFiniteNumber    Operator = "IS_FINITE_NUMBER"
	OpIsNotFiniteNumber Operator = "IS_NOT_FINITE_NUMBER"
	OpIsPrimitive       Operator = "IS_PRIMITIVE"
	OpIsNotPrimitive    Operator = "IS_NOT_PRIMITIVE"
)

const negatedPredicatePrefix = "IS_NOT_"

var valueOperators = map[Operator]bool{
	OpEqual:          true,
	OpNotEqual:       true,
	OpGreater:        true,
	OpGreaterOrEqual: true,
	OpLess:           true,
	OpLessOrEqual:    true,
	OpIn:             true,
	OpNotIn:          true,
	OpLike:           true,
}

// positive type-check functions; the IS_NOT_ forms negate these
var typePredicates = map[Operator]bool{
	OpIsNull:         true,
	OpIsDefined:      true,
	OpIsString:       true,
	OpIsNumber:       true,
	OpIsBool:         true,
	OpIsArray:        true,
	OpIsObject:       true,
	OpIsInteger:      true,
	OpIsFiniteNumber: true,
	OpIsPrimitive:    true,
}

// Valid reports whether the operator is in either allow-list
func (o Operator) Valid() bool {
	return valueOperators[o] || o.IsTypePredicate()
}

// IsTypePredicate reports whether the operator tests presence or type and binds no value
func (o Operator) IsTypePredicate() bool {
	fn, _ := o.Predicate()
	return typePredicates[Operator(fn)]
}

// IsMembership reports whether the operator is IN or NOT IN
func (o Operator) IsMembership() bool {
	return o == OpIn || o == OpNotIn
}

// Predicate splits a type-predicate tag into its positive function name and
// whether it is negated: IS_NOT_NULL yields ("IS_NULL", true).
func (o Operator) Predicate() (function string, negated bool) {
	s := string(o)
	if strings.HasPrefix(s, negatedPredicatePrefix) {
		return "IS_" + strings.TrimPrefix(s, negatedPredicatePrefix), true
	}
	return s, false
}

// Operators returns every allow-listed operator, value operators first
func Operators() []Operator {
	ops := []Operator{
		OpEqual, OpNotEqual, OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual, OpIn, OpNotIn, OpLike,
	}
	for _, fn := range []Operator{
		OpIsNull, OpIsDefined, OpIsString, OpIsNumber, OpIsBool,
		OpIsArray, OpIsObject, OpIsInteger, OpIsFiniteNumber, OpIsPrimitive,
	} {
		ops = append(ops, fn, Operator(negatedPredicatePrefix+strings.TrimPrefix(string(fn), "IS_")))
	}
	return ops
}

// Logic is the connective of a compound condition
type Logic string

// Supported connectives
const (
	And Logic = "AND"
	Or  Logic = "OR"
)

// Valid reports whether the connective is AND or OR
func (l Logic) Valid() bool {
	return l == And || l == Or
}

// Condition is either a *Simple or a *Compound.
//
// This is a sealed interface: only types in this package implement it, so
// type switches over it are exhaustive.
type Condition interface {
	conditionNode()
}

// Simple is a single-field predicate
type Simple struct {
	Value    any      `json:"value,omitempty" yaml:"value,omitempty"`
	Field    string   `json:"field" yaml:"field"`
	Operator Operator `json:"operator" yaml:"operator"`
}

// Compound combines its children with one connective
type Compound struct {
	Logic      Logic       `json:"logicOperator" yaml:"logicOperator"`
	Conditions []Condition `json:"conditions" yaml:"conditions"`
}

func (*Simple) conditionNode()   {}
func (*Compound) conditionNode() {}

// Where creates a single-field predicate
func Where(field string, op Operator, value any) *Simple {
	return &Simple{Field: field, Operator: op, Value: value}
}

// Eq creates an equality predicate
func Eq(field string, value any) *Simple {
	return Where(field, OpEqual, value)
}

// All creates an AND group
func All(conditions ...Condition) *Compound {
	return &Compound{Logic: And, Conditions: conditions}
}

// Any creates an OR group
func Any(conditions ...Condition) *Compound {
	return &Compound{Logic: Or, Conditions: conditions}
}

// Parameter is a named query parameter
type Parameter struct {
	Value any    `json:"value" yaml:"value"`
	Name  string `json:"name" yaml:"name"`
}

// Subquery is a pre-rendered query usable as the right-hand side of IN / NOT IN.
// Its text is embedded verbatim and its parameters keep their names.
type Subquery struct {
	Text       string      `json:"text" yaml:"text"`
	Parameters []Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}
