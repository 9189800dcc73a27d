package expr

import (
	"strconv"
	"strings"

	"github.com/pay-theory/cosmorm/pkg/condition"
	"github.com/pay-theory/cosmorm/pkg/core"
	"github.com/pay-theory/cosmorm/pkg/validation"
)

// matchAll is the WHERE clause used when no filter is given
const matchAll = "1=1"

// SelectClause renders a projection. No fields selects the whole document.
func SelectClause(fields []string) (string, error) {
	if len(fields) == 0 {
		return "*", nil
	}
	if err := validation.ValidateFieldNames(fields); err != nil {
		return "", err
	}

	refs := make([]string, len(fields))
	for i, f := range fields {
		refs[i] = FieldRef(f)
	}
	return strings.Join(refs, ", "), nil
}

// Where compiles an optional filter. A nil filter matches every document.
func Where(filter condition.Condition) (*Fragment, error) {
	if isNil(filter) {
		return &Fragment{Text: matchAll, Parameters: []condition.Parameter{}}, nil
	}
	return Compile(filter)
}

// CountStatement builds SELECT VALUE COUNT(1) FROM c WHERE ...
func CountStatement(filter condition.Condition) (core.Statement, error) {
	where, err := Where(filter)
	if err != nil {
		return core.Statement{}, err
	}
	return statement(where, "SELECT", "VALUE", "COUNT(1)", "FROM", DocumentAlias, "WHERE", where.Text), nil
}

// SelectStatement builds SELECT <fields> FROM c WHERE ...
func SelectStatement(filter condition.Condition, fields []string) (core.Statement, error) {
	projection, err := SelectClause(fields)
	if err != nil {
		return core.Statement{}, err
	}
	where, err := Where(filter)
	if err != nil {
		return core.Statement{}, err
	}
	return statement(where, "SELECT", projection, "FROM", DocumentAlias, "WHERE", where.Text), nil
}

// FirstStatement builds SELECT TOP 1 * FROM c WHERE ...
func FirstStatement(filter condition.Condition) (core.Statement, error) {
	where, err := Where(filter)
	if err != nil {
		return core.Statement{}, err
	}
	return statement(where, "SELECT", "TOP", "1", "*", "FROM", DocumentAlias, "WHERE", where.Text), nil
}

// PageStatement builds an ordered, paged select. Unset options take the
// core.QueryOptions defaults.
func PageStatement(filter condition.Condition, opts *core.QueryOptions) (core.Statement, error) {
	o := opts.WithDefaults()

	if err := validation.ValidateFieldName(o.OrderBy); err != nil {
		return core.Statement{}, err
	}
	direction, err := validation.ValidateOrderDirection(o.OrderDirection)
	if err != nil {
		return core.Statement{}, err
	}
	if err := validation.ValidatePaging(o.Offset, o.Limit); err != nil {
		return core.Statement{}, err
	}

	projection, err := SelectClause(o.Select)
	if err != nil {
		return core.Statement{}, err
	}
	where, err := Where(filter)
	if err != nil {
		return core.Statement{}, err
	}

	return statement(where,
		"SELECT", projection, "FROM", DocumentAlias, "WHERE", where.Text,
		"ORDER", "BY", FieldRef(o.OrderBy), direction,
		"OFFSET", strconv.Itoa(o.Offset), "LIMIT", strconv.Itoa(o.Limit),
	), nil
}

func statement(where *Fragment, tokens ...string) core.Statement {
	return core.Statement{
		Query:      strings.Join(tokens, " "),
		Parameters: where.Parameters,
	}
}
