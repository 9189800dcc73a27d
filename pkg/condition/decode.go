package condition

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	customerrors "github.com/pay-theory/cosmorm/pkg/errors"
)

// Document decodes a condition from a YAML or JSON filter document. It can be
// embedded in configuration structs.
//
// Three mapping shapes are recognized:
//
//	field: status            # single predicate
//	operator: IN
//	value: [active, pending]
//
//	logicOperator: OR        # group
//	conditions: [...]
//
//	status: active           # plain filter, one equality per key
//	tenantId: t-1
//
// A predicate value shaped as {kind: subquery, text: ..., parameters: [...]}
// decodes to a Subquery. Plain filters keep the document's key order.
type Document struct {
	Condition Condition
}

// Parse decodes a filter document. JSON input is accepted since it is valid YAML.
func Parse(data []byte) (Condition, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse filter document: %w", err)
	}
	if doc.Condition == nil {
		return nil, fmt.Errorf("%w: document is empty", customerrors.ErrEmptyFilter)
	}
	return doc.Condition, nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Document) UnmarshalYAML(node *yaml.Node) error {
	c, err := decodeCondition(node)
	if err != nil {
		return err
	}
	d.Condition = c
	return nil
}

func decodeCondition(node *yaml.Node) (Condition, error) {
	node = resolve(node)
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: condition must be a mapping", node.Line)
	}

	keys, values := pairs(node)
	index := make(map[string]int, len(keys))
	for i, k := range keys {
		index[k] = i
	}

	_, hasLogic := index["logicOperator"]
	_, hasConditions := index["conditions"]
	_, hasField := index["field"]
	_, hasOperator := index["operator"]

	switch {
	case hasLogic && hasConditions:
		return decodeCompound(values[index["logicOperator"]], values[index["conditions"]])
	case hasField && hasOperator:
		simple := &Simple{
			Field:    resolve(values[index["field"]]).Value,
			Operator: Operator(strings.ToUpper(resolve(values[index["operator"]]).Value)),
		}
		if i, ok := index["value"]; ok {
			v, err := decodeValue(values[i])
			if err != nil {
				return nil, err
			}
			simple.Value = v
		}
		return simple, nil
	default:
		entries := make([]Entry, len(keys))
		for i, k := range keys {
			v, err := decodeValue(values[i])
			if err != nil {
				return nil, err
			}
			entries[i] = Entry{Field: k, Value: v}
		}
		return NormalizeEntries(entries...)
	}
}

func decodeCompound(logicNode, conditionsNode *yaml.Node) (Condition, error) {
	conditionsNode = resolve(conditionsNode)
	if conditionsNode.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: conditions must be a list", conditionsNode.Line)
	}

	group := &Compound{
		Logic:      Logic(strings.ToUpper(resolve(logicNode).Value)),
		Conditions: make([]Condition, 0, len(conditionsNode.Content)),
	}
	for _, child := range conditionsNode.Content {
		c, err := decodeCondition(child)
		if err != nil {
			return nil, err
		}
		group.Conditions = append(group.Conditions, c)
	}
	return group, nil
}

type subqueryDocument struct {
	Kind       string      `yaml:"kind"`
	Text       string      `yaml:"text"`
	Parameters []Parameter `yaml:"parameters"`
}

func decodeValue(node *yaml.Node) (any, error) {
	node = resolve(node)
	if node.Kind == yaml.MappingNode {
		var sq subqueryDocument
		if err := node.Decode(&sq); err == nil && sq.Kind == "subquery" {
			return Subquery{Text: sq.Text, Parameters: sq.Parameters}, nil
		}
	}

	var v any
	if err := node.Decode(&v); err != nil {
		return nil, fmt.Errorf("line %d: failed to decode value: %w", node.Line, err)
	}
	return v, nil
}

func pairs(node *yaml.Node) ([]string, []*yaml.Node) {
	n := len(node.Content) / 2
	keys := make([]string, 0, n)
	values := make([]*yaml.Node, 0, n)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
		values = append(values, node.Content[i+1])
	}
	return keys, values
}

func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && (node.Kind == yaml.DocumentNode || node.Kind == yaml.AliasNode) {
		if node.Kind == yaml.AliasNode {
			node = node.Alias
			continue
		}
		if len(node.Content) == 0 {
			break
		}
		node = node.Content[0]
	}
	return node
}
