package validation

import (
	"fmt"
	"regexp"
	"strings"

	customerrors "github.com/pay-theory/cosmorm/pkg/errors"
)

// SecurityError represents a security validation error
type SecurityError struct {
	Type   string
	Field  string
	Detail string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("security validation failed [%s]: %s - %s", e.Type, e.Field, e.Detail)
}

// Unwrap maps the error type onto the matching sentinel so callers can use errors.Is.
func (e *SecurityError) Unwrap() error {
	switch e.Type {
	case "InvalidField":
		return customerrors.ErrInvalidField
	case "InvalidValue":
		return customerrors.ErrValueTooLong
	case "InvalidOptions":
		return customerrors.ErrInvalidOptions
	default:
		return nil
	}
}

// MaxValueStringLength caps string literals, in UTF-16 code units
const MaxValueStringLength = 1000

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateFieldName validates a document property name. Only ASCII letters,
// digits and underscores are accepted, which keeps identifiers out of reach
// of injection since they are rendered into the query text.
func ValidateFieldName(field string) error {
	if field == "" {
		return &SecurityError{
			Type:   "InvalidField",
			Field:  field,
			Detail: "field name cannot be empty",
		}
	}

	if !identifierPattern.MatchString(field) {
		return &SecurityError{
			Type:   "InvalidField",
			Field:  field,
			Detail: "field name may only contain letters, digits and underscores",
		}
	}

	return nil
}

// ValidateFieldNames validates every name in a projection list
func ValidateFieldNames(fields []string) error {
	for _, field := range fields {
		if err := ValidateFieldName(field); err != nil {
			return err
		}
	}
	return nil
}

// ValidateValue checks the length of textual literals. Non-string values are
// accepted as-is since they are bound as parameters.
func ValidateValue(field string, value any) error {
	s, ok := value.(string)
	if !ok {
		return nil
	}

	if TextLength(s) > MaxValueStringLength {
		return &SecurityError{
			Type:   "InvalidValue",
			Field:  field,
			Detail: fmt.Sprintf("string value exceeds maximum length of %d characters", MaxValueStringLength),
		}
	}

	return nil
}

// TextLength returns the length of s in UTF-16 code units, the unit the
// document store measures strings in.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
			continue
		}
		n++
	}
	return n
}

// ValidateOrderDirection normalizes an order direction to ASC or DESC
func ValidateOrderDirection(direction string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(direction)) {
	case "ASC":
		return "ASC", nil
	case "DESC":
		return "DESC", nil
	default:
		return "", &SecurityError{
			Type:   "InvalidOptions",
			Field:  direction,
			Detail: "order direction must be asc or desc",
		}
	}
}

// ValidatePaging validates offset/limit values rendered into a statement
func ValidatePaging(offset, limit int) error {
	if offset < 0 {
		return &SecurityError{
			Type:   "InvalidOptions",
			Field:  "offset",
			Detail: "offset cannot be negative",
		}
	}

	if limit < 1 {
		return &SecurityError{
			Type:   "InvalidOptions",
			Field:  "limit",
			Detail: "limit must be at least 1",
		}
	}

	return nil
}
