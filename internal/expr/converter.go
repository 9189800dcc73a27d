package expr

import (
	"reflect"
	"time"
)

// ConvertValue prepares a Go value for binding as a query parameter. Pointers
// are dereferenced (nil becomes null) and times are rendered the way the
// repository stores them, so comparisons against stored timestamps work.
// Everything else is passed through for the store's JSON encoder.
func ConvertValue(value any) any {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case time.Time:
		return FormatTime(v)
	case *time.Time:
		if v == nil {
			return nil
		}
		return FormatTime(*v)
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		return ConvertValue(rv.Elem().Interface())
	}

	return value
}

// FormatTime renders t as an ISO-8601 UTC timestamp with millisecond precision
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// convertToList converts any slice or array (except []byte) to []any.
// The second return is false when value is not a list.
func convertToList(value any) ([]any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case []any:
		return v, true
	case []string:
		result := make([]any, len(v))
		for i, s := range v {
			result[i] = s
		}
		return result, true
	case []int:
		result := make([]any, len(v))
		for i, n := range v {
			result[i] = n
		}
		return result, true
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return []any{}, true
	}

	result := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		result[i] = rv.Index(i).Interface()
	}
	return result, true
}
