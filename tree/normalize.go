package tree

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()

// Normalize deep copies value into canonical tree form. Structs become records
// keyed by their json tag names (untagged exported fields keep their Go name),
// maps with string or integer keys become records, slices and arrays become
// sequences, pointers and interfaces are followed. Types implementing
// encoding.TextMarshaler (time.Time, for example) are kept as scalar leaves.
func Normalize(value any) (any, error) {
	out, err := normalizeValue(reflect.ValueOf(value), "")
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MustNormalize is Normalize for literals known to be valid.
func MustNormalize(value any) any {
	out, err := Normalize(value)
	if err != nil {
		panic(err)
	}
	return out
}

func normalizeValue(v reflect.Value, path string) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	if v.Kind() != reflect.Pointer && v.Kind() != reflect.Interface && v.Type().Implements(textMarshalerType) {
		return v.Interface(), nil
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return normalizeValue(v.Elem(), path)
	case reflect.Struct:
		out := make(map[string]any, v.NumField())
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name, skip := fieldName(field)
			if skip {
				continue
			}
			item, err := normalizeValue(v.Field(i), join(path, name))
			if err != nil {
				return nil, err
			}
			out[name] = item
		}
		return out, nil
	case reflect.Map:
		if v.IsNil() {
			return map[string]any{}, nil
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key, err := mapKey(iter.Key(), path)
			if err != nil {
				return nil, err
			}
			item, err := normalizeValue(iter.Value(), join(path, key))
			if err != nil {
				return nil, err
			}
			out[key] = item
		}
		return out, nil
	case reflect.Slice:
		if v.IsNil() {
			return []any{}, nil
		}
		fallthrough
	case reflect.Array:
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			item, err := normalizeValue(v.Index(i), join(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out[i] = item
		}
		return out, nil
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return v.Interface(), nil
	default:
		return nil, &PathError{Op: "normalize", Path: path, Err: fmt.Errorf("%w: %s", ErrUnsupportedValue, v.Kind())}
	}
}

func fieldName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}
	return name, false
}

func mapKey(key reflect.Value, path string) (string, error) {
	if key.Kind() == reflect.Interface && !key.IsNil() {
		key = key.Elem()
	}
	switch key.Kind() {
	case reflect.String:
		return key.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(key.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(key.Uint(), 10), nil
	default:
		return "", &PathError{Op: "normalize", Path: path, Err: fmt.Errorf("%w: map key %s", ErrUnsupportedValue, key.Type())}
	}
}

func join(parent, segment string) string {
	if parent == "" {
		return segment
	}
	return parent + "/" + segment
}
