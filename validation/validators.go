package validation

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// First adapts a single-value check to a ValidatorFunc reading the first
// selected value.
func First(check func(value any) string) ValidatorFunc {
	return func(values []any) string {
		var value any
		if len(values) > 0 {
			value = values[0]
		}
		return check(value)
	}
}

// All runs validators in order and returns the first failure message.
func All(validators ...ValidatorFunc) ValidatorFunc {
	return func(values []any) string {
		for _, validate := range validators {
			if validate == nil {
				continue
			}
			if msg := validate(values); msg != "" {
				return msg
			}
		}
		return ""
	}
}

// ----------------------------------------------------------------------------
// Presence
// ----------------------------------------------------------------------------

// Required fails for nil and the empty string.
func Required(field string) ValidatorFunc {
	return First(func(value any) string {
		if IsBlank(value) {
			return field + " is required"
		}
		return ""
	})
}

// ----------------------------------------------------------------------------
// Numbers
// ----------------------------------------------------------------------------

// NumberMax fails when the value is greater than max. Non-numeric values pass.
func NumberMax(max float64, field string) ValidatorFunc {
	return First(func(value any) string {
		n, ok := Number(value)
		if ok && n > max {
			return field + " must be equal or less than " + formatNumber(max)
		}
		return ""
	})
}

// NumberMin fails when the value is less than min. Non-numeric values pass.
func NumberMin(min float64, field string) ValidatorFunc {
	return First(func(value any) string {
		n, ok := Number(value)
		if ok && n < min {
			return field + " must be equal or more than " + formatNumber(min)
		}
		return ""
	})
}

// NumberMinMax is NumberMin followed by NumberMax.
func NumberMinMax(min, max float64, field string) ValidatorFunc {
	return All(NumberMin(min, field), NumberMax(max, field))
}

// ----------------------------------------------------------------------------
// Lengths
// ----------------------------------------------------------------------------

// LengthMax fails when a string or sequence is longer than max.
func LengthMax(max int, field string) ValidatorFunc {
	return First(func(value any) string {
		n, ok := Length(value)
		if ok && n > max {
			return field + " length must be equal or less than " + strconv.Itoa(max)
		}
		return ""
	})
}

// LengthMin fails when a string or sequence is shorter than min.
func LengthMin(min int, field string) ValidatorFunc {
	return First(func(value any) string {
		n, ok := Length(value)
		if ok && n < min {
			return field + " length must be equal or more than " + strconv.Itoa(min)
		}
		return ""
	})
}

// LengthMinMax is LengthMin followed by LengthMax.
func LengthMinMax(min, max int, field string) ValidatorFunc {
	return All(LengthMin(min, field), LengthMax(max, field))
}

// LinesMax fails when a string spans more than max lines.
func LinesMax(max int, field string) ValidatorFunc {
	return First(func(value any) string {
		s, ok := value.(string)
		if ok && LineCount(s) > max {
			return field + " lines must be equal or less than " + strconv.Itoa(max) + " lines"
		}
		return ""
	})
}

// ----------------------------------------------------------------------------
// Predicates
// ----------------------------------------------------------------------------

// IsBlank reports whether value is nil or the empty string.
func IsBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	default:
		return false
	}
}

// Length returns the rune count of a string or the size of a sequence.
func Length(value any) (int, bool) {
	switch v := value.(type) {
	case string:
		return utf8.RuneCountInString(v), true
	case []any:
		return len(v), true
	default:
		return 0, false
	}
}

// LineCount returns the number of lines in s. The empty string is one line.
func LineCount(s string) int {
	return strings.Count(s, "\n") + 1
}

// Number converts any Go numeric kind to float64.
func Number(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
