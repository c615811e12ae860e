package validation

import "testing"

func TestStockValidators(t *testing.T) {
	cases := []struct {
		name  string
		fn    ValidatorFunc
		value any
		want  string
	}{
		{"required nil", Required("Name"), nil, "Name is required"},
		{"required empty", Required("Name"), "", "Name is required"},
		{"required zero", Required("Count"), 0, ""},
		{"required ok", Required("Name"), "Sword", ""},
		{"max over", NumberMax(10, "Damage"), 11, "Damage must be equal or less than 10"},
		{"max edge", NumberMax(10, "Damage"), 10.0, ""},
		{"min under", NumberMin(0.5, "Weight"), 0.25, "Weight must be equal or more than 0.5"},
		{"min non numeric", NumberMin(1, "Weight"), "heavy", ""},
		{"minmax low", NumberMinMax(1, 5, "Level"), 0, "Level must be equal or more than 1"},
		{"minmax high", NumberMinMax(1, 5, "Level"), int64(6), "Level must be equal or less than 5"},
		{"length max", LengthMax(3, "Code"), "abcd", "Code length must be equal or less than 3"},
		{"length max runes", LengthMax(3, "Code"), "äöü", ""},
		{"length min list", LengthMin(2, "Tags"), []any{"a"}, "Tags length must be equal or more than 2"},
		{"length minmax", LengthMinMax(1, 2, "Tags"), []any{}, "Tags length must be equal or more than 1"},
		{"lines max", LinesMax(2, "Description"), "a\nb\nc", "Description lines must be equal or less than 2 lines"},
		{"lines ok", LinesMax(2, "Description"), "a\nb", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.fn([]any{tc.value}); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFirstWithoutValues(t *testing.T) {
	if got := Required("Name")(nil); got != "Name is required" {
		t.Fatalf("expected missing value to be treated as nil, got %q", got)
	}
	if got := All(nil, Required("Name"))([]any{"x"}); got != "" {
		t.Fatalf("expected nil validators to be skipped, got %q", got)
	}
}
