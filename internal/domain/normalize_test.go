package domain

import "testing"

func TestNormalizeAlias(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Acme Corp", "acme corp"},
		{"ACME  corp", "acme corp"},
		{"  acme\tCORP\n", "acme corp"},
		{"", ""},
		{"   ", ""},
		{"Läkerol AB", "läkerol ab"},
	}

	for _, tc := range cases {
		if got := NormalizeAlias(tc.in); got != tc.want {
			t.Errorf("NormalizeAlias(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	err := MissingField("site_id")
	if !err.Is(ErrMissingRequiredField) {
		t.Fatalf("expected MissingField to match ErrMissingRequiredField")
	}
	if err.Is(ErrEmptyBatch) {
		t.Fatalf("did not expect MissingField to match ErrEmptyBatch")
	}
}
