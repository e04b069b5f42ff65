package db

import "testing"

func TestSplitCSV(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"blank", "  ", nil},
		{"single", "Daft Punk", []string{"Daft Punk"}},
		{"multiple with spaces", "Pharrell Williams, Nile Rodgers", []string{"Pharrell Williams", "Nile Rodgers"}},
		{"dangling commas", ",A,,B,", []string{"A", "B"}},
		{"only commas", ",,,", nil},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := splitCSV(tc.in)
			if len(got) != len(tc.want) {
				t.Fatalf("splitCSV(%q) = %v, want %v", tc.in, got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("splitCSV(%q)[%d] = %q, want %q", tc.in, i, got[i], tc.want[i])
				}
			}
		})
	}
}
