package wildcard

import "testing"

func TestMatch(t *testing.T) {
	cases := []struct {
		pattern, name string
		want          bool
	}{
		{"apple", "apple", true},
		{"apple", "apples", false},
		{"appl*", "apple", true},
		{"appl*", "application", true},
		{"appl?", "apple", false},
		{"appl??", "apple", true},
		{"*.txt", "notes.txt", true},
		{"*.txt", "notes.md", false},
		{"src/*.go", "src/main.go", true},
		{"src/**/*.go", "src/pkg/util.go", true},
	}
	for _, c := range cases {
		if got := Match(c.pattern, c.name); got != c.want {
			t.Errorf("Match(%q, %q) = %v, want %v", c.pattern, c.name, got, c.want)
		}
	}
}

func TestMatchInvalidPatternReturnsFalse(t *testing.T) {
	if Match("[", "anything") {
		t.Error("expected an unparseable pattern to report no match rather than panic")
	}
}
