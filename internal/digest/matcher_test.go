package digest

import (
	"slices"
	"testing"
)

func TestIsExcluded(t *testing.T) {
	cases := []struct {
		path     string
		prefixes []string
		want     bool
	}{
		{"MOC/x.md", []string{"MOC"}, true},
		{"MOCx.md", []string{"MOC"}, false},
		{"MOC", []string{"MOC"}, true},
		{"Foobar/x.md", []string{"Foo"}, false},
		{"Foo/bar/x.md", []string{"/Foo/"}, true},
		{"Foo/bar/x.md", []string{"Foo/bar"}, true},
		{"foo/x.md", []string{"Foo"}, false},
		{"a.md", []string{"", "/", "//"}, false},
		{"a.md", nil, false},
		{"Archive/2024/x.md", []string{"Templates", "Archive"}, true},
	}
	for _, c := range cases {
		if got := IsExcluded(c.path, c.prefixes); got != c.want {
			t.Errorf("IsExcluded(%q, %q) = %v, want %v", c.path, c.prefixes, got, c.want)
		}
	}
}

func TestParseExcludes(t *testing.T) {
	got := ParseExcludes(" MOC ,, Templates/ ,  ,Daily")
	want := []string{"MOC", "Templates/", "Daily"}
	if !slices.Equal(got, want) {
		t.Errorf("ParseExcludes = %q, want %q", got, want)
	}
	if got := ParseExcludes(""); len(got) != 0 {
		t.Errorf("ParseExcludes(\"\") = %q, want empty", got)
	}
}
