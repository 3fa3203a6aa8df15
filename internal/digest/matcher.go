package digest

import "strings"

// IsExcluded reports whether path equals one of the folder prefixes or lies
// beneath one. Prefixes are compared after trimming surrounding slashes;
// empty prefixes never match. Matching is case-sensitive and segment-exact,
// so "Foo" excludes "Foo/x.md" but not "Foobar/x.md".
func IsExcluded(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// ParseExcludes splits a comma-separated exclusion string into trimmed,
// non-empty prefixes.
func ParseExcludes(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
