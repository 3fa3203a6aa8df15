// Package parser detects frontmatter boundaries in Markdown content.
package parser

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// Delimiter opens and closes a frontmatter block.
const Delimiter = "---"

// StripFrontmatter removes a leading frontmatter block. The block must open
// with the delimiter at offset 0; the close is the first "\n---" found from
// offset 3, and one line break after it is dropped as well. Content without
// an opening delimiter, or with no closing one, is returned unchanged.
func StripFrontmatter(content string) string {
	if !strings.HasPrefix(content, Delimiter) {
		return content
	}
	idx := strings.Index(content[len(Delimiter):], "\n"+Delimiter)
	if idx < 0 {
		return content
	}
	end := len(Delimiter) + idx + 1 + len(Delimiter)
	rest := content[end:]
	switch {
	case strings.HasPrefix(rest, "\r\n"):
		rest = rest[2:]
	case strings.HasPrefix(rest, "\n"):
		rest = rest[1:]
	}
	return rest
}

// SplitFrontmatter separates a YAML frontmatter block (between leading ---
// delimiters, leading blank lines allowed) from the Markdown body. ok is
// false when there is no complete block or it is not valid YAML; body is
// then the whole input.
func SplitFrontmatter(data []byte) (block []byte, body string, ok bool) {
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(Delimiter)) {
		return nil, string(data), false
	}

	rest := trimmed[len(Delimiter):]
	idx := bytes.Index(rest, []byte("\n"+Delimiter))
	if idx < 0 {
		return nil, string(data), false
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(Delimiter):]

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data), false
	}

	return yamlBlock, strings.TrimLeft(string(afterDelim), "\n\r"), true
}
