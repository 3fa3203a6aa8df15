package digest

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/vaultdigest/internal/apperr"
	"github.com/starford/vaultdigest/internal/parser"
)

// Manifest describes a composite document as read back from its text.
type Manifest struct {
	Title          string    `json:"title"`
	Generated      time.Time `json:"generated"`
	IncludeContent bool      `json:"include_content"`
	Sort           SortMode  `json:"sort"`
	Exclude        string    `json:"exclude"`
	Documents      []string  `json:"documents"`
}

const pathLabel = "**Path:** "

// Verify decodes a composite document and checks that every table of
// contents entry has a section, in the same order. Sections are located by
// walking the contents list, so a document body that itself quotes a digest
// never counts as a section.
func Verify(content []byte) (*Manifest, error) {
	block, body, ok := parser.SplitFrontmatter(content)
	if !ok {
		return nil, fmt.Errorf("verify: missing header block: %w", apperr.ErrMismatch)
	}
	var h header
	if err := yaml.Unmarshal(block, &h); err != nil {
		return nil, fmt.Errorf("verify: decode header: %w", err)
	}

	lines := strings.Split(body, "\n")
	toc, next, err := readContents(lines)
	if err != nil {
		return nil, err
	}

	if len(toc) == 0 {
		for i := next; i < len(lines); i++ {
			if _, ok := sectionPath(lines, i); ok {
				return nil, fmt.Errorf("verify: section after an empty contents list: %w", apperr.ErrMismatch)
			}
		}
	}
	for n, want := range toc {
		found := false
		for ; next < len(lines); next++ {
			if p, ok := sectionPath(lines, next); ok && p == want {
				found = true
				next++
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("verify: contents entry %d (%s) has no section in order: %w", n+1, want, apperr.ErrMismatch)
		}
	}

	return &Manifest{
		Title:          h.Title,
		Generated:      h.Generated,
		IncludeContent: h.IncludeContent,
		Sort:           h.Sort,
		Exclude:        h.Exclude,
		Documents:      toc,
	}, nil
}

// readContents returns the contents list entries and the index of the first
// line after the list.
func readContents(lines []string) ([]string, int, error) {
	start := slices.Index(lines, ContentsHeading)
	if start < 0 {
		return nil, 0, fmt.Errorf("verify: missing contents list: %w", apperr.ErrMismatch)
	}
	i := start + 1
	for i < len(lines) && lines[i] == "" {
		i++
	}
	toc := []string{}
	for ; i < len(lines); i++ {
		line := lines[i]
		if !strings.HasPrefix(line, "- [[") || !strings.HasSuffix(line, "]]") {
			break
		}
		toc = append(toc, line[len("- [["):len(line)-len("]]")])
	}
	return toc, i, nil
}

// sectionPath reports the document path when lines[i] is the metadata line
// of a section: it follows a heading and a blank line.
func sectionPath(lines []string, i int) (string, bool) {
	if i < 2 || lines[i-1] != "" || !strings.HasPrefix(lines[i-2], "#") {
		return "", false
	}
	rest, ok := strings.CutPrefix(lines[i], pathLabel+"[[")
	if !ok {
		return "", false
	}
	p, _, ok := strings.Cut(rest, "]]")
	return p, ok
}
