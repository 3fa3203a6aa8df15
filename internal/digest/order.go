package digest

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/starford/vaultdigest/internal/models"
)

// Sort returns a stably sorted copy of docs. Documents with equal keys keep
// their enumeration order. Unknown modes sort by path.
func Sort(docs []models.Document, mode SortMode) []models.Document {
	out := slices.Clone(docs)
	var compare func(a, b models.Document) int
	switch mode {
	case SortByName:
		compare = func(a, b models.Document) int {
			return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case SortByModified:
		compare = func(a, b models.Document) int {
			return cmp.Compare(stamp(a.ModTime), stamp(b.ModTime))
		}
	case SortByCreated:
		compare = func(a, b models.Document) int {
			return cmp.Compare(stamp(a.CreatedAt), stamp(b.CreatedAt))
		}
	default:
		compare = func(a, b models.Document) int {
			return cmp.Compare(strings.ToLower(a.Path), strings.ToLower(b.Path))
		}
	}
	slices.SortStableFunc(out, compare)
	return out
}

// stamp maps an unrecorded (zero) time to 0 so it sorts first.
func stamp(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
