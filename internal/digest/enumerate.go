package digest

import (
	"fmt"

	"github.com/starford/vaultdigest/internal/apperr"
	"github.com/starford/vaultdigest/internal/models"
	"github.com/starford/vaultdigest/internal/storage"
)

// ListEligible returns every document in the store that is not under an
// excluded folder, in the store's enumeration order. The destination
// document is dropped only when opts.SkipDestination is set.
func ListEligible(store storage.Provider, opts Options) ([]models.Document, error) {
	all, err := store.List()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	}
	prefixes := ParseExcludes(opts.Exclude)
	dest := ResolveDestination(opts.Destination)

	out := make([]models.Document, 0, len(all))
	for _, d := range all {
		if (opts.SkipDestination && d.Path == dest) || IsExcluded(d.Path, prefixes) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
