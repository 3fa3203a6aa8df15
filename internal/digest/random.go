package digest

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vaultdigest/internal/apperr"
	"github.com/starford/vaultdigest/internal/models"
	"github.com/starford/vaultdigest/internal/storage"
)

// DefaultRandomExclude is the folder list the random pick skips when
// nothing is configured.
var DefaultRandomExclude = []string{"MOC"}

// RandomOptions configures the random pick. It shares nothing with Options:
// a digest exclusion never affects which document the pick may return.
type RandomOptions struct {
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// DefaultRandomOptions returns the random pick settings restored by a reset.
func DefaultRandomOptions() RandomOptions {
	return RandomOptions{Exclude: slices.Clone(DefaultRandomExclude)}
}

// Validate rejects folder entries that climb out of the vault.
func (o *RandomOptions) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.Exclude, validation.Each(validation.By(vaultFolder))),
	)
}

func vaultFolder(value any) error {
	s, _ := value.(string)
	for _, seg := range strings.Split(strings.Trim(s, `/\`), "/") {
		if seg == ".." {
			return errors.New("must not contain '..'")
		}
	}
	return nil
}

// Normalize returns a copy with surrounding slashes and spaces trimmed,
// empty entries dropped and duplicates removed. Order is kept.
func (o RandomOptions) Normalize() RandomOptions {
	out := make([]string, 0, len(o.Exclude))
	for _, f := range o.Exclude {
		f = strings.Trim(strings.TrimSpace(f), `/\`)
		if f == "" || slices.Contains(out, f) {
			continue
		}
		out = append(out, f)
	}
	o.Exclude = out
	return o
}

// PickRandom returns a uniformly chosen document that is not under any of
// the excluded prefixes. rng may be nil to use the global source.
func PickRandom(store storage.Provider, prefixes []string, rng *rand.Rand) (models.Document, error) {
	all, err := store.List()
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	}
	eligible := make([]models.Document, 0, len(all))
	for _, d := range all {
		if !IsExcluded(d.Path, prefixes) {
			eligible = append(eligible, d)
		}
	}
	if len(eligible) == 0 {
		return models.Document{}, fmt.Errorf("random pick: no eligible documents: %w", apperr.ErrNotFound)
	}
	var i int
	if rng != nil {
		i = rng.IntN(len(eligible))
	} else {
		i = rand.IntN(len(eligible))
	}
	return eligible[i], nil
}
