// Package digest aggregates the documents of a vault into one composite
// Markdown document: enumerate, filter, sort, render, assemble and write.
package digest

import (
	"encoding/json"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// SortMode selects the ordering key for sections.
type SortMode string

// Sort modes.
const (
	SortByPath     SortMode = "path"
	SortByName     SortMode = "name"
	SortByModified SortMode = "modified"
	SortByCreated  SortMode = "created"
)

// ReadErrorPolicy decides what happens when a single document cannot be read.
type ReadErrorPolicy string

// Read error policies.
const (
	// OnReadErrorAbort fails the whole generation.
	OnReadErrorAbort ReadErrorPolicy = "abort"
	// OnReadErrorSkip renders a notice in place of the body and continues.
	OnReadErrorSkip ReadErrorPolicy = "skip"
)

// Defaults.
const (
	DefaultMaxBytes     = 2_000_000
	DefaultHeadingLevel = 2
	DefaultTitle        = "Vault Digest"
	DefaultWorkers      = 4
	DefaultDestination  = "Vault Digest.md"
)

// ByteLimit is a per-document body budget in bytes. Decoding a missing,
// non-positive or non-numeric value yields DefaultMaxBytes instead of an error.
type ByteLimit int

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteLimit) UnmarshalYAML(node *yaml.Node) error {
	*b = parseByteLimit(node.Value)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler. Both numbers and strings are accepted.
func (b *ByteLimit) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		*b = DefaultMaxBytes
		return nil
	}
	switch v := raw.(type) {
	case float64:
		*b = parseByteLimit(strconv.FormatFloat(v, 'f', -1, 64))
	case string:
		*b = parseByteLimit(v)
	default:
		*b = DefaultMaxBytes
	}
	return nil
}

func parseByteLimit(s string) ByteLimit {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return DefaultMaxBytes
	}
	return ByteLimit(n)
}

// Options is the immutable configuration of one generation run.
type Options struct {
	Destination     string          `yaml:"destination" json:"destination"` // vault-relative
	Title           string          `yaml:"title" json:"title"`
	IncludeContent  bool            `yaml:"include_content" json:"include_content"`
	MaxBytes        ByteLimit       `yaml:"max_bytes" json:"max_bytes"`
	Exclude         string          `yaml:"exclude" json:"exclude"` // comma-separated folder prefixes
	Sort            SortMode        `yaml:"sort" json:"sort"`
	HeadingLevel    int             `yaml:"heading_level" json:"heading_level"`
	KeepFrontmatter bool            `yaml:"keep_frontmatter" json:"keep_frontmatter"`
	OnReadError     ReadErrorPolicy `yaml:"on_read_error" json:"on_read_error"`
	Workers         int             `yaml:"workers" json:"workers"` // concurrent document reads
	// SkipDestination drops the destination document from enumeration so a
	// regenerated digest never contains its previous version.
	SkipDestination bool `yaml:"skip_destination" json:"skip_destination"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Destination:    DefaultDestination,
		Title:          DefaultTitle,
		IncludeContent: true,
		MaxBytes:       DefaultMaxBytes,
		Sort:           SortByPath,
		HeadingLevel:   DefaultHeadingLevel,
		OnReadError:    OnReadErrorAbort,
		Workers:        DefaultWorkers,
	}
}

// Validate rejects values that cannot be normalised into something sensible.
// Heading level and byte budget are clamped by Normalize instead.
func (o *Options) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.Sort, validation.In(SortByPath, SortByName, SortByModified, SortByCreated)),
		validation.Field(&o.OnReadError, validation.In(OnReadErrorAbort, OnReadErrorSkip)),
		validation.Field(&o.Workers, validation.Min(0), validation.Max(64)),
	)
}

// Normalize returns a copy with defaults filled in and ranges clamped.
func (o Options) Normalize() Options {
	o.Destination = ResolveDestination(o.Destination)
	if strings.TrimSpace(o.Title) == "" {
		o.Title = DefaultTitle
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	switch {
	case o.HeadingLevel < 1:
		o.HeadingLevel = 1
	case o.HeadingLevel > 6:
		o.HeadingLevel = 6
	}
	switch o.Sort {
	case SortByPath, SortByName, SortByModified, SortByCreated:
	default:
		o.Sort = SortByPath
	}
	if o.OnReadError != OnReadErrorSkip {
		o.OnReadError = OnReadErrorAbort
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	return o
}

// Overrides carries optional per-invocation changes to Options.
// Nil fields keep the base value.
type Overrides struct {
	Destination     *string          `json:"destination,omitempty"`
	Title           *string          `json:"title,omitempty"`
	IncludeContent  *bool            `json:"include_content,omitempty"`
	MaxBytes        *ByteLimit       `json:"max_bytes,omitempty"`
	Exclude         *string          `json:"exclude,omitempty"`
	Sort            *SortMode        `json:"sort,omitempty"`
	HeadingLevel    *int             `json:"heading_level,omitempty"`
	KeepFrontmatter *bool            `json:"keep_frontmatter,omitempty"`
	OnReadError     *ReadErrorPolicy `json:"on_read_error,omitempty"`
	SkipDestination *bool            `json:"skip_destination,omitempty"`
}

// Apply returns base with every non-nil override applied.
func (ov Overrides) Apply(base Options) Options {
	if ov.Destination != nil {
		base.Destination = *ov.Destination
	}
	if ov.Title != nil {
		base.Title = *ov.Title
	}
	if ov.IncludeContent != nil {
		base.IncludeContent = *ov.IncludeContent
	}
	if ov.MaxBytes != nil {
		base.MaxBytes = *ov.MaxBytes
	}
	if ov.Exclude != nil {
		base.Exclude = *ov.Exclude
	}
	if ov.Sort != nil {
		base.Sort = *ov.Sort
	}
	if ov.HeadingLevel != nil {
		base.HeadingLevel = *ov.HeadingLevel
	}
	if ov.KeepFrontmatter != nil {
		base.KeepFrontmatter = *ov.KeepFrontmatter
	}
	if ov.OnReadError != nil {
		base.OnReadError = *ov.OnReadError
	}
	if ov.SkipDestination != nil {
		base.SkipDestination = *ov.SkipDestination
	}
	return base
}
