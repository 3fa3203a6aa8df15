package digest

import (
	"strings"
	"time"

	"github.com/starford/vaultdigest/internal/models"
	"github.com/starford/vaultdigest/internal/parser"
)

// TimestampLayout formats the modified/created stamps in a section's
// metadata line. Stamps are rendered in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// TruncationNotice precedes a body that was cut to half the byte budget.
const TruncationNotice = "> **Note:** this document exceeded the size limit and has been truncated.\n\n"

// ReadFailureNotice replaces the body of a document that could not be read
// under the skip policy.
const ReadFailureNotice = "> **Note:** this document could not be read and was skipped.\n"

// SectionSeparator ends every section that carries a body.
const SectionSeparator = "\n\n---\n\n"

// RenderHeading returns the section heading for doc at the given depth.
func RenderHeading(doc models.Document, level int) string {
	return strings.Repeat("#", level) + " " + doc.Name
}

// RenderMetadata returns the bold-labelled metadata line. The path is always
// present; each timestamp appears only when it is recorded.
func RenderMetadata(doc models.Document) string {
	var b strings.Builder
	b.WriteString("**Path:** [[")
	b.WriteString(doc.Path)
	b.WriteString("]]")
	writeStamp(&b, "Modified", doc.ModTime)
	writeStamp(&b, "Created", doc.CreatedAt)
	return b.String()
}

func writeStamp(b *strings.Builder, label string, t time.Time) {
	if t.IsZero() {
		return
	}
	b.WriteString(" · **")
	b.WriteString(label)
	b.WriteString(":** ")
	b.WriteString(t.UTC().Format(TimestampLayout))
}

// ProcessBody applies frontmatter stripping and the byte budget to raw content.
// Over budget, the result is TruncationNotice followed by the first
// maxBytes/2 bytes; the cut is byte-exact and may split a multi-byte rune.
func ProcessBody(content string, opts Options) string {
	if !opts.KeepFrontmatter {
		content = parser.StripFrontmatter(content)
	}
	limit := int(opts.MaxBytes)
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if len(content) > limit {
		return TruncationNotice + content[:limit/2]
	}
	return content
}

// RenderSection renders one document. With content disabled, body is ignored
// and the section holds only heading and metadata. opts must be normalised.
func RenderSection(doc models.Document, body string, opts Options) string {
	var b strings.Builder
	b.WriteString(RenderHeading(doc, opts.HeadingLevel))
	b.WriteString("\n\n")
	b.WriteString(RenderMetadata(doc))
	b.WriteString("\n\n")
	if !opts.IncludeContent {
		return b.String()
	}
	b.WriteString(ProcessBody(body, opts))
	b.WriteString(SectionSeparator)
	return b.String()
}

// renderSkipped renders a section whose document could not be read.
func renderSkipped(doc models.Document, opts Options) string {
	var b strings.Builder
	b.WriteString(RenderHeading(doc, opts.HeadingLevel))
	b.WriteString("\n\n")
	b.WriteString(RenderMetadata(doc))
	b.WriteString("\n\n")
	b.WriteString(ReadFailureNotice)
	b.WriteString(SectionSeparator)
	return b.String()
}
