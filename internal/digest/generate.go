package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/starford/vaultdigest/internal/apperr"
	"github.com/starford/vaultdigest/internal/models"
	"github.com/starford/vaultdigest/internal/parser"
	"github.com/starford/vaultdigest/internal/storage"
)

// ProgressInterval is how many processed documents separate two progress signals.
const ProgressInterval = 50

// ContentsHeading introduces the table of contents.
const ContentsHeading = "## Contents"

// ProgressFunc receives the number of processed documents out of total.
// Calls are serialised and done is strictly increasing.
type ProgressFunc func(done, total int)

// Skip records a document that was rendered with a notice instead of its body.
type Skip struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Result is the composite output of one run. Nothing has been written yet.
type Result struct {
	Destination string    `json:"destination"`
	Content     string    `json:"-"`
	Documents   []string  `json:"documents"`
	Skipped     []Skip    `json:"skipped,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Options     Options   `json:"options"`
}

// header is the YAML metadata block at the top of the composite.
// The destination is deliberately absent.
type header struct {
	Title          string    `yaml:"title"`
	Generated      time.Time `yaml:"generated"`
	IncludeContent bool      `yaml:"includeContent"`
	Sort           SortMode  `yaml:"sort"`
	Exclude        string    `yaml:"exclude"`
}

// Generator builds composite documents from a store.
type Generator struct {
	store    storage.Provider
	logger   *slog.Logger
	progress ProgressFunc
	now      func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = l
	}
}

// WithProgress installs a progress callback. Nil suppresses progress signals.
func WithProgress(fn ProgressFunc) GeneratorOption {
	return func(g *Generator) {
		g.progress = fn
	}
}

// WithClock overrides the clock used for the generation timestamp.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator creates a Generator over store.
func NewGenerator(store storage.Provider, opts ...GeneratorOption) *Generator {
	g := &Generator{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate enumerates, sorts and renders the vault into one composite document.
// Document bodies are read concurrently (bounded by opts.Workers) and assembled
// in sort order. ctx is checked before every read and between sections.
func (g *Generator) Generate(ctx context.Context, opts Options) (*Result, error) {
	opts = opts.Normalize()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	eligible, err := ListEligible(g.store, opts)
	if err != nil {
		return nil, err
	}
	docs := Sort(eligible, opts.Sort)

	g.logger.Debug("digest: documents selected",
		slog.Int("eligible", len(docs)),
		slog.String("sort", string(opts.Sort)),
		slog.String("exclude", opts.Exclude))

	sections, skipped, err := g.renderSections(ctx, docs, opts)
	if err != nil {
		return nil, err
	}

	generatedAt := g.now().UTC().Truncate(time.Second)

	var b strings.Builder
	if err := writeHeader(&b, opts, generatedAt); err != nil {
		return nil, err
	}
	writeContents(&b, opts, docs)

	paths := make([]string, len(docs))
	for i, s := range sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b.WriteString(s)
		paths[i] = docs[i].Path
	}

	res := &Result{
		Destination: opts.Destination,
		Content:     b.String(),
		Documents:   paths,
		Skipped:     skipped,
		GeneratedAt: generatedAt,
		Options:     opts,
	}

	g.logger.Info("digest: generated",
		slog.String("destination", res.Destination),
		slog.Int("documents", len(paths)),
		slog.Int("skipped", len(skipped)),
		slog.Int("bytes", len(res.Content)))

	return res, nil
}

// renderSections renders every document into its section, in docs order.
func (g *Generator) renderSections(ctx context.Context, docs []models.Document, opts Options) ([]string, []Skip, error) {
	sections := make([]string, len(docs))
	failed := make([]error, len(docs))

	var (
		mu   sync.Mutex
		done int
	)
	tick := func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		if g.progress != nil && done%ProgressInterval == 0 {
			g.progress(done, len(docs))
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Workers)

	for i, doc := range docs {
		if err := egCtx.Err(); err != nil {
			break
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if !opts.IncludeContent {
				sections[i] = RenderSection(doc, "", opts)
				tick()
				return nil
			}
			data, err := g.store.Read(doc.Path)
			if err != nil {
				if opts.OnReadError == OnReadErrorSkip {
					g.logger.Warn("digest: skipping unreadable document",
						slog.String("path", doc.Path),
						slog.String("error", err.Error()))
					failed[i] = err
					sections[i] = renderSkipped(doc, opts)
					tick()
					return nil
				}
				return fmt.Errorf("%w: %s: %w", apperr.ErrDocumentRead, doc.Path, err)
			}
			sections[i] = RenderSection(doc, string(data), opts)
			tick()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	// The loop may have stopped early on a cancelled parent without any
	// goroutine observing it.
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var skipped []Skip
	for i, err := range failed {
		if err != nil {
			skipped = append(skipped, Skip{Path: docs[i].Path, Error: err.Error()})
		}
	}
	return sections, skipped, nil
}

func writeHeader(b *strings.Builder, opts Options, generatedAt time.Time) error {
	data, err := yaml.Marshal(header{
		Title:          opts.Title,
		Generated:      generatedAt,
		IncludeContent: opts.IncludeContent,
		Sort:           opts.Sort,
		Exclude:        strings.TrimSpace(opts.Exclude),
	})
	if err != nil {
		return fmt.Errorf("digest: encode header: %w", err)
	}
	b.WriteString(parser.Delimiter + "\n")
	b.Write(data)
	b.WriteString(parser.Delimiter + "\n\n")
	return nil
}

func writeContents(b *strings.Builder, opts Options, docs []models.Document) {
	fmt.Fprintf(b, "# %s\n\n", opts.Title)
	b.WriteString(ContentsHeading + "\n\n")
	if len(docs) == 0 {
		b.WriteString("_No documents matched._\n\n")
		return
	}
	for _, d := range docs {
		fmt.Fprintf(b, "- [[%s]]\n", d.Path)
	}
	b.WriteString("\n")
}
