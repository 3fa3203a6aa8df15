// Package digestservice runs digest generations end to end: generate, write,
// record the run and publish the outcome. Invocations are serialised.
package digestservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/starford/vaultdigest/internal/apperr"
	"github.com/starford/vaultdigest/internal/checksum"
	"github.com/starford/vaultdigest/internal/digest"
	"github.com/starford/vaultdigest/internal/history"
	"github.com/starford/vaultdigest/internal/models"
	"github.com/starford/vaultdigest/internal/sse"
	"github.com/starford/vaultdigest/internal/storage"
)

// Publisher receives run events. *sse.Broker satisfies it.
type Publisher interface {
	Publish(event sse.Event)
	PublishProgress(done, total int)
}

// Report summarises one generation run.
type Report struct {
	history.Run
	Paths   []string      `json:"paths"`
	Skipped []digest.Skip `json:"skipped,omitempty"`
}

// RunDetail is a recorded run with its ordered document list.
type RunDetail struct {
	history.Run
	Paths []string `json:"paths"`
}

// VerifyReport is the outcome of reading back a written digest.
type VerifyReport struct {
	Path     string           `json:"path"`
	Checksum string           `json:"checksum"`
	Manifest *digest.Manifest `json:"manifest"`
	// LastRunID is the most recent completed run for Path, if any.
	LastRunID string `json:"last_run_id,omitempty"`
	// Unchanged reports whether the file still matches that run's checksum.
	Unchanged bool `json:"unchanged"`
}

// Service coordinates the store, the generator and the run history.
type Service struct {
	store    storage.Provider
	runs     history.Recorder
	events   Publisher
	logger   *slog.Logger
	defaults digest.Options
	random   digest.RandomOptions
	now      func() time.Time

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets where progress and completion events go.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithDefaults sets the options used when a caller supplies no overrides.
func WithDefaults(o digest.Options) Option {
	return func(s *Service) {
		s.defaults = o
	}
}

// WithRandomDefaults sets the exclusions used by PickRandom callers that
// supply none.
func WithRandomDefaults(o digest.RandomOptions) Option {
	return func(s *Service) {
		s.random = o.Normalize()
	}
}

// WithClock overrides the clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a digest service. runs may be nil to skip recording.
func NewService(store storage.Provider, runs history.Recorder, opts ...Option) *Service {
	s := &Service{
		store:    store,
		runs:     runs,
		logger:   slog.Default(),
		defaults: digest.DefaultOptions(),
		random:   digest.DefaultRandomOptions(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults returns the configured base options.
func (s *Service) Defaults() digest.Options {
	return s.defaults
}

// RandomDefaults returns the configured random pick settings.
func (s *Service) RandomDefaults() digest.RandomOptions {
	return s.random
}

// Generate runs one full generation with opts and writes the result.
// The run is recorded whether it succeeds or not.
func (s *Service) Generate(ctx context.Context, opts digest.Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	gen := digest.NewGenerator(s.store,
		digest.WithLogger(s.logger),
		digest.WithClock(s.now),
		digest.WithProgress(func(done, total int) {
			if s.events != nil {
				s.events.PublishProgress(done, total)
			}
		}),
	)

	res, err := gen.Generate(ctx, opts)
	if err == nil {
		err = digest.Write(s.store, res.Destination, res.Content, s.logger)
	}

	run := history.Run{
		Destination: opts.Normalize().Destination,
		GeneratedAt: start.UTC(),
		Duration:    s.now().Sub(start),
	}
	report := &Report{}
	if err != nil {
		run.Status = history.StatusFailed
		run.Error = err.Error()
	} else {
		run.Status = history.StatusCompleted
		run.GeneratedAt = res.GeneratedAt
		run.Documents = len(res.Documents)
		run.Skipped = len(res.Skipped)
		run.Bytes = len(res.Content)
		run.Checksum = checksum.Sum([]byte(res.Content))
		report.Paths = res.Documents
		report.Skipped = res.Skipped
	}
	s.record(&run, report.Paths)
	report.Run = run

	if err != nil {
		s.logger.Error("digest run failed",
			slog.String("destination", run.Destination),
			slog.String("error", err.Error()))
		s.publish(sse.EventFailed, report)
		return nil, err
	}
	s.logger.Info("digest run completed",
		slog.String("id", run.ID),
		slog.String("destination", run.Destination),
		slog.Int("documents", run.Documents),
		slog.Int("skipped", run.Skipped))
	s.publish(sse.EventCompleted, report)
	return report, nil
}

func (s *Service) record(run *history.Run, paths []string) {
	if s.runs == nil {
		return
	}
	if err := s.runs.RecordRun(run, paths); err != nil {
		s.logger.Warn("record run failed",
			slog.String("destination", run.Destination),
			slog.String("error", err.Error()))
	}
}

func (s *Service) publish(kind string, report *Report) {
	if s.events != nil {
		s.events.Publish(sse.Event{Type: kind, Data: report})
	}
}

// PickRandom returns one eligible document outside the exclude folders.
// The digest options play no part in the pick.
func (s *Service) PickRandom(ctx context.Context, exclude []string) (models.Document, error) {
	if err := ctx.Err(); err != nil {
		return models.Document{}, err
	}
	return digest.PickRandom(s.store, exclude, nil)
}

// Runs lists recent runs, newest first.
func (s *Service) Runs(_ context.Context, limit int) ([]history.Run, error) {
	if s.runs == nil {
		return []history.Run{}, nil
	}
	runs, err := s.runs.ListRuns(limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []history.Run{}
	}
	return runs, nil
}

// Run returns one recorded run with its document list.
func (s *Service) Run(_ context.Context, id string) (*RunDetail, error) {
	if s.runs == nil {
		return nil, fmt.Errorf("%w: run %s", apperr.ErrNotFound, id)
	}
	run, err := s.runs.GetRun(id)
	if err != nil {
		return nil, err
	}
	paths, err := s.runs.RunDocuments(id)
	if err != nil {
		return nil, err
	}
	return &RunDetail{Run: *run, Paths: paths}, nil
}

// Verify reads the digest at path (the default destination when empty) and
// checks its table of contents against its sections.
func (s *Service) Verify(ctx context.Context, path string) (*VerifyReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "" {
		path = s.defaults.Destination
	}
	path = digest.ResolveDestination(path)

	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, path)
		}
		return nil, err
	}
	manifest, err := digest.Verify(data)
	if err != nil {
		return nil, err
	}

	rep := &VerifyReport{Path: path, Checksum: checksum.Sum(data), Manifest: manifest}
	if last := s.lastCompleted(path); last != nil {
		rep.LastRunID = last.ID
		rep.Unchanged = last.Checksum == rep.Checksum
	}
	return rep, nil
}

func (s *Service) lastCompleted(destination string) *history.Run {
	if s.runs == nil {
		return nil
	}
	run, err := s.runs.LastCompleted(destination)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("look up last run failed", slog.String("error", err.Error()))
		}
		return nil
	}
	return run
}
