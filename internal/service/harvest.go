package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/image-harvest/internal/app"
	"github.com/image-harvest/internal/fetch"
	"github.com/image-harvest/internal/finalize"
	"github.com/image-harvest/internal/fsutil"
	"github.com/image-harvest/internal/hash"
	"github.com/image-harvest/internal/logger"
	"github.com/image-harvest/internal/normalize"
	"github.com/image-harvest/internal/provider"
	"github.com/image-harvest/internal/report"
	"github.com/image-harvest/internal/store"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

// ProviderFactory builds the image source for a job.
type ProviderFactory func(job *app.Job) (provider.Provider, error)

func defaultProvider(job *app.Job) (provider.Provider, error) {
	return provider.New(job.Provider, provider.Options{URLs: job.URLs})
}

type HarvestService struct {
	config      *app.Config
	catalog     Catalog
	newProvider ProviderFactory
	progress    io.Writer
	log         zerolog.Logger
}

type Option func(*HarvestService)

// WithCatalog records every run in c.
func WithCatalog(c Catalog) Option {
	return func(s *HarvestService) { s.catalog = c }
}

func WithProviderFactory(f ProviderFactory) Option {
	return func(s *HarvestService) { s.newProvider = f }
}

func WithProgress(w io.Writer) Option {
	return func(s *HarvestService) { s.progress = w }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *HarvestService) { s.log = l }
}

func NewHarvestService(config *app.Config, opts ...Option) *HarvestService {
	s := &HarvestService{
		config:      config,
		newProvider: defaultProvider,
		progress:    io.Discard,
		log:         logger.New("harvest"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type run struct {
	id      xid.ID
	job     *app.Job
	log     zerolog.Logger
	summary *report.Summary
}

// begin resolves and checks job. Stages that never search use the
// offline rules, which need no subject.
func (s *HarvestService) begin(job *app.Job, searching bool) (*run, error) {
	job.Resolve(s.config.OutputRoot)
	validate := job.ValidateOffline
	if searching {
		validate = job.Validate
	}
	if err := validate(); err != nil {
		return nil, fmt.Errorf("service: job %q: %w", job.Name, err)
	}
	if err := os.MkdirAll(job.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("service: create %s: %w", job.Dir, err)
	}

	id := xid.New()
	return &run{
		id:  id,
		job: job,
		log: s.log.With().Str("run_id", id.String()).Str("prefix", job.Prefix).Logger(),
		summary: &report.Summary{
			RunID:     id.String(),
			Subject:   job.Subject,
			Prefix:    job.Prefix,
			Dir:       job.Dir,
			Provider:  job.Provider,
			Policy:    job.Policy,
			Target:    job.Target,
			StartedAt: time.Now(),
		},
	}, nil
}

// Run executes the whole pipeline for job: search, normalize, finalize
// and, when a catalog is configured, record the result. Provider and
// per-file failures are counted in the summary. Only an invalid job, an
// unusable output directory or a cancelled context return an error.
func (s *HarvestService) Run(ctx context.Context, job *app.Job) (*report.Summary, error) {
	r, err := s.begin(job, true)
	if err != nil {
		return nil, err
	}

	existing, err := countFinals(job.Dir, job.Prefix)
	if err != nil {
		return nil, fmt.Errorf("service: scan %s: %w", job.Dir, err)
	}
	r.log.Info().
		Str("subject", job.Subject).
		Str("dir", job.Dir).
		Int("existing", existing).
		Int("target", job.Target).
		Msg("starting run")

	s.startCatalog(ctx, r)

	if existing < job.Target {
		p, err := s.newProvider(job)
		if err != nil {
			return nil, fmt.Errorf("service: provider: %w", err)
		}
		fetcher := fetch.New(p,
			fetch.WithBudget(job.FetchBudget),
			fetch.WithSizeConstraints(job.Constraints()),
			fetch.WithDelay(job.QueryDelay),
			fetch.WithLogger(r.log.With().Str("component", "fetch").Logger()),
		)
		fetched, err := fetcher.Fetch(ctx, job.Dir, job.Queries())
		if fetched != nil {
			r.summary.Queries = fetched.Queries
			r.summary.ProviderErrors = fetched.ProviderErrors
			r.summary.Written = fetched.Written
			r.summary.FetchSkipped = fetched.Skipped
		}
		if err != nil {
			return r.summary, fmt.Errorf("service: fetch: %w", err)
		}
	} else {
		r.log.Info().Msg("target already met, skipping search")
	}

	if err := s.normalize(r, existing); err != nil {
		return r.summary, err
	}
	if err := s.finalize(r); err != nil {
		return r.summary, err
	}
	s.finish(ctx, r)
	return r.summary, nil
}

// NormalizeOnly reprocesses the candidates already in the job directory
// and finalizes them, without searching.
func (s *HarvestService) NormalizeOnly(ctx context.Context, job *app.Job) (*report.Summary, error) {
	r, err := s.begin(job, false)
	if err != nil {
		return nil, err
	}
	existing, err := countFinals(job.Dir, job.Prefix)
	if err != nil {
		return nil, fmt.Errorf("service: scan %s: %w", job.Dir, err)
	}

	s.startCatalog(ctx, r)
	if err := s.normalize(r, existing); err != nil {
		return r.summary, err
	}
	if err := s.finalize(r); err != nil {
		return r.summary, err
	}
	s.finish(ctx, r)
	return r.summary, nil
}

// FinalizeOnly renames pending outputs and removes strays.
func (s *HarvestService) FinalizeOnly(ctx context.Context, job *app.Job) (*report.Summary, error) {
	r, err := s.begin(job, false)
	if err != nil {
		return nil, err
	}

	s.startCatalog(ctx, r)
	if err := s.finalize(r); err != nil {
		return r.summary, err
	}
	s.finish(ctx, r)
	return r.summary, nil
}

func (s *HarvestService) normalize(r *run, existing int) error {
	budget := max(r.job.Target-existing, 0)
	n := normalize.New(r.job.NormalizeOptions(), r.job.Prefix,
		normalize.WithLogger(r.log.With().Str("component", "normalize").Logger()),
		normalize.WithProgress(s.progress),
	)
	result, err := n.Run(r.job.Dir, budget)
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}

	r.summary.Considered = result.Considered
	r.summary.Kept = result.Kept
	r.summary.Rejected = result.Rejected
	r.summary.DecodeErrors = result.DecodeErrors
	r.summary.FilesystemErrors += result.FilesystemErrors
	return nil
}

func (s *HarvestService) finalize(r *run) error {
	f := finalize.New().WithLogger(r.log.With().Str("component", "finalize").Logger())
	result, err := f.Finalize(r.job.Dir, r.job.Prefix, r.job.Target)
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}

	r.summary.Renamed = result.Renamed
	r.summary.Deleted = result.Deleted
	r.summary.FilesystemErrors += result.FilesystemErrors

	r.summary.Files = make([]report.File, 0, len(result.Files))
	for _, name := range result.Files {
		width, height, err := dimensions(filepath.Join(r.job.Dir, name))
		if err != nil {
			r.log.Warn().Err(err).Str("file", name).Msg("could not read final image")
		}
		r.summary.Files = append(r.summary.Files, report.File{Name: name, Width: width, Height: height})
	}
	return nil
}

func (s *HarvestService) startCatalog(ctx context.Context, r *run) {
	if s.catalog == nil {
		return
	}
	err := s.catalog.StartRun(ctx, &store.Run{
		ID:        r.id,
		Subject:   r.job.Subject,
		Prefix:    r.job.Prefix,
		Policy:    r.job.Policy,
		Target:    r.job.Target,
		StartedAt: r.summary.StartedAt,
	})
	if err != nil {
		r.log.Warn().Err(err).Msg("could not record run")
	}
}

// finish catalogs the final images and logs the summary. Catalog failures
// leave the files on disk untouched and are only logged.
func (s *HarvestService) finish(ctx context.Context, r *run) {
	r.summary.Duration = time.Since(r.summary.StartedAt)

	if s.catalog != nil {
		images := make([]store.Image, 0, len(r.summary.Files))
		for _, f := range r.summary.Files {
			path := filepath.Join(r.job.Dir, f.Name)
			h, err := hash.DHashFile(path)
			if err != nil {
				r.log.Warn().Err(err).Str("file", f.Name).Msg("could not fingerprint")
				continue
			}
			images = append(images, store.Image{
				RunID:       r.id.String(),
				Prefix:      r.job.Prefix,
				Path:        path,
				Width:       f.Width,
				Height:      f.Height,
				Hash:        h,
				Fingerprint: hash.Vector(h),
			})
		}
		if err := s.catalog.ReplaceImages(ctx, r.job.Prefix, images); err != nil {
			r.log.Warn().Err(err).Msg("could not catalog images")
		}
		if err := s.catalog.FinishRun(ctx, r.id, len(r.summary.Files)); err != nil {
			r.log.Warn().Err(err).Msg("could not record run")
		}
	}

	r.log.Info().
		Int("kept", r.summary.Kept).
		Int("rejected", r.summary.Rejected).
		Int("decode_errors", r.summary.DecodeErrors).
		Int("filesystem_errors", r.summary.FilesystemErrors).
		Dur("took", r.summary.Duration).
		Msg(r.summary.Short())
}

func countFinals(dir, prefix string) (int, error) {
	names, err := fsutil.ListImages(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	for _, name := range names {
		if _, ok := fsutil.ParseFinal(prefix, name); ok {
			count++
		}
	}
	return count, nil
}

func dimensions(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = file.Close() }()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
