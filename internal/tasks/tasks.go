package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtfs/internal/services"
	"github.com/desertthunder/mtfs/internal/shared"
	"golang.org/x/time/rate"
)

// Options tunes naming, pacing and retry behaviour.
type Options struct {
	NamePrefix              string
	PageDelay               time.Duration // between page requests
	TrackBatchDelay         time.Duration // between track-add batches
	BatchDelay              time.Duration // between batch items
	CoverAttempts           int
	CoverRetryDelay         time.Duration
	CoverQuality            int
	DescriptionPollInterval time.Duration
	DescriptionMaxWait      time.Duration
}

// DefaultOptions mirrors the defaults of the embedded configuration.
func DefaultOptions() Options {
	return OptionsFromConfig(shared.DefaultConfig().Archive)
}

// OptionsFromConfig converts the [archive] configuration section.
func OptionsFromConfig(cfg shared.ArchiveConfig) Options {
	return Options{
		NamePrefix:              cfg.NamePrefix,
		PageDelay:               cfg.PageDelay.Duration,
		TrackBatchDelay:         cfg.TrackBatchDelay.Duration,
		BatchDelay:              cfg.BatchDelay.Duration,
		CoverAttempts:           cfg.CoverRetryAttempts,
		CoverRetryDelay:         cfg.CoverRetryDelay.Duration,
		CoverQuality:            cfg.CoverJPEGQuality,
		DescriptionPollInterval: cfg.DescriptionPollInterval.Duration,
		DescriptionMaxWait:      cfg.DescriptionMaxWait.Duration,
	}
}

// Pacer enforces a minimum delay between consecutive remote calls.
//
// The first call goes through immediately.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer returns a pacer spacing calls by at least d. A zero delay disables pacing.
func NewPacer(d time.Duration) *Pacer {
	if d <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(d), 1)}
}

// Wait blocks until the next call may proceed.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// Engine bundles the archival workflow components around one API client.
type Engine struct {
	api      services.SpotifyAPI
	logger   *log.Logger
	opts     Options
	Tracks   *TrackResolver
	Locator  *Locator
	Covers   *CoverReplicator
	Copier   *Copier
	Archiver *Archiver
	Search   *TrackSearch
	Catalog  *CatalogBuilder
}

// NewEngine wires every component. store may be nil, in which case archives are detected from descriptions only.
func NewEngine(api services.SpotifyAPI, store ArchiveStore, opts Options, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	pages := NewPacer(opts.PageDelay)
	tracks := NewTrackResolver(api, pages, logger)
	locator := NewLocator(api, pages, logger)
	covers := NewCoverReplicator(api, nil, CoverOptions{
		Attempts: opts.CoverAttempts,
		Delay:    opts.CoverRetryDelay,
		Quality:  opts.CoverQuality,
	}, logger)
	copier := NewCopier(api, tracks, covers, CopierOptions{
		TrackBatchDelay: opts.TrackBatchDelay,
		PollInterval:    opts.DescriptionPollInterval,
		MaxWait:         opts.DescriptionMaxWait,
	}, logger)

	var checker ArchiveChecker = DescriptionChecker{}
	if store != nil {
		checker = StoreChecker{Store: store}
	}

	archiver := NewArchiver(api, copier, checker, store, locator, ArchiverOptions{
		NamePrefix: opts.NamePrefix,
		BatchDelay: opts.BatchDelay,
	}, logger)

	return &Engine{
		api:      api,
		logger:   logger,
		opts:     opts,
		Tracks:   tracks,
		Locator:  locator,
		Covers:   covers,
		Copier:   copier,
		Archiver: archiver,
		Search:   NewTrackSearch(api, locator, tracks, logger),
		Catalog:  NewCatalogBuilder(api, copier, pages, logger),
	}
}
