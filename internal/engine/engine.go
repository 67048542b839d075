package engine

import (
	"context"
	"fmt"
	"net/http"

	"github.com/NamanBalaji/mtdl/internal/common"
	"github.com/NamanBalaji/mtdl/internal/config"
	"github.com/NamanBalaji/mtdl/internal/downloader"
	"github.com/NamanBalaji/mtdl/internal/logger"
	"github.com/NamanBalaji/mtdl/internal/progress"
	httpProto "github.com/NamanBalaji/mtdl/internal/protocol/http"
	"github.com/NamanBalaji/mtdl/internal/repository"
)

// Engine wires one run together: the HTTP handler, the downloader, the
// progress renderer and the run history. The history database is held open
// only for the transaction that needs it.
type Engine struct {
	config  *config.Config
	handler *httpProto.Handler

	downloadOpts []downloader.Option
}

// Option customizes an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	renderer     progress.Renderer
	handlerOpts  []httpProto.Option
	downloadOpts []downloader.Option
}

// WithRenderer sets where progress is displayed.
func WithRenderer(r progress.Renderer) Option {
	return func(o *engineOptions) {
		o.renderer = r
	}
}

// WithTransport replaces the HTTP round tripper of the handler.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *engineOptions) {
		o.handlerOpts = append(o.handlerOpts, httpProto.WithTransport(rt))
	}
}

// WithDownloadOptions passes options through to every download.
func WithDownloadOptions(opts ...downloader.Option) Option {
	return func(o *engineOptions) {
		o.downloadOpts = append(o.downloadOpts, opts...)
	}
}

// New creates a new Engine instance.
func New(cfg *config.Config, opts ...Option) *Engine {
	logger.Infof("Creating new engine instance")

	if cfg == nil {
		defaults := config.DefaultConfig()
		cfg = &defaults
	}

	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.renderer == nil {
		o.renderer = progress.NewLogRenderer(logger.Zap())
	}
	o.downloadOpts = append([]downloader.Option{downloader.WithRenderer(o.renderer)}, o.downloadOpts...)

	e := &Engine{
		config:       cfg,
		handler:      httpProto.NewHandler(cfg.Download(), o.handlerOpts...),
		downloadOpts: o.downloadOpts,
	}

	logger.Infof("Engine instance created successfully")

	return e
}

// openRepository opens the run history database. Callers close it as soon as
// their transaction is done.
func (e *Engine) openRepository() (*repository.BoltDBRepository, error) {
	dbPath := e.config.HistoryPath()
	logger.Debugf("Opening repository, dbpath: %v", dbPath)

	repo, err := repository.NewBoltDBRepository(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	return repo, nil
}

// Run downloads the configured URL and records the run. The returned
// Download is never nil and carries the final status of the run.
func (e *Engine) Run(ctx context.Context) (*downloader.Download, error) {
	d := downloader.NewDownload(e.config.URL, e.config.Output, e.handler, e.config.Download(), e.downloadOpts...)

	err := d.Start(ctx)
	logger.Infow("Run finished",
		"id", d.ID,
		"status", common.StatusName(d.GetStatus()),
		"bytes", d.TotalSize,
		"workers", d.Workers,
		"elapsed", d.Duration(),
	)
	e.record(d)

	return d, err
}

// record saves d to the history. A history failure never fails the run.
func (e *Engine) record(d *downloader.Download) {
	if e.config.NoHistory {
		return
	}

	repo, err := e.openRepository()
	if err != nil {
		logger.Warnf("Skipping history for run %s: %v", d.ID, err)
		return
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Warnf("Failed to close history: %v", err)
		}
	}()

	if err := repo.Save(d); err != nil {
		logger.Warnf("Failed to save run %s to history: %v", d.ID, err)
	}
}

// History returns the recorded runs, most recent first.
func (e *Engine) History() ([]*downloader.Download, error) {
	repo, err := e.openRepository()
	if err != nil {
		logger.Errorf("Failed to open history: %v", err)
		return nil, err
	}
	defer repo.Close()

	return repo.FindAll()
}

// Shutdown releases idle connections.
func (e *Engine) Shutdown() {
	logger.Infof("Shutting down engine")
	e.handler.Close()
}
