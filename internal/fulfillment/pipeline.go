// Package fulfillment downloads, extracts and runs a driver installer inside
// a throwaway session directory.
package fulfillment

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/breeze-rmm/driverwatch/internal/driver"
	"github.com/breeze-rmm/driverwatch/internal/logging"
)

var log = logging.L("fulfillment")

// Launcher starts the installer with elevated rights and blocks until it
// exits. started is called once the process is running.
type Launcher interface {
	Launch(ctx context.Context, path string, started func()) (int, error)
}

// Config holds pipeline settings taken from config.Config.
type Config struct {
	ScratchDir      string
	ArchiverPath    string
	MinFreeDiskMB   int
	DownloadTimeout time.Duration // zero means unbounded
}

// Result describes a finished run.
type Result struct {
	SessionID string
	State     State
	ExitCode  int
	Bytes     int64
}

// Pipeline runs Downloading, Extracting, Elevating and Running in order.
// It is single use per process invocation but holds no state between runs.
type Pipeline struct {
	config     Config
	downloader Downloader
	extractor  Extractor
	launcher   Launcher

	// OnTransition observes every state change, including the terminal one.
	OnTransition func(from, to State)
}

// Option overrides a pipeline stage.
type Option func(*Pipeline)

func WithDownloader(d Downloader) Option { return func(p *Pipeline) { p.downloader = d } }
func WithExtractor(x Extractor) Option   { return func(p *Pipeline) { p.extractor = x } }
func WithLauncher(l Launcher) Option     { return func(p *Pipeline) { p.launcher = l } }

// New returns a pipeline using HTTP, 7-Zip and the platform launcher unless
// overridden.
func New(cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		config:     cfg,
		downloader: NewHTTPDownloader(cfg.MinFreeDiskMB),
		extractor:  SevenZipExtractor{Path: cfg.ArchiverPath},
		launcher:   defaultLauncher(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type run struct {
	p      *Pipeline
	state  State
	logger *slog.Logger
}

func (r *run) transition(to State) {
	if !canTransition(r.state, to) {
		panic(fmt.Sprintf("fulfillment: invalid transition %s -> %s", r.state, to))
	}
	from := r.state
	r.state = to
	r.logger.Debug("state transition", "from", from.String(), logging.KeyStage, to.String())
	if r.p.OnTransition != nil {
		r.p.OnTransition(from, to)
	}
}

// fail removes the session before entering Failed.
func (r *run) fail(sess *Session, err error) error {
	stage := r.state
	sess.Close()
	r.transition(Failed)
	r.logger.Error("fulfillment failed", logging.KeyStage, stage.String(), logging.KeyError, err.Error())
	return err
}

// Run carries info through the pipeline. The session directory is removed
// before Run returns, whatever the outcome. A non-zero installer exit code is
// reported in Result, not as an error.
func (p *Pipeline) Run(ctx context.Context, info driver.DownloadInfo) (Result, error) {
	sess, err := NewSession(p.config.ScratchDir)
	if err != nil {
		return Result{State: Idle}, &DownloadError{URL: info.DownloadURL, Err: err}
	}
	defer sess.Close()

	r := &run{
		p:      p,
		state:  Idle,
		logger: logging.WithSession(log, sess.ID).With(logging.KeyVersion, info.Version.String()),
	}
	ctx = logging.NewContext(ctx, r.logger)
	res := Result{SessionID: sess.ID, ExitCode: -1}

	r.logger.Info("starting fulfillment", "url", info.DownloadURL, "dir", sess.Dir)

	// 1. Download.
	r.transition(Downloading)
	dlCtx := ctx
	if p.config.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		dlCtx, cancel = context.WithTimeout(ctx, p.config.DownloadTimeout)
		defer cancel()
	}
	n, err := p.downloader.Download(dlCtx, info.DownloadURL, sess.ArchivePath())
	res.Bytes = n
	if err != nil {
		res.State = Failed
		return res, r.fail(sess, err)
	}
	r.logger.Info("download complete", "bytes", n)

	// 2. Extract.
	r.transition(Extracting)
	if err := p.extractor.Extract(ctx, sess.ArchivePath(), sess.InstallDir()); err != nil {
		res.State = Failed
		return res, r.fail(sess, err)
	}
	if _, err := os.Stat(sess.InstallerPath()); err != nil {
		res.State = Failed
		return res, r.fail(sess, &ExtractError{
			Archive:  sess.ArchivePath(),
			ExitCode: -1,
			Err:      fmt.Errorf("installer not found after extraction: %w", err),
		})
	}

	// 3. Elevate and wait.
	r.transition(Elevating)
	code, err := p.launcher.Launch(ctx, sess.InstallerPath(), func() { r.transition(Running) })
	if err != nil {
		res.State = Failed
		return res, r.fail(sess, err)
	}
	if r.state == Elevating {
		// Launchers that never report a start still ran the installer.
		r.transition(Running)
	}
	res.ExitCode = code

	sess.Close()
	r.transition(Done)
	res.State = Done
	if code != 0 {
		r.logger.Warn("installer exited with non-zero code", "exitCode", code)
	} else {
		r.logger.Info("installer finished", "exitCode", code)
	}
	return res, nil
}
