package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"syscall"

	"github.com/breeze-rmm/driverwatch/internal/catalog"
	"github.com/breeze-rmm/driverwatch/internal/config"
	"github.com/breeze-rmm/driverwatch/internal/decision"
	"github.com/breeze-rmm/driverwatch/internal/driver"
	"github.com/breeze-rmm/driverwatch/internal/fulfillment"
	"github.com/breeze-rmm/driverwatch/internal/history"
	"github.com/breeze-rmm/driverwatch/internal/httputil"
	"github.com/breeze-rmm/driverwatch/internal/logging"
	"github.com/breeze-rmm/driverwatch/internal/notify"
	"github.com/breeze-rmm/driverwatch/internal/probe"
	"github.com/breeze-rmm/driverwatch/internal/skiplist"
)

var log = logging.L("main")

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadConfig resolves the data directory, reads and validates settings and
// switches logging to the rotated file. The returned closer flushes the log.
func loadConfig() (config.Config, io.Closer, error) {
	dir := resolveDataDir()

	var (
		cfg config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFile(dir, cfgFile)
	} else {
		cfg, err = config.Load(dir)
	}
	if err != nil {
		return config.Config{}, nil, &configError{err: fmt.Errorf("load config: %w", err)}
	}

	var console io.Writer
	if fi, statErr := os.Stderr.Stat(); statErr == nil && fi.Mode()&os.ModeCharDevice != 0 {
		console = os.Stderr
	}

	// Setup tolerates out-of-range log settings, so the file handler is in
	// place before validation messages are written.
	closer, logErr := logging.Setup(cfg.LogPath(), cfg.LogFormat, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, console)
	if logErr != nil {
		log.Warn("log file unavailable, logging to console only", "path", cfg.LogPath(), "error", logErr)
	}
	if res := cfg.ValidateTiered(); res.HasFatals() {
		closer.Close()
		return config.Config{}, nil, &configError{err: fmt.Errorf("invalid config: %w", errors.Join(res.Fatals...))}
	}

	log.Debug("config loaded", "dataDir", cfg.DataDir, "settings", cfg.SettingsPath())
	return cfg, closer, nil
}

func profileOf(cfg config.Config) catalog.Profile {
	return catalog.Profile{
		SeriesID:     cfg.SeriesID,
		FamilyID:     cfg.FamilyID,
		OSID:         cfg.OSID,
		LanguageCode: cfg.LanguageCode,
	}
}

func catalogClient(cfg config.Config) *catalog.Client {
	retry := httputil.DefaultRetryConfig()
	retry.MaxRetries = cfg.CatalogMaxRetries
	return catalog.New(catalog.Config{
		BaseURL: cfg.CatalogURL,
		Timeout: cfg.CatalogTimeout(),
		Retry:   retry,
	})
}

// runCheck is flow A: decide once and notify at most once.
func runCheck(ctx context.Context) error {
	cfg, closer, err := loadConfig()
	if err != nil {
		return err
	}
	defer closer.Close()

	exe, err := os.Executable()
	if err != nil {
		log.Warn("cannot resolve executable path", "error", err)
	} else if runtime.GOOS == "windows" {
		// Toast buttons only work once the scheme points at this binary.
		if err := notify.RegisterProtocol(exe); err != nil {
			log.Warn("protocol handler registration failed", logging.KeyError, err.Error())
		}
	}

	engine := decision.NewEngine(
		probe.New(nil),
		catalogClient(cfg),
		skiplist.New(cfg.DataDir),
		profileOf(cfg),
		decision.Options{EmptyCatalogIsDecision: cfg.EmptyCatalogOK},
	)

	hist := history.Open(cfg.DataDir)
	defer hist.Close()

	d, err := decision.Check(ctx, engine, notify.New(notify.Options{Executable: exe}))
	if err != nil {
		log.Error("update check failed", logging.KeyError, err.Error())
		hist.Record(history.Entry{Event: history.EventCheck, Details: map[string]any{"error": err.Error()}})
		return err
	}
	log.Info("update check finished", "decision", d.Kind.String())
	hist.Record(checkEntry(d))
	return nil
}

func checkEntry(d decision.Decision) history.Entry {
	e := history.Entry{Event: history.EventCheck, Details: map[string]any{"decision": d.Kind.String()}}
	if d.Kind != decision.NoDevice {
		e.Details["installed"] = d.Current.String()
	}
	if !d.Latest.Version.IsZero() {
		e.Version = d.Latest.Version.String()
	}
	return e
}

// runActivate is flow B: dispatch a notification action.
// The payload is examined before settings are loaded so an ignored action
// exits cleanly even with a broken config.txt.
func runActivate(ctx context.Context, arg string) error {
	if arg == "" {
		log.Info("activated without payload, nothing to do")
		return nil
	}
	payload, err := notify.Parse(arg)
	if err != nil {
		log.Warn("ignoring unreadable activation payload", logging.KeyError, err.Error())
		return nil
	}
	if !payload.Known() {
		log.Info("ignoring activation", "action", string(payload.Action))
		return nil
	}

	cfg, closer, err := loadConfig()
	if err != nil {
		return err
	}
	defer closer.Close()

	info, err := payload.Info()
	if err != nil {
		log.Warn("ignoring invalid activation payload", "action", string(payload.Action), logging.KeyError, err.Error())
		return nil
	}

	hist := history.Open(cfg.DataDir)
	defer hist.Close()

	switch payload.Action {
	case notify.ActionSkip:
		skiplist.New(cfg.DataDir).Record(info)
		hist.Record(history.Entry{Event: history.EventSkip, Version: info.Version.String()})
		return nil
	case notify.ActionDownload:
		return install(ctx, cfg, hist, info)
	}
	return nil
}

func install(ctx context.Context, cfg config.Config, hist *history.Recorder, info driver.DownloadInfo) error {
	p := fulfillment.New(fulfillment.Config{
		ScratchDir:      cfg.ScratchDir,
		ArchiverPath:    cfg.ArchiverPath,
		MinFreeDiskMB:   cfg.MinFreeDiskMB,
		DownloadTimeout: cfg.DownloadTimeout(),
	})

	p.OnTransition = func(_, to fulfillment.State) {
		if to == fulfillment.Downloading {
			hist.Record(history.Entry{Event: history.EventInstallStarted, Version: info.Version.String(), Details: map[string]any{"url": info.DownloadURL}})
		}
	}

	res, err := p.Run(ctx, info)
	if err != nil {
		hist.Record(history.Entry{
			Event:     history.EventInstallFailed,
			Version:   info.Version.String(),
			SessionID: res.SessionID,
			Details:   map[string]any{"error": err.Error(), "exitCode": exitCode(&fulfillmentError{err: err})},
		})
		return &fulfillmentError{err: err}
	}
	log.Info("driver installer finished", logging.KeyVersion, info.Version.String(), logging.KeySession, res.SessionID, "exitCode", res.ExitCode)
	hist.Record(history.Entry{
		Event:     history.EventInstallFinished,
		Version:   info.Version.String(),
		SessionID: res.SessionID,
		Details:   map[string]any{"installerExitCode": res.ExitCode, "bytes": res.Bytes},
	})
	return nil
}

func showHistory(w io.Writer, limit int) error {
	entries, err := history.Read(resolveDataDir(), limit)
	if err != nil {
		return &configError{err: err}
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-16s %-7s", e.Timestamp, e.Event, e.Version)
		for _, k := range sortedKeys(e.Details) {
			fmt.Fprintf(w, " %s=%v", k, e.Details[k])
		}
		fmt.Fprintln(w)
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	return config.DefaultDataDir()
}

func listSkips(w io.Writer) error {
	ids, err := skiplist.New(resolveDataDir()).List()
	if err != nil {
		return &configError{err: err}
	}
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	return nil
}

func registerProtocol() error {
	exe, err := os.Executable()
	if err != nil {
		return &configError{err: fmt.Errorf("resolve executable: %w", err)}
	}
	if err := notify.RegisterProtocol(exe); err != nil {
		return &configError{err: err}
	}
	fmt.Printf("registered %s: handler for %s\n", notify.Scheme, exe)
	return nil
}
