// Package decision combines the installed version, the catalog's latest
// release and the skip list into a single update decision per run.
package decision

import (
	"context"
	"errors"
	"fmt"

	"github.com/breeze-rmm/driverwatch/internal/catalog"
	"github.com/breeze-rmm/driverwatch/internal/driver"
	"github.com/breeze-rmm/driverwatch/internal/logging"
	"github.com/breeze-rmm/driverwatch/internal/notify"
)

var log = logging.L("decision")

// Kind tags a Decision.
type Kind int

const (
	NoDevice Kind = iota
	NoCatalogMatch
	UpToDate
	Skipped
	Available
)

func (k Kind) String() string {
	switch k {
	case NoDevice:
		return "no_device"
	case NoCatalogMatch:
		return "no_catalog_match"
	case UpToDate:
		return "up_to_date"
	case Skipped:
		return "skipped"
	case Available:
		return "available"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Decision is the outcome of one update check. Current is set for every kind
// but NoDevice; Latest is set for UpToDate, Skipped and Available.
type Decision struct {
	Kind    Kind
	Current driver.Version
	Latest  driver.DownloadInfo
}

// Notification returns the prompt for an Available decision.
func (d Decision) Notification() (notify.Notification, bool) {
	if d.Kind != Available {
		return notify.Notification{}, false
	}
	return notify.NewUpdateNotification(d.Current, d.Latest), true
}

// VersionProbe reports the installed version, nil when no device exists.
type VersionProbe interface {
	Current(ctx context.Context) (*driver.Version, error)
}

// Catalog returns the newest release for a profile.
type Catalog interface {
	LookupLatest(ctx context.Context, p catalog.Profile) (driver.DownloadInfo, error)
}

// SkipList answers whether the user opted out of a release.
type SkipList interface {
	IsSkipped(info driver.DownloadInfo) bool
}

// Options tunes the engine.
type Options struct {
	// EmptyCatalogIsDecision turns catalog.ErrNoSuitableDriver into a
	// NoCatalogMatch decision instead of an error.
	EmptyCatalogIsDecision bool
}

// Engine runs the update check.
type Engine struct {
	probe   VersionProbe
	catalog Catalog
	skips   SkipList
	profile catalog.Profile
	opts    Options
}

// NewEngine wires an Engine.
func NewEngine(probe VersionProbe, cat Catalog, skips SkipList, profile catalog.Profile, opts Options) *Engine {
	return &Engine{probe: probe, catalog: cat, skips: skips, profile: profile, opts: opts}
}

// Decide runs one check. Probe and catalog failures are returned as errors
// and end the run; everything else is a Decision.
func (e *Engine) Decide(ctx context.Context) (Decision, error) {
	current, err := e.probe.Current(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("get current driver version: %w", err)
	}
	if current == nil {
		log.Info("no NVIDIA device found")
		return Decision{Kind: NoDevice}, nil
	}

	latest, err := e.catalog.LookupLatest(ctx, e.profile)
	if err != nil {
		if e.opts.EmptyCatalogIsDecision && errors.Is(err, catalog.ErrNoSuitableDriver) {
			log.Info("no driver found in catalog", "installed", current.String())
			return Decision{Kind: NoCatalogMatch, Current: *current}, nil
		}
		return Decision{}, fmt.Errorf("get latest driver version: %w", err)
	}

	log.Info("versions resolved", "installed", current.String(), "latest", latest.Version.String())

	d := Decision{Current: *current, Latest: latest}
	switch {
	case current.Equal(latest.Version):
		d.Kind = UpToDate
	case e.skips.IsSkipped(latest):
		d.Kind = Skipped
	default:
		d.Kind = Available
	}

	log.Info("update decision", "decision", d.Kind.String(), logging.KeyVersion, latest.Version.String())
	return d, nil
}
