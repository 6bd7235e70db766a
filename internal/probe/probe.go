// Package probe reads the installed display driver version from the host.
package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/breeze-rmm/driverwatch/internal/driver"
	"github.com/breeze-rmm/driverwatch/internal/logging"
)

var log = logging.L("probe")

// VendorPrefix selects the device whose driver we track.
const VendorPrefix = "NVIDIA"

// Device is one row of the host's video controller table.
type Device struct {
	Name          string
	DriverVersion string
}

// DeviceLister enumerates video controllers.
type DeviceLister interface {
	ListDevices(ctx context.Context) ([]Device, error)
}

// ProbeError reports that the device table could not be read or that the
// vendor device reported an unusable version.
type ProbeError struct {
	Op  string
	Err error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Op, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Probe resolves the installed vendor driver version.
type Probe struct {
	lister DeviceLister
}

// New creates a Probe. A nil lister uses the platform device table.
func New(lister DeviceLister) *Probe {
	if lister == nil {
		lister = platformLister{}
	}
	return &Probe{lister: lister}
}

// Current returns the normalized version of the first vendor device, or nil
// when no such device is present.
func (p *Probe) Current(ctx context.Context) (*driver.Version, error) {
	devices, err := p.lister.ListDevices(ctx)
	if err != nil {
		return nil, &ProbeError{Op: "list devices", Err: err}
	}

	for _, dev := range devices {
		if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(dev.Name)), VendorPrefix) {
			continue
		}
		v, err := driver.ParseHost(dev.DriverVersion)
		if err != nil {
			return nil, &ProbeError{Op: "parse " + dev.Name, Err: err}
		}
		log.Debug("found vendor device", "name", dev.Name, "rawVersion", dev.DriverVersion, "version", v.String())
		return &v, nil
	}

	log.Debug("no vendor device found", "devices", len(devices))
	return nil, nil
}
