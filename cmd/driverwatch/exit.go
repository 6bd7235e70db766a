package main

import (
	"errors"

	"github.com/breeze-rmm/driverwatch/internal/catalog"
	"github.com/breeze-rmm/driverwatch/internal/decision"
	"github.com/breeze-rmm/driverwatch/internal/fulfillment"
	"github.com/breeze-rmm/driverwatch/internal/probe"
)

// Process exit codes. Installer exit codes are logged, not propagated.
const (
	exitOK          = 0
	exitConfig      = 1
	exitProbe       = 2
	exitCatalog     = 3
	exitNotify      = 4
	exitDownload    = 10
	exitExtract     = 11
	exitCancelled   = 12
	exitLaunch      = 13
	exitFulfillment = 14
)

// configError marks failures to load or validate settings, and command-line
// usage errors.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// fulfillmentError marks an error raised by the install pipeline so that
// unclassified pipeline failures map to exitFulfillment.
type fulfillmentError struct {
	err error
}

func (e *fulfillmentError) Error() string { return e.err.Error() }
func (e *fulfillmentError) Unwrap() error { return e.err }

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var (
		cfgErr   *configError
		probeErr *probe.ProbeError
		dlErr    *fulfillment.DownloadError
		xErr     *fulfillment.ExtractError
		launch   *fulfillment.LaunchError
		fErr     *fulfillmentError
	)
	switch {
	case errors.As(err, &cfgErr):
		return exitConfig
	case errors.As(err, &probeErr):
		return exitProbe
	case errors.Is(err, catalog.ErrCatalogUnavailable), errors.Is(err, catalog.ErrNoSuitableDriver):
		return exitCatalog
	case errors.Is(err, decision.ErrNotify):
		return exitNotify
	case errors.Is(err, fulfillment.ErrUserCancelled):
		return exitCancelled
	case errors.As(err, &dlErr):
		return exitDownload
	case errors.As(err, &xErr):
		return exitExtract
	case errors.As(err, &launch):
		return exitLaunch
	case errors.As(err, &fErr):
		return exitFulfillment
	default:
		// cobra argument and flag errors
		return exitConfig
	}
}
