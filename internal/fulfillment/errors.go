package fulfillment

import (
	"errors"
	"fmt"
)

// ErrUserCancelled indicates the elevation prompt was declined.
var ErrUserCancelled = errors.New("elevation cancelled by user")

// ErrElevationDenied is the same outcome as seen by non-interactive
// elevation (e.g. sudo without cached credentials).
var ErrElevationDenied = ErrUserCancelled

// DownloadError covers transport and storage failures while fetching the
// installer archive.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ExtractError indicates the archive tool could not be started, exited
// unsuccessfully, or did not produce the installer.
type ExtractError struct {
	Archive  string
	ExitCode int // -1 when the tool never ran to completion
	Output   string
	Err      error
}

func (e *ExtractError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("extract %s: exit code %d: %v", e.Archive, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("extract %s: %v", e.Archive, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// LaunchError indicates the installer could not be started.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }
