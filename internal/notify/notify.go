// Package notify delivers the "update available" notification and defines
// the payload that carries the user's choice to a later invocation.
package notify

import (
	"context"

	"github.com/breeze-rmm/driverwatch/internal/driver"
	"github.com/breeze-rmm/driverwatch/internal/logging"
)

var log = logging.L("notify")

const (
	DefaultTitle = "GeForce Driver Update Available"
	DefaultBody  = "Click to download & install"
)

// Notification is an update prompt with Install and Skip actions.
type Notification struct {
	Title   string
	Body    string
	Current driver.Version
	Latest  driver.DownloadInfo
}

// NewUpdateNotification builds the standard prompt for current -> latest.
func NewUpdateNotification(current driver.Version, latest driver.DownloadInfo) Notification {
	return Notification{
		Title:   DefaultTitle,
		Body:    DefaultBody,
		Current: current,
		Latest:  latest,
	}
}

// Download is the payload for the Install button and for a body click.
func (n Notification) Download() Payload { return NewPayload(ActionDownload, n.Latest) }

// Skip is the payload for the Skip button.
func (n Notification) Skip() Payload { return NewPayload(ActionSkip, n.Latest) }

// Notifier is the interface for platform-specific notification delivery.
// Show returns once the notification has been handed to the OS; the user's
// choice arrives in a separate process through an activation payload.
type Notifier interface {
	Show(ctx context.Context, n Notification) error
}

// Options configures the platform notifier.
type Options struct {
	// AppID is the Windows AppUserModelID the toast is shown under.
	AppID string
	// Executable is re-invoked with "activate <payload>" where the platform
	// cannot launch it by itself.
	Executable string
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Show(ctx context.Context, n Notification) error { return f(ctx, n) }

// New returns the notifier for the running platform.
func New(opts Options) Notifier {
	return newPlatformNotifier(opts)
}
