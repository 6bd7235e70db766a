//go:build !windows && !linux

package notify

import (
	"context"
	"os"
)

// logNotifier records the prompt and the command that would accept it.
type logNotifier struct {
	executable string
}

func newPlatformNotifier(opts Options) Notifier {
	exe := opts.Executable
	if exe == "" {
		exe, _ = os.Executable()
	}
	return &logNotifier{executable: exe}
}

func (l *logNotifier) Show(_ context.Context, n Notification) error {
	log.Warn("desktop notifications are not supported on this platform",
		"title", n.Title,
		"current", n.Current.String(),
		"latest", n.Latest.Version.String(),
		"install", l.executable+" activate '"+n.Download().URI()+"'",
		"skip", l.executable+" activate '"+n.Skip().URI()+"'",
	)
	return nil
}
