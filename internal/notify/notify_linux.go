//go:build linux

package notify

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// sendNotifier uses notify-send (libnotify >= 0.7.9) with actions. It waits
// for the user's choice and hands it to a new "activate" process, so the
// callback never runs in the process that raised the notification.
type sendNotifier struct {
	executable string
	run        func(ctx context.Context, name string, args ...string) ([]byte, error)
	spawn      func(exe string, args ...string) error
}

func newPlatformNotifier(opts Options) Notifier {
	exe := opts.Executable
	if exe == "" {
		exe, _ = os.Executable()
	}
	return &sendNotifier{
		executable: exe,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
		spawn: func(exe string, args ...string) error {
			cmd := exec.Command(exe, args...)
			if err := cmd.Start(); err != nil {
				return err
			}
			return cmd.Process.Release()
		},
	}
}

func (s *sendNotifier) Show(ctx context.Context, n Notification) error {
	body := fmt.Sprintf("%s\nCurrent version: %s\nLatest version: %s",
		n.Body, n.Current.String(), n.Latest.Version.String())

	args := []string{
		"--app-name=driverwatch",
		"--wait",
		"--action=" + string(ActionDownload) + "=Install",
		"--action=" + string(ActionSkip) + "=Skip",
		n.Title, body,
	}

	out, err := s.run(ctx, "notify-send", args...)
	if err != nil {
		return fmt.Errorf("notify-send: %w", err)
	}

	var p Payload
	switch Action(strings.TrimSpace(string(out))) {
	case ActionDownload:
		p = n.Download()
	case ActionSkip:
		p = n.Skip()
	default:
		log.Info("notification dismissed")
		return nil
	}

	if err := s.spawn(s.executable, "activate", p.URI()); err != nil {
		return fmt.Errorf("start activation process: %w", err)
	}
	log.Info("activation process started", "action", string(p.Action))
	return nil
}
