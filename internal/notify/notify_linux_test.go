//go:build linux

package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/breeze-rmm/driverwatch/internal/driver"
)

func testNotification() Notification {
	return NewUpdateNotification(driver.MustParseCatalog("551.10"), driver.DownloadInfo{
		Version:     driver.MustParseCatalog("552.22"),
		DownloadURL: "https://example.com/552.22.exe",
	})
}

func TestSendNotifierSpawnsActivationForChoice(t *testing.T) {
	tests := []struct {
		output string
		action Action
	}{
		{"download\n", ActionDownload},
		{"skip\n", ActionSkip},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			var spawned []string
			s := &sendNotifier{
				executable: "/usr/bin/driverwatch",
				run: func(_ context.Context, name string, args ...string) ([]byte, error) {
					if name != "notify-send" {
						t.Fatalf("unexpected command %s", name)
					}
					joined := strings.Join(args, " ")
					if !strings.Contains(joined, "--action=download=Install") || !strings.Contains(joined, "--action=skip=Skip") {
						t.Fatalf("missing actions in %q", joined)
					}
					return []byte(tt.output), nil
				},
				spawn: func(exe string, args ...string) error {
					spawned = append([]string{exe}, args...)
					return nil
				},
			}

			if err := s.Show(context.Background(), testNotification()); err != nil {
				t.Fatalf("Show: %v", err)
			}
			if len(spawned) != 3 || spawned[1] != "activate" {
				t.Fatalf("spawned = %v", spawned)
			}
			p, err := Parse(spawned[2])
			if err != nil {
				t.Fatal(err)
			}
			if p.Action != tt.action || p.DriverVersion != "552.22" {
				t.Fatalf("payload = %+v", p)
			}
		})
	}
}

func TestSendNotifierDismissedDoesNothing(t *testing.T) {
	s := &sendNotifier{
		run: func(context.Context, string, ...string) ([]byte, error) { return nil, nil },
		spawn: func(string, ...string) error {
			t.Fatal("dismissal must not start an activation")
			return nil
		},
	}
	if err := s.Show(context.Background(), testNotification()); err != nil {
		t.Fatalf("Show: %v", err)
	}
}

func TestSendNotifierCommandFailure(t *testing.T) {
	s := &sendNotifier{
		run: func(context.Context, string, ...string) ([]byte, error) {
			return nil, errors.New("exec: notify-send: not found")
		},
	}
	if err := s.Show(context.Background(), testNotification()); err == nil {
		t.Fatal("expected error when notify-send is missing")
	}
}
