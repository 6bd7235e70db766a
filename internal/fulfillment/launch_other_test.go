//go:build !windows

package fulfillment

import (
	"context"
	"errors"
	"os"
	"testing"
)

// fakeSudo drops "-n --" and runs the rest.
func fakeSudo(t *testing.T) string {
	t.Helper()
	return writeScript(t, "sudo", "shift 2\nexec \"$@\"\n")
}

func TestElevatedLauncherExitCode(t *testing.T) {
	installer := writeScript(t, "setup.exe", "exit 5\n")

	var started bool
	code, err := ElevatedLauncher{SudoPath: fakeSudo(t)}.Launch(context.Background(), installer, func() { started = true })
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if code != 5 {
		t.Fatalf("code = %d, want 5", code)
	}
	if !started {
		t.Fatal("started callback not invoked")
	}
}

func TestElevatedLauncherPasswordRequired(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root; sudo is not used")
	}
	sudo := writeScript(t, "sudo", "echo 'sudo: a password is required' >&2\nexit 1\n")
	installer := writeScript(t, "setup.exe", "exit 0\n")

	_, err := ElevatedLauncher{SudoPath: sudo}.Launch(context.Background(), installer, nil)
	if !errors.Is(err, ErrUserCancelled) {
		t.Fatalf("err = %v, want ErrUserCancelled", err)
	}
}

func TestElevatedLauncherStartFailure(t *testing.T) {
	missing := t.TempDir() + "/setup.exe"
	if os.Geteuid() != 0 {
		// With sudo in front the missing installer only shows as an exit code.
		t.Skip("start failure is only observable when running the installer directly")
	}

	_, err := ElevatedLauncher{}.Launch(context.Background(), missing, nil)
	var lerr *LaunchError
	if !errors.As(err, &lerr) {
		t.Fatalf("err = %v, want *LaunchError", err)
	}
}

func TestElevatedLauncherCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ElevatedLauncher{SudoPath: fakeSudo(t)}.Launch(ctx, "setup.exe", nil)
	var lerr *LaunchError
	if !errors.As(err, &lerr) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want *LaunchError wrapping context.Canceled", err)
	}
}
