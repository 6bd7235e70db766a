//go:build !windows

package fulfillment

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/breeze-rmm/driverwatch/internal/privilege"
)

// ElevatedLauncher runs the installer directly when already root and
// through non-interactive sudo otherwise. A sudo that needs a password is
// treated like a declined prompt.
type ElevatedLauncher struct {
	// SudoPath defaults to "sudo" on PATH.
	SudoPath string
}

func (l ElevatedLauncher) Launch(ctx context.Context, path string, started func()) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, &LaunchError{Path: path, Err: err}
	}

	var cmd *exec.Cmd
	if privilege.IsElevated() {
		cmd = exec.Command(path)
	} else {
		sudo := l.SudoPath
		if sudo == "" {
			sudo = "sudo"
		}
		cmd = exec.Command(sudo, "-n", "--", path)
	}
	cmd.Dir = filepath.Dir(path)

	var stderr bytes.Buffer
	cmd.Stdout = os.Stdout
	cmd.Stderr = io.MultiWriter(os.Stderr, &stderr)

	if err := cmd.Start(); err != nil {
		return -1, &LaunchError{Path: path, Err: err}
	}
	if started != nil {
		started()
	}

	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return -1, &LaunchError{Path: path, Err: err}
	}
	if strings.Contains(stderr.String(), "a password is required") {
		return -1, ErrElevationDenied
	}
	return exitErr.ExitCode(), nil
}

func defaultLauncher() Launcher { return ElevatedLauncher{} }

func hideWindow(*exec.Cmd) {}
