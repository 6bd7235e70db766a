package fulfillment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/breeze-rmm/driverwatch/internal/logging"
)

const maxToolOutput = 4096

// Extractor unpacks archive into dir.
type Extractor interface {
	Extract(ctx context.Context, archive, dir string) error
}

// SevenZipExtractor runs the 7-Zip command line tool.
type SevenZipExtractor struct {
	Path string
}

func (x SevenZipExtractor) Extract(ctx context.Context, archive, dir string) error {
	cmd := exec.CommandContext(ctx, x.Path, "x", "-y", "-o"+dir, archive)
	hideWindow(cmd)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	logging.FromContext(ctx).Debug("extracting installer", "tool", x.Path, "dest", dir)
	err := cmd.Run()
	if err == nil {
		return nil
	}

	xerr := &ExtractError{Archive: archive, ExitCode: -1, Output: truncate(out.String(), maxToolOutput), Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		xerr.ExitCode = exitErr.ExitCode()
		xerr.Err = fmt.Errorf("%s exited unsuccessfully", filepath.Base(x.Path))
	}
	return xerr
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
