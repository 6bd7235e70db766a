package fulfillment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/breeze-rmm/driverwatch/internal/logging"
	"github.com/shirou/gopsutil/v3/disk"
)

// Downloader streams a URL to a local file and returns the bytes written.
type Downloader interface {
	Download(ctx context.Context, url, dest string) (int64, error)
}

// HTTPDownloader fetches the artifact with a plain GET. The copy has no
// timeout of its own; callers bound it through ctx.
type HTTPDownloader struct {
	Client *http.Client

	// MinFreeBytes is the space that must remain on the destination volume
	// after the download. Zero disables the check.
	MinFreeBytes uint64

	// freeSpace is swapped in tests.
	freeSpace func(path string) (uint64, error)
}

// NewHTTPDownloader returns a downloader with no client-level timeout.
func NewHTTPDownloader(minFreeMB int) *HTTPDownloader {
	var min uint64
	if minFreeMB > 0 {
		min = uint64(minFreeMB) * 1024 * 1024
	}
	return &HTTPDownloader{
		Client:       &http.Client{},
		MinFreeBytes: min,
	}
}

func (d *HTTPDownloader) Download(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, &DownloadError{URL: url, Err: err}
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, &DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &DownloadError{URL: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	if err := d.checkFreeSpace(ctx, dest, resp.ContentLength); err != nil {
		return 0, &DownloadError{URL: url, Err: err}
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return 0, &DownloadError{URL: url, Err: fmt.Errorf("create %s: %w", dest, err)}
	}

	n, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, &DownloadError{URL: url, Err: err}
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return n, &DownloadError{URL: url, Err: fmt.Errorf("short body: got %d of %d bytes", n, resp.ContentLength)}
	}
	return n, nil
}

// checkFreeSpace fails when the volume holding dest would drop below
// MinFreeBytes. An unknown size only checks the floor. Errors from the
// usage query are logged and ignored.
func (d *HTTPDownloader) checkFreeSpace(ctx context.Context, dest string, size int64) error {
	if d.MinFreeBytes == 0 {
		return nil
	}

	free := d.freeSpace
	if free == nil {
		free = volumeFree
	}
	dir := filepath.Dir(dest)

	avail, err := free(dir)
	if err != nil {
		logging.FromContext(ctx).Warn("free space check unavailable", "path", dir, "error", err)
		return nil
	}

	need := d.MinFreeBytes
	if size > 0 {
		need += uint64(size)
	}
	if avail < need {
		return fmt.Errorf("insufficient disk space: %d MB free, %d MB required", avail/(1024*1024), need/(1024*1024))
	}
	return nil
}

func volumeFree(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}
