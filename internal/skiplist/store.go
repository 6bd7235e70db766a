// Package skiplist persists the versions the user asked never to be
// notified about again. Each skipped version is an empty marker file in the
// data directory; presence is the only state.
package skiplist

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/breeze-rmm/driverwatch/internal/driver"
	"github.com/breeze-rmm/driverwatch/internal/logging"
)

var log = logging.L("skiplist")

const markerPrefix = "skip_"

// Store reads and writes skip markers under a directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// New returns a Store backed by the OS filesystem.
func New(dir string) *Store {
	return NewWithFs(afero.NewOsFs(), dir)
}

// NewWithFs returns a Store on an arbitrary filesystem.
func NewWithFs(fsys afero.Fs, dir string) *Store {
	return &Store{fs: fsys, dir: dir}
}

func (s *Store) markerPath(info driver.DownloadInfo) string {
	return filepath.Join(s.dir, info.SkipID())
}

// IsSkipped reports whether a marker exists for info's version.
func (s *Store) IsSkipped(info driver.DownloadInfo) bool {
	ok, err := afero.Exists(s.fs, s.markerPath(info))
	if err != nil {
		log.Warn("skip marker check failed", "version", info.Version.String(), "error", err)
		return false
	}
	return ok
}

// Record creates the marker for info's version. Failures are logged and
// otherwise ignored.
func (s *Store) Record(info driver.DownloadInfo) {
	path := s.markerPath(info)

	if err := s.fs.MkdirAll(s.dir, 0700); err != nil {
		log.Error("cannot create skip directory", "dir", s.dir, "error", err)
		return
	}

	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return
		}
		log.Error("cannot record skipped version", "version", info.Version.String(), "path", path, "error", err)
		return
	}
	if err := f.Close(); err != nil {
		log.Warn("closing skip marker", "path", path, "error", err)
	}
	log.Info("user requested to skip version", "version", info.Version.String())
}

// List returns the recorded marker names in sorted order.
func (s *Store) List() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), markerPrefix) {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
