package fulfillment

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

const (
	archiveName   = "setup.exe"
	installDir    = "install"
	installerName = "setup.exe"
)

// Session is the scratch directory owned by a single pipeline run.
type Session struct {
	ID  string
	Dir string

	closeOnce sync.Once
}

// NewSession creates <root>/driverwatch-<uuid>. An empty root means the OS
// temp directory.
func NewSession(root string) (*Session, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("create scratch root: %w", err)
	}

	id := uuid.NewString()
	dir := filepath.Join(root, "driverwatch-"+id)
	if err := os.Mkdir(dir, 0700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &Session{ID: id, Dir: dir}, nil
}

// ArchivePath is where the downloaded artifact is written.
func (s *Session) ArchivePath() string { return filepath.Join(s.Dir, archiveName) }

// InstallDir is the extraction target.
func (s *Session) InstallDir() string { return filepath.Join(s.Dir, installDir) }

// InstallerPath is the installer expected inside the extracted tree.
func (s *Session) InstallerPath() string { return filepath.Join(s.InstallDir(), installerName) }

// Close removes the session directory. It is safe to call more than once;
// removal errors are logged at debug level only.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if err := os.RemoveAll(s.Dir); err != nil {
			log.Debug("session cleanup failed", "dir", s.Dir, "error", err)
		}
	})
}
