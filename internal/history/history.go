// Package history keeps a JSONL record of update checks and the actions
// taken on them, so past installs and skips can be reviewed without digging
// through the debug log.
package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/breeze-rmm/driverwatch/internal/logging"
)

var log = logging.L("history")

// FileName is created in the data directory.
const FileName = "history.jsonl"

const (
	maxSizeMB  = 1
	maxBackups = 2
)

// Event types.
const (
	EventCheck           = "check"
	EventSkip            = "skip"
	EventInstallStarted  = "install_started"
	EventInstallFinished = "install_finished"
	EventInstallFailed   = "install_failed"
)

// Entry is one history record.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Event     string         `json:"event"`
	Version   string         `json:"version,omitempty"`
	SessionID string         `json:"sessionId,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Recorder appends entries to <dir>/history.jsonl. Write failures are logged
// and counted, never returned. A nil Recorder discards everything.
type Recorder struct {
	mu      sync.Mutex
	path    string
	w       *logging.RotatingWriter
	dropped atomic.Int64
	now     func() time.Time
}

// Open returns a Recorder for dir. The file is created on first write.
func Open(dir string) *Recorder {
	return &Recorder{path: filepath.Join(dir, FileName), now: time.Now}
}

// Record appends e, filling in the timestamp.
func (r *Recorder) Record(e Entry) {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e.Timestamp = r.now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(e)
	if err != nil {
		log.Error("failed to marshal history entry", "event", e.Event, "error", err)
		r.dropped.Add(1)
		return
	}
	data = append(data, '\n')

	if r.w == nil {
		w, err := logging.NewRotatingWriter(r.path, maxSizeMB, maxBackups)
		if err != nil {
			log.Error("failed to open history file", "path", r.path, "error", err)
			r.dropped.Add(1)
			return
		}
		r.w = w
	}
	if _, err := r.w.Write(data); err != nil {
		log.Error("failed to write history entry", "event", e.Event, "error", err)
		r.dropped.Add(1)
	}
}

// Dropped returns the number of entries that could not be written, or -1
// for a nil Recorder.
func (r *Recorder) Dropped() int64 {
	if r == nil {
		return -1
	}
	return r.dropped.Load()
}

// Close flushes the file. Safe on a nil Recorder.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return nil
	}
	err := r.w.Close()
	r.w = nil
	return err
}

// Read returns up to limit of the most recent entries in dir, oldest first.
// Lines that do not decode are skipped. A missing file yields no entries.
func Read(dir string, limit int) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
		if limit > 0 && len(entries) > limit {
			entries = entries[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return entries, fmt.Errorf("read history: %w", err)
	}
	return entries, nil
}
