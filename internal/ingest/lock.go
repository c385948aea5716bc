package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrIngestRunning indicates another ingest run holds the lock.
var ErrIngestRunning = errors.New("another ingest run is in progress")

// acquireLock takes the cross-process ingest lock, failing fast when it is
// held. The returned func releases it.
func (p *Pipeline) acquireLock() (func(), error) {
	path := p.lockPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting user home directory: %w", err)
		}
		dir := filepath.Join(home, ".docwise")
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating lock directory: %w", err)
		}
		path = filepath.Join(dir, "ingest.lock")
	}

	lock := flock.New(path)
	held, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring ingest lock: %w", err)
	}
	if !held {
		return nil, ErrIngestRunning
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			p.logger.Warn("releasing ingest lock", "error", err)
		}
	}, nil
}
