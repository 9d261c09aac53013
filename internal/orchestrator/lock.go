package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFile = "modelsync.lock"

// acquire takes the in-process lock and, when the repository exists, the
// lock file inside its git directory. Both fail fast with ErrBusy.
func (s *Service) acquire() (func(), error) {
	if !s.mu.TryLock() {
		return nil, ErrBusy
	}

	gitDir := filepath.Join(s.config.Path, ".git")
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		return s.mu.Unlock, nil
	}

	fl := flock.New(filepath.Join(gitDir, lockFile))
	locked, err := fl.TryLock()
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		s.mu.Unlock()
		return nil, ErrBusy
	}

	return func() {
		_ = fl.Unlock()
		s.mu.Unlock()
	}, nil
}
