package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
)

// acquireLock берёт эксклюзивную блокировку на время пишущей команды.
// Пустой путь отключает блокировку.
func acquireLock(path string, logger zerolog.Logger) (release func(), err error) {
	if path == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("another image-recon run holds %s", path)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn().Err(err).Str("lock", path).Msg("failed to release run lock")
		}
	}, nil
}
